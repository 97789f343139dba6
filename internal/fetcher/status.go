package fetcher

import (
	"fmt"
	"io"
	"net/http"
	"slices"
)

// maxSnippetBytes 에러 메시지에 포함할 응답 본문의 최대 크기
const maxSnippetBytes = 1024

// HTTPStatusError 2xx가 아닌 응답을 나타내는 에러
type HTTPStatusError struct {
	StatusCode  int
	Status      string
	URL         string
	Header      http.Header
	BodySnippet string
	Cause       error
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d (%s) URL: %s", e.StatusCode, e.Status, e.URL)
	if e.BodySnippet != "" {
		msg += fmt.Sprintf(", Body: %s", e.BodySnippet)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Cause
}

// Temporary 재시도하면 성공할 수 있는 상태 코드인지 확인합니다 (408, 429, 501/505/511을 제외한 5xx).
func (e *HTTPStatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	case http.StatusNotImplemented, http.StatusHTTPVersionNotSupported, http.StatusNetworkAuthenticationRequired:
		return false
	}
	return e.StatusCode >= 500
}

// CheckResponseStatus 응답 상태 코드가 2xx이거나 allowed에 포함되면 nil을, 아니면 HTTPStatusError를 반환합니다.
// 본문 일부를 읽어 에러에 담으며, 본문을 닫지는 않습니다.
func CheckResponseStatus(resp *http.Response, allowed ...int) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if slices.Contains(allowed, resp.StatusCode) {
		return nil
	}

	var snippet string
	if resp.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxSnippetBytes))
		snippet = string(b)
	}

	return &HTTPStatusError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		URL:         redactURL(resp.Request.URL),
		Header:      redactHeaders(resp.Header),
		BodySnippet: snippet,
	}
}

// StatusCodeFetcher 2xx가 아닌 응답을 HTTPStatusError로 바꾸는 Fetcher
type StatusCodeFetcher struct {
	delegate Fetcher
	allowed  []int
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*StatusCodeFetcher)(nil)

// NewStatusCodeFetcher allowed에 나열한 상태 코드는 에러로 바꾸지 않습니다.
func NewStatusCodeFetcher(delegate Fetcher, allowed ...int) *StatusCodeFetcher {
	return &StatusCodeFetcher{delegate: delegate, allowed: allowed}
}

func (f *StatusCodeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}
		return nil, err
	}

	if resp.Request == nil {
		resp.Request = req
	}
	if statusErr := CheckResponseStatus(resp, f.allowed...); statusErr != nil {
		drainAndCloseBody(resp.Body)
		return nil, statusErr
	}
	return resp, nil
}
