// Package fetcher 외부 HTTP API(밴드 Open API, AI 댓글 분석 엔드포인트) 호출을 데코레이터 체인으로 조합합니다.
//
// 기본 체인: LoggingFetcher -> RateLimitFetcher -> RetryFetcher -> StatusCodeFetcher -> HTTPFetcher
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

// component 로깅용 컴포넌트 이름
const component = "fetcher"

// Fetcher HTTP 요청을 수행하는 인터페이스입니다.
//
// 반환된 응답의 Body는 호출자가 닫아야 합니다.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Get 지정된 URL로 GET 요청을 전송합니다.
func Get(ctx context.Context, f Fetcher, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewErrRequestCreationFailed(err, url)
	}
	return f.Do(req)
}

// FetchBytes 요청을 수행하고 응답 본문 전체를 반환합니다. 본문은 maxBodyBytes까지만 읽습니다.
func FetchBytes(f Fetcher, req *http.Request) ([]byte, error) {
	resp, err := f.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.NetworkError, fmt.Sprintf("응답 본문 읽기 실패 (URL: %s)", redactURL(req.URL)))
	}
	if len(body) > maxBodyBytes {
		return nil, NewErrBodyTooLarge(redactURL(req.URL), maxBodyBytes)
	}
	return body, nil
}

// FetchJSON 요청을 수행하고 응답 본문(JSON)을 v로 디코딩합니다.
func FetchJSON(ctx context.Context, f Fetcher, method, url string, header map[string]string, body io.Reader, v any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return NewErrRequestCreationFailed(err, url)
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	data, err := FetchBytes(f, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(err, apperrors.ParsingFailed, fmt.Sprintf("응답 데이터의 JSON 변환이 실패하였습니다 (URL: %s)", redactURL(req.URL)))
	}
	return nil
}
