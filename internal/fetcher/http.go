package fetcher

import (
	"io"
	"net/http"
	"time"
)

const (
	// maxBodyBytes 응답 본문 최대 크기 (10MB)
	maxBodyBytes = 10 << 20

	// maxDrainBytes 커넥션 재사용을 위해 버리는 본문의 최대 크기
	maxDrainBytes = 64 << 10

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "band-order-server/1.0"
)

// HTTPFetcher net/http 클라이언트로 요청을 전송하는 최하위 Fetcher
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher 요청 타임아웃과 User-Agent를 지정하여 HTTPFetcher를 생성합니다. 0 이하의 타임아웃은 기본값(30초)을 사용합니다.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10

	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout, Transport: transport},
		userAgent: userAgent,
	}
}

func (f *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", f.userAgent)
	}
	return f.client.Do(req)
}

// drainAndCloseBody 커넥션을 재사용할 수 있도록 남은 본문을 일부 읽어 버린 뒤 닫습니다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	defer body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
}
