package fetcher

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitFetcher 토큰 버킷으로 초당 요청 수를 제한하는 Fetcher
//
// 밴드 Open API는 짧은 시간에 몰리는 요청을 할당량 초과(1001)로 거절하므로,
// 게시물 배치를 병렬로 처리하더라도 실제 호출 속도는 이 데코레이터가 제한합니다.
type RateLimitFetcher struct {
	delegate Fetcher
	limiter  *rate.Limiter
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*RateLimitFetcher)(nil)

// NewRateLimitFetcher 초당 rps개, 최대 burst개까지 요청을 허용합니다. rps가 0 이하면 제한하지 않습니다.
func NewRateLimitFetcher(delegate Fetcher, rps float64, burst int) *RateLimitFetcher {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitFetcher{delegate: delegate, limiter: rate.NewLimiter(limit, burst)}
}

func (f *RateLimitFetcher) Do(req *http.Request) (*http.Response, error) {
	if err := f.limiter.Wait(req.Context()); err != nil {
		return nil, newErrRateLimitWait(err)
	}
	return f.delegate.Do(req)
}
