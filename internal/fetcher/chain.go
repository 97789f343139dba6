package fetcher

import (
	"time"
)

// Config 기본 체인 구성을 위한 설정
type Config struct {
	Timeout       time.Duration
	UserAgent     string
	MaxRetries    int
	MinRetryDelay time.Duration
	MaxRetryDelay time.Duration

	// RequestsPerSecond 0 이하면 속도 제한을 두지 않습니다.
	RequestsPerSecond float64
	Burst             int
}

// New 설정으로 기본 체인을 만듭니다.
//
//	LoggingFetcher -> RateLimitFetcher -> RetryFetcher -> StatusCodeFetcher -> HTTPFetcher
func New(cfg Config) Fetcher {
	return Wrap(NewHTTPFetcher(cfg.Timeout, cfg.UserAgent), cfg)
}

// Wrap 임의의 최하위 Fetcher를 기본 체인으로 감쌉니다. 테스트에서 가짜 전송 계층을 끼울 때 사용합니다.
func Wrap(base Fetcher, cfg Config) Fetcher {
	var f Fetcher = NewStatusCodeFetcher(base)
	f = NewRetryFetcher(f, cfg.MaxRetries, cfg.MinRetryDelay, cfg.MaxRetryDelay)
	f = NewRateLimitFetcher(f, cfg.RequestsPerSecond, cfg.Burst)
	return NewLoggingFetcher(f)
}
