package middleware

import (
	"sync"
	"time"

	"github.com/darkkaiser/band-order-server/internal/service/api/constants"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	// limiterIdleTTL 이 시간 동안 요청이 없던 IP의 버킷은 정리 대상입니다.
	limiterIdleTTL = 10 * time.Minute

	// limiterSweepInterval 정리는 새 IP가 등록될 때 최대 이 주기로 한 번 수행합니다.
	limiterSweepInterval = time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientBuckets 클라이언트 IP마다 토큰 버킷을 하나씩 둡니다.
type clientBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newClientBuckets(requestsPerSecond, burst int) *clientBuckets {
	return &clientBuckets{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// allow ip의 버킷에서 토큰 하나를 소비합니다.
func (cb *clientBuckets) allow(ip string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()

	b, ok := cb.buckets[ip]
	if !ok {
		cb.sweepLocked(now)
		b = &bucket{limiter: rate.NewLimiter(cb.limit, cb.burst)}
		cb.buckets[ip] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1)
}

func (cb *clientBuckets) sweepLocked(now time.Time) {
	if now.Sub(cb.lastSweep) < limiterSweepInterval {
		return
	}
	cb.lastSweep = now

	for ip, b := range cb.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(cb.buckets, ip)
		}
	}
}

func (cb *clientBuckets) size() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return len(cb.buckets)
}

// RateLimiting 클라이언트 IP별 요청 빈도를 제한합니다.
// 한도를 넘으면 Retry-After: 1 헤더와 함께 429로 응답합니다.
//
// requestsPerSecond 또는 burst가 0 이하이면 패닉이 발생합니다.
func RateLimiting(requestsPerSecond int, burst int) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 {
		panic("[RateLimiting] requestsPerSecond는 양수여야 합니다")
	}
	if burst <= 0 {
		panic("[RateLimiting] burst는 양수여야 합니다")
	}

	return rateLimitingWith(newClientBuckets(requestsPerSecond, burst))
}

func rateLimitingWith(cb *clientBuckets) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if cb.allow(ip) {
				return next(c)
			}

			applog.WithComponentAndFields(constants.ComponentMiddleware, applog.Fields{
				"remote_ip": ip,
				"method":    c.Request().Method,
				"path":      c.Request().URL.Path,
			}).Warn("요청 빈도 제한 초과")

			c.Response().Header().Set(echo.HeaderRetryAfter, "1")
			return ErrRateLimitExceeded
		}
	}
}
