package fetcher

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

const (
	maxAllowedRetries    = 10
	defaultMaxRetryDelay = 30 * time.Second
)

// RetryFetcher 일시적인 실패(네트워크 오류, 408, 429, 5xx)를 지수 백오프로 재시도하는 Fetcher
//
// POST처럼 멱등하지 않은 요청은 재시도하지 않습니다. 서버가 Retry-After 헤더를 주면
// 그 값을 우선하되, maxRetryDelay를 넘으면 재시도를 포기합니다.
type RetryFetcher struct {
	delegate Fetcher

	maxRetries    int
	minRetryDelay time.Duration
	maxRetryDelay time.Duration
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*RetryFetcher)(nil)

// NewRetryFetcher 재시도 횟수는 0~10 범위로, 지연 시간은 minRetryDelay <= maxRetryDelay가 되도록 보정합니다.
func NewRetryFetcher(delegate Fetcher, maxRetries int, minRetryDelay, maxRetryDelay time.Duration) *RetryFetcher {
	maxRetries = max(0, min(maxRetries, maxAllowedRetries))
	if minRetryDelay <= 0 {
		minRetryDelay = time.Second
	}
	if maxRetryDelay <= 0 {
		maxRetryDelay = defaultMaxRetryDelay
	}
	if maxRetryDelay < minRetryDelay {
		maxRetryDelay = minRetryDelay
	}

	return &RetryFetcher{
		delegate:      delegate,
		maxRetries:    maxRetries,
		minRetryDelay: minRetryDelay,
		maxRetryDelay: maxRetryDelay,
	}
}

func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	retries := f.maxRetries
	if !isIdempotentMethod(req.Method) {
		retries = 0
	}
	if req.Body != nil && req.GetBody == nil && retries > 0 {
		applog.WithComponent(component).WithContext(req.Context()).WithFields(applog.Fields{
			"url":    redactURL(req.URL),
			"method": req.Method,
		}).Warn("재시도 비활성화: 요청 본문 재생성 불가 (GetBody nil)")
		retries = 0
	}

	var lastErr error
	for i := 0; i <= retries; i++ {
		if i > 0 {
			delay, err := f.nextDelay(i, lastErr)
			if err != nil {
				return nil, err
			}

			applog.WithComponent(component).WithContext(req.Context()).WithFields(applog.Fields{
				"url":         redactURL(req.URL),
				"retry":       i,
				"max_retries": retries,
				"delay":       delay.String(),
				"error":       lastErr.Error(),
			}).Warn("재시도 대기 중: 일시적 오류로 인해 요청 재시도를 준비합니다")

			timer := time.NewTimer(delay)
			select {
			case <-req.Context().Done():
				timer.Stop()
				return nil, req.Context().Err()
			case <-timer.C:
			}

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, newErrGetBodyFailed(err)
				}
				req = req.Clone(req.Context())
				req.Body = body
			}
		}

		resp, err := f.delegate.Do(req)
		if err == nil {
			if resp.Request == nil {
				resp.Request = req
			}
			// 상태 코드 검사 데코레이터 없이 쓰이는 경우에도 재시도 대상 응답을 에러로 다룹니다.
			statusErr := CheckResponseStatus(resp, nonRetriableStatuses(resp.StatusCode)...)
			if statusErr == nil || !statusErr.(*HTTPStatusError).Temporary() {
				return resp, nil
			}
			drainAndCloseBody(resp.Body)
			err = statusErr
		} else if resp != nil {
			drainAndCloseBody(resp.Body)
		}

		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		if !isRetriable(err) {
			return nil, err
		}
		lastErr = err
	}

	if retries == 0 {
		return nil, lastErr
	}
	return nil, newErrMaxRetriesExceeded(lastErr)
}

// nextDelay i번째 재시도 전 대기 시간. 지수 백오프에 Full Jitter를 적용합니다.
func (f *RetryFetcher) nextDelay(i int, lastErr error) (time.Duration, error) {
	delay := f.minRetryDelay * time.Duration(1<<(i-1))
	if delay > f.maxRetryDelay || delay <= 0 {
		delay = f.maxRetryDelay
	}
	delay = time.Duration(rand.Int64N(int64(delay) + 1))
	if delay < time.Millisecond {
		delay = f.minRetryDelay
	}

	var statusErr *HTTPStatusError
	if errors.As(lastErr, &statusErr) && statusErr.Header != nil {
		if v := statusErr.Header.Get("Retry-After"); v != "" {
			if d, ok := parseRetryAfter(v); ok {
				if d > f.maxRetryDelay {
					return 0, newErrRetryAfterExceeded(d.String(), f.maxRetryDelay.String())
				}
				return d, nil
			}
		}
	}
	return delay, nil
}

// nonRetriableStatuses 재시도 대상이 아닌 상태 코드면 허용 목록으로 돌려 CheckResponseStatus가 통과시키게 합니다.
func nonRetriableStatuses(code int) []int {
	e := HTTPStatusError{StatusCode: code}
	if code >= 200 && code < 300 || e.Temporary() {
		return nil
	}
	return []int{code}
}

func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// isRetriable 다시 시도하면 성공할 수 있는 에러인지 판단합니다.
func isRetriable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	switch apperrors.UnderlyingType(err) {
	case apperrors.InvalidInput, apperrors.Forbidden, apperrors.NotFound, apperrors.ExecutionFailed, apperrors.Internal:
		return false
	}
	return true
}

// parseRetryAfter 초 단위 정수 또는 HTTP-date 형식의 Retry-After 값을 해석합니다.
func parseRetryAfter(v string) (time.Duration, bool) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
