package fetcher

import (
	"errors"
	"fmt"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

var (
	// ErrMaxRetriesExceeded 재시도 횟수를 모두 소진했을 때의 원인 에러
	ErrMaxRetriesExceeded = errors.New("최대 재시도 횟수를 초과하였습니다")
)

// NewErrRequestCreationFailed HTTP 요청 객체를 만들지 못했을 때의 에러를 생성합니다.
func NewErrRequestCreationFailed(err error, url string) error {
	return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("HTTP 요청 생성 실패 (URL: %s)", RedactRawURL(url)))
}

// NewErrBodyTooLarge 응답 본문이 허용 크기를 넘었을 때의 에러를 생성합니다.
func NewErrBodyTooLarge(url string, limit int) error {
	return apperrors.New(apperrors.ExecutionFailed, fmt.Sprintf("응답 본문이 허용 크기(%d 바이트)를 초과하였습니다 (URL: %s)", limit, url))
}

func newErrMaxRetriesExceeded(lastErr error) error {
	return apperrors.Wrap(lastErr, apperrors.Unavailable, ErrMaxRetriesExceeded.Error())
}

func newErrRetryAfterExceeded(retryAfter, maxDelay string) error {
	return apperrors.New(apperrors.Unavailable, fmt.Sprintf("서버가 요구한 재시도 대기 시간(%s)이 허용 최대값(%s)을 초과하여 재시도하지 않습니다", retryAfter, maxDelay))
}

func newErrGetBodyFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "재시도를 위한 요청 본문 재생성 실패")
}

func newErrRateLimitWait(err error) error {
	return apperrors.Wrap(err, apperrors.Timeout, "요청 속도 제한 대기 중 컨텍스트가 종료되었습니다")
}
