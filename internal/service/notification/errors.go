package notification

import (
	"fmt"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

var (
	// ErrServiceStopped 알림 서비스가 시작되지 않았거나 이미 종료되었습니다.
	ErrServiceStopped = apperrors.New(apperrors.Unavailable, "알림 서비스가 실행 중이 아닙니다")

	// ErrQueueFull 전송 대기열이 가득 찼습니다.
	ErrQueueFull = apperrors.New(apperrors.Unavailable, "알림 전송 대기열이 가득 찼습니다")
)

// NewErrNotifierNotFound 등록되지 않은 알림 채널 ID로 요청했을 때의 에러를 생성합니다.
func NewErrNotifierNotFound(notifierID string) error {
	return apperrors.New(apperrors.NotFound, fmt.Sprintf("등록되지 않은 알림 채널입니다 (notifier_id: %s)", notifierID))
}
