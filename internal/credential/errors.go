package credential

import (
	"fmt"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

var (
	// ErrPrimaryCredentialMissing 테넌트에 기본 액세스 토큰이 등록되어 있지 않을 때 반환하는 에러입니다.
	ErrPrimaryCredentialMissing = apperrors.New(apperrors.InvalidInput, "API 키 로드 실패: 기본 액세스 토큰이 등록되어 있지 않습니다")
)

// NewErrCredentialsExhausted 모든 키가 할당량 초과나 토큰 오류로 실패했을 때 반환하는 에러를 생성합니다.
// 첫 번째 시도의 에러를 감싸며, 그 분류(QuotaExceeded 또는 InvalidToken)를 그대로 유지합니다.
func NewErrCredentialsExhausted(firstErr error, count int) error {
	return apperrors.Wrap(firstErr, Classify(firstErr), fmt.Sprintf("API 호출 실패: 등록된 키 %d개가 모두 소진되었습니다", count))
}
