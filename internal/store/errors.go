package store

import (
	"fmt"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

var (
	// ErrCredentialsNotFound 테넌트의 API 키가 등록되어 있지 않을 때 반환하는 에러입니다.
	ErrCredentialsNotFound = apperrors.New(apperrors.NotFound, "조회 실패: 등록된 밴드 API 키가 없습니다")
)

// NewErrQueryFailed 저장소 조회/쓰기 쿼리가 실패했을 때 반환하는 에러를 생성합니다.
func NewErrQueryFailed(err error, op string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("저장소 작업 실패: %s 처리 중 오류가 발생했습니다", op))
}

// NewErrInjectedFault 테스트용 장애 주입으로 작업이 실패했을 때 반환하는 에러를 생성합니다.
func NewErrInjectedFault(op string) error {
	return apperrors.New(apperrors.System, fmt.Sprintf("저장소 작업 실패: %s (장애 주입)", op))
}
