package runner

import (
	"fmt"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

// ErrServiceNotRunning 서비스가 시작되지 않았거나 종료 중이라 요청을 받을 수 없습니다.
var ErrServiceNotRunning = apperrors.New(apperrors.Unavailable, "수집 실행 서비스가 실행 중이 아닙니다")

// NewErrTenantNotFound 설정에 없는 테넌트 ID로 요청했을 때의 에러를 생성합니다.
func NewErrTenantNotFound(tenantID string) error {
	return apperrors.New(apperrors.NotFound, fmt.Sprintf("등록되지 않은 테넌트입니다 (tenant_id: %s)", tenantID))
}
