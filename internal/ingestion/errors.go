package ingestion

import (
	"fmt"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

var (
	// ErrRunInProgress 같은 테넌트의 수집이 이미 실행 중입니다.
	ErrRunInProgress = apperrors.New(apperrors.Conflict, "해당 테넌트의 수집 작업이 이미 실행 중입니다")

	// ErrInvalidTenant 테넌트 ID가 비어 있습니다.
	ErrInvalidTenant = apperrors.New(apperrors.InvalidInput, "테넌트 ID가 비어 있습니다")
)

// NewErrInvalidOptions 실행 옵션 맵을 RunOptions로 변환하지 못했을 때의 에러를 생성합니다.
func NewErrInvalidOptions(err error) error {
	return apperrors.Wrap(err, apperrors.InvalidInput, "수집 실행 옵션이 올바르지 않습니다")
}

// NewErrPostPanicked 게시물 처리 도중 패닉이 발생했을 때의 에러를 생성합니다.
func NewErrPostPanicked(postKey string, r any) error {
	return apperrors.New(apperrors.Internal, fmt.Sprintf("게시물 처리 중 패닉 발생 (post_key: %s): %v", postKey, r))
}
