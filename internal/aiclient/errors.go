package aiclient

import (
	"fmt"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

var (
	// ErrEmptyResult AI가 주문을 하나도 돌려주지 않았을 때 반환됩니다.
	ErrEmptyResult = apperrors.New(apperrors.ExtractionFailure, "AI 댓글 분석 결과에 주문이 없습니다")

	// ErrDisabled AI 분석이 꺼져 있을 때 반환됩니다.
	ErrDisabled = apperrors.New(apperrors.ExtractionFailure, "AI 댓글 분석이 비활성화되어 있습니다")
)

// NewErrRequestFailed AI 엔드포인트 호출 실패를 ExtractionFailure로 감쌉니다.
func NewErrRequestFailed(err error, postKey string) error {
	return apperrors.Wrap(err, apperrors.ExtractionFailure, fmt.Sprintf("AI 댓글 분석 요청 실패 (post_key: %s)", postKey))
}

// NewErrEmptyResult 게시물 정보를 포함한 빈 결과 에러를 생성합니다.
func NewErrEmptyResult(postKey string, comments int) error {
	return apperrors.Wrap(ErrEmptyResult, apperrors.ExtractionFailure, fmt.Sprintf("AI 댓글 분석 결과가 비어 있습니다 (post_key: %s, 댓글 %d개)", postKey, comments))
}
