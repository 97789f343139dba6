package order

import (
	"fmt"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

// NewErrUnknownItem 후보 주문이 게시물에 없는 상품 번호를 가리킬 때의 에러를 생성합니다.
func NewErrUnknownItem(postKey, commentKey string, itemNumber int) error {
	return apperrors.New(apperrors.ExtractionFailure, fmt.Sprintf("게시물에 없는 상품 번호입니다 (post_key: %s, comment_key: %s, item_number: %d)", postKey, commentKey, itemNumber))
}

// NewErrUnknownComment AI 결과가 요청에 없던 댓글을 가리킬 때의 에러를 생성합니다.
func NewErrUnknownComment(postKey, commentKey string) error {
	return apperrors.New(apperrors.ExtractionFailure, fmt.Sprintf("요청하지 않은 댓글에 대한 AI 주문입니다 (post_key: %s, comment_key: %s)", postKey, commentKey))
}

// NewErrAIUnavailable AI 처리가 필요한 게시물인데 AI를 사용할 수 없어 주문을 추출하지 못했을 때의 에러를 생성합니다.
func NewErrAIUnavailable(postKey, reason string, commentCount int) error {
	if reason == "" {
		reason = "사유 없음"
	}
	return apperrors.New(apperrors.ExtractionFailure, fmt.Sprintf("AI 처리가 필요한 게시물이지만 AI를 사용할 수 없어 주문을 추출하지 않았습니다 (post_key: %s, 사유: %s, 댓글: %d개)", postKey, reason, commentCount))
}
