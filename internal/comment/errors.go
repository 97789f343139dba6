package comment

import (
	"fmt"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

// NewErrMissingCommentKey 댓글에 comment_key가 없어 작성자와 작성 시각으로 대체 키를 만들었을 때 반환하는 에러를 생성합니다.
// 댓글 자체는 대체 키로 정상 처리되므로 호출 측은 이 에러를 기록만 하고 계속 진행합니다.
func NewErrMissingCommentKey(syntheticKey string) error {
	return apperrors.New(apperrors.MalformedComment, fmt.Sprintf("댓글에 comment_key가 없어 대체 키를 생성했습니다 (대체 키: %s)", syntheticKey))
}
