package cancellation

import (
	"fmt"
	"strings"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

// NewErrLookupFailed 취소 대상 주문 조회에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrLookupFailed(err error, postKey, authorUserNo string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("주문 취소 실패: 기존 주문을 조회할 수 없습니다 (게시물: %s, 작성자: %s)", postKey, authorUserNo))
}

// NewErrUpdateFailed 주문 상태를 주문취소로 바꾸는 데 실패했을 때 반환하는 에러를 생성합니다.
func NewErrUpdateFailed(err error, orderIDs []string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("주문 취소 실패: 주문 상태를 변경할 수 없습니다 (주문: %s)", strings.Join(orderIDs, ", ")))
}
