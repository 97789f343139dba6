package persistence

import (
	"fmt"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

// NewErrCustomerWriteFailed 고객 upsert 실패 에러를 생성합니다.
func NewErrCustomerWriteFailed(err error, count int) error {
	return apperrors.Wrap(err, apperrors.PersistenceConflict, fmt.Sprintf("고객 %d건 저장 실패", count))
}

// NewErrOrderWriteFailed 고객 저장 후 주문 upsert가 실패했을 때의 에러를 생성합니다. 보상 롤백을 수행한 뒤 반환됩니다.
func NewErrOrderWriteFailed(err error, count, rolledBackOrders, rolledBackCustomers int) error {
	return apperrors.Wrap(err, apperrors.PersistenceConflict, fmt.Sprintf("주문 %d건 저장 실패 (롤백: 주문 %d건, 고객 %d건)", count, rolledBackOrders, rolledBackCustomers))
}
