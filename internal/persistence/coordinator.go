// Package persistence 주문과 고객을 여러 테이블에 나눠 쓰고, 중간에 실패하면 보상 삭제로 되돌립니다.
//
// 실제 트랜잭션이 아니므로 롤백 사이에 같은 고객 ID를 쓰는 다른 작성자는 일시적으로 불일치한 상태를 볼 수 있습니다.
// 중복 처리는 주문 ID의 멱등 upsert가 흡수합니다.
package persistence

import (
	"context"
	"errors"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/internal/store"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "persistence.coordinator"

// SaveResult Save 결과
type SaveResult struct {
	Success bool

	// SavedOrders 이번 호출에서 새로 삽입된 주문 수. 이미 있던 주문은 SkippedOrders로 셉니다.
	SavedOrders   int
	SkippedOrders int

	// SavedCustomers upsert된 고객 수, NewCustomers는 그중 새로 삽입된 수
	SavedCustomers int
	NewCustomers   int

	Err error

	// RollbackErr 보상 삭제가 실패한 경우의 에러. 자동으로 재시도하지 않습니다.
	RollbackErr error
}

// Coordinator 저장 조정자
type Coordinator struct {
	posts  store.PostStore
	orders store.OrderStore
}

func New(posts store.PostStore, orders store.OrderStore) *Coordinator {
	return &Coordinator{posts: posts, orders: orders}
}

// SavePostAndProducts 게시물과 상품을 저장합니다. 둘은 서로 독립적이므로 하나가 실패해도 다른 하나는 시도합니다.
func (c *Coordinator) SavePostAndProducts(ctx context.Context, post model.Post, products []model.Product) error {
	var errs []error
	if err := c.posts.UpsertPost(ctx, post); err != nil {
		errs = append(errs, err)
	}
	if len(products) > 0 {
		if err := c.posts.UpsertProducts(ctx, products); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save 고객을 먼저, 주문을 나중에 저장합니다.
//
// 주문 저장이 실패하면 이번 호출에서 새로 삽입된 주문 ID와 고객 ID를 차례로 삭제하고 Success=false를 반환합니다.
// 호출 전부터 있던 행은 건드리지 않습니다.
func (c *Coordinator) Save(ctx context.Context, orders []model.Order, customers []model.Customer) SaveResult {
	var res SaveResult

	var newCustomers []string
	if len(customers) > 0 {
		inserted, err := c.orders.UpsertCustomers(ctx, customers)
		if err != nil {
			res.RollbackErr = c.rollback(ctx, nil, inserted)
			res.Err = NewErrCustomerWriteFailed(err, len(customers))
			return res
		}
		newCustomers = inserted
	}

	var newOrders []string
	if len(orders) > 0 {
		inserted, err := c.orders.UpsertOrders(ctx, orders)
		if err != nil {
			res.RollbackErr = c.rollback(ctx, inserted, newCustomers)
			res.Err = NewErrOrderWriteFailed(err, len(orders), len(inserted), len(newCustomers))

			applog.WithComponentAndFields(component, applog.Fields{
				"orders":                len(orders),
				"rolled_back_orders":    len(inserted),
				"rolled_back_customers": len(newCustomers),
			}).WithError(err).Error("주문 저장 실패: 이번 호출에서 삽입한 주문과 고객을 삭제했습니다")
			return res
		}
		newOrders = inserted
	}

	res.Success = true
	res.SavedOrders = len(newOrders)
	res.SkippedOrders = len(orders) - len(newOrders)
	res.SavedCustomers = len(customers)
	res.NewCustomers = len(newCustomers)
	return res
}

// rollback 주문을 먼저 지우고 고객을 지웁니다. 실패는 기록만 하고 재시도하지 않습니다.
func (c *Coordinator) rollback(ctx context.Context, orderIDs, customerIDs []string) error {
	var errs []error
	if len(orderIDs) > 0 {
		if err := c.orders.DeleteOrders(ctx, orderIDs); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"order_ids": orderIDs,
			}).WithError(err).Error("보상 롤백 실패: 주문 삭제")
			errs = append(errs, err)
		}
	}
	if len(customerIDs) > 0 {
		if err := c.orders.DeleteCustomers(ctx, customerIDs); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"customer_ids": customerIDs,
			}).WithError(err).Error("보상 롤백 실패: 고객 삭제")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
