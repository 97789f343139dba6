package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/darkkaiser/band-order-server/internal/model"
	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/darkkaiser/band-order-server/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newOrders(n int) []model.Order {
	orders := make([]model.Order, 0, n)
	for i := 1; i <= n; i++ {
		orders = append(orders, model.Order{
			OrderID:    fmt.Sprintf("order_band_post_c%d_item1", i),
			TenantID:   "t1",
			PostKey:    "post",
			CommentKey: fmt.Sprintf("c%d", i),
			CustomerID: fmt.Sprintf("cust_1_u%d", i),
			ItemNumber: 1,
			Quantity:   1,
			Status:     model.OrderStatusPlaced,
			OrderedAt:  orderedAt,
		})
	}
	return orders
}

func newCustomers(n int) []model.Customer {
	customers := make([]model.Customer, 0, n)
	for i := 1; i <= n; i++ {
		customers = append(customers, model.Customer{
			CustomerID:   fmt.Sprintf("cust_1_u%d", i),
			TenantID:     "t1",
			BandUserNo:   fmt.Sprintf("u%d", i),
			Name:         fmt.Sprintf("고객%d", i),
			TotalOrders:  1,
			FirstOrderAt: orderedAt,
			LastOrderAt:  orderedAt,
		})
	}
	return customers
}

func TestCoordinator_Save(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("정상 저장", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		c := New(s, s)

		res := c.Save(ctx, newOrders(3), newCustomers(3))
		require.True(t, res.Success)
		assert.NoError(t, res.Err)
		assert.Equal(t, 3, res.SavedOrders)
		assert.Equal(t, 0, res.SkippedOrders)
		assert.Equal(t, 3, res.SavedCustomers)
		assert.Equal(t, 3, res.NewCustomers)
		assert.Equal(t, 3, s.OrderCount())
		assert.Equal(t, 3, s.CustomerCount())
	})

	t.Run("같은 입력을 두 번 저장해도 중복 없음", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		c := New(s, s)

		require.True(t, c.Save(ctx, newOrders(2), newCustomers(2)).Success)
		res := c.Save(ctx, newOrders(2), newCustomers(2))
		require.True(t, res.Success)
		assert.Equal(t, 0, res.SavedOrders)
		assert.Equal(t, 2, res.SkippedOrders)
		assert.Equal(t, 0, res.NewCustomers)
		assert.Equal(t, 2, s.OrderCount())
		assert.Equal(t, 2, s.CustomerCount())
	})

	t.Run("빈 입력", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		res := New(s, s).Save(ctx, nil, nil)
		assert.True(t, res.Success)
		assert.Zero(t, res.SavedOrders)
	})

	t.Run("주문 저장 도중 실패하면 이번 호출의 주문과 고객을 모두 삭제", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		s.FailAfter(memory.OpUpsertOrders, 2)
		c := New(s, s)

		res := c.Save(ctx, newOrders(3), newCustomers(3))
		assert.False(t, res.Success)
		require.Error(t, res.Err)
		assert.True(t, apperrors.Is(res.Err, apperrors.PersistenceConflict))
		assert.NoError(t, res.RollbackErr)
		assert.Equal(t, 0, s.OrderCount())
		assert.Equal(t, 0, s.CustomerCount())
	})

	t.Run("기존 고객은 롤백 대상이 아님", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		c := New(s, s)
		require.True(t, c.Save(ctx, newOrders(1), newCustomers(1)).Success)

		s.FailAfter(memory.OpUpsertOrders, 0)
		res := c.Save(ctx, newOrders(2), newCustomers(2))
		assert.False(t, res.Success)

		_, ok := s.Customer("cust_1_u1")
		assert.True(t, ok, "이전 호출에서 저장된 고객은 유지")
		_, ok = s.Customer("cust_1_u2")
		assert.False(t, ok)
		assert.Equal(t, 1, s.OrderCount())
	})

	t.Run("고객 저장 실패", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		s.FailAfter(memory.OpUpsertCustomers, 1)
		c := New(s, s)

		res := c.Save(ctx, newOrders(2), newCustomers(2))
		assert.False(t, res.Success)
		assert.True(t, apperrors.Is(res.Err, apperrors.PersistenceConflict))
		assert.Equal(t, 0, s.CustomerCount())
		assert.Equal(t, 0, s.OrderCount(), "주문 저장은 시도하지 않음")
	})

	t.Run("롤백 실패는 기록만 남김", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		s.FailAfter(memory.OpUpsertOrders, 1)
		s.FailAfter(memory.OpDeleteOrders, 0)
		c := New(s, s)

		res := c.Save(ctx, newOrders(2), newCustomers(2))
		assert.False(t, res.Success)
		require.Error(t, res.RollbackErr)
		assert.Equal(t, 1, s.OrderCount(), "삭제되지 못한 주문이 남음")
		assert.Equal(t, 0, s.CustomerCount(), "고객 삭제는 계속 진행")
	})
}

func TestCoordinator_SavePostAndProducts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	post := model.Post{TenantID: "t1", BandKey: "band", PostKey: "post", Title: "사과"}
	products := []model.Product{{ProductID: "prod_band_post_item1", TenantID: "t1", PostKey: "post", ItemNumber: 1}}

	t.Run("정상 저장", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		require.NoError(t, New(s, s).SavePostAndProducts(ctx, post, products))

		_, ok := s.Post("t1", "post")
		assert.True(t, ok)
		list, err := s.ListProducts(ctx, "t1", "post")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("게시물 저장이 실패해도 상품은 저장", func(t *testing.T) {
		t.Parallel()

		s := memory.New()
		s.FailAfter(memory.OpUpsertPost, 0)

		err := New(s, s).SavePostAndProducts(ctx, post, products)
		require.Error(t, err)

		_, ok := s.Post("t1", "post")
		assert.False(t, ok)
		list, _ := s.ListProducts(ctx, "t1", "post")
		assert.Len(t, list, 1)
	})
}
