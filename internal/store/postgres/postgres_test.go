package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunks(t *testing.T) {
	t.Parallel()

	assert.Nil(t, chunks([]int{}, 2))
	assert.Equal(t, [][]int{{1, 2}, {3}}, chunks([]int{1, 2, 3}, 2))
	assert.Equal(t, [][]int{{1, 2}}, chunks([]int{1, 2}, 5))
}

func TestOpen_InvalidDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{DSN: "://not a dsn"})
	assert.Error(t, err)
}

// BANDORDER_TEST_PG_DSN이 설정된 경우에만 실제 데이터베이스로 실행합니다.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("BANDORDER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("BANDORDER_TEST_PG_DSN 미설정")
	}

	ctx := context.Background()
	s, err := Open(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(s.Close)
	return s
}

func TestStore_OrdersRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := "test-" + time.Now().Format("150405.000000")
	order := model.Order{
		OrderID: id, TenantID: "t", BandKey: "b", PostKey: "p", CommentKey: "c", CustomerID: "cu",
		CustomerName: "홍길동", CustomerUserNo: "u1", ProductID: "pr", ProductName: "사과", ItemNumber: 1,
		Quantity: 2, Status: model.OrderStatusPlaced, ProcessingMethod: model.MatchTypeKeyword,
		OrderedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	t.Cleanup(func() { _ = s.DeleteOrders(ctx, []string{id}) })

	inserted, err := s.UpsertOrders(ctx, []model.Order{order})
	require.NoError(t, err)
	assert.Equal(t, []string{id}, inserted)

	inserted, err = s.UpsertOrders(ctx, []model.Order{order})
	require.NoError(t, err)
	assert.Empty(t, inserted, "같은 order_id는 다시 삽입되지 않음")

	found, err := s.FindOrders(ctx, store.OrderFilter{TenantID: "t", PostKey: "p", CustomerUserNo: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, found)
}
