package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/band-order-server/internal/aiclient"
	"github.com/darkkaiser/band-order-server/internal/model"
	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	enabled    bool
	candidates []model.CandidateOrder
	err        error

	mu       sync.Mutex
	received []model.Comment
	calls    int
}

func (f *fakeExtractor) Enabled() bool { return f.enabled }

func (f *fakeExtractor) Extract(_ context.Context, _ aiclient.PostInfo, comments []model.Comment) ([]model.CandidateOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.received = append([]model.Comment(nil), comments...)
	return f.candidates, f.err
}

var base = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newComment(key, userNo, name, content string, minute int) model.Comment {
	return model.Comment{
		CommentKey: key,
		Content:    content,
		Author:     model.Author{UserNo: userNo, Name: name},
		CreatedAt:  base.Add(time.Duration(minute) * time.Minute),
	}
}

func singleProduct() []model.Product {
	return []model.Product{{ProductID: "prod_1", ItemNumber: 1, Title: "꿀사과", BasePrice: 25000, QuantityText: "1박스"}}
}

func twoProducts() []model.Product {
	return []model.Product{
		{ItemNumber: 1, Title: "사과", BasePrice: 5000, QuantityText: "1개"},
		{ItemNumber: 2, Title: "배", BasePrice: 3000, QuantityText: "1개"},
	}
}

func newInput(products []model.Product, comments ...model.Comment) Input {
	return Input{
		TenantID:   "t1",
		BandNumber: "b100",
		Post:       model.Post{BandKey: "band", PostKey: "p1"},
		Products:   products,
		Comments:   comments,
		UseAI:      true,
	}
}

func TestOrderID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "order_band_p1_c1_item2", OrderID("band", "p1", "c1", 2))
	assert.Equal(t, OrderID("band", "p1", "c1", 2), OrderID("band", "p1", "c1", 2))
	assert.NotEqual(t, OrderID("band", "p1", "c1", 1), OrderID("band", "p1", "c1", 2))
	assert.Equal(t, "cust_b100_u1", CustomerID("b100", "u1"))
	assert.Equal(t, "cust_b100_unknown", CustomerID("b100", " "))
	assert.Equal(t, "prod_band_p1_item3", ProductID("band", "p1", 3))
}

func TestAssembler_Assemble(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("패턴 매칭만으로 조립", func(t *testing.T) {
		t.Parallel()

		in := newInput(singleProduct(),
			newComment("c2", "u2", "이영희", "3", 2),
			newComment("c1", "u1", "김철수", "2박스", 1),
			newComment("c3", "u3", "박민수", "감사합니다", 3),
		)
		res := NewAssembler(nil).Assemble(ctx, in)

		require.Len(t, res.Orders, 2)
		assert.Equal(t, 2, res.PatternOrders)
		assert.Zero(t, res.AIOrders)
		assert.Empty(t, res.Errors)

		first := res.Orders[0]
		assert.Equal(t, "order_band_p1_c1_item1", first.OrderID)
		assert.Equal(t, "prod_1", first.ProductID)
		assert.Equal(t, 2, first.Quantity)
		assert.Equal(t, 25000, first.UnitPrice)
		assert.Equal(t, 50000, first.TotalAmount)
		assert.Equal(t, model.OrderStatusPlaced, first.Status)
		assert.Equal(t, "cust_b100_u1", first.CustomerID)
		assert.Equal(t, base.Add(time.Minute), first.OrderedAt)

		assert.Equal(t, 3, res.Orders[1].Quantity)

		require.Len(t, res.Customers, 2)
		assert.Equal(t, "김철수", res.Customers[0].Name)
	})

	t.Run("재처리해도 같은 주문 ID", func(t *testing.T) {
		t.Parallel()

		in := newInput(singleProduct(), newComment("c1", "u1", "김철수", "2박스", 1))
		a := NewAssembler(nil)
		first := a.Assemble(ctx, in)
		second := a.Assemble(ctx, in)
		require.Len(t, first.Orders, 1)
		require.Len(t, second.Orders, 1)
		assert.Equal(t, first.Orders[0].OrderID, second.Orders[0].OrderID)
	})

	t.Run("다중 상품은 AI 보충, 같은 ID면 패턴 우선", func(t *testing.T) {
		t.Parallel()

		ai := &fakeExtractor{enabled: true, candidates: []model.CandidateOrder{
			{CommentKey: "c1", ItemNumber: 1, Quantity: 5, MatchType: model.MatchTypeAI},
			{CommentKey: "c2", ItemNumber: 2, Quantity: 1, MatchType: model.MatchTypeAI, UnitPrice: 2800},
		}}
		in := newInput(twoProducts(),
			newComment("c1", "u1", "김철수", "사과 2개", 1),
			newComment("c2", "u2", "이영희", "저도요", 2),
		)
		res := NewAssembler(ai).Assemble(ctx, in)

		assert.Equal(t, 1, ai.calls)
		assert.Len(t, ai.received, 2, "다중 상품은 모든 댓글을 AI에 전달")

		require.Len(t, res.Orders, 2)
		assert.Equal(t, 1, res.PatternOrders)
		assert.Equal(t, 2, res.AIOrders)

		assert.Equal(t, "c1", res.Orders[0].CommentKey)
		assert.Equal(t, 2, res.Orders[0].Quantity)
		assert.NotEqual(t, model.MatchTypeAI, res.Orders[0].ProcessingMethod)

		assert.Equal(t, model.MatchTypeAI, res.Orders[1].ProcessingMethod)
		assert.Equal(t, 2, res.Orders[1].ItemNumber)
		assert.Equal(t, 2800, res.Orders[1].UnitPrice)
		assert.Equal(t, "저도요", res.Orders[1].Comment)
	})

	t.Run("AI 처리 표시가 있으면 패턴 매칭 생략", func(t *testing.T) {
		t.Parallel()

		ai := &fakeExtractor{enabled: true, err: apperrors.New(apperrors.ExtractionFailure, "ai down")}
		in := newInput(singleProduct(), newComment("c1", "u1", "김철수", "2박스", 1))
		in.Post.OrderNeedsAI = true

		res := NewAssembler(ai).Assemble(ctx, in)
		assert.Empty(t, res.Orders)
		assert.Zero(t, res.PatternOrders)
		require.Len(t, res.Errors, 1)
		assert.True(t, apperrors.Is(res.Errors[0], apperrors.ExtractionFailure))
	})

	t.Run("AI 처리 표시가 있는데 AI를 쓸 수 없으면 추출 실패 기록", func(t *testing.T) {
		t.Parallel()

		for name, ai := range map[string]Extractor{
			"AI 없음":   nil,
			"AI 비활성화": &fakeExtractor{enabled: false},
		} {
			in := newInput(singleProduct(), newComment("c1", "u1", "김철수", "2박스", 1))
			in.Post.OrderNeedsAI = true
			in.Post.OrderNeedsAIReason = "옵션 구분 불가"

			res := NewAssembler(ai).Assemble(ctx, in)
			assert.Empty(t, res.Orders, name)
			require.Len(t, res.Errors, 1, name)
			assert.True(t, apperrors.Is(res.Errors[0], apperrors.ExtractionFailure), name)
			assert.Contains(t, res.Errors[0].Error(), "옵션 구분 불가", name)
		}
	})

	t.Run("AI 실패 시 패턴 결과 유지", func(t *testing.T) {
		t.Parallel()

		ai := &fakeExtractor{enabled: true, err: errors.New("timeout")}
		in := newInput(singleProduct(),
			newComment("c1", "u1", "김철수", "2박스", 1),
			newComment("c2", "u2", "이영희", "저도요", 2),
		)
		res := NewAssembler(ai).Assemble(ctx, in)

		require.Len(t, res.Orders, 1)
		assert.Equal(t, "c1", res.Orders[0].CommentKey)
		require.Len(t, res.Errors, 1)
		require.Len(t, ai.received, 1, "단일 상품은 매칭되지 않은 댓글만 AI에 전달")
		assert.Equal(t, "c2", ai.received[0].CommentKey)
	})

	t.Run("AI 사용 안 함", func(t *testing.T) {
		t.Parallel()

		ai := &fakeExtractor{enabled: true}
		in := newInput(singleProduct(), newComment("c2", "u2", "이영희", "저도요", 2))
		in.UseAI = false

		res := NewAssembler(ai).Assemble(ctx, in)
		assert.Empty(t, res.Orders)
		assert.Zero(t, ai.calls)
	})

	t.Run("모호한 AI 주문과 알 수 없는 댓글", func(t *testing.T) {
		t.Parallel()

		ai := &fakeExtractor{enabled: true, candidates: []model.CandidateOrder{
			{CommentKey: "c2", ItemNumber: 1, Quantity: 1, MatchType: model.MatchTypeAI, IsAmbiguous: true},
			{CommentKey: "ghost", ItemNumber: 1, Quantity: 1, MatchType: model.MatchTypeAI},
			{CommentKey: "c2", ItemNumber: 9, Quantity: 1, MatchType: model.MatchTypeAI},
		}}
		in := newInput(twoProducts(), newComment("c2", "u2", "이영희", "저도요", 2))

		res := NewAssembler(ai).Assemble(ctx, in)
		require.Len(t, res.Orders, 1)
		assert.Equal(t, model.OrderStatusNeedsReview, res.Orders[0].Status)
		assert.True(t, res.Orders[0].IsAmbiguous)
		assert.Len(t, res.Errors, 2)
	})

	t.Run("댓글이나 상품이 없으면 빈 결과", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, NewAssembler(nil).Assemble(ctx, newInput(nil, newComment("c1", "u1", "a", "2개", 1))).Orders)
		assert.Empty(t, NewAssembler(nil).Assemble(ctx, newInput(singleProduct())).Orders)
	})
}

func TestMerge(t *testing.T) {
	t.Parallel()

	pattern := []model.Order{{OrderID: "a", Quantity: 1, ProcessingMethod: model.MatchTypeKeyword}}
	ai := []model.Order{
		{OrderID: "a", Quantity: 9, ProcessingMethod: model.MatchTypeAI},
		{OrderID: "b", Quantity: 2, ProcessingMethod: model.MatchTypeAI},
	}

	merged := Merge(pattern, ai)
	require.Len(t, merged, 2)
	assert.Equal(t, 1, merged[0].Quantity)
	assert.Equal(t, model.MatchTypeKeyword, merged[0].ProcessingMethod)
	assert.Equal(t, "b", merged[1].OrderID)
}

func TestPrice(t *testing.T) {
	t.Parallel()

	p := model.Product{BasePrice: 12000, PriceOptions: []model.PriceOption{{Quantity: 2, Price: 22000}}}

	unit, total := price(p, 2)
	assert.Equal(t, 11000, unit)
	assert.Equal(t, 22000, total)

	unit, total = price(p, 3)
	assert.Equal(t, 12000, unit)
	assert.Equal(t, 36000, total)
}

func TestDeriveCustomers(t *testing.T) {
	t.Parallel()

	comments := []model.Comment{
		newComment("c1", "u1", "김철수", "사과 2개", 1),
		newComment("c2", "u1", "김철수(변경)", "배 1개 010-1234-5678", 2),
		newComment("c3", "u2", "이영희", "사과 1개", 3),
	}
	orders := []model.Order{
		{OrderID: "o2", CustomerID: "cust_b_u1", CustomerUserNo: "u1", CustomerName: "김철수(변경)", OrderedAt: base.Add(2 * time.Minute)},
		{OrderID: "o1", CustomerID: "cust_b_u1", CustomerUserNo: "u1", CustomerName: "김철수", OrderedAt: base.Add(time.Minute)},
		{OrderID: "o3", CustomerID: "cust_b_u2", CustomerUserNo: "u2", CustomerName: "", OrderedAt: base.Add(3 * time.Minute)},
	}

	customers := DeriveCustomers("t1", "b", orders, comments)
	require.Len(t, customers, 2)

	c := customers[0]
	assert.Equal(t, "김철수", c.Name, "가장 먼저 작성한 댓글의 이름")
	assert.Equal(t, "01012345678", c.Contact)
	assert.Equal(t, 2, c.TotalOrders)
	assert.Equal(t, base.Add(time.Minute), c.FirstOrderAt)
	assert.Equal(t, base.Add(2*time.Minute), c.LastOrderAt)

	assert.Equal(t, "알수없음", customers[1].Name)
	assert.Empty(t, customers[1].Contact)
	assert.Nil(t, DeriveCustomers("t1", "b", nil, comments))
}
