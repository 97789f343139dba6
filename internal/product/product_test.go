package product

import (
	"testing"
	"time"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/internal/pickupdate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2024, 6, 1, 10, 0, 0, 0, pickupdate.KST)

func newPost(content string) model.Post {
	return model.Post{TenantID: "t1", BandKey: "band", PostKey: "p1", Content: content, PostedAt: anchor}
}

func TestHasPrice(t *testing.T) {
	t.Parallel()

	assert.True(t, HasPrice("사과 15,000원"))
	assert.True(t, HasPrice("사과 5000 원"))
	assert.True(t, HasPrice("감자 한박스 👉 문의"))
	assert.False(t, HasPrice("오늘 날씨가 좋네요"))
	assert.False(t, HasPrice("원하시는 분"))
}

func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("가격이 없으면 상품 아님", func(t *testing.T) {
		t.Parallel()

		ext := Extract(newPost("이번 주 휴무 안내드립니다"))
		assert.False(t, ext.IsProduct)
		assert.Empty(t, ext.Products)
	})

	t.Run("단일 상품", func(t *testing.T) {
		t.Parallel()

		ext := Extract(newPost("🍎 꿀사과 1박스\n가격 25,000원\n6월5일 픽업"))
		require.True(t, ext.IsProduct)
		require.Len(t, ext.Products, 1)
		assert.False(t, ext.OrderNeedsAI)

		p := ext.Products[0]
		assert.Equal(t, "prod_band_p1_item1", p.ProductID)
		assert.Equal(t, 1, p.ItemNumber)
		assert.Equal(t, "[6월5일] 꿀사과 1박스", p.Title)
		assert.Equal(t, 25000, p.BasePrice)
		assert.Equal(t, "1박스", p.QuantityText)
		require.NotNil(t, p.PickupDate)
		assert.Equal(t, time.June, p.PickupDate.In(pickupdate.KST).Month())
		assert.Equal(t, 5, p.PickupDate.In(pickupdate.KST).Day())
		assert.Equal(t, model.PickupTypePickup, p.PickupType)
	})

	t.Run("번호 붙은 다중 상품", func(t *testing.T) {
		t.Parallel()

		ext := Extract(newPost("오늘의 상품\n1. 사과 1박스 15,000원\n2. 배 1봉 8,000원\n내일 픽업"))
		require.Len(t, ext.Products, 2)
		assert.True(t, ext.OrderNeedsAI)
		assert.Equal(t, reasonMultipleProducts, ext.Reason)

		assert.Contains(t, ext.Products[0].Title, "사과 1박스")
		assert.Equal(t, 15000, ext.Products[0].BasePrice)
		assert.Equal(t, "1박스", ext.Products[0].QuantityText)
		assert.Equal(t, 2, ext.Products[1].ItemNumber)
		assert.Contains(t, ext.Products[1].Title, "배 1봉")
		assert.Equal(t, 8000, ext.Products[1].BasePrice)
	})

	t.Run("원문자 번호", func(t *testing.T) {
		t.Parallel()

		ext := Extract(newPost("①사과 10,000원\n②배 9,000원"))
		require.Len(t, ext.Products, 2)
		assert.Equal(t, 10000, ext.Products[0].BasePrice)
		assert.Equal(t, 9000, ext.Products[1].BasePrice)
	})

	t.Run("수량별 가격 옵션", func(t *testing.T) {
		t.Parallel()

		ext := Extract(newPost("왕딸기\n2팩 22,000원\n1팩 12,000원"))
		require.Len(t, ext.Products, 1)
		assert.False(t, ext.OrderNeedsAI)

		p := ext.Products[0]
		assert.Equal(t, "왕딸기", p.Title)
		assert.Equal(t, 12000, p.BasePrice)
		assert.Equal(t, "2팩", p.QuantityText)
		require.Len(t, p.PriceOptions, 2)
		assert.Equal(t, 1, p.PriceOptions[0].Quantity)
		assert.Equal(t, 12000, p.PriceOptions[0].Price)
		assert.Equal(t, 2, p.PriceOptions[1].Quantity)
	})

	t.Run("해석할 수 없는 가격 옵션은 AI 처리", func(t *testing.T) {
		t.Parallel()

		ext := Extract(newPost("모둠전\n소 10,000원\n대 18,000원"))
		require.Len(t, ext.Products, 1)
		assert.True(t, ext.OrderNeedsAI)
		assert.True(t, ext.Products[0].OrderNeedsAI)
		assert.Equal(t, reasonUnresolvedOption, ext.Reason)
		assert.Equal(t, 10000, ext.Products[0].BasePrice)
		assert.Equal(t, "1개", ext.Products[0].QuantityText)
	})
}
