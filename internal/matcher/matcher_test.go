package matcher

import (
	"testing"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSimilarity(t *testing.T) {
	t.Parallel()

	products := []model.Product{
		{ItemNumber: 1, Title: "아이스 홍시"},
		{ItemNumber: 2, Title: "대봉 감 말랭이"},
	}

	t.Run("일치 정확도가 높은 상품 선택", func(t *testing.T) {
		t.Parallel()

		c := MatchSimilarity("대봉 말랭이 홍시 2", products)
		require.NotNil(t, c)
		assert.Equal(t, 2, c.ItemNumber)
		assert.Equal(t, 2, c.Quantity)
		assert.Equal(t, model.MatchTypeSimilarity, c.MatchType)
	})

	t.Run("상품명 전체 일치 우선", func(t *testing.T) {
		t.Parallel()

		c := MatchSimilarity("아이스홍시 하나요", products)
		require.NotNil(t, c)
		assert.Equal(t, 1, c.ItemNumber)
		assert.Equal(t, 1, c.Quantity)
	})

	t.Run("겹치는 토큰이 없으면 nil", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, MatchSimilarity("감사합니다", products))
		assert.Nil(t, MatchSimilarity("010-1234", products))
	})
}

func TestSimilarityScore_Better(t *testing.T) {
	t.Parallel()

	base := similarityScore{product: model.Product{ItemNumber: 2}, score: 0.5, matchAccuracy: 0.5}

	exact := base
	exact.exactFullMatch = true
	assert.True(t, exact.better(base))

	accurate := base
	accurate.matchAccuracy = 0.9
	accurate.score = 0.1
	assert.True(t, accurate.better(base), "정확도가 점수보다 우선한다")

	lower := base
	lower.product.ItemNumber = 1
	assert.True(t, lower.better(base), "모든 기준이 같으면 낮은 번호")
	assert.False(t, base.better(lower))
}

func TestMatcher_Match(t *testing.T) {
	t.Parallel()

	t.Run("키워드가 유사도보다 우선", func(t *testing.T) {
		t.Parallel()

		m := New([]model.Product{
			{ItemNumber: 2, Title: "대봉 감 말랭이", Keywords: []string{"말랭이"}},
			{ItemNumber: 1, Title: "아이스 홍시", Keywords: []string{"홍시"}},
		})

		c := m.Match("대봉 말랭이 홍시 2")
		require.NotNil(t, c)
		assert.Equal(t, model.MatchTypeKeyword, c.MatchType)
		assert.Equal(t, 1, c.ItemNumber)
		assert.Equal(t, 2, c.Quantity)
		assert.Equal(t, 1, m.Products()[0].ItemNumber)
	})

	t.Run("전화번호와 수량 구분", func(t *testing.T) {
		t.Parallel()

		m := New([]model.Product{product(1, "배추김치", "1개")})

		assert.Nil(t, m.Match("010-1234"))

		c := m.Match("3개")
		require.NotNil(t, c)
		assert.Equal(t, 3, c.Quantity)
		assert.Equal(t, model.MatchTypeUnit, c.MatchType)
	})

	t.Run("취소 어휘", func(t *testing.T) {
		t.Parallel()

		m := New([]model.Product{product(1, "배추김치", "1개")})
		assert.Nil(t, m.Match("배추김치 2개 취소할게요"))
		assert.Nil(t, m.Match("품절인가요? 3개"))
	})

	t.Run("상품 없음", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, New(nil).Match("3개"))
	})
}
