package matcher

import (
	"testing"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(item int, title, quantityText string) model.Product {
	return model.Product{ItemNumber: item, Title: title, QuantityText: quantityText, BasePrice: 10000}
}

func TestNormalizeUnitText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"한통, 두박스", "1 통 2 박스"},
		{"한세트요", "1 세트요"},
		{"세트 세개", "세트 3 개"},
		{"주세요 2개", "주세요 2 개"},
		{"ㅣ개", "1 개"},
		{"1o팩", "10 팩"},
		{"2KG", "2kg"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalizeUnitText(tt.input))
		})
	}
}

func TestProductUnit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "개", ProductUnit(model.Product{}))
	assert.Equal(t, "통", ProductUnit(model.Product{QuantityText: "1통"}))
	assert.Equal(t, "봉지", ProductUnit(model.Product{QuantityText: "1봉지"}))
	assert.Equal(t, "kg", ProductUnit(model.Product{QuantityText: "2kg"}))
	assert.Equal(t, "g", ProductUnit(model.Product{QuantityText: "500g"}))
}

func TestUnitsCompatible(t *testing.T) {
	t.Parallel()

	assert.True(t, unitsCompatible("개", "대"))
	assert.True(t, unitsCompatible("개", "요"))
	assert.True(t, unitsCompatible("킬로", "k"))
	assert.True(t, unitsCompatible("박스", "상자"))
	assert.False(t, unitsCompatible("팩", "개"))
	assert.False(t, unitsCompatible("병", "봉지"))
}

func TestMatchUnit(t *testing.T) {
	t.Parallel()

	single := []model.Product{product(1, "배추김치", "1개")}

	t.Run("단일 상품 공통 단위", func(t *testing.T) {
		t.Parallel()

		c := MatchUnit("3개", single)
		require.NotNil(t, c)
		assert.Equal(t, 1, c.ItemNumber)
		assert.Equal(t, 3, c.Quantity)
		assert.Equal(t, model.MatchTypeUnit, c.MatchType)
		assert.False(t, c.IsAmbiguous)
	})

	t.Run("고유어 수사", func(t *testing.T) {
		t.Parallel()

		c := MatchUnit("한통 주세요", []model.Product{product(1, "수박", "1통")})
		require.NotNil(t, c)
		assert.Equal(t, 1, c.Quantity)

		c = MatchUnit("두박스요", []model.Product{product(1, "사과", "1박스")})
		require.NotNil(t, c)
		assert.Equal(t, 2, c.Quantity)
	})

	t.Run("상품 번호 지정", func(t *testing.T) {
		t.Parallel()

		products := []model.Product{product(1, "두부", "1팩"), product(2, "수박", "1통")}
		c := MatchUnit("2번 3개", products)
		require.NotNil(t, c)
		assert.Equal(t, 2, c.ItemNumber)
		assert.Equal(t, 3, c.Quantity)
		assert.False(t, c.IsAmbiguous)
	})

	t.Run("킬로 단축 표기", func(t *testing.T) {
		t.Parallel()

		products := []model.Product{product(1, "두부", "1팩"), product(2, "감자", "1키로")}
		c := MatchUnit("2k", products)
		require.NotNil(t, c)
		assert.Equal(t, 2, c.ItemNumber)
		assert.Equal(t, 2, c.Quantity)
	})

	t.Run("여러 상품에서 공통 단위는 모호한 결과", func(t *testing.T) {
		t.Parallel()

		products := []model.Product{product(1, "두부", "1팩"), product(2, "계란", "1개")}
		c := MatchUnit("3개", products)
		require.NotNil(t, c)
		assert.Equal(t, 2, c.ItemNumber)
		assert.True(t, c.IsAmbiguous)
	})

	t.Run("상품 단위 동의어", func(t *testing.T) {
		t.Parallel()

		products := []model.Product{product(1, "두부", "1팩"), product(2, "사과", "1박스")}
		c := MatchUnit("상자 말고 2상자", products)
		require.NotNil(t, c)
		assert.Equal(t, 2, c.ItemNumber)
		assert.Equal(t, 2, c.Quantity)
	})

	t.Run("숫자만 있는 댓글", func(t *testing.T) {
		t.Parallel()

		c := MatchUnit("2요", []model.Product{product(1, "수박", "1통")})
		require.NotNil(t, c)
		assert.Equal(t, 2, c.Quantity)
	})

	t.Run("알려진 단위와 숫자 조합", func(t *testing.T) {
		t.Parallel()

		c := MatchUnit("2 주세요 박스로", []model.Product{product(1, "두부", "1팩")})
		require.NotNil(t, c)
		assert.Equal(t, 2, c.Quantity)
		assert.True(t, c.IsAmbiguous)
	})

	t.Run("시각과 마감 어휘는 제외", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, MatchUnit("3시에 갈게요", single))
		assert.Nil(t, MatchUnit("마감인가요 2개", single))
		assert.Nil(t, MatchUnit("010-1234", single))
		assert.Nil(t, MatchUnit("3개", nil))
	})
}

func TestUnitPatterns_Precompiled(t *testing.T) {
	t.Parallel()

	for _, u := range knownUnits {
		p, ok := unitQuantityPatterns[u]
		require.True(t, ok, u)
		assert.Same(t, p, unitQuantityPattern(u), u)

		_, latin := latinWordPatterns[u]
		assert.Equal(t, isLatin(u[0]), latin, u)
	}

	q, ok := firstQuantity("3 박스 주세요", unitQuantityPattern("상자"))
	require.True(t, ok)
	assert.Equal(t, 3, q)

	// 알 수 없는 단위는 그때그때 만든 패턴으로 매칭합니다.
	q, ok = firstQuantity("2 다발", unitQuantityPattern("다발"))
	require.True(t, ok)
	assert.Equal(t, 2, q)

	assert.True(t, containsWord("2 box", "box"))
	assert.False(t, containsWord("2 boxes", "box"))
	assert.True(t, containsWord("2 박스", "박스"))
}
