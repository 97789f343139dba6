// Package matcher 댓글 하나를 상품 목록에 대한 후보 주문으로 변환합니다.
//
// 키워드 매칭, 단위 패턴 매칭, 유사도 매칭을 차례로 시도하며 먼저 결과를 낸 전략이 이깁니다.
// 취소/마감/완판/품절 어휘가 포함된 댓글은 어떤 전략으로도 수량을 추출하지 않습니다.
package matcher

import (
	"sort"

	"github.com/darkkaiser/band-order-server/internal/model"
)

// Matcher 한 게시물의 상품 목록에 대해 만들어지는 매처. 생성 후에는 읽기 전용이므로 여러 고루틴에서 동시에 사용할 수 있습니다.
type Matcher struct {
	products []model.Product
	index    KeywordIndex
}

// New 상품 목록으로 Matcher를 생성합니다. 상품은 ItemNumber 순으로 정렬됩니다.
func New(products []model.Product) *Matcher {
	sorted := make([]model.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ItemNumber < sorted[j].ItemNumber })

	return &Matcher{
		products: sorted,
		index:    BuildKeywordIndex(sorted),
	}
}

// Products 매처가 사용하는 상품 목록
func (m *Matcher) Products() []model.Product {
	return m.products
}

// Index 매처가 사용하는 키워드 인덱스
func (m *Matcher) Index() KeywordIndex {
	return m.index
}

// Match 댓글에서 후보 주문을 찾습니다. 찾지 못하면 nil을 반환합니다.
func (m *Matcher) Match(comment string) *model.CandidateOrder {
	if len(m.products) == 0 || HasClosureVocabulary(comment) {
		return nil
	}

	if c := MatchKeyword(comment, m.index); c != nil {
		return c
	}
	if c := MatchUnit(comment, m.products); c != nil {
		return c
	}
	return MatchSimilarity(comment, m.products)
}
