package matcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/darkkaiser/band-order-server/internal/model"
)

const (
	unitConfidence          = 0.8
	ambiguousUnitConfidence = 0.5

	// fallbackMaxQuantity 단위만 보고 상품을 추정하는 마지막 단계에서 허용하는 최대 수량
	fallbackMaxQuantity = 99
)

var (
	itemNumberPattern    = regexp.MustCompile(`(\d+)\s*번\s*(\d+)`)
	kilogramPattern      = regexp.MustCompile(`(\d+)\s*k(?:g)?(?:\s*주문)?(?:\s*[이요욧])?`)
	universalUnitPattern = regexp.MustCompile(`(\d+)\s*(?:개|대|요)`)
	bareNumberPattern    = regexp.MustCompile(`^\s*(\d+)\s*요?\s*$`)
)

// MatchUnit 댓글의 "숫자+단위" 표현으로 주문 수량과 상품을 찾습니다.
//
// 우선순위는 다음과 같습니다.
//  1. 상품이 여러 개일 때 "2번 3개" 형태의 상품 번호 지정
//  2. "2k", "2kg" 같은 무게 단축 표기 (킬로 단위 상품)
//  3. 개/대/요 공통 단위
//  4. 상품별 단위 및 동의어
//  5. 상품이 하나일 때 숫자만 있는 댓글 ("2", "2요")
//  6. 1-99 사이의 숫자와 알려진 단위를 조합한 추정 (모호 결과)
func MatchUnit(comment string, products []model.Product) *model.CandidateOrder {
	if len(products) == 0 {
		return nil
	}

	text := normalizeUnitText(comment)
	if containsAny(text, closureUnitVocabulary) {
		return nil
	}

	if len(products) > 1 {
		if c := matchItemNumber(text, products); c != nil {
			return c
		}
	}

	if q, ok := firstQuantity(text, kilogramPattern); ok {
		for _, p := range products {
			if unitsCompatible(ProductUnit(p), "k") {
				return unitCandidate(p.ItemNumber, q, false)
			}
		}
	}

	if q, ok := firstQuantity(text, universalUnitPattern); ok {
		if len(products) == 1 {
			return unitCandidate(products[0].ItemNumber, q, false)
		}
		for _, p := range products {
			if unitsCompatible(ProductUnit(p), defaultUnit) {
				return unitCandidate(p.ItemNumber, q, true)
			}
		}
	}

	for _, p := range products {
		if q, ok := firstQuantity(text, unitQuantityPattern(ProductUnit(p))); ok {
			return unitCandidate(p.ItemNumber, q, false)
		}
	}

	if len(products) == 1 {
		if q, ok := firstQuantity(text, bareNumberPattern); ok {
			return unitCandidate(products[0].ItemNumber, q, false)
		}
	}

	return matchUnitFallback(text, products)
}

func matchItemNumber(text string, products []model.Product) *model.CandidateOrder {
	for _, sub := range itemNumberPattern.FindAllStringSubmatch(text, -1) {
		item, err := strconv.Atoi(sub[1])
		if err != nil {
			continue
		}
		q, ok := parseQuantity(sub[2])
		if !ok {
			continue
		}
		for _, p := range products {
			if p.ItemNumber == item {
				return unitCandidate(item, q, false)
			}
		}
	}
	return nil
}

// firstQuantity pattern의 첫 번째 캡처 그룹 중 시각 표현이 아닌 첫 유효 수량을 반환합니다.
func firstQuantity(text string, pattern *regexp.Regexp) (int, bool) {
	for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
		if isTimeExpression(text, loc[2], loc[3]) {
			continue
		}
		if q, ok := parseQuantity(text[loc[2]:loc[3]]); ok {
			return q, true
		}
	}
	return 0, false
}

// matchUnitFallback 1-99 범위의 숫자와 텍스트에서 처음 발견된 단위를 조합하여 호환되는 상품을 추정합니다.
func matchUnitFallback(text string, products []model.Product) *model.CandidateOrder {
	quantity := 0
	for _, loc := range digitsRegexp.FindAllStringIndex(text, -1) {
		if isTimeExpression(text, loc[0], loc[1]) {
			continue
		}
		if q, ok := parseQuantity(text[loc[0]:loc[1]]); ok && q <= fallbackMaxQuantity {
			quantity = q
			break
		}
	}
	if quantity == 0 {
		return nil
	}

	unit := ""
	for _, u := range knownUnits {
		if containsWord(text, u) {
			unit = u
			break
		}
	}
	if unit == "" {
		return nil
	}

	for _, p := range products {
		if unitsCompatible(ProductUnit(p), unit) {
			return unitCandidate(p.ItemNumber, quantity, true)
		}
	}
	if len(products) == 1 {
		return unitCandidate(products[0].ItemNumber, quantity, true)
	}
	return nil
}

// containsWord 라틴 문자 단위(k, g, box 등)는 영단어 일부와 겹치지 않도록 앞뒤가 영문자가 아닌 경우에만 인정합니다.
func containsWord(text, unit string) bool {
	if !isLatin(unit[0]) {
		return strings.Contains(text, unit)
	}
	if p, ok := latinWordPatterns[unit]; ok {
		return p.MatchString(text)
	}
	return buildLatinWordPattern(unit).MatchString(text)
}

func isLatin(b byte) bool {
	return b >= 'a' && b <= 'z'
}

func unitCandidate(item, quantity int, ambiguous bool) *model.CandidateOrder {
	confidence := unitConfidence
	if ambiguous {
		confidence = ambiguousUnitConfidence
	}
	return &model.CandidateOrder{
		ItemNumber:  item,
		Quantity:    quantity,
		MatchType:   model.MatchTypeUnit,
		IsAmbiguous: ambiguous,
		Confidence:  confidence,
	}
}
