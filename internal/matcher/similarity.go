package matcher

import (
	"sort"
	"strings"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/pkg/strutil"
)

const (
	// similarityThreshold 이 점수 미만의 후보는 버립니다.
	similarityThreshold = 0.05

	// ambiguousScore 이 점수 미만으로 선택된 결과는 모호한 결과로 표시합니다.
	ambiguousScore = 0.3

	similarityWeight = 0.6
	coverageWeight   = 0.4

	exactTokenWeight    = 1.0
	compoundTokenWeight = 0.9
	segmentTokenWeight  = 0.7

	// minSegmentOverlap 2글자 조각 기준으로 이 비율 이상 겹쳐야 부분 일치로 인정합니다.
	minSegmentOverlap = 0.5
)

// similarityScore 상품 하나에 대한 유사도 계산 결과
type similarityScore struct {
	product model.Product

	score            float64
	matchAccuracy    float64
	coverage         float64
	exactFullMatch   bool
	matchedWords     int
	complexSyllables int
	matchedTextLen   int
	titleLen         int
}

// better 정렬 기준에 따라 s가 o보다 앞서는지 판단합니다.
func (s similarityScore) better(o similarityScore) bool {
	switch {
	case s.exactFullMatch != o.exactFullMatch:
		return s.exactFullMatch
	case s.matchAccuracy != o.matchAccuracy:
		return s.matchAccuracy > o.matchAccuracy
	case s.score != o.score:
		return s.score > o.score
	case s.matchedWords != o.matchedWords:
		return s.matchedWords > o.matchedWords
	case s.complexSyllables != o.complexSyllables:
		return s.complexSyllables > o.complexSyllables
	case s.coverage != o.coverage:
		return s.coverage > o.coverage
	case s.matchedTextLen != o.matchedTextLen:
		return s.matchedTextLen > o.matchedTextLen
	case s.titleLen != o.titleLen:
		return s.titleLen > o.titleLen
	default:
		return s.product.ItemNumber < o.product.ItemNumber
	}
}

// bigrams 문자열의 2글자 조각 목록. 1글자 문자열은 그 자체를 반환합니다.
func bigrams(s string) []string {
	r := []rune(s)
	if len(r) < 2 {
		return []string{s}
	}
	out := make([]string, 0, len(r)-1)
	for i := 0; i+1 < len(r); i++ {
		out = append(out, string(r[i:i+2]))
	}
	return out
}

// wordTokens 숫자만으로 된 토큰과 단위 표기를 뺀 토큰 목록
func wordTokens(s string) []string {
	var out []string
	for _, t := range tokenize(s) {
		t = strings.TrimLeft(t, "0123456789")
		if t == "" || isUnitWord(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isUnitWord(t string) bool {
	for _, u := range knownUnits {
		if t == u {
			return true
		}
	}
	return false
}

func scoreProduct(commentTokens []string, commentCompact string, p model.Product) (similarityScore, bool) {
	clean := cleanTitle(p.Title)
	titleTokens := wordTokens(clean)
	if len(titleTokens) == 0 {
		return similarityScore{}, false
	}
	titleCompact := strings.Join(titleTokens, "")

	exact := make(map[string]struct{}, len(commentTokens))
	for _, t := range commentTokens {
		exact[t] = struct{}{}
	}
	compounds := make(map[string]struct{})
	for i := 0; i+1 < len(commentTokens); i++ {
		compounds[commentTokens[i]+commentTokens[i+1]] = struct{}{}
	}

	s := similarityScore{
		product:        p,
		exactFullMatch: len([]rune(titleCompact)) >= 2 && strings.Contains(commentCompact, titleCompact),
		titleLen:       len([]rune(titleCompact)),
	}

	var weight, matchedTitleRunes float64
	for _, t := range titleTokens {
		runes := len([]rune(t))

		if _, ok := exact[t]; ok {
			weight += exactTokenWeight
			matchedTitleRunes += float64(runes)
			s.matchedWords++
			s.matchedTextLen += runes
			continue
		}
		if _, ok := compounds[t]; ok {
			weight += compoundTokenWeight
			matchedTitleRunes += float64(runes) * compoundTokenWeight
			s.matchedWords++
			s.matchedTextLen += runes
			s.complexSyllables += runes
			continue
		}
		if runes >= 2 && strings.Contains(commentCompact, t) {
			weight += compoundTokenWeight
			matchedTitleRunes += float64(runes) * compoundTokenWeight
			s.matchedWords++
			s.matchedTextLen += runes
			s.complexSyllables += runes
			continue
		}

		segments := bigrams(t)
		hits := 0
		for _, seg := range segments {
			if len([]rune(seg)) == 2 && strings.Contains(commentCompact, seg) {
				hits++
			}
		}
		if ratio := float64(hits) / float64(len(segments)); hits > 0 && ratio >= minSegmentOverlap {
			weight += segmentTokenWeight * ratio
			matchedTitleRunes += float64(runes) * segmentTokenWeight * ratio
			s.matchedWords++
			s.matchedTextLen += hits + 1
			s.complexSyllables += hits + 1
		}
	}

	if s.matchedWords == 0 {
		return similarityScore{}, false
	}

	similarity := weight / float64(len(titleTokens))
	if commentLen := len([]rune(commentCompact)); commentLen > 0 {
		s.coverage = minFloat(1, float64(s.matchedTextLen)/float64(commentLen))
	}
	s.score = similarityWeight*similarity + coverageWeight*s.coverage
	s.matchAccuracy = matchedTitleRunes / float64(s.titleLen)
	return s, s.score >= similarityThreshold
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// MatchSimilarity 댓글과 상품명의 토큰 유사도로 상품을 추정합니다. 수량은 댓글에서 별도로 추출합니다.
//
// 점수는 0.6 x 유사도 + 0.4 x 커버리지이며, 최소 점수(0.05) 미만인 상품은 후보에서 제외합니다.
func MatchSimilarity(comment string, products []model.Product) *model.CandidateOrder {
	commentTokens := wordTokens(strutil.NormalizeText(comment))
	if len(commentTokens) == 0 {
		return nil
	}
	commentCompact := strings.Join(commentTokens, "")

	var candidates []similarityScore
	for _, p := range products {
		if s, ok := scoreProduct(commentTokens, commentCompact, p); ok {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].better(candidates[j]) })

	best := candidates[0]
	return &model.CandidateOrder{
		ItemNumber:  best.product.ItemNumber,
		Quantity:    ExtractQuantity(comment),
		MatchType:   model.MatchTypeSimilarity,
		IsAmbiguous: best.score < ambiguousScore,
		Confidence:  best.score,
	}
}
