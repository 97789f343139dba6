package matcher

import (
	"regexp"
	"sort"
	"strings"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/pkg/strutil"
)

const keywordConfidence = 0.9

// KeywordEntry 키워드가 가리키는 상품 번호와 우선순위. 우선순위는 키워드의 글자 수이며 클수록 구체적입니다.
type KeywordEntry struct {
	ItemNumber int
	Priority   int
	Explicit   bool
}

// KeywordIndex 키워드 -> 상품 매핑
type KeywordIndex map[string]KeywordEntry

var (
	titleDatePrefix  = regexp.MustCompile(`^\s*\[[^\]]*\]\s*`)
	titleBrackets    = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	tokenSeparator   = regexp.MustCompile(`[^0-9a-z가-힣]+`)
	hangulThenNumber = regexp.MustCompile(`^([가-힣]+)\s*(\d+)$`)

	numberThenWord = regexp.MustCompile(`(\d+)\s*(\S+)`)
	wordThenNumber = regexp.MustCompile(`(\S+?)\s*(\d+)`)
	numberUnitWord = regexp.MustCompile(`(\d+)\s*[가-힣a-z]{0,3}\s+(\S+)`)

	// genericSuffixes 상품명에서 떼어내도 상품을 구분할 수 있는 일반 접미어
	genericSuffixes = []string{"김치", "세트", "선물세트", "반찬"}
)

// keywordRules 상품명에 포함된 경우 함께 등록할 키워드 묶음
var keywordRules = []struct {
	contains string
	keywords []string
}{
	{"배추김치", []string{"배추김치", "배추"}},
	{"총각김치", []string{"총각김치", "총각"}},
	{"석박지", []string{"석박지"}},
	{"갓김치", []string{"갓김치", "갓"}},
	{"얼갈이겉절이김치", []string{"얼갈이겉절이김치", "얼갈이겉절이", "얼갈이", "겉절이"}},
	{"열무물김치", []string{"열무물김치", "물김치"}},
	{"열무김치", []string{"열무김치", "열무"}},
	{"쪽파김치", []string{"쪽파김치", "쪽파", "파김치", "파"}},
	{"오이소박이김치", []string{"오이소박이김치", "오이소박이", "오이", "소박이"}},
}

// cleanTitle 날짜 접두어, 괄호 안 설명을 제거하고 소문자로 바꾼 상품명을 반환합니다.
func cleanTitle(title string) string {
	t := titleDatePrefix.ReplaceAllString(strutil.NormalizeText(title), "")
	t = titleBrackets.ReplaceAllString(t, " ")
	return strings.ToLower(strutil.NormalizeSpaces(t))
}

// tokenize 한글, 영문 소문자, 숫자로 이루어진 토큰 목록을 반환합니다.
func tokenize(s string) []string {
	var tokens []string
	for _, t := range tokenSeparator.Split(strings.ToLower(s), -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// deriveKeywords 상품명으로부터 키워드를 만듭니다.
func deriveKeywords(title string) []string {
	clean := cleanTitle(title)
	compact := strings.Join(tokenize(clean), "")

	var keywords []string
	if compact != "" && !isNumeric(compact) {
		keywords = append(keywords, compact)
	}
	for _, rule := range keywordRules {
		if strings.Contains(compact, rule.contains) {
			keywords = append(keywords, rule.keywords...)
		}
	}
	for _, t := range tokenize(clean) {
		if len([]rune(t)) < 2 || isNumeric(t) || strings.ContainsAny(t, "0123456789") {
			continue
		}
		keywords = append(keywords, t)
		for _, suffix := range genericSuffixes {
			if stem := strings.TrimSuffix(t, suffix); stem != t && len([]rune(stem)) >= 2 {
				keywords = append(keywords, stem)
			}
		}
	}
	return keywords
}

// BuildKeywordIndex 상품 목록으로 키워드 인덱스를 만듭니다.
//
// 상품에 명시된 키워드(Keywords)가 있으면 그것과 상품명 전체를 사용하고, 없으면 상품명에서 키워드를 유도합니다.
// 명시 키워드가 여러 상품에 겹치면 번호가 낮은 상품이 가지며, 유도된 키워드가 여러 상품에 겹치면
// 어느 상품인지 특정할 수 없으므로 인덱스에서 제외합니다.
func BuildKeywordIndex(products []model.Product) KeywordIndex {
	sorted := make([]model.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ItemNumber < sorted[j].ItemNumber })

	index := make(KeywordIndex)
	shared := make(map[string]struct{})

	for _, p := range sorted {
		for _, kw := range p.Keywords {
			kw = strings.ToLower(strings.Join(tokenize(strutil.NormalizeText(kw)), ""))
			if kw == "" {
				continue
			}
			if e, exists := index[kw]; exists && e.Explicit {
				continue
			}
			index[kw] = KeywordEntry{ItemNumber: p.ItemNumber, Priority: len([]rune(kw)), Explicit: true}
		}
	}

	for _, p := range sorted {
		var derived []string
		if len(p.Keywords) > 0 {
			if compact := strings.Join(tokenize(cleanTitle(p.Title)), ""); compact != "" {
				derived = []string{compact}
			}
		} else {
			derived = deriveKeywords(p.Title)
		}

		for _, kw := range derived {
			e, exists := index[kw]
			switch {
			case !exists:
				if _, dropped := shared[kw]; !dropped {
					index[kw] = KeywordEntry{ItemNumber: p.ItemNumber, Priority: len([]rune(kw))}
				}
			case e.Explicit || e.ItemNumber == p.ItemNumber:
			default:
				delete(index, kw)
				shared[kw] = struct{}{}
			}
		}
	}
	return index
}

type rankedKeyword struct {
	keyword string
	KeywordEntry
}

// ranked 우선순위 내림차순, 상품 번호 오름차순으로 정렬된 키워드 목록을 반환합니다.
func (idx KeywordIndex) ranked() []rankedKeyword {
	list := make([]rankedKeyword, 0, len(idx))
	for kw, e := range idx {
		list = append(list, rankedKeyword{keyword: kw, KeywordEntry: e})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority > list[j].Priority
		}
		if list[i].ItemNumber != list[j].ItemNumber {
			return list[i].ItemNumber < list[j].ItemNumber
		}
		return list[i].keyword < list[j].keyword
	})
	return list
}

// MatchKeyword 키워드 인덱스로 댓글의 상품과 수량을 찾습니다.
//
// "신1"처럼 한글 바로 뒤에 숫자가 오는 댓글을 먼저 확인하고, 그다음 우선순위가 높은 키워드부터
// 키워드와 붙어있는 숫자를 찾습니다. 키워드 근처에 유효한 수량이 없으면 다음 키워드로 넘어갑니다.
func MatchKeyword(comment string, index KeywordIndex) *model.CandidateOrder {
	if len(index) == 0 {
		return nil
	}

	text := strings.ToLower(foldDigitLookalikes(strings.TrimSpace(strutil.NormalizeText(comment))))
	ranked := index.ranked()

	if sub := hangulThenNumber.FindStringSubmatch(text); sub != nil {
		word := sub[1]
		if q, ok := parseQuantity(sub[2]); ok {
			for _, k := range ranked {
				if strings.Contains(word, k.keyword) || strings.Contains(k.keyword, word) {
					return keywordCandidate(k.ItemNumber, q)
				}
			}
		}
	}

	for _, k := range ranked {
		if !strings.Contains(text, k.keyword) {
			continue
		}
		if q, ok := quantityNear(text, k.keyword); ok {
			return keywordCandidate(k.ItemNumber, q)
		}
	}
	return nil
}

// quantityNear 키워드를 포함하는 "숫자 단어", "단어 숫자" 조각에서 수량을 찾습니다.
func quantityNear(text, keyword string) (int, bool) {
	for _, pattern := range []*regexp.Regexp{numberThenWord, wordThenNumber, numberUnitWord} {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			if !strings.Contains(text[loc[0]:loc[1]], keyword) {
				continue
			}

			start, end := loc[2], loc[3]
			if pattern == wordThenNumber {
				start, end = loc[4], loc[5]
			}
			if splitsDigitRun(text, start, end) || isTimeExpression(text, start, end) {
				continue
			}
			if q, ok := parseQuantity(text[start:end]); ok {
				return q, true
			}
		}
	}
	return 0, false
}

// splitsDigitRun text[start:end]가 더 긴 숫자열의 일부인지 확인합니다. "010-1234"의 "10" 같은 경우입니다.
func splitsDigitRun(text string, start, end int) bool {
	return (start > 0 && isDigit(text[start-1])) || (end < len(text) && isDigit(text[end]))
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func keywordCandidate(item, quantity int) *model.CandidateOrder {
	return &model.CandidateOrder{
		ItemNumber: item,
		Quantity:   quantity,
		MatchType:  model.MatchTypeKeyword,
		Confidence: keywordConfidence,
	}
}
