package matcher

import (
	"regexp"
	"sort"
	"strings"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/pkg/strutil"
)

// defaultUnit 상품에 단위 표기가 없을 때 사용하는 단위
const defaultUnit = "개"

// unitSynonyms 상품 단위별로 댓글에서 같은 뜻으로 허용하는 단위 표기입니다.
// "개"로 등록된 상품은 "3대", "3요" 같은 댓글도 3개로 봅니다.
var unitSynonyms = map[string][]string{
	"개":  {"개", "대", "요", "요욧", "이요"},
	"대":  {"개", "대", "요"},
	"봉":  {"봉", "봉지"},
	"봉지": {"봉", "봉지"},
	"팩":  {"팩", "pack"},
	"통":  {"통", "tong"},
	"병":  {"병", "본", "봉"},
	"상자": {"상자", "박스", "box"},
	"박스": {"박스", "상자", "box"},
	"포":  {"포", "봉"},
	"묶음": {"묶음", "세트", "set"},
	"세트": {"세트", "묶음", "set"},
	"킬로": {"킬로", "키로", "kg", "k"},
	"키로": {"킬로", "키로", "kg", "k"},
	"kg": {"킬로", "키로", "kg", "k"},
	"k":  {"킬로", "키로", "kg", "k"},
	"g":  {"그람", "그램", "g"},
	"그람": {"그람", "그램", "g"},
	"그램": {"그람", "그램", "g"},
	"손":  {"손"},
	"속":  {"속"},
	"모":  {"모"},
	"마리": {"마리"},
	"알":  {"알"},
	"덩이": {"덩이", "덩어리"},
	"판":  {"판", "구", "개"},
}

var (
	// knownUnits 단위 표기 전체 목록. 긴 표기가 먼저 매칭되도록 길이 내림차순으로 정렬됩니다.
	knownUnits = collectKnownUnits()

	allUnitsPattern = regexp.MustCompile(`(\d+)\s*(` + alternation(knownUnits) + `)`)

	// unitQuantityPatterns 알려진 단위마다 "숫자+단위(동의어 포함)" 패턴
	unitQuantityPatterns = compileUnitPatterns(buildUnitQuantityPattern)

	// latinWordPatterns 라틴 문자 단위가 영단어 일부가 아닌 독립된 단어로 쓰였는지 보는 패턴
	latinWordPatterns = compileUnitPatterns(buildLatinWordPattern)

	nativeNumberPattern = regexp.MustCompile(`(한|두|세|네|다섯|여섯)(세트|박스|봉지|상자|[봉팩통개병포묶키킬그손속모덩마알대])`)
	nativeNumbers       = map[string]string{"한": "1", "두": "2", "세": "3", "네": "4", "다섯": "5", "여섯": "6"}

	hangulThenDigit = regexp.MustCompile(`([가-힣])(\d)`)
	digitThenHangul = regexp.MustCompile(`(\d)([가-힣])`)
)

func collectKnownUnits() []string {
	seen := make(map[string]struct{})
	for unit, synonyms := range unitSynonyms {
		seen[unit] = struct{}{}
		for _, s := range synonyms {
			seen[s] = struct{}{}
		}
	}

	units := make([]string, 0, len(seen))
	for u := range seen {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool {
		li, lj := len([]rune(units[i])), len([]rune(units[j]))
		if li != lj {
			return li > lj
		}
		return units[i] < units[j]
	})
	return units
}

func compileUnitPatterns(build func(unit string) *regexp.Regexp) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(knownUnits))
	for _, u := range knownUnits {
		if p := build(u); p != nil {
			patterns[u] = p
		}
	}
	return patterns
}

func buildUnitQuantityPattern(unit string) *regexp.Regexp {
	synonyms := append([]string{unit}, unitSynonyms[unit]...)
	return regexp.MustCompile(`(\d+)\s*(?:` + alternation(synonyms) + `)`)
}

func buildLatinWordPattern(unit string) *regexp.Regexp {
	if !isLatin(unit[0]) {
		return nil
	}
	return regexp.MustCompile(`(?:^|[^a-z])` + regexp.QuoteMeta(unit) + `(?:$|[^a-z])`)
}

// unitQuantityPattern 알려지지 않은 단위(상품 수량 표기를 그대로 쓴 경우)만 그때그때 컴파일합니다.
func unitQuantityPattern(unit string) *regexp.Regexp {
	if p, ok := unitQuantityPatterns[unit]; ok {
		return p
	}
	return buildUnitQuantityPattern(unit)
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// unitsCompatible 상품 단위 productUnit의 상품을 댓글 단위 commentUnit으로 주문할 수 있는지 확인합니다.
func unitsCompatible(productUnit, commentUnit string) bool {
	if productUnit == commentUnit {
		return true
	}
	for _, s := range unitSynonyms[productUnit] {
		if s == commentUnit {
			return true
		}
	}
	return false
}

// ProductUnit 상품의 수량 표기(예: "1통", "500g")에서 단위만 떼어 반환합니다. 알 수 없으면 "개"입니다.
func ProductUnit(p model.Product) string {
	text := strings.ToLower(strings.TrimSpace(p.QuantityText))
	text = strings.TrimLeft(text, "0123456789 ")
	if text == "" {
		return defaultUnit
	}
	for _, u := range knownUnits {
		if strings.HasPrefix(text, u) {
			return u
		}
	}
	return text
}

// normalizeUnitText 단위 패턴 매칭 전에 댓글을 정규화합니다.
// 쉼표 제거, "한통" -> "1통" 같은 고유어 수사 치환, 숫자 대용 문자 치환 후
// 한글과 숫자 사이에 공백을 넣고 소문자로 바꿉니다.
func normalizeUnitText(comment string) string {
	s := strutil.NormalizeText(comment)
	s = strings.ReplaceAll(s, ",", "")
	s = nativeNumberPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := nativeNumberPattern.FindStringSubmatch(m)
		return nativeNumbers[sub[1]] + sub[2]
	})
	s = foldDigitLookalikes(s)
	s = hangulThenDigit.ReplaceAllString(s, "$1 $2")
	s = digitThenHangul.ReplaceAllString(s, "$1 $2")
	return strings.ToLower(s)
}

// UnitText 상품 설명 한 줄에서 첫 번째 "숫자+단위" 표기(예: "1통", "500g")를 찾습니다. 없으면 빈 문자열입니다.
func UnitText(line string) string {
	text := strings.ToLower(strutil.NormalizeText(line))
	for _, loc := range allUnitsPattern.FindAllStringSubmatchIndex(text, -1) {
		// "15,000원"의 "000" 같은 가격 숫자는 건너뜁니다.
		if loc[2] > 0 && text[loc[2]-1] == ',' {
			continue
		}
		return text[loc[2]:loc[3]] + text[loc[4]:loc[5]]
	}
	return ""
}
