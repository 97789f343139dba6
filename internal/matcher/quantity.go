package matcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/darkkaiser/band-order-server/pkg/strutil"
)

const (
	minQuantity = 1
	maxQuantity = 999
)

var (
	digitsRegexp          = regexp.MustCompile(`\d+`)
	onlyNumberRegexp      = regexp.MustCompile(`^\s*\d{1,3}\s*$`)
	latinOneBeforeDigit   = regexp.MustCompile(`[lLiI|](\d)`)
	latinOneAfterDigit    = regexp.MustCompile(`(\d)[lLiI|]`)
	latinZeroAfterDigit   = regexp.MustCompile(`(\d)[oO]`)
	standaloneLookalike   = regexp.MustCompile(`^\s*[ㅣlLiI|]\s*(?:요|개)?\s*$`)
	cancelVocabulary      = []string{"취소", "마감", "완판", "품절"}
	closureUnitVocabulary = []string{"마감", "취소", "완판"}
)

// isPhoneLike 숫자열이 수량이 아니라 전화번호 일부로 보이는지 판단합니다.
// 4자리 이상이거나, 0으로 시작하는 3자리 이상이면 전화번호로 간주합니다.
func isPhoneLike(digits string) bool {
	return len(digits) >= 4 || (len(digits) >= 3 && strings.HasPrefix(digits, "0"))
}

// parseQuantity 숫자열을 수량으로 변환합니다. 전화번호로 보이거나 1-999 범위를 벗어나면 false입니다.
func parseQuantity(digits string) (int, bool) {
	if digits == "" || isPhoneLike(digits) {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < minQuantity || n > maxQuantity {
		return 0, false
	}
	return n, true
}

// containsAny s에 words 중 하나라도 포함되어 있는지 확인합니다.
func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// HasClosureVocabulary 댓글이 취소/마감/완판/품절 어휘를 포함하는지 확인합니다. 이런 댓글에서는 수량을 추출하지 않습니다.
func HasClosureVocabulary(comment string) bool {
	return containsAny(comment, cancelVocabulary)
}

// foldDigitLookalikes 숫자 옆에 붙은 l, I, o 등의 오타를 숫자로 바꿉니다. (예: "1o개" -> "10개", "l2" -> "12")
// 한글 자모 "ㅣ"는 항상 1로 취급합니다.
func foldDigitLookalikes(s string) string {
	s = strings.ReplaceAll(s, "ㅣ", "1")
	s = latinZeroAfterDigit.ReplaceAllString(s, "${1}0")
	s = latinOneAfterDigit.ReplaceAllString(s, "${1}1")
	s = latinOneBeforeDigit.ReplaceAllString(s, "1${1}")
	return s
}

// isTimeExpression text[start:end]에 위치한 숫자가 "3시", "10:30" 같은 시각 표현의 일부인지 확인합니다.
func isTimeExpression(text string, start, end int) bool {
	if start > 0 && text[start-1] == ':' {
		return true
	}
	rest := strings.TrimLeft(text[end:], " ")
	return strings.HasPrefix(rest, "시") || strings.HasPrefix(rest, ":")
}

// NumberOnly 댓글이 1-3자리 숫자 하나로만 이루어져 있으면 그 수량을 반환합니다.
//
// "ㅣ", "l", "I" 같은 1의 대용 문자와 "o", "O" 같은 0의 대용 문자를 숫자로 간주하며,
// 시각 표현("3시")이나 전화번호로 보이는 숫자는 제외합니다.
func NumberOnly(comment string) (int, bool) {
	text := strings.TrimSpace(strutil.NormalizeText(comment))
	if standaloneLookalike.MatchString(text) {
		return 1, true
	}

	text = strings.NewReplacer("ㅣ", "1", "l", "1", "L", "1", "i", "1", "I", "1", "o", "0", "O", "0").Replace(text)
	if !onlyNumberRegexp.MatchString(text) {
		return 0, false
	}

	loc := digitsRegexp.FindStringIndex(text)
	if loc == nil || isTimeExpression(text, loc[0], loc[1]) {
		return 0, false
	}
	return parseQuantity(text[loc[0]:loc[1]])
}

// ExtractQuantity 댓글에서 첫 번째 유효 수량을 찾습니다. 단위가 붙은 숫자를 우선하고, 없으면 단독 숫자를 사용합니다.
// 아무것도 찾지 못하면 1을 반환합니다.
func ExtractQuantity(comment string) int {
	text := foldDigitLookalikes(strutil.NormalizeText(comment))

	for _, loc := range allUnitsPattern.FindAllStringSubmatchIndex(text, -1) {
		if q, ok := parseQuantity(text[loc[2]:loc[3]]); ok && !isTimeExpression(text, loc[2], loc[3]) {
			return q
		}
	}
	for _, loc := range digitsRegexp.FindAllStringIndex(text, -1) {
		if isTimeExpression(text, loc[0], loc[1]) {
			continue
		}
		if q, ok := parseQuantity(text[loc[0]:loc[1]]); ok {
			return q
		}
	}
	return 1
}
