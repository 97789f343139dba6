package comment

import (
	"regexp"
	"strings"
)

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`010[-\s]?\d{4}[-\s]?\d{4}`),
	regexp.MustCompile(`011[-\s]?\d{3,4}[-\s]?\d{4}`),
	regexp.MustCompile(`\d{3}[-\s]?\d{3,4}[-\s]?\d{4}`),
}

// ExtractPhoneNumber 댓글에서 휴대폰 번호를 찾아 하이픈과 공백을 제거한 숫자열로 반환합니다. 없으면 빈 문자열입니다.
func ExtractPhoneNumber(text string) string {
	for _, p := range phonePatterns {
		if m := p.FindString(text); m != "" {
			return strings.NewReplacer("-", "", " ", "").Replace(m)
		}
	}
	return ""
}
