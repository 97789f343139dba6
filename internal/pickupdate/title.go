package pickupdate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var titleDatePrefix = regexp.MustCompile(`^\s*\[\s*\d{1,2}\s*월\s*\d{1,2}\s*일\s*\]\s*`)

// PrefixTitle 상품명 앞에 "[M월D일]" 수령일 접두어를 붙입니다. 기존 접두어가 있으면 교체하고, date가 nil이면 제목을 그대로 반환합니다.
func PrefixTitle(title string, date *time.Time) string {
	if date == nil {
		return title
	}

	d := date.In(KST)
	bare := strings.TrimSpace(titleDatePrefix.ReplaceAllString(title, ""))
	prefix := fmt.Sprintf("[%d월%d일]", int(d.Month()), d.Day())
	if bare == "" {
		return prefix
	}
	return prefix + " " + bare
}

// StripTitlePrefix 상품명에서 "[M월D일]" 접두어를 제거합니다.
func StripTitlePrefix(title string) string {
	return strings.TrimSpace(titleDatePrefix.ReplaceAllString(title, ""))
}
