// Package strutil 게시물, 댓글 본문 처리를 위한 문자열 유틸리티를 제공합니다.
package strutil

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	lineBreakTagRegexp = regexp.MustCompile(`(?i)<br\s*/?>|</p>`)

	// < 다음에 영문자가 오는 경우만 태그로 본다. "3<5" 같은 본문은 건드리지 않는다.
	markupTagRegexp = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9:_-]*[^>]*>`)
)

// fragmentContext 본문 조각을 <div> 안의 내용으로 파싱합니다.
var fragmentContext = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

// StripMarkup 밴드 본문에 섞여 오는 마크업(<band:refer>, <br>, HTML 엔티티 등)을 제거하고 텍스트만 남깁니다.
// <br>과 </p>는 줄바꿈으로 바꿉니다.
func StripMarkup(s string) string {
	if !markupTagRegexp.MatchString(s) && !strings.Contains(s, "&") {
		return s
	}

	s = lineBreakTagRegexp.ReplaceAllString(s, "\n")

	nodes, err := html.ParseFragment(strings.NewReader(s), fragmentContext)
	if err != nil {
		return markupTagRegexp.ReplaceAllString(s, "")
	}

	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(goquery.NewDocumentFromNode(n).Text())
	}
	return b.String()
}

// NormalizeText NFC 정규화 후 전각 문자(１２３, ＡＢＣ 등)를 반각으로 접습니다.
// 반각 한글 자모는 일반 자모로 돌아가므로 "ㅣ" 같은 숫자 대용 문자는 그대로 유지됩니다.
func NormalizeText(s string) string {
	return width.Fold.String(norm.NFC.String(s))
}

// NormalizeSpaces 앞뒤 공백을 제거하고 연속된 공백을 하나로 축약합니다.
func NormalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeMultiLineSpaces 각 줄을 NormalizeSpaces로 정리하고, 연속된 빈 줄은 하나로, 앞뒤 빈 줄은 제거합니다.
func NormalizeMultiLineSpaces(s string) string {
	var lines []string
	emptyPending := false
	for _, line := range strings.Split(s, "\n") {
		line = NormalizeSpaces(line)
		if line == "" {
			emptyPending = len(lines) > 0
			continue
		}
		if emptyPending {
			lines = append(lines, "")
			emptyPending = false
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FirstLine 첫 번째 비어있지 않은 줄을 최대 maxRunes 글자까지 반환합니다.
func FirstLine(s string, maxRunes int) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			r := []rune(line)
			if maxRunes > 0 && len(r) > maxRunes {
				return string(r[:maxRunes])
			}
			return line
		}
	}
	return ""
}

// FormatCommas 정수에 천 단위 구분 기호를 넣습니다. 예: 12500 -> "12,500"
func FormatCommas(num int) string {
	s := strconv.Itoa(num)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
