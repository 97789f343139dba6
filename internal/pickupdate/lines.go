package pickupdate

import (
	"regexp"
	"strings"

	"github.com/darkkaiser/band-order-server/pkg/strutil"
)

var (
	pickupKeywords   = []string{"픽업", "수령", "방문", "찾아가기", "받아가기", "찾아가", "받아가"}
	deliveryKeywords = []string{"배송", "배달", "도착", "보내드림", "보내드려", "전달"}

	// expiryKeywords 유통기한, 행사 기간처럼 수령일과 무관한 날짜가 나오는 줄의 어휘
	expiryKeywords = []string{"유통기한", "소비기한", "유효기간", "제조일", "제조일자", "생산일", "포장일", "캠페인", "행사기간", "이벤트기간", "기간한정"}

	// orderOpenKeywords 주문 시작일, 예약 마감일 같은 날짜가 나오는 줄의 어휘
	orderOpenKeywords = []string{"주문", "오픈", "시작", "접수", "예약", "판매"}

	digitLookalikeInRun = regexp.MustCompile(`(\d)\s*[lI|ㅣ]\s*(월|일|시)`)
	leadingLookalike    = regexp.MustCompile(`(^|[^\d])[lI|ㅣ](\d\s*(?:월|일))`)
	digitFillerGlyph    = regexp.MustCompile(`(\d)[\sㆍ·]+(월|일|시)`)
)

// line 날짜 후보 판단을 위해 분류된 본문 한 줄
type line struct {
	text string

	hasPickup   bool
	hasDelivery bool
	isExpiry    bool
	isOrderOpen bool
}

func (l line) hasReceiptKeyword() bool {
	return l.hasPickup || l.hasDelivery
}

// candidate 수령일 탐색 대상인 줄인지 확인합니다.
// 유통기한/행사 기간 줄과 주문 시작 줄은 수령 키워드가 함께 있을 때만 후보가 됩니다.
func (l line) candidate() bool {
	if l.hasReceiptKeyword() {
		return true
	}
	return !l.isExpiry && !l.isOrderOpen
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// normalize 날짜 표현에 섞인 오타를 정리합니다. "1l일" -> "11일", "5 월" -> "5월"
func normalize(text string) string {
	s := strutil.NormalizeText(text)
	s = digitFillerGlyph.ReplaceAllString(s, "$1$2")
	for digitLookalikeInRun.MatchString(s) {
		s = digitLookalikeInRun.ReplaceAllString(s, "${1}1$2")
	}
	s = leadingLookalike.ReplaceAllString(s, "${1}1$2")
	return s
}

func splitLines(text string) []line {
	var lines []line
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		lines = append(lines, line{
			text:        raw,
			hasPickup:   containsAny(raw, pickupKeywords),
			hasDelivery: containsAny(raw, deliveryKeywords),
			isExpiry:    containsAny(raw, expiryKeywords),
			isOrderOpen: containsAny(raw, orderOpenKeywords),
		})
	}
	return lines
}
