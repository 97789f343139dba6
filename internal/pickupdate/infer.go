// Package pickupdate 게시물 본문에서 상품 수령(픽업/배송) 날짜와 방식을 추론합니다.
//
// 모든 날짜 계산은 한국 표준시(UTC+9) 달력 기준입니다.
package pickupdate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/darkkaiser/band-order-server/internal/model"
)

// KST 한국 표준시
var KST = time.FixedZone("KST", 9*60*60)

// defaultHour 시각 정보가 없을 때 사용하는 수령 시각
const defaultHour = 9

// businessStartHour 오전/오후 표기 없이 이 시각보다 이른 숫자는 오후로 봅니다. ("4시" -> 16시)
const businessStartHour = 8

// Result 수령일 추론 결과. 날짜를 찾지 못하면 Date가 nil입니다.
type Result struct {
	Date     *time.Time
	Type     model.PickupType
	Original string
	Reason   string
}

// ISO 수령일을 RFC 3339 문자열로 반환합니다. 날짜가 없으면 빈 문자열입니다.
func (r Result) ISO() string {
	if r.Date == nil {
		return ""
	}
	return r.Date.Format(time.RFC3339)
}

var (
	fullDatePattern  = regexp.MustCompile(`(\d{1,2})월\s*(\d{1,2})일`)
	isoDatePattern   = regexp.MustCompile(`(20\d{2})[-./](\d{1,2})[-./](\d{1,2})`)
	monthOnlyPattern = regexp.MustCompile(`(\d{1,2})월`)
	dayOnlyPattern   = regexp.MustCompile(`(?:^|[^\d월])(\d{1,2})일(간|동안|전|후|째)?`)

	monthDayRangePattern = regexp.MustCompile(`(\d{1,2})월\s*(\d{1,2})일?\s*[~～]\s*(?:(\d{1,2})월\s*)?(\d{1,2})일?`)
	slashRangePattern    = regexp.MustCompile(`(\d{1,2})/(\d{1,2})\s*[~～-]\s*(?:(\d{1,2})/)?(\d{1,2})`)
	dotRangePattern      = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\s*[~～]\s*(?:(\d{1,2})\.)?(\d{1,2})`)
	dayRangePattern      = regexp.MustCompile(`(?:^|[^\d/.월])(\d{1,2})일?\s*[~～]\s*(\d{1,2})일`)

	nextWeekPattern = regexp.MustCompile(`다음\s*주`)

	meridiemTimePattern = regexp.MustCompile(`(오전|오후|아침|저녁|밤|낮)\s*(\d{1,2})(?:시(?:\s*(\d{1,2})분)?|\s*:\s*(\d{2}))`)
	hourPattern         = regexp.MustCompile(`(\d{1,2})시(?:\s*(\d{1,2})분)?`)
	colonTimePattern    = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*:\s*(\d{2})`)

	fullWeekdays = []struct {
		name    string
		weekday time.Weekday
	}{
		{"월요일", time.Monday}, {"화요일", time.Tuesday}, {"수요일", time.Wednesday}, {"목요일", time.Thursday},
		{"금요일", time.Friday}, {"토요일", time.Saturday}, {"일요일", time.Sunday},
	}
	shortWeekdays = map[rune]time.Weekday{
		'월': time.Monday, '화': time.Tuesday, '수': time.Wednesday, '목': time.Thursday,
		'금': time.Friday, '토': time.Saturday, '일': time.Sunday,
	}
	relativeDays = []struct {
		word string
		days int
	}{
		{"모레", 2}, {"모래", 2}, {"내일", 1}, {"오늘", 0}, {"당일", 0},
	}
)

// day 시각이 정해지지 않은 달력 날짜
type day struct {
	year  int
	month time.Month
	day   int
}

func (d day) at(hour, minute int) time.Time {
	return time.Date(d.year, d.month, d.day, hour, minute, 0, 0, KST)
}

func (d day) before(o day) bool {
	if d.year != o.year {
		return d.year < o.year
	}
	if d.month != o.month {
		return d.month < o.month
	}
	return d.day < o.day
}

func dayOf(t time.Time) day {
	y, m, d := t.Date()
	return day{year: y, month: m, day: d}
}

// monthDay 기준일 이후의 가장 가까운 (month, dayOfMonth) 날짜를 만듭니다. 존재하지 않는 날짜면 false입니다.
func monthDay(month, dayOfMonth int, anchor day) (day, bool) {
	if month < 1 || month > 12 || dayOfMonth < 1 || dayOfMonth > 31 {
		return day{}, false
	}
	candidate := day{year: anchor.year, month: time.Month(month), day: dayOfMonth}
	if t := candidate.at(0, 0); t.Month() != candidate.month {
		return day{}, false
	}
	if candidate.before(anchor) {
		candidate.year++
	}
	return candidate, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Infer text에서 수령일과 수령 방식을 추론합니다. anchor는 게시물 작성 시각이며 KST로 변환하여 사용합니다.
//
// 우선순위는 수령 기간 범위(앞쪽 날짜), "M월D일" 명시 날짜(앞서 나온 월 + 이후의 "D일" 포함), 요일,
// 수령 키워드와 함께 쓰인 내일/모레/오늘, 주문 시작 줄의 날짜 순입니다. 날짜 없이 "N시"만 있으면
// 기준일 당일의 해당 시각을 사용하고, 아무 신호도 없으면 Date는 nil입니다.
func Infer(text string, anchor time.Time) Result {
	result := Result{Type: classifyType(text), Original: text}
	if strings.TrimSpace(text) == "" {
		return result
	}

	anchor = anchor.In(KST)
	base := dayOf(anchor)

	lines := splitLines(normalize(text))
	var candidates []line
	for _, l := range lines {
		if l.candidate() {
			candidates = append(candidates, l)
		}
	}

	hour, minute, timeFound := extractTime(candidates)
	if !timeFound {
		hour, minute = defaultHour, 0
	}

	found, reason, ok := findDate(candidates, lines, anchor, base)
	if !ok {
		if !timeFound {
			return result
		}
		found, reason = base, "시각만 명시되어 게시일 당일 사용"
	}

	t := found.at(hour, minute)
	result.Date = &t
	result.Reason = reason
	return result
}

func findDate(candidates, all []line, anchor time.Time, base day) (day, string, bool) {
	if d, ok := findRange(candidates, base); ok {
		return d, "수령 기간의 시작일", true
	}
	if d, ok := findMonthDay(candidates, base); ok {
		return d, "명시된 날짜", true
	}
	if d, name, ok := findWeekday(candidates, anchor); ok {
		return d, name + " 감지", true
	}
	if d, word, ok := findRelative(candidates, anchor); ok {
		return d, fmt.Sprintf("%s 수령", word), true
	}
	if d, ok := findOrderOpenDate(all, base); ok {
		return d, "주문 안내 줄의 날짜", true
	}
	return day{}, "", false
}

// findRange "7월5일~7일", "7/5~7/7", "9.12~13", "5~7일" 형태의 수령 기간에서 앞쪽 날짜를 찾습니다.
func findRange(lines []line, base day) (day, bool) {
	lastMonth := 0
	for _, l := range lines {
		for _, p := range []*regexp.Regexp{monthDayRangePattern, slashRangePattern, dotRangePattern} {
			if sub := p.FindStringSubmatch(l.text); sub != nil {
				startMonth, startDay := atoi(sub[1]), atoi(sub[2])
				endMonth := startMonth
				if sub[3] != "" {
					endMonth = atoi(sub[3])
				}
				start, ok1 := monthDay(startMonth, startDay, base)
				end, ok2 := monthDay(endMonth, atoi(sub[4]), base)
				switch {
				case ok1 && ok2 && end.before(start):
					return end, true
				case ok1:
					return start, true
				}
			}
		}

		if sub := dayRangePattern.FindStringSubmatch(l.text); sub != nil {
			if d, ok := dayInMonth(atoi(sub[1]), lastMonth, base); ok {
				return d, true
			}
		}
		if m := monthOnlyPattern.FindAllStringSubmatch(l.text, -1); m != nil {
			lastMonth = atoi(m[len(m)-1][1])
		}
	}
	return day{}, false
}

// dayInMonth 월이 생략된 "D일"을 날짜로 만듭니다. month가 0이면 기준일의 달을 쓰고, 이미 지난 날이면 다음 달로 넘깁니다.
func dayInMonth(dayOfMonth, month int, base day) (day, bool) {
	if month != 0 {
		return monthDay(month, dayOfMonth, base)
	}
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return day{}, false
	}
	t := time.Date(base.year, base.month, dayOfMonth, 0, 0, 0, 0, KST)
	if t.Day() != dayOfMonth {
		return day{}, false
	}
	if d := dayOf(t); d.before(base) {
		t = time.Date(base.year, base.month+1, dayOfMonth, 0, 0, 0, 0, KST)
		if t.Day() != dayOfMonth {
			return day{}, false
		}
	}
	return dayOf(t), true
}

// findMonthDay 위에서부터 첫 번째 "M월D일"(또는 "2024-07-05")을 찾고, 없으면 앞서 언급된 월을 이후의 "D일"에 적용합니다.
func findMonthDay(lines []line, base day) (day, bool) {
	for _, l := range lines {
		if sub := isoDatePattern.FindStringSubmatch(l.text); sub != nil {
			t := time.Date(atoi(sub[1]), time.Month(atoi(sub[2])), atoi(sub[3]), 0, 0, 0, 0, KST)
			if t.Day() == atoi(sub[3]) && int(t.Month()) == atoi(sub[2]) {
				return dayOf(t), true
			}
		}
		for _, sub := range fullDatePattern.FindAllStringSubmatch(l.text, -1) {
			if d, ok := monthDay(atoi(sub[1]), atoi(sub[2]), base); ok {
				return d, true
			}
		}
	}

	lastMonth := 0
	for _, l := range lines {
		if lastMonth != 0 || l.hasReceiptKeyword() {
			for _, sub := range dayOnlyPattern.FindAllStringSubmatch(l.text, -1) {
				if sub[2] != "" {
					continue
				}
				if d, ok := dayInMonth(atoi(sub[1]), lastMonth, base); ok {
					return d, true
				}
			}
		}
		if m := monthOnlyPattern.FindAllStringSubmatch(l.text, -1); m != nil {
			lastMonth = atoi(m[len(m)-1][1])
		}
	}
	return day{}, false
}

// findWeekday 요일 이름을 찾아 기준일 이후 가장 가까운 해당 요일을 반환합니다.
// 한 글자 요일("금")은 앞뒤에 한글이나 숫자가 붙어 있지 않을 때만 인정합니다.
func findWeekday(lines []line, anchor time.Time) (day, string, bool) {
	nextWeek := false
	for _, l := range lines {
		if nextWeekPattern.MatchString(l.text) {
			nextWeek = true
		}
	}

	resolve := func(target time.Weekday) day {
		delta := (int(target) - int(anchor.Weekday()) + 7) % 7
		if delta == 0 && nextWeek {
			delta = 7
		}
		return dayOf(anchor.AddDate(0, 0, delta))
	}

	for _, l := range lines {
		for _, w := range fullWeekdays {
			if strings.Contains(l.text, w.name) {
				return resolve(w.weekday), w.name, true
			}
		}
	}
	for _, l := range lines {
		runes := []rune(l.text)
		for i, r := range runes {
			wd, ok := shortWeekdays[r]
			if !ok {
				continue
			}
			if i > 0 && isWordRune(runes[i-1]) {
				continue
			}
			if i+1 < len(runes) && isWordRune(runes[i+1]) {
				continue
			}
			return resolve(wd), string(r), true
		}
	}
	return day{}, "", false
}

func isWordRune(r rune) bool {
	return (r >= '가' && r <= '힣') || (r >= '0' && r <= '9')
}

// findRelative 수령/배송 키워드와 같은 줄에 있는 내일/모레/오늘/당일을 찾습니다.
func findRelative(lines []line, anchor time.Time) (day, string, bool) {
	for _, l := range lines {
		if !l.hasReceiptKeyword() {
			continue
		}
		for _, r := range relativeDays {
			if strings.Contains(l.text, r.word) {
				return dayOf(anchor.AddDate(0, 0, r.days)), r.word, true
			}
		}
	}
	return day{}, "", false
}

// findOrderOpenDate 수령일을 찾지 못했을 때 주문 안내 줄의 "M월D일"을 마지막 후보로 사용합니다.
// 다른 줄에 수령 키워드가 따로 있으면 그 줄과 충돌할 수 있으므로 사용하지 않습니다.
func findOrderOpenDate(lines []line, base day) (day, bool) {
	for _, l := range lines {
		if !l.isOrderOpen && l.hasReceiptKeyword() {
			return day{}, false
		}
	}
	for _, l := range lines {
		if !l.isOrderOpen || l.isExpiry {
			continue
		}
		if sub := fullDatePattern.FindStringSubmatch(l.text); sub != nil {
			if d, ok := monthDay(atoi(sub[1]), atoi(sub[2]), base); ok {
				return d, true
			}
		}
	}
	return day{}, false
}

// extractTime 후보 줄에서 수령 시각을 찾습니다. 오전/오후가 명시된 표현을 우선합니다.
func extractTime(lines []line) (int, int, bool) {
	for _, l := range lines {
		if sub := meridiemTimePattern.FindStringSubmatch(l.text); sub != nil {
			hour := atoi(sub[2])
			minute := atoi(sub[3])
			if sub[4] != "" {
				minute = atoi(sub[4])
			}
			if hour > 12 || minute > 59 {
				continue
			}
			switch sub[1] {
			case "오후", "저녁", "밤":
				if hour != 12 {
					hour += 12
				}
			case "오전", "아침":
				if hour == 12 {
					hour = 0
				}
			}
			return hour, minute, true
		}
	}

	for _, l := range lines {
		for _, p := range []*regexp.Regexp{hourPattern, colonTimePattern} {
			for _, loc := range p.FindAllStringSubmatchIndex(l.text, -1) {
				if p == hourPattern && strings.HasPrefix(l.text[loc[1]:], "간") {
					continue
				}
				hour := atoi(l.text[loc[2]:loc[3]])
				minute := 0
				if loc[4] >= 0 {
					minute = atoi(l.text[loc[4]:loc[5]])
				}
				if hour > 23 || minute > 59 {
					continue
				}
				if hour < businessStartHour {
					hour += 12
				}
				return hour, minute, true
			}
		}
	}
	return 0, 0, false
}

// classifyType 수령 방식을 분류합니다. 픽업 키워드가 배송 키워드보다 우선하며, 둘 다 없으면 기본값("수령")입니다.
func classifyType(text string) model.PickupType {
	switch {
	case containsAny(text, pickupKeywords):
		return model.PickupTypePickup
	case containsAny(text, deliveryKeywords):
		return model.PickupTypeDelivery
	default:
		return model.PickupTypeDefault
	}
}
