// Package mark 알림 메시지에 사용하는 이모지 상수를 모아 둔 패키지입니다.
package mark

// Mark 이모지 상수 타입
type Mark string

const (
	// 수집 성공
	Success Mark = "✅"

	// 일부 실패
	Warning Mark = "⚠️"

	// 실패/오류
	Alert Mark = "🚨"

	// 중단됨
	Stopped Mark = "🛑"

	// 신규 주문
	New Mark = "🆕"

	// 취소된 주문
	Canceled Mark = "🚫"
)

// Values 정의된 모든 마크를 반환합니다.
func Values() []Mark {
	return []Mark{Success, Warning, Alert, Stopped, New, Canceled}
}

// WithSpace 마크 앞에 구분용 공백을 붙여 반환합니다. 빈 마크는 빈 문자열입니다.
func (m Mark) WithSpace() string {
	if m == "" {
		return ""
	}
	return " " + string(m)
}

func (m Mark) String() string {
	return string(m)
}
