package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPhoneLike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		digits string
		want   bool
	}{
		{"1", false},
		{"12", false},
		{"100", false},
		{"010", true},
		{"1234", true},
		{"01012345678", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.digits, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isPhoneLike(tt.digits))
		})
	}
}

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	q, ok := parseQuantity("999")
	assert.True(t, ok)
	assert.Equal(t, 999, q)

	_, ok = parseQuantity("0")
	assert.False(t, ok, "0은 수량이 아니다")

	_, ok = parseQuantity("1000")
	assert.False(t, ok)

	_, ok = parseQuantity("")
	assert.False(t, ok)
}

func TestNumberOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		comment string
		want    int
		wantOK  bool
	}{
		{"숫자 하나", "3", 3, true},
		{"앞뒤 공백", "  5 ", 5, true},
		{"전각 숫자", "２", 2, true},
		{"한글 자모 ㅣ", "ㅣ", 1, true},
		{"영문 l 뒤에 요", "l요", 1, true},
		{"1o는 10", "1o", 10, true},
		{"전화번호 앞자리", "010", 0, false},
		{"네 자리 숫자", "1234", 0, false},
		{"시각 표현", "3시", 0, false},
		{"문장", "3개 주세요", 0, false},
		{"숫자 없음", "감사합니다", 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := NumberOnly(tt.comment)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractQuantity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, ExtractQuantity("배추 2개요"))
	assert.Equal(t, 4, ExtractQuantity("3시에 4개 찾으러 갈게요"))
	assert.Equal(t, 1, ExtractQuantity("3시에 찾으러 갈게요"), "시각은 수량이 아니다")
	assert.Equal(t, 1, ExtractQuantity("010-1234-5678 사과"), "전화번호는 수량이 아니다")
	assert.Equal(t, 1, ExtractQuantity("사과 주세요"))
}

func TestHasClosureVocabulary(t *testing.T) {
	t.Parallel()

	assert.True(t, HasClosureVocabulary("취소할게요"))
	assert.True(t, HasClosureVocabulary("마감인가요?"))
	assert.True(t, HasClosureVocabulary("완판 축하드려요"))
	assert.True(t, HasClosureVocabulary("품절이네요"))
	assert.False(t, HasClosureVocabulary("2개 주세요"))
}
