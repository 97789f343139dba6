package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"마크업 없음", "배추김치 2개요", "배추김치 2개요"},
		{"부등호는 유지", "3<5 주세요", "3<5 주세요"},
		{"band:refer 태그", `<band:refer user_key="abc">홍길동</band:refer> 2개요`, "홍길동 2개요"},
		{"br 태그는 줄바꿈", "1번 사과<br>2번 배", "1번 사과\n2번 배"},
		{"HTML 엔티티", "A &amp; B", "A & B"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StripMarkup(tt.input))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "3개", NormalizeText("３개"))
	assert.Equal(t, "ABC", NormalizeText("ＡＢＣ"))
	assert.Equal(t, "ㅣ개", NormalizeText("ㅣ개"))
}

func TestNormalizeSpaces(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "배추 김치", NormalizeSpaces("  배추   김치 "))
	assert.Equal(t, "a\nb\n\nc", NormalizeMultiLineSpaces("\n\n a \n b\n\n\n  c \n\n"))
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "첫 줄", FirstLine("\n  첫 줄 \n둘째 줄", 0))
	assert.Equal(t, "가나", FirstLine("가나다라", 2))
	assert.Equal(t, "", FirstLine("   \n ", 10))
}

func TestFormatCommas(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", FormatCommas(0))
	assert.Equal(t, "999", FormatCommas(999))
	assert.Equal(t, "12,500", FormatCommas(12500))
	assert.Equal(t, "1,234,567", FormatCommas(1234567))
	assert.Equal(t, "-1,000", FormatCommas(-1000))
}
