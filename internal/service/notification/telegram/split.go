package telegram

import (
	"strings"
	"unicode/utf8"
)

// splitMessage 메시지를 limit 글자 이하의 조각으로 나눕니다.
// 가능하면 줄 경계에서 나누고, 한 줄이 limit보다 길면 글자 단위로 자릅니다.
func splitMessage(message string, limit int) []string {
	if utf8.RuneCountInString(message) <= limit {
		return []string{message}
	}

	var chunks []string
	var sb strings.Builder
	size := 0

	flush := func() {
		if sb.Len() > 0 {
			chunks = append(chunks, sb.String())
			sb.Reset()
			size = 0
		}
	}

	for _, line := range strings.Split(message, "\n") {
		lineSize := utf8.RuneCountInString(line)

		needed := lineSize
		if size > 0 {
			needed++
		}
		if size+needed <= limit {
			if size > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(line)
			size += needed
			continue
		}

		flush()

		runes := []rune(line)
		for len(runes) > limit {
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		sb.WriteString(string(runes))
		size = len(runes)
	}
	flush()

	return chunks
}
