// Package idgen 수집 세션과 실행(run)의 고유 식별자를 생성합니다.
//
// 주문, 고객, 상품 id는 입력값에서 결정적으로 만들어지므로 여기서 생성하지 않습니다 (order 패키지 참고).
package idgen

import (
	"sync/atomic"
	"time"
)

const (
	// base62Chars 0-9, A-Z, a-z 순서로 ASCII 순서와 같아서, 생성된 ID의 사전순 정렬이 대략 시간순과 일치합니다.
	base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	base62Len = int64(len(base62Chars))

	// seqLength 시퀀스 부분의 고정 길이
	seqLength = 6
)

// Generator 시간순 정렬이 가능한 고유 ID 생성기. 여러 고루틴에서 동시에 사용해도 안전합니다.
//
// ID 구조: [접두어-][타임스탬프(Base62)][시퀀스(Base62, 6자리 고정)]
type Generator struct {
	prefix  string
	counter uint32
	now     func() time.Time
}

// New 접두어를 붙이는 Generator를 생성합니다. 접두어가 비어 있으면 붙이지 않습니다.
func New(prefix string) *Generator {
	return &Generator{prefix: prefix, now: time.Now}
}

// Next 새로운 ID를 생성합니다.
func (g *Generator) Next() string {
	now := g.now().UnixNano()
	seq := atomic.AddUint32(&g.counter, 1)

	b := make([]byte, 0, len(g.prefix)+1+18)
	if g.prefix != "" {
		b = append(b, g.prefix...)
		b = append(b, '-')
	}
	b = appendBase62(b, now)
	b = appendBase62Fixed(b, int64(seq), seqLength)

	return string(b)
}

// appendBase62 0은 "0", 61은 "z", 62는 "10"
func appendBase62(dst []byte, num int64) []byte {
	if num == 0 {
		return append(dst, base62Chars[0])
	}
	if num < 0 {
		num = -num
	}

	var temp [20]byte
	i := len(temp)
	for num > 0 {
		i--
		temp[i] = base62Chars[num%base62Len]
		num /= base62Len
	}
	return append(dst, temp[i:]...)
}

// appendBase62Fixed 앞을 '0'으로 채워 length 자리로 맞춥니다. 자릿수가 더 많으면 자르지 않습니다.
func appendBase62Fixed(dst []byte, num int64, length int) []byte {
	encoded := appendBase62(nil, num)
	for i := len(encoded); i < length; i++ {
		dst = append(dst, base62Chars[0])
	}
	return append(dst, encoded...)
}
