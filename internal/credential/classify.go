package credential

import (
	"context"
	"errors"
	"net"
	"strings"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/iancoleman/strcase"
)

// ActionKind 키 순환으로 감싸는 API 호출 종류
type ActionKind int

const (
	ActionGetPosts ActionKind = iota
	ActionGetComments
)

var actionKindNames = [...]string{
	ActionGetPosts:    "GetPosts",
	ActionGetComments: "GetComments",
}

// String 사용 기록의 action_type 컬럼 값 ("get_posts", "get_comments")
func (k ActionKind) String() string {
	if int(k) < 0 || int(k) >= len(actionKindNames) {
		return "unknown"
	}
	return strcase.ToSnake(actionKindNames[k])
}

var (
	quotaVocabulary   = []string{"quota", "limit", "rate", "logical error: 1001", "429"}
	tokenVocabulary   = []string{"unauthorized", "invalid", "token", "401", "2300"}
	networkVocabulary = []string{"network", "timeout", "connection", "eof"}
)

// Classify 실패한 호출의 에러를 키 순환 정책의 분류로 변환합니다.
//
// 반환값은 QuotaExceeded, InvalidToken, NetworkError, Unknown 중 하나입니다.
// 에러 체인에 이미 분류된 AppError가 있으면 그 분류를 따르고, 없으면 메시지의 알려진 문구로 판단합니다.
func Classify(err error) apperrors.ErrorType {
	if err == nil {
		return apperrors.Unknown
	}

	switch t := apperrors.UnderlyingType(err); t {
	case apperrors.QuotaExceeded, apperrors.InvalidToken, apperrors.NetworkError:
		return t
	case apperrors.Unauthorized:
		return apperrors.InvalidToken
	case apperrors.Timeout:
		return apperrors.NetworkError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NetworkError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.NetworkError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, quotaVocabulary):
		return apperrors.QuotaExceeded
	case containsAny(msg, tokenVocabulary):
		return apperrors.InvalidToken
	case containsAny(msg, networkVocabulary):
		return apperrors.NetworkError
	}
	return apperrors.Unknown
}

// ClassName 분류의 저장용 이름 ("quota_exceeded", "invalid_token", "network_error", "unknown_error")
func ClassName(t apperrors.ErrorType) string {
	switch t {
	case apperrors.QuotaExceeded, apperrors.InvalidToken, apperrors.NetworkError:
		return strcase.ToSnake(t.String())
	}
	return "unknown_error"
}

// Rotatable 다음 키로 넘어가 재시도할 분류인지 확인합니다.
func Rotatable(t apperrors.ErrorType) bool {
	return t == apperrors.QuotaExceeded || t == apperrors.InvalidToken
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
