package errors

import "strconv"

// ErrorType 에러의 종류를 나타내는 타입입니다.
type ErrorType int

const (
	// Unknown 분류되지 않은 에러
	Unknown ErrorType = iota

	// Internal 내부 로직 오류
	Internal

	// System 인프라 오류 (디스크, DB 연결 등)
	System

	// Unauthorized 인증 실패
	Unauthorized

	// Forbidden 권한 없음
	Forbidden

	// InvalidInput 잘못된 입력값
	InvalidInput

	// Conflict 리소스 충돌
	Conflict

	// NotFound 리소스를 찾을 수 없음
	NotFound

	// ExecutionFailed 외부 호출 또는 비즈니스 로직 수행 실패
	ExecutionFailed

	// ParsingFailed 응답 파싱 실패
	ParsingFailed

	// Timeout 작업 시간 초과
	Timeout

	// Unavailable 일시적으로 사용할 수 없는 상태
	Unavailable

	// QuotaExceeded 밴드 API 호출 한도 초과 (다음 키로 전환 대상)
	QuotaExceeded

	// InvalidToken 액세스 토큰이 유효하지 않음 (다음 키로 전환 대상)
	InvalidToken

	// NetworkError 네트워크 단절, 타임아웃 등 (키 전환 없이 즉시 중단)
	NetworkError

	// ExtractionFailure AI 주문 추출 호출이 실패했거나 빈 결과를 돌려줌
	ExtractionFailure

	// PersistenceConflict 일부 저장 후 후속 저장이 실패하여 보상 롤백이 필요한 상태
	PersistenceConflict

	// MalformedComment 댓글에 안정적인 키가 없음 (합성 키로 복구)
	MalformedComment
)

var errorTypeNames = [...]string{
	Unknown:             "Unknown",
	Internal:            "Internal",
	System:              "System",
	Unauthorized:        "Unauthorized",
	Forbidden:           "Forbidden",
	InvalidInput:        "InvalidInput",
	Conflict:            "Conflict",
	NotFound:            "NotFound",
	ExecutionFailed:     "ExecutionFailed",
	ParsingFailed:       "ParsingFailed",
	Timeout:             "Timeout",
	Unavailable:         "Unavailable",
	QuotaExceeded:       "QuotaExceeded",
	InvalidToken:        "InvalidToken",
	NetworkError:        "NetworkError",
	ExtractionFailure:   "ExtractionFailure",
	PersistenceConflict: "PersistenceConflict",
	MalformedComment:    "MalformedComment",
}

func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return "ErrorType(" + strconv.Itoa(int(t)) + ")"
	}
	return errorTypeNames[t]
}
