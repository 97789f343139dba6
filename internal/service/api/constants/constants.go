// Package constants API 서비스 전반에서 사용하는 상수를 정의합니다.
package constants

import "time"

// 로깅 시 로그의 발생 위치(컴포넌트)를 식별하기 위한 상수입니다.
const (
	ComponentService      = "api.service"
	ComponentHandler      = "api.handler"
	ComponentMiddleware   = "api.middleware"
	ComponentErrorHandler = "api.error_handler"
)

// 인증 파라미터
const (
	// QueryParamAppKey 애플리케이션 인증용 쿼리 파라미터 키 (레거시)
	QueryParamAppKey = "app_key"

	// HeaderXAppKey 애플리케이션 인증용 HTTP 헤더 키 (권장 방식)
	HeaderXAppKey = "X-App-Key"

	// HeaderXApplicationID 애플리케이션 식별용 HTTP 헤더 키
	HeaderXApplicationID = "X-Application-Id"

	// QueryParamApplicationID 헤더를 쓸 수 없는 클라이언트를 위한 애플리케이션 식별 쿼리 파라미터 키
	QueryParamApplicationID = "application_id"
)

// ContextKeyApplication 인증된 Application 객체 저장용 Context 키
const ContextKeyApplication = "band-order-server/api/auth/AuthenticatedApplication"

// 서버 설정 기본값
const (
	DefaultRequestTimeout    = 60 * time.Second
	DefaultReadTimeout       = 15 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultWriteTimeout      = 65 * time.Second
	DefaultIdleTimeout       = 120 * time.Second

	// DefaultShutdownTimeout Graceful Shutdown 시 최대 대기 시간
	DefaultShutdownTimeout = 5 * time.Second

	DefaultRateLimitPerSecond = 20
	DefaultRateLimitBurst     = 40

	DefaultMaxBodySize = "2M"
)

// 헬스체크 상태 값
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"

	DependencyNotificationService = "notification_service"
	DependencyIngestionRunner     = "ingestion_runner"
)

// 클라이언트에게 반환되는 표준 에러 메시지입니다.
const (
	ErrMsgBadRequest      = "잘못된 요청입니다."
	ErrMsgNotFound        = "페이지를 찾을 수 없습니다."
	ErrMsgInternalServer  = "내부 서버 오류가 발생했습니다."
	ErrMsgTooManyRequests = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."
)

// SensitiveQueryParams 로그에 남길 때 값을 가려야 하는 쿼리 파라미터 목록
var SensitiveQueryParams = []string{
	QueryParamAppKey,
	"api_key",
	"access_token",
	"password",
	"token",
	"secret",
}
