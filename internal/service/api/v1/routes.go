// Package v1 /api/v1 경로의 라우트를 등록합니다.
//
// 모든 엔드포인트는 애플리케이션 인증(App Key)을 요구합니다.
package v1

import (
	"github.com/darkkaiser/band-order-server/internal/service/api/auth"
	"github.com/darkkaiser/band-order-server/internal/service/api/middleware"
	"github.com/darkkaiser/band-order-server/internal/service/api/v1/handler"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes v1 라우트를 등록합니다.
//
//   - POST /api/v1/ingestions: 테넌트 주문 수집 실행
func RegisterRoutes(e *echo.Echo, h *handler.Handler, authenticator *auth.Authenticator) {
	v1Group := e.Group("/api/v1")

	v1Group.POST("/ingestions", h.RunIngestionHandler, middleware.RequireAuthentication(authenticator))
}
