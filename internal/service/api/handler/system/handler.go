// Package system 인증이 필요 없는 시스템 엔드포인트(헬스체크, 버전 정보)를 처리합니다.
package system

import (
	"net/http"
	"time"

	"github.com/darkkaiser/band-order-server/internal/pkg/version"
	"github.com/darkkaiser/band-order-server/internal/service/api/constants"
	"github.com/darkkaiser/band-order-server/internal/service/api/model/system"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/labstack/echo/v4"
)

// HealthChecker 헬스체크 대상 의존성
type HealthChecker interface {
	Health() error
}

// Handler 시스템 엔드포인트 핸들러
type Handler struct {
	dependencies map[string]HealthChecker

	buildInfo version.Info

	serverStartTime time.Time
}

// NewHandler Handler를 생성합니다. dependencies의 키는 헬스체크 응답에 의존성 이름으로 노출됩니다.
func NewHandler(dependencies map[string]HealthChecker, buildInfo version.Info) *Handler {
	return &Handler{
		dependencies: dependencies,

		buildInfo: buildInfo,

		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler godoc
// @Summary 서버 헬스체크
// @Description 서버와 내부 의존성(알림 서비스, 수집 실행 서비스)의 상태를 확인합니다.
// @Description 의존성 중 하나라도 비정상이면 status는 unhealthy입니다.
// @Tags System
// @Produce json
// @Success 200 {object} system.HealthResponse "헬스체크 결과"
// @Router /health [get]
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":  "/health",
		"remote_ip": c.RealIP(),
	}).Debug("헬스체크 요청")

	deps := make(map[string]system.DependencyStatus, len(h.dependencies))
	serverStatus := constants.HealthStatusHealthy

	for name, checker := range h.dependencies {
		if checker == nil {
			deps[name] = system.DependencyStatus{Status: constants.HealthStatusUnhealthy, Message: "초기화되지 않음"}
			serverStatus = constants.HealthStatusUnhealthy
			continue
		}

		if err := checker.Health(); err != nil {
			deps[name] = system.DependencyStatus{Status: constants.HealthStatusUnhealthy, Message: err.Error()}
			serverStatus = constants.HealthStatusUnhealthy
			continue
		}

		deps[name] = system.DependencyStatus{Status: constants.HealthStatusHealthy, Message: "정상 작동 중"}
	}

	return c.JSON(http.StatusOK, system.HealthResponse{
		Status:       serverStatus,
		Uptime:       int64(time.Since(h.serverStartTime).Seconds()),
		Dependencies: deps,
	})
}

// VersionHandler godoc
// @Summary 서버 버전 정보
// @Description 서버의 버전, Git 커밋, 빌드 날짜, 빌드 번호, Go 버전을 반환합니다.
// @Tags System
// @Produce json
// @Success 200 {object} system.VersionResponse "버전 정보"
// @Router /version [get]
func (h *Handler) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, system.VersionResponse{
		Version:     h.buildInfo.Version,
		Commit:      h.buildInfo.Commit,
		BuildDate:   h.buildInfo.BuildDate,
		BuildNumber: h.buildInfo.BuildNumber,
		GoVersion:   h.buildInfo.GoVersion,
	})
}
