package api

import (
	"net/http"
	"time"

	"github.com/darkkaiser/band-order-server/internal/service/api/constants"
	"github.com/darkkaiser/band-order-server/internal/service/api/httputil"
	appmiddleware "github.com/darkkaiser/band-order-server/internal/service/api/middleware"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// hstsMaxAge Strict-Transport-Security max-age (1년)
const hstsMaxAge = 365 * 24 * 60 * 60

// HTTPServerConfig HTTP 서버 생성 설정
type HTTPServerConfig struct {
	Debug bool

	// EnableHSTS TLS 서버일 때만 켭니다.
	EnableHSTS bool

	AllowOrigins []string

	// 0이면 constants 패키지의 기본값을 사용합니다.
	RequestTimeout     time.Duration
	RateLimitPerSecond int
	RateLimitBurst     int
}

func (c HTTPServerConfig) withDefaults() HTTPServerConfig {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = constants.DefaultRequestTimeout
	}
	if c.RateLimitPerSecond <= 0 {
		c.RateLimitPerSecond = constants.DefaultRateLimitPerSecond
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = constants.DefaultRateLimitBurst
	}
	return c
}

// NewHTTPServer 수집 API 공통 미들웨어를 등록한 Echo 인스턴스를 만듭니다.
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	cfg = cfg.withDefaults()

	e := echo.New()
	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true
	e.Logger = appmiddleware.Logger{Logger: applog.StandardLogger()}
	e.HTTPErrorHandler = httputil.ErrorHandler

	e.Server.ReadTimeout = constants.DefaultReadTimeout
	e.Server.ReadHeaderTimeout = constants.DefaultReadHeaderTimeout
	e.Server.WriteTimeout = constants.DefaultWriteTimeout
	e.Server.IdleTimeout = constants.DefaultIdleTimeout

	e.Use(middlewareChain(cfg)...)

	return e
}

// middlewareChain 바깥쪽부터 순서대로 적용됩니다.
// 패닉 복구가 가장 먼저 오고, 요청 ID는 로깅보다 앞서 발급되어야 합니다.
func middlewareChain(cfg HTTPServerConfig) []echo.MiddlewareFunc {
	secure := middleware.DefaultSecureConfig
	if cfg.EnableHSTS {
		secure.HSTSMaxAge = hstsMaxAge
	}

	return []echo.MiddlewareFunc{
		appmiddleware.PanicRecovery(),
		middleware.RequestID(),
		hideServerHeader,
		appmiddleware.HTTPLogger(),
		appmiddleware.RateLimiting(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		middleware.BodyLimit(constants.DefaultMaxBodySize),
		middleware.TimeoutWithConfig(middleware.TimeoutConfig{Timeout: cfg.RequestTimeout}),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{echo.HeaderContentType, constants.HeaderXAppKey, constants.HeaderXApplicationID},
		}),
		middleware.SecureWithConfig(secure),
	}
}

func hideServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "")
		return next(c)
	}
}
