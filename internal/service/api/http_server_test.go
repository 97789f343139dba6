package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/darkkaiser/band-order-server/internal/service/api/constants"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestHTTPServerConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	t.Run("빈 설정은 기본값으로 채운다", func(t *testing.T) {
		t.Parallel()

		cfg := HTTPServerConfig{}.withDefaults()
		assert.Equal(t, constants.DefaultRequestTimeout, cfg.RequestTimeout)
		assert.Equal(t, constants.DefaultRateLimitPerSecond, cfg.RateLimitPerSecond)
		assert.Equal(t, constants.DefaultRateLimitBurst, cfg.RateLimitBurst)
	})

	t.Run("지정한 값은 유지한다", func(t *testing.T) {
		t.Parallel()

		cfg := HTTPServerConfig{RequestTimeout: time.Second, RateLimitPerSecond: 3, RateLimitBurst: 5}.withDefaults()
		assert.Equal(t, time.Second, cfg.RequestTimeout)
		assert.Equal(t, 3, cfg.RateLimitPerSecond)
		assert.Equal(t, 5, cfg.RateLimitBurst)
	})
}

func TestNewHTTPServer_Headers(t *testing.T) {
	t.Parallel()

	serve := func(cfg HTTPServerConfig) *httptest.ResponseRecorder {
		e := NewHTTPServer(cfg)
		e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return rec
	}

	t.Run("공통 헤더", func(t *testing.T) {
		t.Parallel()

		rec := serve(HTTPServerConfig{})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get(echo.HeaderServer))
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
		assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	})

	t.Run("TLS가 아니면 HSTS 헤더를 보내지 않는다", func(t *testing.T) {
		t.Parallel()

		rec := serve(HTTPServerConfig{EnableHSTS: true})
		assert.Empty(t, rec.Header().Get(echo.HeaderStrictTransportSecurity))
	})
}
