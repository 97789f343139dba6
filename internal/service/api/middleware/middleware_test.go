package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/darkkaiser/band-order-server/internal/config"
	"github.com/darkkaiser/band-order-server/internal/service/api/auth"
	"github.com/darkkaiser/band-order-server/internal/service/api/httputil"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = httputil.ErrorHandler
	return e
}

func TestRateLimiting_InputValidation(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "[RateLimiting] requestsPerSecond는 양수여야 합니다", func() { RateLimiting(0, 10) })
	assert.PanicsWithValue(t, "[RateLimiting] burst는 양수여야 합니다", func() { RateLimiting(10, 0) })
	assert.NotPanics(t, func() { RateLimiting(10, 20) })
}

func TestRateLimiting_BlocksAfterBurst(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	e.Use(RateLimiting(1, 2))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)

	rec := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get(echo.HeaderRetryAfter))

	// 다른 IP는 별도의 버킷을 사용한다.
	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)
}

func TestClientBuckets_EvictsIdleClients(t *testing.T) {
	t.Parallel()

	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	cb := newClientBuckets(1, 1)
	cb.now = func() time.Time { return clock }

	assert.True(t, cb.allow("10.0.0.1"))
	assert.False(t, cb.allow("10.0.0.1"))

	clock = clock.Add(limiterIdleTTL / 2)
	assert.True(t, cb.allow("10.0.0.2"))
	assert.Equal(t, 2, cb.size())

	// 10.0.0.1은 유휴 시간을 넘겼고 10.0.0.2는 아직 남아 있다.
	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	assert.True(t, cb.allow("10.0.0.3"))
	assert.Equal(t, 2, cb.size())

	// 정리된 IP는 새 버킷으로 다시 시작한다.
	assert.True(t, cb.allow("10.0.0.1"))
}

func TestPanicRecovery(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	e.Use(PanicRecovery())
	e.GET("/string", func(c echo.Context) error { panic("boom") })
	e.GET("/error", func(c echo.Context) error { panic(errors.New("boom")) })

	for _, path := range []string{"/string", "/error"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
	}
}

func TestMaskSensitiveQueryParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		uri      string
		contains string
		absent   string
	}{
		{"마스킹 대상 없음", "/api/v1/ingestions?tenant=1", "tenant=1", ""},
		{"app_key 마스킹", "/api/v1/ingestions?app_key=supersecretvalue&id=1", "id=1", "supersecretvalue"},
		{"token 마스킹", "/x?token=abcdefghijkl", "token=", "abcdefghijkl"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := maskSensitiveQueryParams(tt.uri)
			assert.Contains(t, got, tt.contains)
			if tt.absent != "" {
				assert.NotContains(t, got, tt.absent)
			}
		})
	}
}

func TestHTTPLogger_PassesErrorsToHandler(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	e.Use(HTTPLogger())
	e.GET("/", func(c echo.Context) error { return httputil.NewConflictError("이미 실행 중") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?app_key=secret", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "이미 실행 중")
}

func TestRequireAuthentication(t *testing.T) {
	t.Parallel()

	authenticator := auth.NewAuthenticator([]config.ApplicationConfig{
		{ID: "admin", Title: "관리 도구", AppKey: "secret-key"},
	})

	newServer := func() *echo.Echo {
		e := newTestEcho()
		e.POST("/", func(c echo.Context) error {
			app, err := auth.GetApplication(c)
			if err != nil {
				return err
			}
			body, _ := io.ReadAll(c.Request().Body)
			return c.String(http.StatusOK, app.ID+"|"+string(body))
		}, RequireAuthentication(authenticator))
		return e
	}

	tests := []struct {
		name     string
		target   string
		headers  map[string]string
		body     string
		wantCode int
		wantBody string
	}{
		{
			name:     "헤더 인증",
			target:   "/",
			headers:  map[string]string{"X-App-Key": "secret-key", "X-Application-Id": "admin"},
			wantCode: http.StatusOK,
			wantBody: "admin|",
		},
		{
			name:     "쿼리 파라미터 인증",
			target:   "/?app_key=secret-key&application_id=admin",
			wantCode: http.StatusOK,
			wantBody: "admin|",
		},
		{
			name:     "본문의 application_id 사용 후 본문 복원",
			target:   "/",
			headers:  map[string]string{"X-App-Key": "secret-key"},
			body:     `{"application_id":"admin","tenant_id":"t1"}`,
			wantCode: http.StatusOK,
			wantBody: `admin|{"application_id":"admin","tenant_id":"t1"}`,
		},
		{
			name:     "App Key 누락",
			target:   "/",
			headers:  map[string]string{"X-Application-Id": "admin"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "Application ID 누락",
			target:   "/",
			headers:  map[string]string{"X-App-Key": "secret-key"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "잘못된 JSON 본문",
			target:   "/",
			headers:  map[string]string{"X-App-Key": "secret-key"},
			body:     `{invalid`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "잘못된 App Key",
			target:   "/",
			headers:  map[string]string{"X-App-Key": "nope", "X-Application-Id": "admin"},
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			newServer().ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}

	t.Run("nil Authenticator", func(t *testing.T) {
		t.Parallel()
		assert.PanicsWithValue(t, "Authenticator는 필수입니다", func() { RequireAuthentication(nil) })
	})
}

func TestLogger_LevelMapping(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := Logger{Logger: logrus.New()}
	l.SetOutput(&buf)

	l.SetLevel(log.WARN)
	assert.Equal(t, log.WARN, l.Level())
	assert.Equal(t, applog.WarnLevel, l.Logger.Level)

	l.SetLevel(log.DEBUG)
	assert.Equal(t, log.DEBUG, l.Level())

	l.Logger.SetLevel(applog.PanicLevel)
	assert.Equal(t, log.OFF, l.Level())

	l.Logger.SetLevel(applog.InfoLevel)
	l.Infoj(log.JSON{"tenant_id": "t1"})
	assert.Contains(t, buf.String(), "tenant_id=t1")
	assert.Same(t, &buf, l.Output())
}
