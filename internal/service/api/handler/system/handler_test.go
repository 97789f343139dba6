package system

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darkkaiser/band-order-server/internal/pkg/version"
	"github.com/darkkaiser/band-order-server/internal/service/api/constants"
	"github.com/darkkaiser/band-order-server/internal/service/api/model/system"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthFunc func() error

func (f healthFunc) Health() error { return f() }

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		deps       map[string]HealthChecker
		wantStatus string
	}{
		{
			name:       "모든 의존성 정상",
			deps:       map[string]HealthChecker{constants.DependencyNotificationService: healthFunc(func() error { return nil })},
			wantStatus: constants.HealthStatusHealthy,
		},
		{
			name: "의존성 하나가 비정상",
			deps: map[string]HealthChecker{
				constants.DependencyNotificationService: healthFunc(func() error { return nil }),
				constants.DependencyIngestionRunner:     healthFunc(func() error { return errors.New("중지됨") }),
			},
			wantStatus: constants.HealthStatusUnhealthy,
		},
		{
			name:       "초기화되지 않은 의존성",
			deps:       map[string]HealthChecker{constants.DependencyIngestionRunner: nil},
			wantStatus: constants.HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHandler(tt.deps, version.Info{})
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

			require.NoError(t, h.HealthCheckHandler(c))
			require.Equal(t, http.StatusOK, rec.Code)

			var resp system.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Len(t, resp.Dependencies, len(tt.deps))
		})
	}
}

func TestVersionHandler(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, version.Info{Version: "v1.0.0", Commit: "abc1234", BuildNumber: "7", GoVersion: "go1.24.0"})
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/version", nil), rec)

	require.NoError(t, h.VersionHandler(c))

	var resp system.VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.Equal(t, "abc1234", resp.Commit)
	assert.Equal(t, "7", resp.BuildNumber)
	assert.Equal(t, "go1.24.0", resp.GoVersion)
}
