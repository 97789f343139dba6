package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/darkkaiser/band-order-server/internal/ingestion"
	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/darkkaiser/band-order-server/internal/service/api/auth"
	"github.com/darkkaiser/band-order-server/internal/service/api/httputil"
	"github.com/darkkaiser/band-order-server/internal/service/api/model/domain"
	"github.com/darkkaiser/band-order-server/internal/service/api/v1/model/response"
	"github.com/darkkaiser/band-order-server/internal/service/contract"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu        sync.Mutex
	err       error
	submitted []contract.RunRequest
}

func (f *fakeRunner) Submit(req contract.RunRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, req)
	return nil
}

func (f *fakeRunner) Run(context.Context, contract.RunRequest) (*ingestion.RunResult, error) {
	return nil, nil
}

func (f *fakeRunner) Health() error { return nil }

func (f *fakeRunner) Submitted() []contract.RunRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contract.RunRequest(nil), f.submitted...)
}

func serve(t *testing.T, h *Handler, body string, withApp bool) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.HTTPErrorHandler = httputil.ErrorHandler
	e.POST("/api/v1/ingestions", h.RunIngestionHandler, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if withApp {
				auth.SetApplication(c, &domain.Application{ID: "admin"})
			}
			return next(c)
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingestions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestNewHandler_NilRunner(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "IngestionRunner는 필수입니다", func() { NewHandler(nil) })
}

func TestRunIngestionHandler(t *testing.T) {
	t.Parallel()

	t.Run("접수 성공", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		rec := serve(t, NewHandler(runner), `{"tenant_id":"store-01","options":{"limit":30,"use_ai":true,"post_keys":["p1"]}}`, true)

		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		var resp response.IngestionAcceptedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.ResultCode)
		assert.Equal(t, "store-01", resp.TenantID)

		submitted := runner.Submitted()
		require.Len(t, submitted, 1)
		assert.Equal(t, contract.RunByAPI, submitted[0].RunBy)
		assert.Equal(t, "admin", submitted[0].ApplicationID)
		assert.Equal(t, 30, submitted[0].Options.Limit)
		assert.True(t, submitted[0].Options.UseAI)
		assert.Equal(t, []string{"p1"}, submitted[0].Options.PostKeys)
	})

	tests := []struct {
		name     string
		body     string
		runErr   error
		withApp  bool
		wantCode int
	}{
		{"잘못된 JSON", `{invalid`, nil, true, http.StatusBadRequest},
		{"테넌트 ID 누락", `{"options":{}}`, nil, true, http.StatusBadRequest},
		{"알 수 없는 옵션", `{"tenant_id":"store-01","options":{"unknown":1}}`, nil, true, http.StatusBadRequest},
		{"등록되지 않은 테넌트", `{"tenant_id":"ghost"}`, apperrors.New(apperrors.NotFound, "없음"), true, http.StatusNotFound},
		{"이미 실행 중", `{"tenant_id":"store-01"}`, ingestion.ErrRunInProgress, true, http.StatusConflict},
		{"서비스 중지 중", `{"tenant_id":"store-01"}`, apperrors.New(apperrors.Unavailable, "중지"), true, http.StatusServiceUnavailable},
		{"인증 정보 없음", `{"tenant_id":"store-01"}`, nil, false, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{err: tt.runErr}
			rec := serve(t, NewHandler(runner), tt.body, tt.withApp)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Empty(t, runner.Submitted())
		})
	}
}
