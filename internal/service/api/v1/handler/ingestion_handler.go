package handler

import (
	"github.com/darkkaiser/band-order-server/internal/ingestion"
	"github.com/darkkaiser/band-order-server/internal/pkg/validator"
	"github.com/darkkaiser/band-order-server/internal/service/api/auth"
	"github.com/darkkaiser/band-order-server/internal/service/api/httputil"
	"github.com/darkkaiser/band-order-server/internal/service/api/v1/model/request"
	"github.com/darkkaiser/band-order-server/internal/service/api/v1/model/response"
	"github.com/darkkaiser/band-order-server/internal/service/contract"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/labstack/echo/v4"
)

// RunIngestionHandler godoc
// @Summary 주문 수집 실행
// @Description 테넌트 하나의 밴드 게시물과 댓글을 수집하여 주문을 갱신합니다.
// @Description 작업은 백그라운드에서 실행되며, 결과 요약은 테넌트에 설정된 알림 채널로 전송됩니다.
// @Description
// @Description ## 옵션
// @Description - limit: 가져올 최대 게시물 수 (0이면 기본값)
// @Description - use_ai: AI 댓글 분석 사용 여부
// @Description - force: 이미 처리된 게시물도 다시 처리
// @Description - post_keys: 지정한 게시물만 처리
// @Description
// @Description ## 사용 예시
// @Description ```bash
// @Description curl -X POST "http://localhost:2443/api/v1/ingestions" \
// @Description   -H "Content-Type: application/json" \
// @Description   -H "X-App-Key: your-app-key" \
// @Description   -H "X-Application-Id: admin-console" \
// @Description   -d '{"tenant_id":"store-01","options":{"limit":50,"use_ai":true}}'
// @Description ```
// @Tags Ingestion
// @Accept json
// @Produce json
// @Param X-App-Key header string false "Application Key (인증용, 권장)"
// @Param X-Application-Id header string false "Application ID"
// @Param request body request.IngestionRequest true "수집 실행 요청"
// @Success 202 {object} response.IngestionAcceptedResponse "접수됨"
// @Failure 400 {object} response.ErrorResponse "잘못된 요청 (테넌트 ID 누락, 알 수 없는 옵션 등)"
// @Failure 401 {object} response.ErrorResponse "인증 실패"
// @Failure 404 {object} response.ErrorResponse "등록되지 않은 테넌트"
// @Failure 409 {object} response.ErrorResponse "같은 테넌트의 수집이 이미 실행 중"
// @Failure 503 {object} response.ErrorResponse "서비스 중지 중"
// @Security ApiKeyAuth
// @Router /api/v1/ingestions [post]
func (h *Handler) RunIngestionHandler(c echo.Context) error {
	req := new(request.IngestionRequest)
	if err := c.Bind(req); err != nil {
		return httputil.NewBadRequestError("잘못된 요청 형식입니다")
	}

	if err := validator.Struct(req); err != nil {
		return httputil.NewBadRequestError(validator.FormatValidationError(err))
	}

	opts, err := ingestion.DecodeOptions(req.Options)
	if err != nil {
		return httputil.FromAppError(err)
	}

	app, err := auth.GetApplication(c)
	if err != nil {
		return httputil.FromAppError(err)
	}

	fields := applog.Fields{
		"application_id": app.ID,
		"tenant_id":      req.TenantID,
		"limit":          opts.Limit,
		"use_ai":         opts.UseAI,
		"force":          opts.Force,
		"post_keys":      len(opts.PostKeys),
	}

	if err := h.runner.Submit(contract.RunRequest{
		TenantID:      req.TenantID,
		Options:       opts,
		RunBy:         contract.RunByAPI,
		ApplicationID: app.ID,
	}); err != nil {
		h.log(c).WithFields(fields).WithError(err).Warn("주문 수집 요청 거절")
		return httputil.FromAppError(err)
	}

	h.log(c).WithFields(fields).Info("주문 수집 요청 접수")

	return httputil.Accepted(c, response.IngestionAcceptedResponse{
		ResultCode: 0,
		TenantID:   req.TenantID,
		Message:    "수집 작업이 접수되었습니다. 결과는 알림으로 전달됩니다.",
	})
}
