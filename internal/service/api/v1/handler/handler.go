// Package handler v1 API의 요청 핸들러를 제공합니다.
package handler

import (
	"github.com/darkkaiser/band-order-server/internal/service/api/constants"
	"github.com/darkkaiser/band-order-server/internal/service/contract"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/labstack/echo/v4"
)

// Handler v1 API 핸들러
type Handler struct {
	runner contract.IngestionRunner
}

// NewHandler Handler를 생성합니다. runner가 nil이면 패닉이 발생합니다.
func NewHandler(runner contract.IngestionRunner) *Handler {
	if runner == nil {
		panic("IngestionRunner는 필수입니다")
	}

	return &Handler{
		runner: runner,
	}
}

func (h *Handler) log(c echo.Context) *applog.Entry {
	return applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":  c.Path(),
		"remote_ip": c.RealIP(),
	})
}
