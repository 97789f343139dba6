package auth

import (
	"github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/darkkaiser/band-order-server/internal/service/api/constants"
	"github.com/darkkaiser/band-order-server/internal/service/api/model/domain"
	"github.com/labstack/echo/v4"
)

// ErrApplicationMissingInContext 인증 미들웨어를 거치지 않은 요청입니다.
var ErrApplicationMissingInContext = errors.New(errors.Internal, "Context에 인증된 애플리케이션 정보가 없습니다")

// SetApplication 인증된 애플리케이션 정보를 Context에 저장합니다.
func SetApplication(c echo.Context, app *domain.Application) {
	c.Set(constants.ContextKeyApplication, app)
}

// GetApplication Context에서 애플리케이션 정보를 조회합니다.
func GetApplication(c echo.Context) (*domain.Application, error) {
	app, ok := c.Get(constants.ContextKeyApplication).(*domain.Application)
	if !ok || app == nil {
		return nil, ErrApplicationMissingInContext
	}
	return app, nil
}
