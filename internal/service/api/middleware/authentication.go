package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/darkkaiser/band-order-server/internal/service/api/auth"
	"github.com/darkkaiser/band-order-server/internal/service/api/constants"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/labstack/echo/v4"
)

// RequireAuthentication 애플리케이션 인증을 수행하는 미들웨어를 반환합니다.
//
// App Key는 X-App-Key 헤더, app_key 쿼리 파라미터 순으로 찾습니다.
// Application ID는 X-Application-Id 헤더, application_id 쿼리 파라미터, 요청 본문 순으로 찾습니다.
// 인증에 성공하면 Application을 Context에 저장하고 다음 핸들러를 호출합니다.
//
// authenticator가 nil이면 패닉이 발생합니다.
func RequireAuthentication(authenticator *auth.Authenticator) echo.MiddlewareFunc {
	if authenticator == nil {
		panic("Authenticator는 필수입니다")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			appKey := extractAppKey(c)
			if appKey == "" {
				return ErrAppKeyRequired
			}

			applicationID, err := extractApplicationID(c)
			if err != nil {
				return err
			}
			if applicationID == "" {
				return ErrApplicationIDRequired
			}

			app, err := authenticator.Authenticate(applicationID, appKey)
			if err != nil {
				return err
			}

			auth.SetApplication(c, app)

			return next(c)
		}
	}
}

func extractAppKey(c echo.Context) string {
	if appKey := c.Request().Header.Get(constants.HeaderXAppKey); appKey != "" {
		return appKey
	}

	appKey := c.QueryParam(constants.QueryParamAppKey)
	if appKey != "" {
		applog.WithComponentAndFields(constants.ComponentMiddleware, applog.Fields{
			"method":    c.Request().Method,
			"path":      c.Path(),
			"remote_ip": c.RealIP(),
		}).Warn("보안 경고: 쿼리 파라미터로 App Key 전달됨 (헤더 사용 권장)")
	}
	return appKey
}

func extractApplicationID(c echo.Context) (string, error) {
	if id := c.Request().Header.Get(constants.HeaderXApplicationID); id != "" {
		return id, nil
	}
	if id := c.QueryParam(constants.QueryParamApplicationID); id != "" {
		return id, nil
	}

	req := c.Request()
	if req.Body == nil {
		return "", nil
	}

	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return "", ErrBodyTooLarge
		}
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return "", ErrBodyTooLarge
		}
		return "", ErrBodyReadFailed
	}
	_ = req.Body.Close()

	// 다음 핸들러가 다시 바인딩할 수 있도록 본문을 복원한다.
	req.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	if len(bodyBytes) == 0 {
		return "", nil
	}

	var authRequest struct {
		ApplicationID string `json:"application_id"`
	}
	if err := json.Unmarshal(bodyBytes, &authRequest); err != nil {
		return "", ErrInvalidJSON
	}

	return authRequest.ApplicationID, nil
}
