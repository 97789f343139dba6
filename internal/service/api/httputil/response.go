// Package httputil API 핸들러와 미들웨어가 공통으로 사용하는 HTTP 응답 헬퍼를 제공합니다.
package httputil

import (
	"net/http"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/darkkaiser/band-order-server/internal/service/api/model/response"
	"github.com/labstack/echo/v4"
)

func newHTTPError(code int, message string) error {
	return echo.NewHTTPError(code, response.ErrorResponse{
		ResultCode: code,
		Message:    message,
	})
}

// NewBadRequestError 400 Bad Request 에러를 생성합니다
func NewBadRequestError(message string) error {
	return newHTTPError(http.StatusBadRequest, message)
}

// NewUnauthorizedError 401 Unauthorized 에러를 생성합니다
func NewUnauthorizedError(message string) error {
	return newHTTPError(http.StatusUnauthorized, message)
}

// NewNotFoundError 404 Not Found 에러를 생성합니다
func NewNotFoundError(message string) error {
	return newHTTPError(http.StatusNotFound, message)
}

// NewConflictError 409 Conflict 에러를 생성합니다
func NewConflictError(message string) error {
	return newHTTPError(http.StatusConflict, message)
}

// NewTooManyRequestsError 429 Too Many Requests 에러를 생성합니다
func NewTooManyRequestsError(message string) error {
	return newHTTPError(http.StatusTooManyRequests, message)
}

// NewInternalServerError 500 Internal Server Error 에러를 생성합니다
func NewInternalServerError(message string) error {
	return newHTTPError(http.StatusInternalServerError, message)
}

// NewServiceUnavailableError 503 Service Unavailable 에러를 생성합니다
func NewServiceUnavailableError(message string) error {
	return newHTTPError(http.StatusServiceUnavailable, message)
}

// FromAppError 애플리케이션 에러를 에러 타입에 맞는 HTTP 에러로 변환합니다.
func FromAppError(err error) error {
	if err == nil {
		return nil
	}

	message := err.Error()
	switch {
	case apperrors.Is(err, apperrors.InvalidInput):
		return NewBadRequestError(message)
	case apperrors.Is(err, apperrors.Unauthorized):
		return NewUnauthorizedError(message)
	case apperrors.Is(err, apperrors.NotFound):
		return NewNotFoundError(message)
	case apperrors.Is(err, apperrors.Conflict):
		return NewConflictError(message)
	case apperrors.Is(err, apperrors.Unavailable):
		return NewServiceUnavailableError(message)
	default:
		return NewInternalServerError(message)
	}
}

// Accepted 비동기로 처리될 요청을 받았음을 202 Accepted로 응답합니다.
func Accepted(c echo.Context, body any) error {
	return c.JSON(http.StatusAccepted, body)
}

// Success 표준 성공 응답(200 OK)을 JSON 형식으로 반환합니다.
func Success(c echo.Context) error {
	return c.JSON(http.StatusOK, response.SuccessResponse{
		ResultCode: 0,
		Message:    "성공",
	})
}
