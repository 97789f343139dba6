package band

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/darkkaiser/band-order-server/internal/fetcher"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

const (
	resultCodeOK           = 1
	resultCodeQuotaLimited = 1001
	resultCodeAuthFailed   = 2300
)

var (
	// ErrMissingAccessToken 자격 증명에 access_token이 비어 있을 때 반환됩니다.
	ErrMissingAccessToken = apperrors.New(apperrors.InvalidToken, "Band API access token이 없습니다. 설정을 확인해주세요")
)

// newErrResultCode result_code가 1이 아닌 응답을 에러로 변환합니다.
//
// 2300은 토큰이나 밴드 권한 문제로, 1001은 호출 할당량 초과로 분류되어 다음 키로 전환됩니다.
func newErrResultCode(endpoint string, code int64, message string) error {
	if message == "" {
		message = "Unknown error"
	}

	switch code {
	case resultCodeAuthFailed:
		return apperrors.New(apperrors.InvalidToken, fmt.Sprintf("Band API 인증 오류: %s (코드: %d, endpoint: %s)", message, code, endpoint))
	case resultCodeQuotaLimited:
		return apperrors.New(apperrors.QuotaExceeded, fmt.Sprintf("Band API logical error: %d - %s (endpoint: %s)", code, message, endpoint))
	}
	return apperrors.New(apperrors.ExecutionFailed, fmt.Sprintf("Band API logical error: %d - %s (endpoint: %s)", code, message, endpoint))
}

func newErrMalformedResponse(endpoint string, err error) error {
	message := fmt.Sprintf("Band API 응답 형식이 올바르지 않습니다 (endpoint: %s)", endpoint)
	if err == nil {
		return apperrors.New(apperrors.ParsingFailed, message)
	}
	return apperrors.Wrap(err, apperrors.ParsingFailed, message)
}

// translateError 전송 계층 에러를 키 전환 판단이 가능한 에러로 바꿉니다.
//
// 전송 계층 에러 메시지에는 access_token 쿼리가 들어간 URL이 포함되므로, 상태 코드 에러는
// URL 없이 새로 만들고 그 외 에러는 NetworkError로 감쌉니다.
func translateError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var statusErr *fetcher.HTTPStatusError
	if errors.As(err, &statusErr) {
		message := fmt.Sprintf("Band API error: %d %s - %s", statusErr.StatusCode, http.StatusText(statusErr.StatusCode), strings.TrimSpace(statusErr.BodySnippet))

		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return apperrors.New(apperrors.QuotaExceeded, message)
		case statusErr.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(statusErr.BodySnippet), "limit"):
			return apperrors.New(apperrors.QuotaExceeded, message)
		case statusErr.StatusCode == http.StatusUnauthorized:
			return apperrors.New(apperrors.InvalidToken, message)
		}
		return apperrors.New(apperrors.ExecutionFailed, message)
	}

	if apperrors.Is(err, apperrors.ParsingFailed) {
		return err
	}
	return apperrors.Wrap(err, apperrors.NetworkError, "Band API 호출 실패")
}
