package fetcher

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
)

const redacted = "xxxxx"

var (
	// sensitiveExactKeys 대소문자 구분 없이 전체가 일치할 때만 마스킹하는 쿼리 파라미터 키
	sensitiveExactKeys = []string{
		"token", "auth", "key", "secret", "password",
		"access_token", "api_key", "client_secret", "refresh_token", "band_key",
	}

	// sensitiveSuffixes 이 접미사로 끝나는 쿼리 파라미터 키는 마스킹합니다.
	sensitiveSuffixes = []string{"_token", "_secret", "_password"}

	sensitiveHeaders = []string{"Authorization", "Proxy-Authorization", "Cookie", "Set-Cookie", "X-Api-Key"}
)

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if slices.Contains(sensitiveExactKeys, lower) {
		return true
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// redactHeaders 인증 관련 헤더 값을 가린 복사본을 반환합니다.
func redactHeaders(h http.Header) http.Header {
	if h == nil {
		return nil
	}

	masked := h.Clone()
	for _, key := range sensitiveHeaders {
		if masked.Get(key) != "" {
			masked.Set(key, "***")
		}
	}
	return masked
}

// redactURL 사용자 정보와 민감한 쿼리 파라미터 값을 가린 URL 문자열을 반환합니다.
//
//	https://openapi.band.us/v2/band/posts?access_token=abc&band_key=k
//	-> https://openapi.band.us/v2/band/posts?access_token=xxxxx&band_key=xxxxx
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	ru := *u
	if u.User != nil {
		if _, has := u.User.Password(); has {
			ru.User = url.UserPassword(u.User.Username(), redacted)
		} else if u.User.Username() != "" {
			ru.User = url.User(redacted)
		}
	}

	if u.RawQuery != "" {
		query := ru.Query()
		for key := range query {
			if isSensitiveKey(key) {
				query.Set(key, redacted)
			}
		}
		ru.RawQuery = query.Encode()
	}

	return ru.String()
}

// RedactRawURL URL 문자열의 민감한 값을 가립니다. 파싱할 수 없는 문자열은 통째로 가립니다.
func RedactRawURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return redacted
	}
	return redactURL(u)
}
