// Package domain API 인증에 사용하는 도메인 모델을 정의합니다.
package domain

// Application 수집 API 호출이 허용된 클라이언트 애플리케이션
type Application struct {
	ID          string
	Title       string
	Description string
	AppKey      string
}
