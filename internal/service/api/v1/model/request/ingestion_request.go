// Package request v1 API의 요청 모델을 정의합니다.
package request

// IngestionRequest 주문 수집 실행 요청
type IngestionRequest struct {
	// 인증에 사용할 애플리케이션 식별자 (X-Application-Id 헤더로 대신 전달 가능)
	ApplicationID string `json:"application_id,omitempty" example:"admin-console"`
	// 수집할 테넌트 ID (설정 파일의 tenants[].id)
	TenantID string `json:"tenant_id" validate:"required,max=64" korean:"테넌트 ID" example:"store-01"`
	// 실행 옵션 (limit, use_ai, force, post_keys)
	Options map[string]any `json:"options,omitempty" swaggertype:"object"`
}
