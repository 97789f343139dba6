// Package response v1 API의 응답 모델을 정의합니다.
package response

// IngestionAcceptedResponse 수집 실행 요청이 접수되었음을 알리는 응답
type IngestionAcceptedResponse struct {
	// 결과 코드 (0: 접수)
	ResultCode int `json:"result_code" example:"0"`
	// 접수된 테넌트 ID
	TenantID string `json:"tenant_id" example:"store-01"`
	// 결과 메시지
	Message string `json:"message" example:"수집 작업이 접수되었습니다. 결과는 알림으로 전달됩니다."`
}
