package contract

import "context"

// Notification 알림 채널로 보낼 메시지
type Notification struct {
	// NotifierID 비어 있으면 기본 알림 채널로 보냅니다.
	NotifierID string

	TenantID string
	Title    string
	Message  string

	ErrorOccurred bool
}

// NotificationSender 알림 전송 인터페이스
type NotificationSender interface {
	// Notify 알림을 전송 대기열에 넣습니다. 실제 전송은 비동기로 이루어집니다.
	Notify(ctx context.Context, n Notification) error

	// Health 알림 서비스가 동작 중인지 확인합니다.
	Health() error
}
