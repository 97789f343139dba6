// Package store 게시물, 상품, 주문, 고객 레코드와 API 키 상태, 감사 로그를 저장하는 저장소 계약을 정의합니다.
//
// 구현체는 memory(기본값, 테스트용)와 postgres 두 가지입니다.
// 모든 upsert는 멱등이어야 하며, 같은 id로 두 번 호출해도 행이 중복되지 않아야 합니다.
package store

import (
	"context"
	"time"

	"github.com/darkkaiser/band-order-server/internal/model"
)

// PostState 게시물의 처리 완료 표시입니다. 댓글 수가 바뀌지 않은 게시물은 다음 실행에서 건너뜁니다.
type PostState struct {
	TenantID     string    `json:"user_id"`
	PostKey      string    `json:"post_key"`
	CommentCount int       `json:"comment_count"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// OrderFilter FindOrders 조회 조건. 빈 필드는 조건에서 제외됩니다.
type OrderFilter struct {
	TenantID       string
	PostKey        string
	CustomerUserNo string
	Status         model.OrderStatus

	// OrderedUntil 이 시각 이전(같은 시각 포함)에 접수된 주문만 조회합니다.
	OrderedUntil *time.Time
}

// Match 주문이 조회 조건을 만족하는지 확인합니다.
func (f OrderFilter) Match(o model.Order) bool {
	if f.TenantID != "" && o.TenantID != f.TenantID {
		return false
	}
	if f.PostKey != "" && o.PostKey != f.PostKey {
		return false
	}
	if f.CustomerUserNo != "" && o.CustomerUserNo != f.CustomerUserNo {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.OrderedUntil != nil && o.OrderedAt.After(*f.OrderedUntil) {
		return false
	}
	return true
}

// CancellationLog 취소 댓글로 주문 상태를 바꾼 감사 기록
type CancellationLog struct {
	TenantID     string    `json:"user_id"`
	PostKey      string    `json:"post_key"`
	CommentKey   string    `json:"comment_key"`
	AuthorUserNo string    `json:"author_user_no"`
	AuthorName   string    `json:"author_name"`
	Content      string    `json:"comment_content"`
	OrderIDs     []string  `json:"order_ids"`
	CanceledAt   time.Time `json:"canceled_at"`
}

// Credential 밴드 Open API 접근 자격 증명
type Credential struct {
	AccessToken string `json:"access_token"`
	BandKey     string `json:"band_key"`
}

// CredentialSet 테넌트의 기본 키와 백업 키 목록, 마지막으로 성공한 키의 인덱스 (0 = 기본 키)
type CredentialSet struct {
	TenantID     string       `json:"user_id"`
	Primary      Credential   `json:"primary"`
	Backups      []Credential `json:"backups"`
	CurrentIndex int          `json:"current_key_index"`
}

// All 기본 키를 0번으로 하는 전체 자격 증명 목록을 반환합니다.
func (s CredentialSet) All() []Credential {
	all := make([]Credential, 0, 1+len(s.Backups))
	all = append(all, s.Primary)
	return append(all, s.Backups...)
}

// UsageLog API 호출 시도 한 건의 기록 (api_usage_logs)
type UsageLog struct {
	TenantID        string    `json:"user_id"`
	SessionID       string    `json:"session_id"`
	KeyIndex        int       `json:"api_key_index"`
	ActionType      string    `json:"action_type"`
	PostsFetched    int       `json:"posts_fetched"`
	CommentsFetched int       `json:"comments_fetched"`
	APICallsMade    int       `json:"api_calls_made"`
	Success         bool      `json:"success"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	ErrorType       string    `json:"error_type,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Session 수집 실행 한 번의 집계 기록 (api_sessions)
type Session struct {
	SessionID            string     `json:"session_id"`
	TenantID             string     `json:"user_id"`
	StartedAt            time.Time  `json:"started_at"`
	EndedAt              *time.Time `json:"ended_at,omitempty"`
	TotalPostsFetched    int        `json:"total_posts_fetched"`
	TotalCommentsFetched int        `json:"total_comments_fetched"`
	TotalAPICalls        int        `json:"total_api_calls"`
	KeysUsed             int        `json:"keys_used"`
	FinalKeyIndex        int        `json:"final_key_index"`
	Success              bool       `json:"success"`
	ErrorSummary         string     `json:"error_summary,omitempty"`
}

// PostStore 게시물과 상품 저장소
type PostStore interface {
	UpsertPost(ctx context.Context, post model.Post) error
	UpsertProducts(ctx context.Context, products []model.Product) error
	ListProducts(ctx context.Context, tenantID, postKey string) ([]model.Product, error)

	// GetPostState 처리 완료 표시를 조회합니다. 표시가 없으면 두 번째 반환값이 false입니다.
	GetPostState(ctx context.Context, tenantID, postKey string) (PostState, bool, error)
	MarkPostProcessed(ctx context.Context, state PostState) error
}

// OrderStore 주문과 고객 저장소
type OrderStore interface {
	// UpsertCustomers 고객을 upsert하고 이번 호출에서 새로 삽입된 customer_id 목록을 반환합니다.
	// 이미 있는 고객은 이름과 연락처를 유지한 채 주문 수와 마지막 주문 시각만 갱신합니다.
	UpsertCustomers(ctx context.Context, customers []model.Customer) (inserted []string, err error)
	DeleteCustomers(ctx context.Context, ids []string) error

	// UpsertOrders 주문을 삽입하고 이번 호출에서 새로 삽입된 order_id 목록을 반환합니다.
	// 이미 있는 order_id는 무시합니다. 에러가 나도 그 전까지 삽입된 id 목록은 반환합니다.
	UpsertOrders(ctx context.Context, orders []model.Order) (inserted []string, err error)
	DeleteOrders(ctx context.Context, ids []string) error
	FindOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, ids []string, status model.OrderStatus, canceledAt *time.Time) error
	AppendCancellationLog(ctx context.Context, entry CancellationLog) error
}

// CredentialStore API 키 목록과 사용 기록 저장소
type CredentialStore interface {
	LoadCredentials(ctx context.Context, tenantID string) (CredentialSet, error)
	SaveCredentialIndex(ctx context.Context, tenantID string, index int) error
	AppendUsageLog(ctx context.Context, entry UsageLog) error
	StartSession(ctx context.Context, session Session) error
	EndSession(ctx context.Context, session Session) error
}

// Store 전체 저장소 계약
type Store interface {
	PostStore
	OrderStore
	CredentialStore

	Close()
}
