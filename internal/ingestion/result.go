package ingestion

import (
	"time"
)

// Stage 에러가 발생한 처리 단계
type Stage string

const (
	StageFetchPosts    Stage = "fetch_posts"
	StageFetchComments Stage = "fetch_comments"
	StageNormalize     Stage = "normalize_comment"
	StageSavePost      Stage = "save_post"
	StageCancellation  Stage = "cancellation"
	StageExtractOrders Stage = "extract_orders"
	StagePersistOrders Stage = "persist_orders"
	StageMarkProcessed Stage = "mark_processed"
	StageProcessPost   Stage = "process_post"
)

// RunError 게시물이나 댓글 단위의 실패 기록. 나중에 다시 처리할 수 있을 만큼의 문맥을 담습니다.
type RunError struct {
	PostKey    string `json:"post_key,omitempty"`
	CommentKey string `json:"comment_key,omitempty"`
	Stage      Stage  `json:"stage"`
	Message    string `json:"message"`
}

// Stats 실행 집계
type Stats struct {
	TotalPosts     int `json:"total_posts"`
	ProcessedPosts int `json:"processed_posts"`
	SkippedPosts   int `json:"skipped_posts"`
	FailedPosts    int `json:"failed_posts"`
	TotalOrders    int `json:"total_orders"`
	NewOrders      int `json:"new_orders"`
	CanceledOrders int `json:"canceled_orders"`
	TotalCustomers int `json:"total_customers"`
	AIOrders       int `json:"ai_orders"`
}

// RunResult 수집 실행 결과
type RunResult struct {
	TenantID  string     `json:"tenant_id"`
	SessionID string     `json:"session_id"`
	Success   bool       `json:"success"`
	Canceled  bool       `json:"canceled"`
	Stats     Stats      `json:"stats"`
	Errors    []RunError `json:"errors"`
	StartedAt time.Time  `json:"started_at"`
	Duration  string     `json:"duration"`
}

// postResult 게시물 하나의 처리 결과
type postResult struct {
	processed bool
	failed    bool

	orders    int
	newOrders int
	aiOrders  int
	canceled  int
	customers int
	errors    []RunError
}

func (r *postResult) addError(postKey, commentKey string, stage Stage, err error) {
	r.errors = append(r.errors, RunError{
		PostKey:    postKey,
		CommentKey: commentKey,
		Stage:      stage,
		Message:    err.Error(),
	})
}

func (r *RunResult) merge(p postResult) {
	switch {
	case p.processed:
		r.Stats.ProcessedPosts++
	case p.failed:
		r.Stats.FailedPosts++
	}
	r.Stats.TotalOrders += p.orders
	r.Stats.NewOrders += p.newOrders
	r.Stats.AIOrders += p.aiOrders
	r.Stats.CanceledOrders += p.canceled
	r.Stats.TotalCustomers += p.customers
	r.Errors = append(r.Errors, p.errors...)
}
