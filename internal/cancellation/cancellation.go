// Package cancellation 주문 취소 댓글을 찾아 해당 작성자의 기존 주문을 취소 상태로 바꿉니다.
package cancellation

import (
	"context"
	"regexp"
	"strings"

	"github.com/darkkaiser/band-order-server/internal/comment"
	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/internal/store"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "cancellation"

var cancellationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`취소`),
	regexp.MustCompile(`주문\s*취소`),
	regexp.MustCompile(`취소\s*해\s*주세요`),
	regexp.MustCompile(`취소\s*요청`),
	regexp.MustCompile(`취소할게요`),
	regexp.MustCompile(`(?i)cancel`),
}

// cancelableStatuses 취소 댓글로 취소할 수 있는 주문 상태
var cancelableStatuses = []model.OrderStatus{model.OrderStatusPlaced, model.OrderStatusNeedsReview}

// IsCancellation 댓글이 주문 취소 요청인지 확인합니다.
func IsCancellation(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}
	for _, p := range cancellationPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// Result 취소 처리 결과
type Result struct {
	// Remaining 주문 추출로 넘길 댓글. 시간순으로 정렬되어 있습니다.
	Remaining []model.Comment

	// Cancellations 발견된 취소 댓글 수
	Cancellations int

	// CanceledOrderIDs 이번 처리로 주문취소 상태가 된 주문
	CanceledOrderIDs []string

	// Superseded 같은 작성자의 뒤이은 취소 댓글 때문에 주문 추출에서 제외된 댓글 수
	Superseded int

	// Errors 주문 조회/갱신 실패. 실패해도 취소 댓글은 주문 추출에서 제외됩니다.
	Errors []error
}

// Detector 취소 댓글 처리기
type Detector struct {
	orders store.OrderStore
}

// NewDetector Detector를 생성합니다.
func NewDetector(orders store.OrderStore) *Detector {
	return &Detector{orders: orders}
}

// Process 모든 댓글을 작성 시각 순으로 검사하여 취소 댓글을 처리합니다.
//
// 취소 댓글마다 같은 게시물에 대한 작성자의 진행 중인 주문 중 댓글 작성 시각 이전에 접수된 주문을 찾아 주문취소로 바꾸고,
// canceledAt은 취소 댓글의 작성 시각으로 기록합니다. 진행 중인 주문이 없으면 아무 일도 하지 않습니다.
// 같은 작성자가 취소 댓글보다 먼저 남긴 댓글은 Remaining에서 제외되므로,
// 한 번의 실행 안에서 주문과 그 주문의 취소가 함께 저장되지 않습니다.
func (d *Detector) Process(ctx context.Context, post model.Post, comments []model.Comment) Result {
	sorted := comment.SortByTime(comments)

	// 작성자별 마지막 취소 댓글의 위치
	lastCancel := make(map[string]int)
	for i, c := range sorted {
		if IsCancellation(c.Content) && c.Author.UserNo != "" {
			lastCancel[c.Author.UserNo] = i
		}
	}

	var result Result
	for i, c := range sorted {
		if !IsCancellation(c.Content) {
			if last, ok := lastCancel[c.Author.UserNo]; ok && c.Author.UserNo != "" && i < last {
				result.Superseded++
				continue
			}
			result.Remaining = append(result.Remaining, c)
			continue
		}

		result.Cancellations++
		if c.Author.UserNo == "" {
			applog.WithComponentAndFields(component, applog.Fields{
				"post_key":    post.PostKey,
				"comment_key": c.CommentKey,
			}).Warn("취소 댓글 무시: 작성자 정보 없음")
			continue
		}

		ids, err := d.cancel(ctx, post, c)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.CanceledOrderIDs = append(result.CanceledOrderIDs, ids...)
	}

	return result
}

func (d *Detector) cancel(ctx context.Context, post model.Post, c model.Comment) ([]string, error) {
	fields := applog.Fields{
		"tenant_id":      post.TenantID,
		"post_key":       post.PostKey,
		"comment_key":    c.CommentKey,
		"author_user_no": c.Author.UserNo,
	}

	// 취소 댓글보다 나중에 들어온 재주문은 이 댓글의 대상이 아닙니다.
	until := c.CreatedAt

	var ids []string
	for _, status := range cancelableStatuses {
		orders, err := d.orders.FindOrders(ctx, store.OrderFilter{
			TenantID:       post.TenantID,
			PostKey:        post.PostKey,
			CustomerUserNo: c.Author.UserNo,
			Status:         status,
			OrderedUntil:   &until,
		})
		if err != nil {
			return nil, NewErrLookupFailed(err, post.PostKey, c.Author.UserNo)
		}
		for _, o := range orders {
			ids = append(ids, o.OrderID)
		}
	}

	if len(ids) == 0 {
		applog.WithComponentAndFields(component, fields).Info("취소할 주문 없음: 진행 중인 주문이 없는 작성자의 취소 댓글")
		return nil, nil
	}

	canceledAt := c.CreatedAt
	if err := d.orders.UpdateOrderStatus(ctx, ids, model.OrderStatusCanceled, &canceledAt); err != nil {
		return nil, NewErrUpdateFailed(err, ids)
	}

	if err := d.orders.AppendCancellationLog(ctx, store.CancellationLog{
		TenantID:     post.TenantID,
		PostKey:      post.PostKey,
		CommentKey:   c.CommentKey,
		AuthorUserNo: c.Author.UserNo,
		AuthorName:   c.Author.Name,
		Content:      c.Content,
		OrderIDs:     ids,
		CanceledAt:   canceledAt,
	}); err != nil {
		applog.WithComponentAndFields(component, fields).WithError(err).Warn("취소 기록 저장 실패")
	}

	fields["order_ids"] = ids
	applog.WithComponentAndFields(component, fields).Info("주문 취소 완료")

	return ids, nil
}
