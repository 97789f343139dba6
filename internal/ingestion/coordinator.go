// Package ingestion 테넌트 한 곳의 수집 실행을 조율합니다.
//
// 게시물 목록을 가져온 뒤 게시물마다 댓글 수집, 취소 처리, 주문 조립, 저장을 차례로 수행합니다.
// 게시물은 BatchSize개씩 동시에 처리하며, 배치는 순서대로 실행됩니다.
// 한 게시물의 실패는 RunResult.Errors에 기록될 뿐 같은 배치의 다른 게시물이나 실행 전체를 중단시키지 않습니다.
package ingestion

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/darkkaiser/band-order-server/internal/cancellation"
	"github.com/darkkaiser/band-order-server/internal/comment"
	"github.com/darkkaiser/band-order-server/internal/credential"
	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/internal/order"
	"github.com/darkkaiser/band-order-server/internal/persistence"
	"github.com/darkkaiser/band-order-server/internal/product"
	"github.com/darkkaiser/band-order-server/internal/store"
	"github.com/darkkaiser/band-order-server/pkg/concurrency"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "ingestion.coordinator"

const (
	defaultBatchSize = 5
	defaultLimit     = 20

	// maxErrorSummary 세션 기록에 남길 에러 요약의 최대 개수
	maxErrorSummary = 5
)

// Platform 밴드 API 클라이언트. *band.Client가 구현합니다.
type Platform interface {
	GetPosts(ctx context.Context, r *credential.Rotator, limit int) ([]model.Post, error)
	GetComments(ctx context.Context, r *credential.Rotator, postKey string) ([]model.Comment, []error, error)
}

// Config 수집 실행 설정
type Config struct {
	BatchSize    int
	DefaultLimit int
}

// Coordinator 수집 조율자
type Coordinator struct {
	store     store.Store
	platform  Platform
	detector  *cancellation.Detector
	assembler *order.Assembler
	saver     *persistence.Coordinator

	batchSize    int
	defaultLimit int

	// locks 같은 테넌트의 실행이 겹치지 않게 합니다. 서로 다른 테넌트는 병렬로 실행됩니다.
	locks *concurrency.KeyedMutex

	now func() time.Time
}

// New ai가 nil이면 패턴 매칭만 사용합니다.
func New(st store.Store, platform Platform, ai order.Extractor, cfg Config) *Coordinator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}

	return &Coordinator{
		store:        st,
		platform:     platform,
		detector:     cancellation.NewDetector(st),
		assembler:    order.NewAssembler(ai),
		saver:        persistence.New(st, st),
		batchSize:    cfg.BatchSize,
		defaultLimit: cfg.DefaultLimit,
		locks:        concurrency.NewKeyedMutex(),
		now:          time.Now,
	}
}

// Run 테넌트 한 곳의 수집을 실행합니다.
//
// 게시물 목록을 가져오지 못하는 등 실행 자체가 불가능한 경우에만 에러를 반환합니다.
// ctx가 취소되면 진행 중인 배치는 끝까지 기다리고 이후 배치는 시작하지 않습니다.
func (c *Coordinator) Run(ctx context.Context, tenant Tenant, opts RunOptions) (*RunResult, error) {
	if tenant.ID == "" {
		return nil, ErrInvalidTenant
	}
	if !c.locks.TryLock(tenant.ID) {
		return nil, ErrRunInProgress
	}
	defer c.locks.Unlock(tenant.ID)

	startedAt := c.now()
	result := &RunResult{TenantID: tenant.ID, StartedAt: startedAt}
	defer func() {
		result.Duration = c.now().Sub(startedAt).String()
	}()

	rotator, err := credential.Load(ctx, c.store, tenant.ID)
	if err != nil {
		return result, err
	}
	result.SessionID = rotator.StartSession(ctx)

	limit := opts.Limit
	if limit <= 0 {
		limit = c.defaultLimit
	}

	logger := applog.WithComponentAndFields(component, applog.Fields{
		"tenant_id":  tenant.ID,
		"session_id": result.SessionID,
	})
	logger.WithFields(applog.Fields{
		"limit":  limit,
		"use_ai": opts.UseAI,
		"force":  opts.Force,
	}).Info("수집 실행 시작")

	posts, err := c.platform.GetPosts(ctx, rotator, limit)
	if err != nil {
		result.Errors = append(result.Errors, RunError{Stage: StageFetchPosts, Message: err.Error()})
		rotator.EndSession(ctx, false, err.Error())
		logger.WithError(err).Error("수집 실행 실패: 게시물 목록을 가져오지 못했습니다")
		return result, err
	}

	posts = c.selectPosts(ctx, tenant, posts, opts, result)

	for start := 0; start < len(posts); start += c.batchSize {
		if ctx.Err() != nil {
			result.Canceled = true
			logger.WithField("remaining_posts", len(posts)-start).Warn("수집 실행 취소: 남은 배치를 건너뜁니다")
			break
		}

		end := min(start+c.batchSize, len(posts))
		for _, pr := range c.runBatch(ctx, rotator, tenant, posts[start:end], opts) {
			result.merge(pr)
		}
	}

	result.Success = !result.Canceled
	rotator.EndSession(ctx, result.Success, summarize(result.Errors))

	logger.WithFields(applog.Fields{
		"total_posts":     result.Stats.TotalPosts,
		"processed_posts": result.Stats.ProcessedPosts,
		"skipped_posts":   result.Stats.SkippedPosts,
		"failed_posts":    result.Stats.FailedPosts,
		"total_orders":    result.Stats.TotalOrders,
		"total_customers": result.Stats.TotalCustomers,
		"error_count":     len(result.Errors),
	}).Info("수집 실행 완료")

	return result, nil
}

// selectPosts 댓글 수 내림차순으로 정렬하고, 이미 처리된 뒤 댓글 수가 바뀌지 않은 게시물을 제외합니다.
func (c *Coordinator) selectPosts(ctx context.Context, tenant Tenant, posts []model.Post, opts RunOptions, result *RunResult) []model.Post {
	selected := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if len(opts.PostKeys) > 0 && !slices.Contains(opts.PostKeys, p.PostKey) {
			continue
		}
		p.TenantID = tenant.ID
		if p.BandNumber == "" {
			p.BandNumber = tenant.BandNumber
		}
		selected = append(selected, p)
	}
	result.Stats.TotalPosts = len(selected)

	slices.SortStableFunc(selected, func(a, b model.Post) int {
		return b.CommentCount - a.CommentCount
	})

	if opts.Force {
		return selected
	}

	pending := selected[:0]
	for _, p := range selected {
		state, ok, err := c.store.GetPostState(ctx, tenant.ID, p.PostKey)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"tenant_id": tenant.ID,
				"post_key":  p.PostKey,
			}).WithError(err).Warn("게시물 처리 상태 조회 실패: 다시 처리합니다")
		}
		if err == nil && ok && state.CommentCount == p.CommentCount {
			result.Stats.SkippedPosts++
			continue
		}
		pending = append(pending, p)
	}
	return pending
}

// runBatch 게시물을 동시에 처리하고 모두 끝날 때까지 기다립니다. 결과는 입력 순서를 따릅니다.
func (c *Coordinator) runBatch(ctx context.Context, r *credential.Rotator, tenant Tenant, posts []model.Post, opts RunOptions) []postResult {
	results := make([]postResult, len(posts))

	var wg sync.WaitGroup
	for i, p := range posts {
		wg.Add(1)
		go func(i int, p model.Post) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					err := NewErrPostPanicked(p.PostKey, rec)
					applog.WithComponentAndFields(component, applog.Fields{
						"tenant_id": tenant.ID,
						"post_key":  p.PostKey,
					}).WithError(err).Error("게시물 처리 중 패닉 복구")

					results[i] = postResult{failed: true}
					results[i].addError(p.PostKey, "", StageProcessPost, err)
				}
			}()

			results[i] = c.processPost(ctx, r, tenant, p, opts)
		}(i, p)
	}
	wg.Wait()

	return results
}

// processPost 게시물 하나를 처리합니다. 실패한 단계가 있으면 처리 완료 표시를 남기지 않아 다음 실행에서 다시 시도됩니다.
func (c *Coordinator) processPost(ctx context.Context, r *credential.Rotator, tenant Tenant, post model.Post, opts RunOptions) postResult {
	var res postResult

	logger := applog.WithComponentAndFields(component, applog.Fields{
		"tenant_id": tenant.ID,
		"post_key":  post.PostKey,
	})

	extraction := product.Extract(post)
	post.IsProduct = extraction.IsProduct
	post.OrderNeedsAI = extraction.OrderNeedsAI
	post.OrderNeedsAIReason = extraction.Reason
	products := extraction.Products
	for i := range products {
		products[i].TenantID = tenant.ID
	}

	if !post.IsProduct {
		if err := c.saver.SavePostAndProducts(ctx, post, nil); err != nil {
			res.failed = true
			res.addError(post.PostKey, "", StageSavePost, err)
			return res
		}
		return c.markProcessed(ctx, post, res)
	}

	// 댓글 수집은 게시물/상품 저장과 무관하므로 함께 진행합니다.
	var (
		wg          sync.WaitGroup
		comments    []model.Comment
		malformed   []error
		fetchErr    error
		savePostErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		comments, malformed, fetchErr = c.platform.GetComments(ctx, r, post.PostKey)
	}()
	go func() {
		defer wg.Done()
		savePostErr = c.saver.SavePostAndProducts(ctx, post, products)
	}()
	wg.Wait()

	if savePostErr != nil {
		res.addError(post.PostKey, "", StageSavePost, savePostErr)
	}
	if fetchErr != nil {
		res.failed = true
		res.addError(post.PostKey, "", StageFetchComments, fetchErr)
		logger.WithError(fetchErr).Warn("댓글 수집 실패: 다음 게시물로 넘어갑니다")
		return res
	}
	for _, err := range malformed {
		res.addError(post.PostKey, "", StageNormalize, err)
	}

	comments = comment.Filter(comments)

	cancel := c.detector.Process(ctx, post, comments)
	res.canceled = len(cancel.CanceledOrderIDs)
	for _, err := range cancel.Errors {
		res.addError(post.PostKey, "", StageCancellation, err)
	}

	assembled := c.assembler.Assemble(ctx, order.Input{
		TenantID:   tenant.ID,
		BandNumber: post.BandNumber,
		Post:       post,
		Products:   products,
		Comments:   cancel.Remaining,
		UseAI:      opts.UseAI,
	})
	for _, err := range assembled.Errors {
		res.addError(post.PostKey, "", StageExtractOrders, err)
	}

	saved := c.saver.Save(ctx, assembled.Orders, assembled.Customers)
	if !saved.Success {
		res.failed = true
		res.addError(post.PostKey, "", StagePersistOrders, saved.Err)
		if saved.RollbackErr != nil {
			res.addError(post.PostKey, "", StagePersistOrders, saved.RollbackErr)
		}
		return res
	}

	res.orders = len(assembled.Orders)
	res.newOrders = saved.SavedOrders
	res.aiOrders = assembled.AIOrders
	res.customers = saved.SavedCustomers

	logger.WithFields(applog.Fields{
		"comment_count":  len(comments),
		"order_count":    res.orders,
		"new_orders":     res.newOrders,
		"pattern_orders": assembled.PatternOrders,
		"ai_orders":      assembled.AIOrders,
		"canceled":       res.canceled,
	}).Debug("게시물 처리 완료")

	return c.markProcessed(ctx, post, res)
}

func (c *Coordinator) markProcessed(ctx context.Context, post model.Post, res postResult) postResult {
	err := c.store.MarkPostProcessed(ctx, store.PostState{
		TenantID:     post.TenantID,
		PostKey:      post.PostKey,
		CommentCount: post.CommentCount,
		ProcessedAt:  c.now(),
	})
	if err != nil {
		res.failed = true
		res.addError(post.PostKey, "", StageMarkProcessed, err)
		return res
	}
	res.processed = true
	return res
}

// summarize 세션 기록용 에러 요약
func summarize(errs []RunError) string {
	if len(errs) == 0 {
		return ""
	}

	lines := make([]string, 0, maxErrorSummary+1)
	for i, e := range errs {
		if i == maxErrorSummary {
			lines = append(lines, fmt.Sprintf("외 %d건", len(errs)-maxErrorSummary))
			break
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", e.Stage, e.PostKey, e.Message))
	}
	return strings.Join(lines, "\n")
}
