// Package runner 스케줄러와 API가 요청한 수집 실행을 테넌트 설정과 연결하고, 실행 결과를 알림으로 보냅니다.
package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/darkkaiser/band-order-server/internal/config"
	"github.com/darkkaiser/band-order-server/internal/ingestion"
	"github.com/darkkaiser/band-order-server/internal/service"
	"github.com/darkkaiser/band-order-server/internal/service/contract"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "service.runner"

// Coordinator 테넌트 하나의 수집을 실행합니다. *ingestion.Coordinator가 구현합니다.
type Coordinator interface {
	Run(ctx context.Context, tenant ingestion.Tenant, opts ingestion.RunOptions) (*ingestion.RunResult, error)
}

// Runner 수집 실행 요청 처리기
type Runner struct {
	appConfig   *config.AppConfig
	coordinator Coordinator
	sender      contract.NotificationSender

	runningMu sync.Mutex
	running   bool
	stopCtx   context.Context

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	// runs Submit으로 시작한 백그라운드 실행
	runs sync.WaitGroup
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var (
	_ service.Service          = (*Runner)(nil)
	_ contract.IngestionRunner = (*Runner)(nil)
)

// New sender가 nil이면 실행 결과 알림을 보내지 않습니다.
func New(appConfig *config.AppConfig, coordinator Coordinator, sender contract.NotificationSender) *Runner {
	if appConfig == nil {
		panic("AppConfig는 필수입니다")
	}
	if coordinator == nil {
		panic("Coordinator는 필수입니다")
	}

	return &Runner{
		appConfig:   appConfig,
		coordinator: coordinator,
		sender:      sender,
		inflight:    make(map[string]struct{}),
	}
}

// Start 백그라운드 실행 요청을 받기 시작합니다.
//
// serviceStopCtx가 취소되면 새 요청을 거절하고, 진행 중인 실행이 취소를 반영해 끝날 때까지 기다립니다.
func (r *Runner) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()

	if r.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("수집 실행 서비스가 이미 시작됨")
		return nil
	}

	r.running = true
	r.stopCtx = serviceStopCtx

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		applog.WithComponent(component).Info("수집 실행 서비스 중지중...")

		r.runningMu.Lock()
		r.running = false
		r.runningMu.Unlock()

		r.runs.Wait()

		applog.WithComponent(component).Info("수집 실행 서비스 중지됨")
	}()

	applog.WithComponent(component).Info("수집 실행 서비스 시작됨")

	return nil
}

// Submit 요청을 검증한 뒤 백그라운드에서 실행합니다.
//
// 등록되지 않은 테넌트는 NotFound, 같은 테넌트의 실행이 진행 중이면 ingestion.ErrRunInProgress를 반환합니다.
// 실행은 서비스 종료 컨텍스트를 따르므로 요청한 HTTP 연결이 끊겨도 계속됩니다.
func (r *Runner) Submit(req contract.RunRequest) error {
	tenantCfg, ok := r.appConfig.Tenant(req.TenantID)
	if !ok {
		return NewErrTenantNotFound(req.TenantID)
	}

	r.runningMu.Lock()
	if !r.running {
		r.runningMu.Unlock()
		return ErrServiceNotRunning
	}
	if !r.acquire(tenantCfg.ID) {
		r.runningMu.Unlock()
		return ingestion.ErrRunInProgress
	}
	r.runs.Add(1)
	ctx := r.stopCtx
	r.runningMu.Unlock()

	go func() {
		defer r.runs.Done()
		defer r.release(tenantCfg.ID)

		_, _ = r.execute(ctx, tenantCfg, req)
	}()

	return nil
}

// Run 요청을 실행하고 결과를 반환합니다.
func (r *Runner) Run(ctx context.Context, req contract.RunRequest) (*ingestion.RunResult, error) {
	tenantCfg, ok := r.appConfig.Tenant(req.TenantID)
	if !ok {
		return nil, NewErrTenantNotFound(req.TenantID)
	}

	if !r.acquire(tenantCfg.ID) {
		return nil, ingestion.ErrRunInProgress
	}
	defer r.release(tenantCfg.ID)

	return r.execute(ctx, tenantCfg, req)
}

// Health 서비스가 실행 요청을 받을 수 있는 상태인지 확인합니다.
func (r *Runner) Health() error {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()

	if !r.running {
		return ErrServiceNotRunning
	}
	return nil
}

func (r *Runner) acquire(tenantID string) bool {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()

	if _, exists := r.inflight[tenantID]; exists {
		return false
	}
	r.inflight[tenantID] = struct{}{}
	return true
}

func (r *Runner) release(tenantID string) {
	r.inflightMu.Lock()
	delete(r.inflight, tenantID)
	r.inflightMu.Unlock()
}

func (r *Runner) execute(ctx context.Context, tenantCfg config.TenantConfig, req contract.RunRequest) (*ingestion.RunResult, error) {
	fields := applog.Fields{
		"tenant_id": tenantCfg.ID,
		"run_by":    req.RunBy.String(),
		"limit":     req.Options.Limit,
		"use_ai":    req.Options.UseAI,
		"force":     req.Options.Force,
	}
	if req.ApplicationID != "" {
		fields["application_id"] = req.ApplicationID
	}
	applog.WithComponentAndFields(component, fields).Info("수집 실행 시작")

	tenant := ingestion.Tenant{ID: tenantCfg.ID, BandNumber: tenantCfg.BandNumber}
	result, err := r.coordinator.Run(ctx, tenant, req.Options)

	if result != nil {
		fields["session_id"] = result.SessionID
		fields["success"] = result.Success
		fields["processed_posts"] = result.Stats.ProcessedPosts
		fields["new_orders"] = result.Stats.NewOrders
		fields["canceled_orders"] = result.Stats.CanceledOrders
		fields["errors"] = len(result.Errors)
		fields["duration"] = result.Duration
	}
	if err != nil {
		applog.WithComponentAndFields(component, fields).WithError(err).Error("수집 실행 실패")
	} else {
		applog.WithComponentAndFields(component, fields).Info("수집 실행 완료")
	}

	r.notify(ctx, tenantCfg, req, result, err)

	return result, err
}

// notify 실행 결과를 테넌트의 알림 채널로 보냅니다.
// 스케줄러 실행에서 새로 반영된 내용도 오류도 없으면 보내지 않습니다.
func (r *Runner) notify(ctx context.Context, tenantCfg config.TenantConfig, req contract.RunRequest, result *ingestion.RunResult, runErr error) {
	if r.sender == nil || errors.Is(runErr, ingestion.ErrRunInProgress) {
		return
	}
	if req.RunBy == contract.RunByScheduler && !worthReporting(result, runErr) {
		return
	}

	title := tenantCfg.Title
	if title == "" {
		title = tenantCfg.ID
	}

	n := contract.Notification{
		NotifierID:    tenantCfg.NotifierID,
		TenantID:      tenantCfg.ID,
		Title:         title + " 주문 수집",
		Message:       FormatRunSummary(result, runErr),
		ErrorOccurred: runErr != nil || (result != nil && (!result.Success || len(result.Errors) > 0)),
	}

	// 종료 신호로 실행이 중단된 경우에도 결과 알림은 대기열에 넣습니다.
	if err := r.sender.Notify(context.WithoutCancel(ctx), n); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"tenant_id":   tenantCfg.ID,
			"notifier_id": tenantCfg.NotifierID,
		}).WithError(err).Warn("수집 결과 알림 전송 실패")
	}
}

func worthReporting(result *ingestion.RunResult, runErr error) bool {
	if runErr != nil || result == nil {
		return true
	}
	if !result.Success || len(result.Errors) > 0 {
		return true
	}
	return result.Stats.NewOrders > 0 || result.Stats.CanceledOrders > 0
}
