// Package scheduler 테넌트 설정의 Cron 스케줄에 맞춰 주문 수집을 자동으로 실행합니다.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/darkkaiser/band-order-server/internal/config"
	"github.com/darkkaiser/band-order-server/internal/ingestion"
	"github.com/darkkaiser/band-order-server/internal/service"
	"github.com/darkkaiser/band-order-server/internal/service/contract"
	"github.com/darkkaiser/band-order-server/pkg/cronx"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/robfig/cron/v3"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// Scheduler 테넌트별 주기 수집 서비스
type Scheduler struct {
	tenants []config.TenantConfig

	cron *cron.Cron

	runner contract.IngestionRunner

	// notificationSender 스케줄 등록 실패를 알립니다. nil이면 로그만 남깁니다.
	notificationSender contract.NotificationSender

	running   bool
	runningMu sync.Mutex
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ service.Service = (*Scheduler)(nil)

// NewService 새로운 Scheduler 서비스 인스턴스를 생성합니다.
func NewService(tenants []config.TenantConfig, runner contract.IngestionRunner, notificationSender contract.NotificationSender) *Scheduler {
	if runner == nil {
		panic("IngestionRunner는 필수입니다")
	}

	return &Scheduler{
		tenants: tenants,

		runner: runner,

		notificationSender: notificationSender,
	}
}

// Start Cron 엔진을 만들고 schedule.runnable이 켜진 테넌트를 등록합니다.
//
// 스케줄된 수집은 serviceStopCtx를 따르므로, 종료 신호를 받으면 진행 중인 수집이 배치 사이에서 멈추고
// Stop은 그 수집이 끝날 때까지 기다립니다.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("Scheduler 서비스 시작중...")

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 실행 중입니다")
		return nil
	}

	// SkipIfStillRunning: 이전 수집이 끝나지 않았으면 이번 회차는 건너뜁니다.
	s.cron = cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(cron.VerbosePrintfLogger(applog.StandardLogger())),
		cron.WithChain(
			cron.Recover(cron.VerbosePrintfLogger(applog.StandardLogger())),
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(applog.StandardLogger())),
		),
	)

	s.registerTenants(serviceStopCtx)

	s.cron.Start()
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"registered_schedules": len(s.cron.Entries()),
		"total_tenants":        len(s.tenants),
	}).Info("Scheduler 서비스 시작됨")

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.stop()
	}()

	return nil
}

func (s *Scheduler) stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("Scheduler 서비스 중지중...")

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}

	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("Scheduler 서비스 중지됨")
}

func (s *Scheduler) registerTenants(serviceStopCtx context.Context) {
	for _, t := range s.tenants {
		if !t.Schedule.Runnable {
			continue
		}

		tenant := t
		req := contract.RunRequest{
			TenantID: tenant.ID,
			Options: ingestion.RunOptions{
				Limit: tenant.Schedule.Limit,
				UseAI: tenant.Schedule.UseAI,
			},
			RunBy: contract.RunByScheduler,
		}

		_, err := s.cron.AddFunc(tenant.Schedule.TimeSpec, func() {
			if serviceStopCtx.Err() != nil {
				return
			}
			// 실행 결과 알림은 runner가 보냅니다.
			if _, err := s.runner.Run(serviceStopCtx, req); err != nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"tenant_id": tenant.ID,
					"run_by":    req.RunBy.String(),
				}).WithError(err).Warn("스케줄 수집 실행 실패")
			}
		})
		if err != nil {
			message := fmt.Sprintf("스케줄 등록 실패: 잘못된 Cron 표현식입니다 (TimeSpec: %s)", tenant.Schedule.TimeSpec)
			s.logAndNotifyError(serviceStopCtx, tenant, message, err)
			continue
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"tenant_id": tenant.ID,
			"time_spec": tenant.Schedule.TimeSpec,
		}).Debug("스케줄 등록")
	}
}

func (s *Scheduler) logAndNotifyError(ctx context.Context, tenant config.TenantConfig, message string, err error) {
	applog.WithComponentAndFields(component, applog.Fields{
		"tenant_id":   tenant.ID,
		"notifier_id": tenant.NotifierID,
	}).WithError(err).Error(message)

	if s.notificationSender == nil {
		return
	}
	if notifyErr := s.notificationSender.Notify(ctx, contract.Notification{
		NotifierID:    tenant.NotifierID,
		TenantID:      tenant.ID,
		Message:       fmt.Sprintf("%s: %v", message, err),
		ErrorOccurred: true,
	}); notifyErr != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"tenant_id": tenant.ID,
		}).WithError(notifyErr).Warn("스케줄 등록 실패 알림 전송 실패")
	}
}
