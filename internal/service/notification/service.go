// Package notification 수집 결과와 장애 알림을 알림 채널(텔레그램)로 전달하는 서비스를 제공합니다.
//
// Notify는 메시지를 대기열에 넣고 즉시 반환하며, 전송은 서비스의 워커 고루틴 하나가 순서대로 처리합니다.
// 서비스가 종료되면 대기열에 남은 메시지를 제한 시간 안에서 모두 보낸 뒤 멈춥니다.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/band-order-server/internal/service"
	"github.com/darkkaiser/band-order-server/internal/service/contract"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "notification.service"

const (
	defaultQueueSize = 64

	// defaultSendTimeout 메시지 한 건의 전송(재시도 포함) 제한 시간
	defaultSendTimeout = 30 * time.Second

	// defaultDrainTimeout 종료 시 남은 메시지를 보내는 데 쓸 수 있는 전체 시간
	defaultDrainTimeout = 10 * time.Second
)

// Notifier 알림 채널 하나
type Notifier interface {
	ID() string
	Send(ctx context.Context, n contract.Notification) error
}

// Service 알림 서비스
type Service struct {
	notifiers         map[string]Notifier
	defaultNotifierID string

	queue chan contract.Notification

	sendTimeout  time.Duration
	drainTimeout time.Duration

	running   bool
	runningMu sync.RWMutex
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var (
	_ service.Service             = (*Service)(nil)
	_ contract.NotificationSender = (*Service)(nil)
)

// NewService 알림 채널 목록으로 서비스를 생성합니다. defaultNotifierID는 비어 있어도 됩니다.
func NewService(defaultNotifierID string, notifiers ...Notifier) *Service {
	s := &Service{
		notifiers:         make(map[string]Notifier, len(notifiers)),
		defaultNotifierID: defaultNotifierID,
		queue:             make(chan contract.Notification, defaultQueueSize),
		sendTimeout:       defaultSendTimeout,
		drainTimeout:      defaultDrainTimeout,
	}
	for _, n := range notifiers {
		s.notifiers[n.ID()] = n
	}
	return s
}

// Start 전송 워커를 시작합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("알림 서비스 시작중...")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("알림 서비스가 이미 시작됨")
		return nil
	}

	s.running = true

	go s.run(serviceStopCtx, serviceStopWG)

	applog.WithComponentAndFields(component, applog.Fields{
		"notifiers":           len(s.notifiers),
		"default_notifier_id": s.defaultNotifierID,
	}).Info("알림 서비스 시작됨")

	return nil
}

func (s *Service) run(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	for {
		select {
		case n := <-s.queue:
			s.deliver(context.Background(), n)

		case <-serviceStopCtx.Done():
			applog.WithComponent(component).Info("알림 서비스 중지중...")

			s.runningMu.Lock()
			s.running = false
			s.runningMu.Unlock()

			s.drain()

			applog.WithComponent(component).Info("알림 서비스 중지됨")
			return
		}
	}
}

// drain 대기열에 남은 메시지를 drainTimeout 안에서 보냅니다.
func (s *Service) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	for {
		select {
		case n := <-s.queue:
			s.deliver(ctx, n)
		default:
			return
		}
	}
}

func (s *Service) deliver(parent context.Context, n contract.Notification) {
	notifier, ok := s.notifiers[n.NotifierID]
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(parent, s.sendTimeout)
	defer cancel()

	if err := notifier.Send(ctx, n); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.NotifierID,
			"tenant_id":   n.TenantID,
			"title":       n.Title,
		}).WithError(err).Error("알림 전송 실패")
	}
}

// Notify 알림을 대기열에 넣습니다.
//
// NotifierID가 비어 있으면 기본 채널을 사용하고, 기본 채널도 없으면 알림을 생략합니다.
// 등록되지 않은 채널이면 NotFound, 대기열이 가득 차 있으면 ErrQueueFull을 반환합니다.
func (s *Service) Notify(ctx context.Context, n contract.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrServiceStopped
	}

	if n.NotifierID == "" {
		n.NotifierID = s.defaultNotifierID
	}
	if n.NotifierID == "" {
		applog.WithComponentAndFields(component, applog.Fields{
			"tenant_id": n.TenantID,
			"title":     n.Title,
		}).Debug("알림 채널이 지정되지 않아 전송을 생략합니다")
		return nil
	}
	if _, ok := s.notifiers[n.NotifierID]; !ok {
		return NewErrNotifierNotFound(n.NotifierID)
	}

	select {
	case s.queue <- n:
		return nil
	default:
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.NotifierID,
			"queue_size":  cap(s.queue),
		}).Warn("알림 전송 대기열이 가득 차 메시지를 버립니다")
		return ErrQueueFull
	}
}

// Health 서비스가 실행 중이면 nil을 반환합니다.
func (s *Service) Health() error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrServiceStopped
	}
	return nil
}
