// Package api 주문 수집을 외부에서 실행하고 서버 상태를 조회하는 REST API 서비스를 제공합니다.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	_ "github.com/darkkaiser/band-order-server/docs"
	"github.com/darkkaiser/band-order-server/internal/config"
	"github.com/darkkaiser/band-order-server/internal/pkg/version"
	"github.com/darkkaiser/band-order-server/internal/service"
	"github.com/darkkaiser/band-order-server/internal/service/api/auth"
	"github.com/darkkaiser/band-order-server/internal/service/api/constants"
	"github.com/darkkaiser/band-order-server/internal/service/api/handler/system"
	v1 "github.com/darkkaiser/band-order-server/internal/service/api/v1"
	v1handler "github.com/darkkaiser/band-order-server/internal/service/api/v1/handler"
	"github.com/darkkaiser/band-order-server/internal/service/contract"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/labstack/echo/v4"
)

var _ service.Service = (*Service)(nil)

// Service REST API 서버의 생명주기를 관리합니다.
type Service struct {
	appConfig *config.AppConfig

	runner             contract.IngestionRunner
	notificationSender contract.NotificationSender

	buildInfo version.Info

	running   bool
	runningMu sync.Mutex
}

// NewService Service를 생성합니다. appConfig, runner, notificationSender가 nil이면 패닉이 발생합니다.
func NewService(appConfig *config.AppConfig, runner contract.IngestionRunner, notificationSender contract.NotificationSender, buildInfo version.Info) *Service {
	if appConfig == nil {
		panic("AppConfig는 필수입니다")
	}
	if runner == nil {
		panic("IngestionRunner는 필수입니다")
	}
	if notificationSender == nil {
		panic("NotificationSender는 필수입니다")
	}

	return &Service{
		appConfig: appConfig,

		runner:             runner,
		notificationSender: notificationSender,

		buildInfo: buildInfo,
	}
}

// Start HTTP 서버를 백그라운드에서 시작합니다. serviceStopCtx가 취소되면 Graceful Shutdown을 수행합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info("API 서비스 시작중...")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(constants.ComponentService).Warn("API 서비스가 이미 시작됨")
		return nil
	}

	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponent(constants.ComponentService).Info("API 서비스 시작됨")

	return nil
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := s.setupServer()

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(serviceStopCtx, e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

func (s *Service) setupServer() *echo.Echo {
	authenticator := auth.NewAuthenticator(s.appConfig.API.Applications)

	systemHandler := system.NewHandler(map[string]system.HealthChecker{
		constants.DependencyNotificationService: s.notificationSender,
		constants.DependencyIngestionRunner:     s.runner,
	}, s.buildInfo)
	v1Handler := v1handler.NewHandler(s.runner)

	e := NewHTTPServer(HTTPServerConfig{
		Debug:        s.appConfig.Debug,
		EnableHSTS:   s.appConfig.API.WS.TLSServer,
		AllowOrigins: s.appConfig.API.CORS.AllowOrigins,
	})

	RegisterRoutes(e, systemHandler)
	v1.RegisterRoutes(e, v1Handler, authenticator)

	return e
}

func (s *Service) startHTTPServer(ctx context.Context, e *echo.Echo, done chan struct{}) {
	defer close(done)

	ws := s.appConfig.API.WS
	address := fmt.Sprintf(":%d", ws.ListenPort)

	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"port": ws.ListenPort,
		"tls":  ws.TLSServer,
	}).Info("API 서비스 > HTTP 서버 시작")

	var err error
	if ws.TLSServer {
		err = e.StartTLS(address, ws.TLSCertFile, ws.TLSKeyFile)
	} else {
		err = e.Start(address)
	}

	s.handleServerError(ctx, err)
}

func (s *Service) handleServerError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	if errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(constants.ComponentService).Info("API 서비스 > HTTP 서버 중지됨")
		return
	}

	message := "API 서비스 > HTTP 서버를 구성하는 중에 치명적인 오류가 발생하였습니다."
	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"port":  s.appConfig.API.WS.ListenPort,
		"error": err,
	}).Error(message)

	if notifyErr := s.notificationSender.Notify(context.WithoutCancel(ctx), contract.Notification{
		Message:       fmt.Sprintf("%s\n\n%s", message, err),
		ErrorOccurred: true,
	}); notifyErr != nil {
		applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
			"error": notifyErr,
		}).Warn("HTTP 서버 오류 알림 전송 실패")
	}
}

func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(constants.ComponentService).Info("API 서비스 중지중...")

	case <-httpServerDone:
		applog.WithComponent(constants.ComponentService).Error("API 서비스 > HTTP 서버가 예기치 않게 종료됨")

		s.cleanup()

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
			"error": err,
		}).Error("API 서비스 > HTTP 서버 Graceful Shutdown 중 오류 발생")
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info("API 서비스 중지됨")
}
