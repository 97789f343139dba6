package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darkkaiser/band-order-server/internal/aiclient"
	"github.com/darkkaiser/band-order-server/internal/band"
	"github.com/darkkaiser/band-order-server/internal/config"
	"github.com/darkkaiser/band-order-server/internal/fetcher"
	"github.com/darkkaiser/band-order-server/internal/ingestion"
	"github.com/darkkaiser/band-order-server/internal/order"
	"github.com/darkkaiser/band-order-server/internal/pkg/version"
	"github.com/darkkaiser/band-order-server/internal/service"
	"github.com/darkkaiser/band-order-server/internal/service/api"
	"github.com/darkkaiser/band-order-server/internal/service/notification"
	"github.com/darkkaiser/band-order-server/internal/service/notification/telegram"
	"github.com/darkkaiser/band-order-server/internal/service/runner"
	"github.com/darkkaiser/band-order-server/internal/service/scheduler"
	"github.com/darkkaiser/band-order-server/internal/store"
	"github.com/darkkaiser/band-order-server/internal/store/memory"
	"github.com/darkkaiser/band-order-server/internal/store/postgres"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

// @title Band Order Server API
// @version 1.0
// @description 밴드 게시물 댓글에서 주문을 수집하는 서버의 REST API입니다.
// @description
// @description 설정 파일(band-order-server.json)의 api.applications에 등록된 애플리케이션만 호출할 수 있습니다.

// @contact.name DarkKaiser
// @contact.url https://github.com/DarkKaiser

// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-App-Key
// @description 애플리케이션 인증 키 (X-App-Key 헤더)

const (
	banner = `
  ____                  _    ___            _
 | __ )  __ _ _ __   __| |  / _ \ _ __ __ _| | ___ _ __
 |  _ \ / _' | '_ \ / _' | | | | | '__/ _' | |/ _ \ '__|
 | |_) | (_| | | | | (_| | | |_| | | | (_| | |  __/ |
 |____/ \__,_|_| |_|\__,_|  \___/|_|  \__,_|_|\___|_|
                                              %s
                                        developed by DarkKaiser
--------------------------------------------------------------------------------
`
)

func main() {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	configFile := config.DefaultFilename
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	appConfig, err := config.LoadWithFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentConfig(config.AppName)
	} else {
		logOpts = applog.NewProductionConfig(config.AppName)
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 로그 시스템 초기화 실패. 서버 구동을 중단합니다. (Cause: %v)\n", err)
		os.Exit(1)
	}
	defer appLogCloser.Close()

	applog.SetDebugMode(appConfig.Debug)

	buildInfo := version.Get()

	fmt.Printf(banner, buildInfo.Version)

	applog.WithComponentAndFields("main", applog.Fields{
		"version": buildInfo.String(),
		"env":     map[bool]string{true: "development", false: "production"}[appConfig.Debug],
		"tenants": len(appConfig.Tenants),
	}).Info("서버 초기화 시작")

	for _, warning := range appConfig.VerifyRecommendations() {
		applog.WithComponent("main").Warn(warning)
	}

	serviceStopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. 저장소 연결 및 테넌트 API 키 등록
	st, closeStore, err := openStore(serviceStopCtx, appConfig)
	if err != nil {
		applog.WithComponentAndFields("main", applog.Fields{
			"driver": appConfig.Database.Driver,
			"error":  err,
		}).Error("저장소 초기화 실패")
		os.Exit(1)
	}
	defer closeStore()

	// 4. 수집 파이프라인 구성
	coordinator := ingestion.New(st, newBandClient(appConfig), newAIExtractor(appConfig), ingestion.Config{
		BatchSize:    appConfig.Ingestion.BatchSize,
		DefaultLimit: appConfig.Ingestion.DefaultLimit,
	})

	// 5. 서비스 생성
	notificationService, err := newNotificationService(appConfig)
	if err != nil {
		applog.WithComponentAndFields("main", applog.Fields{
			"error": err,
		}).Error("알림 서비스 초기화 실패")
		os.Exit(1)
	}

	runnerService := runner.New(appConfig, coordinator, notificationService)
	schedulerService := scheduler.NewService(appConfig.Tenants, runnerService, notificationService)
	apiService := api.NewService(appConfig, runnerService, notificationService, buildInfo)

	serviceStopWG := &sync.WaitGroup{}

	// 알림 서비스가 가장 먼저 시작되어야 다른 서비스의 시작 실패도 알릴 수 있다.
	services := []service.Service{notificationService, runnerService, schedulerService, apiService}
	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields("main", applog.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			cancel()
			serviceStopWG.Wait()

			closeStore()
			appLogCloser.Close()
			os.Exit(1)
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	applog.WithComponent("main").Info("서버 가동 완료")

	<-termC

	applog.WithComponent("main").Info("종료 신호 수신")
	cancel()
	serviceStopWG.Wait()
}

// openStore 설정된 드라이버로 저장소를 열고 설정 파일의 테넌트 API 키를 저장합니다.
func openStore(ctx context.Context, appConfig *config.AppConfig) (store.Store, func(), error) {
	switch appConfig.Database.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, postgres.Config{
			DSN:        appConfig.Database.DSN,
			MaxConns:   appConfig.Database.MaxConns,
			ViaBouncer: appConfig.Database.ViaBouncer,
			Schema:     appConfig.Database.Schema,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		for _, t := range appConfig.Tenants {
			if err := pg.SaveCredentials(ctx, t.CredentialSet()); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		return pg, pg.Close, nil

	default:
		applog.WithComponent("main").Warn("메모리 저장소를 사용합니다. 서버를 재시작하면 수집된 주문이 사라집니다")

		mem := memory.New()
		for _, t := range appConfig.Tenants {
			mem.SetCredentials(t.CredentialSet())
		}
		return mem, mem.Close, nil
	}
}

func newBandClient(appConfig *config.AppConfig) *band.Client {
	f := fetcher.New(fetcher.Config{
		UserAgent:         config.AppName,
		MaxRetries:        appConfig.HTTPRetry.MaxRetries,
		MinRetryDelay:     appConfig.HTTPRetry.RetryDelayDuration(),
		MaxRetryDelay:     appConfig.HTTPRetry.RetryDelayDuration() * 8,
		RequestsPerSecond: appConfig.Band.RequestsPerSecond,
		Burst:             1,
	})

	return band.NewClient(f, band.Config{
		BaseURL:         appConfig.Band.BaseURL,
		CommentsBaseURL: appConfig.Band.CommentsBaseURL,
		Locale:          appConfig.Band.Locale,
		PageLimit:       appConfig.Band.PageLimit,
		MaxCommentPages: appConfig.Band.MaxCommentPages,
	})
}

// newAIExtractor AI 분석이 꺼져 있으면 nil을 반환하며, 이때 주문은 패턴 매칭으로만 조립된다.
func newAIExtractor(appConfig *config.AppConfig) order.Extractor {
	if !appConfig.AI.Enabled {
		return nil
	}

	f := fetcher.New(fetcher.Config{
		Timeout:           appConfig.AI.TimeoutDuration(),
		UserAgent:         config.AppName,
		RequestsPerSecond: appConfig.AI.RequestsPerSecond,
		Burst:             1,
	})

	return aiclient.New(f, aiclient.Config{
		Enabled:  appConfig.AI.Enabled,
		Endpoint: appConfig.AI.Endpoint,
		APIKey:   appConfig.AI.APIKey,
	})
}

func newNotificationService(appConfig *config.AppConfig) (*notification.Service, error) {
	notifiers := make([]notification.Notifier, 0, len(appConfig.Notifiers.Telegrams))
	for _, tc := range appConfig.Notifiers.Telegrams {
		n, err := telegram.New(tc)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}

	return notification.NewService(appConfig.Notifiers.DefaultNotifierID, notifiers...), nil
}
