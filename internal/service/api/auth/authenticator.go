// Package auth 수집 API를 호출하는 애플리케이션의 인증을 담당합니다.
package auth

import (
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/darkkaiser/band-order-server/internal/config"
	"github.com/darkkaiser/band-order-server/internal/service/api/constants"
	"github.com/darkkaiser/band-order-server/internal/service/api/httputil"
	"github.com/darkkaiser/band-order-server/internal/service/api/model/domain"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
)

// Authenticator 설정 파일에 등록된 애플리케이션을 Application ID와 App Key로 인증합니다.
//
// 초기화 후 읽기 전용이며, 여러 고루틴에서 동시에 Authenticate를 호출해도 안전합니다.
type Authenticator struct {
	mu           sync.RWMutex
	applications map[string]*domain.Application
}

// NewAuthenticator 설정에서 애플리케이션을 로드하여 Authenticator를 생성합니다.
func NewAuthenticator(apps []config.ApplicationConfig) *Authenticator {
	applications := make(map[string]*domain.Application, len(apps))
	for _, app := range apps {
		applications[app.ID] = &domain.Application{
			ID:          app.ID,
			Title:       app.Title,
			Description: app.Description,
			AppKey:      app.AppKey,
		}
	}

	return &Authenticator{
		applications: applications,
	}
}

// Authenticate 애플리케이션을 찾고 App Key를 비교합니다. 실패하면 401 HTTP 에러를 반환합니다.
func (a *Authenticator) Authenticate(applicationID, appKey string) (*domain.Application, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	app, ok := a.applications[applicationID]
	if !ok {
		return nil, httputil.NewUnauthorizedError(fmt.Sprintf("접근이 허용되지 않은 application_id(%s)입니다", applicationID))
	}

	if subtle.ConstantTimeCompare([]byte(app.AppKey), []byte(appKey)) != 1 {
		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"application_id":   applicationID,
			"received_app_key": applog.MaskSensitiveData(appKey),
		}).Warn("APP_KEY 불일치")

		return nil, httputil.NewUnauthorizedError(fmt.Sprintf("app_key가 유효하지 않습니다.(application_id:%s)", applicationID))
	}

	return app, nil
}
