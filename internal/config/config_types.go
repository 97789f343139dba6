package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/darkkaiser/band-order-server/internal/store"
	"github.com/darkkaiser/band-order-server/pkg/cronx"
	"github.com/go-playground/validator/v10"
)

// 데이터베이스 드라이버
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// AppConfig 애플리케이션의 모든 설정을 포함하는 최상위 구조체
type AppConfig struct {
	Debug     bool            `json:"debug"`
	HTTPRetry HTTPRetryConfig `json:"http_retry"`
	Band      BandConfig      `json:"band"`
	AI        AIConfig        `json:"ai"`
	Ingestion IngestionConfig `json:"ingestion"`
	Database  DatabaseConfig  `json:"database"`
	Tenants   []TenantConfig  `json:"tenants"`
	Notifiers NotifierConfig  `json:"notifiers"`
	API       APIConfig       `json:"api"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := c.HTTPRetry.validate(v); err != nil {
		return err
	}
	if err := checkStruct(v, c.Band, "밴드 API"); err != nil {
		return err
	}
	if err := c.AI.validate(v); err != nil {
		return err
	}
	if err := checkStruct(v, c.Ingestion, "수집 실행"); err != nil {
		return err
	}
	if err := checkStruct(v, c.Database, "데이터베이스"); err != nil {
		return err
	}

	notifierIDs, err := c.Notifiers.validate(v)
	if err != nil {
		return err
	}

	if err := c.validateTenants(v, notifierIDs); err != nil {
		return err
	}

	return c.API.validate(v)
}

func (c *AppConfig) validateTenants(v *validator.Validate, notifierIDs []string) error {
	if err := checkUniqueField(v, c.Tenants, "ID", "테넌트"); err != nil {
		return err
	}

	for _, t := range c.Tenants {
		if err := checkStruct(v, t, fmt.Sprintf("Tenant['%s']", t.ID)); err != nil {
			return err
		}

		if t.NotifierID != "" && !slices.Contains(notifierIDs, t.NotifierID) {
			return apperrors.New(apperrors.NotFound, fmt.Sprintf("Tenant['%s']에서 참조하는 NotifierID('%s')가 정의되지 않았습니다", t.ID, t.NotifierID))
		}

		if t.Schedule.Runnable {
			if err := cronx.Validate(t.Schedule.TimeSpec); err != nil {
				return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("Tenant['%s']의 스케줄러(time_spec) 설정이 유효하지 않습니다", t.ID))
			}
		}
	}

	return nil
}

// Tenant ID로 테넌트 설정을 찾습니다.
func (c *AppConfig) Tenant(id string) (TenantConfig, bool) {
	for _, t := range c.Tenants {
		if t.ID == id {
			return t, true
		}
	}
	return TenantConfig{}, false
}

// VerifyRecommendations 서비스 운영의 안정성과 보안을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	warnings := c.API.WS.VerifyRecommendations()

	if c.Database.Driver == DriverMemory {
		warnings = append(warnings, "메모리 저장소를 사용하도록 설정되었습니다. 프로세스가 종료되면 수집된 주문이 모두 사라집니다")
	}
	for _, t := range c.Tenants {
		if len(t.Credentials.Backups) == 0 {
			warnings = append(warnings, fmt.Sprintf("Tenant['%s']에 백업 API 키가 없습니다. 할당량 초과 시 수집이 중단됩니다", t.ID))
		}
	}
	return warnings
}

// HTTPRetryConfig HTTP 요청 실패 시 재시도 횟수와 대기 시간을 정의하는 설정 구조체
type HTTPRetryConfig struct {
	MaxRetries int    `json:"max_retries" validate:"min=0,max=10"`
	RetryDelay string `json:"retry_delay"`
}

func (c *HTTPRetryConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "HTTP 재시도"); err != nil {
		return err
	}
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("HTTP 재시도 대기 시간(retry_delay) 설정이 올바르지 않습니다: '%s' (예: 1s, 500ms)", c.RetryDelay))
	}
	if d <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("HTTP 재시도 대기 시간(retry_delay)은 0보다 커야 합니다: '%s'", c.RetryDelay))
	}
	return nil
}

// RetryDelayDuration 검증을 통과한 설정에서만 호출해야 합니다.
func (c HTTPRetryConfig) RetryDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryDelay)
	return d
}

// BandConfig 밴드 Open API 호출 설정
type BandConfig struct {
	BaseURL           string  `json:"base_url" validate:"required,url"`
	CommentsBaseURL   string  `json:"comments_base_url" validate:"omitempty,url"`
	Locale            string  `json:"locale" validate:"required"`
	PageLimit         int     `json:"page_limit" validate:"min=1,max=100"`
	MaxCommentPages   int     `json:"max_comment_pages" validate:"min=1"`
	RequestsPerSecond float64 `json:"requests_per_second" validate:"min=0"`
}

// AIConfig AI 댓글 분석 엔드포인트 설정
type AIConfig struct {
	Enabled           bool    `json:"enabled"`
	Endpoint          string  `json:"endpoint" validate:"required_if=Enabled true,omitempty,url"`
	APIKey            string  `json:"api_key"`
	Timeout           string  `json:"timeout"`
	RequestsPerSecond float64 `json:"requests_per_second" validate:"min=0"`
}

func (c *AIConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "AI 댓글 분석"); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("AI 요청 타임아웃(timeout) 설정이 올바르지 않습니다: '%s'", c.Timeout))
	}
	return nil
}

// TimeoutDuration 검증을 통과한 설정에서만 호출해야 합니다.
func (c AIConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// IngestionConfig 수집 실행 설정
type IngestionConfig struct {
	BatchSize    int `json:"batch_size" validate:"min=1,max=50"`
	DefaultLimit int `json:"default_limit" validate:"min=1"`
}

// DatabaseConfig 저장소 설정
type DatabaseConfig struct {
	Driver     string `json:"driver" validate:"oneof=memory postgres"`
	DSN        string `json:"dsn" validate:"required_if=Driver postgres"`
	MaxConns   int    `json:"max_conns" validate:"min=0"`
	ViaBouncer bool   `json:"via_bouncer"`
	Schema     string `json:"schema"`
}

// TenantConfig 수집 대상 밴드 운영자 설정
type TenantConfig struct {
	ID          string            `json:"id" validate:"required"`
	Title       string            `json:"title"`
	BandNumber  string            `json:"band_number" validate:"required"`
	Credentials CredentialsConfig `json:"credentials"`
	Schedule    ScheduleConfig    `json:"schedule"`
	NotifierID  string            `json:"notifier_id"`
}

// CredentialSet 설정 파일의 키 목록을 저장소 레코드로 변환합니다. CurrentIndex는 저장소에 남은 값을 따르도록 0으로 둡니다.
func (t TenantConfig) CredentialSet() store.CredentialSet {
	set := store.CredentialSet{
		TenantID: t.ID,
		Primary:  store.Credential(t.Credentials.Primary),
	}
	for _, b := range t.Credentials.Backups {
		set.Backups = append(set.Backups, store.Credential(b))
	}
	return set
}

// CredentialsConfig 기본 키 1개와 백업 키 N개
type CredentialsConfig struct {
	Primary CredentialConfig   `json:"primary"`
	Backups []CredentialConfig `json:"backups" validate:"dive"`
}

// CredentialConfig 밴드 Open API 접근 자격 증명
type CredentialConfig struct {
	AccessToken string `json:"access_token" validate:"required"`
	BandKey     string `json:"band_key" validate:"required"`
}

// ScheduleConfig 테넌트별 주기 수집 설정
type ScheduleConfig struct {
	Runnable bool   `json:"runnable"`
	TimeSpec string `json:"time_spec"`
	Limit    int    `json:"limit" validate:"min=0"`
	UseAI    bool   `json:"use_ai"`
}

// NotifierConfig 텔레그램 알림 채널 설정
type NotifierConfig struct {
	DefaultNotifierID string           `json:"default_notifier_id"`
	Telegrams         []TelegramConfig `json:"telegrams"`
}

func (c *NotifierConfig) validate(v *validator.Validate) ([]string, error) {
	if err := checkUniqueField(v, c.Telegrams, "ID", "알림 채널"); err != nil {
		return nil, err
	}

	notifierIDs := make([]string, 0, len(c.Telegrams))
	for _, telegram := range c.Telegrams {
		if err := checkStruct(v, telegram, fmt.Sprintf("Telegram Notifier['%s']", telegram.ID)); err != nil {
			return nil, err
		}
		notifierIDs = append(notifierIDs, telegram.ID)
	}

	if c.DefaultNotifierID != "" && !slices.Contains(notifierIDs, c.DefaultNotifierID) {
		return nil, apperrors.New(apperrors.NotFound, fmt.Sprintf("기본 NotifierID('%s')가 정의된 Notifier 목록에 존재하지 않습니다", c.DefaultNotifierID))
	}

	return notifierIDs, nil
}

// TelegramConfig 텔레그램 봇 토큰 및 채팅 ID 정보를 담는 설정 구조체
type TelegramConfig struct {
	ID       string `json:"id" validate:"required"`
	BotToken string `json:"bot_token" validate:"required,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required"`
}

// APIConfig 수집 실행 REST API 서버 설정
type APIConfig struct {
	WS           WSConfig            `json:"ws"`
	CORS         CORSConfig          `json:"cors"`
	Applications []ApplicationConfig `json:"applications"`
}

func (c *APIConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c.WS, "웹 서버"); err != nil {
		return err
	}
	if err := c.CORS.validate(v); err != nil {
		return err
	}

	if err := checkUniqueField(v, c.Applications, "ID", "애플리케이션"); err != nil {
		return err
	}
	for _, app := range c.Applications {
		if strings.TrimSpace(app.ID) == "" {
			return apperrors.New(apperrors.InvalidInput, "애플리케이션 ID가 설정되지 않았습니다")
		}
		if strings.TrimSpace(app.AppKey) == "" {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("Application['%s']의 API 키(app_key)가 설정되지 않았습니다", app.ID))
		}
	}
	return nil
}

// WSConfig 웹 서버의 포트 및 TLS(HTTPS) 보안 설정을 정의하는 구조체
type WSConfig struct {
	TLSServer   bool   `json:"tls_server"`
	TLSCertFile string `json:"tls_cert_file" validate:"required_if=TLSServer true,omitempty,file"`
	TLSKeyFile  string `json:"tls_key_file" validate:"required_if=TLSServer true,omitempty,file"`
	ListenPort  int    `json:"listen_port" validate:"min=1,max=65535"`
}

func (c *WSConfig) VerifyRecommendations() []string {
	var warnings []string

	// 시스템 예약 포트(1024 미만) 사용 경고
	if c.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.ListenPort))
	}

	return warnings
}

// CORSConfig 웹 브라우저의 교차 출처 리소스 공유(CORS) 정책을 설정하는 구조체
type CORSConfig struct {
	AllowOrigins []string `json:"allow_origins"`
}

func (c *CORSConfig) validate(v *validator.Validate) error {
	if len(c.AllowOrigins) == 0 {
		return apperrors.New(apperrors.InvalidInput, "CORS 허용 도메인(allow_origins) 목록이 비어있습니다")
	}

	if slices.Contains(c.AllowOrigins, "*") {
		if len(c.AllowOrigins) > 1 {
			return apperrors.New(apperrors.InvalidInput, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
		}
		return nil
	}

	if err := v.Var(c.AllowOrigins, "dive,cors_origin"); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("CORS Origin 형식이 올바르지 않습니다: '%v' (형식: Scheme://Host[:Port], 예: https://example.com)", validationErrors[0].Value()))
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, "CORS 설정 검증 중 알 수 없는 오류가 발생했습니다")
	}
	return nil
}

// ApplicationConfig 수집 API를 호출할 수 있는 클라이언트 애플리케이션의 인증 정보
type ApplicationConfig struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AppKey      string `json:"app_key"`
}
