// Package config 애플리케이션 설정 파일(JSON)과 환경 변수를 읽어 AppConfig를 구성합니다.
//
// 우선순위(낮음 → 높음): 기본값 → .env 파일 → JSON 설정 파일 → BANDORDER_ 접두사 환경 변수
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "band-order-server"

	// DefaultFilename 실행 인자로 경로가 주어지지 않을 때 읽는 설정 파일명입니다.
	DefaultFilename = AppName + ".json"

	// DotEnvFilename 설정 파일과 같은 디렉터리에서 찾는 환경 변수 파일명입니다.
	DotEnvFilename = ".env"

	// EnvPrefix 설정을 덮어쓰는 환경 변수의 접두사입니다.
	// 예: BANDORDER_DATABASE__DSN -> database.dsn
	EnvPrefix = "BANDORDER_"

	DefaultMaxRetries = 3
	DefaultRetryDelay = "2s"

	DefaultBandBaseURL      = "https://openapi.band.us"
	DefaultBandLocale       = "ko_KR"
	DefaultPageLimit        = 20
	DefaultMaxCommentPages  = 10
	DefaultBandRPS          = 2.0
	DefaultAITimeout        = "60s"
	DefaultBatchSize        = 5
	DefaultIngestionLimit   = 20
	DefaultDatabaseDriver   = DriverMemory
	DefaultDatabaseMaxConns = 10
	DefaultListenPort       = 2443
)

// newDefaultConfig 설정 파일에 값이 없을 때 사용할 기본값을 반환합니다.
func newDefaultConfig() AppConfig {
	return AppConfig{
		HTTPRetry: HTTPRetryConfig{
			MaxRetries: DefaultMaxRetries,
			RetryDelay: DefaultRetryDelay,
		},
		Band: BandConfig{
			BaseURL:           DefaultBandBaseURL,
			Locale:            DefaultBandLocale,
			PageLimit:         DefaultPageLimit,
			MaxCommentPages:   DefaultMaxCommentPages,
			RequestsPerSecond: DefaultBandRPS,
		},
		AI: AIConfig{
			Timeout: DefaultAITimeout,
		},
		Ingestion: IngestionConfig{
			BatchSize:    DefaultBatchSize,
			DefaultLimit: DefaultIngestionLimit,
		},
		Database: DatabaseConfig{
			Driver:   DefaultDatabaseDriver,
			MaxConns: DefaultDatabaseMaxConns,
		},
		API: APIConfig{
			WS:   WSConfig{ListenPort: DefaultListenPort},
			CORS: CORSConfig{AllowOrigins: []string{"*"}},
		},
	}
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	if err := k.Load(structs.Provider(newDefaultConfig(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. .env 파일 로드 (이미 설정된 환경 변수는 덮어쓰지 않음)
	if err := loadDotEnv(filepath.Join(filepath.Dir(filename), DotEnvFilename)); err != nil {
		return nil, err
	}

	// 3. JSON 설정 파일 로드
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 4. 환경 변수 로드 (최우선 순위)
	if err := k.Load(env.Provider(EnvPrefix, ".", normalizeEnvKey), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 5. 구조체 언마샬링 (구조체에 없는 키는 에러)
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 6. 유효성 검사
	if err := appConfig.validate(newValidator()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}

// loadDotEnv .env 파일이 있으면 프로세스 환경 변수로 읽어 들입니다. 파일이 없으면 아무 일도 하지 않습니다.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.System, fmt.Sprintf(".env 파일 확인에 실패했습니다: '%s'", path))
	}
	if err := godotenv.Load(path); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf(".env 파일 형식이 올바르지 않습니다: '%s'", path))
	}
	return nil
}

// normalizeEnvKey 환경 변수 이름을 koanf 키 경로로 변환합니다.
// 접두사를 제거하고 소문자로 바꾼 뒤, 이중 언더스코어(__)를 점(.)으로 변환합니다.
func normalizeEnvKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}
