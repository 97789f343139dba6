// Package maputil 맵 데이터를 구조체로 변환하는 유틸리티를 제공합니다.
package maputil

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Option Decode 동작을 조정하는 함수형 옵션입니다.
type Option func(*decodingConfig)

type decodingConfig struct {
	tagName          string
	weaklyTypedInput bool
	errorUnused      bool
}

// WithTagName 필드 매핑에 사용할 구조체 태그를 지정합니다. (기본값: json)
func WithTagName(tagName string) Option {
	return func(c *decodingConfig) { c.tagName = tagName }
}

// WithErrorUnused 구조체에 없는 키가 입력에 있으면 에러로 처리합니다.
func WithErrorUnused(enable bool) Option {
	return func(c *decodingConfig) { c.errorUnused = enable }
}

// WithWeaklyTypedInput "3" -> 3, "true" -> true 같은 느슨한 변환 허용 여부를 지정합니다. (기본값: true)
func WithWeaklyTypedInput(enable bool) Option {
	return func(c *decodingConfig) { c.weaklyTypedInput = enable }
}

// Decode 입력 맵을 T 타입 구조체로 변환합니다.
//
//	opts, err := maputil.Decode[ingestion.RunOptions](req.Options, maputil.WithErrorUnused(true))
func Decode[T any](input any, opts ...Option) (*T, error) {
	output := new(T)
	if err := DecodeTo(input, output, opts...); err != nil {
		return nil, err
	}
	return output, nil
}

// DecodeTo 입력 데이터를 output에 병합합니다. output에 이미 채워진 값은 입력에 없는 한 유지됩니다.
func DecodeTo[T any](input any, output *T, opts ...Option) error {
	if output == nil {
		return errors.New("디코딩 결과를 저장할 output 포인터가 nil입니다")
	}

	cfg := &decodingConfig{tagName: "json", weaklyTypedInput: true}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          cfg.tagName,
		WeaklyTypedInput: cfg.weaklyTypedInput,
		ErrorUnused:      cfg.errorUnused,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToSliceHookFunc(),
		),
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("입력 데이터를 %T(으)로 디코딩하는 데 실패했습니다: %w", output, err)
	}
	return nil
}

// stringToSliceHookFunc "a, b" 형태의 문자열을 []string{"a", "b"}로 변환합니다.
func stringToSliceHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
			return data, nil
		}

		raw := data.(string)
		if strings.TrimSpace(raw) == "" {
			return []string{}, nil
		}

		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
}
