// Package validator go-playground/validator 기반의 구조체 검증과 한국어 오류 메시지 변환을 제공합니다.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	go_validator "github.com/go-playground/validator/v10"
)

var (
	instance *go_validator.Validate
	once     sync.Once
)

// Get 애플리케이션 전역에서 공유하는 Validator 인스턴스를 반환합니다.
//
// 오류 메시지의 필드명으로 구조체 태그 `korean`의 값을 사용하며, 태그가 없으면 필드명을 그대로 사용합니다.
func Get() *go_validator.Validate {
	once.Do(func() {
		instance = go_validator.New()
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return fld.Tag.Get("korean")
		})
	})
	return instance
}

// Struct 구조체를 `validate` 태그 규칙에 따라 검증합니다.
func Struct(s any) error {
	return Get().Struct(s)
}

// FormatValidationError 검증 오류 중 첫 번째 항목을 사용자에게 보여줄 한국어 메시지로 변환합니다.
func FormatValidationError(err error) string {
	if err == nil {
		return ""
	}

	var validationErrors go_validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err.Error()
	}

	fe := validationErrors[0]
	field := fe.Field()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s는 필수입니다", field)
	case "min", "gte":
		if isString {
			return fmt.Sprintf("%s는 최소 %s자 이상이어야 합니다", field, fe.Param())
		}
		if fe.Tag() == "gte" {
			return fmt.Sprintf("%s는 %s 이상이어야 합니다", field, fe.Param())
		}
		return fmt.Sprintf("%s는 최소 %s 이상이어야 합니다", field, fe.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf("%s는 최대 %s자까지 입력 가능합니다", field, fe.Param())
		}
		if fe.Tag() == "lte" {
			return fmt.Sprintf("%s는 %s 이하이어야 합니다", field, fe.Param())
		}
		return fmt.Sprintf("%s는 최대 %s까지 입력 가능합니다", field, fe.Param())
	case "len":
		if isString {
			return fmt.Sprintf("%s는 %s자여야 합니다", field, fe.Param())
		}
		return fmt.Sprintf("%s는 갯수가 %s개여야 합니다", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s는 허용된 값 중 하나여야 합니다 [%s]", field, fe.Param())
	case "alphanum":
		return fmt.Sprintf("%s는 영문자와 숫자만 입력 가능합니다", field)
	case "boolean":
		return fmt.Sprintf("%s는 true 또는 false 값이어야 합니다", field)
	case "dive":
		return fmt.Sprintf("%s의 항목이 올바르지 않습니다", field)
	}

	return fmt.Sprintf("%s 값 검증 실패 (%s)", field, fe.Tag())
}
