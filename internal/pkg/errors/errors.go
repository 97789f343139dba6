// Package errors 수집 파이프라인 전반에서 쓰는 분류형 에러를 제공합니다.
//
// 에러는 ErrorType으로 분류되고, Wrap으로 상위 계층의 설명을 덧붙여 나갑니다.
// 분류는 바깥 계층으로 전파되는 동안에도 Is, UnderlyingType으로 다시 찾을 수 있습니다.
//
//	err := errors.New(errors.NotFound, "게시물을 찾을 수 없습니다")
//	return errors.Wrap(err, errors.ExecutionFailed, "댓글 조회 실패")
//
// # 도메인 에러 분류
//
// 밴드 API 키 순환 계층:
//   - QuotaExceeded: 호출 한도 초과 (429, 403+limit, logical error: 1001)
//   - InvalidToken: 인증 실패 (unauthorized, invalid, token, result_code 2300)
//   - NetworkError: 네트워크 단절, 타임아웃
//
// QuotaExceeded, InvalidToken이면 다음 키로 넘어가고 나머지는 곧바로 호출자에게 돌아갑니다.
//
// 주문 처리 계층:
//   - ExtractionFailure: AI 추출 실패 (게시물 처리는 계속됨)
//   - PersistenceConflict: 부분 저장 후 실패 (보상 롤백 수행)
//   - MalformedComment: 댓글 키 누락 (합성 키로 복구, 치명적이지 않음)
package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// AppError 분류, 메시지, 원인 에러, 생성 위치를 함께 담는 에러입니다.
type AppError struct {
	errType ErrorType
	message string
	cause   error
	stack   []StackFrame
}

// build New, Newf, Wrap, Wrapf의 공통 생성 경로입니다.
// 스택 수집 깊이가 고정되어 있으므로 반드시 공개 생성 함수에서 직접 호출해야 합니다.
func build(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		errType: errType,
		message: message,
		cause:   cause,
		stack:   captureStack(defaultCallerSkip),
	}
}

// New errType으로 분류된 에러를 만듭니다.
func New(errType ErrorType, message string) error {
	return build(errType, message, nil)
}

// Newf New와 같고, 메시지를 포맷 문자열로 만듭니다.
func Newf(errType ErrorType, format string, args ...any) error {
	return build(errType, fmt.Sprintf(format, args...), nil)
}

// Wrap err에 분류와 메시지를 덧붙입니다. err가 nil이면 nil입니다.
func Wrap(err error, errType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	return build(errType, message, err)
}

// Wrapf Wrap과 같고, 메시지를 포맷 문자열로 만듭니다.
func Wrapf(err error, errType ErrorType, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return build(errType, fmt.Sprintf(format, args...), err)
}

func (e *AppError) Type() ErrorType     { return e.errType }
func (e *AppError) Message() string     { return e.message }
func (e *AppError) Stack() []StackFrame { return e.stack }
func (e *AppError) Unwrap() error       { return e.cause }
func (e *AppError) header() string      { return "[" + e.errType.String() + "] " + e.message }

func (e *AppError) Error() string {
	if e.cause == nil {
		return e.header()
	}
	return e.header() + ": " + e.cause.Error()
}

// Format %+v는 체인의 각 단계를 "Caused by:"로 이어 출력하고,
// 가장 안쪽 AppError에서 생성 위치를 함께 출력합니다.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		e.writeVerbose(s)
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = io.WriteString(s, e.Error())
	}
}

func (e *AppError) writeVerbose(s fmt.State) {
	_, _ = io.WriteString(s, e.header())

	var inner *AppError
	if !errors.As(e.cause, &inner) {
		writeStack(s, e.stack)
	}

	if e.cause == nil {
		return
	}
	_, _ = io.WriteString(s, "\nCaused by:\n")
	if f, ok := e.cause.(fmt.Formatter); ok {
		f.Format(s, 'v')
		return
	}
	fmt.Fprintf(s, "\t%v", e.cause)
}

func writeStack(w io.Writer, frames []StackFrame) {
	if len(frames) == 0 {
		return
	}
	_, _ = io.WriteString(w, "\nStack trace:")
	for _, f := range frames {
		fn := f.Function[strings.LastIndex(f.Function, "/")+1:]
		fmt.Fprintf(w, "\n\t%s:%d %s", f.File, f.Line, fn)
	}
}

// appErrors 체인을 바깥쪽부터 따라가며 AppError마다 visit를 호출합니다.
// visit가 false를 반환하면 순회를 멈춥니다.
func appErrors(err error, visit func(*AppError) bool) {
	for ; err != nil; err = errors.Unwrap(err) {
		if appErr, ok := err.(*AppError); ok && !visit(appErr) {
			return
		}
	}
}

// Is 체인 어딘가에 errType으로 분류된 AppError가 있는지 확인합니다.
func Is(err error, errType ErrorType) bool {
	found := false
	appErrors(err, func(e *AppError) bool {
		found = e.errType == errType
		return !found
	})
	return found
}

// As errors.As와 같습니다.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// RootCause 더 이상 Unwrap되지 않는 가장 안쪽 에러입니다.
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return err
}

// UnderlyingType 가장 안쪽 AppError의 분류입니다. AppError가 없으면 Unknown입니다.
//
// 키 순환 계층은 여러 번 래핑된 에러에서 최초 분류(QuotaExceeded 등)를 기준으로 판단합니다.
func UnderlyingType(err error) ErrorType {
	last := Unknown
	appErrors(err, func(e *AppError) bool {
		last = e.errType
		return true
	})
	return last
}
