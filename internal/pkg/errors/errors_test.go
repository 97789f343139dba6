package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStd = errors.New("standard error")

// =============================================================================
// 에러 생성
// =============================================================================

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		errType ErrorType
		message string
		want    string
	}{
		{"일반 에러", Internal, "내부 오류", "[Internal] 내부 오류"},
		{"쿼터 초과", QuotaExceeded, "호출 한도 초과", "[QuotaExceeded] 호출 한도 초과"},
		{"빈 메시지", NotFound, "", "[NotFound] "},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := New(tt.errType, tt.message)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())

			var appErr *AppError
			require.True(t, As(err, &appErr))
			assert.Equal(t, tt.errType, appErr.Type())
			assert.Equal(t, tt.message, appErr.Message())
			assert.NotEmpty(t, appErr.Stack())
		})
	}
}

func TestNewf(t *testing.T) {
	t.Parallel()

	err := Newf(InvalidInput, "잘못된 수량: %d", 1000)
	assert.Equal(t, "[InvalidInput] 잘못된 수량: 1000", err.Error())
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("nil 에러는 nil을 반환한다", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Wrap(nil, Internal, "무시됨"))
		assert.Nil(t, Wrapf(nil, Internal, "무시됨 %d", 1))
	})

	t.Run("원인 에러를 메시지에 포함한다", func(t *testing.T) {
		t.Parallel()
		err := Wrap(errStd, NetworkError, "연결 실패")
		assert.Equal(t, "[NetworkError] 연결 실패: standard error", err.Error())
		assert.ErrorIs(t, err, errStd)
	})

	t.Run("Wrapf 포맷", func(t *testing.T) {
		t.Parallel()
		err := Wrapf(errStd, ExecutionFailed, "게시물(%s) 처리 실패", "post-1")
		assert.Contains(t, err.Error(), "게시물(post-1) 처리 실패")
	})
}

// =============================================================================
// 에러 체인 탐색
// =============================================================================

func TestIs(t *testing.T) {
	t.Parallel()

	base := New(QuotaExceeded, "limit")
	wrapped := Wrap(fmt.Errorf("context: %w", base), ExecutionFailed, "posts 조회 실패")

	assert.True(t, Is(wrapped, QuotaExceeded))
	assert.True(t, Is(wrapped, ExecutionFailed))
	assert.False(t, Is(wrapped, InvalidToken))
	assert.False(t, Is(errStd, Unknown))
	assert.False(t, Is(nil, Unknown))
}

func TestRootCause(t *testing.T) {
	t.Parallel()

	assert.Nil(t, RootCause(nil))
	assert.Equal(t, errStd, RootCause(errStd))

	err := Wrap(Wrap(errStd, System, "db"), PersistenceConflict, "orders")
	assert.Equal(t, errStd, RootCause(err))
}

func TestUnderlyingType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, Unknown},
		{"표준 에러", errStd, Unknown},
		{"단일 AppError", New(InvalidToken, "token"), InvalidToken},
		{"가장 안쪽 타입 우선", Wrap(New(QuotaExceeded, "limit"), ExecutionFailed, "outer"), QuotaExceeded},
		{"외부 에러를 감싼 경우", Wrap(errStd, NetworkError, "timeout"), NetworkError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, UnderlyingType(tt.err))
		})
	}
}

// =============================================================================
// 포맷 출력
// =============================================================================

func TestAppError_Format(t *testing.T) {
	t.Parallel()

	err := Wrap(New(NotFound, "inner"), Internal, "outer")

	assert.Equal(t, err.Error(), fmt.Sprintf("%s", err))
	assert.Equal(t, fmt.Sprintf("%q", err.Error()), fmt.Sprintf("%q", err))

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "[Internal] outer")
	assert.Contains(t, detailed, "Caused by:")
	assert.Contains(t, detailed, "[NotFound] inner")
	assert.Contains(t, detailed, "Stack trace:")
}
