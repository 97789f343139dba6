package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tempFile := filepath.Join(t.TempDir(), "existing_file")
	require.NoError(t, os.WriteFile(tempFile, []byte("x"), 0644))

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"정상", Options{Name: "app"}, ""},
		{"Name 누락", Options{}, "식별자(Name)"},
		{"디렉토리 위치에 파일 존재", Options{Name: "app", Dir: tempFile}, "이미 파일로 존재"},
		{"음수 보관 정책", Options{Name: "app", MaxAge: -1}, "0 이상"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPresets(t *testing.T) {
	t.Parallel()

	prod := NewProductionConfig("band-order-server")
	assert.Equal(t, InfoLevel, prod.Level)
	assert.True(t, prod.EnableCriticalLog)
	assert.False(t, prod.EnableConsoleLog)

	dev := NewDevelopmentConfig("band-order-server")
	assert.Equal(t, TraceLevel, dev.Level)
	assert.True(t, dev.EnableConsoleLog)
}

func TestMaskSensitiveData(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", MaskSensitiveData(""))
	assert.Equal(t, "***", MaskSensitiveData("abc"))
	assert.Equal(t, "abcd***", MaskSensitiveData("abcdefgh"))
	assert.Equal(t, "ZQAA***wxyz", MaskSensitiveData("ZQAAAbcdefghijklmnopqrstuvwxyz"))
}

func TestWithComponentAndFields(t *testing.T) {
	t.Parallel()

	fields := Fields{"post_key": "AAA"}
	entry := WithComponentAndFields("ingestion", fields)

	assert.Equal(t, "ingestion", entry.Data["component"])
	assert.Equal(t, "AAA", entry.Data["post_key"])
	assert.NotContains(t, fields, "component", "원본 Fields는 변경되지 않아야 합니다")
}

func TestStandardLogger(t *testing.T) {
	t.Parallel()

	assert.Same(t, logrus.StandardLogger(), StandardLogger())
}
