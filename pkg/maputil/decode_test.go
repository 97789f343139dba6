package maputil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleOptions struct {
	Limit    int           `json:"limit"`
	UseAI    bool          `json:"use_ai"`
	Force    bool          `json:"force"`
	PostKeys []string      `json:"post_keys"`
	Timeout  time.Duration `json:"timeout"`
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("느슨한 타입 변환", func(t *testing.T) {
		t.Parallel()

		out, err := Decode[sampleOptions](map[string]any{
			"limit":     "20",
			"use_ai":    "true",
			"post_keys": "AAA, BBB ,",
			"timeout":   "30s",
		})
		require.NoError(t, err)
		assert.Equal(t, 20, out.Limit)
		assert.True(t, out.UseAI)
		assert.Equal(t, []string{"AAA", "BBB"}, out.PostKeys)
		assert.Equal(t, 30*time.Second, out.Timeout)
	})

	t.Run("알 수 없는 키는 기본적으로 무시", func(t *testing.T) {
		t.Parallel()

		out, err := Decode[sampleOptions](map[string]any{"unknown": 1, "force": true})
		require.NoError(t, err)
		assert.True(t, out.Force)
	})

	t.Run("ErrorUnused 옵션", func(t *testing.T) {
		t.Parallel()

		_, err := Decode[sampleOptions](map[string]any{"unknown": 1}, WithErrorUnused(true))
		assert.Error(t, err)
	})
}

func TestDecodeTo_Merge(t *testing.T) {
	t.Parallel()

	out := sampleOptions{Limit: 50, UseAI: true}
	require.NoError(t, DecodeTo(map[string]any{"force": true}, &out))

	assert.Equal(t, 50, out.Limit)
	assert.True(t, out.UseAI)
	assert.True(t, out.Force)

	var nilOut *sampleOptions
	assert.Error(t, DecodeTo(map[string]any{}, nilOut))
}
