package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunBy_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "scheduler", RunByScheduler.String())
	assert.Equal(t, "api", RunByAPI.String())
	assert.Equal(t, "unknown", RunByUnknown.String())
	assert.Equal(t, "unknown", RunBy(42).String())
}
