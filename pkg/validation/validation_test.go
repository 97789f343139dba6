package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCORSOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		origin  string
		wantErr bool
	}{
		{"*", false},
		{"https://example.com", false},
		{"http://localhost:3000", false},
		{"http://127.0.0.1:8080", false},
		{"", true},
		{"https://example.com/", true},
		{"ftp://example.com", true},
		{"https://example.com/path", true},
		{"https://example.com?q=1", true},
		{"https://user@example.com", true},
		{"https://example.com:70000", true},
		{"https://-bad.com", true},
		{"https://example.123", true},
	}

	for _, tt := range tests {
		err := ValidateCORSOrigin(tt.origin)
		if tt.wantErr {
			assert.Error(t, err, tt.origin)
		} else {
			assert.NoError(t, err, tt.origin)
		}
	}
}

func TestValidateEndpointURL(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateEndpointURL("https://openapi.band.us"))
	assert.NoError(t, ValidateEndpointURL("http://localhost:3000/api/ai/comment-analysis"))
	assert.Error(t, ValidateEndpointURL("/api/ai/comment-analysis"))
	assert.Error(t, ValidateEndpointURL("ws://example.com"))
}
