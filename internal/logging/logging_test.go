package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskRedactsBearerToken(t *testing.T) {
	line := `request failed: Authorization: Bearer sk-abc123XYZ`
	got := mask(line)
	assert.NotEqual(t, line, got, "expected token to be masked")
	assert.Contains(t, got, "Bearer [REDACTED]")
}

func TestMaskRedactsApiKeyAndPassword(t *testing.T) {
	line := "cfg: api_key=topsecret password=hunter2"
	got := mask(line)
	assert.NotContains(t, got, "topsecret")
	assert.NotContains(t, got, "hunter2")
}

func TestMaskLeavesOrdinaryTextAlone(t *testing.T) {
	line := "indexed 12 blobs for project foo"
	assert.Equal(t, line, mask(line))
}
