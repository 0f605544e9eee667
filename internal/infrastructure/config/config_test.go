package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8040", cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 30, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, ".filemanager", cfg.State.Dir)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BACKEND_URL", "http://files.internal:8081")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "http://files.internal:8081", cfg.Backend.BaseURL)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("BACKEND_TIMEOUT", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
