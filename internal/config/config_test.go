package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gpt-4-turbo", cfg.TextModel)
	assert.Equal(t, "gpt-image-1", cfg.ImageModel)
	assert.Equal(t, "1024x1024", cfg.ImageSize)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, 240*time.Second, cfg.RequestTimeout)
	assert.Equal(t, ":8080", cfg.WebAddr)
	assert.True(t, cfg.PreferIPv4)
	assert.Empty(t, cfg.TelegramToken)
}

func TestLoadOverridesAndClamping(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("TEXT_MODEL", "gpt-4o")
	t.Setenv("MAX_ITERATIONS", "25")
	t.Setenv("MAX_CONCURRENT", "0")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "gpt-4o", cfg.TextModel)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 1, cfg.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_ITERATIONS", "many")
	t.Setenv("PREFER_IPV4", "sometimes")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxIterations)
	assert.True(t, cfg.PreferIPv4)
}
