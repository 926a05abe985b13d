package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"processmate/processmate/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PROCESSMATE_CONFIG", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, DefaultOpenAIBaseURL, cfg.OpenAI.BaseURL)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, types.ModeStrict, cfg.Chat.Mode)
	assert.Equal(t, "gpt-4o-mini", cfg.Chat.DefaultModel)
	assert.InDelta(t, 0.7, cfg.Chat.DefaultTemperature, 1e-9)
	assert.Equal(t, 1000, cfg.Chat.DefaultMaxTokens)
	assert.Equal(t, 60*time.Second, cfg.Chat.UpstreamTimeout)
	assert.True(t, cfg.Chat.JSONResponseFormat)
	assert.False(t, cfg.Chat.ExtractFencedJSON)
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestLoadConfigMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PROCESSMATE_CONFIG", "")

	_, err := LoadConfig("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processmate.yaml")
	content := `
server:
  addr: ":9090"
chat:
  mode: lenient
  default_model: gpt-4o
  default_max_tokens: 256
  upstream_timeout: 15s
auth:
  jwt_secret: from-file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PROCESSMATE_AUTH_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, types.ModeLenient, cfg.Chat.Mode)
	assert.Equal(t, "gpt-4o", cfg.Chat.DefaultModel)
	assert.Equal(t, 256, cfg.Chat.DefaultMaxTokens)
	assert.Equal(t, 15*time.Second, cfg.Chat.UpstreamTimeout)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoadConfigNormalizesMode(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PROCESSMATE_CONFIG", "")

	for _, raw := range []string{"Lenient", "LENIENT", " lenient "} {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("PROCESSMATE_CHAT_MODE", raw)

			cfg, err := LoadConfig("")
			require.NoError(t, err)
			assert.Equal(t, types.ModeLenient, cfg.Chat.Mode)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		Server: ServerConfig{Addr: ":8000", ReadTimeout: time.Minute},
		OpenAI: OpenAIConfig{APIKey: "sk-test"},
		Chat: ChatConfig{
			Mode:               types.ModeStrict,
			DefaultModel:       DefaultModel,
			DefaultTemperature: DefaultTemperature,
			DefaultMaxTokens:   DefaultMaxTokens,
			UpstreamTimeout:    time.Minute,
		},
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown mode", func(c *Config) { c.Chat.Mode = "chatty" }},
		{"non-canonical mode", func(c *Config) { c.Chat.Mode = "Lenient" }},
		{"zero upstream timeout", func(c *Config) { c.Chat.UpstreamTimeout = 0 }},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"negative max tokens", func(c *Config) { c.Chat.DefaultMaxTokens = -1 }},
		{"temperature too high", func(c *Config) { c.Chat.DefaultTemperature = 2.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
