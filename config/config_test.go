package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/switchboard-ai/switchboard"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	logger := zap.NewNop().Sugar()

	t.Run("parses a full config", func(t *testing.T) {
		path := writeConfig(t, `
default_temperature: 0.7
default_max_tokens: 1024
valkey_endpoint: localhost:6379
endpoints:
  - name: primary
    provider: openai
    model: gpt-4o
    base_url: https://api.openai.com/v1
    api_key_env: OPENAI_API_KEY
    max_retry: 3
    retry_interval: 2s
    capabilities:
      images: true
      image_formats: [png, jpeg]
      tools: true
  - name: fallback
    provider: openai
    model: deepseek-chat
    base_url: https://api.deepseek.com/v1
    api_key_env: DEEPSEEK_API_KEY
    max_retry: 2
    retry_interval: 500ms
    extra_params:
      top_k: 40
`)
		config, err := Load(path, logger)
		require.NoError(t, err)

		require.Len(t, config.Endpoints, 2)
		assert.Equal(t, "primary", config.Endpoints[0].Name)
		assert.Equal(t, 3, config.Endpoints[0].MaxRetry)
		assert.True(t, config.Endpoints[0].Capabilities.Images)
		assert.True(t, config.Endpoints[0].Capabilities.SupportsImageFormat("png"))
		assert.False(t, config.Endpoints[0].Capabilities.SupportsImageFormat("webp"))
		assert.EqualValues(t, 40, config.Endpoints[1].ExtraParams["top_k"])
		assert.Equal(t, "localhost:6379", config.ValkeyEndpoint)
		require.NotNil(t, config.DefaultTemperature)
		assert.InDelta(t, 0.7, *config.DefaultTemperature, 0.001)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("VALKEY_ENDPOINT", "valkey.internal:6379")
		path := writeConfig(t, `
valkey_endpoint: localhost:6379
endpoints:
  - name: only
    provider: openai
    model: gpt-4o
    max_retry: 1
`)
		config, err := Load(path, logger)
		require.NoError(t, err)
		assert.Equal(t, "valkey.internal:6379", config.ValkeyEndpoint)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), logger)
		assert.Error(t, err)
	})

	t.Run("no endpoints fails", func(t *testing.T) {
		_, err := Load(writeConfig(t, `endpoints: []`), logger)
		assert.Error(t, err)
	})

	t.Run("duplicate endpoint names fail", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
endpoints:
  - name: twice
    provider: openai
    model: gpt-4o
  - name: twice
    provider: openai
    model: gpt-4o-mini
`), logger)
		assert.Error(t, err)
	})

	t.Run("bad retry interval fails", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
endpoints:
  - name: only
    provider: openai
    model: gpt-4o
    retry_interval: eventually
`), logger)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("negative max_retry fails", func(t *testing.T) {
		config := &Config{Endpoints: []*switchboard.Endpoint{
			{Name: "a", Provider: "openai", MaxRetry: -1},
		}}
		assert.Error(t, config.Validate())
	})

	t.Run("missing provider fails", func(t *testing.T) {
		config := &Config{Endpoints: []*switchboard.Endpoint{{Name: "a"}}}
		assert.Error(t, config.Validate())
	})
}
