package config

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/switchboard-ai/switchboard"
	"github.com/switchboard-ai/switchboard/utils/env"
)

// Config represents the full dispatcher configuration
type Config struct {
	// Ordered list of backend endpoints the dispatcher may route to.
	Endpoints []*switchboard.Endpoint `yaml:"endpoints"`

	// Temperature applied to completion requests that do not set one.
	DefaultTemperature *float32 `yaml:"default_temperature"`

	// Token cap applied to completion requests that do not set one.
	DefaultMaxTokens *int32 `yaml:"default_max_tokens"`

	// Valkey (open-source version of Redis) endpoint to persist usage records.
	// E.g., localhost:6379. Empty keeps usage recording in memory.
	ValkeyEndpoint string `yaml:"valkey_endpoint"`
}

// Load reads the configuration from a local path or an HTTP(S) URL
func Load(path string, logger *zap.SugaredLogger) (*Config, error) {
	config := Config{}

	// Checks if config is specified via environment variable.
	configSource := env.OptionalStringVariable("CONFIG_SOURCE", path)
	configToken := env.OptionalStringVariable("CONFIG_TOKEN", "")
	configData, err := func(configSource string, configToken string) ([]byte, error) {
		if strings.HasPrefix(configSource, "http://") || strings.HasPrefix(configSource, "https://") {
			logger.Infow("Fetching remote config", "url", configSource)
			return fetchRemoteConfig(configSource, configToken)
		}
		logger.Infow("Loading local config", "path", configSource)
		return os.ReadFile(configSource)
	}(configSource, configToken)

	if err != nil {
		return nil, fmt.Errorf("failed to get config data: %v", err)
	}

	if err := yaml.Unmarshal(configData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	// Environment variables precede the values from the YAML file.
	config.ValkeyEndpoint = env.OptionalStringVariable("VALKEY_ENDPOINT", config.ValkeyEndpoint)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("no endpoints configured")
	}

	seen := map[string]bool{}
	for _, endpoint := range c.Endpoints {
		if endpoint.Name == "" {
			return fmt.Errorf("endpoint with empty name")
		}
		if seen[endpoint.Name] {
			return fmt.Errorf("duplicate endpoint name: %s", endpoint.Name)
		}
		seen[endpoint.Name] = true

		if endpoint.Provider == "" {
			return fmt.Errorf("endpoint %q has no provider", endpoint.Name)
		}
		if endpoint.MaxRetry < 0 {
			return fmt.Errorf("endpoint %q has negative max_retry", endpoint.Name)
		}
		if _, err := endpoint.ParseRetryInterval(); err != nil {
			return err
		}
	}
	return nil
}

func fetchRemoteConfig(url string, token string) ([]byte, error) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch config: HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
