package switchboard

import (
	"fmt"
	"time"
)

// Endpoint is one configured backend model endpoint the dispatcher can route
// a request to. Endpoints are owned by the configuration and are read-only
// after construction.
type Endpoint struct {
	// Unique name of the endpoint. E.g., "openai-gpt4o"
	Name string `yaml:"name" json:"name"`

	// Provider key used to look up the wire client in the registry. E.g., "openai"
	Provider string `yaml:"provider" json:"provider"`

	// Model identifier sent on the wire. E.g., "gpt-4o"
	Model string `yaml:"model" json:"model"`

	// Base URL of the endpoint. E.g., "https://api.openai.com/v1"
	BaseUrl string `yaml:"base_url" json:"base_url"`

	// Environment variable name for the API key. E.g., "OPENAI_API_KEY"
	ApiKeyEnv string `yaml:"api_key_env" json:"api_key_env"`

	// Number of attempts allowed against this endpoint per request.
	// Zero means the endpoint is configured but never attempted.
	MaxRetry int `yaml:"max_retry" json:"max_retry"`

	// Fixed interval between retries of transient failures. E.g., "2s"
	RetryInterval string `yaml:"retry_interval" json:"retry_interval"`

	// What the endpoint can handle. Payload builders consult this to shape
	// the wire payload per endpoint.
	Capabilities Capabilities `yaml:"capabilities" json:"capabilities"`

	// Provider-specific parameters merged into the wire payload as-is.
	ExtraParams map[string]any `yaml:"extra_params" json:"extra_params,omitempty"`
}

type Capabilities struct {
	// Whether the endpoint accepts image parts in messages.
	Images bool `yaml:"images" json:"images"`

	// Image formats the endpoint accepts. E.g., {"png", "jpeg"}
	ImageFormats []string `yaml:"image_formats" json:"image_formats,omitempty"`

	// Whether the endpoint supports audio transcription.
	Audio bool `yaml:"audio" json:"audio"`

	// Whether the endpoint supports tool calling.
	Tools bool `yaml:"tools" json:"tools"`

	// Whether the endpoint serves embedding requests.
	Embeddings bool `yaml:"embeddings" json:"embeddings"`
}

func (c Capabilities) SupportsImageFormat(format string) bool {
	for _, supported := range c.ImageFormats {
		if supported == format {
			return true
		}
	}
	return false
}

// ParseRetryInterval returns the retry backoff as a duration. An empty
// interval means no backoff between retries.
func (e *Endpoint) ParseRetryInterval() (time.Duration, error) {
	if e.RetryInterval == "" {
		return 0, nil
	}
	interval, err := time.ParseDuration(e.RetryInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid retry interval for endpoint %q: %v", e.Name, err)
	}
	if interval < 0 {
		return 0, fmt.Errorf("negative retry interval for endpoint %q", e.Name)
	}
	return interval, nil
}
