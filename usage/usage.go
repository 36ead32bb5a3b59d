package usage

import (
	"context"
	"time"
)

// Record is one usage report for a completed call. Recording is best-effort:
// the dispatcher logs and swallows recorder failures.
type Record struct {
	// Unique identifier of the record.
	Id string `json:"id"`

	// Name of the endpoint that served the call. E.g., "openai-gpt4o"
	Endpoint string `json:"endpoint"`

	// Provider key of the endpoint. E.g., "openai"
	Provider string `json:"provider"`

	// Wire-level model identifier. E.g., "gpt-4o"
	Model string `json:"model"`

	// Logical request type. E.g., "completion", "embedding", "audio"
	RequestKind string `json:"request_kind"`

	// API path the call went to. E.g., "/chat/completions"
	EndpointPath string `json:"endpoint_path"`

	PromptTokens     int32 `json:"prompt_tokens"`
	CompletionTokens int32 `json:"completion_tokens"`
	TotalTokens      int32 `json:"total_tokens"`

	// Wall-clock time the whole request took, including retries and failover.
	Elapsed time.Duration `json:"elapsed_ns"`

	At time.Time `json:"at"`
}

type Recorder interface {
	Record(ctx context.Context, record Record) error
}
