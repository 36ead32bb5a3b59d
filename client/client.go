package client

import (
	"context"

	"github.com/switchboard-ai/switchboard"
	"github.com/switchboard-ai/switchboard/payload"
)

// Usage is the token accounting a backend reports for one call.
type Usage struct {
	PromptTokens     int32 `json:"prompt_tokens"`
	CompletionTokens int32 `json:"completion_tokens"`
	TotalTokens      int32 `json:"total_tokens"`
}

type ToolCall struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Response is the raw result of one successful call against an endpoint.
// Which fields are set depends on the request kind.
type Response struct {
	Content          string
	ReasoningContent string
	ToolCalls        []ToolCall
	Embedding        []float64
	Usage            *Usage
}

// StreamHandler receives each content delta as the backend produces it.
// Returning an error aborts the stream and fails the call.
type StreamHandler func(delta string) error

type CompletionParams struct {
	Temperature    *float32
	MaxTokens      *int32
	Tools          []payload.ToolOption
	ResponseFormat *payload.ResponseFormat
	StreamHandler  StreamHandler
}

// Client performs the actual wire call against one backend protocol. Every
// method reports failures as one of NetworkError, ErrEmptyResponse, or
// HTTPError so the dispatcher can classify them.
type Client interface {
	GenerateCompletion(ctx context.Context, endpoint *switchboard.Endpoint, messages []payload.Message, params *CompletionParams) (*Response, error)
	GenerateEmbedding(ctx context.Context, endpoint *switchboard.Endpoint, input string) (*Response, error)
	TranscribeAudio(ctx context.Context, endpoint *switchboard.Endpoint, audioBase64 string) (*Response, error)
}
