package dispatch

import (
	"fmt"

	"github.com/switchboard-ai/switchboard"
	"github.com/switchboard-ai/switchboard/client"
	"github.com/switchboard-ai/switchboard/payload"
)

type RequestKind string

const (
	KindCompletion RequestKind = "completion"
	KindEmbedding  RequestKind = "embedding"
	KindAudio      RequestKind = "audio"
)

// MessageFactory builds the message list for a chosen endpoint. It runs once
// per endpoint tried, so the payload shape can depend on what that endpoint
// supports (e.g., which image formats it accepts).
type MessageFactory func(capabilities switchboard.Capabilities) ([]payload.Message, error)

// Request is one logical call through the dispatcher.
type Request struct {
	Kind RequestKind

	// Required for KindCompletion.
	Messages MessageFactory

	Temperature    *float32
	MaxTokens      *int32
	Tools          []payload.ToolOption
	ResponseFormat *payload.ResponseFormat
	StreamHandler  client.StreamHandler

	// Required for KindEmbedding.
	EmbeddingInput string

	// Required for KindAudio.
	AudioBase64 string
}

func (r *Request) validate() error {
	switch r.Kind {
	case KindCompletion:
		if r.Messages == nil {
			return fmt.Errorf("completion request without a message factory")
		}
	case KindEmbedding:
		if r.EmbeddingInput == "" {
			return fmt.Errorf("embedding request without input")
		}
	case KindAudio:
		if r.AudioBase64 == "" {
			return fmt.Errorf("audio request without audio data")
		}
	default:
		return fmt.Errorf("unknown request kind: %q", r.Kind)
	}
	return nil
}

func (r *Request) endpointPath() string {
	switch r.Kind {
	case KindEmbedding:
		return "/embeddings"
	case KindAudio:
		return "/audio/transcriptions"
	default:
		return "/chat/completions"
	}
}
