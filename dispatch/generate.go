package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/switchboard-ai/switchboard"
	"github.com/switchboard-ai/switchboard/client"
	"github.com/switchboard-ai/switchboard/payload"
	"github.com/switchboard-ai/switchboard/usage"
)

type ChatOptions struct {
	Temperature    *float32
	MaxTokens      *int32
	Tools          []payload.ToolOption
	ResponseFormat *payload.ResponseFormat

	// StreamHandler, when set, receives content deltas as the backend
	// produces them. The full content is still returned on completion.
	StreamHandler client.StreamHandler
}

type ChatResult struct {
	Content   string
	Reasoning string
	ToolCalls []client.ToolCall

	// Name of the endpoint that served the request.
	Endpoint string

	// Wire-level model identifier of that endpoint.
	Model string
}

// Chat sends a plain text prompt through the dispatcher.
func (d *Dispatcher) Chat(ctx context.Context, prompt string, options *ChatOptions) (*ChatResult, error) {
	start := d.clock.Now()
	request := &Request{
		Kind: KindCompletion,
		Messages: func(switchboard.Capabilities) ([]payload.Message, error) {
			return []payload.Message{payload.NewMessageBuilder().AddText(prompt).Build()}, nil
		},
	}
	d.applyChatOptions(request, options)
	return d.finishChat(ctx, request, start)
}

// ChatWithImage sends a prompt with an attached base64-encoded image. The
// declared image format is negotiated per endpoint against its supported
// formats.
func (d *Dispatcher) ChatWithImage(ctx context.Context, prompt string, imageBase64 string, imageFormat string, options *ChatOptions) (*ChatResult, error) {
	start := d.clock.Now()
	request := &Request{
		Kind: KindCompletion,
		Messages: func(capabilities switchboard.Capabilities) ([]payload.Message, error) {
			message := payload.NewMessageBuilder().
				AddText(prompt).
				AddImage(imageBase64, imageFormat, capabilities.ImageFormats).
				Build()
			return []payload.Message{message}, nil
		},
	}
	d.applyChatOptions(request, options)
	return d.finishChat(ctx, request, start)
}

// Embed returns the embedding vector for the input and the model that
// produced it.
func (d *Dispatcher) Embed(ctx context.Context, input string) ([]float64, string, error) {
	start := d.clock.Now()
	request := &Request{Kind: KindEmbedding, EmbeddingInput: input}

	response, endpoint, err := d.Execute(ctx, request)
	if err != nil {
		return nil, "", err
	}
	if len(response.Embedding) == 0 {
		return nil, "", fmt.Errorf("endpoint %q returned no embedding", endpoint.Name)
	}

	d.recordUsage(ctx, endpoint, response, request, d.clock.Since(start))
	return response.Embedding, endpoint.Model, nil
}

// Transcribe converts base64-encoded audio to text.
func (d *Dispatcher) Transcribe(ctx context.Context, audioBase64 string) (string, error) {
	start := d.clock.Now()
	request := &Request{Kind: KindAudio, AudioBase64: audioBase64}

	response, endpoint, err := d.Execute(ctx, request)
	if err != nil {
		return "", err
	}

	d.recordUsage(ctx, endpoint, response, request, d.clock.Since(start))
	return response.Content, nil
}

func (d *Dispatcher) applyChatOptions(request *Request, options *ChatOptions) {
	if options == nil {
		return
	}
	request.Temperature = options.Temperature
	request.MaxTokens = options.MaxTokens
	request.ResponseFormat = options.ResponseFormat
	request.StreamHandler = options.StreamHandler
	request.Tools = payload.ValidateToolOptions(options.Tools, d.logger)
}

func (d *Dispatcher) finishChat(ctx context.Context, request *Request, start time.Time) (*ChatResult, error) {
	response, endpoint, err := d.Execute(ctx, request)
	if err != nil {
		return nil, err
	}

	content := response.Content
	reasoning := response.ReasoningContent
	if reasoning == "" && content != "" {
		content, reasoning = ExtractReasoning(content)
	}

	d.recordUsage(ctx, endpoint, response, request, d.clock.Since(start))

	return &ChatResult{
		Content:   content,
		Reasoning: reasoning,
		ToolCalls: response.ToolCalls,
		Endpoint:  endpoint.Name,
		Model:     endpoint.Model,
	}, nil
}

// recordUsage forwards token accounting to the recorder. Failures are logged
// and swallowed; usage bookkeeping must never fail the request.
func (d *Dispatcher) recordUsage(ctx context.Context, endpoint *switchboard.Endpoint, response *client.Response, request *Request, elapsed time.Duration) {
	if d.recorder == nil || response.Usage == nil {
		return
	}

	record := usage.Record{
		Id:               uuid.NewString(),
		Endpoint:         endpoint.Name,
		Provider:         endpoint.Provider,
		Model:            endpoint.Model,
		RequestKind:      string(request.Kind),
		EndpointPath:     request.endpointPath(),
		PromptTokens:     response.Usage.PromptTokens,
		CompletionTokens: response.Usage.CompletionTokens,
		TotalTokens:      response.Usage.TotalTokens,
		Elapsed:          elapsed,
		At:               d.clock.Now(),
	}
	if err := d.recorder.Record(ctx, record); err != nil {
		d.logger.Warnw("Failed to record usage", "endpoint", endpoint.Name, "error", err)
	}
}
