package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/switchboard-ai/switchboard"
	"github.com/switchboard-ai/switchboard/client"
	"github.com/switchboard-ai/switchboard/payload"
	"github.com/switchboard-ai/switchboard/utils/env"
)

// Client speaks the OpenAI-compatible HTTP protocol. One instance serves any
// number of endpoints; per-endpoint base URL and API key come from the
// endpoint configuration on each call.
type Client struct {
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

func NewClient(logger *zap.SugaredLogger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageUrl *imageUrl `json:"image_url,omitempty"`
}

type imageUrl struct {
	Url string `json:"url"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type chatCompletionRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    *float32      `json:"temperature,omitempty"`
	MaxTokens      *int32        `json:"max_tokens,omitempty"`
	Tools          []chatTool    `json:"tools,omitempty"`
	ResponseFormat any           `json:"response_format,omitempty"`
	Stream         bool          `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
			ToolCalls        []struct {
				Id       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage *client.Usage `json:"usage"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *client.Usage `json:"usage"`
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Usage *client.Usage `json:"usage"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *Client) GenerateCompletion(ctx context.Context, endpoint *switchboard.Endpoint, messages []payload.Message, params *client.CompletionParams) (*client.Response, error) {
	request := chatCompletionRequest{
		Model:    endpoint.Model,
		Messages: toChatMessages(messages),
	}
	if params != nil {
		request.Temperature = params.Temperature
		request.MaxTokens = params.MaxTokens
		request.Tools = toChatTools(params.Tools)
		request.ResponseFormat = toResponseFormat(params.ResponseFormat)
		request.Stream = params.StreamHandler != nil
	}

	body, err := marshalWithExtraParams(request, endpoint.ExtraParams)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	if request.Stream {
		return c.streamCompletion(ctx, endpoint, body, params.StreamHandler)
	}

	responseBody, err := c.post(ctx, endpoint, "chat/completions", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(responseBody, &completion); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	if len(completion.Choices) == 0 {
		return nil, client.ErrEmptyResponse
	}

	message := completion.Choices[0].Message
	if message.Content == "" && message.ReasoningContent == "" && len(message.ToolCalls) == 0 {
		return nil, client.ErrEmptyResponse
	}

	response := &client.Response{
		Content:          message.Content,
		ReasoningContent: message.ReasoningContent,
		Usage:            completion.Usage,
	}
	for _, call := range message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, client.ToolCall{
			Id:        call.Id,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return response, nil
}

func (c *Client) GenerateEmbedding(ctx context.Context, endpoint *switchboard.Endpoint, input string) (*client.Response, error) {
	body, err := json.Marshal(embeddingRequest{Model: endpoint.Model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	responseBody, err := c.post(ctx, endpoint, "embeddings", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var embedding embeddingResponse
	if err := json.Unmarshal(responseBody, &embedding); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	if len(embedding.Data) == 0 || len(embedding.Data[0].Embedding) == 0 {
		return nil, client.ErrEmptyResponse
	}

	return &client.Response{
		Embedding: embedding.Data[0].Embedding,
		Usage:     embedding.Usage,
	}, nil
}

func (c *Client) TranscribeAudio(ctx context.Context, endpoint *switchboard.Endpoint, audioBase64 string) (*client.Response, error) {
	audioData, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio data: %v", err)
	}

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	filePart, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %v", err)
	}
	if _, err := filePart.Write(audioData); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %v", err)
	}
	if err := writer.WriteField("model", endpoint.Model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %v", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %v", err)
	}

	responseBody, err := c.post(ctx, endpoint, "audio/transcriptions", writer.FormDataContentType(), &buffer)
	if err != nil {
		return nil, err
	}

	var transcription transcriptionResponse
	if err := json.Unmarshal(responseBody, &transcription); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	if transcription.Text == "" {
		return nil, client.ErrEmptyResponse
	}

	return &client.Response{Content: transcription.Text}, nil
}

func (c *Client) streamCompletion(ctx context.Context, endpoint *switchboard.Endpoint, body []byte, handler client.StreamHandler) (*client.Response, error) {
	httpResponse, err := c.do(ctx, endpoint, "chat/completions", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	response := &client.Response{}
	scanner := bufio.NewScanner(httpResponse.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Warnw("Skipping malformed stream chunk", "endpoint", endpoint.Name, "error", err)
			continue
		}
		if chunk.Usage != nil {
			response.Usage = chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		response.Content += delta.Content
		response.ReasoningContent += delta.ReasoningContent
		if delta.Content != "" {
			if err := handler(delta.Content); err != nil {
				return nil, fmt.Errorf("stream handler failed: %v", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &client.NetworkError{Err: err}
	}

	if response.Content == "" && response.ReasoningContent == "" {
		return nil, client.ErrEmptyResponse
	}
	return response, nil
}

func (c *Client) post(ctx context.Context, endpoint *switchboard.Endpoint, path string, contentType string, body io.Reader) ([]byte, error) {
	httpResponse, err := c.do(ctx, endpoint, path, contentType, body)
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	responseBody, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, &client.NetworkError{Err: err}
	}
	return responseBody, nil
}

func (c *Client) do(ctx context.Context, endpoint *switchboard.Endpoint, path string, contentType string, body io.Reader) (*http.Response, error) {
	endpointPath, err := url.JoinPath(endpoint.BaseUrl, path)
	if err != nil {
		return nil, fmt.Errorf("failed to build endpoint path: %v", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, "POST", endpointPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	httpRequest.Header.Set("Content-Type", contentType)
	if apiKey := c.apiKey(endpoint); apiKey != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+apiKey)
	}

	c.logger.Debugw("Sending request", "endpoint", endpoint.Name, "url", endpointPath)

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, &client.NetworkError{Err: err}
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(httpResponse.Body)
		httpResponse.Body.Close()
		return nil, &client.HTTPError{StatusCode: httpResponse.StatusCode, Body: string(responseBody)}
	}
	return httpResponse, nil
}

func (c *Client) apiKey(endpoint *switchboard.Endpoint) string {
	if endpoint.ApiKeyEnv == "" {
		return ""
	}
	return env.OptionalStringVariable(endpoint.ApiKeyEnv, "")
}

func toChatMessages(messages []payload.Message) []chatMessage {
	chatMessages := make([]chatMessage, 0, len(messages))
	for _, message := range messages {
		chatMessages = append(chatMessages, chatMessage{
			Role:    message.Role,
			Content: toContent(message.Parts),
		})
	}
	return chatMessages
}

// toContent emits a bare string for text-only messages; several
// OpenAI-compatible servers reject the array form for plain text.
func toContent(parts []payload.Part) any {
	textOnly := true
	for _, part := range parts {
		if part.Type != payload.PartText {
			textOnly = false
			break
		}
	}
	if textOnly {
		text := ""
		for _, part := range parts {
			text += part.Text
		}
		return text
	}

	contentParts := make([]contentPart, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case payload.PartText:
			contentParts = append(contentParts, contentPart{Type: "text", Text: part.Text})
		case payload.PartImage:
			contentParts = append(contentParts, contentPart{
				Type: "image_url",
				ImageUrl: &imageUrl{
					Url: fmt.Sprintf("data:image/%s;base64,%s", part.ImageFormat, part.ImageBase64),
				},
			})
		}
	}
	return contentParts
}

func toChatTools(tools []payload.ToolOption) []chatTool {
	if len(tools) == 0 {
		return nil
	}
	chatTools := make([]chatTool, 0, len(tools))
	for _, tool := range tools {
		properties := map[string]any{}
		required := []string{}
		for _, param := range tool.Params {
			property := map[string]any{
				"type":        string(param.Type),
				"description": param.Description,
			}
			if len(param.Enum) > 0 {
				property["enum"] = param.Enum
			}
			properties[param.Name] = property
			if param.Required {
				required = append(required, param.Name)
			}
		}
		chatTools = append(chatTools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return chatTools
}

func toResponseFormat(format *payload.ResponseFormat) any {
	if format == nil {
		return nil
	}
	wire := map[string]any{"type": format.Type}
	if format.Type == "json_schema" {
		wire["json_schema"] = format.JsonSchema
	}
	return wire
}

func marshalWithExtraParams(request chatCompletionRequest, extraParams map[string]any) ([]byte, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	if len(extraParams) == 0 {
		return body, nil
	}

	var merged map[string]any
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, err
	}
	for key, value := range extraParams {
		merged[key] = value
	}
	return json.Marshal(merged)
}
