package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/switchboard-ai/switchboard"
	"github.com/switchboard-ai/switchboard/client"
	"github.com/switchboard-ai/switchboard/config"
	"github.com/switchboard-ai/switchboard/monitoring"
	"github.com/switchboard-ai/switchboard/payload"
	"github.com/switchboard-ai/switchboard/usage"
)

// Dispatcher routes one logical request to the cheapest configured endpoint,
// retries transient failures against it, and fails over to the next endpoint
// when attempts become unrecoverable.
type Dispatcher struct {
	// Endpoints in configuration order. Read-only after construction.
	endpoints []*switchboard.Endpoint
	byName    map[string]*switchboard.Endpoint

	// Parsed retry backoff per endpoint name.
	backoffs map[string]time.Duration

	// Wire clients keyed by provider, owned by the caller.
	registry *client.Registry

	// Shared across all concurrent requests through this dispatcher.
	scores *Scoreboard

	// Builds the once-per-request fallback payload after an oversized
	// rejection.
	compressor payload.Compressor

	// Optional; nil disables usage recording.
	recorder usage.Recorder

	// Optional; nil disables metrics.
	metrics *monitoring.Metrics

	defaultTemperature *float32
	defaultMaxTokens   *int32

	// Clock interface for backoff and elapsed time. Must use this to avoid
	// flakiness in tests.
	clock clock.Clock

	logger *zap.SugaredLogger
}

func New(cfg *config.Config, registry *client.Registry, recorder usage.Recorder, metrics *monitoring.Metrics, logger *zap.SugaredLogger) (*Dispatcher, error) {
	return newDispatcherWithClock(cfg, registry, recorder, metrics, logger, clock.New())
}

func newDispatcherWithClock(
	cfg *config.Config,
	registry *client.Registry,
	recorder usage.Recorder,
	metrics *monitoring.Metrics,
	logger *zap.SugaredLogger,
	clk clock.Clock,
) (*Dispatcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if registry == nil {
		return nil, fmt.Errorf("nil client registry")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	byName := make(map[string]*switchboard.Endpoint, len(cfg.Endpoints))
	backoffs := make(map[string]time.Duration, len(cfg.Endpoints))
	names := make([]string, 0, len(cfg.Endpoints))
	for _, endpoint := range cfg.Endpoints {
		if _, ok := registry.Get(endpoint.Provider); !ok {
			return nil, fmt.Errorf("no client registered for provider %q (endpoint %q)", endpoint.Provider, endpoint.Name)
		}
		backoff, err := endpoint.ParseRetryInterval()
		if err != nil {
			return nil, err
		}
		byName[endpoint.Name] = endpoint
		backoffs[endpoint.Name] = backoff
		names = append(names, endpoint.Name)
	}

	return &Dispatcher{
		endpoints:          cfg.Endpoints,
		byName:             byName,
		backoffs:           backoffs,
		registry:           registry,
		scores:             NewScoreboard(names),
		compressor:         payload.NewTruncatingCompressor(),
		recorder:           recorder,
		metrics:            metrics,
		defaultTemperature: cfg.DefaultTemperature,
		defaultMaxTokens:   cfg.DefaultMaxTokens,
		clock:              clk,
		logger:             logger,
	}, nil
}

// SetCompressor replaces the payload compression fallback. Must be called
// before the first request.
func (d *Dispatcher) SetCompressor(compressor payload.Compressor) {
	d.compressor = compressor
}

// Execute runs the full selection/retry/failover loop for one request and
// returns the raw response together with the endpoint that served it.
func (d *Dispatcher) Execute(ctx context.Context, request *Request) (*client.Response, *switchboard.Endpoint, error) {
	if err := request.validate(); err != nil {
		return nil, nil, err
	}

	requestId := uuid.NewString()
	start := d.clock.Now()

	failed := make(map[string]struct{})
	attempted := make([]string, 0, len(d.endpoints))
	var lastErr error

	// The compressed payload is built at most once per request and reused by
	// every later attempt, including attempts on other endpoints.
	var compressedMessages []payload.Message

	for range d.endpoints {
		name, err := d.scores.Select(failed)
		if err != nil {
			return nil, nil, err
		}
		endpoint := d.byName[name]
		d.metrics.TrackInFlight(name, 1)
		d.logger.Debugw("Selected endpoint", "request_id", requestId, "endpoint", name, "kind", request.Kind)

		response, attemptErr := func() (*client.Response, error) {
			// The in-flight mark from Select must come off on every exit
			// path, including panics and cancellation.
			defer func() {
				d.scores.Release(name)
				d.metrics.TrackInFlight(name, -1)
			}()
			return d.attemptEndpoint(ctx, requestId, endpoint, request, &compressedMessages)
		}()

		if attemptErr == nil {
			if response.Usage != nil {
				d.scores.AddTokens(name, int64(response.Usage.TotalTokens))
			}
			d.metrics.RecordRequest(name, string(request.Kind), "success", d.clock.Since(start))
			return response, endpoint, nil
		}

		d.scores.Penalize(name)
		d.metrics.RecordFailover(name)
		failed[name] = struct{}{}
		attempted = append(attempted, name)
		lastErr = attemptErr
		d.logger.Warnw("Endpoint attempt failed, failing over", "request_id", requestId, "endpoint", name, "error", attemptErr)

		// A malformed request fails identically everywhere; trying the
		// remaining endpoints would only repeat the same rejection.
		if isClientFatal(attemptErr) {
			d.logger.Errorw("Unrecoverable client error (400), aborting all attempts", "request_id", requestId, "endpoint", name)
			d.metrics.RecordRequest(name, string(request.Kind), "client_error", d.clock.Since(start))
			return nil, nil, attemptErr
		}

		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
	}

	d.logger.Errorw("All endpoints failed", "request_id", requestId, "attempted", attempted)
	d.metrics.RecordRequest("none", string(request.Kind), "exhausted", d.clock.Since(start))
	return nil, nil, &ExhaustedError{Attempted: attempted, Cause: lastErr}
}

// attemptEndpoint tries one endpoint under its retry budget. On success it
// returns the raw response; otherwise the error is always an *AttemptError.
func (d *Dispatcher) attemptEndpoint(
	ctx context.Context,
	requestId string,
	endpoint *switchboard.Endpoint,
	request *Request,
	compressedMessages *[]payload.Message,
) (*client.Response, error) {
	wireClient, ok := d.registry.Get(endpoint.Provider)
	if !ok {
		return nil, &AttemptError{Endpoint: endpoint.Name, Reason: ReasonFatal, Cause: fmt.Errorf("no client for provider %q", endpoint.Provider)}
	}

	var messages []payload.Message
	if request.Messages != nil {
		built, err := request.Messages(endpoint.Capabilities)
		if err != nil {
			return nil, &AttemptError{Endpoint: endpoint.Name, Reason: ReasonFatal, Cause: fmt.Errorf("payload factory failed: %w", err)}
		}
		messages = built
	}

	backoff := d.backoffs[endpoint.Name]
	retryRemain := endpoint.MaxRetry

	for retryRemain > 0 {
		active := messages
		if *compressedMessages != nil {
			active = *compressedMessages
		}

		response, err := d.attemptOnce(ctx, wireClient, endpoint, request, active)
		if err == nil {
			return response, nil
		}

		switch classify(err) {
		case outcomeTransient:
			retryRemain--
			if retryRemain <= 0 {
				d.logger.Errorw("Retries exhausted for endpoint", "request_id", requestId, "endpoint", endpoint.Name, "error", err)
				return nil, &AttemptError{Endpoint: endpoint.Name, Reason: ReasonRetriesExhausted, Cause: err}
			}
			d.logger.Warnw("Retryable error from endpoint", "request_id", requestId, "endpoint", endpoint.Name, "error", err, "retries_remaining", retryRemain)
			d.metrics.RecordRetry(endpoint.Name)
			if sleepErr := d.sleep(ctx, backoff); sleepErr != nil {
				return nil, &AttemptError{Endpoint: endpoint.Name, Reason: ReasonFatal, Cause: sleepErr}
			}

		case outcomePayloadTooLarge:
			// Compression is attempted once per request; a 413 on the
			// already-compressed payload is unrecoverable.
			if len(messages) > 0 && *compressedMessages == nil {
				d.logger.Warnw("Payload too large, compressing and retrying", "request_id", requestId, "endpoint", endpoint.Name)
				*compressedMessages = d.compressor.Compress(messages)
				continue
			}
			d.logger.Warnw("Payload too large after compression, giving up on endpoint", "request_id", requestId, "endpoint", endpoint.Name)
			return nil, &AttemptError{Endpoint: endpoint.Name, Reason: ReasonFatal, Cause: err}

		default:
			d.logger.Warnw("Fatal error from endpoint", "request_id", requestId, "endpoint", endpoint.Name, "error", err)
			return nil, &AttemptError{Endpoint: endpoint.Name, Reason: ReasonFatal, Cause: err}
		}
	}

	return nil, &AttemptError{Endpoint: endpoint.Name, Reason: ReasonNotAttempted, Cause: fmt.Errorf("retry budget is %d", endpoint.MaxRetry)}
}

func (d *Dispatcher) attemptOnce(
	ctx context.Context,
	wireClient client.Client,
	endpoint *switchboard.Endpoint,
	request *Request,
	messages []payload.Message,
) (*client.Response, error) {
	switch request.Kind {
	case KindEmbedding:
		return wireClient.GenerateEmbedding(ctx, endpoint, request.EmbeddingInput)
	case KindAudio:
		return wireClient.TranscribeAudio(ctx, endpoint, request.AudioBase64)
	default:
		params := &client.CompletionParams{
			Temperature:    request.Temperature,
			MaxTokens:      request.MaxTokens,
			Tools:          request.Tools,
			ResponseFormat: request.ResponseFormat,
			StreamHandler:  request.StreamHandler,
		}
		if params.Temperature == nil {
			params.Temperature = d.defaultTemperature
		}
		if params.MaxTokens == nil {
			params.MaxTokens = d.defaultMaxTokens
		}
		return wireClient.GenerateCompletion(ctx, endpoint, messages, params)
	}
}

// sleep waits for the backoff interval without blocking other requests, and
// returns early when the caller gives up.
func (d *Dispatcher) sleep(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return ctx.Err()
	}
	timer := d.clock.Timer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type outcome int

const (
	outcomeTransient outcome = iota
	outcomePayloadTooLarge
	outcomeFatal
)

// classify folds an attempt failure into the retry decision: network hiccups,
// empty bodies, 429, and 5xx are worth retrying; 413 gets the compression
// fallback; everything else ends attempts on this endpoint.
func classify(err error) outcome {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500:
			return outcomeTransient
		case httpErr.StatusCode == http.StatusRequestEntityTooLarge:
			return outcomePayloadTooLarge
		default:
			return outcomeFatal
		}
	}
	if errors.Is(err, client.ErrEmptyResponse) {
		return outcomeTransient
	}
	var netErr *client.NetworkError
	if errors.As(err, &netErr) {
		return outcomeTransient
	}
	return outcomeFatal
}

func isClientFatal(err error) bool {
	var httpErr *client.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusBadRequest
}
