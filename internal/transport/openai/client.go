// Package openai implements the synthesis collaborator boundary against
// an OpenAI-compatible chat-completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/iracify/iracify/internal/domain"
	"github.com/iracify/iracify/internal/metrics"
)

// maxTemperature caps sampling; structured extraction needs near-greedy
// decoding.
const maxTemperature = 0.2

// RetryPolicy controls the backoff-with-jitter loop around provider
// calls. The core pipeline never depends on how many attempts were made.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxJitter   time.Duration
}

// DefaultRetryPolicy mirrors the provider's recommended exponential
// backoff: 2s, 4s, 8s... capped at 20s, with up to 750ms of jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   2 * time.Second,
		MaxDelay:    20 * time.Second,
		MaxJitter:   750 * time.Millisecond,
	}
}

// Client is a synthesis provider using the OpenAI-compatible chat API.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	retry       RetryPolicy
	logger      *zap.Logger

	// Some OpenAI-compatible providers reject the json_schema
	// response_format; after the first such rejection all requests fall
	// back to prompt-only JSON. Atomic: one Client serves concurrent
	// requests.
	schemaUnsupported atomic.Bool
}

// Config holds the synthesis provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	Retry       RetryPolicy
	Logger      *zap.Logger
}

// NewClient creates an OpenAI-compatible synthesis client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	temperature := cfg.Temperature
	if temperature > maxTemperature {
		temperature = maxTemperature
	}

	return &Client{
		api:         openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: temperature,
		timeout:     timeout,
		retry:       retry,
		logger:      cfg.Logger,
	}
}

// Synthesize runs the IRAC extraction over the candidate payload and
// returns the provider's raw JSON. Validation is the caller's job: this
// layer only guarantees transport-level delivery or a typed failure.
func (c *Client) Synthesize(ctx context.Context, req domain.SynthesisRequest) ([]byte, error) {
	return c.complete(ctx, "irac", iracUserPrompt(req), "irac_schema", iracSchema)
}

// SynthesizeGist produces the short essence summary of a decision.
func (c *Client) SynthesizeGist(ctx context.Context, text string) ([]byte, error) {
	return c.complete(ctx, "gist", gistUserPrompt(text), "gist_schema", gistSchema)
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, kind, userPrompt, schemaName string, schema json.RawMessage) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		content, usage, err := c.attempt(ctx, kind, userPrompt, schemaName, schema)
		if err == nil {
			metrics.SynthesisRequestsTotal.WithLabelValues(c.model, kind, "success").Inc()
			if usage.TotalTokens > 0 {
				metrics.SynthesisTokensTotal.WithLabelValues(c.model, "prompt").Add(float64(usage.PromptTokens))
				metrics.SynthesisTokensTotal.WithLabelValues(c.model, "completion").Add(float64(usage.CompletionTokens))
				metrics.SynthesisTokensTotal.WithLabelValues(c.model, "total").Add(float64(usage.TotalTokens))
			}
			return []byte(content), nil
		}

		metrics.SynthesisRequestsTotal.WithLabelValues(c.model, kind, "error").Inc()
		lastErr = err

		if !c.schemaUnsupported.Load() && rejectsResponseFormat(err) {
			// Retry immediately without the json_schema response_format.
			c.schemaUnsupported.Store(true)
			c.logger.Warn("Provider rejected response_format, falling back to prompt-only JSON",
				zap.String("model", c.model), zap.Error(err))
			attempt--
			continue
		}

		if ctx.Err() != nil || attempt == c.retry.MaxAttempts {
			break
		}

		delay := c.backoff(attempt)
		c.logger.Warn("Synthesis attempt failed, retrying",
			zap.String("kind", kind),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("synthesis canceled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, kind, userPrompt, schemaName string, schema json.RawMessage) (string, openai.Usage, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
	}
	if !c.schemaUnsupported.Load() {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.SynthesisErrorsTotal.WithLabelValues(c.model, kind, "api_error").Inc()
		return "", openai.Usage{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.SynthesisErrorsTotal.WithLabelValues(c.model, kind, "empty_response").Inc()
		return "", openai.Usage{}, fmt.Errorf("empty completion response: %w", domain.ErrSynthesis)
	}

	metrics.SynthesisRequestDuration.WithLabelValues(c.model, kind).Observe(duration.Seconds())
	return resp.Choices[0].Message.Content, resp.Usage, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	// Double step by step instead of shifting: BaseDelay << n overflows
	// for high attempt counts.
	delay := c.retry.BaseDelay
	for i := 1; i < attempt && delay < c.retry.MaxDelay; i++ {
		delay *= 2
	}
	if delay > c.retry.MaxDelay {
		delay = c.retry.MaxDelay
	}
	if c.retry.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(c.retry.MaxJitter)))
	}
	return delay
}

// rejectsResponseFormat detects providers that do not implement the
// json_schema response_format parameter.
func rejectsResponseFormat(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 400 {
		return strings.Contains(strings.ToLower(apiErr.Message), "response_format")
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == 400 {
		return strings.Contains(strings.ToLower(string(reqErr.Body)), "response_format")
	}
	return false
}

// parseAPIError classifies an API failure. Rate limits map to
// domain.ErrRateLimited, everything else to domain.ErrSynthesis, for
// correct status mapping at the HTTP layer. The provider error stays in
// the chain: rejectsResponseFormat inspects it with errors.As.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return fmt.Errorf("synthesis API error %d: %w: %w", apiErr.HTTPStatusCode, err, domain.ErrRateLimited)
		}
		return fmt.Errorf("synthesis API error %d: %w: %w", apiErr.HTTPStatusCode, err, domain.ErrSynthesis)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 429 {
			return fmt.Errorf("synthesis API error %d: %w: %w", reqErr.HTTPStatusCode, err, domain.ErrRateLimited)
		}
		return fmt.Errorf("synthesis API error %d: %w: %w", reqErr.HTTPStatusCode, err, domain.ErrSynthesis)
	}

	return fmt.Errorf("synthesis request failed: %w: %w", err, domain.ErrSynthesis)
}
