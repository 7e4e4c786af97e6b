// Package iracify extracts IRAC-structured summaries from Dutch court
// decisions. The Client wires the deterministic preprocessing pipeline
// and the synthesis provider into a single embeddable entry point; the
// HTTP server in cmd/iracify exposes the same services over REST.
package iracify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iracify/iracify/internal/db"
	dbRedis "github.com/iracify/iracify/internal/db/redis"
	"github.com/iracify/iracify/internal/domain"
	"github.com/iracify/iracify/internal/repository/sumcache"
	openaiSynth "github.com/iracify/iracify/internal/transport/openai"
	summaryuc "github.com/iracify/iracify/internal/usecase/summary"
)

const defaultReadinessTimeout = 10 * time.Second

// Re-exported pipeline results, so callers never import internal packages.
type (
	// Summary is the full outcome of one pipeline run.
	Summary = domain.Summary
	// CandidateSet holds the ranked candidates and extracted references.
	CandidateSet = domain.CandidateSet
	// Gist is the short essence summary.
	Gist = domain.Gist
	// IracResult is the validated Issue/Rule/Application/Conclusion structure.
	IracResult = domain.IracResult
	// Candidate is one numbered fragment offered to the synthesis call.
	Candidate = domain.Candidate
	// AnnotatedBlock is one per-consideration annotation in the result.
	AnnotatedBlock = domain.AnnotatedBlock
)

// Sentinel errors, matchable with errors.Is.
var (
	ErrEmptyDocument = domain.ErrEmptyDocument
	ErrInvalidResult = domain.ErrInvalidResult
	ErrSynthesis     = domain.ErrSynthesis
	ErrRateLimited   = domain.ErrRateLimited
)

type summarizer interface {
	Summarize(ctx context.Context, text string) (domain.Summary, error)
	Candidates(ctx context.Context, text string) (domain.CandidateSet, error)
	Gist(ctx context.Context, text string) (domain.Gist, error)
}

// Client is the iracify SDK entry point.
type Client struct {
	store     db.Store
	summaries summarizer
	synth     *openaiSynth.Client
}

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float32
	timeout     time.Duration
	retry       openaiSynth.RetryPolicy

	pipeline summaryuc.Options

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	logger *zap.Logger
}

// WithAPIKey sets the synthesis provider API key (required).
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithModel selects the synthesis model.
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithTemperature sets the sampling temperature (capped internally).
func WithTemperature(t float32) Option {
	return func(c *clientConfig) { c.temperature = t }
}

// WithTimeout bounds a single synthesis attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithRetry overrides the exponential backoff policy for synthesis calls.
func WithRetry(maxAttempts int, baseDelay, maxDelay time.Duration) Option {
	return func(c *clientConfig) {
		c.retry = openaiSynth.RetryPolicy{
			MaxAttempts: maxAttempts,
			BaseDelay:   baseDelay,
			MaxDelay:    maxDelay,
		}
	}
}

// WithTopK sets how many candidate considerations are offered to the
// synthesis call.
func WithTopK(k int) Option {
	return func(c *clientConfig) { c.pipeline.TopK = k }
}

// WithScoringKeywords replaces the built-in Dutch scoring keyword set.
func WithScoringKeywords(words []string) Option {
	return func(c *clientConfig) { c.pipeline.ScoringKeywords = words }
}

// WithCache enables the Redis-backed summary cache.
func WithCache(addr, password string, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheTTL = ttl
	}
}

// WithLogger sets the zap logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}

// New creates an iracify Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.apiKey == "" {
		return nil, errors.New("iracify: api key required (use WithAPIKey)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	synth := openaiSynth.NewClient(&openaiSynth.Config{
		APIKey:      cfg.apiKey,
		BaseURL:     cfg.baseURL,
		Model:       cfg.model,
		Temperature: cfg.temperature,
		Timeout:     cfg.timeout,
		Retry:       cfg.retry,
		Logger:      cfg.logger,
	})

	svc := summaryuc.New(synth, cfg.pipeline, cfg.logger)

	var store db.Store
	var summaries summarizer = svc
	if len(cfg.cacheAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("iracify: create cache store: %w", err)
		}

		ctx := context.Background()
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("iracify: cache store not ready: %w", err)
		}

		store = s
		summaries = sumcache.New(
			svc, s, cfg.cacheTTL, svc.Options().Fingerprint(), nil, cfg.logger,
		)
	}

	return &Client{store: store, summaries: summaries, synth: synth}, nil
}

// Summarize runs the full pipeline on a decision text: normalize,
// segment, rank, synthesize, validate, guardrail.
func (c *Client) Summarize(ctx context.Context, text string) (Summary, error) {
	return c.summaries.Summarize(ctx, text)
}

// Candidates runs only the deterministic preprocessing. No synthesis
// call is made.
func (c *Client) Candidates(ctx context.Context, text string) (CandidateSet, error) {
	return c.summaries.Candidates(ctx, text)
}

// Gist produces the short essence summary.
func (c *Client) Gist(ctx context.Context, text string) (Gist, error) {
	return c.summaries.Gist(ctx, text)
}

// Ping checks synthesis provider connectivity, and the cache store when
// one is configured.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.synth.HealthCheck(ctx); err != nil {
		return fmt.Errorf("ping synthesis: %w", err)
	}
	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			return fmt.Errorf("ping cache: %w", err)
		}
	}
	return nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}
