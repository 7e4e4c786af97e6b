// Package sumcache caches finished summaries in a key-value store, so
// re-submitting the same decision text does not burn another synthesis
// call. Cache failures degrade to a miss; they never fail the request.
package sumcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iracify/iracify/internal/db"
	"github.com/iracify/iracify/internal/domain"
)

const (
	summaryKeyPrefix = "iracify:summary:"
	gistKeyPrefix    = "iracify:gist:"
)

// store is the consumer interface for the summary cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Summarizer is the inner service this decorator wraps.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (domain.Summary, error)
	Candidates(ctx context.Context, text string) (domain.CandidateSet, error)
	Gist(ctx context.Context, text string) (domain.Gist, error)
}

// CachedSummarizer caches summaries and gists keyed by document hash and
// pipeline fingerprint.
type CachedSummarizer struct {
	inner       Summarizer
	store       store
	ttl         time.Duration
	fingerprint string
	cacheTotal  *prometheus.CounterVec
	logger      *zap.Logger
}

// New creates a caching decorator. fingerprint identifies the pipeline
// knob combination so a knob change invalidates old entries. cacheTotal
// is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Summarizer,
	s store,
	ttl time.Duration,
	fingerprint string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSummarizer {
	return &CachedSummarizer{
		inner:       inner,
		store:       s,
		ttl:         ttl,
		fingerprint: fingerprint,
		cacheTotal:  cacheTotal,
		logger:      logger,
	}
}

// Summarize returns a cached summary or calls the inner service.
func (c *CachedSummarizer) Summarize(ctx context.Context, text string) (domain.Summary, error) {
	key := c.key(summaryKeyPrefix, text)

	if data, ok := c.getFromCache(ctx, key); ok {
		var sum domain.Summary
		if err := json.Unmarshal(data, &sum); err == nil {
			c.incCache("hit")
			return sum, nil
		}
		c.logger.Warn("Failed to decode cached summary", zap.String("key", key))
	}
	c.incCache("miss")

	sum, err := c.inner.Summarize(ctx, text)
	if err != nil {
		return domain.Summary{}, err
	}

	c.putToCache(ctx, key, sum)
	return sum, nil
}

// Candidates is pure preprocessing; cheap enough to never cache.
func (c *CachedSummarizer) Candidates(ctx context.Context, text string) (domain.CandidateSet, error) {
	return c.inner.Candidates(ctx, text)
}

// Gist returns a cached gist or calls the inner service.
func (c *CachedSummarizer) Gist(ctx context.Context, text string) (domain.Gist, error) {
	key := c.key(gistKeyPrefix, text)

	if data, ok := c.getFromCache(ctx, key); ok {
		var g domain.Gist
		if err := json.Unmarshal(data, &g); err == nil {
			c.incCache("hit")
			return g, nil
		}
		c.logger.Warn("Failed to decode cached gist", zap.String("key", key))
	}
	c.incCache("miss")

	g, err := c.inner.Gist(ctx, text)
	if err != nil {
		return domain.Gist{}, err
	}

	c.putToCache(ctx, key, g)
	return g, nil
}

func (c *CachedSummarizer) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedSummarizer) key(prefix, text string) string {
	h := sha256.Sum256([]byte(c.fingerprint + "\x00" + text))
	return prefix + hex.EncodeToString(h[:])
}

func (c *CachedSummarizer) getFromCache(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached summary", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (c *CachedSummarizer) putToCache(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode summary for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache summary", zap.String("key", key), zap.Error(err))
	}
}
