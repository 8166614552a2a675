// Package analysiscache caches descriptor computations keyed by the audio sample.
package analysiscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

var cacheKeyPrefix = domain.KeyPrefix + "analysis_cache:"

// store is the consumer interface for the analysis cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedAnalyzer caches analysis results in a key-value store.
type CachedAnalyzer struct {
	inner      domain.Analyzer
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Analyzer,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Analyze returns a cached analysis or calls the inner analyzer.
// Cache failures degrade to a miss and never fail the request.
func (c *CachedAnalyzer) Analyze(
	ctx context.Context, audio []byte, names []descriptor.Name,
) (domain.Analysis, error) {
	key := cacheKey(audio, names)

	if a, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return a, nil
	}

	c.incCache("miss")

	a, err := c.inner.Analyze(ctx, audio, names)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("analyze audio: %w", err)
	}

	c.putToCache(ctx, key, a)
	return a, nil
}

func (c *CachedAnalyzer) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey combines the sample digest with the sorted descriptor set,
// so the same audio analysed for different descriptors is cached separately.
func cacheKey(audio []byte, names []descriptor.Name) string {
	h := sha256.Sum256(audio)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	sort.Strings(parts)
	return cacheKeyPrefix + hex.EncodeToString(h[:]) + ":" + strings.Join(parts, ",")
}

func (c *CachedAnalyzer) getFromCache(ctx context.Context, key string) (domain.Analysis, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached analysis", zap.String("key", key), zap.Error(err))
		}
		return domain.Analysis{}, false
	}
	if len(data) == 0 {
		return domain.Analysis{}, false
	}

	var a domain.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		c.logger.Warn("Failed to parse cached analysis", zap.String("key", key), zap.Error(err))
		return domain.Analysis{}, false
	}
	return a, true
}

func (c *CachedAnalyzer) putToCache(ctx context.Context, key string, a domain.Analysis) {
	data, err := json.Marshal(a)
	if err != nil {
		c.logger.Warn("Failed to encode analysis", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache analysis", zap.String("key", key), zap.Error(err))
	}
}
