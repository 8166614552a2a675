// Package analysis wraps the descriptor computation service with throttling and logging.
package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

// Limiter is the local interface for client-side throttling (golang.org/x/time/rate.Limiter).
type Limiter interface {
	Wait(ctx context.Context) error
}

// InstrumentedAnalyzer wraps an Analyzer with rate limiting and logging.
// Transport metrics (requests, duration) are recorded in transport/analysis.
type InstrumentedAnalyzer struct {
	inner   domain.Analyzer
	limiter Limiter
	logger  *zap.Logger
}

// NewInstrumentedAnalyzer wraps an analyzer. A nil limiter disables throttling.
func NewInstrumentedAnalyzer(inner domain.Analyzer, limiter Limiter, logger *zap.Logger) *InstrumentedAnalyzer {
	return &InstrumentedAnalyzer{inner: inner, limiter: limiter, logger: logger}
}

// Analyze waits for a rate-limit token, then delegates. Errors keep their type for status mapping.
func (p *InstrumentedAnalyzer) Analyze(
	ctx context.Context, audio []byte, names []descriptor.Name,
) (domain.Analysis, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.logger.Warn("Analysis rate limit wait aborted",
				zap.Int("audio_bytes", len(audio)),
				zap.Error(err),
			)
			return domain.Analysis{}, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}
	}

	start := time.Now()

	result, err := p.inner.Analyze(ctx, audio, names)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Analysis request failed",
			zap.Int("audio_bytes", len(audio)),
			zap.Strings("descriptors", nameStrings(names)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Analysis{}, fmt.Errorf("analyze: %w", err)
	}

	p.logger.Debug("Analysis request completed",
		zap.Int("audio_bytes", len(audio)),
		zap.Strings("descriptors", nameStrings(names)),
		zap.Duration("duration", duration),
	)

	return result, nil
}

func nameStrings(names []descriptor.Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
