// Package pacing implements a token bucket pacer that spaces keyword searches
// so collection stays inside the crawler service's tolerated request volume.
package pacing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Config holds pacer configuration.
type Config struct {
	// SearchInterval is the minimum spacing between keyword searches. Zero
	// disables pacing.
	SearchInterval time.Duration
	// Burst allows this many back-to-back searches before spacing applies.
	Burst int
}

// Pacer enforces a minimum interval between searches.
type Pacer struct {
	limiter *rate.Limiter
}

// New creates a Pacer.
func New(cfg Config) *Pacer {
	r := rate.Inf
	if cfg.SearchInterval > 0 {
		r = rate.Every(cfg.SearchInterval)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(r, burst)}
}

// Wait blocks until the next search slot, respecting the context. It returns
// the delay that was imposed so callers can log pacing stalls.
func (p *Pacer) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("pacing wait: %w", err)
	}
	return time.Since(start), nil
}
