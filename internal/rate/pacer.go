package rate

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Pacer spaces outbound requests with a token bucket.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows rps requests per second with the given burst. rps <= 0
// disables pacing.
func NewPacer(rps float64, burst int) *Pacer {
	if rps <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may proceed. It fails with ErrRateLimited when
// ctx ends first or the wait would outlast the ctx deadline.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return nil
}
