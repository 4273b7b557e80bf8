package tmdb

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"vibecheck/movieservice/internal/metrics"
)

// DefaultMinInterval is the minimum spacing between two provider calls.
const DefaultMinInterval = 250 * time.Millisecond

// Throttle spaces outbound provider calls process-wide. Callers queue
// rather than fail; a single permit is issued per interval.
type Throttle struct {
	limiter  *rate.Limiter
	interval time.Duration
}

func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	return &Throttle{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Wait blocks until the next call is permitted or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	startedAt := time.Now()
	err := t.limiter.Wait(ctx)
	metrics.ThrottleWaitSeconds.Observe(time.Since(startedAt).Seconds())
	return err
}
