package engine

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/nexscan/nexscan/internal/metrics"
)

// limiter gates probe launches to a global probes-per-second budget shared by
// all workers. Waiters are served in FIFO order, so no worker can starve.
type limiter struct {
	rl *rate.Limiter
}

// newLimiter builds a limiter for perSecond probe launches. A perSecond of
// zero disables limiting entirely.
func newLimiter(perSecond int) *limiter {
	if perSecond <= 0 {
		return &limiter{}
	}
	// A small burst smooths scheduling jitter without letting the observed
	// rate drift measurably above the configured budget.
	burst := perSecond / 10
	if burst < 1 {
		burst = 1
	}
	return &limiter{rl: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// acquire blocks until one probe launch is permitted or ctx is done.
func (l *limiter) acquire(ctx context.Context) error {
	if l.rl == nil {
		return ctx.Err()
	}
	metrics.Counter(metrics.MetricRateWaits, nil)
	return l.rl.Wait(ctx)
}
