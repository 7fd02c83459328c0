// Package wait holds the sleeping primitives used by retry loops and the
// mutation pacer. Engine packages take a Func so tests can record the
// requested delays instead of waiting.
package wait

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Func pauses for d or until ctx is done.
type Func func(ctx context.Context, d time.Duration) error

// Sleep is the real Func.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Recorder is a Func that only records the delays it was asked for.
type Recorder struct {
	Delays []time.Duration
}

// Sleep implements Func.
func (r *Recorder) Sleep(ctx context.Context, d time.Duration) error {
	r.Delays = append(r.Delays, d)
	return ctx.Err()
}

// Total sums every recorded delay.
func (r *Recorder) Total() time.Duration {
	var total time.Duration
	for _, d := range r.Delays {
		total += d
	}
	return total
}

// Pacer spaces catalog-mutating calls at least delay apart.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer builds a pacer. A non-positive delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next mutation may be issued.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Delay reports the configured spacing, zero when pacing is off.
func (p *Pacer) Delay() time.Duration {
	if p == nil || p.limiter.Limit() == rate.Inf {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(p.limiter.Limit()))
}
