package pimsync

import (
	"context"
	"time"

	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
	"github.com/agentstation/pimsync/pkg/sync"
)

// Schedule implements Engine. The first import starts after one interval.
// Runs never overlap: a run that outlasts the interval delays the next
// tick. Schedule returns nil once ctx is done.
func (e *engine) Schedule(ctx context.Context, interval time.Duration, opts ...sync.Option) error {
	if interval <= 0 {
		return &errors.ValidationError{
			Field:   "interval",
			Value:   interval,
			Message: "schedule interval must be positive",
		}
	}
	opts = append([]sync.Option{sync.WithTrigger("schedule")}, opts...)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := logging.FromContext(ctx)
	logger.Info().Dur("interval", interval).Msg("Scheduled imports started")
	for {
		select {
		case <-ticker.C:
			result, err := e.ImportAll(ctx, opts...)
			if err != nil {
				// Invalid run options fail every tick the same way
				return err
			}
			if result.HasErrors() {
				logger.Warn().Str("run_id", result.RunID).Int("errors", len(result.Errors)).Msg("Scheduled import finished with errors")
			}
		case <-ctx.Done():
			logger.Info().Msg("Scheduled imports stopped")
			return nil
		}
	}
}
