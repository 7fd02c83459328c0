// Package attach links uploaded media assets to catalog entities. Freshly
// uploaded files stay unattachable until the platform finishes processing
// them, so every link is retried on "not ready" responses.
package attach

import (
	"context"
	"time"

	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
)

// Linker adds a file reference to an owner entity.
type Linker interface {
	AddFileReferences(ctx context.Context, fileID string, ownerIDs ...string) error
}

// Engine attaches assets with the retry policy below:
//
//   - an unconditional wait before the first attempt
//   - "already" in a user error counts as success
//   - "processing"/"non-ready" waits attempt*NotReadyBackoff and retries
//   - any other user error fails immediately
//   - transport errors wait attempt*TransportBackoff and retry
type Engine struct {
	linker           Linker
	sleep            wait.Func
	pacer            *wait.Pacer
	maxAttempts      int
	initialWait      time.Duration
	notReadyBackoff  time.Duration
	transportBackoff time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithSleep replaces the wait function.
func WithSleep(f wait.Func) Option {
	return func(e *Engine) {
		if f != nil {
			e.sleep = f
		}
	}
}

// WithPacer spaces attachment mutations.
func WithPacer(p *wait.Pacer) Option {
	return func(e *Engine) {
		e.pacer = p
	}
}

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithInitialWait overrides the pause before the first attempt.
func WithInitialWait(d time.Duration) Option {
	return func(e *Engine) {
		e.initialWait = d
	}
}

// New creates an Engine.
func New(linker Linker, opts ...Option) *Engine {
	e := &Engine{
		linker:           linker,
		sleep:            wait.Sleep,
		maxAttempts:      constants.AttachMaxAttempts,
		initialWait:      constants.AttachInitialWait,
		notReadyBackoff:  constants.AttachNotReadyBackoff,
		transportBackoff: constants.AttachTransportBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Attach links assetID to targetID and reports whether the link exists
// afterwards.
func (e *Engine) Attach(ctx context.Context, assetID, targetID string) bool {
	logger := logging.FromContext(ctx).With().
		Str("asset_id", assetID).
		Str("target_id", targetID).
		Logger()

	if err := e.sleep(ctx, e.initialWait); err != nil {
		return false
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := e.pacer.Wait(ctx); err != nil {
			return false
		}
		err := e.linker.AddFileReferences(ctx, assetID, targetID)
		if err == nil {
			logger.Debug().Int("attempt", attempt).Msg("asset attached")
			return true
		}
		lastErr = err

		var backoff time.Duration
		if ue, ok := errors.AsUserErrors(err); ok {
			switch {
			case ue.Contains("already"):
				logger.Debug().Int("attempt", attempt).Msg("asset already attached")
				return true
			case errors.IsNotReady(err):
				backoff = time.Duration(attempt) * e.notReadyBackoff
			default:
				logger.Error().Err(err).Int("attempt", attempt).Msg("asset attachment rejected")
				return false
			}
		} else {
			backoff = time.Duration(attempt) * e.transportBackoff
		}

		if attempt == e.maxAttempts {
			break
		}
		logger.Debug().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("asset not attachable yet")
		if err := e.sleep(ctx, backoff); err != nil {
			return false
		}
	}

	logger.Warn().Err(lastErr).Int("attempts", e.maxAttempts).Msg("asset attachment gave up")
	return false
}
