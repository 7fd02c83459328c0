// Package runlog persists run summaries for post-run auditing. Nothing in
// the engine reads them back to make decisions.
package runlog

import (
	"context"
	"errors"

	"github.com/agentstation/pimsync/pkg/sync"
)

// Store persists run summaries.
type Store interface {
	Save(ctx context.Context, r *sync.Result) error
}

// Multi saves to every store, attempting all of them.
type Multi []Store

// Save implements Store.
func (m Multi) Save(ctx context.Context, r *sync.Result) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Save(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every summary.
type Discard struct{}

// Save implements Store.
func (Discard) Save(context.Context, *sync.Result) error { return nil }
