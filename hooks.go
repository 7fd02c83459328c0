package pimsync

import (
	"sync"

	pkgsync "github.com/agentstation/pimsync/pkg/sync"
)

// Hook function types for run events
type (
	// ProductHook is called after a product is created, updated, skipped
	// or located by a run
	ProductHook func(runID string, rec pkgsync.ProductRecord)

	// StyleErrorHook is called when a style fails during a run
	StyleErrorHook func(runID, styleID string, err error)
)

// hooks manages event callbacks for runs
type hooks struct {
	mu           sync.RWMutex
	onProduct    []ProductHook
	onStyleError []StyleErrorHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnProduct registers a callback for touched products
func (h *hooks) OnProduct(fn ProductHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onProduct = append(h.onProduct, fn)
}

// OnStyleError registers a callback for failed styles
func (h *hooks) OnStyleError(fn StyleErrorHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onStyleError = append(h.onStyleError, fn)
}

func (h *hooks) product(runID string, rec pkgsync.ProductRecord) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onProduct {
		fn(runID, rec)
	}
}

func (h *hooks) styleError(runID, styleID string, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onStyleError {
		fn(runID, styleID, err)
	}
}
