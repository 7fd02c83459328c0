package reconciler

import (
	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/pkg/pim"
)

// Action is what reconciliation did to a target product.
type Action string

// Reconciliation actions.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// ReconcileResult is the outcome for one listing.
type ReconcileResult struct {
	Listing          pim.Listing
	Action           Action
	Product          *shopify.Product // nil when skipped
	Strategy         string           // search strategy that found an existing product
	VariantsCreated  int
	VariantsUpdated  int
	CategoryAssigned bool
	Errors           []error // non-fatal: variant and linking failures
}

// ProductID returns the target product ID, or "".
func (r *ReconcileResult) ProductID() string {
	if r == nil || r.Product == nil {
		return ""
	}
	return r.Product.ID
}

// GroupResult is the outcome for one style.
type GroupResult struct {
	Style    pim.Style
	Skipped  bool
	Group    *GroupRef
	Listings []*ReconcileResult
	Errors   []error // listings that could not be reconciled, group failures
}

// ProductIDs returns the target product IDs of every reconciled listing.
func (g *GroupResult) ProductIDs() []string {
	var ids []string
	for _, l := range g.Listings {
		if id := l.ProductID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Count returns how many listings ended with action a.
func (g *GroupResult) Count(a Action) int {
	n := 0
	for _, l := range g.Listings {
		if l.Action == a {
			n++
		}
	}
	return n
}
