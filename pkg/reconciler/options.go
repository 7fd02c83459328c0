package reconciler

import (
	"github.com/agentstation/pimsync/internal/textnorm"
	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
)

// Product statuses accepted on create.
const (
	StatusActive = "ACTIVE"
	StatusDraft  = "DRAFT"
)

// options configures a reconciler.
type options struct {
	groups         GroupStore
	pacer          *wait.Pacer
	vendor         string
	status         string
	splitThreshold int
	categories     map[string]string // folded PIM type/category -> taxonomy GID
}

func defaultOptions() *options {
	return &options{
		status:         StatusActive,
		splitThreshold: constants.SplitThreshold,
		categories:     map[string]string{},
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithGroupStore sets where grouping references of split styles live.
func WithGroupStore(groups GroupStore) Option {
	return func(o *options) error {
		o.groups = groups
		return nil
	}
}

// WithPacer spaces catalog mutations.
func WithPacer(p *wait.Pacer) Option {
	return func(o *options) error {
		o.pacer = p
		return nil
	}
}

// WithVendor sets the vendor used when the PIM has no brand.
func WithVendor(vendor string) Option {
	return func(o *options) error {
		o.vendor = vendor
		return nil
	}
}

// WithStatus sets the status of created products.
func WithStatus(status string) Option {
	return func(o *options) error {
		if status != StatusActive && status != StatusDraft {
			return &errors.ValidationError{
				Field:   "status",
				Value:   status,
				Message: "must be ACTIVE or DRAFT",
			}
		}
		o.status = status
		return nil
	}
}

// WithSplitThreshold sets the record count above which a style is split by size.
func WithSplitThreshold(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return &errors.ValidationError{
				Field:   "split_threshold",
				Value:   n,
				Message: "must be positive",
			}
		}
		o.splitThreshold = n
		return nil
	}
}

// WithCategories maps PIM types or categories to taxonomy category IDs.
func WithCategories(m map[string]string) Option {
	return func(o *options) error {
		for k, v := range m {
			if v == "" {
				continue
			}
			o.categories[textnorm.Fold(k)] = v
		}
		return nil
	}
}
