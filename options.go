package pimsync

import (
	"time"

	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/reconciler"
	"github.com/agentstation/pimsync/pkg/runlog"
)

// DefaultNamespace is the metafield namespace the engine provisions.
const DefaultNamespace = "pim"

// config holds the engine configuration assembled by New.
type config struct {
	source         Source
	catalog        Catalog
	runLog         runlog.Store
	sleep          wait.Func
	mutationDelay  time.Duration
	settleWait     time.Duration
	vendor         string
	status         string
	splitThreshold int
	namespace      string
	categories     map[string]string
}

func defaultConfig() *config {
	return &config{
		runLog:         runlog.Discard{},
		sleep:          wait.Sleep,
		mutationDelay:  constants.DefaultMutationDelay,
		settleWait:     constants.MediaSettleWait,
		status:         reconciler.StatusActive,
		splitThreshold: constants.SplitThreshold,
		namespace:      DefaultNamespace,
	}
}

func (c *config) apply(opts ...Option) (*config, error) {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.source == nil {
		return nil, errors.NewConfigError("source", "a PIM source is required", nil)
	}
	if c.catalog == nil {
		return nil, errors.NewConfigError("catalog", "a target catalog is required", nil)
	}
	return c, nil
}

// Option is a function that configures an Engine
type Option func(*config) error

// WithSource sets the PIM connector styles are fetched from.
func WithSource(s Source) Option {
	return func(c *config) error {
		c.source = s
		return nil
	}
}

// WithCatalog sets the target catalog client.
func WithCatalog(cat Catalog) Option {
	return func(c *config) error {
		c.catalog = cat
		return nil
	}
}

// WithRunLog sets where run summaries are persisted. Use runlog.Multi to
// write to several stores.
func WithRunLog(s runlog.Store) Option {
	return func(c *config) error {
		if s == nil {
			s = runlog.Discard{}
		}
		c.runLog = s
		return nil
	}
}

// WithSleep replaces the function every wait and backoff goes through.
func WithSleep(f wait.Func) Option {
	return func(c *config) error {
		if f == nil {
			return &errors.ValidationError{Field: "sleep", Message: "sleep function must not be nil"}
		}
		c.sleep = f
		return nil
	}
}

// WithMutationDelay configures the pause between catalog-mutating calls.
// Zero disables pacing.
func WithMutationDelay(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return &errors.ValidationError{
				Field:   "mutationDelay",
				Value:   d,
				Message: "mutation delay must not be negative",
			}
		}
		c.mutationDelay = d
		return nil
	}
}

// WithMediaSettleWait configures the pause between attaching a product's
// images and assigning them to variants.
func WithMediaSettleWait(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return &errors.ValidationError{
				Field:   "mediaSettleWait",
				Value:   d,
				Message: "settle wait must not be negative",
			}
		}
		c.settleWait = d
		return nil
	}
}

// WithVendor sets the vendor used for styles without a brand.
func WithVendor(vendor string) Option {
	return func(c *config) error {
		c.vendor = vendor
		return nil
	}
}

// WithProductStatus sets the status new products are created with.
func WithProductStatus(status string) Option {
	return func(c *config) error {
		c.status = status
		return nil
	}
}

// WithSplitThreshold sets the record count above which a style is split by size.
func WithSplitThreshold(n int) Option {
	return func(c *config) error {
		c.splitThreshold = n
		return nil
	}
}

// WithNamespace sets the metafield namespace.
func WithNamespace(ns string) Option {
	return func(c *config) error {
		if ns == "" {
			return &errors.ValidationError{Field: "namespace", Value: ns, Message: "namespace must not be empty"}
		}
		c.namespace = ns
		return nil
	}
}

// WithCategories maps PIM types and categories to taxonomy category IDs.
func WithCategories(m map[string]string) Option {
	return func(c *config) error {
		c.categories = m
		return nil
	}
}
