// Package pimsync reconciles a PIM product catalog into a Shopify store.
//
// An Engine runs imports as a single sequence of stages: fetch the styles
// from the PIM, provision the metafield schema, create or update each
// product and its variants, resolve and upload images through a per-run
// media cache, attach them to the products, and assign one main image per
// variant color. Every run returns a sync.Result. Failures are recorded in
// it per style and the run continues; only a request without style codes
// fails before any network call.
//
// Example:
//
//	src, _ := pimrpc.New(pimrpc.Config{URL: pimURL, Partitions: []string{"prod"}})
//	shop, _ := shopify.New(shopify.Config{Store: "acme", AccessToken: token})
//	engine, err := pimsync.New(
//		pimsync.WithSource(src),
//		pimsync.WithCatalog(shop),
//		pimsync.WithRunLog(runlog.NewYAMLStore("runs")),
//	)
//	if err != nil {
//		return err
//	}
//	result, err := engine.ImportStyles(ctx, []string{"STTU964"})
package pimsync

import (
	"context"
	"time"

	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/pkg/attach"
	"github.com/agentstation/pimsync/pkg/imagematch"
	"github.com/agentstation/pimsync/pkg/media"
	"github.com/agentstation/pimsync/pkg/metafields"
	"github.com/agentstation/pimsync/pkg/pim"
	"github.com/agentstation/pimsync/pkg/reconciler"
	"github.com/agentstation/pimsync/pkg/sync"
)

// Compile-time interface check to ensure proper implementation.
var _ Engine = (*engine)(nil)

// Source fetches variant records from the PIM.
type Source interface {
	FetchStyle(ctx context.Context, styleID string) ([]pim.ProductGroup, error)
	FetchAll(ctx context.Context) ([]pim.SourceVariantRecord, error)
}

// Catalog is everything the engine needs from the target store.
// *shopify.Client implements it.
type Catalog interface {
	reconciler.Catalog
	reconciler.GroupStore
	metafields.Catalog
	media.Library
	attach.Linker
	imagematch.Assigner
	GetProduct(ctx context.Context, id string) (*shopify.Product, error)
}

// Engine imports PIM styles into the target catalog.
type Engine interface {
	// ImportStyles imports the given style codes.
	ImportStyles(ctx context.Context, styleIDs []string, opts ...sync.Option) (*sync.Result, error)

	// ImportAll imports every style the PIM returns.
	ImportAll(ctx context.Context, opts ...sync.Option) (*sync.Result, error)

	// ImportImages re-runs the media stages against the existing products
	// of the given styles without creating or updating products.
	ImportImages(ctx context.Context, styleIDs []string, opts ...sync.Option) (*sync.Result, error)

	// Fetch returns the PIM groups of a style without touching the catalog.
	Fetch(ctx context.Context, styleID string) ([]pim.ProductGroup, error)

	// Schedule runs ImportAll every interval until ctx is done.
	Schedule(ctx context.Context, interval time.Duration, opts ...sync.Option) error

	// OnProduct registers a callback fired for every product a run touches.
	OnProduct(fn ProductHook)

	// OnStyleError registers a callback fired for every failed style.
	OnStyleError(fn StyleErrorHook)
}

// engine is the Engine implementation.
type engine struct {
	cfg   *config
	hooks *hooks
}

// New creates an Engine. A source and a catalog are required.
func New(opts ...Option) (Engine, error) {
	cfg, err := defaultConfig().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &engine{cfg: cfg, hooks: newHooks()}, nil
}

// Fetch implements Engine.
func (e *engine) Fetch(ctx context.Context, styleID string) ([]pim.ProductGroup, error) {
	ids, err := sync.StyleIDs([]string{styleID})
	if err != nil {
		return nil, err
	}
	return e.cfg.source.FetchStyle(ctx, ids[0])
}

// OnProduct implements Engine.
func (e *engine) OnProduct(fn ProductHook) {
	e.hooks.OnProduct(fn)
}

// OnStyleError implements Engine.
func (e *engine) OnStyleError(fn StyleErrorHook) {
	e.hooks.OnStyleError(fn)
}
