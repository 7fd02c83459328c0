// Package reconciler decides, for each PIM style, whether its products
// already exist in the target catalog and creates or updates them to
// match. Oversized styles become one product per size, linked through a
// grouping reference that is created before the first partition.
package reconciler

import (
	"context"

	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/internal/textnorm"
	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
	"github.com/agentstation/pimsync/pkg/pim"
)

// Catalog is the slice of the target catalog the reconciler needs.
type Catalog interface {
	SearchProducts(ctx context.Context, query string) ([]shopify.Product, error)
	CreateProduct(ctx context.Context, in shopify.ProductInput) (*shopify.Product, error)
	UpdateProduct(ctx context.Context, in shopify.ProductInput) (*shopify.Product, error)
	BulkCreateVariants(ctx context.Context, productID string, variants []shopify.VariantInput) ([]shopify.Variant, error)
	BulkUpdateVariants(ctx context.Context, productID string, variants []shopify.VariantInput) ([]shopify.Variant, error)
}

// Reconciler reconciles PIM styles against the target catalog. It holds
// per-run state and is not safe for concurrent use.
type Reconciler struct {
	catalog         Catalog
	groups          GroupStore
	pacer           *wait.Pacer
	vendor          string
	status          string
	splitThreshold  int
	categories      map[string]string
	groupDefinition string
}

// New creates a Reconciler.
func New(catalog Catalog, opts ...Option) (*Reconciler, error) {
	if catalog == nil {
		return nil, &errors.ValidationError{Field: "catalog", Message: "cannot be nil"}
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{
		catalog:        catalog,
		groups:         o.groups,
		pacer:          o.pacer,
		vendor:         o.vendor,
		status:         o.status,
		splitThreshold: o.splitThreshold,
		categories:     o.categories,
	}, nil
}

// Plan returns the listings group is reconciled as.
func (r *Reconciler) Plan(g pim.ProductGroup) []pim.Listing {
	return pim.Plan(g, r.splitThreshold)
}

// ReconcileGroup reconciles every listing of g. Unpublished styles are
// skipped without touching the catalog. A split style gets its grouping
// reference first and each partition product is linked to it as soon as
// it exists. A listing that fails is recorded and the next one proceeds.
func (r *Reconciler) ReconcileGroup(ctx context.Context, g pim.ProductGroup) *GroupResult {
	ctx = logging.WithStyle(ctx, g.Style.ID)
	logger := logging.FromContext(ctx)
	res := &GroupResult{Style: g.Style}

	if !g.Published() {
		logger.Info().Msg("Skipping unpublished style")
		res.Skipped = true
		for _, l := range r.Plan(g) {
			res.Listings = append(res.Listings, &ReconcileResult{Listing: l, Action: ActionSkipped})
		}
		return res
	}

	listings := r.Plan(g)
	if len(listings) > 1 {
		ref, err := r.EnsureGroup(ctx, g.Style)
		if err != nil {
			logger.Error().Err(err).Msg("Style group unavailable, partitions will not be linked")
			res.Errors = append(res.Errors, err)
		}
		res.Group = ref
	}

	for _, l := range listings {
		out, err := r.Reconcile(ctx, l)
		if err != nil {
			logger.Error().Err(err).Str("listing", l.Title).Msg("Listing reconciliation failed")
			res.Errors = append(res.Errors, err)
			continue
		}
		if res.Group != nil {
			if err := r.LinkGroup(ctx, res.Group, out.ProductID()); err != nil {
				out.Errors = append(out.Errors, err)
			}
		}
		res.Listings = append(res.Listings, out)
	}
	return res
}

// Reconcile updates the listing's existing product or creates it.
func (r *Reconciler) Reconcile(ctx context.Context, l pim.Listing) (*ReconcileResult, error) {
	existing, strategy, err := r.Find(ctx, l)
	switch {
	case err == nil:
		return r.update(ctx, l, existing, strategy)
	case errors.IsNoMatch(err):
		return r.create(ctx, l)
	default:
		return nil, err
	}
}

// Locate finds the existing products of g without changing anything.
// Listings without a product are reported through errors matching
// errors.ErrNoMatch.
func (r *Reconciler) Locate(ctx context.Context, g pim.ProductGroup) ([]*ReconcileResult, []error) {
	var out []*ReconcileResult
	var errs []error
	for _, l := range r.Plan(g) {
		p, strategy, err := r.Find(ctx, l)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, &ReconcileResult{Listing: l, Action: ActionSkipped, Product: p, Strategy: strategy})
	}
	return out, errs
}

func (r *Reconciler) update(ctx context.Context, l pim.Listing, existing *shopify.Product, strategy string) (*ReconcileResult, error) {
	logger := logging.FromContext(ctx).With().Str("product_id", existing.ID).Str("strategy", strategy).Logger()

	in := r.productInput(l)
	in.ID = existing.ID
	if err := r.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	if _, err := r.catalog.UpdateProduct(ctx, in); err != nil {
		return nil, errors.WrapResource("update", "product", existing.ID, err)
	}
	logger.Info().Str("title", l.Title).Msg("Updated product")

	vs := r.syncVariants(ctx, existing, combinations(l))
	product := *existing
	product.Variants = joinVariants(vs)
	return &ReconcileResult{
		Listing:          l,
		Action:           ActionUpdated,
		Product:          &product,
		Strategy:         strategy,
		VariantsCreated:  len(vs.created),
		VariantsUpdated:  len(vs.updated),
		CategoryAssigned: in.Category != "",
		Errors:           vs.errs,
	}, nil
}

func (r *Reconciler) create(ctx context.Context, l pim.Listing) (*ReconcileResult, error) {
	in := r.productInput(l)
	in.Handle = l.Handle
	in.Status = r.status
	in.ProductOptions = productOptions(l)

	if err := r.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	created, err := r.catalog.CreateProduct(ctx, in)
	if err != nil {
		return nil, errors.WrapResource("create", "product", l.Title, err)
	}
	logging.FromContext(ctx).Info().Str("product_id", created.ID).Str("title", l.Title).Msg("Created product")

	// the platform materializes one variant on create; it is filled in
	// rather than duplicated
	vs := r.syncVariants(ctx, created, combinations(l))
	product := *created
	product.Variants = joinVariants(vs)
	return &ReconcileResult{
		Listing:          l,
		Action:           ActionCreated,
		Product:          &product,
		VariantsCreated:  len(vs.created) + len(vs.updated),
		CategoryAssigned: in.Category != "",
		Errors:           vs.errs,
	}, nil
}

func (r *Reconciler) productInput(l pim.Listing) shopify.ProductInput {
	vendor := l.Style.Brand
	if vendor == "" {
		vendor = r.vendor
	}
	productType := l.Style.Type
	if productType == "" {
		productType = l.Style.Category
	}
	return shopify.ProductInput{
		Title:           l.Title,
		DescriptionHTML: l.Style.Description,
		Vendor:          vendor,
		ProductType:     productType,
		Tags:            l.Style.Tags,
		Category:        r.category(l.Style),
	}
}

// category maps the style's PIM category, then its type, to a taxonomy ID.
func (r *Reconciler) category(s pim.Style) string {
	for _, k := range []string{s.Category, s.Type} {
		if k == "" {
			continue
		}
		if id, ok := r.categories[textnorm.Fold(k)]; ok {
			return id
		}
	}
	return ""
}

func joinVariants(vs variantSync) []shopify.Variant {
	out := make([]shopify.Variant, 0, len(vs.updated)+len(vs.created)+len(vs.existing))
	out = append(out, vs.updated...)
	out = append(out, vs.created...)
	return append(out, vs.existing...)
}
