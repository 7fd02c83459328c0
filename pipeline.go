package pimsync

import (
	"context"
	"fmt"

	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/attach"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/imagematch"
	"github.com/agentstation/pimsync/pkg/logging"
	"github.com/agentstation/pimsync/pkg/media"
	"github.com/agentstation/pimsync/pkg/metafields"
	"github.com/agentstation/pimsync/pkg/pim"
	"github.com/agentstation/pimsync/pkg/reconciler"
	"github.com/agentstation/pimsync/pkg/sync"
)

// ActionLocated marks products an images-only run found but did not change.
const ActionLocated = "located"

// Stage names, as they appear in log fields.
const (
	StageFetch     = "fetch"
	StageSchema    = "schema"
	StageReconcile = "reconcile"
	StageValues    = "metafields"
	StageResolve   = "resolve"
	StageAttach    = "attach"
	StageAssign    = "assign"
)

// Stage outputs. Each stage takes the output of the one before it, so a
// later stage cannot run without the artifact it depends on.
type (
	// fetched is one requested style as the PIM returned it.
	fetched struct {
		styleID string
		groups  []pim.ProductGroup
	}

	// provisioned is the metafield schema of the run. Values are only
	// written through it.
	provisioned struct {
		schema *metafields.Schema
	}

	// reconciled is a style after its products exist in the catalog.
	reconciled struct {
		group *reconciler.GroupResult
	}

	// resolvedAsset is a listing image backed by a library asset.
	resolvedAsset struct {
		name string
		ref  media.AssetRef
	}

	// resolved is one product with its images resolved to assets.
	resolved struct {
		listing *reconciler.ReconcileResult
		assets  []resolvedAsset
	}

	// attached is one product with the images now linked to it.
	attached struct {
		listing    *reconciler.ReconcileResult
		candidates []imagematch.Candidate
	}
)

// run is the state of one import. The media cache and the result are
// mutated in place, so a run is driven by a single goroutine.
type run struct {
	cfg      *config
	hooks    *hooks
	opts     *sync.Options
	result   *sync.Result
	rec      *reconciler.Reconciler
	media    *media.Cache
	attacher *attach.Engine
	matcher  *imagematch.Matcher
	fields   *metafields.Provisioner
	schema   *provisioned
}

func (e *engine) newRun(kind sync.Kind, styleIDs []string, opts []sync.Option) (*run, error) {
	o := sync.Defaults().Apply(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}

	cat := e.cfg.catalog
	pacer := wait.NewPacer(e.cfg.mutationDelay)
	rec, err := reconciler.New(cat,
		reconciler.WithGroupStore(cat),
		reconciler.WithPacer(pacer),
		reconciler.WithVendor(e.cfg.vendor),
		reconciler.WithStatus(e.cfg.status),
		reconciler.WithSplitThreshold(e.cfg.splitThreshold),
		reconciler.WithCategories(e.cfg.categories),
	)
	if err != nil {
		return nil, err
	}

	return &run{
		cfg:      e.cfg,
		hooks:    e.hooks,
		opts:     o,
		result:   sync.NewResult(kind, styleIDs),
		rec:      rec,
		media:    media.NewCache(cat, media.WithPacer(pacer)),
		attacher: attach.New(cat, attach.WithSleep(e.cfg.sleep), attach.WithPacer(pacer)),
		matcher:  imagematch.New(cat, imagematch.WithSleep(e.cfg.sleep), imagematch.WithPacer(pacer)),
		fields:   metafields.New(cat, e.cfg.namespace, metafields.WithSleep(e.cfg.sleep), metafields.WithPacer(pacer)),
	}, nil
}

// ImportStyles implements Engine.
func (e *engine) ImportStyles(ctx context.Context, styleIDs []string, opts ...sync.Option) (*sync.Result, error) {
	ids, err := sync.StyleIDs(styleIDs)
	if err != nil {
		return nil, err
	}
	r, err := e.newRun(sync.KindStyles, ids, opts)
	if err != nil {
		return nil, err
	}
	ctx = r.begin(ctx)

	for _, id := range ids {
		if r.interrupted(ctx) {
			break
		}
		f, err := r.fetch(ctx, id)
		if err != nil {
			r.styleFailed(ctx, id, err)
			continue
		}
		for _, g := range f.groups {
			r.guard(ctx, g.Style.ID, func(ctx context.Context) { r.importGroup(ctx, g) })
		}
	}
	return r.finish(ctx), nil
}

// ImportAll implements Engine.
func (e *engine) ImportAll(ctx context.Context, opts ...sync.Option) (*sync.Result, error) {
	r, err := e.newRun(sync.KindAll, nil, opts)
	if err != nil {
		return nil, err
	}
	ctx = r.begin(ctx)

	records, err := r.cfg.source.FetchAll(logging.WithStage(ctx, StageFetch))
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("PIM returned no styles")
		r.result.AddError("", err)
		return r.finish(ctx), nil
	}
	groups := pim.GroupByStyle(records)
	for _, g := range groups {
		r.result.StyleIDs = append(r.result.StyleIDs, g.Style.ID)
	}
	logging.FromContext(ctx).Info().Int("records", len(records)).Int("styles", len(groups)).Msg("Fetched catalog")

	for _, g := range groups {
		if r.interrupted(ctx) {
			break
		}
		r.guard(ctx, g.Style.ID, func(ctx context.Context) { r.importGroup(ctx, g) })
	}
	return r.finish(ctx), nil
}

// ImportImages implements Engine.
func (e *engine) ImportImages(ctx context.Context, styleIDs []string, opts ...sync.Option) (*sync.Result, error) {
	ids, err := sync.StyleIDs(styleIDs)
	if err != nil {
		return nil, err
	}
	r, err := e.newRun(sync.KindImages, ids, opts)
	if err != nil {
		return nil, err
	}
	ctx = r.begin(ctx)

	for _, id := range ids {
		if r.interrupted(ctx) {
			break
		}
		f, err := r.fetch(ctx, id)
		if err != nil {
			r.styleFailed(ctx, id, err)
			continue
		}
		for _, g := range f.groups {
			r.guard(ctx, g.Style.ID, func(ctx context.Context) { r.imagesForGroup(ctx, g) })
		}
	}
	return r.finish(ctx), nil
}

func (r *run) begin(ctx context.Context) context.Context {
	ctx = logging.WithRun(ctx, r.result.RunID)
	logging.FromContext(ctx).Info().
		Str("kind", string(r.result.Kind)).
		Strs("styles", r.result.StyleIDs).
		Str("trigger", r.opts.Trigger).
		Msg("Import started")
	return ctx
}

// interrupted reports whether the caller cancelled the run. The style in
// progress always completes; the remaining ones are not started.
func (r *run) interrupted(ctx context.Context) bool {
	if ctx.Err() == nil {
		return false
	}
	r.result.AddError("", fmt.Errorf("run interrupted: %w", ctx.Err()))
	return true
}

// guard runs one style's stages, recording a panic as that style's error.
func (r *run) guard(ctx context.Context, styleID string, fn func(context.Context)) {
	defer func() {
		if p := recover(); p != nil {
			r.styleFailed(ctx, styleID, fmt.Errorf("unexpected failure: %v", p))
		}
	}()
	fn(logging.WithStyle(ctx, styleID))
}

func (r *run) styleFailed(ctx context.Context, styleID string, err error) {
	logging.FromContext(ctx).Error().Err(err).Str("style_id", styleID).Msg("Style failed")
	r.result.AddError(styleID, err)
	r.hooks.styleError(r.result.RunID, styleID, err)
}

func (r *run) addProduct(rec sync.ProductRecord) {
	r.result.AddProduct(rec)
	r.hooks.product(r.result.RunID, rec)
}

// importGroup drives one style through every stage.
func (r *run) importGroup(ctx context.Context, g pim.ProductGroup) {
	rc := r.reconcile(ctx, g)
	if rc.group.Skipped {
		return
	}
	if !r.opts.SkipMetafields {
		r.writeValues(ctx, r.provision(ctx), rc)
	}
	if r.opts.SkipImages {
		return
	}
	for _, l := range rc.group.Listings {
		if l.ProductID() == "" {
			continue
		}
		r.images(ctx, l)
	}
}

// imagesForGroup runs the media stages against the products the style
// already has.
func (r *run) imagesForGroup(ctx context.Context, g pim.ProductGroup) {
	found, errs := r.rec.Locate(logging.WithStage(ctx, StageReconcile), g)
	for _, err := range errs {
		r.styleFailed(ctx, g.Style.ID, err)
	}
	for _, l := range found {
		r.addProduct(sync.ProductRecord{
			StyleID:   g.Style.ID,
			ProductID: l.ProductID(),
			Title:     l.Listing.Title,
			Action:    ActionLocated,
		})
		r.images(ctx, l)
	}
}

// images runs resolve, attach and assign for one product.
func (r *run) images(ctx context.Context, l *reconciler.ReconcileResult) {
	ctx = logging.WithProduct(ctx, l.ProductID())
	r.assign(ctx, r.attach(ctx, r.resolve(ctx, l)))
}

// fetch asks the PIM for one style.
func (r *run) fetch(ctx context.Context, styleID string) (fetched, error) {
	ctx = logging.WithStage(logging.WithStyle(ctx, styleID), StageFetch)
	groups, err := r.cfg.source.FetchStyle(ctx, styleID)
	if err != nil {
		return fetched{}, err
	}
	if len(groups) == 0 {
		return fetched{}, errors.NewNotFoundError("style", styleID)
	}
	logging.FromContext(ctx).Debug().Int("groups", len(groups)).Msg("Fetched style")
	return fetched{styleID: styleID, groups: groups}, nil
}

// provision ensures the metafield definitions exist, once per run. Failed
// definitions are reported and their values skipped; the rest are still
// written.
func (r *run) provision(ctx context.Context) *provisioned {
	if r.schema != nil {
		return r.schema
	}
	ctx = logging.WithStage(ctx, StageSchema)
	logger := logging.FromContext(ctx)

	groupDef, err := r.rec.GroupDefinition(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Style group definition unavailable, style_group will not be provisioned")
		r.result.AddError("schema", err)
	}
	schema, err := r.fields.EnsureDefinitions(ctx, metafields.ProductDefinitions(groupDef))
	if err != nil {
		r.result.AddError("schema", err)
	}
	r.schema = &provisioned{schema: schema}
	return r.schema
}

// reconcile creates or updates the style's products and records them.
func (r *run) reconcile(ctx context.Context, g pim.ProductGroup) reconciled {
	gr := r.rec.ReconcileGroup(logging.WithStage(ctx, StageReconcile), g)
	for _, l := range gr.Listings {
		r.addProduct(sync.ProductRecord{
			StyleID:   g.Style.ID,
			ProductID: l.ProductID(),
			Title:     l.Listing.Title,
			Action:    string(l.Action),
		})
		r.result.VariantsCreated += l.VariantsCreated
		r.result.VariantsUpdated += l.VariantsUpdated
		if l.CategoryAssigned {
			r.result.CategoriesAssigned++
		}
		for _, err := range l.Errors {
			r.result.AddError(g.Style.ID, err)
		}
	}
	for _, err := range gr.Errors {
		r.styleFailed(ctx, g.Style.ID, err)
	}
	return reconciled{group: gr}
}

// writeValues tags every product of the style with its style code and,
// for split styles, its style group.
func (r *run) writeValues(ctx context.Context, p *provisioned, rc reconciled) {
	ctx = logging.WithStage(ctx, StageValues)
	gr := rc.group
	for _, l := range gr.Listings {
		id := l.ProductID()
		if id == "" {
			continue
		}
		values := []metafields.Value{{Key: metafields.KeyStyleCode, Value: gr.Style.ID}}
		if gr.Group != nil {
			values = append(values, metafields.Value{Key: metafields.KeyStyleGroup, Value: gr.Group.ID})
		}
		res := r.fields.WriteValues(logging.WithProduct(ctx, id), p.schema, id, values)
		r.result.MetafieldsCreated += res.Written
		for _, err := range res.Errors {
			r.result.AddError(gr.Style.ID, err)
		}
	}
}

// resolve finds or uploads the asset of every listing image.
func (r *run) resolve(ctx context.Context, l *reconciler.ReconcileResult) resolved {
	ctx = logging.WithStage(ctx, StageResolve)
	out := resolved{listing: l}
	seen := make(map[string]bool)
	for _, img := range l.Listing.Images() {
		name := img.Name()
		entry := r.result.Image(name, img.URL)
		ref, err := r.media.Resolve(ctx, img)
		if err != nil {
			if entry.Action == "" {
				entry.Action = sync.ImageFailed
			}
			r.result.AddError(l.Listing.Style.ID, errors.WrapResource("resolve", "image", name, err))
			continue
		}
		if ref.Action == media.ActionUploaded {
			r.result.ImagesUploaded++
		}
		if entry.Action == "" || entry.Action == sync.ImageFailed {
			entry.Action = sync.ImageAction(ref.Action)
			entry.AssetID = ref.ID
		}
		if seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		out.assets = append(out.assets, resolvedAsset{name: name, ref: ref})
	}
	return out
}

// attach links every resolved asset to the product.
func (r *run) attach(ctx context.Context, rs resolved) attached {
	ctx = logging.WithStage(ctx, StageAttach)
	out := attached{listing: rs.listing}
	productID := rs.listing.ProductID()
	for _, a := range rs.assets {
		entry := r.result.Image(a.name, a.ref.SourceURL)
		entry.Expected++
		if !r.attacher.Attach(ctx, a.ref.ID, productID) {
			r.result.AddError(rs.listing.Listing.Style.ID,
				fmt.Errorf("image %s could not be attached to product %s", a.name, productID))
			continue
		}
		entry.Succeeded++
		out.candidates = append(out.candidates, imagematch.Candidate{
			AssetID:  a.ref.ID,
			FileName: a.name,
			Alt:      a.ref.Alt,
		})
	}
	return out
}

// assign gives every variant without a main image the image of its color.
func (r *run) assign(ctx context.Context, at attached) {
	if len(at.candidates) == 0 {
		return
	}
	ctx = logging.WithStage(ctx, StageAssign)
	logger := logging.FromContext(ctx)
	styleID := at.listing.Listing.Style.ID

	if err := r.cfg.sleep(ctx, r.cfg.settleWait); err != nil {
		r.result.AddError(styleID, err)
		return
	}
	product, err := r.cfg.catalog.GetProduct(ctx, at.listing.ProductID())
	if err != nil {
		r.result.AddError(styleID, err)
		return
	}

	target := imagematch.Product{ID: product.ID, StyleID: styleID, Images: at.candidates}
	for _, v := range product.Variants {
		label, ok := colorLabel(at.listing.Listing, v)
		if !ok {
			logger.Debug().Str("variant_id", v.ID).Msg("Variant has no color, not assigning an image")
			continue
		}
		target.Variants = append(target.Variants, imagematch.Variant{ID: v.ID, Color: label, HasImage: v.HasImage()})
	}

	report := r.matcher.Apply(ctx, target)
	r.result.ImagesAssigned += len(report.Assigned)
	for _, err := range report.Errors {
		r.result.AddError(styleID, err)
	}
}

// colorLabel is the label a variant's color is matched on. Labels that
// carry no color code get the PIM code appended.
func colorLabel(l pim.Listing, v shopify.Variant) (string, bool) {
	label := v.Option(reconciler.OptionColor)
	c, ok := reconciler.ColorOf(l, v)
	if !ok {
		return label, label != ""
	}
	if label == "" {
		label = c.Name
	}
	if _, has := imagematch.ExtractColorCode(label); !has && c.Code != "" {
		label += " - " + c.Code
	}
	return label, label != ""
}

// finish stamps the result and persists it. Persisting survives a
// cancelled run.
func (r *run) finish(ctx context.Context) *sync.Result {
	r.result.Finish()
	logger := logging.FromContext(ctx)
	if err := r.cfg.runLog.Save(context.WithoutCancel(ctx), r.result); err != nil {
		logger.Error().Err(err).Msg("Run log could not be saved")
		r.result.AddError("runlog", err)
	}
	if missing := r.result.IncompleteImages(); len(missing) > 0 {
		logger.Warn().Strs("images", missing).Msg("Images not attached everywhere")
	}
	logger.Info().
		Dur("duration", r.result.Duration()).
		Int("errors", len(r.result.Errors)).
		Msg("Import finished: " + r.result.Summary())
	return r.result
}
