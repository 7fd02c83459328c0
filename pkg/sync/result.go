package sync

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
)

// Kind identifies what a run imported.
type Kind string

// Run kinds.
const (
	KindStyles Kind = "styles"
	KindAll    Kind = "all"
	KindImages Kind = "images"
)

// ImageAction is how a run obtained the asset for an image.
type ImageAction string

// Image actions.
const (
	ImageReusedFromCache   ImageAction = "reused-from-cache"
	ImageReusedFromLibrary ImageAction = "reused-from-library"
	ImageUploaded          ImageAction = "uploaded-new"
	ImageFailed            ImageAction = "failed"
)

// Result is the run summary handed back to the caller. It is created
// with NewResult and is always fully initialized, so stages record into
// it without checks.
type Result struct {
	RunID      string   `json:"run_id" yaml:"run_id"`
	Kind       Kind     `json:"kind" yaml:"kind"`
	StyleIDs   []string `json:"style_ids,omitempty" yaml:"style_ids,omitempty"`
	StartedAt  utc.Time `json:"started_at" yaml:"started_at"`
	FinishedAt utc.Time `json:"finished_at" yaml:"finished_at"`

	ProductsCreated    int `json:"products_created" yaml:"products_created"`
	ProductsUpdated    int `json:"products_updated" yaml:"products_updated"`
	ProductsSkipped    int `json:"products_skipped" yaml:"products_skipped"`
	VariantsCreated    int `json:"variants_created" yaml:"variants_created"`
	VariantsUpdated    int `json:"variants_updated" yaml:"variants_updated"`
	ImagesUploaded     int `json:"images_uploaded" yaml:"images_uploaded"`
	ImagesAssigned     int `json:"images_assigned" yaml:"images_assigned"`
	MetafieldsCreated  int `json:"metafields_created" yaml:"metafields_created"`
	CategoriesAssigned int `json:"categories_assigned" yaml:"categories_assigned"`

	Products []ProductRecord          `json:"products,omitempty" yaml:"products,omitempty"`
	Errors   []string                 `json:"errors" yaml:"errors"`
	ImageLog map[string]*AttachmentLog `json:"image_log" yaml:"image_log"`
}

// ProductRecord lists one target product a run touched.
type ProductRecord struct {
	StyleID   string `json:"style_id" yaml:"style_id"`
	ProductID string `json:"product_id" yaml:"product_id"`
	Title     string `json:"title" yaml:"title"`
	Action    string `json:"action" yaml:"action"`
}

// AttachmentLog audits one image: how its asset was obtained and how many
// of the products it belongs to it was linked to.
type AttachmentLog struct {
	FileName  string      `json:"file_name" yaml:"file_name"`
	SourceURL string      `json:"source_url" yaml:"source_url"`
	Action    ImageAction `json:"action" yaml:"action"`
	AssetID   string      `json:"asset_id,omitempty" yaml:"asset_id,omitempty"`
	Expected  int         `json:"expected" yaml:"expected"`
	Succeeded int         `json:"succeeded" yaml:"succeeded"`
}

// Complete reports whether every expected attachment succeeded.
func (l *AttachmentLog) Complete() bool {
	return l.Action != ImageFailed && l.Succeeded >= l.Expected
}

// NewResult starts the summary of a run.
func NewResult(kind Kind, styleIDs []string) *Result {
	return &Result{
		RunID:     uuid.NewString(),
		Kind:      kind,
		StyleIDs:  styleIDs,
		StartedAt: utc.Now(),
		Errors:    []string{},
		ImageLog:  map[string]*AttachmentLog{},
	}
}

// AddError records a failure scoped to a style. An empty scope records a
// run-level error.
func (r *Result) AddError(scope string, err error) {
	if err == nil {
		return
	}
	if scope == "" {
		r.Errors = append(r.Errors, err.Error())
		return
	}
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", scope, err))
}

// AddProduct records a product the run created, updated or skipped.
func (r *Result) AddProduct(rec ProductRecord) {
	switch rec.Action {
	case "created":
		r.ProductsCreated++
	case "updated":
		r.ProductsUpdated++
	case "skipped":
		r.ProductsSkipped++
	}
	r.Products = append(r.Products, rec)
}

// Image returns the attachment log of fileName, creating it on first use.
func (r *Result) Image(fileName, sourceURL string) *AttachmentLog {
	if l, ok := r.ImageLog[fileName]; ok {
		return l
	}
	l := &AttachmentLog{FileName: fileName, SourceURL: sourceURL}
	r.ImageLog[fileName] = l
	return l
}

// Finish stamps the end of the run.
func (r *Result) Finish() {
	r.FinishedAt = utc.Now()
}

// Duration is how long the run took, zero while it is running.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// HasErrors reports whether anything failed.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// IncompleteImages returns the file names of images that were not linked
// to every product they belong to, sorted.
func (r *Result) IncompleteImages() []string {
	var names []string
	for name, l := range r.ImageLog {
		if !l.Complete() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	parts := []string{
		fmt.Sprintf("%d created, %d updated, %d skipped products", r.ProductsCreated, r.ProductsUpdated, r.ProductsSkipped),
		fmt.Sprintf("%d created, %d updated variants", r.VariantsCreated, r.VariantsUpdated),
	}
	if len(r.ImageLog) > 0 || r.ImagesUploaded > 0 {
		parts = append(parts, fmt.Sprintf("%d images (%d uploaded, %d assigned)", len(r.ImageLog), r.ImagesUploaded, r.ImagesAssigned))
	}
	if r.MetafieldsCreated > 0 {
		parts = append(parts, fmt.Sprintf("%d metafields", r.MetafieldsCreated))
	}
	if r.CategoriesAssigned > 0 {
		parts = append(parts, fmt.Sprintf("%d categories", r.CategoriesAssigned))
	}
	summary := strings.Join(parts, ", ")
	if r.HasErrors() {
		summary += fmt.Sprintf(" (%d errors)", len(r.Errors))
	}
	return summary
}
