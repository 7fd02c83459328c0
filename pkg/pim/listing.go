package pim

import (
	"github.com/agentstation/pimsync/internal/textnorm"
)

// Listing is one target-catalog product to reconcile: either a whole
// style or one size partition of a split style.
type Listing struct {
	Style   Style                 `json:"style" yaml:"style"`
	Title   string                `json:"title" yaml:"title"`
	Handle  string                `json:"handle" yaml:"handle"`
	Sizes   []Option              `json:"sizes" yaml:"sizes"`
	Colors  []Option              `json:"colors" yaml:"colors"`
	Records []SourceVariantRecord `json:"records" yaml:"records"`
	Part    *Partition            `json:"partition,omitempty" yaml:"partition,omitempty"`
}

// Partition describes a listing's place among its split siblings.
type Partition struct {
	Size  Option `json:"size" yaml:"size"`
	Index int    `json:"index" yaml:"index"`
	Total int    `json:"total" yaml:"total"`
}

// Split reports whether the listing is one partition of a split style.
func (l Listing) Split() bool {
	return l.Part != nil
}

// Images returns the listing's image descriptors, deduplicated by URL.
func (l Listing) Images() []ImageDescriptor {
	return collectImages(l.Records)
}

// Listing returns the whole group as a single product.
func (g ProductGroup) Listing() Listing {
	title := g.Style.DisplayName()
	return Listing{
		Style:   g.Style,
		Title:   title,
		Handle:  textnorm.Slug(title),
		Sizes:   g.Sizes(),
		Colors:  g.Colors(),
		Records: g.Records,
	}
}

// Listing returns the partition as a product titled "<style> - <size>".
func (p SplitProductGroup) Listing() Listing {
	title := p.Style.DisplayName() + " - " + p.Size.Name
	return Listing{
		Style:   p.Style,
		Title:   title,
		Handle:  textnorm.Slug(title),
		Sizes:   []Option{p.Size},
		Colors:  p.Colors,
		Records: p.Records,
		Part:    &Partition{Size: p.Size, Index: p.Index, Total: p.Total},
	}
}

// Plan turns a group into the listings to reconcile, splitting it by size
// when it has more than threshold records.
func Plan(g ProductGroup, threshold int) []Listing {
	parts := SplitIfOversized(g, threshold)
	if parts == nil {
		return []Listing{g.Listing()}
	}
	out := make([]Listing, len(parts))
	for i, p := range parts {
		out[i] = p.Listing()
	}
	return out
}
