// Package pim models product data as it arrives from the PIM: flat variant
// records, the style groups they form, and the per-size partitions that
// oversized styles are split into before they reach the target catalog.
package pim

import (
	"path"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agentstation/pimsync/internal/textnorm"
)

// SourceVariantRecord is one sellable size/color row of a style.
type SourceVariantRecord struct {
	StyleID          string            `json:"style_id" yaml:"style_id"`
	StyleName        string            `json:"style_name" yaml:"style_name"`
	Type             string            `json:"type,omitempty" yaml:"type,omitempty"`
	Category         string            `json:"category,omitempty" yaml:"category,omitempty"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Brand            string            `json:"brand,omitempty" yaml:"brand,omitempty"`
	Tags             []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	StylePublished   bool              `json:"style_published" yaml:"style_published"`
	VariantPublished bool              `json:"variant_published" yaml:"variant_published"`
	ColorName        string            `json:"color_name,omitempty" yaml:"color_name,omitempty"`
	ColorCode        string            `json:"color_code,omitempty" yaml:"color_code,omitempty"`
	SizeName         string            `json:"size_name,omitempty" yaml:"size_name,omitempty"`
	SizeCode         string            `json:"size_code,omitempty" yaml:"size_code,omitempty"`
	Weight           float64           `json:"weight,omitempty" yaml:"weight,omitempty"` // grams
	Price            decimal.Decimal   `json:"price" yaml:"price"`
	Images           []ImageDescriptor `json:"images,omitempty" yaml:"images,omitempty"`
}

// Size returns the record's size label, falling back to its size code.
func (r SourceVariantRecord) Size() Option {
	name := strings.TrimSpace(r.SizeName)
	code := strings.TrimSpace(r.SizeCode)
	if name == "" {
		name = code
	}
	return Option{Name: name, Code: code}
}

// Color returns the record's color label and code.
func (r SourceVariantRecord) Color() Option {
	name := strings.TrimSpace(r.ColorName)
	code := strings.TrimSpace(r.ColorCode)
	if name == "" {
		name = code
	}
	return Option{Name: name, Code: code}
}

// SKU derives the record's variant SKU.
func (r SourceVariantRecord) SKU() string {
	return SKU(r.StyleID, r.Color(), r.Size())
}

// Option is one value of the Size or Color product option.
type Option struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code,omitempty" yaml:"code,omitempty"`
}

// Key identifies the option value regardless of label spelling.
func (o Option) Key() string {
	if o.Code != "" {
		return strings.ToUpper(o.Code)
	}
	return textnorm.Fold(o.Name)
}

// IsZero reports whether the option carries no value.
func (o Option) IsZero() bool {
	return o.Name == "" && o.Code == ""
}

// skuPart is the code, or the label compacted when no code exists.
func (o Option) skuPart() string {
	if o.Code != "" {
		return strings.ToUpper(o.Code)
	}
	return strings.ToUpper(strings.Join(textnorm.Words(o.Name), ""))
}

// SKU is styleID + colorCode + sizeCode. It is deterministic and not
// deduplicated: two combinations may derive the same SKU.
func SKU(styleID string, color, size Option) string {
	return strings.ToUpper(strings.TrimSpace(styleID)) + color.skuPart() + size.skuPart()
}

// ImageDescriptor is one photo the PIM lists for a variant.
type ImageDescriptor struct {
	URL            string `json:"url" yaml:"url"`
	FileName       string `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	Alt            string `json:"alt,omitempty" yaml:"alt,omitempty"`
	StyleID        string `json:"style_id,omitempty" yaml:"style_id,omitempty"`
	StyleName      string `json:"style_name,omitempty" yaml:"style_name,omitempty"`
	ColorCode      string `json:"color_code,omitempty" yaml:"color_code,omitempty"`
	PhotoTypeCode  string `json:"photo_type_code,omitempty" yaml:"photo_type_code,omitempty"`
	PhotoStyle     string `json:"photo_style,omitempty" yaml:"photo_style,omitempty"`
	PhotoShootCode string `json:"photo_shoot_code,omitempty" yaml:"photo_shoot_code,omitempty"`
}

// Name returns the file name, derived from the URL path when absent.
func (d ImageDescriptor) Name() string {
	if d.FileName != "" {
		return d.FileName
	}
	p := d.URL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// Stem is the file name without its extension.
func (d ImageDescriptor) Stem() string {
	name := d.Name()
	return strings.TrimSuffix(name, path.Ext(name))
}

// DedupKey identifies the physical photo a descriptor denotes.
type DedupKey struct {
	value  string
	strong bool
}

// String renders the key.
func (k DedupKey) String() string { return k.value }

// Strong reports whether the key was built from the full photo tuple
// rather than the style name alone.
func (k DedupKey) Strong() bool { return k.strong }

// IsZero reports an empty key.
func (k DedupKey) IsZero() bool { return k.value == "" }

// DedupKey builds (styleId, colorCode, photoTypeCode, photoStyle,
// photoShootCode) when the style and color are known, else styleName.
func (d ImageDescriptor) DedupKey() DedupKey {
	if d.StyleID != "" && d.ColorCode != "" {
		parts := []string{d.StyleID, d.ColorCode, d.PhotoTypeCode, d.PhotoStyle, d.PhotoShootCode}
		for i, p := range parts {
			parts[i] = strings.ToUpper(strings.TrimSpace(p))
		}
		return DedupKey{value: strings.Join(parts, "_"), strong: true}
	}
	if name := textnorm.Fold(d.StyleName); name != "" {
		return DedupKey{value: name}
	}
	return DedupKey{}
}

// Style holds the style-level attributes shared by a group's records.
type Style struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Brand       string   `json:"brand,omitempty" yaml:"brand,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Published   bool     `json:"published" yaml:"published"`
}

// DisplayName is the style name, or its ID when the PIM has none.
func (s Style) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

func styleOf(r SourceVariantRecord) Style {
	return Style{
		ID:          r.StyleID,
		Name:        strings.TrimSpace(r.StyleName),
		Type:        r.Type,
		Category:    r.Category,
		Description: r.Description,
		Brand:       r.Brand,
		Tags:        r.Tags,
		Published:   r.StylePublished,
	}
}
