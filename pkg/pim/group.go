package pim

import "strings"

// ProductGroup is every record of one style, in source order.
type ProductGroup struct {
	Style   Style                 `json:"style" yaml:"style"`
	Records []SourceVariantRecord `json:"records" yaml:"records"`
}

// GroupByStyle groups records by style identifier in order of first
// appearance. Style-level fields come from the first record seen for each
// style. Records without a style identifier are dropped.
func GroupByStyle(records []SourceVariantRecord) []ProductGroup {
	var groups []ProductGroup
	index := make(map[string]int)
	for _, r := range records {
		id := strings.TrimSpace(r.StyleID)
		if id == "" {
			continue
		}
		key := strings.ToUpper(id)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ProductGroup{Style: styleOf(r)})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// Len is the number of variant records.
func (g ProductGroup) Len() int {
	return len(g.Records)
}

// Published reports whether the style flag is set and at least one
// member is published at variant level.
func (g ProductGroup) Published() bool {
	if !g.Style.Published {
		return false
	}
	for _, r := range g.Records {
		if r.VariantPublished {
			return true
		}
	}
	return false
}

// Sizes returns the distinct sizes in canonical order.
func (g ProductGroup) Sizes() []Option {
	return SortSizes(distinct(g.Records, SourceVariantRecord.Size))
}

// Colors returns the distinct colors in first-seen order.
func (g ProductGroup) Colors() []Option {
	return distinct(g.Records, SourceVariantRecord.Color)
}

// Images returns every image descriptor of the group, deduplicated by URL.
func (g ProductGroup) Images() []ImageDescriptor {
	return collectImages(g.Records)
}

func distinct(records []SourceVariantRecord, get func(SourceVariantRecord) Option) []Option {
	var out []Option
	seen := make(map[string]bool)
	for _, r := range records {
		o := get(r)
		if o.IsZero() {
			continue
		}
		if k := o.Key(); !seen[k] {
			seen[k] = true
			out = append(out, o)
		}
	}
	return out
}

func collectImages(records []SourceVariantRecord) []ImageDescriptor {
	var out []ImageDescriptor
	seen := make(map[string]bool)
	for _, r := range records {
		for _, img := range r.Images {
			if seen[img.URL] {
				continue
			}
			seen[img.URL] = true
			out = append(out, img)
		}
	}
	return out
}
