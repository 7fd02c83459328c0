package pim

// UnsizedLabel names the partition for records that carry no size.
const UnsizedLabel = "One Size"

// SplitProductGroup is the slice of an oversized group for one size. It
// keeps the color set of the whole original group so that every
// partition materializes the same colors.
type SplitProductGroup struct {
	Style   Style                 `json:"style" yaml:"style"`
	Size    Option                `json:"size" yaml:"size"`
	Colors  []Option              `json:"colors" yaml:"colors"`
	Records []SourceVariantRecord `json:"records" yaml:"records"`
	Index   int                   `json:"index" yaml:"index"`
	Total   int                   `json:"total" yaml:"total"`
}

// SplitIfOversized partitions g by size when it has more than threshold
// records. It returns nil when g is small enough to stay whole.
func SplitIfOversized(g ProductGroup, threshold int) []SplitProductGroup {
	if threshold <= 0 || g.Len() <= threshold {
		return nil
	}

	colors := g.Colors()
	var parts []SplitProductGroup
	index := make(map[string]int)
	for _, r := range g.Records {
		size := r.Size()
		if size.IsZero() {
			size = Option{Name: UnsizedLabel}
		}
		k := size.Key()
		i, ok := index[k]
		if !ok {
			i = len(parts)
			index[k] = i
			parts = append(parts, SplitProductGroup{Style: g.Style, Size: size, Colors: colors})
		}
		parts[i].Records = append(parts[i].Records, r)
	}

	sizes := make([]Option, len(parts))
	for i, p := range parts {
		sizes[i] = p.Size
	}
	order := make(map[string]int, len(sizes))
	for i, s := range SortSizes(sizes) {
		order[s.Key()] = i
	}
	sorted := make([]SplitProductGroup, len(parts))
	for _, p := range parts {
		i := order[p.Size.Key()]
		p.Index, p.Total = i, len(parts)
		sorted[i] = p
	}
	return sorted
}
