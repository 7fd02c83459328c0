package reconciler

import (
	"context"
	"strings"

	"github.com/agentstation/pimsync/internal/matcher"
	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/internal/textnorm"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
	"github.com/agentstation/pimsync/pkg/pim"
)

// Search strategy names, in the order they are tried.
const (
	SearchExactTitle     = "exact-title"
	SearchHandle         = "handle"
	SearchSKU            = "sku"
	SearchTitleSubstring = "title-substring"
	SearchTitleSize      = "title-size"
)

// Find looks for the target product of listing. Strategies run in order
// and the first one returning a plausible product wins. A listing with no
// existing product yields an error matching errors.ErrNoMatch; any other
// error is a failed search and must not be read as "absent".
func (r *Reconciler) Find(ctx context.Context, l pim.Listing) (*shopify.Product, string, error) {
	pick := plausibility(l)
	name := l.Style.DisplayName()

	step := func(strategy, query string, filter func(shopify.Product) bool) matcher.Step[*shopify.Product] {
		return matcher.Step[*shopify.Product]{
			Name: strategy,
			Run: func(ctx context.Context) (*shopify.Product, bool, error) {
				if query == "" {
					return nil, false, nil
				}
				found, err := r.catalog.SearchProducts(ctx, query)
				if err != nil {
					return nil, false, errors.WrapResource("search", "product", l.Title, err)
				}
				if filter != nil {
					found = keep(found, filter)
				}
				hit, ok := pick.First(found)
				if !ok {
					return nil, false, nil
				}
				p := hit.Candidate
				logging.FromContext(ctx).Debug().
					Str("strategy", strategy).
					Str("accepted_by", hit.Strategy).
					Str("product_id", p.ID).
					Msg("Found existing product")
				return &p, true, nil
			},
		}
	}

	steps := []matcher.Step[*shopify.Product]{
		step(SearchExactTitle, shopify.SearchQuery("title", l.Title), nil),
		step(SearchHandle, shopify.SearchQuery("handle", l.Handle), nil),
		step(SearchSKU, prefixQuery("sku", l.Style.ID), nil),
		step(SearchTitleSubstring, shopify.SearchQuery("", name), func(p shopify.Product) bool {
			return strings.Contains(textnorm.Fold(p.Title), textnorm.Fold(name))
		}),
	}
	if l.Split() {
		size := l.Part.Size.Name
		steps = append(steps, step(SearchTitleSize, shopify.SearchQuery("", name+" "+l.Part.Size.Name), func(p shopify.Product) bool {
			return strings.Contains(textnorm.Fold(p.Title), textnorm.Fold(name)) && containsWord(p.Title, size)
		}))
	}

	return matcher.FirstOf(ctx, l.Title, steps...)
}

// plausibility decides whether a search hit is really the listing's
// product: an exact title, or a variant SKU carrying the style code. A
// split partition only accepts SKUs of its own size, since its siblings
// carry the same style code.
func plausibility(l pim.Listing) *matcher.Cascade[shopify.Product] {
	title := textnorm.Fold(l.Title)
	styleID := strings.ToUpper(strings.TrimSpace(l.Style.ID))
	own := make(map[string]bool)
	if l.Split() {
		for _, c := range combinations(l) {
			own[c.sku] = true
		}
	}

	return matcher.NewCascade(
		matcher.Strategy[shopify.Product]{
			Name:  "title",
			Match: func(p shopify.Product) bool { return textnorm.Fold(p.Title) == title },
		},
		matcher.Strategy[shopify.Product]{
			Name: "sku",
			Match: func(p shopify.Product) bool {
				if styleID == "" {
					return false
				}
				for _, v := range p.Variants {
					sku := strings.ToUpper(v.SKU)
					if l.Split() {
						if own[sku] {
							return true
						}
						continue
					}
					if strings.Contains(sku, styleID) {
						return true
					}
				}
				return false
			},
		},
	)
}

// prefixQuery renders field:value* when value needs no quoting.
func prefixQuery(field, value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	q := shopify.SearchQuery(field, v)
	if strings.HasSuffix(q, `"`) {
		return q
	}
	return q + "*"
}

func keep(products []shopify.Product, ok func(shopify.Product) bool) []shopify.Product {
	out := products[:0:0]
	for _, p := range products {
		if ok(p) {
			out = append(out, p)
		}
	}
	return out
}

// containsWord reports whether phrase occurs in s on word boundaries.
func containsWord(s, phrase string) bool {
	p := strings.Join(textnorm.Words(phrase), " ")
	if p == "" {
		return false
	}
	return strings.Contains(" "+strings.Join(textnorm.Words(s), " ")+" ", " "+p+" ")
}
