package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/pimsync/pkg/pim"
	"github.com/agentstation/pimsync/pkg/sync"
)

// Wrapper is implemented by table views around a plain value; JSON and
// YAML render the value itself.
type Wrapper interface {
	Value() any
}

// Unwrap returns the value behind a Wrapper, or data unchanged.
func Unwrap(data any) any {
	if w, ok := data.(Wrapper); ok {
		return w.Value()
	}
	return data
}

// Run renders one import summary.
type Run struct {
	Result *sync.Result
}

// Value implements Wrapper.
func (r Run) Value() any { return r.Result }

// Tables implements Tabular.
func (r Run) Tables() []Data {
	res := r.Result
	tables := []Data{{
		Title:        fmt.Sprintf("Run %s (%s)", res.RunID, res.Kind),
		Headers:      []string{"Metric", "Count"},
		RightAligned: []int{1},
		Rows: [][]string{
			{"Products created", strconv.Itoa(res.ProductsCreated)},
			{"Products updated", strconv.Itoa(res.ProductsUpdated)},
			{"Products skipped", strconv.Itoa(res.ProductsSkipped)},
			{"Variants created", strconv.Itoa(res.VariantsCreated)},
			{"Variants updated", strconv.Itoa(res.VariantsUpdated)},
			{"Images uploaded", strconv.Itoa(res.ImagesUploaded)},
			{"Images assigned", strconv.Itoa(res.ImagesAssigned)},
			{"Metafields written", strconv.Itoa(res.MetafieldsCreated)},
			{"Categories assigned", strconv.Itoa(res.CategoriesAssigned)},
			{"Duration", res.Duration().Round(time.Millisecond).String()},
		},
	}}

	if len(res.Products) > 0 {
		products := Data{Title: "Products", Headers: []string{"Style", "Action", "Title", "Product"}}
		for _, p := range res.Products {
			products.Rows = append(products.Rows, []string{p.StyleID, p.Action, p.Title, p.ProductID})
		}
		tables = append(tables, products)
	}

	if len(res.ImageLog) > 0 {
		names := make([]string, 0, len(res.ImageLog))
		for name := range res.ImageLog {
			names = append(names, name)
		}
		sort.Strings(names)
		images := Data{Title: "Images", Headers: []string{"File", "Action", "Asset", "Attached"}, RightAligned: []int{3}}
		for _, name := range names {
			l := res.ImageLog[name]
			images.Rows = append(images.Rows, []string{name, string(l.Action), l.AssetID, fmt.Sprintf("%d/%d", l.Succeeded, l.Expected)})
		}
		tables = append(tables, images)
	}

	if res.HasErrors() {
		errs := Data{Title: "Errors", Headers: []string{"#", "Error"}, RightAligned: []int{0}}
		for i, e := range res.Errors {
			errs.Rows = append(errs.Rows, []string{strconv.Itoa(i + 1), e})
		}
		tables = append(tables, errs)
	}
	return tables
}

// Runs renders a list of past runs, oldest first.
type Runs []*sync.Result

// Value implements Wrapper.
func (r Runs) Value() any { return []*sync.Result(r) }

// Tables implements Tabular.
func (r Runs) Tables() []Data {
	d := Data{
		Headers:      []string{"Run", "Kind", "Started", "Styles", "Created", "Updated", "Images", "Errors"},
		RightAligned: []int{4, 5, 6, 7},
		Empty:        "No runs recorded.",
	}
	for _, res := range r {
		d.Rows = append(d.Rows, []string{
			res.RunID,
			string(res.Kind),
			res.StartedAt.Format(time.RFC3339),
			styles(res.StyleIDs),
			strconv.Itoa(res.ProductsCreated),
			strconv.Itoa(res.ProductsUpdated),
			strconv.Itoa(len(res.ImageLog)),
			strconv.Itoa(len(res.Errors)),
		})
	}
	return []Data{d}
}

func styles(ids []string) string {
	const shown = 3
	if len(ids) <= shown {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s (+%d)", strings.Join(ids[:shown], ", "), len(ids)-shown)
}

// Groups renders PIM styles as fetched, with the products each would be
// imported as.
type Groups struct {
	Groups         []pim.ProductGroup
	SplitThreshold int
}

// Value implements Wrapper.
func (g Groups) Value() any { return g.Groups }

// Tables implements Tabular.
func (g Groups) Tables() []Data {
	var tables []Data
	for _, group := range g.Groups {
		listings := Data{
			Title:        fmt.Sprintf("%s %s (%d records, published: %t)", group.Style.ID, group.Style.DisplayName(), group.Len(), group.Published()),
			Headers:      []string{"Product", "Handle", "Sizes", "Colors", "Images"},
			RightAligned: []int{2, 3, 4},
		}
		for _, l := range pim.Plan(group, g.SplitThreshold) {
			listings.Rows = append(listings.Rows, []string{
				l.Title,
				l.Handle,
				strconv.Itoa(len(l.Sizes)),
				strconv.Itoa(len(l.Colors)),
				strconv.Itoa(len(l.Images())),
			})
		}

		records := Data{
			Headers:      []string{"SKU", "Size", "Color", "Price", "Weight", "Published"},
			RightAligned: []int{3, 4},
		}
		for _, rec := range group.Records {
			records.Rows = append(records.Rows, []string{
				rec.SKU(),
				rec.Size().Name,
				rec.Color().Name,
				rec.Price.StringFixed(2),
				strconv.FormatFloat(rec.Weight, 'f', -1, 64),
				strconv.FormatBool(rec.VariantPublished),
			})
		}
		tables = append(tables, listings, records)
	}
	if len(tables) == 0 {
		return []Data{{Empty: "No styles found."}}
	}
	return tables
}
