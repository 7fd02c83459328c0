package reconciler

import (
	"context"
	"strings"

	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/internal/textnorm"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
	"github.com/agentstation/pimsync/pkg/pim"
)

// Product option names.
const (
	OptionSize  = "Size"
	OptionColor = "Color"
)

// combination is one variant the listing should have.
type combination struct {
	size   pim.Option
	color  pim.Option
	values []shopify.VariantOptionValue // empty for a single option-less variant
	sku    string
	source pim.SourceVariantRecord
}

// combinations materializes the listing's variants. A listing with exactly
// one size and one color becomes a single variant without options; any
// other listing gets the full size x color cross product, whether or not
// the PIM has a record for every combination. A missing dimension adds no
// option, so one size without colors still carries its Size value.
func combinations(l pim.Listing) []combination {
	if len(l.Records) == 0 {
		return nil
	}
	sizes, colors := l.Sizes, l.Colors
	if singleVariant(l) {
		size, color := sizes[0], colors[0]
		return []combination{{
			size:   size,
			color:  color,
			sku:    pim.SKU(l.Style.ID, color, size),
			source: sourceFor(l.Records, size, color),
		}}
	}

	sizeLabels := optionLabels(sizes)
	colorLabels := optionLabels(colors)
	if len(sizes) == 0 {
		sizes = []pim.Option{{}}
	}
	if len(colors) == 0 {
		colors = []pim.Option{{}}
	}

	out := make([]combination, 0, len(sizes)*len(colors))
	for i, size := range sizes {
		for j, color := range colors {
			var values []shopify.VariantOptionValue
			if len(sizeLabels) > 0 {
				values = append(values, shopify.VariantOptionValue{OptionName: OptionSize, Name: sizeLabels[i]})
			}
			if len(colorLabels) > 0 {
				values = append(values, shopify.VariantOptionValue{OptionName: OptionColor, Name: colorLabels[j]})
			}
			out = append(out, combination{
				size:   size,
				color:  color,
				values: values,
				sku:    pim.SKU(l.Style.ID, color, size),
				source: sourceFor(l.Records, size, color),
			})
		}
	}
	return out
}

// productOptions declares the Size and Color options of a multi-variant
// listing in the order their values appear.
func productOptions(l pim.Listing) []shopify.OptionCreate {
	if singleVariant(l) {
		return nil
	}
	var opts []shopify.OptionCreate
	if labels := optionLabels(l.Sizes); len(labels) > 0 {
		opts = append(opts, shopify.OptionCreate{Name: OptionSize, Values: optionValues(labels)})
	}
	if labels := optionLabels(l.Colors); len(labels) > 0 {
		opts = append(opts, shopify.OptionCreate{Name: OptionColor, Values: optionValues(labels)})
	}
	return opts
}

func singleVariant(l pim.Listing) bool {
	return len(l.Sizes) == 1 && len(l.Colors) == 1
}

func optionValues(labels []string) []shopify.OptionValue {
	out := make([]shopify.OptionValue, len(labels))
	for i, l := range labels {
		out[i] = shopify.OptionValue{Name: l}
	}
	return out
}

// optionLabels renders option values. Labels the PIM sends all in lower
// case are title cased, and labels shared by two codes get the code
// appended so option values stay unique.
func optionLabels(opts []pim.Option) []string {
	labels := make([]string, len(opts))
	seen := make(map[string]int, len(opts))
	for i, o := range opts {
		name := strings.TrimSpace(o.Name)
		if name == strings.ToLower(name) {
			name = textnorm.Title(name)
		}
		labels[i] = name
		seen[textnorm.Fold(name)]++
	}
	for i, o := range opts {
		if seen[textnorm.Fold(labels[i])] > 1 && o.Code != "" && !strings.Contains(labels[i], o.Code) {
			labels[i] += " - " + o.Code
		}
	}
	return labels
}

// sourceFor picks the record a combination takes its price and weight
// from: the exact size and color, else the same size, else the same
// color, else the first record.
func sourceFor(records []pim.SourceVariantRecord, size, color pim.Option) pim.SourceVariantRecord {
	sameSize := func(r pim.SourceVariantRecord) bool { return size.IsZero() || r.Size().Key() == size.Key() }
	sameColor := func(r pim.SourceVariantRecord) bool { return color.IsZero() || r.Color().Key() == color.Key() }

	for _, match := range []func(pim.SourceVariantRecord) bool{
		func(r pim.SourceVariantRecord) bool { return sameSize(r) && sameColor(r) },
		sameSize,
		sameColor,
	} {
		for _, r := range records {
			if match(r) {
				return r
			}
		}
	}
	return records[0]
}

func (c combination) input(id string) shopify.VariantInput {
	in := shopify.VariantInput{
		ID:           id,
		OptionValues: c.values,
		InventoryItem: &shopify.InventoryItemInput{
			SKU:         c.sku,
			Measurement: shopify.Grams(c.source.Weight),
		},
	}
	if !c.source.Price.IsZero() {
		in.Price = c.source.Price.StringFixed(2)
	}
	if id != "" {
		// option values of existing variants are left alone
		in.OptionValues = nil
	}
	return in
}

// variantSync is the outcome of syncVariants.
type variantSync struct {
	created  []shopify.Variant
	updated  []shopify.Variant
	existing []shopify.Variant
	errs     []error
}

// syncVariants creates the combinations the product lacks with one bulk
// call and refreshes price, SKU and weight of the ones it has with another.
// Existing variants are recognized by SKU, then by option values. Duplicate
// variant errors are dropped; every other error is collected.
func (r *Reconciler) syncVariants(ctx context.Context, product *shopify.Product, combos []combination) variantSync {
	var res variantSync
	logger := logging.FromContext(ctx)

	bySKU := make(map[string]shopify.Variant, len(product.Variants))
	byOptions := make(map[string]shopify.Variant, len(product.Variants))
	for _, v := range product.Variants {
		if v.SKU != "" {
			bySKU[strings.ToUpper(v.SKU)] = v
		}
		byOptions[selectedKey(v.SelectedOptions)] = v
	}
	claimed := make(map[string]bool)

	var toCreate, toUpdate []shopify.VariantInput
	for _, c := range combos {
		v, ok := bySKU[c.sku]
		if !ok && len(c.values) > 0 {
			v, ok = byOptions[valuesKey(c.values)]
		}
		if !ok && len(c.values) == 0 && len(product.Variants) == 1 {
			v, ok = product.Variants[0], true
		}
		if ok && !claimed[v.ID] {
			claimed[v.ID] = true
			toUpdate = append(toUpdate, c.input(v.ID))
			continue
		}
		toCreate = append(toCreate, c.input(""))
	}
	for _, v := range product.Variants {
		if !claimed[v.ID] {
			res.existing = append(res.existing, v)
		}
	}

	if len(toUpdate) > 0 {
		if err := r.pacer.Wait(ctx); err != nil {
			res.errs = append(res.errs, err)
			return res
		}
		updated, err := r.catalog.BulkUpdateVariants(ctx, product.ID, toUpdate)
		res.updated = updated
		if err != nil {
			logger.Warn().Err(err).Str("product_id", product.ID).Int("requested", len(toUpdate)).Msg("Variant refresh failed")
			res.errs = append(res.errs, errors.WrapResource("update", "variants of", product.ID, err))
		}
	}

	// Creation removes the standalone variant, so claimed variants are
	// refreshed first and the standalone one is dropped once creates land.
	if len(toCreate) > 0 {
		if err := r.pacer.Wait(ctx); err != nil {
			res.errs = append(res.errs, err)
			return res
		}
		created, err := r.catalog.BulkCreateVariants(ctx, product.ID, toCreate)
		res.created = created
		if len(created) > 0 {
			res.existing = withoutStandalone(res.existing)
		}
		if err = withoutDuplicates(err); err != nil {
			logger.Warn().Err(err).Str("product_id", product.ID).Int("requested", len(toCreate)).Msg("Variant creation failed")
			res.errs = append(res.errs, errors.WrapResource("create", "variants of", product.ID, err))
		}
	}
	return res
}

// withoutDuplicates drops "already exists" user errors. A colliding SKU
// or option tuple is expected when a previous run got partway.
func withoutDuplicates(err error) error {
	if err == nil || errors.IsAlreadyExists(err) {
		return nil
	}
	ue, ok := errors.AsUserErrors(err)
	if !ok {
		return err
	}
	var rest []errors.UserError
	for _, e := range ue.Errors {
		msg := strings.ToLower(e.Message + " " + e.Code)
		if strings.Contains(msg, "already") || strings.Contains(msg, "taken") {
			continue
		}
		rest = append(rest, e)
	}
	return errors.AsError(ue.Operation, rest)
}

// withoutStandalone drops the "Default Title" variant of a product that
// has no options of its own.
func withoutStandalone(vs []shopify.Variant) []shopify.Variant {
	out := vs[:0:0]
	for _, v := range vs {
		if !isStandalone(v) {
			out = append(out, v)
		}
	}
	return out
}

func isStandalone(v shopify.Variant) bool {
	if len(v.SelectedOptions) != 1 {
		return false
	}
	o := v.SelectedOptions[0]
	return o.Name == "Title" && o.Value == "Default Title"
}

func selectedKey(opts []shopify.SelectedOption) string {
	parts := make([]string, len(opts))
	for i, o := range opts {
		parts[i] = textnorm.Fold(o.Name) + "=" + textnorm.Fold(o.Value)
	}
	return strings.Join(parts, "|")
}

func valuesKey(values []shopify.VariantOptionValue) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = textnorm.Fold(v.OptionName) + "=" + textnorm.Fold(v.Name)
	}
	return strings.Join(parts, "|")
}

// ColorOf returns the listing color behind a target variant's Color
// option. The lone variant of an option-less product takes the
// listing's only color.
func ColorOf(l pim.Listing, v shopify.Variant) (pim.Option, bool) {
	value := v.Option(OptionColor)
	if value == "" {
		if len(l.Colors) == 1 {
			return l.Colors[0], true
		}
		return pim.Option{}, false
	}
	want := textnorm.Fold(value)
	for i, label := range optionLabels(l.Colors) {
		if textnorm.Fold(label) == want {
			return l.Colors[i], true
		}
	}
	for _, c := range l.Colors {
		if textnorm.Fold(c.Name) == want || strings.EqualFold(c.Code, value) {
			return c, true
		}
	}
	return pim.Option{}, false
}
