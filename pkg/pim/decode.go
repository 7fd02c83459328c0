package pim

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agentstation/pimsync/pkg/errors"
)

// Field aliases. PIM partitions disagree on naming, so every field is
// looked up under each alias in order, case-insensitively.
var (
	aliasStyleID          = []string{"StyleCode", "StyleID", "StyleId", "style_code", "style_id"}
	aliasStyleName        = []string{"StyleName", "style_name", "Name", "Title"}
	aliasType             = []string{"StyleType", "ProductType", "Type"}
	aliasCategory         = []string{"Category", "CategoryName", "ProductCategory"}
	aliasDescription      = []string{"Description", "StyleDescription", "DescriptionHtml", "LongDescription"}
	aliasBrand            = []string{"Brand", "BrandName", "Vendor"}
	aliasTags             = []string{"Tags", "Keywords"}
	aliasStylePublished   = []string{"StylePublished", "PublishedStyle", "StyleIsPublished"}
	aliasVariantPublished = []string{"VariantPublished", "Published", "IsPublished"}
	aliasColorName        = []string{"ColorName", "color_name", "Color", "ColourName", "Colour"}
	aliasColorCode        = []string{"ColorCode", "ColourCode"}
	aliasSizeName         = []string{"SizeName", "size_name", "Size", "SizeValue", "SizeDescription"}
	aliasSizeCode         = []string{"SizeCode"}
	aliasWeight           = []string{"Weight", "WeightGrams", "NetWeight"}
	aliasPrice            = []string{"Price", "RetailPrice", "SalesPrice"}
	aliasImages           = []string{"Images", "Photos", "Pictures"}
	aliasVariants         = []string{"Variants", "Items", "Skus"}

	aliasURL            = []string{"Url", "ImageUrl", "PhotoUrl", "Src", "Link"}
	aliasFileName       = []string{"FileName", "Filename", "ImageName"}
	aliasAlt            = []string{"Alt", "AltText", "Caption"}
	aliasPhotoTypeCode  = []string{"PhotoTypeCode", "PhotoType"}
	aliasPhotoStyle     = []string{"PhotoStyle"}
	aliasPhotoShootCode = []string{"PhotoShootCode", "ShootCode"}
)

// fields is a decoded JSON object keyed by lowercased name.
type fields map[string]json.RawMessage

func decodeFields(data []byte) (fields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	f := make(fields, len(raw))
	for k, v := range raw {
		f[strings.ToLower(k)] = v
	}
	return f, nil
}

func (f fields) raw(names []string) (json.RawMessage, bool) {
	for _, n := range names {
		v, ok := f[strings.ToLower(n)]
		if ok && len(v) > 0 && !bytes.Equal(v, []byte("null")) {
			return v, true
		}
	}
	return nil, false
}

func (f fields) has(names []string) bool {
	_, ok := f.raw(names)
	return ok
}

func (f fields) str(names []string) string {
	raw, ok := f.raw(names)
	if !ok {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func (f fields) boolean(names []string, def bool) bool {
	raw, ok := f.raw(names)
	if !ok {
		return def
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n", "":
			return false
		}
	}
	return def
}

func (f fields) number(names []string) float64 {
	s := f.str(names)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return n
}

func (f fields) decimal(names []string) decimal.Decimal {
	s := f.str(names)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (f fields) strings(names []string) []string {
	raw, ok := f.raw(names)
	if !ok {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return compact(list)
	}
	return compact(strings.Split(f.str(names), ","))
}

func (f fields) list(names []string) ([]json.RawMessage, bool) {
	raw, ok := f.raw(names)
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// UnmarshalJSON accepts any of the field spellings used by PIM partitions.
// Publication flags default to true when a partition omits them.
func (r *SourceVariantRecord) UnmarshalJSON(data []byte) error {
	f, err := decodeFields(data)
	if err != nil {
		return err
	}
	*r = recordFrom(f, nil)
	return nil
}

// recordFrom builds a record from f, taking style-level fields from
// parent when f does not carry them.
func recordFrom(f, parent fields) SourceVariantRecord {
	pick := func(names []string) string {
		if v := f.str(names); v != "" {
			return v
		}
		if parent != nil {
			return parent.str(names)
		}
		return ""
	}

	r := SourceVariantRecord{
		StyleID:     pick(aliasStyleID),
		StyleName:   pick(aliasStyleName),
		Type:        pick(aliasType),
		Category:    pick(aliasCategory),
		Description: pick(aliasDescription),
		Brand:       pick(aliasBrand),
		ColorName:   f.str(aliasColorName),
		ColorCode:   f.str(aliasColorCode),
		SizeName:    f.str(aliasSizeName),
		SizeCode:    f.str(aliasSizeCode),
		Weight:      f.number(aliasWeight),
		Price:       f.decimal(aliasPrice),
	}

	r.Tags = f.strings(aliasTags)
	if r.Tags == nil && parent != nil {
		r.Tags = parent.strings(aliasTags)
	}

	switch {
	case f.has(aliasStylePublished):
		r.StylePublished = f.boolean(aliasStylePublished, true)
	case parent != nil && parent.has(aliasStylePublished):
		r.StylePublished = parent.boolean(aliasStylePublished, true)
	default:
		r.StylePublished = true
	}
	r.VariantPublished = f.boolean(aliasVariantPublished, true)

	images, _ := f.list(aliasImages)
	if parent != nil {
		// Style-level photos apply to every variant of their color.
		if shared, ok := parent.list(aliasImages); ok {
			images = append(images, shared...)
		}
	}
	for _, raw := range images {
		img, ok := imageFrom(raw, r)
		if ok {
			r.Images = append(r.Images, img)
		}
	}
	return r
}

func imageFrom(raw json.RawMessage, owner SourceVariantRecord) (ImageDescriptor, bool) {
	var url string
	if err := json.Unmarshal(raw, &url); err == nil {
		url = strings.TrimSpace(url)
		if url == "" {
			return ImageDescriptor{}, false
		}
		return ImageDescriptor{
			URL:       url,
			StyleID:   owner.StyleID,
			StyleName: owner.StyleName,
			ColorCode: owner.ColorCode,
		}, true
	}

	f, err := decodeFields(raw)
	if err != nil {
		return ImageDescriptor{}, false
	}
	img := ImageDescriptor{
		URL:            f.str(aliasURL),
		FileName:       f.str(aliasFileName),
		Alt:            f.str(aliasAlt),
		StyleID:        f.str(aliasStyleID),
		StyleName:      f.str(aliasStyleName),
		ColorCode:      f.str(aliasColorCode),
		PhotoTypeCode:  f.str(aliasPhotoTypeCode),
		PhotoStyle:     f.str(aliasPhotoStyle),
		PhotoShootCode: f.str(aliasPhotoShootCode),
	}
	if img.URL == "" {
		return ImageDescriptor{}, false
	}
	if img.StyleID == "" {
		img.StyleID = owner.StyleID
	}
	if img.StyleName == "" {
		img.StyleName = owner.StyleName
	}
	if img.ColorCode == "" {
		img.ColorCode = owner.ColorCode
	}
	return img, true
}

// Payload is a decoded PIM result.
type Payload struct {
	// Records is the flattened view of every variant.
	Records []SourceVariantRecord
	// Groups is populated when the PIM nested variants under their style.
	Groups []ProductGroup
	// Flat is true when no element carried a nested variant list.
	Flat bool
}

// Decode parses an unwrapped PIM result. The payload must be a non-empty
// JSON list of either flat variant records or styles carrying a nested
// variant list.
func Decode(data []byte) (*Payload, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.NewParseError("json", "pim payload", "payload is not a list", err)
	}
	if len(items) == 0 {
		return nil, errors.NewParseError("json", "pim payload", "payload is empty", nil)
	}

	p := &Payload{Flat: true}
	for i, item := range items {
		f, err := decodeFields(item)
		if err != nil {
			return nil, errors.NewParseError("json", "pim payload", "element "+strconv.Itoa(i)+" is not an object", err)
		}

		variants, nested := f.list(aliasVariants)
		if !nested {
			p.Records = append(p.Records, recordFrom(f, nil))
			continue
		}

		p.Flat = false
		group := ProductGroup{}
		for _, v := range variants {
			vf, err := decodeFields(v)
			if err != nil {
				continue
			}
			group.Records = append(group.Records, recordFrom(vf, f))
		}
		if len(group.Records) == 0 {
			continue
		}
		group.Style = styleOf(group.Records[0])
		p.Records = append(p.Records, group.Records...)
		p.Groups = append(p.Groups, group)
	}

	if len(p.Records) == 0 {
		return nil, errors.NewParseError("json", "pim payload", "payload has no variant records", nil)
	}
	if p.Flat {
		p.Groups = nil
	}
	return p, nil
}

// StyleGroups returns the payload as style groups. Flat records, and
// payloads mixing flat and nested elements, are grouped by style identifier.
func (p *Payload) StyleGroups() []ProductGroup {
	nested := 0
	for _, g := range p.Groups {
		nested += len(g.Records)
	}
	if p.Flat || nested != len(p.Records) {
		return GroupByStyle(p.Records)
	}
	return p.Groups
}
