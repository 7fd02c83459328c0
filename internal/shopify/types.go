package shopify

import (
	"net/url"
	"path"
	"strings"

	"github.com/agentstation/pimsync/pkg/errors"
)

// Product is the subset of a catalog product the engine reads.
type Product struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Handle   string    `json:"handle"`
	Status   string    `json:"status,omitempty"`
	Variants []Variant `json:"-"`
}

// Variant is a product variant.
type Variant struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	SKU             string           `json:"sku"`
	Price           string           `json:"price"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
	Image           *struct {
		ID string `json:"id"`
	} `json:"image,omitempty"`
}

// Option returns the value of the named option, case-insensitively.
func (v Variant) Option(name string) string {
	for _, o := range v.SelectedOptions {
		if strings.EqualFold(o.Name, name) {
			return o.Value
		}
	}
	return ""
}

// HasImage reports whether the variant already has a main image.
func (v Variant) HasImage() bool {
	return v.Image != nil && v.Image.ID != ""
}

// SelectedOption is one option name/value pair of a variant.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// productNode mirrors the GraphQL shape of a product with its variants.
type productNode struct {
	Product
	VariantConn struct {
		Nodes []Variant `json:"nodes"`
	} `json:"variants"`
}

func (n productNode) toProduct() Product {
	p := n.Product
	p.Variants = n.VariantConn.Nodes
	return p
}

// ProductInput creates or updates a product. ID is set only for updates.
type ProductInput struct {
	ID              string          `json:"id,omitempty"`
	Title           string          `json:"title,omitempty"`
	Handle          string          `json:"handle,omitempty"`
	DescriptionHTML string          `json:"descriptionHtml,omitempty"`
	Vendor          string          `json:"vendor,omitempty"`
	ProductType     string          `json:"productType,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	Category        string          `json:"category,omitempty"`
	Status          string          `json:"status,omitempty"`
	ProductOptions  []OptionCreate  `json:"productOptions,omitempty"`
	Metafields      []MetafieldItem `json:"metafields,omitempty"`
}

// OptionCreate declares a product option and its values at creation.
type OptionCreate struct {
	Name   string        `json:"name"`
	Values []OptionValue `json:"values"`
}

// OptionValue names one option value.
type OptionValue struct {
	Name string `json:"name"`
}

// VariantOptionValue pins a variant to one value of a named option.
type VariantOptionValue struct {
	OptionName string `json:"optionName"`
	Name       string `json:"name"`
}

// VariantInput creates or updates a variant in bulk mutations.
type VariantInput struct {
	ID            string               `json:"id,omitempty"`
	Price         string               `json:"price,omitempty"`
	OptionValues  []VariantOptionValue `json:"optionValues,omitempty"`
	InventoryItem *InventoryItemInput  `json:"inventoryItem,omitempty"`
	MediaID       string               `json:"mediaId,omitempty"`
}

// InventoryItemInput carries SKU and weight.
type InventoryItemInput struct {
	SKU         string            `json:"sku,omitempty"`
	Measurement *MeasurementInput `json:"measurement,omitempty"`
}

// MeasurementInput wraps the variant weight.
type MeasurementInput struct {
	Weight *WeightInput `json:"weight,omitempty"`
}

// WeightInput is a weight value with its unit.
type WeightInput struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Grams builds a weight measurement in grams, nil for non-positive values.
func Grams(v float64) *MeasurementInput {
	if v <= 0 {
		return nil
	}
	return &MeasurementInput{Weight: &WeightInput{Value: v, Unit: "GRAMS"}}
}

// File is an entry of the store's media library.
type File struct {
	ID         string `json:"id"`
	Alt        string `json:"alt"`
	FileStatus string `json:"fileStatus"`
	Image      *struct {
		URL string `json:"url"`
	} `json:"image,omitempty"`
	GenericURL string `json:"url,omitempty"`
}

// URL is the CDN location of the file, empty while still processing.
func (f File) URL() string {
	if f.Image != nil && f.Image.URL != "" {
		return f.Image.URL
	}
	return f.GenericURL
}

// Filename is the last path segment of the file URL.
func (f File) Filename() string {
	raw := f.URL()
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil {
		raw = u.Path
	}
	base := path.Base(raw)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// Ready reports whether the file finished processing.
func (f File) Ready() bool {
	return strings.EqualFold(f.FileStatus, "READY")
}

// FileInput uploads a file by remote URL.
type FileInput struct {
	OriginalSource string `json:"originalSource"`
	Alt            string `json:"alt,omitempty"`
	Filename       string `json:"filename,omitempty"`
	ContentType    string `json:"contentType,omitempty"`
}

// MetafieldDefinitionInput declares a product metafield.
type MetafieldDefinitionInput struct {
	Name        string `json:"name"`
	Namespace   string `json:"namespace"`
	Key         string `json:"key"`
	Type        string `json:"type"`
	OwnerType   string `json:"ownerType"`
	Description string       `json:"description,omitempty"`
	Validations []Validation `json:"validations,omitempty"`
}

// Validation constrains metafield values, such as the metaobject
// definition a reference must point to.
type Validation struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MetafieldItem is one value written by metafieldsSet.
type MetafieldItem struct {
	OwnerID   string `json:"ownerId,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// MetaobjectField is a key/value of a metaobject.
type MetaobjectField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MetaobjectFieldDefinition declares one field of a metaobject type.
type MetaobjectFieldDefinition struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Metaobject is a custom data entry.
type Metaobject struct {
	ID     string            `json:"id"`
	Handle string            `json:"handle"`
	Type   string            `json:"type,omitempty"`
	Fields []MetaobjectField `json:"fields"`
}

// Field returns the value of key.
func (m Metaobject) Field(key string) string {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// userErrors is the common mutation error list.
type userErrors []errors.UserError

func (u userErrors) err(op string) error {
	return errors.AsError(op, u)
}

// SearchQuery renders field:value in the Admin search syntax, quoting
// values that contain spaces or syntax characters. A wildcard suffix asks
// for a prefix match.
func SearchQuery(field, value string) string {
	v := strings.TrimSpace(value)
	if strings.ContainsAny(v, " :\"()\\'") {
		v = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v) + `"`
	}
	if field == "" {
		return v
	}
	return field + ":" + v
}
