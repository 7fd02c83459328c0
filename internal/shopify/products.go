package shopify

import (
	"context"

	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
)

const productFields = `id title handle status
variants(first: 250) { nodes { id title sku price selectedOptions { name value } image { id } } }`

const searchProductsQuery = `query products($first: Int!, $query: String!) {
  products(first: $first, query: $query) { nodes { ` + productFields + ` } }
}`

const productQuery = `query product($id: ID!) {
  product(id: $id) { ` + productFields + ` }
}`

const productCreateMutation = `mutation productCreate($input: ProductInput!) {
  productCreate(input: $input) {
    product { ` + productFields + ` }
    userErrors { field message }
  }
}`

const productUpdateMutation = `mutation productUpdate($input: ProductInput!) {
  productUpdate(input: $input) {
    product { ` + productFields + ` }
    userErrors { field message }
  }
}`

const variantsBulkCreateMutation = `mutation productVariantsBulkCreate($productId: ID!, $variants: [ProductVariantsBulkInput!]!, $strategy: ProductVariantsBulkCreateStrategy) {
  productVariantsBulkCreate(productId: $productId, variants: $variants, strategy: $strategy) {
    productVariants { id title sku price selectedOptions { name value } }
    userErrors { field message code }
  }
}`

const variantsBulkUpdateMutation = `mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    productVariants { id title sku price selectedOptions { name value } image { id } }
    userErrors { field message code }
  }
}`

// SearchProducts runs an Admin search query against products.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	var out struct {
		Products struct {
			Nodes []productNode `json:"nodes"`
		} `json:"products"`
	}
	vars := map[string]any{"first": constants.SearchPageSize, "query": query}
	if err := c.Do(ctx, searchProductsQuery, vars, &out); err != nil {
		return nil, err
	}
	products := make([]Product, len(out.Products.Nodes))
	for i, n := range out.Products.Nodes {
		products[i] = n.toProduct()
	}
	return products, nil
}

// GetProduct loads a product with its variants.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var out struct {
		Product *productNode `json:"product"`
	}
	if err := c.Do(ctx, productQuery, map[string]any{"id": id}, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, errors.NewNotFoundError("product", id)
	}
	p := out.Product.toProduct()
	return &p, nil
}

type productPayload struct {
	Product    *productNode `json:"product"`
	UserErrors userErrors   `json:"userErrors"`
}

// CreateProduct creates a product with its options.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var out struct {
		Payload productPayload `json:"productCreate"`
	}
	if err := c.Do(ctx, productCreateMutation, map[string]any{"input": in}, &out); err != nil {
		return nil, err
	}
	return out.Payload.result("productCreate")
}

// UpdateProduct refreshes an existing product.
func (c *Client) UpdateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var out struct {
		Payload productPayload `json:"productUpdate"`
	}
	if err := c.Do(ctx, productUpdateMutation, map[string]any{"input": in}, &out); err != nil {
		return nil, err
	}
	return out.Payload.result("productUpdate")
}

func (p productPayload) result(op string) (*Product, error) {
	if err := p.UserErrors.err(op); err != nil {
		return nil, err
	}
	if p.Product == nil {
		return nil, errors.NewAPIError("shopify", 0, op+" returned no product")
	}
	prod := p.Product.toProduct()
	return &prod, nil
}

type variantsPayload struct {
	ProductVariants []Variant  `json:"productVariants"`
	UserErrors      userErrors `json:"userErrors"`
}

// BulkCreateVariants creates variants in one call, replacing the
// standalone default variant. Variants created before a user error are
// returned alongside that error.
func (c *Client) BulkCreateVariants(ctx context.Context, productID string, variants []VariantInput) ([]Variant, error) {
	var out struct {
		Payload variantsPayload `json:"productVariantsBulkCreate"`
	}
	vars := map[string]any{"productId": productID, "variants": variants, "strategy": "REMOVE_STANDALONE_VARIANT"}
	if err := c.Do(ctx, variantsBulkCreateMutation, vars, &out); err != nil {
		return nil, err
	}
	return out.Payload.ProductVariants, out.Payload.UserErrors.err("productVariantsBulkCreate")
}

// BulkUpdateVariants updates variants in one call.
func (c *Client) BulkUpdateVariants(ctx context.Context, productID string, variants []VariantInput) ([]Variant, error) {
	var out struct {
		Payload variantsPayload `json:"productVariantsBulkUpdate"`
	}
	vars := map[string]any{"productId": productID, "variants": variants}
	if err := c.Do(ctx, variantsBulkUpdateMutation, vars, &out); err != nil {
		return nil, err
	}
	return out.Payload.ProductVariants, out.Payload.UserErrors.err("productVariantsBulkUpdate")
}
