package shopify

import (
	"context"
)

const variantAppendMediaMutation = `mutation productVariantAppendMedia($productId: ID!, $variantMedia: [ProductVariantAppendMediaInput!]!) {
  productVariantAppendMedia(productId: $productId, variantMedia: $variantMedia) {
    productVariants { id }
    userErrors { field message code }
  }
}`

const variantUpdateMutation = `mutation productVariantUpdate($input: ProductVariantInput!) {
  productVariantUpdate(input: $input) {
    productVariant { id }
    userErrors { field message }
  }
}`

// AppendVariantMedia sets mediaID as the variant's image through
// productVariantAppendMedia.
func (c *Client) AppendVariantMedia(ctx context.Context, productID, variantID, mediaID string) error {
	vars := map[string]any{
		"productId":    productID,
		"variantMedia": []map[string]any{{"variantId": variantID, "mediaIds": []string{mediaID}}},
	}
	var out struct {
		Payload struct {
			UserErrors userErrors `json:"userErrors"`
		} `json:"productVariantAppendMedia"`
	}
	if err := c.Do(ctx, variantAppendMediaMutation, vars, &out); err != nil {
		return err
	}
	return out.Payload.UserErrors.err("productVariantAppendMedia")
}

// BulkSetVariantMedia sets the variant image through productVariantsBulkUpdate.
func (c *Client) BulkSetVariantMedia(ctx context.Context, productID, variantID, mediaID string) error {
	_, err := c.BulkUpdateVariants(ctx, productID, []VariantInput{{ID: variantID, MediaID: mediaID}})
	return err
}

// UpdateVariantMedia sets the variant image through productVariantUpdate.
func (c *Client) UpdateVariantMedia(ctx context.Context, variantID, mediaID string) error {
	vars := map[string]any{"input": map[string]any{"id": variantID, "mediaId": mediaID}}
	var out struct {
		Payload struct {
			UserErrors userErrors `json:"userErrors"`
		} `json:"productVariantUpdate"`
	}
	if err := c.Do(ctx, variantUpdateMutation, vars, &out); err != nil {
		return err
	}
	return out.Payload.UserErrors.err("productVariantUpdate")
}
