package shopify

import (
	"context"
)

const metafieldDefinitionCreateMutation = `mutation metafieldDefinitionCreate($definition: MetafieldDefinitionInput!) {
  metafieldDefinitionCreate(definition: $definition) {
    createdDefinition { id }
    userErrors { field message code }
  }
}`

const metafieldsSetMutation = `mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { id namespace key }
    userErrors { field message code }
  }
}`

const metaobjectDefinitionCreateMutation = `mutation metaobjectDefinitionCreate($definition: MetaobjectDefinitionCreateInput!) {
  metaobjectDefinitionCreate(definition: $definition) {
    metaobjectDefinition { id type }
    userErrors { field message code }
  }
}`

const metaobjectDefinitionByTypeQuery = `query metaobjectDefinitionByType($type: String!) {
  metaobjectDefinitionByType(type: $type) { id type }
}`

const metaobjectByHandleQuery = `query metaobjectByHandle($handle: MetaobjectHandleInput!) {
  metaobjectByHandle(handle: $handle) { id handle type fields { key value } }
}`

const metaobjectCreateMutation = `mutation metaobjectCreate($metaobject: MetaobjectCreateInput!) {
  metaobjectCreate(metaobject: $metaobject) {
    metaobject { id handle type fields { key value } }
    userErrors { field message code }
  }
}`

const metaobjectUpdateMutation = `mutation metaobjectUpdate($id: ID!, $metaobject: MetaobjectUpdateInput!) {
  metaobjectUpdate(id: $id, metaobject: $metaobject) {
    metaobject { id handle type fields { key value } }
    userErrors { field message code }
  }
}`

// CreateMetafieldDefinition declares a metafield. A definition that
// already exists comes back as a user error with code TAKEN.
func (c *Client) CreateMetafieldDefinition(ctx context.Context, in MetafieldDefinitionInput) (string, error) {
	var out struct {
		Payload struct {
			CreatedDefinition *struct {
				ID string `json:"id"`
			} `json:"createdDefinition"`
			UserErrors userErrors `json:"userErrors"`
		} `json:"metafieldDefinitionCreate"`
	}
	if err := c.Do(ctx, metafieldDefinitionCreateMutation, map[string]any{"definition": in}, &out); err != nil {
		return "", err
	}
	if err := out.Payload.UserErrors.err("metafieldDefinitionCreate"); err != nil {
		return "", err
	}
	if out.Payload.CreatedDefinition == nil {
		return "", nil
	}
	return out.Payload.CreatedDefinition.ID, nil
}

// SetMetafields writes metafield values.
func (c *Client) SetMetafields(ctx context.Context, items []MetafieldItem) error {
	var out struct {
		Payload struct {
			UserErrors userErrors `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := c.Do(ctx, metafieldsSetMutation, map[string]any{"metafields": items}, &out); err != nil {
		return err
	}
	return out.Payload.UserErrors.err("metafieldsSet")
}

// CreateMetaobjectDefinition declares a metaobject type and returns the
// definition ID. An existing type comes back as a user error with code TAKEN.
func (c *Client) CreateMetaobjectDefinition(ctx context.Context, objType, name string, fields []MetaobjectFieldDefinition) (string, error) {
	def := map[string]any{
		"type":             objType,
		"name":             name,
		"fieldDefinitions": fields,
	}
	var out struct {
		Payload struct {
			Definition *struct {
				ID string `json:"id"`
			} `json:"metaobjectDefinition"`
			UserErrors userErrors `json:"userErrors"`
		} `json:"metaobjectDefinitionCreate"`
	}
	if err := c.Do(ctx, metaobjectDefinitionCreateMutation, map[string]any{"definition": def}, &out); err != nil {
		return "", err
	}
	if err := out.Payload.UserErrors.err("metaobjectDefinitionCreate"); err != nil {
		return "", err
	}
	if out.Payload.Definition == nil {
		return "", nil
	}
	return out.Payload.Definition.ID, nil
}

// MetaobjectDefinitionByType returns the definition ID of a metaobject
// type, or "" when the type is not defined.
func (c *Client) MetaobjectDefinitionByType(ctx context.Context, objType string) (string, error) {
	var out struct {
		Definition *struct {
			ID string `json:"id"`
		} `json:"metaobjectDefinitionByType"`
	}
	if err := c.Do(ctx, metaobjectDefinitionByTypeQuery, map[string]any{"type": objType}, &out); err != nil {
		return "", err
	}
	if out.Definition == nil {
		return "", nil
	}
	return out.Definition.ID, nil
}

// MetaobjectByHandle returns the metaobject, or nil when none exists.
func (c *Client) MetaobjectByHandle(ctx context.Context, objType, handle string) (*Metaobject, error) {
	var out struct {
		Metaobject *Metaobject `json:"metaobjectByHandle"`
	}
	vars := map[string]any{"handle": map[string]string{"type": objType, "handle": handle}}
	if err := c.Do(ctx, metaobjectByHandleQuery, vars, &out); err != nil {
		return nil, err
	}
	return out.Metaobject, nil
}

type metaobjectPayload struct {
	Metaobject *Metaobject `json:"metaobject"`
	UserErrors userErrors  `json:"userErrors"`
}

// CreateMetaobject creates a metaobject entry.
func (c *Client) CreateMetaobject(ctx context.Context, objType, handle string, fields []MetaobjectField) (*Metaobject, error) {
	in := map[string]any{"type": objType, "handle": handle, "fields": fields}
	var out struct {
		Payload metaobjectPayload `json:"metaobjectCreate"`
	}
	if err := c.Do(ctx, metaobjectCreateMutation, map[string]any{"metaobject": in}, &out); err != nil {
		return nil, err
	}
	if err := out.Payload.UserErrors.err("metaobjectCreate"); err != nil {
		return nil, err
	}
	return out.Payload.Metaobject, nil
}

// UpdateMetaobject replaces the given fields of a metaobject.
func (c *Client) UpdateMetaobject(ctx context.Context, id string, fields []MetaobjectField) (*Metaobject, error) {
	vars := map[string]any{"id": id, "metaobject": map[string]any{"fields": fields}}
	var out struct {
		Payload metaobjectPayload `json:"metaobjectUpdate"`
	}
	if err := c.Do(ctx, metaobjectUpdateMutation, vars, &out); err != nil {
		return nil, err
	}
	if err := out.Payload.UserErrors.err("metaobjectUpdate"); err != nil {
		return nil, err
	}
	return out.Payload.Metaobject, nil
}
