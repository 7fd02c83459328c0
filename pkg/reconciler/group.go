package reconciler

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/internal/textnorm"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
	"github.com/agentstation/pimsync/pkg/pim"
)

// GroupType is the metaobject type linking the size partitions of a style.
const GroupType = "pim_style_group"

// Grouping metaobject fields.
const (
	GroupFieldStyleCode = "style_code"
	GroupFieldName      = "name"
	GroupFieldProducts  = "products"
)

// GroupStore is the slice of the target catalog that holds grouping
// references.
type GroupStore interface {
	MetaobjectDefinitionByType(ctx context.Context, objType string) (string, error)
	CreateMetaobjectDefinition(ctx context.Context, objType, name string, fields []shopify.MetaobjectFieldDefinition) (string, error)
	MetaobjectByHandle(ctx context.Context, objType, handle string) (*shopify.Metaobject, error)
	CreateMetaobject(ctx context.Context, objType, handle string, fields []shopify.MetaobjectField) (*shopify.Metaobject, error)
	UpdateMetaobject(ctx context.Context, id string, fields []shopify.MetaobjectField) (*shopify.Metaobject, error)
}

// GroupRef is the grouping reference of one split style. It must exist
// before any partition product is created so each one can be linked as it
// appears.
type GroupRef struct {
	ID         string   `json:"id" yaml:"id"`
	Handle     string   `json:"handle" yaml:"handle"`
	ProductIDs []string `json:"product_ids" yaml:"product_ids"`
}

// GroupDefinition returns the ID of the grouping metaobject definition,
// creating it on first use. The ID is remembered for the life of the
// Reconciler.
func (r *Reconciler) GroupDefinition(ctx context.Context) (string, error) {
	if r.groupDefinition != "" {
		return r.groupDefinition, nil
	}
	if r.groups == nil {
		return "", &errors.ConfigError{Component: "reconciler", Message: "no group store configured"}
	}

	id, err := r.groups.MetaobjectDefinitionByType(ctx, GroupType)
	if err != nil {
		return "", errors.WrapResource("lookup", "metaobject definition", GroupType, err)
	}
	if id == "" {
		if err := r.pacer.Wait(ctx); err != nil {
			return "", err
		}
		id, err = r.groups.CreateMetaobjectDefinition(ctx, GroupType, "PIM style group", []shopify.MetaobjectFieldDefinition{
			{Key: GroupFieldStyleCode, Name: "Style code", Type: "single_line_text_field"},
			{Key: GroupFieldName, Name: "Name", Type: "single_line_text_field"},
			{Key: GroupFieldProducts, Name: "Products", Type: "list.product_reference"},
		})
		if errors.IsAlreadyExists(err) {
			id, err = r.groups.MetaobjectDefinitionByType(ctx, GroupType)
		}
		if err != nil {
			return "", errors.WrapResource("create", "metaobject definition", GroupType, err)
		}
		logging.FromContext(ctx).Info().Str("type", GroupType).Str("definition_id", id).Msg("Created grouping definition")
	}
	r.groupDefinition = id
	return id, nil
}

// EnsureGroup returns the grouping reference of style, reusing the one
// keyed by the style name's handle when it exists.
func (r *Reconciler) EnsureGroup(ctx context.Context, style pim.Style) (*GroupRef, error) {
	if _, err := r.GroupDefinition(ctx); err != nil {
		return nil, err
	}
	handle := textnorm.Slug(style.DisplayName())

	existing, err := r.groups.MetaobjectByHandle(ctx, GroupType, handle)
	if err != nil {
		return nil, errors.WrapResource("lookup", "style group", handle, err)
	}
	if existing != nil {
		ref := &GroupRef{ID: existing.ID, Handle: existing.Handle}
		if raw := existing.Field(GroupFieldProducts); raw != "" {
			if err := json.Unmarshal([]byte(raw), &ref.ProductIDs); err != nil {
				logging.FromContext(ctx).Warn().Err(err).Str("handle", handle).Msg("Ignoring unreadable product list of style group")
			}
		}
		return ref, nil
	}

	if err := r.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	created, err := r.groups.CreateMetaobject(ctx, GroupType, handle, []shopify.MetaobjectField{
		{Key: GroupFieldStyleCode, Value: style.ID},
		{Key: GroupFieldName, Value: style.DisplayName()},
	})
	if err != nil {
		return nil, errors.WrapResource("create", "style group", handle, err)
	}
	logging.FromContext(ctx).Info().Str("handle", handle).Str("group_id", created.ID).Msg("Created style group")
	return &GroupRef{ID: created.ID, Handle: handle}, nil
}

// LinkGroup adds productID to ref's product list.
func (r *Reconciler) LinkGroup(ctx context.Context, ref *GroupRef, productID string) error {
	if ref == nil || productID == "" || slices.Contains(ref.ProductIDs, productID) {
		return nil
	}
	ids := append(slices.Clone(ref.ProductIDs), productID)
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := r.pacer.Wait(ctx); err != nil {
		return err
	}
	if _, err := r.groups.UpdateMetaobject(ctx, ref.ID, []shopify.MetaobjectField{{Key: GroupFieldProducts, Value: string(raw)}}); err != nil {
		return errors.WrapResource("link", "style group", ref.Handle, err)
	}
	ref.ProductIDs = ids
	return nil
}
