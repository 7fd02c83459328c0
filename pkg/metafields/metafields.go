// Package metafields provisions the metafield schema the engine writes to
// and writes per-product values against it. Definitions are schema on the
// target platform and are never created implicitly by a value write, so a
// Schema returned by EnsureDefinitions is required to write anything.
package metafields

import (
	"context"
	"errors"
	"time"

	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/constants"
	pkgerrors "github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
)

// Metafield keys written on every product.
const (
	KeyStyleCode  = "style_code"
	KeyStyleGroup = "style_group"
)

// Metafield value types.
const (
	TypeText                = "single_line_text_field"
	TypeMetaobjectReference = "metaobject_reference"
)

// OwnerProduct is the owner type of every definition the engine creates.
const OwnerProduct = "PRODUCT"

// Catalog is the slice of the target catalog the provisioner needs.
type Catalog interface {
	CreateMetafieldDefinition(ctx context.Context, in shopify.MetafieldDefinitionInput) (string, error)
	SetMetafields(ctx context.Context, items []shopify.MetafieldItem) error
}

// Definition declares one metafield.
type Definition struct {
	Key         string
	Name        string
	Type        string
	Description string
	Validations []shopify.Validation
}

// ProductDefinitions returns the definitions the engine writes on products.
// The style group reference is only declared when the grouping metaobject
// definition is known, since the platform requires it as a validation.
func ProductDefinitions(groupDefinitionID string) []Definition {
	defs := []Definition{{
		Key:         KeyStyleCode,
		Name:        "PIM style code",
		Type:        TypeText,
		Description: "Style code of the PIM record this product was built from",
	}}
	if groupDefinitionID != "" {
		defs = append(defs, Definition{
			Key:         KeyStyleGroup,
			Name:        "PIM style group",
			Type:        TypeMetaobjectReference,
			Description: "Groups size partitions of one style",
			Validations: []shopify.Validation{{Name: "metaobject_definition_id", Value: groupDefinitionID}},
		})
	}
	return defs
}

// Schema is the outcome of EnsureDefinitions.
type Schema struct {
	Namespace string
	Created   int

	defined map[string]Definition
	failed  map[string]error
}

// Has reports whether key is defined and writable.
func (s *Schema) Has(key string) bool {
	_, ok := s.defined[key]
	return ok
}

// Ready reports whether every definition is in place.
func (s *Schema) Ready() bool {
	return len(s.failed) == 0
}

// Errors returns the definition failures.
func (s *Schema) Errors() []error {
	errs := make([]error, 0, len(s.failed))
	for _, err := range s.failed {
		errs = append(errs, err)
	}
	return errs
}

// Value is one metafield value to write.
type Value struct {
	Key   string
	Value string
}

// WriteResult reports a best-effort WriteValues call.
type WriteResult struct {
	Written int
	Skipped []string
	Errors  []error
}

// Provisioner ensures definitions and writes values.
type Provisioner struct {
	catalog         Catalog
	namespace       string
	sleep           wait.Func
	pacer           *wait.Pacer
	propagationWait time.Duration
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithSleep replaces the wait function.
func WithSleep(f wait.Func) Option {
	return func(p *Provisioner) {
		if f != nil {
			p.sleep = f
		}
	}
}

// WithPacer spaces schema and value mutations.
func WithPacer(pacer *wait.Pacer) Option {
	return func(p *Provisioner) {
		p.pacer = pacer
	}
}

// WithPropagationWait overrides the pause after definitions are created.
func WithPropagationWait(d time.Duration) Option {
	return func(p *Provisioner) {
		p.propagationWait = d
	}
}

// New creates a Provisioner for namespace.
func New(catalog Catalog, namespace string, opts ...Option) *Provisioner {
	p := &Provisioner{
		catalog:         catalog,
		namespace:       namespace,
		sleep:           wait.Sleep,
		propagationWait: constants.SchemaPropagationWait,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Namespace returns the namespace definitions are created in.
func (p *Provisioner) Namespace() string {
	return p.namespace
}

// EnsureDefinitions creates every definition that does not exist yet. An
// existing definition counts as defined. When anything was created the call
// pauses for schema propagation before returning. The returned error joins
// every definition failure; the Schema is usable either way and only lets
// values through for keys that are defined.
func (p *Provisioner) EnsureDefinitions(ctx context.Context, defs []Definition) (*Schema, error) {
	logger := logging.FromContext(ctx)
	schema := &Schema{
		Namespace: p.namespace,
		defined:   make(map[string]Definition, len(defs)),
		failed:    make(map[string]error),
	}

	for _, def := range defs {
		if err := p.pacer.Wait(ctx); err != nil {
			return schema, err
		}
		_, err := p.catalog.CreateMetafieldDefinition(ctx, shopify.MetafieldDefinitionInput{
			Name:        def.Name,
			Namespace:   p.namespace,
			Key:         def.Key,
			Type:        def.Type,
			OwnerType:   OwnerProduct,
			Description: def.Description,
			Validations: def.Validations,
		})
		switch {
		case err == nil:
			schema.Created++
			schema.defined[def.Key] = def
			logger.Info().Str("namespace", p.namespace).Str("key", def.Key).Msg("Created metafield definition")
		case pkgerrors.IsAlreadyExists(err):
			schema.defined[def.Key] = def
		default:
			schemaErr := &pkgerrors.SchemaError{Namespace: p.namespace, Key: def.Key, Err: err}
			schema.failed[def.Key] = schemaErr
			logger.Error().Err(err).
				Str("namespace", p.namespace).
				Str("key", def.Key).
				Msg("SCHEMA FAILURE: metafield definition could not be created, values for this key will be skipped")
		}
	}

	if schema.Created > 0 && p.propagationWait > 0 {
		logger.Debug().Dur("wait", p.propagationWait).Msg("Waiting for schema propagation")
		if err := p.sleep(ctx, p.propagationWait); err != nil {
			return schema, err
		}
	}

	return schema, errors.Join(schema.Errors()...)
}

// WriteValues writes values on ownerID. Keys missing from schema and blank
// values are skipped. Values go out in one call; when the platform rejects
// the batch each value is retried on its own so one bad field does not
// block the rest.
func (p *Provisioner) WriteValues(ctx context.Context, schema *Schema, ownerID string, values []Value) WriteResult {
	var res WriteResult
	if schema == nil {
		res.Errors = append(res.Errors, &pkgerrors.SchemaError{Namespace: p.namespace, Err: errors.New("definitions were not ensured")})
		return res
	}

	logger := logging.FromContext(ctx)
	items := make([]shopify.MetafieldItem, 0, len(values))
	for _, v := range values {
		if v.Value == "" {
			continue
		}
		def, ok := schema.defined[v.Key]
		if !ok {
			res.Skipped = append(res.Skipped, v.Key)
			logger.Warn().Str("key", v.Key).Str("owner_id", ownerID).Msg("Skipping metafield without definition")
			continue
		}
		items = append(items, shopify.MetafieldItem{
			OwnerID:   ownerID,
			Namespace: schema.Namespace,
			Key:       v.Key,
			Type:      def.Type,
			Value:     v.Value,
		})
	}
	if len(items) == 0 {
		return res
	}

	if err := p.pacer.Wait(ctx); err != nil {
		res.Errors = append(res.Errors, err)
		return res
	}
	err := p.catalog.SetMetafields(ctx, items)
	if err == nil {
		res.Written = len(items)
		return res
	}
	if _, ok := pkgerrors.AsUserErrors(err); !ok || len(items) == 1 {
		res.Errors = append(res.Errors, err)
		return res
	}

	for _, item := range items {
		if err := p.pacer.Wait(ctx); err != nil {
			res.Errors = append(res.Errors, err)
			return res
		}
		if err := p.catalog.SetMetafields(ctx, []shopify.MetafieldItem{item}); err != nil {
			logger.Warn().Err(err).Str("key", item.Key).Str("owner_id", ownerID).Msg("Metafield write failed")
			res.Errors = append(res.Errors, pkgerrors.WrapResource("write", "metafield "+item.Key, ownerID, err))
			continue
		}
		res.Written++
	}
	return res
}
