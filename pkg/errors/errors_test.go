package errors_test

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/agentstation/pimsync/pkg/errors"
)

func TestNotFoundError(t *testing.T) {
	err := pkgerrors.NewNotFoundError("product", "STTU964")
	assert.Equal(t, "product with ID STTU964 not found", err.Error())
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.IsNotFound(fmt.Errorf("lookup: %w", err)))
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("style_ids", nil, "at least one style code is required")
		assert.Equal(t, "validation failed for field style_ids: at least one style code is required", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "bad config"}
		assert.Equal(t, "validation failed: bad config", err.Error())
	})
}

func TestAPIError(t *testing.T) {
	assert.True(t, pkgerrors.IsRateLimited(pkgerrors.NewAPIError("shopify", 429, "throttled")))
	assert.True(t, pkgerrors.IsProviderUnavailable(pkgerrors.NewAPIError("pim", 503, "down")))
	assert.False(t, pkgerrors.IsProviderUnavailable(pkgerrors.NewAPIError("pim", 400, "bad")))

	base := errors.New("connection reset")
	wrapped := pkgerrors.WrapAPI("pim", 0, base)
	assert.ErrorIs(t, wrapped, base)
	assert.Nil(t, pkgerrors.WrapAPI("pim", 0, nil))
}

func TestUserErrors(t *testing.T) {
	t.Run("empty list is not an error", func(t *testing.T) {
		assert.NoError(t, pkgerrors.AsError("fileUpdate", nil))
	})

	t.Run("already is classified as already exists", func(t *testing.T) {
		err := pkgerrors.AsError("fileUpdate", []pkgerrors.UserError{
			{Field: []string{"files", "0"}, Message: "File is already referenced by product"},
		})
		assert.True(t, pkgerrors.IsAlreadyExists(err))
		assert.False(t, pkgerrors.IsNotReady(err))
		assert.Contains(t, err.Error(), "files.0: File is already referenced")
	})

	t.Run("mixed errors are not already exists", func(t *testing.T) {
		err := pkgerrors.AsError("productVariantsBulkCreate", []pkgerrors.UserError{
			{Message: "Variant already exists"},
			{Message: "Price must be positive"},
		})
		assert.False(t, pkgerrors.IsAlreadyExists(err))
		ue, ok := pkgerrors.AsUserErrors(err)
		assert.True(t, ok)
		assert.True(t, ue.Contains("ALREADY"))
	})

	t.Run("processing is not ready", func(t *testing.T) {
		err := pkgerrors.AsError("productVariantAppendMedia", []pkgerrors.UserError{
			{Message: "Media is still processing"},
		})
		assert.True(t, pkgerrors.IsNotReady(fmt.Errorf("assign: %w", err)))
	})

	t.Run("non-ready code", func(t *testing.T) {
		err := pkgerrors.AsError("fileUpdate", []pkgerrors.UserError{
			{Message: "Cannot reference files", Code: "NON_READY_STATE"},
		})
		assert.True(t, pkgerrors.IsNotReady(err))
		err = pkgerrors.AsError("fileUpdate", []pkgerrors.UserError{
			{Message: "Non-ready files cannot be referenced"},
		})
		assert.True(t, pkgerrors.IsNotReady(err))
	})
}

func TestSourceUnavailableError(t *testing.T) {
	err := &pkgerrors.SourceUnavailableError{
		StyleID:    "STTU964",
		Partitions: []string{"pim_eu", "pim_us"},
		Attempts:   3,
	}
	assert.True(t, pkgerrors.IsSourceUnavailable(err))
	assert.Contains(t, err.Error(), "style STTU964")
	assert.Contains(t, err.Error(), "pim_eu, pim_us")
}

func TestMatchError(t *testing.T) {
	err := &pkgerrors.MatchError{
		Subject:    "color Bubble Pink - C129",
		Wanted:     "C129",
		Tried:      []string{"style-code", "code"},
		Candidates: []string{"a.jpg", "b.jpg"},
	}
	assert.ErrorIs(t, err, pkgerrors.ErrNoMatch)
	assert.Contains(t, err.Error(), "2 candidates")
}

func TestWrapResource(t *testing.T) {
	assert.Nil(t, pkgerrors.WrapResource("create", "product", "x", nil))

	base := pkgerrors.NewAPIError("shopify", 502, "bad gateway")
	err := pkgerrors.WrapResource("create", "product", "STTU964", base)
	assert.Equal(t, "failed to create product STTU964: API error from shopify (status 502): bad gateway", err.Error())
	assert.True(t, pkgerrors.IsProviderUnavailable(err))
}

func TestSchemaError(t *testing.T) {
	base := errors.New("namespace reserved")
	err := &pkgerrors.SchemaError{Namespace: "pim", Key: "style_code", Err: base}
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "schema error for pim.style_code: namespace reserved", err.Error())
}

func TestIsTransient(t *testing.T) {
	assert.False(t, pkgerrors.IsTransient(nil))
	assert.True(t, pkgerrors.IsTransient(pkgerrors.NewAPIError("pim", 503, "unavailable")))
	assert.True(t, pkgerrors.IsTransient(pkgerrors.NewAPIError("shopify", 429, "throttled")))
	assert.True(t, pkgerrors.IsTransient(pkgerrors.WrapAPI("pim", 0, &net.OpError{Op: "dial", Err: errors.New("refused")})))
	assert.False(t, pkgerrors.IsTransient(pkgerrors.NewAPIError("pim", 401, "unauthorized")))
	assert.False(t, pkgerrors.IsTransient(errors.New("invalid payload")))
}
