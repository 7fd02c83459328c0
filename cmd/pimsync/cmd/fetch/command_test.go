package fetch

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pimsync"
	"github.com/agentstation/pimsync/internal/cmd/application"
	"github.com/agentstation/pimsync/pkg/pim"
)

func TestFetch(t *testing.T) {
	var requested string
	engine := &application.EngineMock{
		FetchFunc: func(_ context.Context, styleID string) ([]pim.ProductGroup, error) {
			requested = styleID
			return pim.GroupByStyle([]pim.SourceVariantRecord{{
				StyleID: "STTU964", StyleName: "Creator 2.0", StylePublished: true, VariantPublished: true,
				SizeName: "S", SizeCode: "S", ColorName: "Black", ColorCode: "C001",
			}}), nil
		},
	}
	var buf bytes.Buffer
	app := &application.Mock{
		EngineFunc: func() (pimsync.Engine, error) { return engine, nil },
		Writer:     &buf,
	}

	cmd := NewCommand(app)
	cmd.SetArgs([]string{"sttu964"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Equal(t, "sttu964", requested)
	assert.Contains(t, buf.String(), "Creator 2.0")
	assert.Contains(t, buf.String(), "STTU964C001S")
}

func TestFetch_RequiresOneStyle(t *testing.T) {
	cmd := NewCommand(&application.Mock{})
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
