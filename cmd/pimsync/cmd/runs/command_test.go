package runs

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pimsync/internal/cmd/application"
	pkgerrors "github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/runlog"
	"github.com/agentstation/pimsync/pkg/sync"
)

func seed(t *testing.T) (*runlog.YAMLStore, []*sync.Result) {
	t.Helper()
	store := runlog.NewYAMLStore(t.TempDir())
	var results []*sync.Result
	for _, id := range []string{"STTU964", "STSU177"} {
		r := sync.NewResult(sync.KindStyles, []string{id})
		r.ProductsCreated = 1
		r.Finish()
		require.NoError(t, store.Save(context.Background(), r))
		results = append(results, r)
	}
	return store, results
}

func execute(t *testing.T, store *runlog.YAMLStore, format string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := &application.Mock{
		RunLogFunc:       func() *runlog.YAMLStore { return store },
		OutputFormatFunc: func() string { return format },
		Writer:           &buf,
	}
	cmd := NewCommand(app)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRunsList(t *testing.T) {
	store, results := seed(t)

	out, err := execute(t, store, "table", "list")
	require.NoError(t, err)
	for _, r := range results {
		assert.Contains(t, out, r.RunID)
	}
}

func TestRunsList_Limit(t *testing.T) {
	store, _ := seed(t)

	out, err := execute(t, store, "yaml", "list", "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("run_id:")))
}

func TestRunsShow(t *testing.T) {
	store, results := seed(t)

	out, err := execute(t, store, "json", "show", results[1].RunID)
	require.NoError(t, err)
	assert.Contains(t, out, results[1].RunID)
	assert.Contains(t, out, "STSU177")
}

func TestRunsShow_Unknown(t *testing.T) {
	store, _ := seed(t)

	_, err := execute(t, store, "json", "show", "missing")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestRuns_NoStore(t *testing.T) {
	_, err := execute(t, nil, "json", "list")
	assert.True(t, pkgerrors.IsConfigError(err))
}
