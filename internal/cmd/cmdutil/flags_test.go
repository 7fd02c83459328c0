package cmdutil

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pimsync/pkg/sync"
)

func TestStyleArgs(t *testing.T) {
	assert.Equal(t, []string{"STTU964", "STSU177", "STTU788"},
		StyleArgs([]string{"STTU964,STSU177", " STTU788 "}))
	assert.Empty(t, StyleArgs([]string{",", ""}))
}

func TestRunFlags_Options(t *testing.T) {
	cmd := &cobra.Command{Use: "import"}
	flags := AddRunFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--skip-images"}))

	opts := sync.Defaults().Apply(flags.Options()...)
	assert.True(t, opts.SkipImages)
	assert.False(t, opts.SkipMetafields)
}
