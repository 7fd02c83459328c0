// Package cmdutil provides flags and argument helpers shared by pimsync commands.
package cmdutil

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/pimsync/pkg/sync"
)

// RunFlags holds the flags that tune an import run.
type RunFlags struct {
	SkipImages     bool
	SkipMetafields bool
}

// AddRunFlags adds the import run flags to cmd.
func AddRunFlags(cmd *cobra.Command) *RunFlags {
	flags := &RunFlags{}

	cmd.Flags().BoolVar(&flags.SkipImages, "skip-images", false,
		"Reconcile products only; do not upload or assign images")
	cmd.Flags().BoolVar(&flags.SkipMetafields, "skip-metafields", false,
		"Do not provision or write metafields")

	return flags
}

// Options converts the flags to run options.
func (f *RunFlags) Options() []sync.Option {
	return []sync.Option{
		sync.WithSkipImages(f.SkipImages),
		sync.WithSkipMetafields(f.SkipMetafields),
	}
}

// StyleArgs splits positional arguments on commas and whitespace, so
// "STTU964,STSU177" and "STTU964 STSU177" name the same styles.
func StyleArgs(args []string) []string {
	var ids []string
	for _, arg := range args {
		ids = append(ids, strings.FieldsFunc(arg, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})...)
	}
	return ids
}
