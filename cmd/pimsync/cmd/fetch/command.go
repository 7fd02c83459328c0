// Package fetch provides the fetch command.
package fetch

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pimsync/internal/cmd/application"
	"github.com/agentstation/pimsync/internal/cmd/output"
	"github.com/agentstation/pimsync/pkg/constants"
)

// NewCommand creates the fetch command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var splitThreshold int

	cmd := &cobra.Command{
		Use:     "fetch STYLE",
		GroupID: "core",
		Short:   "Show a style as the PIM returns it",
		Long: `Fetch retrieves one style from the PIM without touching Shopify and
shows its records and the products an import would create, including
the split by size of large styles.`,
		Example: `  pimsync fetch STTU964
  pimsync fetch STTU964 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.Engine()
			if err != nil {
				return err
			}
			groups, err := engine.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return application.Render(app, output.Groups{Groups: groups, SplitThreshold: splitThreshold})
		},
	}

	cmd.Flags().IntVar(&splitThreshold, "split-threshold", constants.SplitThreshold,
		"Record count above which a style is shown split by size")

	return cmd
}
