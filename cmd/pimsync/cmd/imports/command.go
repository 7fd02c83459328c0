// Package imports provides the import command.
package imports

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pimsync/internal/cmd/application"
	"github.com/agentstation/pimsync/internal/cmd/cmdutil"
	"github.com/agentstation/pimsync/pkg/errors"
)

// NewCommand creates the import command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		all   bool
		flags *cmdutil.RunFlags
	)

	cmd := &cobra.Command{
		Use:     "import [STYLE...]",
		GroupID: "core",
		Short:   "Import styles from the PIM into Shopify",
		Long: `Import fetches each style from the PIM and reconciles it into the
Shopify catalog:

1. Products and variants are created or updated, matched by handle,
   style code or SKU so reruns never duplicate them
2. Style metafields are provisioned and written
3. Images are uploaded once, attached to every product of the style
   and assigned to the variants of their color

A failing style is recorded in the run summary and the next style is
processed. The run summary is printed and saved to the run log.`,
		Example: `  pimsync import STTU964                  # Import one style
  pimsync import STTU964 STSU177          # Import several styles
  pimsync import --all                    # Import every published style
  pimsync import STTU964 --skip-images     # Products and metafields only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := cmdutil.StyleArgs(args)
			if all && len(ids) > 0 {
				return errors.NewValidationError("all", args, "--all cannot be combined with style codes")
			}

			engine, err := app.Engine()
			if err != nil {
				return err
			}

			if all {
				result, err := engine.ImportAll(ctx, flags.Options()...)
				if err != nil {
					return err
				}
				return application.RenderRun(app, result)
			}

			result, err := engine.ImportStyles(ctx, ids, flags.Options()...)
			if err != nil {
				return err
			}
			return application.RenderRun(app, result)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Import every style the PIM returns")
	flags = cmdutil.AddRunFlags(cmd)

	return cmd
}
