// Package images provides the images command.
package images

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pimsync/internal/cmd/application"
	"github.com/agentstation/pimsync/internal/cmd/cmdutil"
)

// NewCommand creates the images command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "images STYLE...",
		GroupID: "core",
		Short:   "Re-run the image pipeline for existing products",
		Long: `Images locates the Shopify products of each style without creating or
updating them, then resolves, attaches and assigns the style's images.
Use it after a partial failure or when only the PIM images changed.`,
		Example: `  pimsync images STTU964
  pimsync images STTU964,STSU177`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.Engine()
			if err != nil {
				return err
			}
			result, err := engine.ImportImages(cmd.Context(), cmdutil.StyleArgs(args))
			if err != nil {
				return err
			}
			return application.RenderRun(app, result)
		},
	}
}
