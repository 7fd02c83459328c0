// Package schedule provides the schedule command.
package schedule

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/pimsync/internal/cmd/application"
	"github.com/agentstation/pimsync/internal/cmd/cmdutil"
)

// DefaultInterval is how often a scheduled full import runs by default.
const DefaultInterval = 6 * time.Hour

// NewCommand creates the schedule command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		every time.Duration
		flags *cmdutil.RunFlags
	)

	cmd := &cobra.Command{
		Use:     "schedule",
		GroupID: "management",
		Short:   "Run full imports on an interval",
		Long: `Schedule runs "import --all" every interval until interrupted. Runs never
overlap; each run is saved to the run log. Stop it with Ctrl-C or SIGTERM:
the running import finishes its current style first.`,
		Example: `  pimsync schedule --every 6h
  pimsync schedule --every 30m --skip-images`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := app.Engine()
			if err != nil {
				return err
			}
			return engine.Schedule(cmd.Context(), every, flags.Options()...)
		},
	}

	cmd.Flags().DurationVar(&every, "every", DefaultInterval, "Interval between imports")
	flags = cmdutil.AddRunFlags(cmd)

	return cmd
}
