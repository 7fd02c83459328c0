// Package runs provides the runs command for inspecting saved run logs.
package runs

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pimsync/internal/cmd/application"
	"github.com/agentstation/pimsync/internal/cmd/output"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/runlog"
	"github.com/agentstation/pimsync/pkg/sync"
)

// NewCommand creates the runs command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "runs",
		GroupID: "management",
		Short:   "Inspect saved run logs",
		Long: `Runs reads the YAML run log directory (runlog.dir) written by every
import. Use "runs list" for an overview and "runs show RUN_ID" for the
full summary, including the per-image attachment log.`,
	}

	cmd.AddCommand(newListCommand(app), newShowCommand(app))
	return cmd
}

func newListCommand(app application.Application) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := requireStore(app)
			if err != nil {
				return err
			}
			files, err := store.List()
			if err != nil {
				return err
			}
			if limit > 0 && len(files) > limit {
				files = files[len(files)-limit:]
			}

			results := make([]*sync.Result, 0, len(files))
			for _, f := range files {
				r, err := store.Read(f)
				if err != nil {
					app.Logger().Warn().Err(err).Str("path", f).Msg("Skipping unreadable run log")
					continue
				}
				results = append(results, r)
			}
			return application.Render(app, output.Runs(results))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show only the most recent runs (0 for all)")
	return cmd
}

func newShowCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := requireStore(app)
			if err != nil {
				return err
			}
			result, err := store.Load(args[0])
			if err != nil {
				return err
			}
			return application.Render(app, output.Run{Result: result})
		},
	}
}

func requireStore(app application.Application) (*runlog.YAMLStore, error) {
	store := app.RunLog()
	if store == nil {
		return nil, errors.NewConfigError("runlog", "runlog.dir is not configured", nil)
	}
	return store, nil
}
