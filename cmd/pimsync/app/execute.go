package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentstation/pimsync/cmd/pimsync/cmd/fetch"
	"github.com/agentstation/pimsync/cmd/pimsync/cmd/images"
	"github.com/agentstation/pimsync/cmd/pimsync/cmd/imports"
	"github.com/agentstation/pimsync/cmd/pimsync/cmd/runs"
	"github.com/agentstation/pimsync/cmd/pimsync/cmd/schedule"
	"github.com/agentstation/pimsync/cmd/pimsync/cmd/version"
	"github.com/agentstation/pimsync/internal/cmd/application"
	"github.com/agentstation/pimsync/internal/cmd/output"
	"github.com/agentstation/pimsync/pkg/logging"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// Execute runs the pimsync CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "pimsync",
		Short:   "PIM to Shopify catalog sync",
		Version: a.version,
		Long: `Pimsync imports product styles from the PIM into a Shopify store.

Each style becomes one product, or one product per size range for large
styles, with its variants, metafields and images. Imports are idempotent:
existing products, variants and files are found and updated, never
duplicated.

Configure the PIM and the store with ~/.pimsync.yaml, .env files or
environment variables such as PIM_URL and SHOPIFY_ACCESS_TOKEN.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	// Add global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.pimsync.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().Bool("no-color", a.config.NoColor, "disable colored output")
	rootCmd.PersistentFlags().StringP("format", "o", "", "output format: table, json, yaml")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("pimsync {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// An explicit --config is only known after parsing, so reload from it
	if configFile := mustGetString(cmd, "config"); configFile != "" {
		viper.Set("config", configFile)
		config, err := LoadConfig()
		if err != nil {
			return err
		}
		a.config = config
	}

	// These flags are defined as persistent flags in createRootCommand, so errors indicate programming errors
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	if _, err := output.ParseFormat(format); err != nil {
		return err
	}
	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(imports.NewCommand(a))
	rootCmd.AddCommand(images.NewCommand(a))
	rootCmd.AddCommand(fetch.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(schedule.NewCommand(a))
	rootCmd.AddCommand(runs.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(version.NewCommand(a))
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
