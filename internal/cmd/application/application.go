// Package application defines what pimsync commands need from the CLI
// application. Commands accept this interface rather than the concrete
// App so they can be tested against a Mock.
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            engine, err := app.Engine()
//	            if err != nil {
//	                return err
//	            }
//	            result, err := engine.ImportStyles(cmd.Context(), args)
//	            // ... render result
//	        },
//	    }
//	}
package application

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/agentstation/pimsync"
	"github.com/agentstation/pimsync/pkg/runlog"
)

// Application provides the dependencies commands need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Engine returns the import engine, building it on first use from
	// the PIM, Shopify and run log configuration.
	Engine() (pimsync.Engine, error)

	// RunLog returns the YAML run log store, or nil when none is configured.
	RunLog() *runlog.YAMLStore

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Out is where command output is written.
	Out() io.Writer

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
