// Package logging provides structured logging for pimsync using zerolog.
// Console output is used when stderr is a terminal, JSON otherwise, so the
// same binary reads well interactively and in scheduled import jobs.
//
// Engine packages never hold a logger; they take it from the context so
// every line of a run carries run_id, style_id and product_id:
//
//	ctx = logging.WithRun(ctx, result.RunID)
//	ctx = logging.WithStyle(ctx, "STTU964")
//	logging.FromContext(ctx).Info().Int("variants", 42).Msg("Product created")
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = NewLoggerFromConfig(envConfig())

// Default returns the process-wide logger used when a context carries none.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's global one.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Warn starts a warning on the default logger, for code paths without a context.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// stderrIsTerminal reports whether logs go to an interactive terminal.
func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
