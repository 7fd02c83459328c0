package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/pimsync/pkg/constants"
)

// Config holds logger configuration options.
type Config struct {
	Level   string // trace, debug, info, warn, error, disabled
	Format  string // json, console or auto (console on a terminal)
	Output  string // stderr, stdout, discard or a file path
	NoColor bool

	// Fields are attached to every line, e.g. {"store": "my-shop"}.
	Fields map[string]string
}

// DefaultConfig returns info level, auto format on stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Format:  "auto",
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
		Fields:  make(map[string]string),
	}
}

// envConfig reads LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT, LOG_FIELDS (comma
// separated key=value pairs) and NO_COLOR. DEBUG=1 is a shortcut for
// LOG_LEVEL=debug.
func envConfig() *Config {
	cfg := DefaultConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = level
	} else if os.Getenv("DEBUG") != "" {
		cfg.Level = "debug"
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		cfg.Output = output
	}
	cfg.Fields = parseFields(os.Getenv("LOG_FIELDS"))
	return cfg
}

// NewLoggerFromConfig builds a logger. Debug and trace levels add the caller.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	lc := zerolog.New(writerFor(cfg)).Level(level).With().Timestamp()
	if level <= zerolog.DebugLevel {
		lc = lc.Caller()
	}
	for k, v := range cfg.Fields {
		lc = lc.Str(k, v)
	}
	return lc.Logger()
}

// Configure replaces the default logger.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

// ConfigureFromEnv replaces the default logger with one built from the
// LOG_* environment variables.
func ConfigureFromEnv() {
	Configure(envConfig())
}

func writerFor(cfg *Config) io.Writer {
	var out io.Writer
	terminal := false
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		out = os.Stdout
	case "", "stderr":
		out = os.Stderr
		terminal = stderrIsTerminal()
	case "discard", "none":
		out = io.Discard
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
		if err != nil {
			// Logging must never stop an import
			out = os.Stderr
		} else {
			out = file
		}
	}

	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
	case "auto", "":
		if !terminal {
			return out
		}
	default:
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: cfg.NoColor}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "", "info":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	}
	if l, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
		return l
	}
	return zerolog.InfoLevel
}

func parseFields(fields string) map[string]string {
	result := make(map[string]string)
	for _, field := range strings.Split(fields, ",") {
		if key, value, ok := strings.Cut(field, "="); ok {
			result[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	return result
}
