package application

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/pimsync"
	"github.com/agentstation/pimsync/pkg/runlog"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	EngineFunc       func() (pimsync.Engine, error)
	RunLogFunc       func() *runlog.YAMLStore
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	Writer           io.Writer
	VersionFunc      func() string
}

// Engine returns an engine using the mock function or nil.
func (m *Mock) Engine() (pimsync.Engine, error) {
	if m.EngineFunc != nil {
		return m.EngineFunc()
	}
	return nil, nil
}

// RunLog returns a store using the mock function or nil.
func (m *Mock) RunLog() *runlog.YAMLStore {
	if m.RunLogFunc != nil {
		return m.RunLogFunc()
	}
	return nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Out returns Writer, or stdout.
func (m *Mock) Out() io.Writer {
	if m.Writer != nil {
		return m.Writer
	}
	return os.Stdout
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
