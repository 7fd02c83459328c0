package application

import (
	"fmt"

	"github.com/agentstation/pimsync/internal/cmd/output"
	"github.com/agentstation/pimsync/pkg/sync"
)

// Render writes data to app.Out in the configured output format.
func Render(app Application, data any) error {
	return output.NewFormatter(output.DetectFormat(app.OutputFormat())).Format(app.Out(), data)
}

// RenderRun writes a run summary and reports a run that recorded errors
// as a failed command, so scripts can rely on the exit status.
func RenderRun(app Application, result *sync.Result) error {
	if result == nil {
		return nil
	}
	if err := Render(app, output.Run{Result: result}); err != nil {
		return err
	}
	if result.HasErrors() {
		return fmt.Errorf("run %s finished with %d error(s)", result.RunID, len(result.Errors))
	}
	return nil
}
