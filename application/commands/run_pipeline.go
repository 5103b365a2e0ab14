package commands

import "fmt"

// RunPipelineCommand triggers one full transformation run against the
// current landed snapshot.
type RunPipelineCommand struct {
	// RunID identifies the run; assigned by the caller so the trigger can
	// correlate the eventual status notification.
	RunID string
	// TriggeredBy records what asked for the run: "schedule", "api",
	// "lambda".
	TriggeredBy string
}

// Validate ensures the command is well formed
func (c RunPipelineCommand) Validate() error {
	if c.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if c.TriggeredBy == "" {
		return fmt.Errorf("trigger source is required")
	}
	return nil
}
