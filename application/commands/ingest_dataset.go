package commands

import (
	"fmt"
	"strings"
)

// IngestDatasetCommand downloads one gzipped dataset file and lands it in
// the object store as plain JSON lines.
type IngestDatasetCommand struct {
	// Name labels the dataset ("reviews", "metadata") for logs and markers.
	Name string
	// SourceURL is the HTTPS location of the .json.gz file.
	SourceURL string
	// TargetKey is the object key the decompressed .json lands under.
	TargetKey string
}

// Validate ensures the command is well formed
func (c IngestDatasetCommand) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("dataset name is required")
	}
	if !strings.HasPrefix(c.SourceURL, "https://") && !strings.HasPrefix(c.SourceURL, "http://") {
		return fmt.Errorf("source url must be http(s): %q", c.SourceURL)
	}
	if c.TargetKey == "" {
		return fmt.Errorf("target key is required")
	}
	return nil
}
