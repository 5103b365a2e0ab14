package queries

import "fmt"

// GetRunQuery fetches a single run record by id.
type GetRunQuery struct {
	RunID string
}

// Validate ensures the query is well formed
func (q GetRunQuery) Validate() error {
	if q.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	return nil
}
