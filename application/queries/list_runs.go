package queries

import "fmt"

// DefaultRunLimit bounds how many run records a listing returns when the
// caller does not say.
const DefaultRunLimit = 20

// ListRunsQuery fetches the most recent run records, newest first.
type ListRunsQuery struct {
	Limit int32
}

// Validate ensures the query is well formed
func (q ListRunsQuery) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	if q.Limit > 100 {
		return fmt.Errorf("limit must not exceed 100")
	}
	return nil
}
