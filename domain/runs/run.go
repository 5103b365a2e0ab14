// Package runs models one invocation of the transformation pipeline: its
// identity, lifecycle status and row-level statistics. The surrounding
// orchestrator observes runs through these records and through the status
// notification published when a run finishes.
package runs

import "time"

// Status is the orchestrator-visible outcome of a run.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Stats captures per-stage row counts for one run. Dropped counts are the
// only trace the silently-discarded rows leave behind.
type Stats struct {
	ReviewsIn       int64 `json:"reviews_in"`
	ReviewsOut      int64 `json:"reviews_out"`
	ReviewsDropped  int64 `json:"reviews_dropped"`
	MetadataIn      int64 `json:"metadata_in"`
	MetadataOut     int64 `json:"metadata_out"`
	MetadataDropped int64 `json:"metadata_dropped"`
	AggregateRows   int64 `json:"aggregate_rows"`
	MalformedLines  int64 `json:"malformed_lines"`
}

// Record is one pipeline run.
type Record struct {
	RunID      string    `json:"run_id"`
	Job        string    `json:"job"`
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Stats      Stats     `json:"stats"`
	Error      string    `json:"error,omitempty"`
}

// Duration returns the wall-clock duration of a finished run, zero while the
// run is still in flight.
func (r Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Finished reports whether the run reached a terminal status.
func (r Record) Finished() bool {
	return r.Status == StatusSucceeded || r.Status == StatusFailed
}
