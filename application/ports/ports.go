// Package ports defines the interfaces the pipeline depends on. The
// transformation core is pure; everything stateful (landing storage, the
// warehouse, the run lock, notifications, metrics) sits behind one of these
// ports so handlers can be exercised against in-memory fakes.
package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"reviewpipe/domain/analytics"
	"reviewpipe/domain/catalog"
	"reviewpipe/domain/reviews"
	"reviewpipe/domain/runs"
)

// LandingSource reads the externally-landed raw snapshots. Malformed lines
// are skipped, not errored; the skipped count comes back so the run report
// can surface it.
type LandingSource interface {
	FetchReviews(ctx context.Context) (rows []reviews.RawReview, skipped int64, err error)
	FetchMetadata(ctx context.Context) (rows []catalog.RawMetadata, skipped int64, err error)
}

// Warehouse replaces derived output sets wholesale. Each Replace call is
// all-or-nothing for its table; a rerun against the same inputs must leave
// the warehouse byte-identical.
type Warehouse interface {
	ReplaceReviews(ctx context.Context, rows []reviews.NormalizedReview) error
	ReplaceMetadata(ctx context.Context, rows []catalog.NormalizedMetadata) error
	ReplaceRatingSummary(ctx context.Context, rows []analytics.RatingSummary) error
}

// RunLock excludes overlapping pipeline runs. Acquire fails fast when the
// lock is held; the caller decides whether to wait or abort.
type RunLock interface {
	Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (Release, error)
}

// Release releases an acquired lock.
type Release func(ctx context.Context) error

// ErrRunNotFound is returned by RunStore.Get when no record exists for the
// requested run ID.
var ErrRunNotFound = errors.New("run not found")

// RunStore persists run records for the ops API and for post-hoc debugging.
type RunStore interface {
	Save(ctx context.Context, record runs.Record) error
	Get(ctx context.Context, runID string) (runs.Record, error)
	List(ctx context.Context, limit int32) ([]runs.Record, error)
}

// Notifier publishes the run outcome to the orchestration layer.
type Notifier interface {
	PublishRunStatus(ctx context.Context, record runs.Record) error
}

// MetricsPublisher reports run statistics to the monitoring backend.
type MetricsPublisher interface {
	PublishRunStats(ctx context.Context, record runs.Record) error
}

// ObjectStore is the slice of blob storage the ingest job needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
