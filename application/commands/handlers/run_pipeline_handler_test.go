package handlers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reviewpipe/application/commands"
	"reviewpipe/application/ports"
	"reviewpipe/domain/analytics"
	"reviewpipe/domain/catalog"
	"reviewpipe/domain/reviews"
	"reviewpipe/domain/runs"
)

type fakeSource struct {
	reviews  []reviews.RawReview
	metadata []catalog.RawMetadata
	skipped  int64
	err      error
}

func (f *fakeSource) FetchReviews(context.Context) ([]reviews.RawReview, int64, error) {
	return f.reviews, f.skipped, f.err
}

func (f *fakeSource) FetchMetadata(context.Context) ([]catalog.RawMetadata, int64, error) {
	return f.metadata, 0, f.err
}

type fakeWarehouse struct {
	mu       sync.Mutex
	reviews  []reviews.NormalizedReview
	metadata []catalog.NormalizedMetadata
	summary  []analytics.RatingSummary
	failOn   string
	replaces int
}

func (f *fakeWarehouse) ReplaceReviews(_ context.Context, rows []reviews.NormalizedReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == "reviews" {
		return fmt.Errorf("warehouse unavailable")
	}
	f.reviews = rows
	f.replaces++
	return nil
}

func (f *fakeWarehouse) ReplaceMetadata(_ context.Context, rows []catalog.NormalizedMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == "metadata" {
		return fmt.Errorf("warehouse unavailable")
	}
	f.metadata = rows
	f.replaces++
	return nil
}

func (f *fakeWarehouse) ReplaceRatingSummary(_ context.Context, rows []analytics.RatingSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == "summary" {
		return fmt.Errorf("warehouse unavailable")
	}
	f.summary = rows
	f.replaces++
	return nil
}

type fakeLock struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLock) Acquire(context.Context, string, string, time.Duration) (ports.Release, error) {
	if f.held {
		return nil, fmt.Errorf("lock already held")
	}
	f.held = true
	f.acquired++
	return func(context.Context) error {
		f.held = false
		f.released++
		return nil
	}, nil
}

type fakeRunStore struct {
	mu      sync.Mutex
	records map[string]runs.Record
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{records: map[string]runs.Record{}}
}

func (f *fakeRunStore) Save(_ context.Context, record runs.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.RunID] = record
	return nil
}

func (f *fakeRunStore) Get(_ context.Context, runID string) (runs.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[runID]
	if !ok {
		return runs.Record{}, fmt.Errorf("run not found: %s", runID)
	}
	return r, nil
}

func (f *fakeRunStore) List(context.Context, int32) ([]runs.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runs.Record, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

type fakeNotifier struct {
	published []runs.Record
}

func (f *fakeNotifier) PublishRunStatus(_ context.Context, record runs.Record) error {
	f.published = append(f.published, record)
	return nil
}

type fakeMetrics struct {
	published []runs.Record
}

func (f *fakeMetrics) PublishRunStats(_ context.Context, record runs.Record) error {
	f.published = append(f.published, record)
	return nil
}

type pipelineFixture struct {
	handler   *RunPipelineHandler
	source    *fakeSource
	warehouse *fakeWarehouse
	lock      *fakeLock
	runStore  *fakeRunStore
	notifier  *fakeNotifier
	metrics   *fakeMetrics
}

func newPipelineFixture(source *fakeSource) *pipelineFixture {
	f := &pipelineFixture{
		source:    source,
		warehouse: &fakeWarehouse{},
		lock:      &fakeLock{},
		runStore:  newFakeRunStore(),
		notifier:  &fakeNotifier{},
		metrics:   &fakeMetrics{},
	}
	f.handler = NewRunPipelineHandler(
		f.source,
		f.warehouse,
		f.lock,
		f.runStore,
		f.notifier,
		f.metrics,
		time.Minute,
		zap.NewNop(),
	)
	return f
}

func sampleSource() *fakeSource {
	return &fakeSource{
		reviews: []reviews.RawReview{
			{ProductID: "b001", Rating: "4.0", Verified: "true", ReviewTime: "Aug 31, 2020", ReviewerID: "R1"},
			{ProductID: "b001", Rating: "5.0", Verified: "y", ReviewTime: "Sep 1, 2020", ReviewerID: "R2"},
			{ProductID: "b001", Rating: "3.0", Verified: "no", ReviewTime: "Sep 2, 2020", ReviewerID: "R3"},
			{ProductID: "b002", Rating: "junk", ReviewTime: "Sep 2, 2020", ReviewerID: "R4"},
		},
		metadata: []catalog.RawMetadata{
			{ProductID: "b001", Title: "Widget", Value: `{"brand": "Acme"}`},
			{ProductID: "b002", Title: "Gadget", Value: "no brand here"},
		},
		skipped: 2,
	}
}

func TestRunPipelineHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(sampleSource())

	err := f.handler.Handle(ctx, commands.RunPipelineCommand{RunID: "run-1", TriggeredBy: "test"})
	require.NoError(t, err)

	// Three valid reviews survive, the unparseable rating is dropped.
	assert.Len(t, f.warehouse.reviews, 3)
	assert.Len(t, f.warehouse.metadata, 2)

	// One aggregate bucket: (2020, Acme) mean 4.0 over 3 reviews.
	require.Len(t, f.warehouse.summary, 1)
	assert.Equal(t, analytics.RatingSummary{
		Year: "2020", Brand: "Acme", Rating: 4.0, ReviewCount: 3,
	}, f.warehouse.summary[0])

	record, err := f.runStore.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, runs.StatusSucceeded, record.Status)
	assert.EqualValues(t, 4, record.Stats.ReviewsIn)
	assert.EqualValues(t, 3, record.Stats.ReviewsOut)
	assert.EqualValues(t, 1, record.Stats.ReviewsDropped)
	assert.EqualValues(t, 2, record.Stats.MalformedLines)
	assert.EqualValues(t, 1, record.Stats.AggregateRows)

	require.Len(t, f.notifier.published, 1)
	assert.Equal(t, runs.StatusSucceeded, f.notifier.published[0].Status)
	require.Len(t, f.metrics.published, 1)

	assert.Equal(t, 1, f.lock.acquired)
	assert.Equal(t, 1, f.lock.released)
}

func TestRunPipelineIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(sampleSource())

	require.NoError(t, f.handler.Handle(ctx, commands.RunPipelineCommand{RunID: "run-1", TriggeredBy: "test"}))
	firstReviews := f.warehouse.reviews
	firstMeta := f.warehouse.metadata
	firstSummary := f.warehouse.summary

	require.NoError(t, f.handler.Handle(ctx, commands.RunPipelineCommand{RunID: "run-2", TriggeredBy: "test"}))

	assert.Equal(t, firstReviews, f.warehouse.reviews)
	assert.Equal(t, firstMeta, f.warehouse.metadata)
	assert.Equal(t, firstSummary, f.warehouse.summary)
}

func TestRunPipelineLockContention(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(sampleSource())
	f.lock.held = true

	err := f.handler.Handle(ctx, commands.RunPipelineCommand{RunID: "run-1", TriggeredBy: "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run lock")

	// Nothing was written and nothing announced.
	assert.Zero(t, f.warehouse.replaces)
	assert.Empty(t, f.notifier.published)
}

func TestRunPipelineSourceFailure(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(&fakeSource{err: fmt.Errorf("landing bucket unreachable")})

	err := f.handler.Handle(ctx, commands.RunPipelineCommand{RunID: "run-1", TriggeredBy: "test"})
	require.Error(t, err)

	record, getErr := f.runStore.Get(ctx, "run-1")
	require.NoError(t, getErr)
	assert.Equal(t, runs.StatusFailed, record.Status)
	assert.Contains(t, record.Error, "landing bucket unreachable")

	// A failed run is still announced, and the lock still released.
	require.Len(t, f.notifier.published, 1)
	assert.Equal(t, runs.StatusFailed, f.notifier.published[0].Status)
	assert.Equal(t, 1, f.lock.released)
}

func TestRunPipelineWarehouseFailure(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(sampleSource())
	f.warehouse.failOn = "summary"

	err := f.handler.Handle(ctx, commands.RunPipelineCommand{RunID: "run-1", TriggeredBy: "test"})
	require.Error(t, err)

	record, getErr := f.runStore.Get(ctx, "run-1")
	require.NoError(t, getErr)
	assert.Equal(t, runs.StatusFailed, record.Status)
}
