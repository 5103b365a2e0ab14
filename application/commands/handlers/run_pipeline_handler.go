package handlers

import (
	"context"
	"fmt"
	"time"

	"reviewpipe/application/commands"
	"reviewpipe/application/ports"
	"reviewpipe/domain/analytics"
	"reviewpipe/domain/catalog"
	"reviewpipe/domain/reviews"
	"reviewpipe/domain/runs"

	"go.uber.org/zap"
)

// LockResource is the lock key all pipeline runs contend on. One pipeline,
// one lock.
const LockResource = "transform-pipeline"

// JobName identifies the transformation stage in run records and status
// notifications.
const JobName = "transform"

// RunPipelineHandler executes one full transformation run: acquire the run
// lock, read the landed snapshots, normalize, aggregate, replace the
// warehouse output sets, then record and announce the outcome. The handler
// holds no state between runs; everything derived is recomputed.
type RunPipelineHandler struct {
	source    ports.LandingSource
	warehouse ports.Warehouse
	lock      ports.RunLock
	runStore  ports.RunStore
	notifier  ports.Notifier
	metrics   ports.MetricsPublisher
	lockTTL   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewRunPipelineHandler creates a new run pipeline handler
func NewRunPipelineHandler(
	source ports.LandingSource,
	warehouse ports.Warehouse,
	lock ports.RunLock,
	runStore ports.RunStore,
	notifier ports.Notifier,
	metrics ports.MetricsPublisher,
	lockTTL time.Duration,
	logger *zap.Logger,
) *RunPipelineHandler {
	return &RunPipelineHandler{
		source:    source,
		warehouse: warehouse,
		lock:      lock,
		runStore:  runStore,
		notifier:  notifier,
		metrics:   metrics,
		lockTTL:   lockTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle executes the run pipeline command
func (h *RunPipelineHandler) Handle(ctx context.Context, cmd commands.RunPipelineCommand) error {
	record := runs.Record{
		RunID:     cmd.RunID,
		Job:       JobName,
		Status:    runs.StatusRunning,
		StartedAt: h.now().UTC(),
	}

	release, err := h.lock.Acquire(ctx, LockResource, cmd.RunID, h.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	defer func() {
		if err := release(ctx); err != nil {
			h.logger.Warn("Failed to release run lock",
				zap.String("runID", cmd.RunID),
				zap.Error(err),
			)
		}
	}()

	if err := h.runStore.Save(ctx, record); err != nil {
		h.logger.Warn("Failed to persist run start", zap.String("runID", cmd.RunID), zap.Error(err))
	}

	h.logger.Info("Pipeline run started",
		zap.String("runID", cmd.RunID),
		zap.String("triggeredBy", cmd.TriggeredBy),
	)

	runErr := h.execute(ctx, &record)

	record.FinishedAt = h.now().UTC()
	if runErr != nil {
		record.Status = runs.StatusFailed
		record.Error = runErr.Error()
	} else {
		record.Status = runs.StatusSucceeded
	}

	h.finish(ctx, record)

	if runErr != nil {
		return fmt.Errorf("pipeline run %s failed: %w", cmd.RunID, runErr)
	}
	return nil
}

// execute performs the transform itself, filling in record.Stats as stages
// complete. Any error aborts the run; partially written tables are protected
// by the warehouse's per-table transactional replace.
func (h *RunPipelineHandler) execute(ctx context.Context, record *runs.Record) error {
	rawReviews, skippedReviews, err := h.source.FetchReviews(ctx)
	if err != nil {
		return fmt.Errorf("fetch review snapshot: %w", err)
	}
	rawMeta, skippedMeta, err := h.source.FetchMetadata(ctx)
	if err != nil {
		return fmt.Errorf("fetch metadata snapshot: %w", err)
	}
	record.Stats.ReviewsIn = int64(len(rawReviews))
	record.Stats.MetadataIn = int64(len(rawMeta))
	record.Stats.MalformedLines = skippedReviews + skippedMeta

	normalizedReviews := reviews.Normalize(rawReviews)
	record.Stats.ReviewsOut = int64(len(normalizedReviews))
	record.Stats.ReviewsDropped = record.Stats.ReviewsIn - record.Stats.ReviewsOut

	normalizedMeta := catalog.Normalize(rawMeta)
	record.Stats.MetadataOut = int64(len(normalizedMeta))
	record.Stats.MetadataDropped = record.Stats.MetadataIn - record.Stats.MetadataOut

	summary := analytics.Summarize(normalizedReviews, normalizedMeta)
	record.Stats.AggregateRows = int64(len(summary))

	h.logger.Info("Transform complete",
		zap.Int64("reviewsIn", record.Stats.ReviewsIn),
		zap.Int64("reviewsOut", record.Stats.ReviewsOut),
		zap.Int64("metadataIn", record.Stats.MetadataIn),
		zap.Int64("metadataOut", record.Stats.MetadataOut),
		zap.Int64("aggregateRows", record.Stats.AggregateRows),
	)

	if err := h.warehouse.ReplaceReviews(ctx, normalizedReviews); err != nil {
		return fmt.Errorf("load reviews: %w", err)
	}
	if err := h.warehouse.ReplaceMetadata(ctx, normalizedMeta); err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}
	if err := h.warehouse.ReplaceRatingSummary(ctx, summary); err != nil {
		return fmt.Errorf("load rating summary: %w", err)
	}

	return nil
}

// finish records and announces the terminal state. Reporting failures are
// logged, never escalated: the run outcome is already decided.
func (h *RunPipelineHandler) finish(ctx context.Context, record runs.Record) {
	if err := h.runStore.Save(ctx, record); err != nil {
		h.logger.Warn("Failed to persist run record", zap.String("runID", record.RunID), zap.Error(err))
	}
	if err := h.notifier.PublishRunStatus(ctx, record); err != nil {
		h.logger.Warn("Failed to publish run status", zap.String("runID", record.RunID), zap.Error(err))
	}
	if err := h.metrics.PublishRunStats(ctx, record); err != nil {
		h.logger.Warn("Failed to publish run metrics", zap.String("runID", record.RunID), zap.Error(err))
	}

	h.logger.Info("Pipeline run finished",
		zap.String("runID", record.RunID),
		zap.String("status", string(record.Status)),
		zap.Duration("duration", record.Duration()),
	)
}
