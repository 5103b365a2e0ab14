// The ingest binary lands the declared source datasets into the landing
// bucket: download, store compressed, decompress to plain JSON lines. Marker
// objects bracket the batch so external watchers can tell started from done.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reviewpipe/application/commands"
	"reviewpipe/application/ports"
	"reviewpipe/domain/runs"
	"reviewpipe/infrastructure/config"
	"reviewpipe/infrastructure/di"
)

const jobName = "ingest"

func main() {
	timeout := flag.Duration("timeout", 4*time.Hour, "abort the batch after this long")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Logger.Sync()

	datasets, err := config.LoadDatasets(cfg.DatasetsFile)
	if err != nil {
		container.Logger.Fatal("Failed to load dataset declarations",
			zap.String("file", cfg.DatasetsFile),
			zap.Error(err),
		)
	}

	record := runs.Record{
		RunID:     uuid.New().String(),
		Job:       jobName,
		Status:    runs.StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	putMarker(ctx, container.ObjectStore, container.Logger, "STARTED")

	var failed int
	for _, ds := range datasets.Datasets {
		cmd := commands.IngestDatasetCommand{
			Name:      ds.Name,
			SourceURL: ds.SourceURL,
			TargetKey: ds.TargetKey,
		}
		if err := container.CommandBus.Send(ctx, cmd); err != nil {
			container.Logger.Error("Dataset ingest failed",
				zap.String("dataset", ds.Name),
				zap.Error(err),
			)
			failed++
		}
	}

	record.FinishedAt = time.Now().UTC()
	if failed > 0 {
		record.Status = runs.StatusFailed
		record.Error = fmt.Sprintf("%d of %d datasets failed", failed, len(datasets.Datasets))
		putMarker(ctx, container.ObjectStore, container.Logger, "FAILED")
		notify(ctx, container, record)
		container.Logger.Error("Ingest batch finished with failures",
			zap.Int("failed", failed),
			zap.Int("total", len(datasets.Datasets)),
		)
		container.Logger.Sync()
		os.Exit(1)
	}

	record.Status = runs.StatusSucceeded
	putMarker(ctx, container.ObjectStore, container.Logger, "FINISHED")
	notify(ctx, container, record)
	container.Logger.Info("Ingest batch finished",
		zap.Int("datasets", len(datasets.Datasets)),
	)
}

// notify announces the batch outcome. A SUCCEEDED notification is what
// triggers the downstream transform run.
func notify(ctx context.Context, container *di.Container, record runs.Record) {
	if err := container.Notifier.PublishRunStatus(ctx, record); err != nil {
		container.Logger.Warn("Failed to publish ingest status",
			zap.String("runID", record.RunID),
			zap.Error(err),
		)
	}
}

// putMarker writes a state marker object. Best effort; a missing marker never
// fails the batch.
func putMarker(ctx context.Context, store ports.ObjectStore, logger *zap.Logger, state string) {
	key := fmt.Sprintf("_JOB_%s_%s", state, jobName)
	body := strings.NewReader(time.Now().UTC().Format(time.RFC3339) + "\n")
	if err := store.Put(ctx, key, body); err != nil {
		logger.Warn("Failed to write job marker", zap.String("key", key), zap.Error(err))
	}
}
