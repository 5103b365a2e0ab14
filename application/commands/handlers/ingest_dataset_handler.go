package handlers

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"

	"reviewpipe/application/commands"
	"reviewpipe/application/ports"

	"go.uber.org/zap"
)

// Downloader fetches a dataset file over HTTP. Retries and circuit breaking
// live behind this interface.
type Downloader interface {
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// IngestDatasetHandler lands one gzipped dataset: download, store the .gz,
// decompress it into a plain .json object, then delete the .gz. The
// intermediate .gz upload means a failed decompression can be retried
// without re-downloading.
type IngestDatasetHandler struct {
	downloader Downloader
	store      ports.ObjectStore
	logger     *zap.Logger
}

// NewIngestDatasetHandler creates a new ingest dataset handler
func NewIngestDatasetHandler(downloader Downloader, store ports.ObjectStore, logger *zap.Logger) *IngestDatasetHandler {
	return &IngestDatasetHandler{
		downloader: downloader,
		store:      store,
		logger:     logger,
	}
}

// Handle executes the ingest dataset command
func (h *IngestDatasetHandler) Handle(ctx context.Context, cmd commands.IngestDatasetCommand) error {
	gzKey := cmd.TargetKey + ".gz"

	h.logger.Info("Ingesting dataset",
		zap.String("dataset", cmd.Name),
		zap.String("url", cmd.SourceURL),
		zap.String("targetKey", cmd.TargetKey),
	)

	body, err := h.downloader.Download(ctx, cmd.SourceURL)
	if err != nil {
		return fmt.Errorf("download %s: %w", cmd.Name, err)
	}
	defer body.Close()

	if err := h.store.Put(ctx, gzKey, body); err != nil {
		return fmt.Errorf("store compressed %s: %w", cmd.Name, err)
	}

	compressed, err := h.store.Get(ctx, gzKey)
	if err != nil {
		return fmt.Errorf("read back compressed %s: %w", cmd.Name, err)
	}
	defer compressed.Close()

	gz, err := gzip.NewReader(compressed)
	if err != nil {
		return fmt.Errorf("open gzip stream for %s: %w", cmd.Name, err)
	}
	defer gz.Close()

	if err := h.store.Put(ctx, cmd.TargetKey, gz); err != nil {
		return fmt.Errorf("store decompressed %s: %w", cmd.Name, err)
	}

	// Best effort; a leftover .gz costs storage, not correctness.
	if err := h.store.Delete(ctx, gzKey); err != nil {
		h.logger.Warn("Failed to delete compressed object",
			zap.String("dataset", cmd.Name),
			zap.String("key", gzKey),
			zap.Error(err),
		)
	}

	h.logger.Info("Dataset landed",
		zap.String("dataset", cmd.Name),
		zap.String("key", cmd.TargetKey),
	)
	return nil
}
