package handlers

import (
	"context"

	"reviewpipe/application/ports"
	"reviewpipe/application/queries"
	"reviewpipe/domain/runs"

	"go.uber.org/zap"
)

// GetRunHandler resolves a single run record
type GetRunHandler struct {
	runStore ports.RunStore
	logger   *zap.Logger
}

// NewGetRunHandler creates a new get run handler
func NewGetRunHandler(runStore ports.RunStore, logger *zap.Logger) *GetRunHandler {
	return &GetRunHandler{runStore: runStore, logger: logger}
}

// Handle executes the get run query
func (h *GetRunHandler) Handle(ctx context.Context, query queries.GetRunQuery) (runs.Record, error) {
	return h.runStore.Get(ctx, query.RunID)
}
