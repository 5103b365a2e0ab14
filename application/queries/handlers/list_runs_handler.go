package handlers

import (
	"context"

	"reviewpipe/application/ports"
	"reviewpipe/application/queries"
	"reviewpipe/domain/runs"

	"go.uber.org/zap"
)

// ListRunsHandler resolves the recent run history
type ListRunsHandler struct {
	runStore ports.RunStore
	logger   *zap.Logger
}

// NewListRunsHandler creates a new list runs handler
func NewListRunsHandler(runStore ports.RunStore, logger *zap.Logger) *ListRunsHandler {
	return &ListRunsHandler{runStore: runStore, logger: logger}
}

// Handle executes the list runs query
func (h *ListRunsHandler) Handle(ctx context.Context, query queries.ListRunsQuery) ([]runs.Record, error) {
	limit := query.Limit
	if limit == 0 {
		limit = queries.DefaultRunLimit
	}
	return h.runStore.List(ctx, limit)
}
