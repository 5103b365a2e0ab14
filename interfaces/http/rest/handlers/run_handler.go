package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"reviewpipe/application/commands"
	"reviewpipe/application/commands/bus"
	"reviewpipe/application/ports"
	"reviewpipe/application/queries"
	querybus "reviewpipe/application/queries/bus"
	"reviewpipe/domain/runs"
	"reviewpipe/pkg/common"
	apperrors "reviewpipe/pkg/errors"
)

// runTimeout bounds a triggered run. Even a full snapshot should finish well
// inside this; anything longer means something is stuck.
const runTimeout = 2 * time.Hour

// RunHandler handles run-related HTTP requests
type RunHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	onFinished func(runs.Record)
	errHandler *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewRunHandler creates a new run handler. onFinished, if non-nil, is called
// with the terminal record of every run the handler triggers.
func NewRunHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	onFinished func(runs.Record),
	errHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *RunHandler {
	return &RunHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		onFinished: onFinished,
		errHandler: errHandler,
		logger:     logger,
	}
}

// TriggerRunRequest represents the request body for triggering a run
type TriggerRunRequest struct {
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// TriggerRunResponse represents the response for triggering a run
type TriggerRunResponse struct {
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}

// TriggerRun handles POST /v1/runs. The run executes in the background; the
// caller polls GET /v1/runs/{runID} for the outcome.
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req TriggerRunRequest
	if r.ContentLength > 0 {
		if err := common.ParseJSONBody(r, &req, 4096); err != nil {
			h.errHandler.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
			return
		}
	}
	if req.TriggeredBy == "" {
		req.TriggeredBy = "api"
	}

	cmd := commands.RunPipelineCommand{
		RunID:       uuid.New().String(),
		TriggeredBy: req.TriggeredBy,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if err := h.commandBus.Send(ctx, cmd); err != nil {
			h.logger.Error("Triggered run failed",
				zap.String("runID", cmd.RunID),
				zap.Error(err),
			)
		}
		h.reportOutcome(ctx, cmd.RunID)
	}()

	common.RespondJSON(w, http.StatusAccepted, TriggerRunResponse{
		RunID:   cmd.RunID,
		Message: "run accepted",
	})
}

// reportOutcome feeds the terminal record to the onFinished callback so the
// ops process can observe runs it started itself.
func (h *RunHandler) reportOutcome(ctx context.Context, runID string) {
	if h.onFinished == nil {
		return
	}
	result, err := h.queryBus.Ask(ctx, queries.GetRunQuery{RunID: runID})
	if err != nil {
		return
	}
	if record, ok := result.(runs.Record); ok {
		h.onFinished(record)
	}
}

// GetRun handles GET /v1/runs/{runID}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, err := h.queryBus.Ask(r.Context(), queries.GetRunQuery{RunID: runID})
	if err != nil {
		if errors.Is(err, ports.ErrRunNotFound) {
			h.errHandler.Handle(w, r, apperrors.NewNotFoundError("run"))
			return
		}
		h.errHandler.Handle(w, r, apperrors.NewInternalError("failed to fetch run").WithCause(err))
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// ListRuns handles GET /v1/runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	query := queries.ListRunsQuery{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			h.errHandler.Handle(w, r, apperrors.NewValidationError("limit must be an integer"))
			return
		}
		query.Limit = int32(limit)
	}
	if err := query.Validate(); err != nil {
		h.errHandler.Handle(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errHandler.Handle(w, r, apperrors.NewInternalError("failed to list runs").WithCause(err))
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}
