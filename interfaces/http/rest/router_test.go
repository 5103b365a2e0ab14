package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reviewpipe/application/commands"
	"reviewpipe/application/commands/bus"
	"reviewpipe/application/ports"
	"reviewpipe/application/queries"
	querybus "reviewpipe/application/queries/bus"
	"reviewpipe/domain/runs"
	"reviewpipe/pkg/observability"
)

type captureHandler struct {
	mu   sync.Mutex
	cmds []commands.RunPipelineCommand
	done chan struct{}
}

func (h *captureHandler) Handle(ctx context.Context, cmd bus.Command) error {
	h.mu.Lock()
	h.cmds = append(h.cmds, cmd.(commands.RunPipelineCommand))
	h.mu.Unlock()
	close(h.done)
	return nil
}

func newTestRouter(t *testing.T, records map[string]runs.Record) (http.Handler, *captureHandler) {
	t.Helper()

	commandBus := bus.NewCommandBus()
	capture := &captureHandler{done: make(chan struct{})}
	require.NoError(t, commandBus.Register(commands.RunPipelineCommand{}, capture))

	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryBus.Register(queries.GetRunQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, q querybus.Query) (interface{}, error) {
			runID := q.(queries.GetRunQuery).RunID
			record, ok := records[runID]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ports.ErrRunNotFound, runID)
			}
			return record, nil
		})))
	require.NoError(t, queryBus.Register(queries.ListRunsQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, q querybus.Query) (interface{}, error) {
			out := make([]runs.Record, 0, len(records))
			for _, r := range records {
				out = append(out, r)
			}
			return out, nil
		})))

	router := NewRouter(commandBus, queryBus, observability.NewMetrics(), zap.NewNop())
	return router.Setup(), capture
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestMetricsEndpoint(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTriggerRun(t *testing.T) {
	handler, capture := newTestRouter(t, map[string]runs.Record{})

	req := httptest.NewRequest(http.MethodPost, "/v1/runs", strings.NewReader(`{"triggered_by":"ops"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		Data struct {
			RunID string `json:"run_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.RunID)

	select {
	case <-capture.done:
	case <-time.After(time.Second):
		t.Fatal("command was never dispatched")
	}
	capture.mu.Lock()
	defer capture.mu.Unlock()
	require.Len(t, capture.cmds, 1)
	assert.Equal(t, body.Data.RunID, capture.cmds[0].RunID)
	assert.Equal(t, "ops", capture.cmds[0].TriggeredBy)
}

func TestGetRun(t *testing.T) {
	record := runs.Record{
		RunID:     "run-1",
		Job:       "transform",
		Status:    runs.StatusSucceeded,
		StartedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	handler, _ := newTestRouter(t, map[string]runs.Record{"run-1": record})

	t.Run("returns the record", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/run-1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "SUCCEEDED")
	})

	t.Run("404s for an unknown run", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/missing", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListRunsRejectsBadLimit(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs?limit=oops", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
