// Package rest exposes the ops API: trigger a pipeline run, inspect run
// history, health and metrics. It is an operational surface, not a data API;
// warehouse outputs are read from the warehouse directly.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"reviewpipe/application/commands/bus"
	querybus "reviewpipe/application/queries/bus"
	"reviewpipe/domain/runs"
	"reviewpipe/interfaces/http/rest/handlers"
	"reviewpipe/interfaces/http/rest/middleware"
	apperrors "reviewpipe/pkg/errors"
	"reviewpipe/pkg/observability"
	"reviewpipe/pkg/ratelimit"
)

// triggerRequestsPerMinute caps manual run triggers per client. One pipeline
// run takes minutes; anything past this is a misbehaving script.
const triggerRequestsPerMinute = 10

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		metrics:    metrics,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errHandler := apperrors.NewErrorHandler(rt.logger, false)

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	router.Get("/healthz", rt.healthCheck)
	router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	router.Route("/v1", func(r chi.Router) {
		runHandler := handlers.NewRunHandler(rt.commandBus, rt.queryBus, rt.observeRun, errHandler, rt.logger)
		r.Route("/runs", func(r chi.Router) {
			r.With(middleware.RateLimit(
				ratelimit.NewIPRateLimiter(triggerRequestsPerMinute),
				rt.logger,
			)).Post("/", runHandler.TriggerRun)
			r.Get("/", runHandler.ListRuns)
			r.Get("/{runID}", runHandler.GetRun)
		})
	})

	return router
}

func (rt *Router) observeRun(record runs.Record) {
	rt.metrics.ObserveRun(record)
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
