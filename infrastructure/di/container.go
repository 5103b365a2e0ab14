package di

import (
	"go.uber.org/zap"

	"reviewpipe/application/commands/bus"
	commands_handlers "reviewpipe/application/commands/handlers"
	"reviewpipe/application/ports"
	querybus "reviewpipe/application/queries/bus"
	"reviewpipe/infrastructure/config"
	"reviewpipe/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	LandingSource ports.LandingSource
	Warehouse     ports.Warehouse
	RunLock       ports.RunLock
	RunStore      ports.RunStore
	Notifier      ports.Notifier
	RunMetrics    ports.MetricsPublisher
	ObjectStore   ports.ObjectStore
	Downloader    commands_handlers.Downloader
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	Metrics       *observability.Metrics
}
