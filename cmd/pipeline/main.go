// The pipeline binary executes one transformation run and exits. It is the
// entrypoint batch schedulers invoke; exit status reflects the run outcome.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reviewpipe/application/commands"
	"reviewpipe/infrastructure/config"
	"reviewpipe/infrastructure/di"
)

func main() {
	triggeredBy := flag.String("triggered-by", "scheduler", "who or what started this run")
	timeout := flag.Duration("timeout", 2*time.Hour, "abort the run after this long")
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

	cmd := commands.RunPipelineCommand{
		RunID:       uuid.New().String(),
		TriggeredBy: *triggeredBy,
	}

	if err := container.CommandBus.Send(ctx, cmd); err != nil {
		container.Logger.Error("Pipeline run failed",
			zap.String("runID", cmd.RunID),
			zap.Error(err),
		)
		container.Logger.Sync()
		os.Exit(1)
	}

	container.Logger.Info("Pipeline run succeeded", zap.String("runID", cmd.RunID))
}
