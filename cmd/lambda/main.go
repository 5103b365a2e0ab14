// The lambda binary reacts to run status notifications: when the ingest job
// reports success, it kicks off a transformation run. Deployed behind the
// same SNS topic the jobs publish to.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"reviewpipe/application/commands"
	"reviewpipe/domain/runs"
	"reviewpipe/infrastructure/config"
	"reviewpipe/infrastructure/di"
	"reviewpipe/infrastructure/messaging/sns"
)

// ingestJobName is the upstream job whose success triggers a transform run.
const ingestJobName = "ingest"

var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

func handler(ctx context.Context, event events.SNSEvent) error {
	for _, record := range event.Records {
		msg, err := sns.ParseStatusMessage(record.SNS.Message)
		if err != nil {
			container.Logger.Warn("Ignoring unparseable notification",
				zap.String("messageID", record.SNS.MessageID),
				zap.Error(err),
			)
			continue
		}

		if msg.Job != ingestJobName || msg.Status != string(runs.StatusSucceeded) {
			container.Logger.Debug("Ignoring notification",
				zap.String("job", msg.Job),
				zap.String("status", msg.Status),
			)
			continue
		}

		cmd := commands.RunPipelineCommand{
			RunID:       uuid.New().String(),
			TriggeredBy: "sns:" + msg.RunID,
		}
		container.Logger.Info("Triggering transform run",
			zap.String("runID", cmd.RunID),
			zap.String("ingestRunID", msg.RunID),
		)

		if err := container.CommandBus.Send(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	lambda.Start(handler)
}
