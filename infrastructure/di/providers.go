// Package di wires the pipeline's dependency graph. Providers are consumed
// by wire; run `wire` in this directory after changing them.
package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"reviewpipe/application/commands"
	"reviewpipe/application/commands/bus"
	commands_handlers "reviewpipe/application/commands/handlers"
	"reviewpipe/application/ports"
	"reviewpipe/application/queries"
	querybus "reviewpipe/application/queries/bus"
	queries_handlers "reviewpipe/application/queries/handlers"
	"reviewpipe/infrastructure/config"
	"reviewpipe/infrastructure/ingest"
	landings3 "reviewpipe/infrastructure/landing/s3"
	"reviewpipe/infrastructure/messaging/sns"
	"reviewpipe/infrastructure/persistence/dynamodb"
	"reviewpipe/infrastructure/warehouse/snowflake"
	"reviewpipe/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideS3Client creates an S3 client
func ProvideS3Client(awsCfg aws.Config) *awss3.Client {
	return awss3.NewFromConfig(awsCfg)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideSNSClient creates an SNS client
func ProvideSNSClient(awsCfg aws.Config) *awssns.Client {
	return awssns.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideLandingSource creates the landing snapshot reader
func ProvideLandingSource(client *awss3.Client, cfg *config.Config, logger *zap.Logger) ports.LandingSource {
	return landings3.NewSource(client, cfg.LandingBucket, cfg.ReviewKey, cfg.MetadataKey, logger)
}

// ProvideObjectStore creates the landing bucket blob store
func ProvideObjectStore(client *awss3.Client, cfg *config.Config) ports.ObjectStore {
	return landings3.NewStore(client, cfg.LandingBucket)
}

// ProvideWarehouse opens the warehouse connection
func ProvideWarehouse(cfg *config.Config, logger *zap.Logger) (ports.Warehouse, error) {
	return snowflake.Open(cfg.SnowflakeDSN, cfg.WarehouseSchema, logger)
}

// ProvideRunLock creates the distributed run lock
func ProvideRunLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.RunLock {
	return dynamodb.NewRunLock(client, cfg.DynamoDBTable, logger)
}

// ProvideRunStore creates the run record store
func ProvideRunStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.RunStore {
	return dynamodb.NewRunStore(client, cfg.DynamoDBTable, logger)
}

// ProvideNotifier creates the run status publisher
func ProvideNotifier(client *awssns.Client, cfg *config.Config, logger *zap.Logger) ports.Notifier {
	return sns.NewPublisher(client, cfg.SNSTopicARN, cfg.ProjectName, cfg.Environment, logger)
}

// ProvideMetricsPublisher creates the CloudWatch run stats publisher
func ProvideMetricsPublisher(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) ports.MetricsPublisher {
	if !cfg.EnableMetrics {
		return observability.NopPublisher{}
	}
	namespace := fmt.Sprintf("ReviewPipe/%s", cfg.Environment)
	return observability.NewCloudWatchPublisher(client, namespace, cfg.Environment, logger)
}

// ProvideMetrics creates the Prometheus registry for the ops API
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics()
}

// ProvideDownloader creates the dataset downloader
func ProvideDownloader(logger *zap.Logger) commands_handlers.Downloader {
	return ingest.NewHTTPDownloader(logger)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	source ports.LandingSource,
	warehouse ports.Warehouse,
	lock ports.RunLock,
	runStore ports.RunStore,
	notifier ports.Notifier,
	metricsPublisher ports.MetricsPublisher,
	objectStore ports.ObjectStore,
	downloader commands_handlers.Downloader,
	cfg *config.Config,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()
	commandBus.Use(bus.LoggingMiddleware(logger))

	runHandler := commands_handlers.NewRunPipelineHandler(
		source, warehouse, lock, runStore, notifier, metricsPublisher,
		cfg.LockTTL, logger,
	)
	commandBus.Register(commands.RunPipelineCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			runCmd, ok := cmd.(commands.RunPipelineCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return runHandler.Handle(ctx, runCmd)
		},
	})

	ingestHandler := commands_handlers.NewIngestDatasetHandler(downloader, objectStore, logger)
	commandBus.Register(commands.IngestDatasetCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			ingestCmd, ok := cmd.(commands.IngestDatasetCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return ingestHandler.Handle(ctx, ingestCmd)
		},
	})

	return commandBus
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(runStore ports.RunStore, logger *zap.Logger) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	getRunHandler := queries_handlers.NewGetRunHandler(runStore, logger)
	queryBus.Register(queries.GetRunQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetRunQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getRunHandler.Handle(ctx, getQuery)
		},
	})

	listRunsHandler := queries_handlers.NewListRunsHandler(runStore, logger)
	queryBus.Register(queries.ListRunsQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListRunsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listRunsHandler.Handle(ctx, listQuery)
		},
	})

	return queryBus
}
