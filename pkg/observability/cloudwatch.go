// Package observability reports pipeline metrics. Run statistics go to
// CloudWatch for dashboards and alarms; the ops API additionally exposes a
// Prometheus registry for scrape-based monitoring.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"reviewpipe/domain/runs"
)

// CloudWatchPublisher pushes per-run statistics as custom metrics.
type CloudWatchPublisher struct {
	client      *cloudwatch.Client
	namespace   string
	environment string
	logger      *zap.Logger
}

// NewCloudWatchPublisher creates a publisher under the given namespace.
func NewCloudWatchPublisher(client *cloudwatch.Client, namespace, environment string, logger *zap.Logger) *CloudWatchPublisher {
	return &CloudWatchPublisher{
		client:      client,
		namespace:   namespace,
		environment: environment,
		logger:      logger,
	}
}

// PublishRunStats emits one datum per stat plus the run duration. All data
// for a run goes in a single PutMetricData call.
func (p *CloudWatchPublisher) PublishRunStats(ctx context.Context, record runs.Record) error {
	dims := []types.Dimension{
		{Name: aws.String("Environment"), Value: aws.String(p.environment)},
		{Name: aws.String("Job"), Value: aws.String(record.Job)},
	}
	at := record.FinishedAt
	if at.IsZero() {
		at = time.Now()
	}

	counts := map[string]int64{
		"ReviewsIn":       record.Stats.ReviewsIn,
		"ReviewsOut":      record.Stats.ReviewsOut,
		"ReviewsDropped":  record.Stats.ReviewsDropped,
		"MetadataIn":      record.Stats.MetadataIn,
		"MetadataOut":     record.Stats.MetadataOut,
		"MetadataDropped": record.Stats.MetadataDropped,
		"AggregateRows":   record.Stats.AggregateRows,
		"MalformedLines":  record.Stats.MalformedLines,
	}

	data := make([]types.MetricDatum, 0, len(counts)+2)
	for name, value := range counts {
		data = append(data, types.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: dims,
			Timestamp:  aws.Time(at),
			Value:      aws.Float64(float64(value)),
			Unit:       types.StandardUnitCount,
		})
	}
	data = append(data,
		types.MetricDatum{
			MetricName: aws.String("RunDurationSeconds"),
			Dimensions: dims,
			Timestamp:  aws.Time(at),
			Value:      aws.Float64(record.Duration().Seconds()),
			Unit:       types.StandardUnitSeconds,
		},
		types.MetricDatum{
			MetricName: aws.String("RunFailed"),
			Dimensions: dims,
			Timestamp:  aws.Time(at),
			Value:      aws.Float64(boolToFloat(record.Status == runs.StatusFailed)),
			Unit:       types.StandardUnitCount,
		},
	)

	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(p.namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish run metrics: %w", err)
	}

	p.logger.Debug("Run metrics published",
		zap.String("runID", record.RunID),
		zap.String("namespace", p.namespace),
		zap.Int("datums", len(data)),
	)
	return nil
}

// NopPublisher discards run statistics. Used when metrics are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishRunStats(ctx context.Context, record runs.Record) error {
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
