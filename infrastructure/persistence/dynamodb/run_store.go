// Package dynamodb implements the run lock and run record store on a single
// DynamoDB table. Lock rows and run rows share the table; run rows carry a
// GSI key so a single run can be fetched by ID while the base partition keeps
// runs ordered by start time for listing.
package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"reviewpipe/application/ports"
	"reviewpipe/domain/runs"
)

const (
	runPartition = "RUN"
	runIDIndex   = "GSI1"
)

// RunStore persists run records.
type RunStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewRunStore creates a run store backed by the given table.
func NewRunStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *RunStore {
	return &RunStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

type runItem struct {
	PK         string     `dynamodbav:"PK"`
	SK         string     `dynamodbav:"SK"`
	GSI1PK     string     `dynamodbav:"GSI1PK"`
	GSI1SK     string     `dynamodbav:"GSI1SK"`
	RunID      string     `dynamodbav:"RunID"`
	Job        string     `dynamodbav:"Job"`
	Status     string     `dynamodbav:"Status"`
	StartedAt  string     `dynamodbav:"StartedAt"`
	FinishedAt string     `dynamodbav:"FinishedAt,omitempty"`
	Stats      runs.Stats `dynamodbav:"Stats"`
	Error      string     `dynamodbav:"Error,omitempty"`
}

func toItem(record runs.Record) runItem {
	item := runItem{
		PK:        runPartition,
		SK:        record.StartedAt.UTC().Format(time.RFC3339Nano) + "#" + record.RunID,
		GSI1PK:    "RUN#" + record.RunID,
		GSI1SK:    runPartition,
		RunID:     record.RunID,
		Job:       record.Job,
		Status:    string(record.Status),
		StartedAt: record.StartedAt.UTC().Format(time.RFC3339Nano),
		Stats:     record.Stats,
		Error:     record.Error,
	}
	if !record.FinishedAt.IsZero() {
		item.FinishedAt = record.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	return item
}

func (item runItem) toRecord() (runs.Record, error) {
	startedAt, err := time.Parse(time.RFC3339Nano, item.StartedAt)
	if err != nil {
		return runs.Record{}, fmt.Errorf("invalid StartedAt on run %s: %w", item.RunID, err)
	}
	record := runs.Record{
		RunID:     item.RunID,
		Job:       item.Job,
		Status:    runs.Status(item.Status),
		StartedAt: startedAt,
		Stats:     item.Stats,
		Error:     item.Error,
	}
	if item.FinishedAt != "" {
		finishedAt, err := time.Parse(time.RFC3339Nano, item.FinishedAt)
		if err != nil {
			return runs.Record{}, fmt.Errorf("invalid FinishedAt on run %s: %w", item.RunID, err)
		}
		record.FinishedAt = finishedAt
	}
	return record, nil
}

// Save upserts the record. The sort key is derived from the immutable start
// time, so status updates overwrite the same row.
func (rs *RunStore) Save(ctx context.Context, record runs.Record) error {
	item, err := attributevalue.MarshalMap(toItem(record))
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", record.RunID, err)
	}

	_, err = rs.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(rs.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", record.RunID, err)
	}

	rs.logger.Debug("Run record saved",
		zap.String("runID", record.RunID),
		zap.String("status", string(record.Status)),
	)
	return nil
}

// Get fetches one run by ID through the GSI.
func (rs *RunStore) Get(ctx context.Context, runID string) (runs.Record, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value("RUN#" + runID))).
		Build()
	if err != nil {
		return runs.Record{}, fmt.Errorf("failed to build run query: %w", err)
	}

	out, err := rs.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(rs.tableName),
		IndexName:                 aws.String(runIDIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return runs.Record{}, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	if len(out.Items) == 0 {
		return runs.Record{}, fmt.Errorf("%w: %s", ports.ErrRunNotFound, runID)
	}

	var item runItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return runs.Record{}, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
	}
	return item.toRecord()
}

// List returns the most recent runs, newest first.
func (rs *RunStore) List(ctx context.Context, limit int32) ([]runs.Record, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(runPartition))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build run list query: %w", err)
	}

	out, err := rs.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(rs.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	records := make([]runs.Record, 0, len(out.Items))
	for _, raw := range out.Items {
		var item runItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run item: %w", err)
		}
		record, err := item.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
