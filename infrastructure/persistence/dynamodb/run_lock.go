package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"reviewpipe/application/ports"
)

// ErrLockHeld is returned when another run currently holds the lock.
var ErrLockHeld = errors.New("run lock already held")

// RunLock serializes pipeline runs with DynamoDB conditional writes. A lock
// row carries its expiry twice: as an RFC3339 string for the acquire
// condition and as a Unix TTL so DynamoDB reaps rows left by crashed runs.
type RunLock struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewRunLock creates a run lock backed by the given table.
func NewRunLock(client *dynamodb.Client, tableName string, logger *zap.Logger) *RunLock {
	return &RunLock{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Acquire takes the lock for the given resource, succeeding only when no
// unexpired lock row exists. The returned Release deletes the row, but only
// if this acquisition still owns it.
func (rl *RunLock) Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (ports.Release, error) {
	lockID := fmt.Sprintf("%s_%d", owner, time.Now().UnixNano())
	now := time.Now()
	expiresAt := now.Add(ttl)

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: "LOCK#" + resource},
		"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
		"LockID":     &types.AttributeValueMemberS{Value: lockID},
		"Owner":      &types.AttributeValueMemberS{Value: owner},
		"AcquiredAt": &types.AttributeValueMemberS{Value: lockTimestamp(now)},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: lockTimestamp(expiresAt)},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	expr, err := acquireCondition(now)
	if err != nil {
		return nil, fmt.Errorf("failed to build lock condition: %w", err)
	}

	_, err = rl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(rl.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			rl.logger.Info("Run lock contention",
				zap.String("resource", resource),
				zap.String("owner", owner),
			)
			return nil, fmt.Errorf("%w: %s", ErrLockHeld, resource)
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	rl.logger.Debug("Run lock acquired",
		zap.String("resource", resource),
		zap.String("lockID", lockID),
		zap.Duration("ttl", ttl),
	)

	release := func(ctx context.Context) error {
		return rl.release(ctx, resource, lockID, owner)
	}
	return release, nil
}

// lockTimestamp formats a lock expiry in UTC. The acquire condition compares
// these strings lexicographically, which only works when every writer uses
// one zone.
func lockTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// acquireCondition allows the write when no lock row exists or the existing
// row has expired.
func acquireCondition(now time.Time) (expression.Expression, error) {
	cond := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("ExpiresAt").LessThan(expression.Value(lockTimestamp(now))))
	return expression.NewBuilder().WithCondition(cond).Build()
}

// releaseCondition restricts deletion to the acquisition that owns the row.
// Owner is a DynamoDB reserved word; the builder aliases it.
func releaseCondition(lockID, owner string) (expression.Expression, error) {
	cond := expression.Name("LockID").Equal(expression.Value(lockID)).
		And(expression.Name("Owner").Equal(expression.Value(owner)))
	return expression.NewBuilder().WithCondition(cond).Build()
}

func (rl *RunLock) release(ctx context.Context, resource, lockID, owner string) error {
	expr, err := releaseCondition(lockID, owner)
	if err != nil {
		return fmt.Errorf("failed to build release condition: %w", err)
	}

	_, err = rl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(rl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "LOCK#" + resource},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			// Expired and reclaimed, or reaped by TTL. Either way it is gone.
			rl.logger.Warn("Run lock already released",
				zap.String("resource", resource),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return fmt.Errorf("failed to release lock: %w", err)
	}

	rl.logger.Debug("Run lock released",
		zap.String("resource", resource),
		zap.String("lockID", lockID),
	)
	return nil
}
