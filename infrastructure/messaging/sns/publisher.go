// Package sns publishes run status notifications to the orchestration topic.
// Downstream automation (and the trigger Lambda) keys off the Status field to
// decide whether to kick the next stage.
package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"reviewpipe/domain/runs"
)

// StatusMessage is the wire shape of a run status notification.
type StatusMessage struct {
	Project     string     `json:"project"`
	Environment string     `json:"environment"`
	Job         string     `json:"job"`
	RunID       string     `json:"run_id"`
	Status      string     `json:"status"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time,omitempty"`
	Stats       runs.Stats `json:"stats"`
	Error       string     `json:"error,omitempty"`
}

// Publisher sends run outcomes to an SNS topic.
type Publisher struct {
	client      *sns.Client
	topicARN    string
	project     string
	environment string
	logger      *zap.Logger
}

// NewPublisher creates a publisher for the given topic.
func NewPublisher(client *sns.Client, topicARN, project, environment string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:      client,
		topicARN:    topicARN,
		project:     project,
		environment: environment,
		logger:      logger,
	}
}

// PublishRunStatus publishes one run record. The subject carries job and
// status so topic subscribers can filter without parsing the body.
func (p *Publisher) PublishRunStatus(ctx context.Context, record runs.Record) error {
	msg := StatusMessage{
		Project:     p.project,
		Environment: p.environment,
		Job:         record.Job,
		RunID:       record.RunID,
		Status:      string(record.Status),
		StartTime:   record.StartedAt.UTC().Format(time.RFC3339),
		Stats:       record.Stats,
		Error:       record.Error,
	}
	if !record.FinishedAt.IsZero() {
		msg.EndTime = record.FinishedAt.UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal status message: %w", err)
	}

	subject := fmt.Sprintf("[%s] %s %s", p.environment, record.Job, record.Status)
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to publish run status: %w", err)
	}

	p.logger.Info("Run status published",
		zap.String("runID", record.RunID),
		zap.String("status", string(record.Status)),
		zap.String("topic", p.topicARN),
	)
	return nil
}

// ParseStatusMessage decodes a notification body back into its message form.
// The trigger Lambda uses this on inbound SNS events.
func ParseStatusMessage(body string) (StatusMessage, error) {
	var msg StatusMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return StatusMessage{}, fmt.Errorf("failed to parse status message: %w", err)
	}
	return msg, nil
}
