package s3

import (
	"bufio"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"reviewpipe/domain/catalog"
	"reviewpipe/domain/reviews"
)

// maxLineBytes bounds a single landed record. Review bodies run long but a
// multi-megabyte line is corruption, not data.
const maxLineBytes = 4 * 1024 * 1024

// Source reads raw JSON-lines snapshots from the landing bucket.
type Source struct {
	client      *s3.Client
	bucket      string
	reviewKey   string
	metadataKey string
	logger      *zap.Logger
}

// NewSource creates a landing source over the given bucket and object keys.
func NewSource(client *s3.Client, bucket, reviewKey, metadataKey string, logger *zap.Logger) *Source {
	return &Source{
		client:      client,
		bucket:      bucket,
		reviewKey:   reviewKey,
		metadataKey: metadataKey,
		logger:      logger,
	}
}

func (s *Source) FetchReviews(ctx context.Context) ([]reviews.RawReview, int64, error) {
	var rows []reviews.RawReview
	skipped, err := s.scan(ctx, s.reviewKey, func(record map[string]any) {
		rows = append(rows, decodeReview(record))
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, skipped, nil
}

func (s *Source) FetchMetadata(ctx context.Context) ([]catalog.RawMetadata, int64, error) {
	var rows []catalog.RawMetadata
	skipped, err := s.scan(ctx, s.metadataKey, func(record map[string]any) {
		rows = append(rows, decodeMetadata(record))
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, skipped, nil
}

// scan streams the object line by line. Lines that fail to parse are counted
// and dropped; only transport failures abort the fetch.
func (s *Source) scan(ctx context.Context, key string, emit func(map[string]any)) (int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	var skipped, lineNo int64
	scanner := bufio.NewScanner(out.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lineNo++
		record, ok := decodeLine(scanner.Bytes())
		if !ok {
			skipped++
			continue
		}
		emit(record)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped malformed landing lines",
			zap.String("key", key),
			zap.Int64("skipped", skipped),
			zap.Int64("total", lineNo),
		)
	}
	return skipped, nil
}
