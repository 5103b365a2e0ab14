// Package ingest fetches source datasets over HTTP and guards the upstream
// host with retries and a circuit breaker.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	defaultTimeout  = 10 * time.Minute
	defaultRetries  = 3
	initialBackoff  = 2 * time.Second
	backoffMultiple = 2
)

// HTTPDownloader downloads dataset files. A shared breaker trips after
// consecutive failures so a dead upstream is not hammered across datasets.
type HTTPDownloader struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

// NewHTTPDownloader creates a downloader with sane production defaults.
func NewHTTPDownloader(logger *zap.Logger) *HTTPDownloader {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "dataset-download",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("download breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &HTTPDownloader{
		client:  &http.Client{Timeout: defaultTimeout},
		breaker: breaker,
		retries: defaultRetries,
		backoff: initialBackoff,
		logger:  logger,
	}
}

// Download fetches the URL, retrying transient failures with exponential
// backoff. The returned body is the live response stream; the caller closes it.
func (d *HTTPDownloader) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	backoff := d.backoff
	var lastErr error
	for attempt := 1; attempt <= d.retries; attempt++ {
		body, err := d.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.logger.Warn("download attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < d.retries {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= backoffMultiple
		}
	}
	return nil, fmt.Errorf("download %s after %d attempts: %w", url, d.retries, lastErr)
}

func (d *HTTPDownloader) attempt(ctx context.Context, url string) (io.ReadCloser, error) {
	result, err := d.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return resp.Body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(io.ReadCloser), nil
}
