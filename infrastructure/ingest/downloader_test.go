package ingest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDownloader() *HTTPDownloader {
	d := NewHTTPDownloader(zap.NewNop())
	d.client = &http.Client{Timeout: 5 * time.Second}
	d.backoff = 10 * time.Millisecond
	return d
}

func TestHTTPDownloader(t *testing.T) {
	t.Run("returns the response body on success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "payload")
		}))
		defer srv.Close()

		body, err := newTestDownloader().Download(context.Background(), srv.URL)
		require.NoError(t, err)
		defer body.Close()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	})

	t.Run("retries transient server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			io.WriteString(w, "eventually")
		}))
		defer srv.Close()

		d := newTestDownloader()
		d.retries = 3

		body, err := d.Download(context.Background(), srv.URL)
		require.NoError(t, err)
		defer body.Close()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "eventually", string(data))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		d := newTestDownloader()
		d.retries = 2

		_, err := d.Download(context.Background(), srv.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
	})
}
