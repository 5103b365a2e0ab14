package handlers

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reviewpipe/application/commands"
)

type fakeDownloader struct {
	payload []byte
	err     error
	calls   int
}

func (f *fakeDownloader) Download(context.Context, string) (io.ReadCloser, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.payload)), nil
}

type memObjectStore struct {
	objects map[string][]byte
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}}
}

func (m *memObjectStore) Put(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjectStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestIngestDatasetLandsDecompressedJSON(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"asin":"B001","overall":5}` + "\n")
	downloader := &fakeDownloader{payload: gzipBytes(t, payload)}
	store := newMemObjectStore()
	handler := NewIngestDatasetHandler(downloader, store, zap.NewNop())

	cmd := commands.IngestDatasetCommand{
		Name:      "reviews",
		SourceURL: "https://example.com/reviews.json.gz",
		TargetKey: "reviews/reviews.json",
	}
	require.NoError(t, handler.Handle(ctx, cmd))

	assert.Equal(t, payload, store.objects["reviews/reviews.json"])

	// The intermediate .gz is cleaned up after decompression.
	_, gzLeft := store.objects["reviews/reviews.json.gz"]
	assert.False(t, gzLeft)
}

func TestIngestDatasetDownloadFailure(t *testing.T) {
	ctx := context.Background()
	downloader := &fakeDownloader{err: fmt.Errorf("connection refused")}
	store := newMemObjectStore()
	handler := NewIngestDatasetHandler(downloader, store, zap.NewNop())

	err := handler.Handle(ctx, commands.IngestDatasetCommand{
		Name:      "reviews",
		SourceURL: "https://example.com/reviews.json.gz",
		TargetKey: "reviews/reviews.json",
	})
	require.Error(t, err)
	assert.Empty(t, store.objects)
}

func TestIngestDatasetCorruptGzip(t *testing.T) {
	ctx := context.Background()
	downloader := &fakeDownloader{payload: []byte("not gzip at all")}
	store := newMemObjectStore()
	handler := NewIngestDatasetHandler(downloader, store, zap.NewNop())

	err := handler.Handle(ctx, commands.IngestDatasetCommand{
		Name:      "reviews",
		SourceURL: "https://example.com/reviews.json.gz",
		TargetKey: "reviews/reviews.json",
	})
	require.Error(t, err)

	// The .gz stays behind so the decompression can be retried.
	_, gzLeft := store.objects["reviews/reviews.json.gz"]
	assert.True(t, gzLeft)
}
