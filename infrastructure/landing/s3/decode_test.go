package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLine(t *testing.T) {
	t.Run("parses a well-formed record", func(t *testing.T) {
		record, ok := decodeLine([]byte(`{"asin":"B01","overall":5}`))
		require.True(t, ok)
		assert.Equal(t, "B01", record["asin"].(string))
	})

	t.Run("rejects blank lines", func(t *testing.T) {
		_, ok := decodeLine([]byte("   \t"))
		assert.False(t, ok)
	})

	t.Run("rejects truncated json", func(t *testing.T) {
		_, ok := decodeLine([]byte(`{"asin":"B01","overall":`))
		assert.False(t, ok)
	})
}

func TestDecodeReview(t *testing.T) {
	t.Run("coerces mixed scalar types to strings", func(t *testing.T) {
		record, ok := decodeLine([]byte(`{"asin":"B01","overall":4.5,"verified":true,"unixReviewTime":1567209600,"reviewTime":"08 31, 2019","reviewerID":"u1"}`))
		require.True(t, ok)

		raw := decodeReview(record)
		assert.Equal(t, "B01", raw.ProductID)
		assert.Equal(t, "4.5", raw.Rating)
		assert.Equal(t, "true", raw.Verified)
		assert.Equal(t, "1567209600", raw.UnixTime)
		assert.Equal(t, "08 31, 2019", raw.ReviewTime)
		assert.Equal(t, "u1", raw.ReviewerID)
	})

	t.Run("preserves large epoch values exactly", func(t *testing.T) {
		record, ok := decodeLine([]byte(`{"asin":"B01","unixReviewTime":1577836800}`))
		require.True(t, ok)
		assert.Equal(t, "1577836800", decodeReview(record).UnixTime)
	})

	t.Run("missing fields come back empty", func(t *testing.T) {
		record, ok := decodeLine([]byte(`{"asin":"B01"}`))
		require.True(t, ok)

		raw := decodeReview(record)
		assert.Empty(t, raw.Rating)
		assert.Empty(t, raw.Verified)
		assert.Empty(t, raw.UnixTime)
	})
}

func TestDecodeMetadata(t *testing.T) {
	t.Run("joins feature arrays", func(t *testing.T) {
		record, ok := decodeLine([]byte(`{"asin":"B01","feature":["Waterproof","by Acme"]}`))
		require.True(t, ok)
		assert.Equal(t, "Waterproof by Acme", decodeMetadata(record).Features)
	})

	t.Run("keeps details objects as json text", func(t *testing.T) {
		record, ok := decodeLine([]byte(`{"asin":"B01","details":{"Brand":"Acme","Weight":"1 lb"}}`))
		require.True(t, ok)
		assert.JSONEq(t, `{"Brand":"Acme","Weight":"1 lb"}`, decodeMetadata(record).Value)
	})

	t.Run("falls back to the legacy image field", func(t *testing.T) {
		record, ok := decodeLine([]byte(`{"asin":"B01","imUrl":"https://img/1.jpg"}`))
		require.True(t, ok)
		assert.Equal(t, "https://img/1.jpg", decodeMetadata(record).ImageURL)
	})

	t.Run("stringifies numeric rank", func(t *testing.T) {
		record, ok := decodeLine([]byte(`{"asin":"B01","rank":1234}`))
		require.True(t, ok)
		assert.Equal(t, "1234", decodeMetadata(record).Rank)
	})
}
