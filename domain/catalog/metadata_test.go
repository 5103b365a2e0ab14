package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawMeta(overrides func(*RawMetadata)) RawMetadata {
	m := RawMetadata{
		ProductID: "b001",
		Title:     "Acme   Widget",
		Features:  "durable, by Acme",
		Value:     `{"brand": "Acme"}`,
		ImageURL:  " https://img.example/b001.jpg ",
		Rank:      "1234",
		Date:      "2019-08-31",
	}
	if overrides != nil {
		overrides(&m)
	}
	return m
}

func TestNormalizeCleansAndTypesFields(t *testing.T) {
	out := Normalize([]RawMetadata{rawMeta(nil)})
	require.Len(t, out, 1)

	row := out[0]
	assert.Equal(t, "B001", row.ProductID)
	assert.Equal(t, "Acme Widget", row.Title)
	assert.Equal(t, "https://img.example/b001.jpg", row.ImageURL)
	assert.Equal(t, "Acme", row.Brand)
	require.NotNil(t, row.Rank)
	assert.EqualValues(t, 1234, *row.Rank)
	require.NotNil(t, row.MetaDate)
	assert.Equal(t, time.Date(2019, 8, 31, 0, 0, 0, 0, time.UTC), *row.MetaDate)
}

func TestNormalizeRankParseFailureIsNil(t *testing.T) {
	out := Normalize([]RawMetadata{rawMeta(func(m *RawMetadata) { m.Rank = "1,234 in Widgets" })})
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Rank)
}

func TestNormalizeMetaDateLayouts(t *testing.T) {
	tests := []struct {
		raw  string
		want *time.Time
	}{
		{"2019-08-31", timePtr(time.Date(2019, 8, 31, 0, 0, 0, 0, time.UTC))},
		{"Aug 31, 2019", timePtr(time.Date(2019, 8, 31, 0, 0, 0, 0, time.UTC))},
		{"31/08/2019", nil},
		{"", nil},
	}
	for _, tt := range tests {
		out := Normalize([]RawMetadata{rawMeta(func(m *RawMetadata) { m.Date = tt.raw })})
		require.Len(t, out, 1, "date %q", tt.raw)
		if tt.want == nil {
			assert.Nil(t, out[0].MetaDate, "date %q", tt.raw)
		} else {
			require.NotNil(t, out[0].MetaDate, "date %q", tt.raw)
			assert.Equal(t, *tt.want, *out[0].MetaDate, "date %q", tt.raw)
		}
	}
}

func TestNormalizeDropsRowsWithoutProductID(t *testing.T) {
	out := Normalize([]RawMetadata{rawMeta(func(m *RawMetadata) { m.ProductID = "  " })})
	assert.Empty(t, out)
}

func TestNormalizeBrandMayStayAbsent(t *testing.T) {
	out := Normalize([]RawMetadata{rawMeta(func(m *RawMetadata) {
		m.Value = "plain prose"
		m.Features = "no labels"
	})})
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Brand)
}

func TestNormalizeDedupKeepsMostCompleteRow(t *testing.T) {
	full := rawMeta(nil) // title+brand+value+image+rank = 5
	sparse := rawMeta(func(m *RawMetadata) {
		m.Value = ""
		m.Features = ""
		m.ImageURL = ""
		m.Rank = ""
	}) // title only

	out := Normalize([]RawMetadata{sparse, full})
	require.Len(t, out, 1)
	assert.Equal(t, "Acme", out[0].Brand)
	assert.NotNil(t, out[0].Rank)
}

func TestNormalizeDedupBrandBreaksCompletenessTie(t *testing.T) {
	withBrand := rawMeta(func(m *RawMetadata) {
		m.Title = ""
		m.ImageURL = ""
		m.Rank = ""
		m.Features = ""
		m.Value = `{"brand": "Acme"}` // brand + value = 2
	})
	withoutBrand := rawMeta(func(m *RawMetadata) {
		m.Value = ""
		m.Features = ""
		m.Rank = "" // title + image = 2
	})

	out := Normalize([]RawMetadata{withoutBrand, withBrand})
	require.Len(t, out, 1)
	assert.Equal(t, "Acme", out[0].Brand)
}

func TestNormalizeUniquenessPerProductID(t *testing.T) {
	input := []RawMetadata{
		rawMeta(nil),
		rawMeta(func(m *RawMetadata) { m.Title = "Other Title" }),
		rawMeta(func(m *RawMetadata) { m.ProductID = "B002" }),
	}
	out := Normalize(input)
	require.Len(t, out, 2)

	seen := map[string]bool{}
	for _, row := range out {
		assert.False(t, seen[row.ProductID], "duplicate product id %s", row.ProductID)
		seen[row.ProductID] = true
	}
}

func TestNormalizeArrivalOrderIndependent(t *testing.T) {
	a := rawMeta(nil)
	b := rawMeta(func(m *RawMetadata) { m.Title = "Other Title" })
	c := rawMeta(func(m *RawMetadata) { m.ProductID = "B002" })

	forward := Normalize([]RawMetadata{a, b, c})
	reversed := Normalize([]RawMetadata{c, b, a})
	assert.Equal(t, forward, reversed)
}

func TestNormalizeKeyDerivedFromProductIDAlone(t *testing.T) {
	a := Normalize([]RawMetadata{rawMeta(nil)})
	b := Normalize([]RawMetadata{rawMeta(func(m *RawMetadata) { m.Title = "Different" })})
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].MetaKey, b[0].MetaKey)
}

func timePtr(t time.Time) *time.Time { return &t }
