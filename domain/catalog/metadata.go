// Package catalog normalizes raw product metadata records into a snapshot
// with exactly one row per product id. Like the review stage, Normalize is a
// pure whole-set transform with deterministic tie-breaks.
package catalog

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"reviewpipe/domain/identity"
	"reviewpipe/pkg/utils"
)

// DateLayout is the canonical calendar-date encoding for warehouse output.
const DateLayout = "2006-01-02"

// Candidate layouts for the metadata date, tried in order.
var metaDateLayouts = []string{
	"2006-01-02",
	"Jan 2, 2006",
}

// RawMetadata is a product metadata record exactly as landed. The Value blob
// is semi-structured: sometimes JSON, sometimes prose, and routinely
// malformed. Duplicate product ids with differing completeness are expected.
type RawMetadata struct {
	ProductID string `json:"asin"`
	Title     string `json:"title"`
	Features  string `json:"feature"`
	Value     string `json:"details"`
	ImageURL  string `json:"imageURL"`
	Rank      string `json:"rank"`
	Date      string `json:"date"`
}

// NormalizedMetadata is a cleaned metadata row, unique per product id. Text
// fields use the empty string for "absent"; Brand may legitimately stay
// absent and such rows are excluded later by the aggregation join.
type NormalizedMetadata struct {
	MetaKey   string
	ProductID string
	Title     string
	Brand     string
	Features  string
	Value     string
	ImageURL  string
	Rank      *int64
	MetaDate  *time.Time
}

// Normalize produces the NormalizedMetadata set for a full raw snapshot:
// per-row cleaning, brand extraction via the fallback chain, per-product
// deduplication by completeness, and the product-id acceptance gate.
func Normalize(raw []RawMetadata) []NormalizedMetadata {
	rows := make([]NormalizedMetadata, 0, len(raw))
	for i := range raw {
		row := clean(raw[i])
		if row.ProductID == "" {
			continue
		}
		rows = append(rows, row)
	}

	survivors := dedupe(rows)

	sort.Slice(survivors, func(i, j int) bool { return survivors[i].MetaKey < survivors[j].MetaKey })
	return survivors
}

func clean(r RawMetadata) NormalizedMetadata {
	row := NormalizedMetadata{
		ProductID: utils.NormalizeID(r.ProductID),
		Title:     utils.CollapseWhitespace(r.Title),
		Features:  utils.CollapseWhitespace(r.Features),
		Value:     utils.CollapseWhitespace(r.Value),
		ImageURL:  strings.TrimSpace(r.ImageURL),
	}
	row.Rank = parseRank(r.Rank)
	row.MetaDate = parseMetaDate(r.Date)
	row.Brand = ExtractBrand(row.Value, row.Features)
	row.MetaKey = identity.SurrogateKey(row.ProductID)
	return row
}

// parseRank attempts an integer cast after trimming; nil on failure or empty.
func parseRank(s string) *int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseMetaDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range metaDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// completeness counts populated optional fields. Used only to break dedup
// ties; never stored.
func completeness(m NormalizedMetadata) int {
	score := 0
	if m.Title != "" {
		score++
	}
	if m.Brand != "" {
		score++
	}
	if m.Value != "" {
		score++
	}
	if m.ImageURL != "" {
		score++
	}
	if m.Rank != nil {
		score++
	}
	return score
}

// dedupe keeps the most informationally complete row per product id:
// completeness desc, brand-present desc, title-present desc, then a
// canonical encoding so the survivor is arrival-order independent.
func dedupe(rows []NormalizedMetadata) []NormalizedMetadata {
	partitions := make(map[string][]NormalizedMetadata, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, seen := partitions[row.ProductID]; !seen {
			ids = append(ids, row.ProductID)
		}
		partitions[row.ProductID] = append(partitions[row.ProductID], row)
	}
	sort.Strings(ids)

	out := make([]NormalizedMetadata, 0, len(ids))
	for _, id := range ids {
		group := partitions[id]
		sort.Slice(group, func(i, j int) bool { return preferred(group[i], group[j]) })
		out = append(out, group[0])
	}
	return out
}

func preferred(a, b NormalizedMetadata) bool {
	if as, bs := completeness(a), completeness(b); as != bs {
		return as > bs
	}
	if ab, bb := a.Brand != "", b.Brand != ""; ab != bb {
		return ab
	}
	if at, bt := a.Title != "", b.Title != ""; at != bt {
		return at
	}
	return canonical(a) < canonical(b)
}

func canonical(m NormalizedMetadata) string {
	rank := ""
	if m.Rank != nil {
		rank = strconv.FormatInt(*m.Rank, 10)
	}
	date := ""
	if m.MetaDate != nil {
		date = m.MetaDate.Format(DateLayout)
	}
	return strings.Join([]string{m.Title, m.Brand, m.Value, m.ImageURL, rank, date}, "\x1f")
}
