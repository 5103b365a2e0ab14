package s3

import (
	"bytes"
	"encoding/json"
	"strings"

	"reviewpipe/domain/catalog"
	"reviewpipe/domain/reviews"
)

// decodeLine parses one landed JSON line into a loosely-typed map. Numbers
// stay json.Number so epoch values survive untruncated. Returns false for
// blank or malformed lines; the caller counts those and moves on, it never
// aborts the snapshot.
func decodeLine(line []byte) (map[string]any, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, false
	}
	return record, true
}

// stringify coerces a loosely-typed field to its string form. Upstream
// encodes the same field as a string, number or bool depending on the
// record; arrays are joined and objects keep their JSON text so the brand
// extractor can still parse them.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

func field(record map[string]any, names ...string) string {
	for _, name := range names {
		if v, ok := record[name]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func decodeReview(record map[string]any) reviews.RawReview {
	return reviews.RawReview{
		ProductID:    field(record, "asin"),
		Rating:       field(record, "overall"),
		Verified:     field(record, "verified"),
		ReviewTime:   field(record, "reviewTime"),
		UnixTime:     field(record, "unixReviewTime"),
		Body:         field(record, "reviewText"),
		Summary:      field(record, "summary"),
		ReviewerID:   field(record, "reviewerID"),
		ReviewerName: field(record, "reviewerName"),
	}
}

func decodeMetadata(record map[string]any) catalog.RawMetadata {
	return catalog.RawMetadata{
		ProductID: field(record, "asin"),
		Title:     field(record, "title"),
		Features:  field(record, "feature", "features"),
		Value:     field(record, "details", "value"),
		ImageURL:  field(record, "imageURL", "imUrl"),
		Rank:      field(record, "rank"),
		Date:      field(record, "date"),
	}
}
