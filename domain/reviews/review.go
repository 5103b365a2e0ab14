// Package reviews normalizes raw product review records into a clean,
// deduplicated snapshot. Each call to Normalize is a pure whole-set
// transform: the full raw input produces a full replacement output, so
// rerunning against identical input reproduces identical rows and keys.
package reviews

import (
	"sort"
	"time"

	"reviewpipe/domain/identity"
	"reviewpipe/pkg/utils"
)

// Sentinels used when partitioning candidates for deduplication. An absent
// reviewer or date still has to land every true duplicate in the same
// partition.
const (
	unknownReviewer = "UNKNOWN"
	unknownDate     = "UNKNOWN_DATE"
)

// DateLayout is the canonical calendar-date encoding used in keys and in
// warehouse output.
const DateLayout = "2006-01-02"

// RawReview is a review record exactly as landed by the ingestion job.
// Every field is a string because upstream encodes values inconsistently;
// nothing here is trusted.
type RawReview struct {
	ProductID    string `json:"asin"`
	Rating       string `json:"overall"`
	Verified     string `json:"verified"`
	ReviewTime   string `json:"reviewTime"`
	UnixTime     string `json:"unixReviewTime"`
	Body         string `json:"reviewText"`
	Summary      string `json:"summary"`
	ReviewerID   string `json:"reviewerID"`
	ReviewerName string `json:"reviewerName"`
}

// NormalizedReview is a cleaned, typed, deduplicated review row. Text fields
// use the empty string for "absent". Rows that reach the output always carry
// a product id, a rating and a review date.
type NormalizedReview struct {
	ReviewKey    string
	ProductID    string
	Rating       float64
	Verified     *bool
	ReviewDate   time.Time
	ReviewYear   string
	Body         string
	Summary      string
	ReviewerID   string
	ReviewerName string
	UnixTime     *int64
}

// candidate is a review after cleaning and parsing but before the dedup and
// acceptance passes. Optional fields stay nil-able here so the gate can tell
// "unparseable" from "zero".
type candidate struct {
	productID    string
	rating       *float64
	verified     *bool
	date         *time.Time
	year         string
	body         string
	summary      string
	reviewerID   string
	reviewerName string
	epoch        *int64
}

// Normalize produces the NormalizedReview set for a full raw snapshot.
//
// Stages, in order: per-row cleaning and parsing, partition deduplication,
// the acceptance gate (product id, rating and date must all be present),
// and surrogate key derivation. Rows failing a parse degrade field by field;
// rows failing the gate are dropped silently. Output order is by key, so two
// runs over the same input are byte-identical.
func Normalize(raw []RawReview) []NormalizedReview {
	candidates := make([]candidate, 0, len(raw))
	for i := range raw {
		candidates = append(candidates, clean(raw[i]))
	}

	survivors := dedupe(candidates)

	out := make([]NormalizedReview, 0, len(survivors))
	for _, c := range survivors {
		if c.productID == "" || c.rating == nil || c.date == nil {
			continue
		}
		dateStr := c.date.Format(DateLayout)
		out = append(out, NormalizedReview{
			ReviewKey:    identity.SurrogateKey(c.productID, c.reviewerID, dateStr),
			ProductID:    c.productID,
			Rating:       *c.rating,
			Verified:     c.verified,
			ReviewDate:   *c.date,
			ReviewYear:   c.year,
			Body:         c.body,
			Summary:      c.summary,
			ReviewerID:   c.reviewerID,
			ReviewerName: c.reviewerName,
			UnixTime:     c.epoch,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ReviewKey < out[j].ReviewKey })
	return out
}

// clean applies field-level cleaning and parsing to one raw row. No row is
// rejected here; unusable fields become nil and the acceptance gate decides
// later.
func clean(r RawReview) candidate {
	c := candidate{
		productID:    utils.NormalizeID(r.ProductID),
		body:         utils.CollapseWhitespace(r.Body),
		summary:      utils.CollapseWhitespace(r.Summary),
		reviewerID:   trimKeepEmpty(r.ReviewerID),
		reviewerName: utils.CollapseWhitespace(r.ReviewerName),
	}
	c.rating = parseRating(r.Rating)
	c.verified = parseVerified(r.Verified)
	c.epoch = parseEpoch(r.UnixTime)
	c.date = resolveDate(r.ReviewTime, c.epoch)
	c.year = deriveYear(r.ReviewTime, c.date)
	return c
}

// trimKeepEmpty trims but deliberately keeps the empty string: reviewer ids
// are retained even when blank so the identity key stays consistent.
func trimKeepEmpty(s string) string {
	return utils.CollapseWhitespace(s)
}
