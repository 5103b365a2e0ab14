// Package analytics computes per-year, per-brand rating statistics from the
// normalized review and metadata snapshots.
package analytics

import (
	"math"
	"sort"

	"reviewpipe/domain/catalog"
	"reviewpipe/domain/reviews"
)

// RatingSummary is one aggregate output row, unique per (year, brand).
type RatingSummary struct {
	Year        string
	Brand       string
	Rating      float64
	ReviewCount int64
}

type bucket struct {
	year  string
	brand string
	sum   float64
	count int64
}

// Summarize joins reviews to metadata on product id, drops rows without a
// known brand, and returns mean rating (3-decimal fixed point) and review
// count per (year, brand). Output is ordered year descending, brand
// ascending; that ordering is the downstream presentation contract.
func Summarize(revs []reviews.NormalizedReview, meta []catalog.NormalizedMetadata) []RatingSummary {
	brandByProduct := make(map[string]string, len(meta))
	for _, m := range meta {
		if m.Brand != "" {
			brandByProduct[m.ProductID] = m.Brand
		}
	}

	buckets := make(map[[2]string]*bucket)
	for _, r := range revs {
		brand, ok := brandByProduct[r.ProductID]
		if !ok {
			continue
		}
		key := [2]string{r.ReviewYear, brand}
		b := buckets[key]
		if b == nil {
			b = &bucket{year: r.ReviewYear, brand: brand}
			buckets[key] = b
		}
		b.sum += r.Rating
		b.count++
	}

	out := make([]RatingSummary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, RatingSummary{
			Year:        b.year,
			Brand:       b.brand,
			Rating:      round3(b.sum / float64(b.count)),
			ReviewCount: b.count,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Brand < out[j].Brand
	})
	return out
}

// round3 rounds to 3 decimal places, half away from zero. This is a value
// rounding, not display formatting; downstream comparisons rely on it.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
