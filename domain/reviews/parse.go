package reviews

import (
	"math"
	"strconv"
	"strings"
)

// Rating bounds. Upstream occasionally ships ratings outside the scale;
// those are clamped, not dropped.
const (
	minRating = 0.0
	maxRating = 5.0
)

var (
	truthy = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true}
	falsy  = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true}
)

// parseRating attempts a numeric cast and clamps the result to [0, 5].
// Returns nil when the value does not parse; the row is dropped later by the
// acceptance gate.
func parseRating(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	// ParseFloat accepts the literal "NaN", which would slip past both clamp
	// comparisons and poison every aggregate it joins.
	if math.IsNaN(v) {
		return nil
	}
	if v < minRating {
		v = minRating
	}
	if v > maxRating {
		v = maxRating
	}
	return &v
}

// parseVerified maps the heterogeneous truthy/falsy encodings upstream uses
// onto a tri-state boolean. Anything outside the alias sets, including the
// empty string, stays unknown (nil).
func parseVerified(s string) *bool {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case truthy[v]:
		b := true
		return &b
	case falsy[v]:
		b := false
		return &b
	default:
		return nil
	}
}

// parseEpoch parses an epoch-seconds value. Non-integer input is treated as
// absent rather than an error.
func parseEpoch(s string) *int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
