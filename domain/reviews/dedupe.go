package reviews

import (
	"sort"
	"strconv"
	"strings"
)

// partitionKey groups candidates that describe the same underlying review.
// Absent components are replaced with sentinels so duplicates with the same
// gaps still collide.
func partitionKey(c candidate) string {
	reviewer := c.reviewerID
	if reviewer == "" {
		reviewer = unknownReviewer
	}
	var epoch int64
	if c.epoch != nil {
		epoch = *c.epoch
	}
	date := unknownDate
	if c.date != nil {
		date = c.date.Format(DateLayout)
	}
	return strings.Join([]string{
		c.productID,
		reviewer,
		strconv.FormatInt(epoch, 10),
		date,
	}, "\x1f")
}

// dedupe keeps exactly one candidate per partition: the one with the
// greatest epoch value, absent epochs last. Remaining ties are broken by
// field completeness and then by a canonical encoding of the row, so the
// survivor never depends on arrival order.
func dedupe(candidates []candidate) []candidate {
	partitions := make(map[string][]candidate, len(candidates))
	keys := make([]string, 0, len(candidates))
	for _, c := range candidates {
		k := partitionKey(c)
		if _, seen := partitions[k]; !seen {
			keys = append(keys, k)
		}
		partitions[k] = append(partitions[k], c)
	}
	sort.Strings(keys)

	out := make([]candidate, 0, len(keys))
	for _, k := range keys {
		group := partitions[k]
		sort.Slice(group, func(i, j int) bool { return preferred(group[i], group[j]) })
		out = append(out, group[0])
	}
	return out
}

// preferred reports whether a should survive over b within one partition.
func preferred(a, b candidate) bool {
	// Greatest epoch first, nil epochs last.
	switch {
	case a.epoch != nil && b.epoch == nil:
		return true
	case a.epoch == nil && b.epoch != nil:
		return false
	case a.epoch != nil && b.epoch != nil && *a.epoch != *b.epoch:
		return *a.epoch > *b.epoch
	}
	// Prefer the more textually complete record.
	if ac, bc := textScore(a), textScore(b); ac != bc {
		return ac > bc
	}
	return canonical(a) < canonical(b)
}

func textScore(c candidate) int {
	score := 0
	if c.body != "" {
		score++
	}
	if c.summary != "" {
		score++
	}
	if c.reviewerName != "" {
		score++
	}
	return score
}

// canonical encodes the row's remaining fields for the final deterministic
// tie-break.
func canonical(c candidate) string {
	verified := ""
	if c.verified != nil {
		verified = strconv.FormatBool(*c.verified)
	}
	rating := ""
	if c.rating != nil {
		rating = strconv.FormatFloat(*c.rating, 'f', -1, 64)
	}
	return strings.Join([]string{rating, verified, c.body, c.summary, c.reviewerName, c.year}, "\x1f")
}
