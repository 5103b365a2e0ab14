package reviews

import (
	"strings"
	"time"
)

// Candidate layouts for the review date, tried strictly in this order. The
// first successful parse wins and no further layouts are attempted.
var reviewDateLayouts = []string{
	"Jan 2, 2006", // MON DD, YYYY
	"1 2, 2006",   // MM DD, YYYY
	"2006-01-02",
	"2-Jan-2006",
}

const (
	layoutMonthName = "Jan 2, 2006"
	layoutISO       = "2006-01-02"
)

// resolveDate resolves a calendar date from the raw review time string,
// falling back to an epoch-seconds conversion (anchored at 1970-01-01 UTC)
// when no layout matches. Returns nil when neither path yields a date.
func resolveDate(raw string, epoch *int64) *time.Time {
	s := strings.TrimSpace(raw)
	if s != "" {
		for _, layout := range reviewDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
				return &d
			}
		}
	}
	if epoch != nil {
		t := time.Unix(*epoch, 0).UTC()
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	return nil
}

// deriveYear derives the 4-character review year. This is deliberately an
// independent pass over the same raw string, not a projection of the
// resolved date: the month-name layout takes the literal last four
// characters of the raw value, then the ISO layout contributes its year
// component, and only then does the resolved date fill in. On malformed
// input the two passes can disagree; that layering is part of the contract.
func deriveYear(raw string, resolved *time.Time) string {
	s := strings.TrimSpace(raw)
	if _, err := time.Parse(layoutMonthName, s); err == nil && len(s) >= 4 {
		return s[len(s)-4:]
	}
	if t, err := time.Parse(layoutISO, s); err == nil {
		return t.Format("2006")
	}
	if resolved != nil {
		return resolved.Format("2006")
	}
	return ""
}
