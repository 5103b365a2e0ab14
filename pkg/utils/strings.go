package utils

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims a string and squeezes every internal whitespace
// run down to a single space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// NormalizeID canonicalizes an external identifier: trimmed and uppercased.
func NormalizeID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
