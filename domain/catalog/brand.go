package catalog

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// brandExtractor is one strategy in the fallback chain. It returns the empty
// string when it has nothing, never an error: a malformed blob degrades to
// the next strategy instead of aborting the row.
type brandExtractor func(value, features string) string

// labelPattern matches "<label>:" or "<label>=" followed by a value up to
// the next delimiter (comma, semicolon, hyphen, pipe or newline).
func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + label + `\s*[:=]\s*([^,;\-|\n]+)`)
}

var (
	brandLabelRe        = labelPattern("brand")
	manufacturerLabelRe = labelPattern("manufacturer")
	byNameRe            = regexp.MustCompile(`(?i)\bby\s+([^,;\-|\n]+)`)
)

// brandChain is the ordered fallback chain for brand extraction. The first
// non-empty result wins; order matters and matches the warehouse contract.
var brandChain = []brandExtractor{
	brandFromJSON,
	func(value, _ string) string { return matchLabel(brandLabelRe, value) },
	func(value, _ string) string { return matchLabel(manufacturerLabelRe, value) },
	func(_, features string) string { return matchLabel(byNameRe, features) },
	func(_, features string) string { return matchLabel(brandLabelRe, features) },
	func(_, features string) string { return matchLabel(manufacturerLabelRe, features) },
}

// ExtractBrand resolves a best-guess brand from the value blob and feature
// text. Returns the empty string when no strategy yields one.
func ExtractBrand(value, features string) string {
	for _, extract := range brandChain {
		if brand := extract(value, features); brand != "" {
			return brand
		}
	}
	return ""
}

// brandFromJSON parses the value blob as JSON and pulls a "brand" field.
// Parse failures and non-string brand values degrade silently.
func brandFromJSON(value, _ string) string {
	var blob map[string]any
	if err := json.Unmarshal([]byte(value), &blob); err != nil {
		return ""
	}
	keys := make([]string, 0, len(blob))
	for k := range blob {
		if strings.EqualFold(k, "brand") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := blob[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func matchLabel(re *regexp.Regexp, s string) string {
	if s == "" {
		return ""
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
