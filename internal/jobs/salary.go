package jobs

import (
	"regexp"
	"strconv"
	"strings"
)

// salaryNumberRe matches the first monetary figure in a salary snippet,
// tolerating currency symbols and thousands separators ("£18,000", "11.50").
var salaryNumberRe = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// ParseSalary extracts a numeric salary from a free-text snippet such as
// "£11.50 an hour" or "£17,000 - £19,000 a year". At most one of the returned
// pointers is non-nil; both are nil when the text is absent or unparseable.
// Ranges resolve to the low bound, matching how the floors are applied.
func ParseSalary(text string) (hourly, yearly *float64) {
	if text == "" {
		return nil, nil
	}
	lower := strings.ToLower(text)

	match := salaryNumberRe.FindString(lower)
	if match == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return nil, nil
	}

	switch {
	case strings.Contains(lower, "hour"):
		return &value, nil
	case strings.Contains(lower, "year") || strings.Contains(lower, "annum"):
		return nil, &value
	}
	// A bare number with no period marker is useless for the floor checks.
	return nil, nil
}
