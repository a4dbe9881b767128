package negotiation

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ExtractPrice returns the first decimal number in text. Thousands
// separators are removed before matching, so "₹12,500" yields 12500.
func ExtractPrice(text string) (float64, bool) {
	match := numberPattern.FindString(strings.ReplaceAll(text, ",", ""))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
