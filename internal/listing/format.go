package listing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var priceNumberRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

// ParsePrice extracts a numeric value from free-text price expressions
// like "$50", "50 USD" or "1,200". The text itself is always preserved
// verbatim for display; this is only for numeric comparison.
func ParsePrice(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	match := priceNumberRe.FindString(strings.ReplaceAll(value, ",", ""))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatWinCount compacts large win counts: 1500 -> "1.5K",
// 2500000 -> "2.5M", anything below 1000 stays plain.
func FormatWinCount(n int) string {
	switch {
	case n >= 1000000:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	case n >= 1000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	default:
		return strconv.Itoa(n)
	}
}

// formatRatio renders a ratio without trailing zeros (3.2 -> "3.2",
// 4.0 -> "4").
func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
