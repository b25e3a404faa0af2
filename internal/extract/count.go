package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// countRe finds the first numeric token in a field's text, with an optional
// magnitude suffix. Matches inside surrounding prose ("1.5K followers").
var countRe = regexp.MustCompile(`([0-9][0-9.,]*)\s*([KkMmBb])?`)

// countSuffixes are field-name shapes that mark a field as count-like.
var countSuffixes = []string{"_count", "_total", "_followers", "_likes", "_views", "_subscribers"}

// IsCountField reports whether a field name denotes a numeric count that
// should get suffix-aware normalization.
func IsCountField(field string) bool {
	name := strings.ToLower(field)
	for _, suffix := range countSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	switch name {
	case "count", "followers", "likes", "views", "subscribers":
		return true
	}
	return false
}

// ParseCount normalizes a count string to an integer: "1.2K" → 1200,
// "5M" → 5000000, "2,481" → 2481, plain digits pass through. Text with no
// numeric token is an error, which callers turn into an omitted field.
func ParseCount(text string) (int64, error) {
	m := countRe.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("no numeric token in %q", text)
	}

	num := strings.ReplaceAll(m[1], ",", "")
	num = strings.TrimRight(num, ".")
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", text, err)
	}

	switch strings.ToUpper(m[2]) {
	case "K":
		f *= 1e3
	case "M":
		f *= 1e6
	case "B":
		f *= 1e9
	}

	return int64(math.Round(f)), nil
}
