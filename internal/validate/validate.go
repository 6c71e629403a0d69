package validate

import (
	"regexp"
	"strconv"
	"strings"

	"shoplite/internal/domain"
)

var reID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ID validates a simple resource identifier (product/category/shop ids, slugs).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Q trims a free-text search term and caps its length. Charset is not
// restricted here; the query escaper owns injection safety.
func Q(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func Limit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 20
	}
	if n > 100 {
		return 100
	}
	return n
}

// Sort maps unknown keys to the default ordering rather than rejecting.
func Sort(s string) string {
	switch strings.TrimSpace(s) {
	case domain.SortPriceAsc, domain.SortPriceDesc, domain.SortNewest:
		return strings.TrimSpace(s)
	default:
		return domain.SortDefault
	}
}

// Price parses an optional non-negative number; malformed input drops the filter.
func Price(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// Rating parses an optional rating floor in [0,5].
func Rating(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 5 {
		return nil
	}
	return &v
}

// Locations splits a comma-joined list, dropping empties; capped to keep the
// index clause bounded.
func Locations(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
		if len(out) == 10 {
			break
		}
	}
	return out
}
