package search

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// Tag data is crawler-sourced and shows up in every shape the crawlers ever
// produced: a real string slice, a JSON-encoded array, a comma-joined string,
// or garbage. normalizeTagInput collapses all of those into candidate strings
// before any cleaning happens; unrecognized shapes yield nothing.
func normalizeTagInput(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				return arr
			}
		}
		return strings.Split(s, ",")
	default:
		return nil
	}
}

// Characters that break RediSearch TAG syntax or inflate entries; each is
// replaced by a space so words glued together by braces stay separated.
const dangerousTagChars = "{}()[]|@!<>\"`\\'"

// Crawled tags often carry the source URL up to its search parameter,
// e.g. "https://example.com/search?q=shoes". Everything through the last
// "?q=" / "&keyword=" is noise; the value after it is the actual tag.
var reSearchURLPrefix = regexp.MustCompile(`(?i)^.*[?&](?:q|keyword)=`)

const maxTagLen = 50

// CleanTags turns raw tag data of unknown shape into a comma-joined,
// deduplicated list safe to store in a TAG field. It never fails;
// unusable input yields "".
func CleanTags(raw any) string {
	candidates := normalizeTagInput(raw)
	if len(candidates) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		t := cleanTag(c)
		if t == "" || len(t) >= maxTagLen {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return strings.Join(out, ",")
}

func cleanTag(s string) string {
	if dec, err := url.QueryUnescape(s); err == nil {
		s = dec
	} // keep the original on decode failure
	s = reSearchURLPrefix.ReplaceAllString(s, "")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(dangerousTagChars, r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return collapseSpace(b.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// EscapeFreeText backslash-escapes every rune outside the allow list (ASCII
// alphanumerics, Unicode letters, whitespace, hyphen) before the value is
// embedded in a TEXT query clause. This is the sole injection defense for
// the text path; accented storefront queries stay matchable.
func EscapeFreeText(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9',
			r == '-',
			unicode.IsSpace(r),
			unicode.IsLetter(r):
		default:
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// TAG clauses use a different metacharacter set than TEXT clauses; these are
// stripped outright rather than escaped.
const tagQueryMeta = "{}|@*()[]\\"

// SanitizeTagKeyword strips TAG-clause metacharacters and collapses
// whitespace. Applying it twice is a no-op.
func SanitizeTagKeyword(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(tagQueryMeta, r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return collapseSpace(b.String())
}
