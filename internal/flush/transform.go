package flush

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	maxTermLength       = 50
	truncatedTermLength = 47
	truncationMarker    = "..."
)

var (
	punctuationPattern = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// NormalizeTerm canonicalizes a raw search query before it becomes a durable
// term row: trim, lowercase, strip punctuation, collapse internal whitespace,
// NFKC-normalize, and truncate long queries to 50 runes with a marker.
func NormalizeTerm(query string) string {
	normalized := strings.TrimSpace(query)
	normalized = strings.ToLower(normalized)
	normalized = punctuationPattern.ReplaceAllString(normalized, "")
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	normalized = norm.NFKC.String(normalized)

	if runes := []rune(normalized); len(runes) > maxTermLength {
		normalized = string(runes[:truncatedTermLength]) + truncationMarker
	}

	return normalized
}
