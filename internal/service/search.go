package service

import (
	"regexp"
	"strings"
)

// searchPattern compiles a case-insensitive literal substring matcher for term.
// Metacharacters in term never act as regex syntax.
func searchPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
}

func normalizeSearch(term string) string {
	return strings.TrimSpace(term)
}
