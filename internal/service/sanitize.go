package service

import (
	"regexp"
	"strings"
)

var (
	tagPattern          = regexp.MustCompile(`<[^>]*>`)
	jsSchemePattern     = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandlerPattern = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
)

// Sanitize strips markup tags, javascript: schemes and inline event handler
// attributes, then trims. Passes repeat until nothing changes, so removing
// one pattern cannot leave another behind and Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	for {
		next := sanitizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func sanitizeOnce(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = jsSchemePattern.ReplaceAllString(s, "")
	s = eventHandlerPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
