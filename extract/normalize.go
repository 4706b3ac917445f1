package extract

import (
	"strings"
	"unicode"
)

const fence = "```"

// Normalize strips a fenced code block wrapper from a raw model response and
// returns the trimmed interior. Responses without a fence pass through
// unchanged. The payload itself is never reinterpreted, only unwrapped, so
// the function is total and idempotent for inputs with at most one block.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, fence)
	if start < 0 {
		return s
	}
	inner := s[start+len(fence):]
	if end := strings.Index(inner, fence); end >= 0 {
		inner = inner[:end]
	}
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 && isLanguageTag(inner[:nl]) {
		inner = inner[nl+1:]
	}
	return strings.TrimSpace(inner)
}

// isLanguageTag reports whether the opening fence line is an annotation such
// as "json" rather than payload content starting on the same line.
func isLanguageTag(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	for _, r := range line {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
