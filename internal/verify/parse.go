package verify

import "strings"

// ParseVerdict normalizes a model answer. Only "true" and "false" (any case,
// surrounding whitespace ignored) are authoritative; everything else is a
// rejection flagged as ambiguous.
func ParseVerdict(raw string) (related bool, ambiguous bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true, false
	case "false":
		return false, false
	default:
		return false, true
	}
}
