package oracle

import (
	"regexp"
	"strings"
)

var fenceLangRe = regexp.MustCompile(`^[A-Za-z0-9_+-]*$`)

// StripFences removes a leading ``` (with optional language tag) and a
// trailing ``` from model output, then trims surrounding whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		rest := s[3:]
		if i := strings.IndexByte(rest, '\n'); i >= 0 && fenceLangRe.MatchString(strings.TrimSpace(rest[:i])) {
			rest = rest[i+1:]
		} else if i < 0 && fenceLangRe.MatchString(strings.TrimSuffix(rest, "```")) {
			// A lone tag line carries no code.
			return ""
		}
		s = rest
	}
	s = strings.TrimSuffix(strings.TrimRight(s, " \t\r\n"), "```")
	return strings.TrimSpace(s)
}
