// Package normalize repairs stray leading whitespace in synthesized scene code
// before it is executed.
//
// The heuristic is line based and does not parse the target grammar. A line
// keeps its indentation only when the previous non-blank line opens a block or
// continues an expression; every other line is flattened to column zero. This
// recovers the common "almost flat" oracle output, but it also flattens the
// second and later statements of a genuinely nested block (a loop body, for
// instance). That loss is accepted rather than guessed at.
package normalize

import "strings"

// continuationSuffixes mark a line whose successor is nested or continued.
var continuationSuffixes = []string{":", "(", "[", "{", ",", "\\"}

// Indentation returns code with corrected leading whitespace. Token content
// and line order are unchanged; blank lines pass through untouched.
func Indentation(code string) string {
	if code == "" {
		return ""
	}
	lines := strings.Split(code, "\n")
	dedent(lines)

	prev := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !continues(prev) {
			lines[i] = strings.TrimLeft(line, " \t")
		}
		prev = trimmed
	}
	return strings.Join(lines, "\n")
}

// continues reports whether the trimmed line signals that the next line is
// nested under it or continues it.
func continues(trimmed string) bool {
	for _, s := range continuationSuffixes {
		if strings.HasSuffix(trimmed, s) {
			return true
		}
	}
	return false
}

// dedent strips the leading whitespace shared by every non-blank line.
func dedent(lines []string) {
	prefix, found := "", false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !found {
			prefix, found = indent, true
			continue
		}
		prefix = commonPrefix(prefix, indent)
		if prefix == "" {
			return
		}
	}
	if prefix == "" {
		return
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
