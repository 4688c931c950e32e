package render

import (
	"fmt"
	"strings"
)

const bodyIndent = "        "

// Assemble wraps construct-body code in a complete scene module.
func Assemble(body, className string) string {
	var b strings.Builder
	b.WriteString("from manim import *\n\n")
	fmt.Fprintf(&b, "class %s(Scene):\n", className)
	b.WriteString("    def construct(self):\n")

	wrote := false
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(bodyIndent)
		b.WriteString(line)
		b.WriteByte('\n')
		wrote = true
	}
	if !wrote {
		b.WriteString(bodyIndent + "pass\n")
	}
	return b.String()
}
