package document

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	sceneHeadingRe = regexp.MustCompile(`(?i)^scene\s*:\s*(.+)$`)
	fieldLabelRe   = regexp.MustCompile(`(?i)\*\*\s*(narrative|visual(?:\s+instructions?)?)\s*:?\s*\*\*\s*:?`)
)

// section is the byte range of one "## Scene: <name>" block.
type section struct {
	name  string
	start int // first byte after the heading line
	end   int // first byte of the next scene heading, or len(src)
}

// ParseFile reads and parses the document at path.
func ParseFile(path string) ([]Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Parse(src), nil
}

// Parse splits a markdown document into units at each level-2 "Scene:"
// heading. Text before the first scene is ignored. Headings inside fenced
// code blocks are not scene markers. A missing field yields an empty string.
func Parse(src []byte) []Unit {
	sections := findSections(src)
	slugs := make(uniqueSlugs)

	units := make([]Unit, 0, len(sections))
	for _, s := range sections {
		narrative, instruction := extractFields(string(src[s.start:s.end]))
		units = append(units, Unit{
			ID:             s.name,
			Slug:           slugs.next(s.name),
			Narrative:      narrative,
			Instruction:    instruction,
			TargetDuration: TargetDuration(narrative),
		})
	}
	return units
}

// findSections walks the markdown AST for scene headings.
func findSections(src []byte) []section {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var sections []section
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level != 2 || h.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		m := sceneHeadingRe.FindStringSubmatch(strings.TrimSpace(headingText(h, src)))
		if m == nil {
			return ast.WalkSkipChildren, nil
		}
		seg := h.Lines().At(0)
		lineStart := bytes.LastIndexByte(src[:seg.Start], '\n') + 1
		lineEnd := len(src)
		if i := bytes.IndexByte(src[seg.Stop:], '\n'); i >= 0 {
			lineEnd = seg.Stop + i + 1
		}
		if len(sections) > 0 {
			sections[len(sections)-1].end = lineStart
		}
		sections = append(sections, section{
			name:  strings.TrimSpace(m[1]),
			start: lineEnd,
			end:   len(src),
		})
		return ast.WalkSkipChildren, nil
	})
	return sections
}

// headingText returns the raw source of a heading's content lines.
func headingText(h *ast.Heading, src []byte) string {
	var b strings.Builder
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

// extractFields pulls the **Narrative:** and **Visual:** fields out of a
// scene body. Narrative runs until the visual label; visual runs to the end
// of the section.
func extractFields(body string) (narrative, instruction string) {
	locs := fieldLabelRe.FindAllStringSubmatchIndex(body, -1)
	narrativeAt, visualAt := -1, -1
	var narrativeLabelEnd, visualLabelEnd int
	for _, loc := range locs {
		label := strings.ToLower(body[loc[2]:loc[3]])
		switch {
		case label == "narrative" && narrativeAt < 0:
			narrativeAt, narrativeLabelEnd = loc[0], loc[1]
		case strings.HasPrefix(label, "visual") && visualAt < 0:
			visualAt, visualLabelEnd = loc[0], loc[1]
		}
	}

	if narrativeAt >= 0 {
		end := len(body)
		if visualAt > narrativeAt {
			end = visualAt
		}
		narrative = strings.TrimSpace(body[narrativeLabelEnd:end])
	}
	if visualAt >= 0 {
		instruction = strings.TrimSpace(body[visualLabelEnd:])
	}
	return narrative, instruction
}
