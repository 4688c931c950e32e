// Package syntax parses assembled scene files with tree-sitter to report
// syntax errors before the render engine sees them. The report is advisory:
// it never changes what gets rendered.
package syntax

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// maxIssues caps how many error locations a report keeps.
const maxIssues = 10

// Issue is one ERROR or MISSING node in the parse tree.
type Issue struct {
	Line    int    `json:"line"` // 1-based
	Column  int    `json:"column"`
	Kind    string `json:"kind"` // "error" or "missing"
	Snippet string `json:"snippet,omitempty"`
}

// Report summarizes a parse.
type Report struct {
	OK     bool    `json:"ok"`
	Issues []Issue `json:"issues,omitempty"`
}

// Summary renders the report as one line per issue.
func (r Report) Summary() string {
	if r.OK {
		return "no syntax errors"
	}
	var b strings.Builder
	for i, is := range r.Issues {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "line %d col %d: %s", is.Line, is.Column, is.Kind)
		if is.Snippet != "" {
			fmt.Fprintf(&b, " near %q", is.Snippet)
		}
	}
	return b.String()
}

// Prober checks Python source. A new tree-sitter parser is created per call,
// so a Prober is safe for sequential use only.
type Prober struct {
	lang *tree_sitter.Language
}

// NewPythonProber returns a Prober for Python.
func NewPythonProber() *Prober {
	return &Prober{lang: tree_sitter.NewLanguage(tree_sitter_python.Language())}
}

// Probe parses source and collects syntax errors.
func (p *Prober) Probe(source string) (Report, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.lang); err != nil {
		return Report{}, fmt.Errorf("set language python: %w", err)
	}

	src := []byte(source)
	tree := parser.Parse(src, nil)
	if tree == nil {
		return Report{}, fmt.Errorf("tree-sitter returned nil tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return Report{OK: true}, nil
	}

	var issues []Issue
	cursor := root.Walk()
	defer cursor.Close()
	collect(cursor, src, &issues)

	return Report{OK: false, Issues: issues}, nil
}

func collect(cursor *tree_sitter.TreeCursor, src []byte, issues *[]Issue) {
	if len(*issues) >= maxIssues {
		return
	}
	node := cursor.Node()
	if !node.HasError() && !node.IsMissing() {
		return
	}

	if node.IsError() || node.IsMissing() {
		pos := node.StartPosition()
		kind := "error"
		if node.IsMissing() {
			kind = "missing " + node.Kind()
		}
		*issues = append(*issues, Issue{
			Line:    int(pos.Row) + 1,
			Column:  int(pos.Column) + 1,
			Kind:    kind,
			Snippet: snippet(src, node.StartByte(), node.EndByte()),
		})
		return
	}

	if cursor.GotoFirstChild() {
		collect(cursor, src, issues)
		for cursor.GotoNextSibling() {
			collect(cursor, src, issues)
		}
		cursor.GotoParent()
	}
}

func snippet(src []byte, start, end uint) string {
	if end > uint(len(src)) {
		end = uint(len(src))
	}
	if start >= end {
		return ""
	}
	s := strings.TrimSpace(string(src[start:end]))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
