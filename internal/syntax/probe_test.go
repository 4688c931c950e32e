package syntax

import (
	"strings"
	"testing"
)

func TestProbe_ValidScene(t *testing.T) {
	src := `from manim import *

class GeneratedScene(Scene):
    def construct(self):
        title = Text("Hello")
        self.play(Write(title))
        self.wait(2)
`
	report, err := NewPythonProber().Probe(src)
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if !report.OK {
		t.Errorf("expected OK, got issues: %s", report.Summary())
	}
	if report.Summary() != "no syntax errors" {
		t.Errorf("Summary() = %q", report.Summary())
	}
}

func TestProbe_BrokenScene(t *testing.T) {
	src := `from manim import *

class GeneratedScene(Scene):
    def construct(self):
        title = Text("Hello"
        self.play(Write(title))
`
	report, err := NewPythonProber().Probe(src)
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if report.OK {
		t.Fatal("expected syntax errors")
	}
	if len(report.Issues) == 0 {
		t.Fatal("expected at least one issue")
	}
	if report.Issues[0].Line < 5 {
		t.Errorf("first issue at line %d, want >= 5", report.Issues[0].Line)
	}
	if !strings.Contains(report.Summary(), "line ") {
		t.Errorf("Summary() = %q, want line references", report.Summary())
	}
}
