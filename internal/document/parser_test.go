package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleDoc = `# Blockchain Explained

Some preamble that belongs to no scene.

## Scene: Intro
**Narrative:** Money moves between banks every day.
Each transfer is written in a private ledger.

**Visual:** Show two banks as rectangles with an arrow between them.
Label the arrow "transfer".

## Scene: The Ledger
**Narrative**: A blockchain is a shared ledger.
**Visual Instructions:** Draw three blocks linked by lines.

` + "```markdown\n## Scene: Not A Scene\n```\n" + `
## Scene: Outro
**Narrative:** Thanks for watching.
`

func TestParse_Sections(t *testing.T) {
	units := Parse([]byte(sampleDoc))

	want := []Unit{
		{
			ID:             "Intro",
			Slug:           "intro",
			Narrative:      "Money moves between banks every day.\nEach transfer is written in a private ledger.",
			Instruction:    "Show two banks as rectangles with an arrow between them.\nLabel the arrow \"transfer\".",
			TargetDuration: TargetDuration("Money moves between banks every day.\nEach transfer is written in a private ledger."),
		},
		{
			ID:             "The Ledger",
			Slug:           "the_ledger",
			Narrative:      "A blockchain is a shared ledger.",
			Instruction:    "Draw three blocks linked by lines.\n\n```markdown\n## Scene: Not A Scene\n```",
			TargetDuration: 2.4,
		},
		{
			ID:             "Outro",
			Slug:           "outro",
			Narrative:      "Thanks for watching.",
			Instruction:    "",
			TargetDuration: 2.0,
		},
	}
	if diff := cmp.Diff(want, units); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Idempotent(t *testing.T) {
	first := Parse([]byte(sampleDoc))
	second := Parse([]byte(sampleDoc))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second parse differs (-first +second):\n%s", diff)
	}
}

func TestParse_NoScenes(t *testing.T) {
	units := Parse([]byte("# Title\n\nJust prose.\n"))
	if len(units) != 0 {
		t.Errorf("expected no units, got %d", len(units))
	}
}

func TestParse_DuplicateNamesGetUniqueSlugs(t *testing.T) {
	doc := "## Scene: Intro\n**Narrative:** a\n## Scene: intro!\n**Narrative:** b\n## Scene: Intro 2\n**Narrative:** c\n"
	units := Parse([]byte(doc))
	if len(units) != 3 {
		t.Fatalf("len(units) = %d, want 3", len(units))
	}
	seen := make(map[string]bool)
	for _, u := range units {
		if seen[u.Slug] {
			t.Errorf("duplicate slug %q", u.Slug)
		}
		seen[u.Slug] = true
	}
	if units[1].Slug != "intro_2" {
		t.Errorf("units[1].Slug = %q, want intro_2", units[1].Slug)
	}
	if units[2].Slug != "intro_2_2" {
		t.Errorf("units[2].Slug = %q, want intro_2_2", units[2].Slug)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	units, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if len(units) != 3 {
		t.Errorf("len(units) = %d, want 3", len(units))
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtractFields_VisualOnly(t *testing.T) {
	narrative, instruction := extractFields("**Visual:** a red circle\n")
	if narrative != "" {
		t.Errorf("narrative = %q, want empty", narrative)
	}
	if instruction != "a red circle" {
		t.Errorf("instruction = %q, want %q", instruction, "a red circle")
	}
}
