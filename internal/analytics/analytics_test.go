package analytics

import (
	"testing"

	"github.com/lucasnoah/manimator/internal/db"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func mustExec(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func render(t *testing.T, d *db.DB, run, slug string, attempt int, ok bool, ms int64) {
	t.Helper()
	mustExec(t, d.LogRenderAttempt(db.RenderAttempt{
		RunID: run, UnitID: slug, Slug: slug, Attempt: attempt,
		Provenance: "initial", Succeeded: ok, Resolved: ok, DurationMs: ms,
	}))
}

// seed records two runs: intro renders first time in both; outro needs a
// repair in run 1 and exhausts its retries in run 2.
func seed(t *testing.T, d *db.DB) {
	t.Helper()
	mustExec(t, d.StartRun("r1", "doc.md", 2))
	render(t, d, "r1", "intro", 1, true, 2000)
	mustExec(t, d.LogUnitEvent("r1", "Intro", "intro", "rendered", 1, ""))
	render(t, d, "r1", "outro", 1, false, 1000)
	render(t, d, "r1", "outro", 2, true, 3000)
	mustExec(t, d.LogUnitEvent("r1", "Outro", "outro", "rendered", 2, ""))
	mustExec(t, d.FinishRun("r1", "completed", 2, "/m/final.mp4", ""))

	mustExec(t, d.StartRun("r2", "doc.md", 2))
	render(t, d, "r2", "intro", 1, true, 4000)
	mustExec(t, d.LogUnitEvent("r2", "Intro", "intro", "rendered", 1, ""))
	for i := 1; i <= 3; i++ {
		render(t, d, "r2", "outro", i, false, 1000)
	}
	mustExec(t, d.LogUnitEvent("r2", "Outro", "outro", "exhausted", 3, ""))
	mustExec(t, d.FinishRun("r2", "completed", 1, "/m/final.mp4", ""))
}

func TestQueryUnitStats(t *testing.T) {
	d := testDB(t)
	seed(t, d)

	results, err := QueryUnitStats(d, "")
	if err != nil {
		t.Fatalf("QueryUnitStats: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 slugs, got %d", len(results))
	}

	intro, outro := results[0], results[1]
	if intro.Slug != "intro" || outro.Slug != "outro" {
		t.Fatalf("order = %s, %s", intro.Slug, outro.Slug)
	}

	if intro.Runs != 2 || intro.Rendered != 2 {
		t.Errorf("intro runs/rendered = %d/%d", intro.Runs, intro.Rendered)
	}
	if intro.SuccessRate != 100 {
		t.Errorf("intro success = %v, want 100", intro.SuccessRate)
	}
	if intro.AvgRenderAttempts != 1 || intro.AvgRepairRounds != 0 {
		t.Errorf("intro attempts/repairs = %v/%v", intro.AvgRenderAttempts, intro.AvgRepairRounds)
	}
	if intro.AvgRenderSeconds != 3 {
		t.Errorf("intro avg seconds = %v, want 3", intro.AvgRenderSeconds)
	}

	if outro.SuccessRate != 50 {
		t.Errorf("outro success = %v, want 50", outro.SuccessRate)
	}
	// 2 attempts in r1, 3 in r2.
	if outro.AvgRenderAttempts != 2.5 {
		t.Errorf("outro avg attempts = %v, want 2.5", outro.AvgRenderAttempts)
	}
	if outro.AvgRepairRounds != 1.5 {
		t.Errorf("outro avg repairs = %v, want 1.5", outro.AvgRepairRounds)
	}
}

func TestQueryUnitStats_Empty(t *testing.T) {
	d := testDB(t)
	results, err := QueryUnitStats(d, "")
	if err != nil {
		t.Fatalf("QueryUnitStats: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestQueryUnitStats_Since(t *testing.T) {
	d := testDB(t)
	seed(t, d)

	results, err := QueryUnitStats(d, "2999-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("QueryUnitStats: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("future since should exclude all runs, got %d", len(results))
	}
}

func TestQueryRunTotals(t *testing.T) {
	d := testDB(t)
	seed(t, d)
	mustExec(t, d.StartRun("r3", "empty.md", 1))
	mustExec(t, d.FinishRun("r3", "no_artifacts", 0, "", ""))
	mustExec(t, d.StartRun("r4", "doc.md", 1))

	totals, err := QueryRunTotals(d, "")
	if err != nil {
		t.Fatalf("QueryRunTotals: %v", err)
	}
	want := RunTotals{Total: 4, Completed: 2, NoArtifacts: 1, InProgress: 1}
	if totals != want {
		t.Errorf("totals = %+v, want %+v", totals, want)
	}
}

func TestPercentile(t *testing.T) {
	if got := percentile(nil, 95); got != 0 {
		t.Errorf("empty percentile = %v", got)
	}
	if got := percentile([]float64{1, 2, 3, 4, 5}, 50); got != 3 {
		t.Errorf("p50 = %v, want 3", got)
	}
	if got := percentile([]float64{1, 3}, 50); got != 2 {
		t.Errorf("interpolated p50 = %v, want 2", got)
	}
}

func TestPct(t *testing.T) {
	if got := pct(1, 3); got != 33.3 {
		t.Errorf("pct(1,3) = %v, want 33.3", got)
	}
	if got := pct(1, 0); got != 0 {
		t.Errorf("pct(1,0) = %v, want 0", got)
	}
}
