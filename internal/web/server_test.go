package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lucasnoah/manimator/internal/db"
	"github.com/lucasnoah/manimator/internal/pipeline"
)

type staticEvents []db.UnitEvent

func (e staticEvents) GetUnitEvents(string) ([]db.UnitEvent, error) { return e, nil }

func seededServer(t *testing.T) *Server {
	t.Helper()
	store := pipeline.NewStore(t.TempDir())
	if _, err := store.Create("run-1", "/docs/money.md"); err != nil {
		t.Fatal(err)
	}
	err := store.Update("run-1", func(rs *pipeline.RunState) {
		rs.Status = pipeline.StatusCompleted
		rs.FinalPath = "/media/final_output.mp4"
		rs.Units = []pipeline.UnitSummary{
			{ID: "Banks", Slug: "banks", State: "rendered", Resolved: true, ArtifactPath: "/media/banks.mp4", RenderAttempts: 1},
			{ID: "Blocks", Slug: "blocks", State: "exhausted", RenderAttempts: 4, RepairRounds: 3},
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveAttempt("run-1", "blocks", 0, "initial", "self.play(Create(Blockz()))"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveRenderLog("run-1", "blocks", 0, "NameError: name 'Blockz' is not defined"); err != nil {
		t.Fatal(err)
	}
	events := staticEvents{{RunID: "run-1", Slug: "blocks", Event: "repair_attempt", Attempt: 1}}
	return NewServer(store, events, 0)
}

func get(t *testing.T, s *Server, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func TestDashboard_ListsRuns(t *testing.T) {
	code, body := get(t, seededServer(t), "/")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	for _, want := range []string{"run-1", "money.md", "badge-completed"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestDashboard_Empty(t *testing.T) {
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, 0)
	code, body := get(t, s, "/")
	if code != http.StatusOK || !strings.Contains(body, "No runs recorded yet.") {
		t.Errorf("status = %d, body = %s", code, body)
	}
}

func TestRunDetail(t *testing.T) {
	code, body := get(t, seededServer(t), "/run/run-1")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	for _, want := range []string{"/media/final_output.mp4", "/run/run-1/unit/blocks", "badge-exhausted", "repair_attempt"} {
		if !strings.Contains(body, want) {
			t.Errorf("run page missing %q", want)
		}
	}
}

func TestUnitDetail_EscapesCode(t *testing.T) {
	code, body := get(t, seededServer(t), "/run/run-1/unit/blocks")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !strings.Contains(body, "attempt-0-initial.py") {
		t.Error("unit page missing attempt file")
	}
	if !strings.Contains(body, "name &#39;Blockz&#39; is not defined") {
		t.Errorf("render log not escaped as expected:\n%s", body)
	}
}

func TestRouting_NotFound(t *testing.T) {
	s := seededServer(t)
	for _, path := range []string{"/nope", "/run/missing", "/run/.hidden", "/run/run-1/extra"} {
		if code, _ := get(t, s, path); code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, code)
		}
	}
}
