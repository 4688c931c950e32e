package web

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lucasnoah/manimator/internal/db"
	"github.com/lucasnoah/manimator/internal/pipeline"
)

// ---- view models ----

type DashboardData struct {
	Runs []RunRow
}

type RunRow struct {
	RunID     string
	Document  string
	Status    string
	Units     int
	Artifacts int
	StartedAt string
}

type RunDetailData struct {
	Run    *pipeline.RunState
	Events []db.UnitEvent
}

type UnitDetailData struct {
	RunID    string
	Slug     string
	Attempts []FileView
	Logs     []FileView
}

type FileView struct {
	Name    string
	Content string
}

// ---- handlers ----

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.List("")
	if err != nil {
		s.serverError(w, err)
		return
	}
	data := DashboardData{}
	for i := len(runs) - 1; i >= 0; i-- { // newest first
		rs := runs[i]
		data.Runs = append(data.Runs, RunRow{
			RunID:     rs.RunID,
			Document:  filepath.Base(rs.Document),
			Status:    rs.Status,
			Units:     len(rs.Units),
			Artifacts: len(rs.Artifacts),
			StartedAt: rs.CreatedAt,
		})
	}
	s.render(w, s.dashboardTmpl, data)
}

func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request, runID string) {
	rs, err := s.store.Get(runID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data := RunDetailData{Run: rs}
	if s.events != nil {
		events, err := s.events.GetUnitEvents(runID)
		if err != nil {
			s.logger.Warn("load ledger events", "run", runID, "error", err)
		}
		data.Events = events
	}
	s.render(w, s.runTmpl, data)
}

func (s *Server) handleUnitDetail(w http.ResponseWriter, r *http.Request, runID, slug string) {
	dir := s.store.UnitDir(runID, slug)
	if _, err := os.Stat(dir); err != nil {
		http.NotFound(w, r)
		return
	}
	paths, err := s.store.AttemptFiles(runID, slug)
	if err != nil {
		s.serverError(w, err)
		return
	}
	data := UnitDetailData{RunID: runID, Slug: slug}
	for _, p := range paths {
		data.Attempts = append(data.Attempts, readFileView(p))
	}
	logs, _ := filepath.Glob(filepath.Join(dir, "render-*.log"))
	sort.Strings(logs)
	for _, p := range logs {
		data.Logs = append(data.Logs, readFileView(p))
	}
	s.render(w, s.unitTmpl, data)
}

func readFileView(path string) FileView {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileView{Name: filepath.Base(path), Content: "(unreadable: " + err.Error() + ")"}
	}
	return FileView{Name: filepath.Base(path), Content: string(data)}
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		s.logger.Warn("render template", "error", err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Warn("web request failed", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// relTime renders an RFC 3339 timestamp as a short age.
func relTime(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
