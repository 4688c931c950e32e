// Package web serves a read-only browser view of past runs: run list, unit
// outcomes, the ledger's event trail, and each attempt's code and render log.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lucasnoah/manimator/internal/db"
	"github.com/lucasnoah/manimator/internal/pipeline"
)

var funcMap = template.FuncMap{
	"badgeClass": func(status string) string {
		return "badge badge-" + strings.ReplaceAll(status, "_", "-")
	},
	"relTime": relTime,
}

// EventSource supplies a run's ledger events. It may be nil.
type EventSource interface {
	GetUnitEvents(runID string) ([]db.UnitEvent, error)
}

// Server is the read-only web UI server.
type Server struct {
	store  *pipeline.Store
	events EventSource
	port   int
	logger *slog.Logger

	dashboardTmpl *template.Template
	runTmpl       *template.Template
	unitTmpl      *template.Template
}

// NewServer creates a Server with parsed templates.
func NewServer(store *pipeline.Store, events EventSource, port int) *Server {
	return &Server{
		store:         store,
		events:        events,
		port:          port,
		logger:        slog.New(slog.DiscardHandler),
		dashboardTmpl: mustParseTmpl(dashboardHTML),
		runTmpl:       mustParseTmpl(runHTML),
		unitTmpl:      mustParseTmpl(unitHTML),
	}
}

// SetLogger sets the logger for request errors and startup.
func (s *Server) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

func mustParseTmpl(body string) *template.Template {
	t := template.Must(template.New("base").Funcs(funcMap).Parse(baseHTML))
	return template.Must(t.New("content").Parse(body))
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			s.handleDashboard(w, r)
		case strings.HasPrefix(r.URL.Path, "/run/"):
			s.routeRun(w, r)
		default:
			http.NotFound(w, r)
		}
	})
	return mux
}

// Start listens until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("run browser listening", "url", "http://"+srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routeRun(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/run/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	for _, p := range parts {
		if !safeSegment(p) {
			http.NotFound(w, r)
			return
		}
	}
	switch {
	case len(parts) == 1:
		s.handleRunDetail(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "unit":
		s.handleUnitDetail(w, r, parts[0], parts[2])
	default:
		http.NotFound(w, r)
	}
}

// safeSegment rejects path segments that could escape the store.
func safeSegment(s string) bool {
	return s != "" && !strings.ContainsAny(s, `/\`) && !strings.HasPrefix(s, ".")
}
