package orchestrator

import (
	"log/slog"
	"sync"

	"github.com/lucasnoah/manimator/internal/db"
	"github.com/lucasnoah/manimator/internal/pipeline"
	"github.com/lucasnoah/manimator/internal/stage"
)

// Ledger is the subset of the run ledger the orchestrator writes.
type Ledger interface {
	StartRun(id, document string, units int) error
	FinishRun(id, status string, artifacts int, finalPath, errMsg string) error
	LogUnitEvent(runID, unitID, slug, event string, attempt int, detail string) error
	LogRenderAttempt(a db.RenderAttempt) error
}

// Journal persists engine events: code candidates and render logs to the
// run store, transitions and render attempts to the ledger. Either sink may
// be nil. Write failures are logged and never reach the engine.
type Journal struct {
	store  *pipeline.Store
	ledger Ledger
	logger *slog.Logger

	mu         sync.Mutex
	provenance map[string]string // run/slug -> provenance of the latest attempt
}

// NewJournal creates a Journal.
func NewJournal(store *pipeline.Store, ledger Ledger, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Journal{
		store:      store,
		ledger:     ledger,
		logger:     logger,
		provenance: make(map[string]string),
	}
}

// Record implements stage.Recorder.
func (j *Journal) Record(ev stage.Event) {
	key := ev.RunID + "/" + ev.Unit.Slug
	switch ev.Kind {
	case "attempt":
		if ev.Code == nil {
			return
		}
		prov := string(ev.Code.Provenance)
		j.mu.Lock()
		j.provenance[key] = prov
		j.mu.Unlock()
		if j.store != nil {
			if _, err := j.store.SaveAttempt(ev.RunID, ev.Unit.Slug, ev.Code.Index, prov, ev.Code.Code); err != nil {
				j.warn("save attempt", ev, err)
			}
		}
		j.logEvent(ev, prov)

	case "render":
		if ev.Render == nil {
			return
		}
		out := ev.Render
		if j.store != nil && out.Diagnostics != "" {
			if _, err := j.store.SaveRenderLog(ev.RunID, ev.Unit.Slug, ev.Attempt, out.Diagnostics); err != nil {
				j.warn("save render log", ev, err)
			}
		}
		if j.ledger != nil {
			j.mu.Lock()
			prov := j.provenance[key]
			j.mu.Unlock()
			err := j.ledger.LogRenderAttempt(db.RenderAttempt{
				RunID:        ev.RunID,
				UnitID:       ev.Unit.ID,
				Slug:         ev.Unit.Slug,
				Attempt:      ev.Attempt,
				Provenance:   prov,
				Succeeded:    out.Succeeded,
				Resolved:     out.Resolved,
				ExitCode:     out.ExitCode,
				TimedOut:     out.TimedOut,
				DurationMs:   out.Duration.Milliseconds(),
				ArtifactPath: out.Path,
			})
			if err != nil {
				j.warn("log render attempt", ev, err)
			}
		}

	default:
		j.logEvent(ev, ev.Detail)
	}
}

func (j *Journal) logEvent(ev stage.Event, detail string) {
	if j.ledger == nil {
		return
	}
	if err := j.ledger.LogUnitEvent(ev.RunID, ev.Unit.ID, ev.Unit.Slug, ev.Kind, ev.Attempt, detail); err != nil {
		j.warn("log unit event", ev, err)
	}
}

func (j *Journal) warn(what string, ev stage.Event, err error) {
	j.logger.Warn(what, "run", ev.RunID, "unit", ev.Unit.Slug, "kind", ev.Kind, "error", err)
}
