// Package orchestrator runs every unit of a document through the stage
// engine, in document order, and concatenates the produced clips.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/document"
	"github.com/lucasnoah/manimator/internal/pipeline"
	"github.com/lucasnoah/manimator/internal/stage"
)

// UnitRunner drives one unit to a terminal state.
type UnitRunner interface {
	Run(ctx context.Context, u document.Unit, runID string) (*stage.Result, error)
}

// Aggregator concatenates artifacts in order into output.
type Aggregator interface {
	Concat(ctx context.Context, paths []string, output string) error
}

// Orchestrator sequences units and hands their artifacts to aggregation.
type Orchestrator struct {
	engine UnitRunner
	agg    Aggregator
	cfg    *config.Config
	store  *pipeline.Store
	ledger Ledger
	logger *slog.Logger
	newID  func() string
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(engine UnitRunner, agg Aggregator, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		agg:    agg,
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		newID:  uuid.NewString,
	}
}

// SetStore enables run.json persistence.
func (o *Orchestrator) SetStore(s *pipeline.Store) {
	o.store = s
}

// SetLedger enables run rows in the ledger.
func (o *Orchestrator) SetLedger(l Ledger) {
	o.ledger = l
}

// SetLogger sets the logger for run progress.
func (o *Orchestrator) SetLogger(l *slog.Logger) {
	if l != nil {
		o.logger = l
	}
}

// RunResult is the outcome of one document run.
type RunResult struct {
	RunID          string          `json:"run_id"`
	Document       string          `json:"document"`
	Units          []*stage.Result `json:"units"`
	Artifacts      []string        `json:"artifacts"`
	FinalPath      string          `json:"final_path,omitempty"`
	NoArtifacts    bool            `json:"no_artifacts"`
	AggregationErr error           `json:"-"`
	Duration       time.Duration   `json:"duration"`
}

// Status is the run's terminal status as recorded in the store and ledger.
func (r *RunResult) Status() string {
	switch {
	case r.AggregationErr != nil:
		return pipeline.StatusFailed
	case r.NoArtifacts:
		return pipeline.StatusNoArtifacts
	case r.FinalPath != "":
		return pipeline.StatusCompleted
	default:
		return pipeline.StatusFailed
	}
}

// Failed returns the units that contributed no artifact.
func (r *RunResult) Failed() []*stage.Result {
	var out []*stage.Result
	for _, u := range r.Units {
		if !u.Succeeded() {
			out = append(out, u)
		}
	}
	return out
}

// RunDocument parses path and runs its units.
func (o *Orchestrator) RunDocument(ctx context.Context, path string) (*RunResult, error) {
	units, err := document.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDocument, err)
	}
	return o.Run(ctx, path, units)
}

// Run processes units strictly in order. A unit that fails is skipped; the
// run continues. The returned error is non-nil only when ctx is cancelled
// or aggregation fails, and the result is populated in both cases.
func (o *Orchestrator) Run(ctx context.Context, doc string, units []document.Unit) (*RunResult, error) {
	start := time.Now()
	res := &RunResult{
		RunID:     o.newID(),
		Document:  doc,
		Artifacts: []string{},
	}
	log := o.logger.With("run", res.RunID)
	log.Info("run started", "document", doc, "units", len(units))
	o.begin(res, len(units), log)

	for i, u := range units {
		log.Info(fmt.Sprintf("scene %d/%d", i+1, len(units)), "unit", u.Slug, "scene", u.ID)
		ur, err := o.engine.Run(ctx, u, res.RunID)
		if ur != nil {
			res.Units = append(res.Units, ur)
			o.saveUnit(res.RunID, ur, log)
		}
		if err != nil {
			if ctx.Err() != nil {
				res.Duration = time.Since(start)
				o.finish(res, ctx.Err(), log)
				return res, fmt.Errorf("run interrupted: %w", ctx.Err())
			}
			if !errors.Is(err, stage.ErrGeneration) {
				log.Error("unit failed", "unit", u.Slug, "error", err)
			}
			continue
		}
		switch {
		case ur.Succeeded():
			res.Artifacts = append(res.Artifacts, ur.ArtifactPath)
		case ur.State == stage.Rendered:
			log.Warn("scene rendered but excluded from output: artifact path unresolved", "unit", u.Slug)
		default:
			log.Error("scene failed", "unit", u.Slug, "state", ur.StateName)
		}
	}

	if len(res.Artifacts) == 0 {
		res.NoArtifacts = true
		res.Duration = time.Since(start)
		log.Warn("no artifacts produced")
		o.finish(res, nil, log)
		return res, nil
	}

	output := o.cfg.OutputPath()
	log.Info("concatenating scenes", "artifacts", len(res.Artifacts), "output", output)
	if err := o.agg.Concat(ctx, res.Artifacts, output); err != nil {
		res.AggregationErr = err
		res.Duration = time.Since(start)
		log.Error("concatenation failed; scene clips kept", "error", err, "artifacts", len(res.Artifacts))
		o.finish(res, err, log)
		return res, err
	}
	res.FinalPath = output
	res.Duration = time.Since(start)
	log.Info("run complete", "output", output, "duration", res.Duration.Round(time.Millisecond).String())
	o.finish(res, nil, log)
	return res, nil
}

func (o *Orchestrator) begin(res *RunResult, units int, log *slog.Logger) {
	if o.store != nil {
		if _, err := o.store.Create(res.RunID, res.Document); err != nil {
			log.Warn("run store unavailable", "error", err)
		}
	}
	if o.ledger != nil {
		if err := o.ledger.StartRun(res.RunID, res.Document, units); err != nil {
			log.Warn("ledger unavailable", "error", err)
		}
	}
}

func (o *Orchestrator) saveUnit(runID string, ur *stage.Result, log *slog.Logger) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveUnitResult(runID, ur.Unit.Slug, ur); err != nil {
		log.Warn("save unit result", "unit", ur.Unit.Slug, "error", err)
	}
}

func (o *Orchestrator) finish(res *RunResult, runErr error, log *slog.Logger) {
	status := res.Status()
	if runErr != nil {
		status = pipeline.StatusFailed
	}
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}

	if o.store != nil {
		err := o.store.Update(res.RunID, func(rs *pipeline.RunState) {
			rs.Status = status
			rs.Units = summarize(res.Units)
			rs.Artifacts = res.Artifacts
			rs.FinalPath = res.FinalPath
			rs.AggregationError = errMsg
		})
		if err != nil {
			log.Warn("update run state", "error", err)
		}
	}
	if o.ledger != nil {
		if err := o.ledger.FinishRun(res.RunID, status, len(res.Artifacts), res.FinalPath, errMsg); err != nil {
			log.Warn("ledger finish run", "error", err)
		}
	}
}

func summarize(units []*stage.Result) []pipeline.UnitSummary {
	out := make([]pipeline.UnitSummary, 0, len(units))
	for _, u := range units {
		out = append(out, pipeline.UnitSummary{
			ID:                 u.Unit.ID,
			Slug:               u.Unit.Slug,
			State:              u.StateName,
			ArtifactPath:       u.ArtifactPath,
			Resolved:           u.Resolved,
			RenderAttempts:     u.RenderAttempts,
			RepairRounds:       u.RepairRounds,
			Regenerated:        u.Regenerated,
			ValidationBypassed: u.ValidationBypassed,
			Error:              u.Error,
			Duration:           u.Duration.Round(time.Millisecond).String(),
		})
	}
	return out
}
