// Package stage drives one document unit through generate, normalize,
// validate, render and repair until it renders or its retries run out.
package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lucasnoah/manimator/internal/document"
	"github.com/lucasnoah/manimator/internal/normalize"
	"github.com/lucasnoah/manimator/internal/oracle"
	"github.com/lucasnoah/manimator/internal/render"
	"github.com/lucasnoah/manimator/internal/syntax"
)

// ErrGeneration marks a unit whose code synthesis call failed outright.
var ErrGeneration = errors.New("code generation failed")

// DefaultMaxRetries bounds repair cycles when Options.MaxRetries is negative.
const DefaultMaxRetries = 3

// Synthesizer produces scene code for a unit.
type Synthesizer interface {
	Generate(ctx context.Context, u document.Unit) (string, error)
}

// Validator judges code against a unit's instruction.
type Validator interface {
	Validate(ctx context.Context, u document.Unit, code string) (oracle.Verdict, error)
}

// Repairer proposes a fix for code that failed to render.
type Repairer interface {
	Repair(ctx context.Context, req oracle.RepairRequest) (string, error)
}

// Renderer executes code and reports the outcome.
type Renderer interface {
	Render(ctx context.Context, req render.Request) (render.Outcome, error)
}

// SyntaxProber reports syntax errors in an assembled scene file.
type SyntaxProber interface {
	Probe(source string) (syntax.Report, error)
}

// Event is emitted to the Recorder on every transition, attempt and render.
type Event struct {
	RunID   string
	Unit    document.Unit
	Kind    string // a State name, "attempt", "render" or "syntax_probe"
	Attempt int
	Detail  string
	Code    *Attempt        // set for Kind "attempt"
	Render  *render.Outcome // set for Kind "render"
}

// Recorder persists pipeline events. Implementations must not fail the
// pipeline; persistence errors are theirs to report.
type Recorder interface {
	Record(ev Event)
}

// Options configures an Engine.
type Options struct {
	MaxRetries int  // repair cycles after the first render; negative means DefaultMaxRetries
	Validate   bool // call the Validator before rendering
	SceneClass string
}

// Engine executes the unit lifecycle: generate → normalize → validate →
// render → repair loop.
type Engine struct {
	synth    Synthesizer
	validate Validator
	repair   Repairer
	render   Renderer
	prober   SyntaxProber
	recorder Recorder
	logger   *slog.Logger
	opts     Options
}

// NewEngine creates a unit engine. validator may be nil, which disables
// validation regardless of opts.Validate.
func NewEngine(synth Synthesizer, validator Validator, repairer Repairer, renderer Renderer, opts Options) *Engine {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.SceneClass == "" {
		opts.SceneClass = "GeneratedScene"
	}
	return &Engine{
		synth:    synth,
		validate: validator,
		repair:   repairer,
		render:   renderer,
		logger:   slog.New(slog.DiscardHandler),
		opts:     opts,
	}
}

// SetLogger sets the logger for transition output.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// SetProber enables the advisory syntax probe before each render.
func (e *Engine) SetProber(p SyntaxProber) {
	e.prober = p
}

// SetRecorder sets the event sink.
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
}

// unitRun carries per-call state so an Engine can be shared across units.
type unitRun struct {
	e     *Engine
	runID string
	res   *Result
	log   *slog.Logger
}

// Run drives u to a terminal state. Unit-level failures are reported in
// the Result; the returned error is non-nil only for ErrGeneration or a
// cancelled context.
func (e *Engine) Run(ctx context.Context, u document.Unit, runID string) (*Result, error) {
	start := time.Now()
	r := &unitRun{
		e:     e,
		runID: runID,
		res:   &Result{Unit: u},
		log:   e.logger.With("run", runID, "unit", u.Slug),
	}
	defer func() { r.res.Duration = time.Since(start) }()

	r.log.Info("generating scene code", "scene", u.ID, "target_duration", u.TargetDuration)
	code, err := e.synth.Generate(ctx, u)
	if err != nil {
		return r.generationFailed(ctx, err)
	}
	r.transition(Generated, 0, "")

	code = normalize.Indentation(code)
	r.transition(Normalized, 0, "")
	r.addAttempt(ProvenanceInitial, code)

	if e.opts.Validate && e.validate != nil {
		code, err = r.validateOnce(ctx, code)
		if err != nil {
			return r.res, err
		}
	}

	return r.renderLoop(ctx, code)
}

// validateOnce runs the single validation round. A rejected candidate is
// regenerated exactly once with the feedback and is not validated again.
func (r *unitRun) validateOnce(ctx context.Context, code string) (string, error) {
	u := r.res.Unit
	verdict, err := r.e.validate.Validate(ctx, u, code)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.res.ValidationBypassed = true
		r.log.Warn("validation bypassed", "error", err)
		r.transition(Validated, 0, "bypassed: "+err.Error())
		return code, nil
	}
	if verdict.Passed {
		r.transition(Validated, 0, "")
		return code, nil
	}

	r.transition(Rejected, 0, verdict.Feedback)
	r.log.Info("regenerating with validator feedback", "feedback", verdict.Feedback)
	regen, err := r.e.synth.Generate(ctx, u.WithFeedback(verdict.Feedback))
	if err != nil {
		_, gerr := r.generationFailed(ctx, err)
		return "", gerr
	}
	code = normalize.Indentation(regen)
	r.res.Regenerated = true
	r.transition(Regenerated, 0, "")
	r.addAttempt(ProvenanceRegenerated, code)
	return code, nil
}

// renderLoop renders code, repairing after each failure, until success or
// until MaxRetries repair cycles have been spent.
func (r *unitRun) renderLoop(ctx context.Context, code string) (*Result, error) {
	e := r.e
	u := r.res.Unit

	for attempt := 0; ; attempt++ {
		r.transition(RenderAttempt, attempt, "")
		report := r.probe(code, attempt)

		out, err := e.render.Render(ctx, render.Request{UnitSlug: u.Slug, Code: code, Token: r.runID})
		if ctx.Err() != nil {
			return r.res, ctx.Err()
		}
		if err != nil {
			out.Succeeded = false
			out.Diagnostics = joinDiagnostics(out.Diagnostics, err.Error())
		}
		r.res.RenderAttempts++
		r.record(Event{Kind: "render", Attempt: attempt, Render: &out})

		if out.Succeeded {
			r.res.ArtifactPath = out.Path
			r.res.Resolved = out.Resolved
			if out.Resolved {
				r.transition(Rendered, attempt, out.Path)
			} else {
				r.log.Warn("render succeeded but artifact path could not be resolved", "attempt", attempt)
				r.transition(Rendered, attempt, "artifact path unresolved")
			}
			return r.res, nil
		}

		r.res.LastDiagnostics = out.Diagnostics
		r.log.Warn("render failed", "attempt", attempt, "exit_code", out.ExitCode, "timed_out", out.TimedOut)

		if attempt >= e.opts.MaxRetries {
			r.log.Error("unit exhausted", "render_attempts", r.res.RenderAttempts)
			r.transition(Exhausted, attempt, fmt.Sprintf("render attempts=%d", r.res.RenderAttempts))
			return r.res, nil
		}

		r.transition(RepairAttempt, attempt+1, "")
		r.res.RepairRounds++
		fixed, err := e.repair.Repair(ctx, oracle.RepairRequest{
			Code:         code,
			Diagnostics:  out.Diagnostics,
			SyntaxReport: report,
		})
		if err != nil {
			if ctx.Err() != nil {
				return r.res, ctx.Err()
			}
			r.log.Warn("repair failed, retrying current code", "attempt", attempt+1, "error", err)
			continue
		}
		code = fixed
		r.addAttempt(ProvenanceRepaired, code)
	}
}

// probe runs the advisory syntax check and returns its summary when the
// scene has errors.
func (r *unitRun) probe(code string, attempt int) string {
	if r.e.prober == nil {
		return ""
	}
	report, err := r.e.prober.Probe(render.Assemble(code, r.e.opts.SceneClass))
	if err != nil {
		r.log.Debug("syntax probe unavailable", "error", err)
		return ""
	}
	if report.OK {
		return ""
	}
	summary := report.Summary()
	r.log.Warn("syntax errors before render", "attempt", attempt, "issues", len(report.Issues))
	r.record(Event{Kind: "syntax_probe", Attempt: attempt, Detail: summary})
	return summary
}

func (r *unitRun) generationFailed(ctx context.Context, err error) (*Result, error) {
	if ctx.Err() != nil {
		return r.res, ctx.Err()
	}
	r.res.Error = err.Error()
	r.log.Error("code generation failed", "error", err)
	r.transition(GenerationFailed, 0, err.Error())
	return r.res, fmt.Errorf("%w: %s: %v", ErrGeneration, r.res.Unit.Slug, err)
}

func (r *unitRun) transition(s State, attempt int, detail string) {
	r.res.State = s
	r.res.StateName = s.String()
	r.res.Transitions = append(r.res.Transitions, Transition{
		State:   s,
		Name:    s.String(),
		Attempt: attempt,
		Detail:  detail,
		At:      time.Now(),
	})
	r.log.Info("state "+s.String(), "state", s.String(), "attempt", attempt)
	r.record(Event{Kind: s.String(), Attempt: attempt, Detail: detail})
}

func (r *unitRun) addAttempt(p Provenance, code string) {
	a := Attempt{Index: len(r.res.Attempts), Provenance: p, Code: code}
	r.res.Attempts = append(r.res.Attempts, a)
	r.record(Event{Kind: "attempt", Attempt: a.Index, Detail: string(p), Code: &a})
}

func (r *unitRun) record(ev Event) {
	if r.e.recorder == nil {
		return
	}
	ev.RunID = r.runID
	ev.Unit = r.res.Unit
	r.e.recorder.Record(ev)
}

func joinDiagnostics(diag, msg string) string {
	if diag == "" {
		return msg
	}
	return diag + "\n" + msg
}
