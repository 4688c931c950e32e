package oracle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/document"
	"github.com/lucasnoah/manimator/internal/prompt"
	"github.com/lucasnoah/manimator/internal/runner"
)

// roleBase carries what every oracle role needs.
type roleBase struct {
	client       Client
	templatesDir string
	temperature  float64
	timeout      time.Duration
}

func (r roleBase) call(ctx context.Context, systemName, userName string, vars prompt.Vars, json bool) (string, error) {
	system, err := r.render(systemName, nil)
	if err != nil {
		return "", err
	}
	user, err := r.render(userName, vars)
	if err != nil {
		return "", err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.client.Complete(ctx, Prompt{
		System:      system,
		User:        user,
		Temperature: r.temperature,
		JSON:        json,
	})
}

func (r roleBase) render(name string, vars prompt.Vars) (string, error) {
	tmpl, err := prompt.LoadTemplate(name, r.templatesDir)
	if err != nil {
		return "", err
	}
	if vars == nil {
		vars = prompt.Vars{}
	}
	out, err := prompt.Render(tmpl, vars)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out, nil
}

// Synthesizer generates scene code for a unit.
type Synthesizer struct{ roleBase }

// NewSynthesizer builds a Synthesizer from cfg.
func NewSynthesizer(client Client, cfg *config.Config) *Synthesizer {
	return &Synthesizer{roleBase{
		client:       client,
		templatesDir: cfg.TemplatesDir,
		temperature:  cfg.LLM.Temperature.Generate,
		timeout:      cfg.LLMTimeout(),
	}}
}

// Generate returns fence-stripped construct body code for u.
func (s *Synthesizer) Generate(ctx context.Context, u document.Unit) (string, error) {
	out, err := s.call(ctx, prompt.GenerateSystem, prompt.Generate, prompt.Vars{
		"scene_name":  u.ID,
		"narrative":   u.Narrative,
		"instruction": u.Instruction,
		"duration":    strconv.FormatFloat(u.TargetDuration, 'f', 1, 64),
	}, false)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", u.Slug, err)
	}
	code := StripFences(out)
	if code == "" {
		return "", fmt.Errorf("generate %s: empty code", u.Slug)
	}
	return code, nil
}

// Validator judges whether code fulfils a unit's instruction.
type Validator struct{ roleBase }

// NewValidator builds a Validator from cfg.
func NewValidator(client Client, cfg *config.Config) *Validator {
	return &Validator{roleBase{
		client:       client,
		templatesDir: cfg.TemplatesDir,
		temperature:  cfg.LLM.Temperature.Validate,
		timeout:      cfg.LLMTimeout(),
	}}
}

// Validate returns the verdict for code. Call failures and malformed
// replies are returned as errors.
func (v *Validator) Validate(ctx context.Context, u document.Unit, code string) (Verdict, error) {
	out, err := v.call(ctx, prompt.ValidateSystem, prompt.Validate, prompt.Vars{
		"instruction": u.Instruction,
		"code":        code,
	}, true)
	if err != nil {
		return Verdict{}, fmt.Errorf("validate %s: %w", u.Slug, err)
	}
	verdict, err := ParseVerdict(out)
	if err != nil {
		return Verdict{}, fmt.Errorf("validate %s: %w", u.Slug, err)
	}
	return verdict, nil
}

// RepairRequest carries a failed render back to the repair oracle.
type RepairRequest struct {
	Code         string
	Diagnostics  string
	SyntaxReport string // optional
}

// Repairer proposes a fix for code that failed to render.
type Repairer struct{ roleBase }

// NewRepairer builds a Repairer from cfg.
func NewRepairer(client Client, cfg *config.Config) *Repairer {
	return &Repairer{roleBase{
		client:       client,
		templatesDir: cfg.TemplatesDir,
		temperature:  cfg.LLM.Temperature.Repair,
		timeout:      cfg.LLMTimeout(),
	}}
}

// Repair returns fence-stripped replacement code. The diagnostics are cut
// to their tail before being sent.
func (r *Repairer) Repair(ctx context.Context, req RepairRequest) (string, error) {
	vars := prompt.Vars{
		"code":        req.Code,
		"diagnostics": runner.Tail(req.Diagnostics, runner.MaxDiagnosticsLen),
	}
	if req.SyntaxReport != "" {
		vars["syntax_report"] = req.SyntaxReport
	}
	out, err := r.call(ctx, prompt.RepairSystem, prompt.Repair, vars, false)
	if err != nil {
		return "", fmt.Errorf("repair: %w", err)
	}
	code := StripFences(out)
	if code == "" {
		return "", fmt.Errorf("repair: empty code")
	}
	return code, nil
}
