package stage

import (
	"time"

	"github.com/lucasnoah/manimator/internal/document"
)

// State is a unit's position in the pipeline.
type State int

const (
	Generated State = iota
	Normalized
	Validated
	Rejected
	Regenerated
	RenderAttempt
	RepairAttempt
	Rendered
	Exhausted
	GenerationFailed
)

var stateNames = [...]string{
	Generated:        "generated",
	Normalized:       "normalized",
	Validated:        "validated",
	Rejected:         "rejected",
	Regenerated:      "regenerated",
	RenderAttempt:    "render_attempt",
	RepairAttempt:    "repair_attempt",
	Rendered:         "rendered",
	Exhausted:        "exhausted",
	GenerationFailed: "generation_failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == Rendered || s == Exhausted || s == GenerationFailed
}

// Provenance records which oracle produced an Attempt.
type Provenance string

const (
	ProvenanceInitial     Provenance = "initial"
	ProvenanceRegenerated Provenance = "feedback-regenerated"
	ProvenanceRepaired    Provenance = "repaired"
)

// Attempt is one code candidate. Attempts are never mutated; a later
// candidate supersedes an earlier one.
type Attempt struct {
	Index      int        `json:"index"`
	Provenance Provenance `json:"provenance"`
	Code       string     `json:"code"`
}

// Transition is one entry in a unit's state trail.
type Transition struct {
	State   State     `json:"-"`
	Name    string    `json:"state"`
	Attempt int       `json:"attempt"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Result is the outcome of driving one unit through the pipeline.
type Result struct {
	Unit               document.Unit `json:"unit"`
	State              State         `json:"-"`
	StateName          string        `json:"state"`
	ArtifactPath       string        `json:"artifact_path,omitempty"`
	Resolved           bool          `json:"resolved"`
	Attempts           []Attempt     `json:"attempts"`
	RenderAttempts     int           `json:"render_attempts"`
	RepairRounds       int           `json:"repair_rounds"`
	Regenerated        bool          `json:"regenerated"`
	ValidationBypassed bool          `json:"validation_bypassed"`
	LastDiagnostics    string        `json:"last_diagnostics,omitempty"`
	Error              string        `json:"error,omitempty"`
	Transitions        []Transition  `json:"transitions"`
	Duration           time.Duration `json:"duration"`
}

// Succeeded reports whether the unit produced an artifact usable for
// aggregation.
func (r *Result) Succeeded() bool {
	return r.State == Rendered && r.Resolved
}

// CurrentCode returns the most recent candidate, or "".
func (r *Result) CurrentCode() string {
	if len(r.Attempts) == 0 {
		return ""
	}
	return r.Attempts[len(r.Attempts)-1].Code
}
