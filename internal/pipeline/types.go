package pipeline

// Run statuses.
const (
	StatusInProgress  = "in_progress"
	StatusCompleted   = "completed"    // final artifact produced
	StatusNoArtifacts = "no_artifacts" // every unit failed; not an error
	StatusFailed      = "failed"       // aggregation failed or the run was interrupted
)

// RunState is the persisted summary of one document run (run.json).
type RunState struct {
	RunID            string        `json:"run_id"`
	Document         string        `json:"document"`
	Status           string        `json:"status"`
	Units            []UnitSummary `json:"units"`
	Artifacts        []string      `json:"artifacts"`
	FinalPath        string        `json:"final_path,omitempty"`
	AggregationError string        `json:"aggregation_error,omitempty"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
}

// UnitSummary records how one unit finished.
type UnitSummary struct {
	ID                 string `json:"id"`
	Slug               string `json:"slug"`
	State              string `json:"state"`
	ArtifactPath       string `json:"artifact_path,omitempty"`
	Resolved           bool   `json:"resolved"`
	RenderAttempts     int    `json:"render_attempts"`
	RepairRounds       int    `json:"repair_rounds"`
	Regenerated        bool   `json:"regenerated"`
	ValidationBypassed bool   `json:"validation_bypassed"`
	Error              string `json:"error,omitempty"`
	Duration           string `json:"duration"`
}
