// Package analytics summarizes the run ledger: how often each scene renders,
// how many attempts and repairs it takes, and how long renders run.
package analytics

import (
	"math"
	"sort"

	"github.com/lucasnoah/manimator/internal/db"
)

// Ledger is the subset of the ledger analytics reads.
type Ledger interface {
	ListRuns(limit int) ([]db.Run, error)
	AllRenderAttempts() ([]db.RenderAttempt, error)
	TerminalStates() (map[string]map[string]string, error)
}

// UnitStats aggregates every recorded run of one scene slug.
type UnitStats struct {
	Slug              string  `json:"slug"`
	Runs              int     `json:"runs"`
	Rendered          int     `json:"rendered"`
	SuccessRate       float64 `json:"success_rate_pct"`
	AvgRenderAttempts float64 `json:"avg_render_attempts"`
	AvgRepairRounds   float64 `json:"avg_repair_rounds"`
	AvgRenderSeconds  float64 `json:"avg_render_seconds"`
	P95RenderSeconds  float64 `json:"p95_render_seconds"`
}

// RunTotals counts runs by status.
type RunTotals struct {
	Total       int `json:"total"`
	Completed   int `json:"completed"`
	NoArtifacts int `json:"no_artifacts"`
	Failed      int `json:"failed"`
	InProgress  int `json:"in_progress"`
}

// QueryUnitStats returns per-slug statistics, sorted by slug. Only runs
// started at or after since (RFC 3339) are counted; pass "" for all.
func QueryUnitStats(ledger Ledger, since string) ([]UnitStats, error) {
	runs, err := ledger.ListRuns(0)
	if err != nil {
		return nil, err
	}
	included := make(map[string]bool, len(runs))
	for _, r := range runs {
		if since == "" || r.StartedAt >= since {
			included[r.ID] = true
		}
	}

	attempts, err := ledger.AllRenderAttempts()
	if err != nil {
		return nil, err
	}
	terminal, err := ledger.TerminalStates()
	if err != nil {
		return nil, err
	}

	type unitRun struct{ run, slug string }
	perUnitRun := make(map[unitRun]int)
	durations := make(map[string][]float64)
	for _, a := range attempts {
		if !included[a.RunID] {
			continue
		}
		perUnitRun[unitRun{a.RunID, a.Slug}]++
		durations[a.Slug] = append(durations[a.Slug], float64(a.DurationMs)/1000)
	}

	type acc struct {
		runs, rendered int
		attempts       []float64
		repairs        []float64
	}
	bySlug := make(map[string]*acc)
	get := func(slug string) *acc {
		if bySlug[slug] == nil {
			bySlug[slug] = &acc{}
		}
		return bySlug[slug]
	}

	for runID, units := range terminal {
		if !included[runID] {
			continue
		}
		for slug, state := range units {
			a := get(slug)
			a.runs++
			if state == "rendered" {
				a.rendered++
			}
			n := perUnitRun[unitRun{runID, slug}]
			a.attempts = append(a.attempts, float64(n))
			a.repairs = append(a.repairs, float64(max(n-1, 0)))
		}
	}

	var results []UnitStats
	for slug, a := range bySlug {
		d := durations[slug]
		sort.Float64s(d)
		results = append(results, UnitStats{
			Slug:              slug,
			Runs:              a.runs,
			Rendered:          a.rendered,
			SuccessRate:       pct(a.rendered, a.runs),
			AvgRenderAttempts: avg(a.attempts),
			AvgRepairRounds:   avg(a.repairs),
			AvgRenderSeconds:  avg(d),
			P95RenderSeconds:  percentile(d, 95),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Slug < results[j].Slug
	})
	return results, nil
}

// QueryRunTotals counts runs by status.
func QueryRunTotals(ledger Ledger, since string) (RunTotals, error) {
	runs, err := ledger.ListRuns(0)
	if err != nil {
		return RunTotals{}, err
	}
	var t RunTotals
	for _, r := range runs {
		if since != "" && r.StartedAt < since {
			continue
		}
		t.Total++
		switch r.Status {
		case "completed":
			t.Completed++
		case "no_artifacts":
			t.NoArtifacts++
		case "failed":
			t.Failed++
		default:
			t.InProgress++
		}
	}
	return t, nil
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
