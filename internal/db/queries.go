package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Run represents a row in the runs table.
type Run struct {
	ID         string
	Document   string
	Status     string
	Units      int
	Artifacts  int
	FinalPath  string
	Error      string
	StartedAt  string
	FinishedAt string
}

// UnitEvent represents a row in the unit_events table.
type UnitEvent struct {
	ID        int64
	RunID     string
	UnitID    string
	Slug      string
	Event     string
	Attempt   int
	Detail    string
	Timestamp string
}

// RenderAttempt represents a row in the render_attempts table.
type RenderAttempt struct {
	ID           int64
	RunID        string
	UnitID       string
	Slug         string
	Attempt      int
	Provenance   string
	Succeeded    bool
	Resolved     bool
	ExitCode     int
	TimedOut     bool
	DurationMs   int64
	ArtifactPath string
	Timestamp    string
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// StartRun inserts a run in the in_progress state.
func (d *DB) StartRun(id, document string, units int) error {
	_, err := d.exec(
		`INSERT INTO runs (id, document, status, units, started_at) VALUES (?, ?, 'in_progress', ?, ?)`,
		id, document, units, now(),
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun records a run's terminal status.
func (d *DB) FinishRun(id, status string, artifacts int, finalPath, errMsg string) error {
	res, err := d.exec(
		`UPDATE runs SET status = ?, artifacts = ?, final_path = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, artifacts, nullString(finalPath), nullString(errMsg), now(), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun returns a run by ID, or nil if it does not exist.
func (d *DB) GetRun(id string) (*Run, error) {
	row := d.queryRow(
		`SELECT id, document, status, units, artifacts, final_path, error, started_at, finished_at
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means no
// limit.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	q := `SELECT id, document, status, units, artifacts, final_path, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := d.query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var finalPath, errMsg, finishedAt sql.NullString
	if err := s.Scan(&r.ID, &r.Document, &r.Status, &r.Units, &r.Artifacts, &finalPath, &errMsg, &r.StartedAt, &finishedAt); err != nil {
		return nil, err
	}
	r.FinalPath = finalPath.String
	r.Error = errMsg.String
	r.FinishedAt = finishedAt.String
	return &r, nil
}

// LogUnitEvent inserts a unit transition or observation.
func (d *DB) LogUnitEvent(runID, unitID, slug, event string, attempt int, detail string) error {
	_, err := d.exec(
		`INSERT INTO unit_events (run_id, unit_id, slug, event, attempt, detail, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, unitID, slug, event, attempt, nullString(detail), now(),
	)
	if err != nil {
		return fmt.Errorf("log unit event: %w", err)
	}
	return nil
}

// GetUnitEvents returns a run's events in insertion order.
func (d *DB) GetUnitEvents(runID string) ([]UnitEvent, error) {
	rows, err := d.query(
		`SELECT id, run_id, unit_id, slug, event, attempt, detail, timestamp
		 FROM unit_events WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("get unit events: %w", err)
	}
	defer rows.Close()

	var events []UnitEvent
	for rows.Next() {
		var e UnitEvent
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.UnitID, &e.Slug, &e.Event, &e.Attempt, &detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan unit event: %w", err)
		}
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// LogRenderAttempt inserts one render invocation.
func (d *DB) LogRenderAttempt(a RenderAttempt) error {
	_, err := d.exec(
		`INSERT INTO render_attempts (run_id, unit_id, slug, attempt, provenance, succeeded, resolved, exit_code, timed_out, duration_ms, artifact_path, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.UnitID, a.Slug, a.Attempt, a.Provenance, a.Succeeded, a.Resolved, a.ExitCode, a.TimedOut, a.DurationMs, nullString(a.ArtifactPath), now(),
	)
	if err != nil {
		return fmt.Errorf("log render attempt: %w", err)
	}
	return nil
}

// GetRenderAttempts returns a run's render attempts in insertion order.
func (d *DB) GetRenderAttempts(runID string) ([]RenderAttempt, error) {
	return d.renderAttempts(
		`SELECT id, run_id, unit_id, slug, attempt, provenance, succeeded, resolved, exit_code, timed_out, duration_ms, artifact_path, timestamp
		 FROM render_attempts WHERE run_id = ? ORDER BY id ASC`, runID)
}

// AllRenderAttempts returns every recorded render attempt, oldest first.
func (d *DB) AllRenderAttempts() ([]RenderAttempt, error) {
	return d.renderAttempts(
		`SELECT id, run_id, unit_id, slug, attempt, provenance, succeeded, resolved, exit_code, timed_out, duration_ms, artifact_path, timestamp
		 FROM render_attempts ORDER BY id ASC`)
}

func (d *DB) renderAttempts(q string, args ...any) ([]RenderAttempt, error) {
	rows, err := d.query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("get render attempts: %w", err)
	}
	defer rows.Close()

	var out []RenderAttempt
	for rows.Next() {
		var a RenderAttempt
		var path sql.NullString
		if err := rows.Scan(&a.ID, &a.RunID, &a.UnitID, &a.Slug, &a.Attempt, &a.Provenance, &a.Succeeded, &a.Resolved, &a.ExitCode, &a.TimedOut, &a.DurationMs, &path, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan render attempt: %w", err)
		}
		a.ArtifactPath = path.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// TerminalStates returns the final state event for each unit of every run,
// keyed by run ID then slug. Only terminal events are considered.
func (d *DB) TerminalStates() (map[string]map[string]string, error) {
	rows, err := d.query(
		`SELECT run_id, slug, event FROM unit_events
		 WHERE event IN ('rendered', 'exhausted', 'generation_failed')
		 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("terminal states: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]string)
	for rows.Next() {
		var runID, slug, event string
		if err := rows.Scan(&runID, &slug, &event); err != nil {
			return nil, fmt.Errorf("scan terminal state: %w", err)
		}
		if out[runID] == nil {
			out[runID] = make(map[string]string)
		}
		out[runID][slug] = event
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
