package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Store manages run state on disk:
//
//	<base>/<run-id>/run.json
//	<base>/<run-id>/units/<slug>/attempt-<n>-<provenance>.py
//	<base>/<run-id>/units/<slug>/render-<n>.log
//	<base>/<run-id>/units/<slug>/result.json
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// StoreForMedia returns the Store kept under a media directory.
func StoreForMedia(mediaDir string) *Store {
	return NewStore(filepath.Join(mediaDir, "runs"))
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

func (s *Store) runPath(runID string) string {
	return filepath.Join(s.runDir(runID), "run.json")
}

// UnitDir returns the directory holding a unit's attempt files.
func (s *Store) UnitDir(runID, slug string) string {
	return filepath.Join(s.runDir(runID), "units", slug)
}

// Create initialises a new run on disk.
func (s *Store) Create(runID, document string) (*RunState, error) {
	dir := s.runDir(runID)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("run %s already exists", runID)
	}
	if err := os.MkdirAll(filepath.Join(dir, "units"), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir units: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rs := &RunState{
		RunID:     runID,
		Document:  document,
		Status:    StatusInProgress,
		Units:     []UnitSummary{},
		Artifacts: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := WriteJSON(s.runPath(runID), rs); err != nil {
		return nil, fmt.Errorf("write run.json: %w", err)
	}
	return rs, nil
}

// Get reads the state of a run.
func (s *Store) Get(runID string) (*RunState, error) {
	var rs RunState
	if err := ReadJSON(s.runPath(runID), &rs); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, err
	}
	return &rs, nil
}

// Update performs a read-modify-write of a run's state.
func (s *Store) Update(runID string, fn func(*RunState)) error {
	rs, err := s.Get(runID)
	if err != nil {
		return err
	}
	fn(rs)
	rs.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return WriteJSON(s.runPath(runID), rs)
}

// List returns every run, oldest first. Pass "" for statusFilter to return
// all runs.
func (s *Store) List(statusFilter string) ([]RunState, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}

	var runs []RunState
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rs, err := s.Get(entry.Name())
		if err != nil {
			continue // skip broken entries
		}
		if statusFilter == "" || rs.Status == statusFilter {
			runs = append(runs, *rs)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt != runs[j].CreatedAt {
			return runs[i].CreatedAt < runs[j].CreatedAt
		}
		return runs[i].RunID < runs[j].RunID
	})
	return runs, nil
}

// SaveAttempt writes one code candidate.
func (s *Store) SaveAttempt(runID, slug string, index int, provenance, code string) (string, error) {
	path := filepath.Join(s.UnitDir(runID, slug), fmt.Sprintf("attempt-%d-%s.py", index, provenance))
	if err := WriteAtomic(path, []byte(code)); err != nil {
		return "", err
	}
	return path, nil
}

// SaveRenderLog writes the engine output of one render attempt.
func (s *Store) SaveRenderLog(runID, slug string, attempt int, output string) (string, error) {
	path := filepath.Join(s.UnitDir(runID, slug), fmt.Sprintf("render-%d.log", attempt))
	if err := WriteAtomic(path, []byte(output)); err != nil {
		return "", err
	}
	return path, nil
}

// SaveUnitResult writes a unit's full result as result.json.
func (s *Store) SaveUnitResult(runID, slug string, v any) error {
	return WriteJSON(filepath.Join(s.UnitDir(runID, slug), "result.json"), v)
}

// AttemptFiles lists a unit's attempt files in write order.
func (s *Store) AttemptFiles(runID, slug string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.UnitDir(runID, slug), "attempt-*.py"))
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		return attemptIndex(matches[i]) < attemptIndex(matches[j])
	})
	return matches, nil
}

func attemptIndex(path string) int {
	var n int
	fmt.Sscanf(filepath.Base(path), "attempt-%d-", &n)
	return n
}
