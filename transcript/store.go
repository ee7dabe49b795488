package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileStore stores transcripts as files under <BaseDir>/runs/<runID>.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
	active  map[string]*Transcript
}

// StoreConfig holds configuration for transcript storage
type StoreConfig struct {
	BaseDir string
}

// NewFileStore creates a file-based transcript store
func NewFileStore(config StoreConfig) (*FileStore, error) {
	runsDir := filepath.Join(config.BaseDir, "runs")
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}

	return &FileStore{
		baseDir: config.BaseDir,
		active:  make(map[string]*Transcript),
	}, nil
}

// StartRun begins a new transcript
func (s *FileStore) StartRun(runID string, meta RunMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.active[runID]; exists {
		return ErrRunAlreadyExists
	}

	runDir := filepath.Join(s.baseDir, "runs", runID)
	if _, err := os.Stat(runDir); err == nil {
		return ErrRunAlreadyExists
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	t := NewTranscript(runID, meta.ArticleID)
	t.Metadata.Phase = meta.Phase

	if err := s.writeMetadata(runID, &t.Metadata); err != nil {
		return err
	}

	s.active[runID] = t
	return nil
}

// RecordTurn adds a turn to an active transcript
func (s *FileStore) RecordTurn(runID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.active[runID]
	if !ok {
		return ErrRunNotStarted
	}
	t.AddTurn(turn)
	return nil
}

// EndRun completes a transcript
func (s *FileStore) EndRun(runID string, status RunStatus) error {
	return s.finish(runID, func(t *Transcript) {
		t.Metadata.Status = status
		t.Metadata.EndedAt = time.Now()
	})
}

// EndRunWithError completes a transcript with an error
func (s *FileStore) EndRunWithError(runID string, err error) error {
	return s.finish(runID, func(t *Transcript) { t.Fail(err) })
}

func (s *FileStore) finish(runID string, mark func(*Transcript)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.active[runID]
	if !ok {
		return ErrRunNotStarted
	}
	mark(t)

	if err := t.Save(s.baseDir); err != nil {
		return err
	}
	if err := s.writeMetadata(runID, &t.Metadata); err != nil {
		return err
	}

	delete(s.active, runID)
	return nil
}

// Load retrieves a complete transcript
func (s *FileStore) Load(runID string) (*Transcript, error) {
	s.mu.RLock()
	if active, ok := s.active[runID]; ok {
		// Copy through JSON so callers cannot race with RecordTurn.
		data, err := json.Marshal(active)
		s.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		var t Transcript
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return &t, nil
	}
	s.mu.RUnlock()

	return Load(s.baseDir, runID)
}

// LoadMetadata retrieves just the metadata
func (s *FileStore) LoadMetadata(runID string) (*Meta, error) {
	s.mu.RLock()
	if active, ok := s.active[runID]; ok {
		meta := active.Metadata
		s.mu.RUnlock()
		return &meta, nil
	}
	s.mu.RUnlock()

	path := filepath.Join(s.baseDir, "runs", runID, "metadata.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// List returns metadata for runs matching filter, newest first.
func (s *FileStore) List(filter ListFilter) ([]Meta, error) {
	runsDir := filepath.Join(s.baseDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var results []Meta

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.LoadMetadata(entry.Name())
		if err != nil {
			slog.Debug("skipping transcript with unreadable metadata",
				slog.String("run_id", entry.Name()),
				slog.String("error", err.Error()))
			continue
		}

		if filter.match(meta) {
			results = append(results, *meta)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})

	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}

	return results, nil
}

// Delete removes a run
func (s *FileStore) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, runID)

	runDir := filepath.Join(s.baseDir, "runs", runID)
	if err := os.RemoveAll(runDir); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// DeleteArticle removes every finished run recorded for articleID and
// returns how many were removed. Runs still in progress are kept.
func (s *FileStore) DeleteArticle(articleID string) (int, error) {
	metas, err := s.List(ListFilter{ArticleID: articleID})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range metas {
		if m.Status == RunStatusRunning {
			continue
		}
		if err := s.Delete(m.RunID); err != nil {
			return n, fmt.Errorf("delete run %s: %w", m.RunID, err)
		}
		n++
	}
	return n, nil
}

func (s *FileStore) writeMetadata(runID string, meta *Meta) error {
	path := filepath.Join(s.baseDir, "runs", runID, "metadata.json")
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Statistics holds aggregated run statistics
type Statistics struct {
	TotalRuns      int
	CompletedRuns  int
	FailedRuns     int
	CanceledRuns   int
	ActiveRuns     int
	TotalTokensIn  int
	TotalTokensOut int
	AvgTokensIn    int
	AvgTokensOut   int
}

// Stats aggregates the runs matching filter.
func Stats(m Manager, filter ListFilter) (*Statistics, error) {
	runs, err := m.List(filter)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{}
	for _, run := range runs {
		stats.TotalRuns++
		stats.TotalTokensIn += run.TotalTokensIn
		stats.TotalTokensOut += run.TotalTokensOut

		switch run.Status {
		case RunStatusCompleted:
			stats.CompletedRuns++
		case RunStatusFailed:
			stats.FailedRuns++
		case RunStatusCanceled:
			stats.CanceledRuns++
		case RunStatusRunning:
			stats.ActiveRuns++
		}
	}

	if stats.TotalRuns > 0 {
		stats.AvgTokensIn = stats.TotalTokensIn / stats.TotalRuns
		stats.AvgTokensOut = stats.TotalTokensOut / stats.TotalRuns
	}

	return stats, nil
}
