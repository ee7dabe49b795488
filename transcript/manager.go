package transcript

import "time"

// Manager is the interface for transcript operations
type Manager interface {
	// Lifecycle
	StartRun(runID string, metadata RunMetadata) error
	RecordTurn(runID string, turn Turn) error
	EndRun(runID string, status RunStatus) error
	EndRunWithError(runID string, err error) error

	// Retrieval
	Load(runID string) (*Transcript, error)
	LoadMetadata(runID string) (*Meta, error)
	List(filter ListFilter) ([]Meta, error)

	// Maintenance
	Delete(runID string) error
}

// ListFilter filters transcript listing
type ListFilter struct {
	ArticleID string
	Phase     string
	Status    RunStatus
	After     time.Time
	Before    time.Time
	Limit     int
}

func (f ListFilter) match(m *Meta) bool {
	if f.ArticleID != "" && m.ArticleID != f.ArticleID {
		return false
	}
	if f.Phase != "" && m.Phase != f.Phase {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if !f.After.IsZero() && m.StartedAt.Before(f.After) {
		return false
	}
	if !f.Before.IsZero() && m.StartedAt.After(f.Before) {
		return false
	}
	return true
}

// Exchange is one prompt and its completion.
type Exchange struct {
	Task      string
	Model     string
	System    string
	Prompt    string
	Response  string
	TokensIn  int
	TokensOut int
	Elapsed   time.Duration
}

// RecordExchange writes an exchange as user and assistant turns, with a
// leading system turn when a system prompt was sent.
func RecordExchange(m Manager, runID string, ex Exchange) error {
	now := time.Now()
	if ex.System != "" {
		if err := m.RecordTurn(runID, Turn{Role: RoleSystem, Task: ex.Task, Content: ex.System, Timestamp: now}); err != nil {
			return err
		}
	}
	if err := m.RecordTurn(runID, Turn{
		Role:      RoleUser,
		Task:      ex.Task,
		Model:     ex.Model,
		Content:   ex.Prompt,
		TokensIn:  ex.TokensIn,
		Timestamp: now,
	}); err != nil {
		return err
	}
	return m.RecordTurn(runID, Turn{
		Role:       RoleAssistant,
		Task:       ex.Task,
		Model:      ex.Model,
		Content:    ex.Response,
		TokensOut:  ex.TokensOut,
		Timestamp:  now.Add(ex.Elapsed),
		DurationMs: ex.Elapsed.Milliseconds(),
	})
}
