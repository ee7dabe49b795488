package transcript

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Transcript errors
var (
	ErrRunNotFound      = errors.New("run not found")
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrRunNotStarted    = errors.New("run not started")
)

// RunStatus indicates the status of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// Roles recorded in a transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Transcript is the record of every generator exchange made while one
// stage of one article ran.
type Transcript struct {
	RunID    string `json:"runId"`
	Metadata Meta   `json:"metadata"`
	Turns    []Turn `json:"turns"`
}

// Meta contains run metadata
type Meta struct {
	RunID          string    `json:"runId,omitempty"`
	ArticleID      string    `json:"articleId"`
	Phase          string    `json:"phase,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	EndedAt        time.Time `json:"endedAt,omitempty"`
	Status         RunStatus `json:"status"`
	TotalTokensIn  int       `json:"totalTokensIn"`
	TotalTokensOut int       `json:"totalTokensOut"`
	TurnCount      int       `json:"turnCount"`
	Error          string    `json:"error,omitempty"`
}

// Turn is a single message of an exchange.
type Turn struct {
	ID         int       `json:"id"`
	Role       string    `json:"role"`
	Task       string    `json:"task,omitempty"` // generation role: draft, revise, score, outline
	Model      string    `json:"model,omitempty"`
	Content    string    `json:"content"`
	TokensIn   int       `json:"tokensIn,omitempty"`
	TokensOut  int       `json:"tokensOut,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"durationMs,omitempty"`
}

// RunMetadata is input for starting a new run
type RunMetadata struct {
	ArticleID string
	Phase     string
}

// NewTranscript creates a new transcript
func NewTranscript(runID, articleID string) *Transcript {
	return &Transcript{
		RunID: runID,
		Metadata: Meta{
			RunID:     runID,
			ArticleID: articleID,
			StartedAt: time.Now(),
			Status:    RunStatusRunning,
		},
		Turns: make([]Turn, 0),
	}
}

// AddTurn appends a turn, numbering it and updating token totals.
func (t *Transcript) AddTurn(turn Turn) *Turn {
	turn.ID = len(t.Turns) + 1
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	switch turn.Role {
	case RoleUser, RoleSystem:
		t.Metadata.TotalTokensIn += turn.TokensIn
	case RoleAssistant:
		t.Metadata.TotalTokensOut += turn.TokensOut
	}

	t.Turns = append(t.Turns, turn)
	t.Metadata.TurnCount = len(t.Turns)
	return &t.Turns[len(t.Turns)-1]
}

// Complete marks the transcript as completed
func (t *Transcript) Complete() {
	t.Metadata.Status = RunStatusCompleted
	t.Metadata.EndedAt = time.Now()
}

// Fail marks the transcript as failed
func (t *Transcript) Fail(err error) {
	t.Metadata.Status = RunStatusFailed
	t.Metadata.EndedAt = time.Now()
	if err != nil {
		t.Metadata.Error = err.Error()
	}
}

// Duration returns the run duration
func (t *Transcript) Duration() time.Duration {
	if t.Metadata.EndedAt.IsZero() {
		return time.Since(t.Metadata.StartedAt)
	}
	return t.Metadata.EndedAt.Sub(t.Metadata.StartedAt)
}

// IsActive returns true if the run is still in progress
func (t *Transcript) IsActive() bool {
	return t.Metadata.Status == RunStatusRunning
}

// TurnsByRole returns all turns with the given role
func (t *Transcript) TurnsByRole(role string) []Turn {
	var result []Turn
	for _, turn := range t.Turns {
		if turn.Role == role {
			result = append(result, turn)
		}
	}
	return result
}

// compressionThreshold is the size above which transcripts are compressed
const compressionThreshold = 100 * 1024

// Save writes the transcript to disk
func (t *Transcript) Save(baseDir string) error {
	runDir := filepath.Join(baseDir, "runs", t.RunID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}

	if len(data) > compressionThreshold {
		return saveCompressed(runDir, data)
	}

	os.Remove(filepath.Join(runDir, "transcript.json.gz"))

	return os.WriteFile(filepath.Join(runDir, "transcript.json"), data, 0644)
}

func saveCompressed(runDir string, data []byte) error {
	os.Remove(filepath.Join(runDir, "transcript.json"))

	f, err := os.Create(filepath.Join(runDir, "transcript.json.gz"))
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// Load loads a transcript from disk
func Load(baseDir, runID string) (*Transcript, error) {
	runDir := filepath.Join(baseDir, "runs", runID)

	data, err := loadCompressed(filepath.Join(runDir, "transcript.json.gz"))
	if err != nil {
		data, err = os.ReadFile(filepath.Join(runDir, "transcript.json"))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ErrRunNotFound
			}
			return nil, err
		}
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

func loadCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}
