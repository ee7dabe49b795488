package context

import (
	"context"
	"path/filepath"

	"github.com/randalmurphal/noteflow/artifact"
	"github.com/randalmurphal/noteflow/notify"
	"github.com/randalmurphal/noteflow/prompt"
	"github.com/randalmurphal/noteflow/transcript"
)

// Services wraps the ambient services for convenient initialization
type Services struct {
	Transcripts transcript.Manager
	Artifacts   *artifact.Manager
	Prompts     *prompt.Loader
	Notifier    notify.Notifier // Optional notification service
}

// InjectAll adds all configured services to the context
func (s *Services) InjectAll(ctx context.Context) context.Context {
	if s.Transcripts != nil {
		ctx = WithTranscript(ctx, s.Transcripts)
	}
	if s.Artifacts != nil {
		ctx = WithArtifact(ctx, s.Artifacts)
	}
	if s.Prompts != nil {
		ctx = WithPrompt(ctx, s.Prompts)
	}
	if s.Notifier != nil {
		ctx = notify.WithNotifier(ctx, s.Notifier)
	}
	return ctx
}

// Config configures NewServices
type Config struct {
	ProjectDir    string // Directory searched for prompt overrides (default: ".")
	TranscriptDir string // default: ".noteflow/transcripts"
	ArtifactDir   string // default: ".noteflow/artifacts"
}

// NewServices creates Services with common defaults
func NewServices(cfg Config) (*Services, error) {
	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}
	if cfg.TranscriptDir == "" {
		cfg.TranscriptDir = filepath.Join(".noteflow", "transcripts")
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = filepath.Join(".noteflow", "artifacts")
	}

	transcripts, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: cfg.TranscriptDir})
	if err != nil {
		return nil, err
	}

	return &Services{
		Transcripts: transcripts,
		Artifacts:   artifact.NewManager(artifact.Config{BaseDir: cfg.ArtifactDir}),
		Prompts:     prompt.NewLoader(cfg.ProjectDir),
	}, nil
}
