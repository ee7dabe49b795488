package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/search"
)

// Keys.
const (
	KeyDBPath              = "db_path"
	KeyArtifactDir         = "artifact_dir"
	KeyTranscriptDir       = "transcript_dir"
	KeyLLMBackend          = "llm_backend"
	KeyOpenAIAPIKey        = "openai_api_key"
	KeyOpenAIBaseURL       = "openai_base_url"
	KeyModel               = "model"
	KeyTavilyAPIKey        = "tavily_api_key"
	KeyTavilyProfile       = "tavily_profile"
	KeyChromaURL           = "chroma_url"
	KeyStageTimeout        = "stage_timeout"
	KeyMaxReviewIterations = "max_review_iterations"
	KeyPassThreshold       = "pass_threshold"
	KeyLogLevel            = "log_level"
	KeyWebhookURL          = "webhook_url"
	KeyWebhookSecret       = "webhook_secret"
	KeySlackWebhookURL     = "slack_webhook_url"
	KeyPublishEditorURL    = "publish_editor_url"
	KeyPublishHeadless     = "publish_headless"
	KeyAutoConfirm         = "auto_confirm"
	KeyArtifactRetention   = "artifact_retention"
)

// LLM backends.
const (
	BackendClaude = "claude"
	BackendOpenAI = "openai"
)

const (
	EnvPrefix       = "NOTEFLOW_"
	GlobalDir       = "noteflow"
	LocalConfigName = ".noteflow.yaml"
)

// Defaults returns the built-in value of every key.
func Defaults() map[string]string {
	return map[string]string{
		KeyDBPath:              "noteflow.db",
		KeyArtifactDir:         ".noteflow/artifacts",
		KeyTranscriptDir:       ".noteflow/transcripts",
		KeyLLMBackend:          BackendClaude,
		KeyOpenAIAPIKey:        "",
		KeyOpenAIBaseURL:       "",
		KeyModel:               "",
		KeyTavilyAPIKey:        "",
		KeyTavilyProfile:       search.ProfileBalanced,
		KeyChromaURL:           "",
		KeyStageTimeout:        "300s",
		KeyMaxReviewIterations: strconv.Itoa(article.MaxRetries),
		KeyPassThreshold:       strconv.Itoa(article.PassThreshold),
		KeyLogLevel:            "info",
		KeyWebhookURL:          "",
		KeyWebhookSecret:       "",
		KeySlackWebhookURL:     "",
		KeyPublishEditorURL:    "",
		KeyPublishHeadless:     "true",
		KeyAutoConfirm:         "false",
		KeyArtifactRetention:   "720h",
	}
}

// Keys returns every known key, sorted.
func Keys() []string {
	r := &Resolved{values: Defaults()}
	return r.Keys()
}

// secretKeys are masked by Mask.
var secretKeys = map[string]bool{
	KeyOpenAIAPIKey:  true,
	KeyTavilyAPIKey:  true,
	KeyWebhookSecret: true,
}

// Mask hides all but the last four characters of secret values.
func Mask(key, value string) string {
	if !secretKeys[key] || value == "" {
		return value
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

// NewNoteflowResolver returns the resolver for NOTEFLOW_ env vars,
// ~/.config/noteflow/config.yaml and .noteflow.yaml.
func NewNoteflowResolver() *Resolver {
	return NewResolver(noteflowConfig())
}

// NewNoteflowResolverWithPaths is NewNoteflowResolver over explicit files.
func NewNoteflowResolverWithPaths(globalPath, localPath string) *Resolver {
	return NewResolverWithPaths(noteflowConfig(), globalPath, localPath)
}

func noteflowConfig() ResolverConfig {
	return ResolverConfig{
		EnvPrefix:       EnvPrefix,
		GlobalConfigDir: GlobalDir,
		LocalConfigName: LocalConfigName,
		Defaults:        Defaults(),
		ValidKeys:       Keys(),
	}
}

// Settings is the typed configuration.
type Settings struct {
	DBPath        string
	ArtifactDir   string
	TranscriptDir string

	LLMBackend    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string

	TavilyAPIKey  string
	TavilyProfile string
	ChromaURL     string

	StageTimeout        time.Duration
	MaxReviewIterations int
	PassThreshold       int
	AutoConfirm         bool

	LogLevel slog.Level

	WebhookURL      string
	WebhookSecret   string
	SlackWebhookURL string

	PublishEditorURL string
	PublishHeadless  bool

	ArtifactRetention time.Duration
}

// LoadSettings converts resolved values into Settings. Malformed values are
// errors. The review limits are fixed; overriding them only produces a
// warning.
func LoadSettings(r *Resolved) (*Settings, []string, error) {
	var warnings []string
	p := parser{r: r}

	s := &Settings{
		DBPath:           p.str(KeyDBPath),
		ArtifactDir:      p.str(KeyArtifactDir),
		TranscriptDir:    p.str(KeyTranscriptDir),
		LLMBackend:       strings.ToLower(p.str(KeyLLMBackend)),
		OpenAIAPIKey:     p.str(KeyOpenAIAPIKey),
		OpenAIBaseURL:    p.str(KeyOpenAIBaseURL),
		Model:            p.str(KeyModel),
		TavilyAPIKey:     p.str(KeyTavilyAPIKey),
		TavilyProfile:    strings.ToLower(p.str(KeyTavilyProfile)),
		ChromaURL:        p.str(KeyChromaURL),
		WebhookURL:       p.str(KeyWebhookURL),
		WebhookSecret:    p.str(KeyWebhookSecret),
		SlackWebhookURL:  p.str(KeySlackWebhookURL),
		PublishEditorURL: p.str(KeyPublishEditorURL),

		StageTimeout:      p.duration(KeyStageTimeout),
		ArtifactRetention: p.duration(KeyArtifactRetention),
		PublishHeadless:   p.boolean(KeyPublishHeadless),
		AutoConfirm:       p.boolean(KeyAutoConfirm),

		// Fixed.
		MaxReviewIterations: article.MaxRetries,
		PassThreshold:       article.PassThreshold,
	}
	s.LogLevel = p.level(KeyLogLevel)

	if n := p.integer(KeyMaxReviewIterations); p.err == nil && n != article.MaxRetries {
		warnings = append(warnings, fmt.Sprintf("%s=%d ignored: review retries are fixed at %d",
			KeyMaxReviewIterations, n, article.MaxRetries))
	}
	if n := p.integer(KeyPassThreshold); p.err == nil && n != article.PassThreshold {
		warnings = append(warnings, fmt.Sprintf("%s=%d ignored: the pass threshold is fixed at %d",
			KeyPassThreshold, n, article.PassThreshold))
	}
	if p.err != nil {
		return nil, warnings, p.err
	}

	switch s.LLMBackend {
	case BackendClaude:
	case BackendOpenAI:
		if s.OpenAIAPIKey == "" {
			return nil, warnings, nferrors.Validation(KeyOpenAIAPIKey, "required when %s=%s", KeyLLMBackend, BackendOpenAI)
		}
	default:
		return nil, warnings, nferrors.Validation(KeyLLMBackend, "must be %s or %s, got %q", BackendClaude, BackendOpenAI, s.LLMBackend)
	}
	if _, err := search.LookupProfile(s.TavilyProfile); err != nil {
		return nil, warnings, nferrors.Validation(KeyTavilyProfile, "%v", err)
	}
	if s.StageTimeout <= 0 {
		return nil, warnings, nferrors.Validation(KeyStageTimeout, "must be positive")
	}
	if s.DBPath == "" {
		return nil, warnings, nferrors.Validation(KeyDBPath, "required")
	}
	return s, warnings, nil
}

// parser keeps the first conversion error.
type parser struct {
	r   *Resolved
	err error
}

func (p *parser) str(key string) string {
	return strings.TrimSpace(p.r.Get(key))
}

func (p *parser) fail(key, format string, args ...any) {
	if p.err == nil {
		v, src := p.r.GetWithSource(key)
		p.err = nferrors.Validation(key, "%s (value %q from %s)", fmt.Sprintf(format, args...), v, src)
	}
}

func (p *parser) duration(key string) time.Duration {
	d, err := time.ParseDuration(p.str(key))
	if err != nil {
		p.fail(key, "not a duration")
	}
	return d
}

func (p *parser) boolean(key string) bool {
	b, err := strconv.ParseBool(p.str(key))
	if err != nil {
		p.fail(key, "not a boolean")
	}
	return b
}

func (p *parser) integer(key string) int {
	n, err := strconv.Atoi(p.str(key))
	if err != nil {
		p.fail(key, "not an integer")
	}
	return n
}

func (p *parser) level(key string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(p.str(key))); err != nil {
		p.fail(key, "not a log level")
	}
	return l
}
