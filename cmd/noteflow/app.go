package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/noteflow/config"
	nfcontext "github.com/randalmurphal/noteflow/context"
	"github.com/randalmurphal/noteflow/draft"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/generator"
	"github.com/randalmurphal/noteflow/links"
	"github.com/randalmurphal/noteflow/notify"
	"github.com/randalmurphal/noteflow/propose"
	"github.com/randalmurphal/noteflow/publish"
	"github.com/randalmurphal/noteflow/research"
	"github.com/randalmurphal/noteflow/review"
	"github.com/randalmurphal/noteflow/search"
	"github.com/randalmurphal/noteflow/store"
	"github.com/randalmurphal/noteflow/task"
	"github.com/randalmurphal/noteflow/vector"
	"github.com/randalmurphal/noteflow/workflow"
)

// app is the wired set of services behind the commands.
type app struct {
	settings *config.Settings
	logger   *slog.Logger
	store    store.Store
	services *nfcontext.Services

	closers []func() error

	// Stage collaborators, built on first use. Tests set them directly.
	completer generator.Completer
	gen       stageGenerator
	web       research.WebSearcher
	index     vector.Index
	publisher publish.Publisher
}

// stageGenerator is what the stages and theme proposals need from the
// generator.
type stageGenerator interface {
	research.Outliner
	draft.Generator
	review.Scorer
	propose.Generator
}

func openApp(s *config.Settings, logger *slog.Logger) (*app, error) {
	db, err := store.Open(s.DBPath)
	if err != nil {
		return nil, err
	}
	services, err := nfcontext.NewServices(nfcontext.Config{
		TranscriptDir: s.TranscriptDir,
		ArtifactDir:   s.ArtifactDir,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := services.Prompts.Validate(); err != nil {
		_ = db.Close()
		return nil, nferrors.Validation("prompts", "%v", err)
	}
	services.Notifier = buildNotifier(s, logger)

	return &app{
		settings: s,
		logger:   logger,
		store:    db,
		services: services,
		closers:  []func() error{db.Close},
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// context injects the ambient services.
func (a *app) context(ctx context.Context) context.Context {
	return a.services.InjectAll(ctx)
}

// collaborators builds the generator, web searcher and index not set yet.
func (a *app) collaborators() error {
	s := a.settings
	if a.gen == nil {
		if a.completer == nil {
			c, err := buildCompleter(s)
			if err != nil {
				return err
			}
			a.completer = c
		}
		a.gen = generator.New(a.completer,
			generator.WithPrompts(a.services.Prompts),
			generator.WithLogger(a.logger))
	}
	if a.web == nil {
		profile, err := search.LookupProfile(s.TavilyProfile)
		if err != nil {
			return err
		}
		web, err := search.NewTavilyClient(s.TavilyAPIKey,
			search.WithProfile(profile),
			search.WithTimeout(s.StageTimeout),
			search.WithLogger(a.logger))
		if err != nil {
			return fmt.Errorf("web search: %w", err)
		}
		a.web = web
	}
	if a.index == nil {
		idx, err := buildIndex(s, a.logger)
		if err != nil {
			return err
		}
		a.index = idx
	}
	return nil
}

// engine wires the stages. autoConfirm overrides the configured default
// when true.
func (a *app) engine(autoConfirm bool) (*workflow.Engine, error) {
	s := a.settings
	if err := a.collaborators(); err != nil {
		return nil, err
	}

	opts := []workflow.Option{
		workflow.WithLogger(a.logger),
		workflow.WithStageTimeout(s.StageTimeout),
		workflow.WithNotifier(a.services.Notifier),
		workflow.WithArtifacts(a.services.Artifacts),
		workflow.WithTranscripts(a.services.Transcripts),
	}
	if autoConfirm || s.AutoConfirm {
		opts = append(opts, workflow.WithAutoConfirm())
	}

	return workflow.New(a.store,
		research.New(a.web, a.index,
			research.WithOutliner(a.gen),
			research.WithLogger(a.logger)),
		draft.New(a.gen,
			draft.WithLinker(links.New(a.store,
				links.WithSimilarity(a.index),
				links.WithLogger(a.logger))),
			draft.WithLogger(a.logger)),
		review.New(a.gen, review.WithLogger(a.logger)),
		opts...,
	), nil
}

// proposer wires theme proposals over the same collaborators as research.
func (a *app) proposer() (*propose.Service, error) {
	if err := a.collaborators(); err != nil {
		return nil, err
	}
	return propose.New(a.web, a.index, a.gen, propose.WithLogger(a.logger)), nil
}

// bookkeeping returns an engine without stages, for operations that never
// run one.
func (a *app) bookkeeping() *workflow.Engine {
	return workflow.New(a.store, nil, nil, nil,
		workflow.WithLogger(a.logger),
		workflow.WithNotifier(a.services.Notifier))
}

// publisherFor returns the dry-run publisher or the browser publisher.
func (a *app) publisherFor(dryRun bool) (publish.Publisher, error) {
	if dryRun {
		return publish.NewDryRun(a.services.Artifacts, a.logger), nil
	}
	if a.publisher != nil {
		return a.publisher, nil
	}
	b, err := publish.NewBrowser(a.settings.PublishEditorURL,
		publish.WithHeadless(a.settings.PublishHeadless),
		publish.WithArtifacts(a.services.Artifacts),
		publish.WithTimeout(a.settings.StageTimeout),
		publish.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.publisher = b
	return b, nil
}

func buildCompleter(s *config.Settings) (generator.Completer, error) {
	switch s.LLMBackend {
	case config.BackendOpenAI:
		return generator.NewOpenAICompleter(generator.OpenAIConfig{
			APIKey:  s.OpenAIAPIKey,
			BaseURL: s.OpenAIBaseURL,
			Model:   s.Model,
		})
	default:
		return generator.NewClaudeCompleter(".", task.SelectorFor(s.Model)), nil
	}
}

// buildIndex uses Chroma when configured, else an empty in-memory index.
func buildIndex(s *config.Settings, logger *slog.Logger) (vector.Index, error) {
	if s.ChromaURL == "" {
		logger.Debug("no chroma_url, internal references disabled")
		return vector.NewMemoryIndex(), nil
	}
	emb, err := vector.NewOpenAIEmbedder(s.OpenAIAPIKey, s.OpenAIBaseURL, "")
	if err != nil {
		return nil, err
	}
	return vector.NewChromaClient(vector.ChromaConfig{
		BaseURL:  s.ChromaURL,
		Embedder: emb,
		Logger:   logger,
	})
}

func buildNotifier(s *config.Settings, logger *slog.Logger) notify.Notifier {
	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if s.WebhookURL != "" {
		var opts []notify.WebhookOption
		if s.WebhookSecret != "" {
			opts = append(opts, notify.WithSigningSecret(s.WebhookSecret))
		}
		notifiers = append(notifiers, notify.NewWebhookNotifier(s.WebhookURL, opts...))
	}
	if s.SlackWebhookURL != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(s.SlackWebhookURL))
	}
	if len(notifiers) == 1 {
		return notifiers[0]
	}
	return notify.NewMultiNotifier(notifiers...)
}

// notify sends an event outside the engine. Errors are logged only.
func (a *app) notify(ctx context.Context, e notify.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if err := a.services.Notifier.Notify(ctx, e); err != nil {
		a.logger.Warn("notification failed", "type", e.Type, "error", err)
	}
}
