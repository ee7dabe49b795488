package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/noteflow/article"
	"github.com/randalmurphal/noteflow/artifact"
	nfcontext "github.com/randalmurphal/noteflow/context"
	"github.com/randalmurphal/noteflow/draft"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/notify"
	"github.com/randalmurphal/noteflow/scoring"
	"github.com/randalmurphal/noteflow/store"
	"github.com/randalmurphal/noteflow/transcript"
)

// DefaultStageTimeout bounds one stage call.
const DefaultStageTimeout = 300 * time.Second

// Researcher builds the research brief. Implemented by research.Stage.
type Researcher interface {
	Analyze(ctx context.Context, keywords string) (*article.ResearchResult, error)
}

// Drafter writes drafts. Implemented by draft.Stage.
type Drafter interface {
	Generate(ctx context.Context, in draft.Input) (*article.DraftResult, error)
}

// Reviewer scores drafts. Implemented by review.Stage.
type Reviewer interface {
	Review(ctx context.Context, content, persona, keywords string) (*article.ReviewResult, error)
}

// Engine drives articles through the transition table. Every transition is
// applied to a copy, saved, and only then adopted.
type Engine struct {
	store    store.Store
	research Researcher
	drafter  Drafter
	reviewer Reviewer

	autoConfirm  bool
	stageTimeout time.Duration
	logger       *slog.Logger
	notifier     notify.Notifier
	artifacts    *artifact.Manager
	transcripts  transcript.Manager

	mu   sync.Mutex
	busy map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithAutoConfirm runs past WaitingForInput without waiting for essences.
func WithAutoConfirm() Option {
	return func(e *Engine) { e.autoConfirm = true }
}

// WithStageTimeout bounds each stage call. Non-positive values are ignored.
func WithStageTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.stageTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithNotifier sets the event sink. Notifier errors are logged only.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithArtifacts saves stage outputs as files per article.
func WithArtifacts(m *artifact.Manager) Option {
	return func(e *Engine) { e.artifacts = m }
}

// WithTranscripts records one transcript run per Run or Resume call.
func WithTranscripts(m transcript.Manager) Option {
	return func(e *Engine) { e.transcripts = m }
}

// New creates an engine.
func New(st store.Store, research Researcher, drafter Drafter, reviewer Reviewer, opts ...Option) *Engine {
	e := &Engine{
		store:        st,
		research:     research,
		drafter:      drafter,
		reviewer:     reviewer,
		stageTimeout: DefaultStageTimeout,
		busy:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "workflow")
	if e.notifier == nil {
		e.notifier = notify.NopNotifier{}
	}
	return e
}

// =============================================================================
// Operations
// =============================================================================

// Run loads articleID, or creates it in Planning when it does not exist, and
// advances it. Without auto-confirm the run stops at WaitingForInput. An
// empty articleID creates a new article.
//
// On a stage or persistence failure the returned state is the last
// committed one and the error says which stage failed.
func (e *Engine) Run(ctx context.Context, articleID, keywords string) (*article.State, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, nferrors.Validation("seo_keywords", "required")
	}
	if articleID == "" {
		articleID = article.NewID()
	}

	release, err := e.acquire(articleID)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := e.store.Load(ctx, articleID)
	switch {
	case nferrors.IsNotFound(err):
		st = article.New(keywords).WithID(articleID)
		if err := e.store.Save(ctx, st); err != nil {
			return nil, nferrors.NewStageError(nferrors.KindPersistence, string(st.Phase), articleID, "create", err)
		}
		e.logger.Info("article created", "article_id", articleID, "keywords", keywords)
	case err != nil:
		return nil, nferrors.NewStageError(nferrors.KindPersistence, "", articleID, "load", err)
	case st.Phase == article.PhasePlanning:
		// Saved with the first transition.
		st.SEOKeywords = keywords
	case st.SEOKeywords != keywords:
		e.logger.Warn("article already past planning, keeping stored keywords",
			"article_id", articleID, "phase", st.Phase, "stored", st.SEOKeywords)
	}

	return e.drive(ctx, st, e.autoConfirm)
}

// Resume re-enters st at its phase and advances it to Completed, using only
// what st already holds. At WaitingForInput the input is taken as
// confirmed. At Completed it returns st without any call or write.
//
// st itself is updated after each committed transition; a failed save
// leaves it at its previous phase.
func (e *Engine) Resume(ctx context.Context, st *article.State) (*article.State, error) {
	if st == nil {
		return nil, nferrors.Validation("state", "required")
	}
	if st.Phase == article.PhaseCompleted {
		return st, nil
	}
	if !st.Phase.Valid() {
		return st, nferrors.Validation("phase", "unknown phase %q", st.Phase)
	}
	if err := st.Validate(article.RequireID); err != nil {
		return st, err
	}

	release, err := e.acquire(st.ID)
	if err != nil {
		return st, err
	}
	defer release()

	return e.drive(ctx, st, true)
}

// Confirm loads an article and resumes it.
func (e *Engine) Confirm(ctx context.Context, articleID string) (*article.State, error) {
	st, err := e.load(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return e.Resume(ctx, st)
}

// SubmitEssences appends essences to an article waiting for input and saves
// it. Either every essence is accepted or nothing changes.
func (e *Engine) SubmitEssences(ctx context.Context, articleID string, essences ...article.Essence) (*article.State, error) {
	if len(essences) == 0 {
		return nil, nferrors.Validation("essence", "at least one essence required")
	}

	release, err := e.acquire(articleID)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := e.load(ctx, articleID)
	if err != nil {
		return nil, err
	}

	next := st.Clone()
	for _, es := range essences {
		if err := next.AddEssence(es); err != nil {
			return st, err
		}
	}
	next.Touch()
	if err := e.store.Save(ctx, next); err != nil {
		return st, nferrors.NewStageError(nferrors.KindPersistence, string(st.Phase), articleID, "save essences", err)
	}

	e.logger.Info("essences added", "article_id", articleID, "added", len(essences), "total", len(next.Essences))
	return next, nil
}

// Status loads an article without changing it.
func (e *Engine) Status(ctx context.Context, articleID string) (*article.State, error) {
	return e.load(ctx, articleID)
}

func (e *Engine) load(ctx context.Context, articleID string) (*article.State, error) {
	if strings.TrimSpace(articleID) == "" {
		return nil, nferrors.Validation("id", "required")
	}
	st, err := e.store.Load(ctx, articleID)
	if err != nil {
		if nferrors.IsNotFound(err) {
			return nil, err
		}
		return nil, nferrors.NewStageError(nferrors.KindPersistence, "", articleID, "load", err)
	}
	return st, nil
}

// =============================================================================
// Driver
// =============================================================================

// drive steps st until it rests. confirmed lets it pass WaitingForInput.
func (e *Engine) drive(ctx context.Context, st *article.State, confirmed bool) (*article.State, error) {
	runID := e.startRun(st)
	if runID != "" {
		ctx = nfcontext.WithRunID(nfcontext.WithTranscript(ctx, e.transcripts), runID)
	}
	log := e.logger.With("article_id", st.ID, "run_id", runID)
	start := time.Now()
	startPhase := st.Phase

	e.emit(ctx, notify.Event{
		Type:      notify.EventRunStarted,
		ArticleID: st.ID,
		RunID:     runID,
		From:      string(st.Phase),
		Message:   fmt.Sprintf("run started at %s", st.Phase),
		Severity:  notify.SeverityInfo,
	})
	log.Info("run started", "phase", st.Phase)

	for {
		switch {
		case st.Phase == article.PhaseCompleted:
			if startPhase != article.PhaseCompleted {
				e.saveFinal(st)
			}
			e.endRun(runID, nil)
			e.emit(ctx, completedEvent(st, runID))
			log.Info("run completed", "score", st.ReviewScore, "retries", st.RetryCount, "elapsed", time.Since(start))
			return st, nil

		case st.Phase == article.PhaseWaitingForInput && !confirmed:
			e.endRun(runID, nil)
			e.emit(ctx, notify.Event{
				Type:      notify.EventInputNeeded,
				ArticleID: st.ID,
				RunID:     runID,
				Message:   "research complete, waiting for essences",
				Severity:  notify.SeverityInfo,
				Metadata:  buildMetadata(st),
			})
			log.Info("waiting for input", "elapsed", time.Since(start))
			return st, nil
		}

		if err := ctx.Err(); err != nil {
			err = nferrors.NewStageError(nferrors.KindUnknown, string(st.Phase), st.ID, "run", err)
			e.fail(ctx, st, runID, err)
			return st, err
		}

		if err := e.step(ctx, st); err != nil {
			e.fail(ctx, st, runID, err)
			log.Error("run failed", "phase", st.Phase, "kind", nferrors.KindOf(err), "error", err)
			return st, err
		}
	}
}

// step runs the stage for st.Phase and commits the resulting transition.
func (e *Engine) step(ctx context.Context, st *article.State) error {
	switch st.Phase {
	case article.PhasePlanning:
		return e.commit(ctx, st, nil, fixed(TriggerKeywordsConfirmed))

	case article.PhaseResearching:
		var result *article.ResearchResult
		err := e.stage(ctx, st, nferrors.KindExternalLookup, "research", func(ctx context.Context) (err error) {
			result, err = e.research.Analyze(ctx, st.SEOKeywords)
			return err
		})
		if err != nil {
			return err
		}
		if err := e.commit(ctx, st, func(next *article.State) { next.Research = result }, fixed(TriggerResearchCompleted)); err != nil {
			return err
		}
		e.saveResearch(st)
		return nil

	case article.PhaseWaitingForInput:
		return e.commit(ctx, st, nil, fixed(TriggerInputConfirmed))

	case article.PhaseDrafting:
		in := draftInput(st)
		var result *article.DraftResult
		err := e.stage(ctx, st, nferrors.KindGeneration, "draft", func(ctx context.Context) (err error) {
			result, err = e.drafter.Generate(ctx, in)
			return err
		})
		if err != nil {
			return err
		}
		err = e.commit(ctx, st, func(next *article.State) {
			next.Draft = result
			// The new draft has not been reviewed yet.
			next.ReviewScore = 0
			next.Breakdown = article.ScoreBreakdown{}
			next.ReviewFeedback = ""
		}, fixed(TriggerDraftProduced))
		if err != nil {
			return err
		}
		e.saveDraft(st)
		return nil

	case article.PhaseReview:
		if err := st.Validate(article.RequireDraft); err != nil {
			return nferrors.NewStageError(nferrors.KindInputValidation, string(st.Phase), st.ID, "review", err)
		}
		var result *article.ReviewResult
		err := e.stage(ctx, st, nferrors.KindGeneration, "review", func(ctx context.Context) (err error) {
			result, err = e.reviewer.Review(ctx, st.Draft.ContentMD, st.Persona, st.SEOKeywords)
			if err != nil {
				return err
			}
			return scoring.Verify(result)
		})
		if err != nil {
			return err
		}
		if err := e.commit(ctx, st, func(next *article.State) { next.ApplyReview(result) }, ReviewTrigger); err != nil {
			return err
		}
		e.saveReview(st, result)
		if st.ForcedCompletion() {
			e.emit(ctx, notify.Event{
				Type:      notify.EventReviewForced,
				ArticleID: st.ID,
				RunID:     nfcontext.RunID(ctx),
				Message:   fmt.Sprintf("completed below threshold with score %d after %d retries", st.ReviewScore, st.RetryCount),
				Severity:  notify.SeverityWarning,
				Metadata:  buildMetadata(st),
			})
		}
		return nil

	default:
		return nferrors.NewStageError(nferrors.KindInputValidation, string(st.Phase), st.ID, "step",
			fmt.Errorf("no stage for phase %q", st.Phase))
	}
}

// draftInput builds the drafting request. Feedback is passed only on the
// correction pass.
func draftInput(st *article.State) draft.Input {
	in := draft.Input{
		ArticleID: st.ID,
		Research:  st.Research,
		Essences:  st.Essences,
		Persona:   st.Persona,
		Title:     st.Title,
		Keywords:  st.SEOKeywords,
		Pass:      st.RetryCount + 1,
	}
	if st.RetryCount > 0 && strings.TrimSpace(st.ReviewFeedback) != "" {
		feedback := st.ReviewFeedback
		in.Feedback = &feedback
		in.Breakdown = st.Breakdown
		if st.Draft != nil {
			in.PreviousDraft = st.Draft.ContentMD
		}
	}
	return in
}

// stage runs fn under the stage timeout and classifies its error. Errors
// without a known kind get fallback.
func (e *Engine) stage(ctx context.Context, st *article.State, fallback nferrors.Kind, op string, fn func(context.Context) error) error {
	sctx, cancel := context.WithTimeout(ctx, e.stageTimeout)
	defer cancel()

	start := time.Now()
	err := fn(sctx)
	if err == nil {
		e.logger.Debug("stage complete", "article_id", st.ID, "stage", op, "elapsed", time.Since(start))
		return nil
	}

	kind := nferrors.KindOf(err)
	if kind == nferrors.KindUnknown {
		kind = fallback
	}
	return nferrors.NewStageError(kind, string(st.Phase), st.ID, op, err)
}

// route picks the trigger for a prepared state.
type route func(*article.State) Trigger

func fixed(t Trigger) route {
	return func(*article.State) Trigger { return t }
}

// commit applies mutate and the routed transition to a copy of st, saves
// the copy and adopts it into st. On any failure st is untouched.
func (e *Engine) commit(ctx context.Context, st *article.State, mutate func(*article.State), next route) error {
	cand := st.Clone()
	if mutate != nil {
		mutate(cand)
	}
	from := cand.Phase
	trigger := next(cand)

	t, err := Fire(cand, trigger)
	if err != nil {
		return nferrors.NewStageError(nferrors.KindInputValidation, string(from), st.ID, string(trigger), err)
	}
	if err := e.store.Save(ctx, cand); err != nil {
		return nferrors.NewStageError(nferrors.KindPersistence, string(from), st.ID, "save", err)
	}
	*st = *cand

	e.logger.Info("phase changed",
		"article_id", st.ID,
		"from", t.From,
		"to", t.To,
		"trigger", t.Trigger)
	e.emit(ctx, phaseEvent(st, nfcontext.RunID(ctx), t))
	e.touchArtifacts(st)
	return nil
}

// acquire marks articleID in flight.
func (e *Engine) acquire(articleID string) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.busy[articleID]; ok {
		return nil, fmt.Errorf("%w: %s", nferrors.ErrArticleBusy, articleID)
	}
	e.busy[articleID] = struct{}{}
	return func() {
		e.mu.Lock()
		delete(e.busy, articleID)
		e.mu.Unlock()
	}, nil
}

func (e *Engine) fail(ctx context.Context, st *article.State, runID string, err error) {
	e.endRun(runID, err)
	e.emit(ctx, failedEvent(st, runID, err))
}

// =============================================================================
// Transcripts
// =============================================================================

func (e *Engine) startRun(st *article.State) string {
	if e.transcripts == nil {
		return ""
	}
	suffix, err := gonanoid.New(12)
	if err != nil {
		suffix = fmt.Sprintf("%x", time.Now().UnixNano())
	}
	runID := "run-" + suffix
	if err := e.transcripts.StartRun(runID, transcript.RunMetadata{ArticleID: st.ID, Phase: string(st.Phase)}); err != nil {
		e.logger.Warn("failed to start transcript", "article_id", st.ID, "error", err)
		return ""
	}
	return runID
}

func (e *Engine) endRun(runID string, runErr error) {
	if runID == "" {
		return
	}
	var err error
	if runErr != nil {
		err = e.transcripts.EndRunWithError(runID, runErr)
	} else {
		err = e.transcripts.EndRun(runID, transcript.RunStatusCompleted)
	}
	if err != nil {
		e.logger.Warn("failed to end transcript", "run_id", runID, "error", err)
	}
}
