package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/noteflow/article"
	nfcontext "github.com/randalmurphal/noteflow/context"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/prompt"
	"github.com/randalmurphal/noteflow/scoring"
	"github.com/randalmurphal/noteflow/task"
	"github.com/randalmurphal/noteflow/transcript"
)

// Prompt template names.
const (
	PromptDraftSystem  = string(prompt.DraftSystem)
	PromptDraft        = string(prompt.Draft)
	PromptRevise       = string(prompt.Revise)
	PromptReviewSystem = string(prompt.ReviewSystem)
	PromptReview       = string(prompt.Review)
	PromptOutline      = string(prompt.Outline)
	PromptPropose      = string(prompt.Propose)
)

// DraftRequest carries everything a drafting or revision pass sees.
type DraftRequest struct {
	Keywords    string
	Persona     string
	Title       string
	Outline     []string
	Gaps        []string
	Competitors []article.Competitor
	References  []article.Reference
	Essences    []article.Essence

	// Revision only.
	PreviousDraft string
	Feedback      string
	Breakdown     article.ScoreBreakdown
}

// DraftOutput is the structured result of a drafting pass.
type DraftOutput struct {
	ContentMD       string            `json:"content_md"`
	TitleCandidates []string          `json:"title_candidates"`
	ImagePrompts    []string          `json:"image_prompts"`
	SNSPosts        map[string]string `json:"sns_posts"`
	MetaDescription string            `json:"meta_description"`

	TokensIn  int `json:"-"`
	TokensOut int `json:"-"`
}

// ScoreRequest asks the reviewer to judge a draft.
type ScoreRequest struct {
	Draft    string
	Persona  string
	Keywords string
}

// ScoreOutput is the reviewer's raw judgment plus usage.
type ScoreOutput struct {
	Judgment  scoring.Judgment
	TokensIn  int
	TokensOut int
}

// OutlineRequest asks for content gaps and a section outline.
type OutlineRequest struct {
	Keywords    string
	Competitors []article.Competitor
	Answer      string
	References  []article.Reference
}

// OutlineOutput is the planner's answer.
type OutlineOutput struct {
	ContentGaps      []string `json:"content_gaps"`
	SuggestedOutline []string `json:"suggested_outline"`
}

// ProposeRequest asks for article themes around a keyword.
type ProposeRequest struct {
	Keyword     string
	Persona     string
	Count       int
	Competitors []article.Competitor
	Answer      string
	Knowledge   []article.Reference
}

// Theme is one proposed article theme.
type Theme struct {
	Title              string   `json:"title"`
	SEOKeywords        []string `json:"seo_keywords"`
	Persona            string   `json:"persona"`
	Summary            string   `json:"summary"`
	SourceType         string   `json:"source_type"`
	Relevance          float64  `json:"relevance_score"`
	CompetitorInsights []string `json:"competitor_insights"`
}

// ProposeOutput is the strategist's answer.
type ProposeOutput struct {
	Proposals []Theme `json:"proposals"`

	TokensIn  int `json:"-"`
	TokensOut int `json:"-"`
}

// Generator renders prompts, calls a Completer, and parses structured
// output for each generation role.
type Generator struct {
	completer Completer
	prompts   *prompt.Loader
	defaults  *prompt.Loader
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithPrompts sets the prompt loader. Without one, the loader injected in
// the context is used, then the embedded defaults.
func WithPrompts(l *prompt.Loader) Option {
	return func(g *Generator) { g.prompts = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New creates a Generator backed by c.
func New(c Completer, opts ...Option) *Generator {
	g := &Generator{completer: c, defaults: prompt.NewLoader("")}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.logger = g.logger.With("component", "generator")
	return g
}

// Draft produces a first draft.
func (g *Generator) Draft(ctx context.Context, req DraftRequest) (*DraftOutput, error) {
	return g.draft(ctx, task.Draft, PromptDraft, req)
}

// Revise produces a corrected draft from review feedback.
func (g *Generator) Revise(ctx context.Context, req DraftRequest) (*DraftOutput, error) {
	if strings.TrimSpace(req.Feedback) == "" {
		return nil, nferrors.Generation(string(task.Revise), fmt.Errorf("revision requires feedback"))
	}
	return g.draft(ctx, task.Revise, PromptRevise, req)
}

func (g *Generator) draft(ctx context.Context, t task.Type, name string, req DraftRequest) (*DraftOutput, error) {
	vars := map[string]any{
		"Keywords":      req.Keywords,
		"Persona":       req.Persona,
		"Title":         req.Title,
		"Outline":       req.Outline,
		"Gaps":          req.Gaps,
		"Competitors":   req.Competitors,
		"References":    req.References,
		"Essences":      essenceViews(req.Essences),
		"PreviousDraft": req.PreviousDraft,
		"Feedback":      req.Feedback,
		"Breakdown":     req.Breakdown,
	}

	comp, err := g.complete(ctx, t, PromptDraftSystem, name, vars)
	if err != nil {
		return nil, err
	}

	var out DraftOutput
	if err := decodeJSON(comp.Content, &out); err != nil {
		return nil, nferrors.Generation(string(t), fmt.Errorf("parse draft output: %w", err))
	}
	out.TokensIn = comp.TokensIn
	out.TokensOut = comp.TokensOut
	return &out, nil
}

// Score asks the reviewer for a raw judgment. Bounds are not checked here.
func (g *Generator) Score(ctx context.Context, req ScoreRequest) (*ScoreOutput, error) {
	vars := map[string]any{
		"Draft":    req.Draft,
		"Persona":  req.Persona,
		"Keywords": req.Keywords,
	}

	comp, err := g.complete(ctx, task.Score, PromptReviewSystem, PromptReview, vars)
	if err != nil {
		return nil, err
	}

	var j scoring.Judgment
	if err := decodeJSON(comp.Content, &j); err != nil {
		return nil, nferrors.Generation(string(task.Score), fmt.Errorf("parse review output: %w", err))
	}
	return &ScoreOutput{Judgment: j, TokensIn: comp.TokensIn, TokensOut: comp.TokensOut}, nil
}

// Outline proposes content gaps and a section outline.
func (g *Generator) Outline(ctx context.Context, req OutlineRequest) (*OutlineOutput, error) {
	vars := map[string]any{
		"Keywords":    req.Keywords,
		"Competitors": req.Competitors,
		"Answer":      req.Answer,
		"References":  req.References,
	}

	comp, err := g.complete(ctx, task.Outline, "", PromptOutline, vars)
	if err != nil {
		return nil, err
	}

	var out OutlineOutput
	if err := decodeJSON(comp.Content, &out); err != nil {
		return nil, nferrors.Generation(string(task.Outline), fmt.Errorf("parse outline output: %w", err))
	}
	out.SuggestedOutline = compact(out.SuggestedOutline)
	out.ContentGaps = compact(out.ContentGaps)
	return &out, nil
}

// Propose suggests article themes from search results and internal
// knowledge. Themes without a title are dropped.
func (g *Generator) Propose(ctx context.Context, req ProposeRequest) (*ProposeOutput, error) {
	vars := map[string]any{
		"Keyword":     req.Keyword,
		"Persona":     req.Persona,
		"Count":       req.Count,
		"Competitors": req.Competitors,
		"Answer":      req.Answer,
		"Knowledge":   req.Knowledge,
	}

	comp, err := g.complete(ctx, task.Propose, "", PromptPropose, vars)
	if err != nil {
		return nil, err
	}

	var out ProposeOutput
	if err := decodeJSON(comp.Content, &out); err != nil {
		return nil, nferrors.Generation(string(task.Propose), fmt.Errorf("parse proposals: %w", err))
	}
	themes := out.Proposals[:0]
	for _, th := range out.Proposals {
		if th.Title = strings.TrimSpace(th.Title); th.Title == "" {
			continue
		}
		th.SEOKeywords = compact(th.SEOKeywords)
		th.CompetitorInsights = compact(th.CompetitorInsights)
		if th.Persona == "" {
			th.Persona = req.Persona
		}
		if th.SourceType == "" {
			th.SourceType = "hybrid"
		}
		themes = append(themes, th)
	}
	out.Proposals = themes
	out.TokensIn = comp.TokensIn
	out.TokensOut = comp.TokensOut
	return &out, nil
}

// complete renders the prompts, calls the backend, and records the exchange.
func (g *Generator) complete(ctx context.Context, t task.Type, systemName, name string, vars map[string]any) (*Completion, error) {
	loader := g.loader(ctx)

	var system string
	if systemName != "" {
		// A missing system prompt is not fatal.
		if sp, err := loader.Load(systemName); err == nil {
			system = sp
		}
	}

	body, err := loader.LoadWithVars(name, vars)
	if err != nil {
		return nil, nferrors.Generation(string(t), fmt.Errorf("render prompt %s: %w", name, err))
	}

	start := time.Now()
	comp, err := g.completer.Complete(ctx, CompleteRequest{Task: t, System: system, Prompt: body})
	elapsed := time.Since(start)
	if err != nil {
		g.logger.Warn("completion failed", "task", t, "elapsed", elapsed, "error", err)
		return nil, nferrors.Generation(string(t), err)
	}
	if strings.TrimSpace(comp.Content) == "" {
		return nil, nferrors.Generation(string(t), fmt.Errorf("empty response"))
	}

	g.logger.Debug("completion",
		"task", t,
		"model", comp.Model,
		"tokens_in", comp.TokensIn,
		"tokens_out", comp.TokensOut,
		"elapsed", elapsed,
	)

	if _, err := nfcontext.Record(ctx, transcript.Exchange{
		Task:      string(t),
		Model:     comp.Model,
		System:    system,
		Prompt:    body,
		Response:  comp.Content,
		TokensIn:  comp.TokensIn,
		TokensOut: comp.TokensOut,
		Elapsed:   elapsed,
	}); err != nil {
		// Transcripts are advisory
		g.logger.Warn("failed to record transcript", "task", t, "error", err)
	}
	return comp, nil
}

func (g *Generator) loader(ctx context.Context) *prompt.Loader {
	if g.prompts != nil {
		return g.prompts
	}
	if l := nfcontext.Prompt(ctx); l != nil {
		return l
	}
	return g.defaults
}

// essenceView flattens an essence for templates; template funcs need plain
// strings.
type essenceView struct {
	Category string
	Content  string
	Tags     []string
}

func essenceViews(es []article.Essence) []essenceView {
	if len(es) == 0 {
		return nil
	}
	out := make([]essenceView, len(es))
	for i, e := range es {
		out[i] = essenceView{Category: string(e.Category), Content: e.Content, Tags: e.Tags}
	}
	return out
}

func compact(items []string) []string {
	out := items[:0]
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
