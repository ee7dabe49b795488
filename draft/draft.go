package draft

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/generator"
	"github.com/randalmurphal/noteflow/markdown"
)

// Output limits.
const (
	MaxXPostRunes           = 280
	MaxMetaDescriptionRunes = 120
)

// Generator writes drafts. Implemented by generator.Generator.
type Generator interface {
	Draft(ctx context.Context, req generator.DraftRequest) (*generator.DraftOutput, error)
	Revise(ctx context.Context, req generator.DraftRequest) (*generator.DraftOutput, error)
}

// Linker suggests internal links for a draft. Implemented by
// links.Suggester.
type Linker interface {
	Suggest(ctx context.Context, content, excludeID string) ([]article.InternalLink, error)
}

// Input is everything one drafting pass reads.
type Input struct {
	ArticleID string

	Research *article.ResearchResult
	Essences []article.Essence
	Persona  string
	Title    string
	Keywords string

	// Feedback is non-nil on the correction pass.
	Feedback      *string
	Breakdown     article.ScoreBreakdown
	PreviousDraft string

	// Pass numbers drafts from 1.
	Pass int
}

// Stage produces a DraftResult. It holds no per-article state.
type Stage struct {
	gen    Generator
	linker Linker
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Stage.
type Option func(*Stage)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stage) { s.logger = l }
}

// WithLinker attaches internal link suggestions to every draft.
func WithLinker(l Linker) Option {
	return func(s *Stage) { s.linker = l }
}

// New creates a drafting stage.
func New(gen Generator, opts ...Option) *Stage {
	s := &Stage{gen: gen, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "draft")
	return s
}

// Generate runs one drafting pass. A non-nil Feedback selects the revision
// prompt.
func (s *Stage) Generate(ctx context.Context, in Input) (*article.DraftResult, error) {
	if !in.Research.Populated() {
		return nil, nferrors.Validation("research", "research summary not populated")
	}

	req := generator.DraftRequest{
		Keywords:    in.Keywords,
		Persona:     in.Persona,
		Title:       in.Title,
		Outline:     in.Research.SuggestedOutline,
		Gaps:        in.Research.ContentGaps,
		Competitors: in.Research.Competitors,
		References:  in.Research.InternalReferences,
		Essences:    in.Essences,
	}

	var (
		out *generator.DraftOutput
		err error
	)
	if in.Feedback != nil {
		req.Feedback = *in.Feedback
		req.Breakdown = in.Breakdown
		req.PreviousDraft = in.PreviousDraft
		out, err = s.gen.Revise(ctx, req)
	} else {
		out, err = s.gen.Draft(ctx, req)
	}
	if err != nil {
		if !nferrors.IsGeneration(err) {
			err = nferrors.Generation("draft", err)
		}
		return nil, err
	}

	result, err := s.normalize(out)
	if err != nil {
		return nil, nferrors.Generation("draft", err)
	}
	result.Pass = in.Pass
	if result.Pass < 1 {
		result.Pass = 1
	}
	if s.linker != nil {
		// Suggestions are advisory
		links, err := s.linker.Suggest(ctx, result.ContentMD, in.ArticleID)
		if err != nil {
			s.logger.Warn("link suggestion failed", "article_id", in.ArticleID, "error", err)
		}
		result.InternalLinks = links
	}

	s.logger.Info("draft generated",
		"pass", result.Pass,
		"revision", in.Feedback != nil,
		"runes", utf8.RuneCountInString(result.ContentMD),
		"titles", len(result.TitleCandidates),
		"links", len(result.InternalLinks))
	return result, nil
}

// normalize validates generator output and fills derived fields.
func (s *Stage) normalize(out *generator.DraftOutput) (*article.DraftResult, error) {
	if out == nil {
		return nil, fmt.Errorf("no output")
	}
	content := strings.TrimSpace(out.ContentMD)
	if content == "" {
		return nil, fmt.Errorf("draft content empty")
	}

	titles := nonEmpty(out.TitleCandidates)
	if len(titles) == 0 {
		if t := markdown.Title(content); t != "" {
			titles = []string{t}
		}
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("no title candidates")
	}

	posts := make(map[string]string, len(article.SNSChannels))
	for _, ch := range article.SNSChannels {
		posts[ch] = strings.TrimSpace(out.SNSPosts[ch])
	}
	posts[article.ChannelX] = truncateRunes(posts[article.ChannelX], MaxXPostRunes)

	meta := strings.TrimSpace(out.MetaDescription)
	if meta == "" {
		meta = MetaDescription(content)
	}

	return &article.DraftResult{
		ContentMD:       content,
		TitleCandidates: titles,
		ImagePrompts:    nonEmpty(out.ImagePrompts),
		SNSPosts:        posts,
		MetaDescription: truncateRunes(meta, MaxMetaDescriptionRunes),
		ReadMinutes:     markdown.ReadMinutes(content),
		TokensIn:        out.TokensIn,
		TokensOut:       out.TokensOut,
		GeneratedAt:     s.now(),
	}, nil
}

// MetaDescription derives a description from the opening prose of content.
func MetaDescription(content string) string {
	plain := strings.Join(strings.Fields(markdown.Plain(content)), " ")
	if title := markdown.Title(content); title != "" {
		plain = strings.TrimSpace(strings.TrimPrefix(plain, title))
	}
	return truncateRunes(plain, MaxMetaDescriptionRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
