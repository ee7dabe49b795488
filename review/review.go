package review

import (
	"context"
	"log/slog"
	"strings"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/generator"
	"github.com/randalmurphal/noteflow/scoring"
)

// Scorer judges a draft. Implemented by generator.Generator.
type Scorer interface {
	Score(ctx context.Context, req generator.ScoreRequest) (*generator.ScoreOutput, error)
}

// Stage scores drafts against the rubric.
type Stage struct {
	scorer Scorer
	logger *slog.Logger
}

// Option configures a Stage.
type Option func(*Stage)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stage) { s.logger = l }
}

// New creates a review stage.
func New(scorer Scorer, opts ...Option) *Stage {
	s := &Stage{scorer: scorer}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "review")
	return s
}

// Review scores content. The result satisfies the scoring contract or an
// error is returned: ErrGeneration when the scorer fails,
// ErrScoringContract when its judgment breaks the rubric bounds.
func (s *Stage) Review(ctx context.Context, content, persona, keywords string) (*article.ReviewResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nferrors.Validation("draft", "draft content empty")
	}

	quick := scoring.QuickCheck(content)
	if !quick.QuickPass {
		s.logger.Info("quick check issues", "length", quick.Length, "headings", quick.Headings, "issues", quick.Issues)
	}

	out, err := s.scorer.Score(ctx, generator.ScoreRequest{
		Draft:    content,
		Persona:  persona,
		Keywords: keywords,
	})
	if err != nil {
		if !nferrors.IsGeneration(err) {
			err = nferrors.Generation("score", err)
		}
		return nil, err
	}

	result, err := scoring.Evaluate(out.Judgment)
	if err != nil {
		s.logger.Error("scoring contract violated", "breakdown", out.Judgment.Breakdown().String(), "error", err)
		return nil, err
	}
	result.TokensIn = out.TokensIn
	result.TokensOut = out.TokensOut

	s.logger.Info("review complete",
		"score", result.Score,
		"breakdown", result.Breakdown.String(),
		"passed", result.Passed)
	return result, nil
}
