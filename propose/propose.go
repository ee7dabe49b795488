package propose

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/generator"
	"github.com/randalmurphal/noteflow/research"
	"github.com/randalmurphal/noteflow/search"
	"github.com/randalmurphal/noteflow/vector"
)

// Theme count bounds.
const (
	DefaultCount = 7
	MinCount     = 5
	MaxCount     = 10
)

// DefaultRelevance is assumed for themes the generator did not score.
const DefaultRelevance = 0.7

const (
	knowledgeTopK = 10
	maxTrends     = 10
	maxTopics     = 5
)

// Generator proposes themes. Implemented by generator.Generator.
type Generator interface {
	Propose(ctx context.Context, req generator.ProposeRequest) (*generator.ProposeOutput, error)
}

// Input is one proposal request.
type Input struct {
	Keyword string
	Persona string
	Count   int
}

// Result holds the proposed themes and what they were drawn from.
type Result struct {
	Keyword         string            `json:"keyword"`
	Persona         string            `json:"persona,omitempty"`
	Themes          []generator.Theme `json:"themes"`
	Trends          []string          `json:"trends,omitempty"`
	KnowledgeTopics []string          `json:"knowledgeTopics,omitempty"`
	TokensIn        int               `json:"tokensIn,omitempty"`
	TokensOut       int               `json:"tokensOut,omitempty"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

// Service proposes article themes.
type Service struct {
	web        research.WebSearcher
	similarity research.SimilaritySearcher
	gen        Generator
	collection string
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCollection sets the knowledge collection queried.
func WithCollection(name string) Option {
	return func(s *Service) { s.collection = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service. web and similarity may be nil.
func New(web research.WebSearcher, similarity research.SimilaritySearcher, gen Generator, opts ...Option) *Service {
	s := &Service{
		web:        web,
		similarity: similarity,
		gen:        gen,
		collection: vector.CollectionKnowledgeBase,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "propose")
	return s
}

// Propose gathers search results and knowledge for in.Keyword and asks the
// generator for themes. Count is clamped to [MinCount, MaxCount]; zero
// means DefaultCount.
func (s *Service) Propose(ctx context.Context, in Input) (*Result, error) {
	keyword := strings.TrimSpace(in.Keyword)
	if keyword == "" {
		return nil, nferrors.Validation("keyword", "required")
	}
	count := clampCount(in.Count)

	var (
		web       *search.Response
		knowledge []vector.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	if s.web != nil {
		g.Go(func() error {
			resp, err := s.web.Search(gctx, keyword)
			if err != nil {
				s.logger.Warn("trend search failed", "keyword", keyword, "error", err)
				return nil
			}
			web = resp
			return nil
		})
	}
	if s.similarity != nil {
		g.Go(func() error {
			ms, err := s.similarity.Query(gctx, keyword, knowledgeTopK, s.collection)
			if err != nil {
				s.logger.Warn("knowledge query failed", "collection", s.collection, "error", err)
				return nil
			}
			knowledge = ms
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := generator.ProposeRequest{
		Keyword:     keyword,
		Persona:     strings.TrimSpace(in.Persona),
		Count:       count,
		Competitors: competitors(web),
		Knowledge:   references(s.collection, knowledge),
	}
	if web != nil {
		req.Answer = web.Answer
	}

	out, err := s.gen.Propose(ctx, req)
	if err != nil {
		if !nferrors.IsGeneration(err) {
			err = nferrors.Generation("propose", err)
		}
		return nil, err
	}

	themes := out.Proposals
	if len(themes) > count {
		themes = themes[:count]
	}
	for i := range themes {
		if themes[i].Relevance <= 0 {
			themes[i].Relevance = DefaultRelevance
		}
	}

	result := &Result{
		Keyword:         keyword,
		Persona:         req.Persona,
		Themes:          themes,
		Trends:          Trends(req.Competitors),
		KnowledgeTopics: Topics(req.Knowledge),
		TokensIn:        out.TokensIn,
		TokensOut:       out.TokensOut,
		GeneratedAt:     s.now(),
	}
	s.logger.Info("themes proposed",
		"keyword", keyword,
		"themes", len(themes),
		"competitors", len(req.Competitors),
		"knowledge", len(req.Knowledge))
	return result, nil
}

func clampCount(n int) int {
	switch {
	case n == 0:
		return DefaultCount
	case n < MinCount:
		return MinCount
	case n > MaxCount:
		return MaxCount
	}
	return n
}

func competitors(resp *search.Response) []article.Competitor {
	if resp == nil {
		return nil
	}
	out := make([]article.Competitor, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, article.Competitor{URL: r.URL, Title: r.Title, Snippet: r.Snippet})
	}
	return out
}

func references(collection string, ms []vector.Match) []article.Reference {
	out := make([]article.Reference, 0, len(ms))
	for _, m := range ms {
		out = append(out, article.Reference{
			Collection: collection,
			Content:    m.Content,
			Metadata:   m.Metadata,
			Score:      m.Score,
		})
	}
	return out
}

// Trends returns the titles of the ranking articles.
func Trends(cs []article.Competitor) []string {
	var out []string
	for _, c := range cs {
		if t := strings.TrimSpace(c.Title); t != "" {
			out = append(out, t)
		}
		if len(out) == maxTrends {
			break
		}
	}
	return out
}

// Topics labels knowledge matches by their first sentence.
func Topics(refs []article.Reference) []string {
	var out []string
	for _, r := range refs {
		if len(out) == maxTopics {
			break
		}
		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}
		topic, _, found := strings.Cut(content, "。")
		if !found {
			topic = firstRunes(content, 50)
		}
		out = append(out, firstRunes(topic, 100))
	}
	return out
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
