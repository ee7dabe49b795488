package research

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/generator"
	"github.com/randalmurphal/noteflow/markdown"
	"github.com/randalmurphal/noteflow/search"
	"github.com/randalmurphal/noteflow/vector"
)

// FallbackOutline is used when no outline could be generated.
var FallbackOutline = []string{"導入", "課題の整理", "解決策", "実践方法", "まとめ"}

// DefaultTopK is the number of matches requested per collection.
const DefaultTopK = 3

// WebSearcher finds competitor articles. Implemented by search.TavilyClient.
type WebSearcher interface {
	Search(ctx context.Context, query string) (*search.Response, error)
}

// SimilaritySearcher queries a knowledge collection. Implemented by
// vector.ChromaClient and vector.MemoryIndex.
type SimilaritySearcher interface {
	Query(ctx context.Context, text string, topK int, collection string) ([]vector.Match, error)
}

// Outliner proposes content gaps and an outline. Implemented by
// generator.Generator.
type Outliner interface {
	Outline(ctx context.Context, req generator.OutlineRequest) (*generator.OutlineOutput, error)
}

// Stage builds the research brief for a set of SEO keywords.
type Stage struct {
	web         WebSearcher
	similarity  SimilaritySearcher
	outliner    Outliner
	collections []string
	topK        int
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Stage.
type Option func(*Stage)

// WithOutliner enables generated outlines and content gaps.
func WithOutliner(o Outliner) Option {
	return func(s *Stage) { s.outliner = o }
}

// WithCollections overrides the similarity collections queried, in order.
func WithCollections(names ...string) Option {
	return func(s *Stage) { s.collections = names }
}

// WithTopK sets matches per collection.
func WithTopK(k int) Option {
	return func(s *Stage) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stage) { s.logger = l }
}

// New creates a research stage.
func New(web WebSearcher, similarity SimilaritySearcher, opts ...Option) *Stage {
	s := &Stage{
		web:         web,
		similarity:  similarity,
		collections: []string{vector.CollectionKnowledgeBase, vector.CollectionArchive},
		topK:        DefaultTopK,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "research")
	return s
}

// Analyze searches the web and the knowledge collections concurrently and
// assembles the brief. A failure of either lookup fails the stage.
func (s *Stage) Analyze(ctx context.Context, keywords string) (*article.ResearchResult, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, nferrors.Validation("seo_keywords", "required")
	}

	var (
		web     *search.Response
		matches = make([][]vector.Match, len(s.collections))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := s.web.Search(gctx, keywords)
		if err != nil {
			return nferrors.Lookup("web_search", err)
		}
		web = resp
		return nil
	})
	for i, coll := range s.collections {
		g.Go(func() error {
			ms, err := s.similarity.Query(gctx, keywords, s.topK, coll)
			if err != nil {
				return nferrors.Lookup("similarity:"+coll, err)
			}
			matches[i] = ms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &article.ResearchResult{
		Competitors:        competitors(web),
		InternalReferences: references(s.collections, matches),
	}

	var answer string
	if web != nil {
		answer = web.Answer
	}
	result.ContentGaps, result.SuggestedOutline = s.outline(ctx, keywords, answer, result)
	result.SummaryText = Summary(keywords, answer, result)
	result.CompletedAt = s.now()

	s.logger.Info("research complete",
		"keywords", keywords,
		"competitors", len(result.Competitors),
		"references", len(result.InternalReferences),
		"outline", len(result.SuggestedOutline))
	return result, nil
}

// outline asks the outliner and falls back to FallbackOutline.
func (s *Stage) outline(ctx context.Context, keywords, answer string, r *article.ResearchResult) ([]string, []string) {
	fallback := append([]string(nil), FallbackOutline...)
	if s.outliner == nil {
		return nil, fallback
	}

	out, err := s.outliner.Outline(ctx, generator.OutlineRequest{
		Keywords:    keywords,
		Competitors: r.Competitors,
		Answer:      answer,
		References:  r.InternalReferences,
	})
	if err != nil || out == nil {
		s.logger.Warn("outline generation failed, using fallback", "error", err)
		return nil, fallback
	}
	if len(out.SuggestedOutline) == 0 {
		return out.ContentGaps, fallback
	}
	return out.ContentGaps, out.SuggestedOutline
}

// competitors keeps the search ranking. Headings come from the searcher,
// else from the page's markdown.
func competitors(resp *search.Response) []article.Competitor {
	if resp == nil {
		return nil
	}
	out := make([]article.Competitor, 0, len(resp.Results))
	for _, r := range resp.Results {
		headings := r.Headings
		if len(headings) == 0 && r.RawContent != "" {
			headings = markdown.HeadingTexts(r.RawContent, 3)
		}
		out = append(out, article.Competitor{
			URL:      r.URL,
			Title:    r.Title,
			Headings: headings,
			Snippet:  r.Snippet,
		})
	}
	return out
}

// references merges collection matches by score, highest first. Ties keep
// collection order, then match order.
func references(collections []string, matches [][]vector.Match) []article.Reference {
	var out []article.Reference
	for i, ms := range matches {
		for _, m := range ms {
			out = append(out, article.Reference{
				Collection: collections[i],
				Content:    m.Content,
				Metadata:   m.Metadata,
				Score:      m.Score,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Summary renders the brief as markdown.
func Summary(keywords, answer string, r *article.ResearchResult) string {
	b := newBrief()
	b.section("Keywords", keywords)
	if strings.TrimSpace(answer) != "" {
		b.section("Search summary", answer)
	}

	if len(r.Competitors) > 0 {
		items := make([]string, len(r.Competitors))
		for i, c := range r.Competitors {
			label := c.Title
			if label == "" {
				label = c.URL
			}
			items[i] = fmt.Sprintf("%d. %s (%s)", i+1, label, c.URL)
			if len(c.Headings) > 0 {
				items[i] += ": " + strings.Join(c.Headings, " / ")
			}
		}
		b.list("Competitors", items)
	}

	if len(r.ContentGaps) > 0 {
		b.list("Content gaps", r.ContentGaps)
	}

	if len(r.InternalReferences) > 0 {
		items := make([]string, len(r.InternalReferences))
		for i, ref := range r.InternalReferences {
			items[i] = fmt.Sprintf("[%s %.2f] %s", ref.Collection, ref.Score, oneLine(ref.Content, 160))
		}
		b.list("Internal references", items)
	}

	b.list("Suggested outline", r.SuggestedOutline)
	return b.String()
}
