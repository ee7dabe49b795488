package links

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/randalmurphal/noteflow/article"
	"github.com/randalmurphal/noteflow/markdown"
	"github.com/randalmurphal/noteflow/store"
	"github.com/randalmurphal/noteflow/vector"
)

// Defaults.
const (
	DefaultMax   = 5
	MaxKeywords  = 10
	snippetRunes = 100
	scanRunes    = 1000
	queryRunes   = 500
)

// Metadata keys read from archive matches.
const (
	MetaArticleID = "article_id"
	MetaTitle     = "title"
	MetaURL       = "url"
)

var (
	boldPhrase   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	headingNoise = regexp.MustCompile(`[【】「」『』（）\[\]\d.:：]`)
	stopWords    = map[string]bool{"必須": true, "重要": true, "注意": true, "ポイント": true, "方法": true, "例": true}
)

// Lister lists stored articles. Implemented by store.Store.
type Lister interface {
	List(ctx context.Context, f store.Filter) ([]*article.State, error)
}

// SimilaritySearcher queries the archive collection.
type SimilaritySearcher interface {
	Query(ctx context.Context, text string, topK int, collection string) ([]vector.Match, error)
}

// Suggester ranks earlier articles as link targets.
type Suggester struct {
	articles   Lister
	similarity SimilaritySearcher
	max        int
	logger     *slog.Logger
}

// Option configures a Suggester.
type Option func(*Suggester)

// WithSimilarity merges archive collection matches into the ranking.
func WithSimilarity(s SimilaritySearcher) Option {
	return func(l *Suggester) { l.similarity = s }
}

// WithMax caps the number of suggestions.
func WithMax(n int) Option {
	return func(l *Suggester) {
		if n > 0 {
			l.max = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Suggester) { l.logger = lg }
}

// New creates a Suggester over the stored articles.
func New(articles Lister, opts ...Option) *Suggester {
	l := &Suggester{articles: articles, max: DefaultMax}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("component", "links")
	return l
}

// Suggest returns link targets for content, best first. The article with
// excludeID is never suggested. No keywords means no suggestions.
func (l *Suggester) Suggest(ctx context.Context, content, excludeID string) ([]article.InternalLink, error) {
	keywords := Keywords(content, MaxKeywords)
	if len(keywords) == 0 {
		return nil, nil
	}

	states, err := l.articles.List(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*article.InternalLink)
	var out []*article.InternalLink
	for _, st := range states {
		if st.ID == excludeID || !linkable(st) {
			continue
		}
		score := Relevance(st, keywords)
		if score == 0 {
			continue
		}
		link := &article.InternalLink{
			ArticleID: st.ID,
			Title:     title(st),
			URL:       st.PublishedURL,
			Score:     score,
			Snippet:   snippet(st),
		}
		byID[st.ID] = link
		out = append(out, link)
	}

	out = append(out, l.archiveMatches(ctx, content, excludeID, byID)...)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > l.max {
		out = out[:l.max]
	}
	links := make([]article.InternalLink, len(out))
	for i, link := range out {
		links[i] = *link
	}
	return links, nil
}

// archiveMatches raises the score of known articles the archive collection
// matches and returns matches for articles not in the store. Query
// failures are logged and ignored.
func (l *Suggester) archiveMatches(ctx context.Context, content, excludeID string, known map[string]*article.InternalLink) []*article.InternalLink {
	if l.similarity == nil {
		return nil
	}
	ms, err := l.similarity.Query(ctx, firstRunes(content, queryRunes), l.max, vector.CollectionArchive)
	if err != nil {
		l.logger.Warn("archive query failed, using keyword matches only", "error", err)
		return nil
	}

	var extra []*article.InternalLink
	for _, m := range ms {
		if m.Score <= 0 {
			continue
		}
		id := m.Metadata[MetaArticleID]
		if id != "" && id == excludeID {
			continue
		}
		if link, ok := known[id]; ok && id != "" {
			link.Score = max(link.Score, min(m.Score, 1))
			continue
		}
		t := strings.TrimSpace(m.Metadata[MetaTitle])
		if t == "" {
			t = markdown.Title(m.Content)
		}
		if t == "" {
			continue
		}
		extra = append(extra, &article.InternalLink{
			ArticleID: id,
			Title:     t,
			URL:       m.Metadata[MetaURL],
			Score:     min(m.Score, 1),
			Snippet:   oneLine(m.Content, snippetRunes),
		})
	}
	return extra
}

// Keywords extracts up to limit link keywords from level one and two
// headings and short bold phrases.
func Keywords(content string, limit int) []string {
	var raw []string
	n := 0
	for _, h := range markdown.Headings(content) {
		if h.Level > 2 {
			continue
		}
		if n == 5 {
			break
		}
		n++
		raw = append(raw, strings.Fields(headingNoise.ReplaceAllString(h.Text, " "))...)
	}
	for i, m := range boldPhrase.FindAllStringSubmatch(content, -1) {
		if i == 10 {
			break
		}
		if utf8.RuneCountInString(m[1]) < 20 {
			raw = append(raw, m[1])
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, kw := range raw {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if utf8.RuneCountInString(kw) < 2 || seen[key] || stopWords[kw] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Relevance scores st against keywords in [0, 1]. Each keyword counts once,
// at the strongest place it appears.
func Relevance(st *article.State, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	t := strings.ToLower(title(st))
	seo := strings.ToLower(st.SEOKeywords)
	var body string
	if st.Draft != nil {
		body = strings.ToLower(firstRunes(st.Draft.ContentMD, scanRunes))
	}

	points := 0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		switch {
		case strings.Contains(t, kw):
			points += 3
		case strings.Contains(seo, kw):
			points += 2
		case strings.Contains(body, kw):
			points++
		}
	}
	return min(float64(points)/float64(3*len(keywords)), 1)
}

// linkable reports whether st is finished enough to link to.
func linkable(st *article.State) bool {
	return st.Phase == article.PhaseCompleted || st.Phase == article.PhaseReview
}

func title(st *article.State) string {
	if st.Title != "" {
		return st.Title
	}
	if t := st.Draft.Title(); t != "" {
		return t
	}
	return st.SEOKeywords
}

func snippet(st *article.State) string {
	if st.Draft == nil {
		return ""
	}
	return oneLine(st.Draft.ContentMD, snippetRunes)
}

func oneLine(s string, n int) string {
	flat := strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(flat) <= n {
		return flat
	}
	return firstRunes(flat, n) + "..."
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
