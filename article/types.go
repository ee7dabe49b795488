package article

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// Essences
// =============================================================================

// Category classifies a user-supplied knowledge snippet.
type Category string

const (
	CategoryFailure Category = "failure"
	CategoryOpinion Category = "opinion"
	CategoryTech    Category = "tech"
	CategoryHook    Category = "hook"
)

// Categories lists the accepted essence categories.
var Categories = []Category{CategoryFailure, CategoryOpinion, CategoryTech, CategoryHook}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Essence is a piece of first-hand knowledge the operator injects between
// research and drafting.
type Essence struct {
	Category  Category  `json:"category"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Validate checks the essence fields.
func (e Essence) Validate() error {
	if _, err := ParseCategory(string(e.Category)); err != nil {
		return err
	}
	if strings.TrimSpace(e.Content) == "" {
		return fmt.Errorf("content required")
	}
	for _, tag := range e.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("empty tag")
		}
	}
	return nil
}

// =============================================================================
// Research
// =============================================================================

// Competitor is one web search result as seen by the research stage.
type Competitor struct {
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Headings []string `json:"headings,omitempty"`
	Snippet  string   `json:"snippet,omitempty"`
}

// Reference is an internal knowledge match.
type Reference struct {
	Collection string            `json:"collection"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Score      float64           `json:"score"`
}

// ResearchResult is the structured brief produced by the research stage.
type ResearchResult struct {
	Competitors        []Competitor `json:"competitors"`
	ContentGaps        []string     `json:"contentGaps,omitempty"`
	InternalReferences []Reference  `json:"internalReferences,omitempty"`
	SuggestedOutline   []string     `json:"suggestedOutline"`
	SummaryText        string       `json:"summaryText"`
	CompletedAt        time.Time    `json:"completedAt"`
}

// CompetitorURLs returns competitor URLs in search ranking order.
func (r *ResearchResult) CompetitorURLs() []string {
	urls := make([]string, len(r.Competitors))
	for i, c := range r.Competitors {
		urls[i] = c.URL
	}
	return urls
}

// CompetitorHeadings returns heading outlines keyed by URL.
func (r *ResearchResult) CompetitorHeadings() map[string][]string {
	out := make(map[string][]string, len(r.Competitors))
	for _, c := range r.Competitors {
		out[c.URL] = c.Headings
	}
	return out
}

// Populated reports whether the brief has enough content to draft from.
func (r *ResearchResult) Populated() bool {
	return r != nil && strings.TrimSpace(r.SummaryText) != "" && len(r.SuggestedOutline) > 0
}

// =============================================================================
// Draft
// =============================================================================

// SNS channel identifiers.
const (
	ChannelX        = "x"
	ChannelLinkedIn = "linkedin"
)

// SNSChannels lists the channels a draft always carries a post for.
var SNSChannels = []string{ChannelX, ChannelLinkedIn}

// DraftResult is the output of one drafting pass.
type DraftResult struct {
	ContentMD       string            `json:"contentMd"`
	TitleCandidates []string          `json:"titleCandidates"`
	ImagePrompts    []string          `json:"imagePrompts"`
	SNSPosts        map[string]string `json:"snsPosts"`
	MetaDescription string            `json:"metaDescription,omitempty"`
	ReadMinutes     int               `json:"readMinutes,omitempty"`
	Pass            int               `json:"pass"`
	TokensIn        int               `json:"tokensIn,omitempty"`
	TokensOut       int               `json:"tokensOut,omitempty"`
	GeneratedAt     time.Time         `json:"generatedAt"`

	// InternalLinks are earlier articles worth linking from this draft.
	InternalLinks []InternalLink `json:"internalLinks,omitempty"`
}

// InternalLink suggests an earlier article to link to.
type InternalLink struct {
	ArticleID string  `json:"articleId,omitempty"`
	Title     string  `json:"title"`
	URL       string  `json:"url,omitempty"`
	Score     float64 `json:"score"`
	Snippet   string  `json:"snippet,omitempty"`
}

// Title returns the first title candidate, or empty.
func (d *DraftResult) Title() string {
	if d == nil || len(d.TitleCandidates) == 0 {
		return ""
	}
	return d.TitleCandidates[0]
}

// =============================================================================
// Review
// =============================================================================

// Sub-score bounds and the pass threshold.
const (
	MaxTargetAppeal     = 30
	MaxLogicalStructure = 40
	MaxSEOFitness       = 30
	PassThreshold       = 80
)

// ScoreBreakdown holds the three rubric components.
type ScoreBreakdown struct {
	TargetAppeal     int `json:"targetAppeal"`
	LogicalStructure int `json:"logicalStructure"`
	SEOFitness       int `json:"seoFitness"`
}

// Total returns the sum of the components.
func (b ScoreBreakdown) Total() int {
	return b.TargetAppeal + b.LogicalStructure + b.SEOFitness
}

func (b ScoreBreakdown) String() string {
	return fmt.Sprintf("%d/%d/%d", b.TargetAppeal, b.LogicalStructure, b.SEOFitness)
}

// ReviewResult is the scored outcome of a review pass.
type ReviewResult struct {
	Score      int            `json:"score"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	Passed     bool           `json:"passed"`
	Feedback   string         `json:"feedback,omitempty"`
	TokensIn   int            `json:"tokensIn,omitempty"`
	TokensOut  int            `json:"tokensOut,omitempty"`
	ReviewedAt time.Time      `json:"reviewedAt"`
}
