package article

import (
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	nferrors "github.com/randalmurphal/noteflow/errors"
)

// MaxRetries bounds review-driven correction cycles per article.
const MaxRetries = 1

// State is the complete state of one article.
type State struct {
	// Identification
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Persona string `json:"persona,omitempty"`

	Phase       Phase  `json:"phase"`
	SEOKeywords string `json:"seoKeywords,omitempty"`

	Research *ResearchResult `json:"research,omitempty"`
	Essences []Essence       `json:"essences,omitempty"`
	Draft    *DraftResult    `json:"draft,omitempty"`

	ReviewScore    int            `json:"reviewScore"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	ReviewFeedback string         `json:"reviewFeedback,omitempty"`
	RetryCount     int            `json:"retryCount"`

	// Set only through the publish path.
	IsUploaded   bool   `json:"isUploaded"`
	PublishedURL string `json:"publishedUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates a state in PhasePlanning with a fresh id.
func New(keywords string) *State {
	now := time.Now().UTC()
	return &State{
		ID:          NewID(),
		Phase:       PhasePlanning,
		SEOKeywords: strings.TrimSpace(keywords),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// WithID sets a caller-chosen id.
func (s *State) WithID(id string) *State {
	s.ID = id
	return s
}

// WithTitle sets the working title.
func (s *State) WithTitle(title string) *State {
	s.Title = title
	return s
}

// WithPersona sets the target reader persona.
func (s *State) WithPersona(persona string) *State {
	s.Persona = persona
	return s
}

// Clone returns a deep copy. Mutating the copy never affects s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	if s.Research != nil {
		r := *s.Research
		r.Competitors = nil
		for _, comp := range s.Research.Competitors {
			comp.Headings = append([]string(nil), comp.Headings...)
			r.Competitors = append(r.Competitors, comp)
		}
		r.ContentGaps = append([]string(nil), s.Research.ContentGaps...)
		r.SuggestedOutline = append([]string(nil), s.Research.SuggestedOutline...)
		r.InternalReferences = nil
		for _, ref := range s.Research.InternalReferences {
			ref.Metadata = copyMap(ref.Metadata)
			r.InternalReferences = append(r.InternalReferences, ref)
		}
		c.Research = &r
	}
	if s.Essences != nil {
		c.Essences = make([]Essence, len(s.Essences))
		for i, e := range s.Essences {
			e.Tags = append([]string(nil), e.Tags...)
			c.Essences[i] = e
		}
	}
	if s.Draft != nil {
		d := *s.Draft
		d.TitleCandidates = append([]string(nil), s.Draft.TitleCandidates...)
		d.ImagePrompts = append([]string(nil), s.Draft.ImagePrompts...)
		d.SNSPosts = copyMap(s.Draft.SNSPosts)
		d.InternalLinks = append([]InternalLink(nil), s.Draft.InternalLinks...)
		c.Draft = &d
	}
	return &c
}

// AddEssence appends an essence. Essences are accepted only while the
// article waits for input.
func (s *State) AddEssence(e Essence) error {
	if s.Phase != PhaseWaitingForInput {
		return nferrors.Validation("essence", "article %s is %s, essences are accepted only while %s",
			s.ID, s.Phase, PhaseWaitingForInput)
	}
	if err := e.Validate(); err != nil {
		return nferrors.Validation("essence", "%v", err)
	}
	e.Content = strings.TrimSpace(e.Content)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.Essences = append(s.Essences, e)
	return nil
}

// Touch updates the modification time.
func (s *State) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// =============================================================================
// State Validation
// =============================================================================

// Requirement defines a state prerequisite
type Requirement string

const (
	RequireID       Requirement = "id"
	RequireKeywords Requirement = "seo_keywords"
	RequireResearch Requirement = "research"
	RequireDraft    Requirement = "draft"
	RequireReview   Requirement = "review"
)

// Validate checks if state has required fields. Failures wrap
// errors.ErrInputValidation.
func (s *State) Validate(requirements ...Requirement) error {
	for _, req := range requirements {
		switch req {
		case RequireID:
			if strings.TrimSpace(s.ID) == "" {
				return nferrors.Validation(string(req), "required")
			}
		case RequireKeywords:
			if strings.TrimSpace(s.SEOKeywords) == "" {
				return nferrors.Validation(string(req), "required")
			}
		case RequireResearch:
			if !s.Research.Populated() {
				return nferrors.Validation(string(req), "research summary not populated")
			}
		case RequireDraft:
			if s.Draft == nil || strings.TrimSpace(s.Draft.ContentMD) == "" {
				return nferrors.Validation(string(req), "draft content empty")
			}
		case RequireReview:
			if !s.ReviewMeaningful() {
				return nferrors.Validation(string(req), "no review in phase %s", s.Phase)
			}
		default:
			return fmt.Errorf("unknown requirement: %s", req)
		}
	}
	return nil
}

// =============================================================================
// Review Routing
// =============================================================================

// ReviewMeaningful reports whether ReviewScore carries a review outcome.
func (s *State) ReviewMeaningful() bool {
	return s.Phase == PhaseReview || s.Phase == PhaseCompleted
}

// Passed reports whether the recorded review met the threshold.
func (s *State) Passed() bool {
	return s.ReviewMeaningful() && s.ReviewScore >= PassThreshold
}

// CanRetryReview returns true if a correction cycle is still available.
func (s *State) CanRetryReview() bool {
	return s.RetryCount < MaxRetries
}

// ForcedCompletion reports whether the article completed below threshold
// after exhausting its correction cycle.
func (s *State) ForcedCompletion() bool {
	return s.Phase == PhaseCompleted && s.ReviewScore < PassThreshold
}

// ApplyReview records a review outcome on the state.
func (s *State) ApplyReview(r *ReviewResult) {
	s.ReviewScore = r.Score
	s.Breakdown = r.Breakdown
	if r.Passed {
		s.ReviewFeedback = ""
	} else {
		s.ReviewFeedback = r.Feedback
	}
}

// MarkUploaded records a successful publish.
func (s *State) MarkUploaded(url string) error {
	if s.Phase != PhaseCompleted {
		return nferrors.Validation("phase", "article %s is %s, only completed articles can be published", s.ID, s.Phase)
	}
	s.IsUploaded = true
	s.PublishedURL = url
	s.Touch()
	return nil
}

// =============================================================================
// State Summary
// =============================================================================

// Summary returns a human-readable summary of the state
func (s *State) Summary() string {
	var status string
	switch {
	case s.IsUploaded:
		status = "published"
	case s.ForcedCompletion():
		status = "completed below threshold"
	case s.Phase == PhaseCompleted:
		status = "completed"
	default:
		status = string(s.Phase)
	}

	score := "-"
	if s.ReviewMeaningful() && s.Draft != nil {
		score = fmt.Sprintf("%d (%s)", s.ReviewScore, s.Breakdown)
	}

	return fmt.Sprintf("Article %s [%s]: %q essences=%d retries=%d score=%s",
		s.ID, status, s.SEOKeywords, len(s.Essences), s.RetryCount, score)
}

// =============================================================================
// Helper Functions
// =============================================================================

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID generates an article id.
func NewID() string {
	suffix, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		// Fallback to timestamp-based suffix on entropy failure
		return fmt.Sprintf("art-%x", time.Now().UnixNano())
	}
	return "art-" + suffix
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
