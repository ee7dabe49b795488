package workflow

import (
	"fmt"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
)

// Trigger names the event that fires a transition.
type Trigger string

// Triggers, one per edge of the transition table.
const (
	TriggerKeywordsConfirmed Trigger = "keywords_confirmed"
	TriggerResearchCompleted Trigger = "research_completed"
	TriggerInputConfirmed    Trigger = "input_confirmed"
	TriggerDraftProduced     Trigger = "draft_produced"
	TriggerReviewPassed      Trigger = "review_passed"
	TriggerReviewFailed      Trigger = "review_failed"
	TriggerReviewExhausted   Trigger = "review_exhausted"
)

// Transition is one edge. Guard must accept the state before the edge is
// taken; Apply runs after the guard and before the phase changes.
type Transition struct {
	From    article.Phase
	Trigger Trigger
	To      article.Phase
	Guard   func(*article.State) error
	Apply   func(*article.State)
}

// Transitions is the complete edge set. No other phase change is possible.
var Transitions = []Transition{
	{
		From:    article.PhasePlanning,
		Trigger: TriggerKeywordsConfirmed,
		To:      article.PhaseResearching,
		Guard:   requires(article.RequireKeywords),
	},
	{
		From:    article.PhaseResearching,
		Trigger: TriggerResearchCompleted,
		To:      article.PhaseWaitingForInput,
		Guard:   requires(article.RequireResearch),
	},
	{
		From:    article.PhaseWaitingForInput,
		Trigger: TriggerInputConfirmed,
		To:      article.PhaseDrafting,
	},
	{
		From:    article.PhaseDrafting,
		Trigger: TriggerDraftProduced,
		To:      article.PhaseReview,
		Guard:   requires(article.RequireDraft),
	},
	{
		From:    article.PhaseReview,
		Trigger: TriggerReviewPassed,
		To:      article.PhaseCompleted,
		Guard: func(s *article.State) error {
			if s.ReviewScore < article.PassThreshold {
				return fmt.Errorf("score %d below %d", s.ReviewScore, article.PassThreshold)
			}
			return nil
		},
	},
	{
		From:    article.PhaseReview,
		Trigger: TriggerReviewFailed,
		To:      article.PhaseDrafting,
		Guard: func(s *article.State) error {
			if s.ReviewScore >= article.PassThreshold {
				return fmt.Errorf("score %d passed", s.ReviewScore)
			}
			if !s.CanRetryReview() {
				return fmt.Errorf("retry budget exhausted (%d/%d)", s.RetryCount, article.MaxRetries)
			}
			return nil
		},
		Apply: func(s *article.State) { s.RetryCount++ },
	},
	{
		From:    article.PhaseReview,
		Trigger: TriggerReviewExhausted,
		To:      article.PhaseCompleted,
		Guard: func(s *article.State) error {
			if s.ReviewScore >= article.PassThreshold {
				return fmt.Errorf("score %d passed", s.ReviewScore)
			}
			if s.CanRetryReview() {
				return fmt.Errorf("retry still available (%d/%d)", s.RetryCount, article.MaxRetries)
			}
			return nil
		},
	},
}

func requires(reqs ...article.Requirement) func(*article.State) error {
	return func(s *article.State) error { return s.Validate(reqs...) }
}

// Lookup finds the edge leaving from on trigger.
func Lookup(from article.Phase, trigger Trigger) (Transition, bool) {
	for _, t := range Transitions {
		if t.From == from && t.Trigger == trigger {
			return t, true
		}
	}
	return Transition{}, false
}

// Fire takes the edge for trigger on s. s is modified only on success.
func Fire(s *article.State, trigger Trigger) (Transition, error) {
	t, ok := Lookup(s.Phase, trigger)
	if !ok {
		return Transition{}, nferrors.Validation("phase", "no transition from %s on %s", s.Phase, trigger)
	}
	if t.Guard != nil {
		if err := t.Guard(s); err != nil {
			return Transition{}, nferrors.Validation("phase", "%s -> %s: %v", t.From, t.To, err)
		}
	}
	if t.Apply != nil {
		t.Apply(s)
	}
	s.Phase = t.To
	s.Touch()
	return t, nil
}

// ReviewTrigger picks the edge leaving Review for the recorded score.
func ReviewTrigger(s *article.State) Trigger {
	switch {
	case s.ReviewScore >= article.PassThreshold:
		return TriggerReviewPassed
	case s.CanRetryReview():
		return TriggerReviewFailed
	default:
		return TriggerReviewExhausted
	}
}
