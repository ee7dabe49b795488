package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
)

// Component is one rubric line as judged by the reviewer.
type Component struct {
	Score        int      `json:"score"`
	Evaluation   string   `json:"evaluation,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
}

// Judgment is the reviewer's raw output.
type Judgment struct {
	TargetAppeal         Component `json:"target_appeal"`
	LogicalStructure     Component `json:"logical_structure"`
	SEOFitness           Component `json:"seo_fitness"`
	OverallFeedback      string    `json:"overall_feedback,omitempty"`
	Strengths            []string  `json:"strengths,omitempty"`
	PriorityImprovements []string  `json:"priority_improvements,omitempty"`

	// Total is optional. When the reviewer reports one it must equal the sum.
	Total *int `json:"total,omitempty"`
}

// Breakdown returns the component scores.
func (j Judgment) Breakdown() article.ScoreBreakdown {
	return article.ScoreBreakdown{
		TargetAppeal:     j.TargetAppeal.Score,
		LogicalStructure: j.LogicalStructure.Score,
		SEOFitness:       j.SEOFitness.Score,
	}
}

type bound struct {
	name  string
	value int
	max   int
}

// CheckBreakdown verifies each component is within its bound.
func CheckBreakdown(b article.ScoreBreakdown) error {
	for _, c := range []bound{
		{"target_appeal", b.TargetAppeal, article.MaxTargetAppeal},
		{"logical_structure", b.LogicalStructure, article.MaxLogicalStructure},
		{"seo_fitness", b.SEOFitness, article.MaxSEOFitness},
	} {
		if c.value < 0 || c.value > c.max {
			return nferrors.Contract("%s = %d, want 0-%d", c.name, c.value, c.max)
		}
	}
	return nil
}

// Passed applies the threshold to a total.
func Passed(total int) bool {
	return total >= article.PassThreshold
}

// Evaluate validates a judgment and produces the review result.
func Evaluate(j Judgment) (*article.ReviewResult, error) {
	b := j.Breakdown()
	if err := CheckBreakdown(b); err != nil {
		return nil, err
	}
	total := b.Total()
	if j.Total != nil && *j.Total != total {
		return nil, nferrors.Contract("reported total %d != sum of components %d", *j.Total, total)
	}

	result := &article.ReviewResult{
		Score:      total,
		Breakdown:  b,
		Passed:     Passed(total),
		ReviewedAt: time.Now().UTC(),
	}
	if !result.Passed {
		result.Feedback = RenderFeedback(j)
	}
	return result, nil
}

// Verify checks an already-built result against the rubric. The workflow
// engine calls it before committing a review.
func Verify(r *article.ReviewResult) error {
	if r == nil {
		return nferrors.Contract("missing review result")
	}
	if err := CheckBreakdown(r.Breakdown); err != nil {
		return err
	}
	if r.Breakdown.Total() != r.Score {
		return nferrors.Contract("score %d != sum of components %d", r.Score, r.Breakdown.Total())
	}
	if r.Passed != Passed(r.Score) {
		return nferrors.Contract("passed=%v inconsistent with score %d", r.Passed, r.Score)
	}
	if r.Passed == (strings.TrimSpace(r.Feedback) != "") {
		return nferrors.Contract("feedback must be present exactly when the review fails")
	}
	return nil
}

// RenderFeedback formats the reviewer's judgment as markdown for the
// correction pass. It never returns an empty string.
func RenderFeedback(j Judgment) string {
	b := j.Breakdown()
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Total score: %d/100 (pass at %d)\n\n", b.Total(), article.PassThreshold)
	writeComponent(&sb, "Target appeal", j.TargetAppeal, article.MaxTargetAppeal)
	writeComponent(&sb, "Logical structure", j.LogicalStructure, article.MaxLogicalStructure)
	writeComponent(&sb, "SEO fitness", j.SEOFitness, article.MaxSEOFitness)

	if strings.TrimSpace(j.OverallFeedback) != "" {
		sb.WriteString("## Overall feedback\n\n")
		sb.WriteString(strings.TrimSpace(j.OverallFeedback))
		sb.WriteString("\n\n")
	}
	writeList(&sb, "Strengths", j.Strengths)
	writeList(&sb, "Priority improvements", j.PriorityImprovements)

	return strings.TrimSpace(sb.String())
}

func writeComponent(sb *strings.Builder, name string, c Component, limit int) {
	fmt.Fprintf(sb, "### %s: %d/%d\n\n", name, c.Score, limit)
	if e := strings.TrimSpace(c.Evaluation); e != "" {
		sb.WriteString(e)
		sb.WriteString("\n\n")
	}
	for _, imp := range c.Improvements {
		if imp = strings.TrimSpace(imp); imp != "" {
			fmt.Fprintf(sb, "- %s\n", imp)
		}
	}
	if len(c.Improvements) > 0 {
		sb.WriteString("\n")
	}
}

func writeList(sb *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", header)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", strings.TrimSpace(item))
	}
	sb.WriteString("\n")
}
