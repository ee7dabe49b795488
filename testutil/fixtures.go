// Package testutil provides fakes and fixtures for testing.
package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/randalmurphal/noteflow/article"
	"github.com/randalmurphal/noteflow/generator"
	"github.com/randalmurphal/noteflow/scoring"
	"github.com/randalmurphal/noteflow/search"
	"github.com/randalmurphal/noteflow/vector"
)

// FixedTime is the timestamp used by fixtures.
var FixedTime = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

// Keywords are the SEO keywords used by fixtures.
const Keywords = "予算管理 中小企業"

// SampleResearch returns a populated research brief.
func SampleResearch() *article.ResearchResult {
	return &article.ResearchResult{
		Competitors: []article.Competitor{
			{URL: "https://a.example/budget", Title: "予算管理とは", Headings: []string{"予算管理とは", "手順"}},
			{URL: "https://b.example/plan", Title: "事業計画の作り方", Headings: []string{"計画", "実行"}},
		},
		ContentGaps:      []string{"具体的な数値例がない"},
		SuggestedOutline: []string{"導入", "課題の整理", "解決策", "まとめ"},
		SummaryText:      "# Research brief\n\n## Keywords\n\n" + Keywords,
		CompletedAt:      FixedTime,
	}
}

// SampleDraftContent returns a markdown article that passes QuickCheck.
func SampleDraftContent() string {
	var sb strings.Builder
	sb.WriteString("# 予算管理の基本\n\n")
	for _, h := range []string{"導入", "課題の整理", "解決策", "今週の一手"} {
		sb.WriteString("## " + h + "\n\n")
		sb.WriteString(strings.Repeat("予算は経営の羅針盤です。", 60))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// SampleDraft returns a draft result for pass n (1-based).
func SampleDraft(pass int) *article.DraftResult {
	return &article.DraftResult{
		ContentMD:       SampleDraftContent(),
		TitleCandidates: []string{"予算管理の基本", "予算管理入門"},
		ImagePrompts:    []string{"a ledger on a desk"},
		SNSPosts:        map[string]string{article.ChannelX: "予算管理の要点", article.ChannelLinkedIn: "予算管理について書きました"},
		MetaDescription: "予算管理の基本を解説します",
		ReadMinutes:     3,
		Pass:            pass,
		GeneratedAt:     FixedTime,
	}
}

// SampleDraftOutput returns generator output for a valid draft.
func SampleDraftOutput() *generator.DraftOutput {
	d := SampleDraft(1)
	return &generator.DraftOutput{
		ContentMD:       d.ContentMD,
		TitleCandidates: d.TitleCandidates,
		ImagePrompts:    d.ImagePrompts,
		SNSPosts:        d.SNSPosts,
		MetaDescription: d.MetaDescription,
	}
}

// Judgment returns a reviewer judgment with the given component scores.
func Judgment(targetAppeal, logicalStructure, seoFitness int) scoring.Judgment {
	return scoring.Judgment{
		TargetAppeal:         scoring.Component{Score: targetAppeal, Evaluation: "読者の課題に触れている", Improvements: []string{"事例を増やす"}},
		LogicalStructure:     scoring.Component{Score: logicalStructure, Evaluation: "流れは明確"},
		SEOFitness:           scoring.Component{Score: seoFitness, Evaluation: "見出しにキーワードがある"},
		OverallFeedback:      "全体として読みやすい",
		PriorityImprovements: []string{"数値例を追加する"},
	}
}

// Review evaluates Judgment(a, l, s) and fails the test on a contract error.
func Review(t *testing.T, targetAppeal, logicalStructure, seoFitness int) *article.ReviewResult {
	t.Helper()
	r, err := scoring.Evaluate(Judgment(targetAppeal, logicalStructure, seoFitness))
	if err != nil {
		t.Fatalf("Evaluate(%d/%d/%d): %v", targetAppeal, logicalStructure, seoFitness, err)
	}
	return r
}

// Essence returns a valid essence.
func Essence(c article.Category, content string) article.Essence {
	return article.Essence{Category: c, Content: content, CreatedAt: FixedTime}
}

// NewState returns an article positioned at phase with every field that
// phase implies already populated.
func NewState(t *testing.T, id string, phase article.Phase) *article.State {
	t.Helper()
	st := article.New(Keywords).WithID(id)
	st.CreatedAt, st.UpdatedAt = FixedTime, FixedTime
	st.Phase = phase

	ord := phase.Ordinal()
	if ord < 0 {
		t.Fatalf("unknown phase %q", phase)
	}
	if ord >= article.PhaseWaitingForInput.Ordinal() {
		st.Research = SampleResearch()
	}
	if ord >= article.PhaseDrafting.Ordinal() {
		st.Essences = []article.Essence{Essence(article.CategoryFailure, "予算超過で苦労した経験")}
	}
	if ord >= article.PhaseReview.Ordinal() {
		st.Draft = SampleDraft(1)
	}
	if phase == article.PhaseCompleted {
		st.ApplyReview(Review(t, 25, 35, 25))
	}
	return st
}

// SearchResponse returns a canned web search answer.
func SearchResponse() *search.Response {
	return &search.Response{
		Query:  Keywords,
		Answer: "予算管理は計画と実績の差を管理する手法です。",
		Results: []search.Result{
			{URL: "https://a.example/budget", Title: "予算管理とは", Snippet: "予算管理の基本", Score: 0.9, Headings: []string{"予算管理とは", "手順"}},
			{URL: "https://b.example/plan", Title: "事業計画の作り方", Score: 0.8, RawContent: "# 事業計画\n\n## 計画\n\n## 実行\n"},
		},
	}
}

// KnowledgeDocs returns documents for seeding a vector.MemoryIndex.
func KnowledgeDocs() []vector.Document {
	return []vector.Document{
		{ID: "kb-1", Content: "予算管理 中小企業 の月次レビュー手順", Metadata: map[string]string{"source": "wiki"}},
		{ID: "kb-2", Content: "採用計画のテンプレート"},
	}
}
