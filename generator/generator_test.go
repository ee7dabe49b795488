package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/noteflow/article"
	nfcontext "github.com/randalmurphal/noteflow/context"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/task"
	"github.com/randalmurphal/noteflow/transcript"
)

const draftJSON = "Here you go.\n```json\n" + `{
  "content_md": "# 予算管理の基本\n\n## 導入\n本文",
  "title_candidates": ["予算管理の基本", "予算管理入門"],
  "image_prompts": ["a ledger on a desk"],
  "sns_posts": {"x": "short", "linkedin": "longer"},
  "meta_description": "予算管理の要点"
}` + "\n```"

const reviewJSON = `{
  "target_appeal": {"score": 25, "evaluation": "good", "improvements": ["more examples"]},
  "logical_structure": {"score": 30, "evaluation": "ok"},
  "seo_fitness": {"score": 20},
  "overall_feedback": "solid",
  "strengths": ["clear"],
  "priority_improvements": ["add data"]
}`

// recordingCompleter captures requests and returns canned completions.
type recordingCompleter struct {
	mu       sync.Mutex
	requests []CompleteRequest
	content  string
	err      error
}

func (r *recordingCompleter) Complete(_ context.Context, req CompleteRequest) (*Completion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &Completion{Content: r.content, TokensIn: 100, TokensOut: 50, Model: "test-model"}, nil
}

func TestGenerator_Draft(t *testing.T) {
	c := &recordingCompleter{content: draftJSON}
	gen := New(c)

	out, err := gen.Draft(context.Background(), DraftRequest{
		Keywords: "予算管理",
		Persona:  "CFO",
		Outline:  []string{"導入", "まとめ"},
		Essences: []article.Essence{{Category: article.CategoryFailure, Content: "予算超過の経験", Tags: []string{"budget"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "予算管理の基本", out.TitleCandidates[0])
	assert.Equal(t, "short", out.SNSPosts["x"])
	assert.Equal(t, 100, out.TokensIn)
	assert.Equal(t, 50, out.TokensOut)

	require.Len(t, c.requests, 1)
	req := c.requests[0]
	assert.Equal(t, task.Draft, req.Task)
	assert.NotEmpty(t, req.System, "draft system prompt should be sent")
	assert.Contains(t, req.Prompt, "予算管理")
	assert.Contains(t, req.Prompt, "[FAILURE] 予算超過の経験")
	assert.Contains(t, req.Prompt, "tags: budget")
}

func TestGenerator_Revise(t *testing.T) {
	t.Run("requires feedback", func(t *testing.T) {
		c := &recordingCompleter{content: draftJSON}
		_, err := New(c).Revise(context.Background(), DraftRequest{Keywords: "k"})
		assert.True(t, nferrors.IsGeneration(err))
		assert.Empty(t, c.requests)
	})

	t.Run("renders feedback and breakdown", func(t *testing.T) {
		c := &recordingCompleter{content: draftJSON}
		_, err := New(c).Revise(context.Background(), DraftRequest{
			Keywords:      "k",
			Feedback:      "add concrete numbers",
			PreviousDraft: "old body",
			Breakdown:     article.ScoreBreakdown{TargetAppeal: 20, LogicalStructure: 30, SEOFitness: 15},
		})
		require.NoError(t, err)
		require.Len(t, c.requests, 1)
		assert.Equal(t, task.Revise, c.requests[0].Task)
		assert.Contains(t, c.requests[0].Prompt, "add concrete numbers")
		assert.Contains(t, c.requests[0].Prompt, "Logical structure: 30/40")
		assert.Contains(t, c.requests[0].Prompt, "old body")
	})
}

func TestGenerator_Score(t *testing.T) {
	c := &recordingCompleter{content: reviewJSON}
	out, err := New(c).Score(context.Background(), ScoreRequest{Draft: "# t", Keywords: "k"})
	require.NoError(t, err)

	assert.Equal(t, task.Score, c.requests[0].Task)
	assert.Equal(t, article.ScoreBreakdown{TargetAppeal: 25, LogicalStructure: 30, SEOFitness: 20}, out.Judgment.Breakdown())
	assert.Equal(t, []string{"more examples"}, out.Judgment.TargetAppeal.Improvements)
	assert.Equal(t, "solid", out.Judgment.OverallFeedback)
}

func TestGenerator_Outline(t *testing.T) {
	c := &recordingCompleter{content: `{"content_gaps": ["no numbers", " "], "suggested_outline": ["導入", "", "まとめ"]}`}
	out, err := New(c).Outline(context.Background(), OutlineRequest{
		Keywords:    "k",
		Competitors: []article.Competitor{{URL: "https://a.example", Title: "A", Headings: []string{"h1"}}},
		Answer:      "summary",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"導入", "まとめ"}, out.SuggestedOutline)
	assert.Equal(t, []string{"no numbers"}, out.ContentGaps)
	assert.Empty(t, c.requests[0].System)
	assert.Contains(t, c.requests[0].Prompt, "https://a.example")
}

func TestGenerator_Propose(t *testing.T) {
	c := &recordingCompleter{content: "```json\n" + `{"proposals": [
  {"title": "予算実績差異を3つの視点で読む", "seo_keywords": ["予算実績", " "], "summary": "s", "relevance_score": 0.9},
  {"title": " ", "summary": "untitled"},
  {"title": "FP&A立ち上げの90日", "persona": "経営企画", "source_type": "knowledge_base"}
]}` + "\n```"}

	out, err := New(c).Propose(context.Background(), ProposeRequest{
		Keyword:     "予算管理",
		Persona:     "CFO",
		Count:       5,
		Competitors: []article.Competitor{{URL: "https://a.example", Title: "予算管理とは", Snippet: "基本"}},
		Answer:      "summary",
		Knowledge:   []article.Reference{{Collection: "knowledge_base", Content: "月次レビューの手順"}},
	})
	require.NoError(t, err)

	require.Len(t, out.Proposals, 2)
	first := out.Proposals[0]
	assert.Equal(t, []string{"予算実績"}, first.SEOKeywords)
	assert.Equal(t, "CFO", first.Persona)
	assert.Equal(t, "hybrid", first.SourceType)
	assert.InDelta(t, 0.9, first.Relevance, 1e-9)
	assert.Equal(t, "経営企画", out.Proposals[1].Persona)
	assert.Equal(t, "knowledge_base", out.Proposals[1].SourceType)
	assert.Equal(t, 100, out.TokensIn)

	req := c.requests[0]
	assert.Equal(t, task.Propose, req.Task)
	assert.Contains(t, req.Prompt, "Propose 5 article themes")
	assert.Contains(t, req.Prompt, "予算管理とは (https://a.example): 基本")
	assert.Contains(t, req.Prompt, "月次レビューの手順")
}

func TestGenerator_ProposeUnparseable(t *testing.T) {
	c := &recordingCompleter{content: "no themes today"}
	_, err := New(c).Propose(context.Background(), ProposeRequest{Keyword: "k", Count: 5})
	assert.True(t, nferrors.IsGeneration(err))
}

func TestGenerator_Errors(t *testing.T) {
	tests := []struct {
		name string
		c    *recordingCompleter
	}{
		{"backend error", &recordingCompleter{err: errors.New("boom")}},
		{"empty response", &recordingCompleter{content: "   "}},
		{"not json", &recordingCompleter{content: "I cannot help with that."}},
		{"broken json", &recordingCompleter{content: "```json\n{\"content_md\": \n```"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.c).Draft(context.Background(), DraftRequest{Keywords: "k"})
			require.Error(t, err)
			assert.True(t, nferrors.IsGeneration(err), "want generation error, got %v", err)
		})
	}
}

func TestGenerator_RecordsTranscript(t *testing.T) {
	store, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, store.StartRun("run-1", transcript.RunMetadata{ArticleID: "art-1"}))

	ctx := nfcontext.WithRunID(nfcontext.WithTranscript(context.Background(), store), "run-1")
	c := &recordingCompleter{content: reviewJSON}
	_, err = New(c).Score(ctx, ScoreRequest{Draft: "body"})
	require.NoError(t, err)

	tr, err := store.Load("run-1")
	require.NoError(t, err)
	require.Len(t, tr.Turns, 3) // system, user, assistant
	assert.Equal(t, transcript.RoleAssistant, tr.Turns[2].Role)
	assert.Equal(t, reviewJSON, tr.Turns[2].Content)
	assert.Equal(t, "test-model", tr.Turns[2].Model)
}

func TestFlowgraphCompleter(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses(draftJSON)
	gen := New(NewFlowgraphCompleter(mock))

	out, err := gen.Draft(context.Background(), DraftRequest{Keywords: "予算管理"})
	require.NoError(t, err)
	assert.Equal(t, "予算管理入門", out.TitleCandidates[1])
	assert.Equal(t, 1, mock.CallCount())
}

func TestFlowgraphCompleter_ClientPerModel(t *testing.T) {
	var created []string
	c := &FlowgraphCompleter{
		selector: task.NewSelector(),
		newClient: func(modelName string) llm.Client {
			created = append(created, modelName)
			return llm.NewMockClient(`{"content_gaps": [], "suggested_outline": ["a"]}`)
		},
		clients: make(map[string]llm.Client),
	}

	for _, tt := range []task.Type{task.Draft, task.Revise, task.Score, task.Draft} {
		comp, err := c.Complete(context.Background(), CompleteRequest{Task: tt, Prompt: "p"})
		require.NoError(t, err)
		assert.Equal(t, string(task.SelectModel(tt)), comp.Model)
	}

	// Draft and Revise share a model.
	assert.Len(t, created, 2)
}

func TestFlowgraphCompleter_Error(t *testing.T) {
	mock := llm.NewMockClient("").WithCompleteFunc(func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, errors.New("cli exited 1")
	})
	_, err := New(NewFlowgraphCompleter(mock)).Score(context.Background(), ScoreRequest{Draft: "x"})
	require.Error(t, err)
	assert.True(t, nferrors.IsGeneration(err))
	assert.Contains(t, err.Error(), "cli exited 1")
}

func TestNewOpenAICompleter(t *testing.T) {
	_, err := NewOpenAICompleter(OpenAIConfig{})
	assert.Error(t, err)

	c, err := NewOpenAICompleter(OpenAIConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, c.model)
}

func TestDecodeJSON(t *testing.T) {
	codeDraft := "{\"content_md\": \"# T\\n\\n```go\\nfmt.Println(1)\\n```\\n\", \"title_candidates\": [\"T\"]}"

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "text\n```json\n{\"content_md\":\"a\"}\n```\nmore", "a"},
		{"plain fence", "```\n{\"content_md\":\"b\"}\n```", "b"},
		{"bare", `{"content_md":"c"}`, "c"},
		{"prose around", "Sure! {\"content_md\":\"d\"} Hope that helps.", "d"},
		{"code block in bare body", codeDraft, "# T\n\n```go\nfmt.Println(1)\n```\n"},
		{"code block in json fence", "```json\n" + codeDraft + "\n```", "# T\n\n```go\nfmt.Println(1)\n```\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				ContentMD string `json:"content_md"`
			}
			if err := decodeJSON(tt.input, &out); err != nil {
				t.Fatalf("decodeJSON() error = %v", err)
			}
			if out.ContentMD != tt.want {
				t.Errorf("content_md = %q, want %q", out.ContentMD, tt.want)
			}
		})
	}
}

func TestDecodeJSON_NoObject(t *testing.T) {
	var v map[string]any
	if err := decodeJSON(strings.Repeat(" ", 3), &v); !errors.Is(err, errNoJSON) {
		t.Errorf("decodeJSON(blank) = %v, want errNoJSON", err)
	}
	if err := decodeJSON("nothing here", &v); !errors.Is(err, errNoJSON) {
		t.Errorf("decodeJSON(prose) = %v, want errNoJSON", err)
	}
}
