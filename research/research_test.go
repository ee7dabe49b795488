package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/generator"
	"github.com/randalmurphal/noteflow/testutil"
	"github.com/randalmurphal/noteflow/vector"
)

func knowledge() *testutil.FakeSimilarity {
	return &testutil.FakeSimilarity{Matches: map[string][]vector.Match{
		vector.CollectionKnowledgeBase: {
			{Content: "kb low", Score: 0.4},
			{Content: "kb high", Score: 0.9},
		},
		vector.CollectionArchive: {
			{Content: "archive tie", Score: 0.9},
			{Content: "archive mid", Score: 0.6},
		},
	}}
}

func TestAnalyze(t *testing.T) {
	web := &testutil.FakeSearcher{}
	sim := knowledge()
	gen := testutil.NewFakeGenerator()

	res, err := New(web, sim, WithOutliner(gen)).Analyze(context.Background(), "  "+testutil.Keywords+" ")
	require.NoError(t, err)

	assert.Equal(t, []string{testutil.Keywords}, web.Queries, "keywords are trimmed")
	assert.ElementsMatch(t, []string{vector.CollectionKnowledgeBase, vector.CollectionArchive}, sim.Queried)

	// Search ranking is kept.
	require.Len(t, res.Competitors, 2)
	assert.Equal(t, "https://a.example/budget", res.Competitors[0].URL)
	assert.Equal(t, []string{"予算管理とは", "手順"}, res.Competitors[0].Headings)
	// Headings fall back to the page's markdown.
	assert.Equal(t, []string{"事業計画", "計画", "実行"}, res.Competitors[1].Headings)

	// References by score, ties in collection order.
	contents := make([]string, len(res.InternalReferences))
	for i, r := range res.InternalReferences {
		contents[i] = r.Content
	}
	assert.Equal(t, []string{"kb high", "archive tie", "archive mid", "kb low"}, contents)
	assert.Equal(t, vector.CollectionArchive, res.InternalReferences[1].Collection)

	assert.Equal(t, []string{"導入", "本論", "まとめ"}, res.SuggestedOutline)
	assert.Equal(t, []string{"具体例が少ない"}, res.ContentGaps)
	assert.True(t, res.Populated())
	assert.False(t, res.CompletedAt.IsZero())

	for _, want := range []string{"# Research brief", testutil.Keywords, "予算管理とは", "kb high", "## Suggested outline", "- 本論"} {
		assert.Contains(t, res.SummaryText, want)
	}
}

// nilOutliner answers with neither an outline nor an error.
type nilOutliner struct{}

func (nilOutliner) Outline(context.Context, generator.OutlineRequest) (*generator.OutlineOutput, error) {
	return nil, nil
}

func TestAnalyze_FallbackOutline(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"no outliner", nil},
		{"outliner error", []Option{WithOutliner(&testutil.FakeGenerator{OutlineErr: errors.New("model down")})}},
		{"outliner returns nothing", []Option{WithOutliner(nilOutliner{})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(&testutil.FakeSearcher{}, knowledge(), tt.opts...).Analyze(context.Background(), "k")
			require.NoError(t, err)
			assert.Equal(t, FallbackOutline, res.SuggestedOutline)
			assert.Empty(t, res.ContentGaps)
			assert.True(t, res.Populated())
		})
	}

	// The fallback is copied, never shared.
	res, _ := New(&testutil.FakeSearcher{}, knowledge()).Analyze(context.Background(), "k")
	res.SuggestedOutline[0] = "changed"
	assert.Equal(t, "導入", FallbackOutline[0])
}

func TestAnalyze_LookupFailures(t *testing.T) {
	tests := []struct {
		name   string
		web    *testutil.FakeSearcher
		sim    *testutil.FakeSimilarity
		source string
	}{
		{"web search", &testutil.FakeSearcher{Err: errors.New("503")}, knowledge(), "web_search"},
		{"similarity", &testutil.FakeSearcher{}, &testutil.FakeSimilarity{Err: errors.New("chroma down")}, "similarity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(tt.web, tt.sim).Analyze(context.Background(), "k")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, nferrors.IsExternalLookup(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.source)
		})
	}
}

func TestAnalyze_EmptyKeywords(t *testing.T) {
	web := &testutil.FakeSearcher{}
	_, err := New(web, knowledge()).Analyze(context.Background(), "   ")
	assert.True(t, nferrors.IsInputValidation(err))
	assert.Zero(t, web.Calls())
}

func TestAnalyze_MemoryIndex(t *testing.T) {
	idx := vector.NewMemoryIndex()
	require.NoError(t, idx.Upsert(context.Background(), vector.CollectionKnowledgeBase, testutil.KnowledgeDocs()...))

	res, err := New(&testutil.FakeSearcher{}, idx, WithTopK(1)).Analyze(context.Background(), testutil.Keywords)
	require.NoError(t, err)
	require.Len(t, res.InternalReferences, 1)
	assert.True(t, strings.Contains(res.InternalReferences[0].Content, "予算管理"))
}
