package draft

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/generator"
	"github.com/randalmurphal/noteflow/markdown"
	"github.com/randalmurphal/noteflow/testutil"
)

func input() Input {
	return Input{
		Research: testutil.SampleResearch(),
		Essences: []article.Essence{testutil.Essence(article.CategoryOpinion, "予算は守るものではなく使うもの")},
		Persona:  "CFO",
		Keywords: testutil.Keywords,
	}
}

func TestGenerate_FirstPass(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	d, err := New(gen).Generate(context.Background(), input())
	require.NoError(t, err)

	drafts, revisions, _ := gen.Calls()
	assert.Equal(t, 1, drafts)
	assert.Zero(t, revisions)

	req := gen.DraftRequests[0]
	assert.Equal(t, testutil.SampleResearch().SuggestedOutline, req.Outline)
	assert.Equal(t, testutil.SampleResearch().ContentGaps, req.Gaps)
	assert.Len(t, req.Essences, 1)
	assert.Empty(t, req.Feedback)

	assert.Equal(t, 1, d.Pass)
	assert.Equal(t, "予算管理の基本", d.Title())
	assert.Equal(t, markdown.ReadMinutes(d.ContentMD), d.ReadMinutes)
	assert.False(t, d.GeneratedAt.IsZero())
}

type stubLinker struct {
	links     []article.InternalLink
	err       error
	content   string
	excludeID string
}

func (l *stubLinker) Suggest(_ context.Context, content, excludeID string) ([]article.InternalLink, error) {
	l.content, l.excludeID = content, excludeID
	return l.links, l.err
}

func TestGenerate_InternalLinks(t *testing.T) {
	in := input()
	in.ArticleID = "art-1"

	t.Run("attached", func(t *testing.T) {
		linker := &stubLinker{links: []article.InternalLink{{ArticleID: "art-0", Title: "予算実績の読み方", Score: 0.6}}}
		d, err := New(testutil.NewFakeGenerator(), WithLinker(linker)).Generate(context.Background(), in)
		require.NoError(t, err)

		assert.Equal(t, linker.links, d.InternalLinks)
		assert.Equal(t, "art-1", linker.excludeID)
		assert.Equal(t, d.ContentMD, linker.content)
	})

	t.Run("failure keeps the draft", func(t *testing.T) {
		linker := &stubLinker{err: testutil.ErrInjected}
		d, err := New(testutil.NewFakeGenerator(), WithLinker(linker)).Generate(context.Background(), in)
		require.NoError(t, err)
		assert.NotEmpty(t, d.ContentMD)
		assert.Empty(t, d.InternalLinks)
	})
}

func TestGenerate_CorrectionPass(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	in := input()
	feedback := "数値例を追加してください"
	in.Feedback = &feedback
	in.Breakdown = article.ScoreBreakdown{TargetAppeal: 20, LogicalStructure: 30, SEOFitness: 20}
	in.PreviousDraft = "old"
	in.Pass = 2

	d, err := New(gen).Generate(context.Background(), in)
	require.NoError(t, err)

	drafts, revisions, _ := gen.Calls()
	assert.Zero(t, drafts)
	require.Equal(t, 1, revisions)
	req := gen.ReviseRequests[0]
	assert.Equal(t, feedback, req.Feedback)
	assert.Equal(t, in.Breakdown, req.Breakdown)
	assert.Equal(t, "old", req.PreviousDraft)
	assert.Equal(t, 2, d.Pass)
}

func TestGenerate_Normalizes(t *testing.T) {
	long := strings.Repeat("あ", 300)
	gen := &testutil.FakeGenerator{DraftOut: &generator.DraftOutput{
		ContentMD:       "# 見出しから取るタイトル\n\n本文の最初の段落です。",
		TitleCandidates: []string{" ", ""},
		SNSPosts:        map[string]string{article.ChannelX: long},
	}}

	d, err := New(gen).Generate(context.Background(), input())
	require.NoError(t, err)

	assert.Equal(t, []string{"見出しから取るタイトル"}, d.TitleCandidates)
	assert.Equal(t, MaxXPostRunes, utf8.RuneCountInString(d.SNSPosts[article.ChannelX]))
	for _, ch := range article.SNSChannels {
		_, ok := d.SNSPosts[ch]
		assert.True(t, ok, "channel %s missing", ch)
	}
	assert.Equal(t, "本文の最初の段落です。", d.MetaDescription)
	assert.Equal(t, 1, d.ReadMinutes)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name string
		gen  *testutil.FakeGenerator
		in   func() Input
		want func(error) bool
	}{
		{
			name: "generator error",
			gen:  &testutil.FakeGenerator{DraftErr: errors.New("timeout")},
			in:   input,
			want: nferrors.IsGeneration,
		},
		{
			name: "empty content",
			gen:  &testutil.FakeGenerator{DraftOut: &generator.DraftOutput{ContentMD: "  ", TitleCandidates: []string{"t"}}},
			in:   input,
			want: nferrors.IsGeneration,
		},
		{
			name: "no title anywhere",
			gen:  &testutil.FakeGenerator{DraftOut: &generator.DraftOutput{ContentMD: "本文だけ"}},
			in:   input,
			want: nferrors.IsGeneration,
		},
		{
			name: "research missing",
			gen:  testutil.NewFakeGenerator(),
			in: func() Input {
				in := input()
				in.Research = nil
				return in
			},
			want: nferrors.IsInputValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.gen).Generate(context.Background(), tt.in())
			require.Error(t, err)
			assert.Nil(t, d)
			assert.True(t, tt.want(err), "unexpected error class: %v", err)
		})
	}
}

func TestMetaDescription(t *testing.T) {
	content := "# タイトル\n\n" + strings.Repeat("説明文。", 50)
	got := MetaDescription(content)
	assert.Equal(t, MaxMetaDescriptionRunes, utf8.RuneCountInString(got))
	assert.False(t, strings.HasPrefix(got, "タイトル"))
}
