package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/scoring"
	"github.com/randalmurphal/noteflow/testutil"
)

func TestReview(t *testing.T) {
	tests := []struct {
		name         string
		ta, ls, seo  int
		wantScore    int
		wantPassed   bool
		wantFeedback bool
	}{
		{"passes", 25, 35, 25, 85, true, false},
		{"exactly at threshold", 24, 32, 24, 80, true, false},
		{"one below threshold", 24, 31, 24, 79, false, true},
		{"maximum", 30, 40, 30, 100, true, false},
		{"zero", 0, 0, 0, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := testutil.NewFakeGenerator(testutil.Judgment(tt.ta, tt.ls, tt.seo))
			r, err := New(gen).Review(context.Background(), testutil.SampleDraftContent(), "CFO", testutil.Keywords)
			require.NoError(t, err)

			assert.Equal(t, tt.wantScore, r.Score)
			assert.Equal(t, r.Score, r.Breakdown.Total())
			assert.Equal(t, tt.wantPassed, r.Passed)
			assert.Equal(t, tt.wantFeedback, r.Feedback != "")
			assert.NoError(t, scoring.Verify(r))
			assert.Equal(t, 10, r.TokensIn)
		})
	}
}

func TestReview_ContractViolation(t *testing.T) {
	tests := []struct {
		name        string
		ta, ls, seo int
	}{
		{"target appeal over", 31, 30, 20},
		{"logical structure over", 20, 41, 20},
		{"seo negative", 20, 30, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := testutil.NewFakeGenerator(testutil.Judgment(tt.ta, tt.ls, tt.seo))
			r, err := New(gen).Review(context.Background(), "# draft", "", "k")
			assert.Nil(t, r)
			assert.True(t, nferrors.IsScoringContract(err), "got %v", err)
		})
	}

	t.Run("reported total disagrees", func(t *testing.T) {
		j := testutil.Judgment(20, 30, 20)
		total := 90
		j.Total = &total
		_, err := New(testutil.NewFakeGenerator(j)).Review(context.Background(), "# draft", "", "k")
		assert.True(t, nferrors.IsScoringContract(err))
	})
}

func TestReview_ScorerFailure(t *testing.T) {
	gen := &testutil.FakeGenerator{ScoreErr: errors.New("rate limited")}
	_, err := New(gen).Review(context.Background(), "# draft", "", "k")
	assert.True(t, nferrors.IsGeneration(err))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestReview_EmptyDraft(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	_, err := New(gen).Review(context.Background(), " \n", "", "k")
	assert.True(t, nferrors.IsInputValidation(err))
	assert.Zero(t, gen.ScoreCalls)
}
