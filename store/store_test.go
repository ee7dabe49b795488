package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
)

func sampleState(id string, phase article.Phase) *article.State {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &article.State{
		ID:          id,
		Title:       "予算管理の基本",
		Persona:     "CFO",
		Phase:       phase,
		SEOKeywords: "予算管理 中小企業",
		Research: &article.ResearchResult{
			Competitors:      []article.Competitor{{URL: "https://a.example", Title: "A", Headings: []string{"導入"}}},
			SuggestedOutline: []string{"導入", "まとめ"},
			SummaryText:      "# Research brief",
			CompletedAt:      now,
		},
		Essences: []article.Essence{
			{Category: article.CategoryFailure, Content: "予算超過", Tags: []string{"budget"}, CreatedAt: now},
			{Category: article.CategoryHook, Content: "冒頭の問い", CreatedAt: now},
		},
		Draft: &article.DraftResult{
			ContentMD:       "# 予算管理の基本\n\n本文",
			TitleCandidates: []string{"予算管理の基本"},
			SNSPosts:        map[string]string{"x": "post", "linkedin": ""},
			Pass:            1,
			GeneratedAt:     now,
		},
		ReviewScore:    70,
		Breakdown:      article.ScoreBreakdown{TargetAppeal: 20, LogicalStructure: 30, SEOFitness: 20},
		ReviewFeedback: "needs numbers",
		RetryCount:     1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// forEachStore runs fn against both implementations.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "noteflow.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		fn(t, db)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
}

func TestStore_RoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := sampleState("art-1", article.PhaseReview)
		require.NoError(t, s.Save(ctx, want))

		got, err := s.Load(ctx, "art-1")
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestStore_SaveReplacesEssences(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		st := sampleState("art-1", article.PhaseWaitingForInput)
		require.NoError(t, s.Save(ctx, st))

		st.Essences = st.Essences[:1]
		st.Phase = article.PhaseDrafting
		require.NoError(t, s.Save(ctx, st))

		got, err := s.Load(ctx, "art-1")
		require.NoError(t, err)
		assert.Equal(t, article.PhaseDrafting, got.Phase)
		assert.Len(t, got.Essences, 1)
	})
}

func TestStore_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, err := s.Load(context.Background(), "missing")
		assert.True(t, nferrors.IsNotFound(err))
		assert.False(t, nferrors.IsPersistence(err))

		err = s.Delete(context.Background(), "missing")
		assert.True(t, nferrors.IsNotFound(err))
	})
}

func TestStore_ListAndDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		a := sampleState("art-a", article.PhaseCompleted)
		b := sampleState("art-b", article.PhaseWaitingForInput)
		b.UpdatedAt = a.UpdatedAt.Add(time.Hour)
		c := sampleState("art-c", article.PhaseCompleted)
		c.IsUploaded = true
		c.PublishedURL = "https://note.example/n/1"
		for _, st := range []*article.State{a, b, c} {
			require.NoError(t, s.Save(ctx, st))
		}

		all, err := s.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "art-b", all[0].ID, "most recently updated first")

		completed, err := s.List(ctx, Filter{Phase: article.PhaseCompleted})
		require.NoError(t, err)
		assert.Len(t, completed, 2)

		no := false
		pending, err := s.List(ctx, Filter{Phase: article.PhaseCompleted, Uploaded: &no})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "art-a", pending[0].ID)
		assert.Len(t, pending[0].Essences, 2)

		limited, err := s.List(ctx, Filter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		require.NoError(t, s.Delete(ctx, "art-a"))
		_, err = s.Load(ctx, "art-a")
		assert.True(t, nferrors.IsNotFound(err))
	})
}

func TestStore_SaveRequiresID(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		err := s.Save(context.Background(), &article.State{Phase: article.PhasePlanning})
		assert.True(t, nferrors.IsInputValidation(err))
	})
}

func TestStore_NoAliasing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		st := sampleState("art-1", article.PhaseDrafting)
		require.NoError(t, s.Save(ctx, st))

		st.Phase = article.PhaseCompleted
		st.Essences[0].Content = "mutated"

		got, err := s.Load(ctx, "art-1")
		require.NoError(t, err)
		assert.Equal(t, article.PhaseDrafting, got.Phase)
		assert.Equal(t, "予算超過", got.Essences[0].Content)
	})
}

func TestSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "noteflow.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), sampleState("art-1", article.PhasePlanning)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var v int
	require.NoError(t, s.db.QueryRow("SELECT version FROM schema_version").Scan(&v))
	assert.Equal(t, currentSchemaVersion, v)

	got, err := s.Load(context.Background(), "art-1")
	require.NoError(t, err)
	assert.Equal(t, article.PhasePlanning, got.Phase)
}

func TestSQLite_ClosedDBIsPersistenceError(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Save(context.Background(), sampleState("art-1", article.PhasePlanning))
	assert.True(t, nferrors.IsPersistence(err))
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemory().Save(ctx, sampleState("art-1", article.PhasePlanning))
	assert.True(t, nferrors.IsPersistence(err))
}
