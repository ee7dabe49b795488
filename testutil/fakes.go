package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/randalmurphal/noteflow/article"
	"github.com/randalmurphal/noteflow/generator"
	"github.com/randalmurphal/noteflow/notify"
	"github.com/randalmurphal/noteflow/scoring"
	"github.com/randalmurphal/noteflow/search"
	"github.com/randalmurphal/noteflow/store"
	"github.com/randalmurphal/noteflow/vector"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

// =============================================================================
// Search fakes
// =============================================================================

// FakeSearcher is a canned web searcher.
type FakeSearcher struct {
	mu       sync.Mutex
	Response *search.Response
	Err      error
	Queries  []string
}

// Search implements research.WebSearcher.
func (f *FakeSearcher) Search(ctx context.Context, query string) (*search.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Queries = append(f.Queries, query)
	if f.Err != nil {
		return nil, f.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Response == nil {
		return SearchResponse(), nil
	}
	return f.Response, nil
}

// Calls returns the number of searches made.
func (f *FakeSearcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Queries)
}

// FakeSimilarity returns canned matches per collection.
type FakeSimilarity struct {
	mu      sync.Mutex
	Matches map[string][]vector.Match
	Err     error
	Queried []string
}

// Query implements research.SimilaritySearcher.
func (f *FakeSimilarity) Query(ctx context.Context, text string, topK int, collection string) ([]vector.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Queried = append(f.Queried, collection)
	if f.Err != nil {
		return nil, f.Err
	}
	ms := f.Matches[collection]
	if len(ms) > topK {
		ms = ms[:topK]
	}
	return ms, nil
}

// Calls returns the number of queries made.
func (f *FakeSimilarity) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Queried)
}

// =============================================================================
// Generator fake
// =============================================================================

// FakeGenerator stands in for generator.Generator. Judgments are returned
// in order; the last one repeats.
type FakeGenerator struct {
	mu sync.Mutex

	DraftOut   *generator.DraftOutput
	Judgments  []scoring.Judgment
	OutlineOut *generator.OutlineOutput
	ProposeOut *generator.ProposeOutput

	DraftErr   error
	ScoreErr   error
	OutlineErr error
	ProposeErr error

	DraftRequests  []generator.DraftRequest
	ReviseRequests []generator.DraftRequest
	ScoreCalls     int
	OutlineCalls   int
	ProposeCalls   []generator.ProposeRequest
}

// NewFakeGenerator returns a generator whose reviews score the given
// judgments in turn.
func NewFakeGenerator(judgments ...scoring.Judgment) *FakeGenerator {
	return &FakeGenerator{Judgments: judgments}
}

// Draft implements draft.Generator.
func (f *FakeGenerator) Draft(ctx context.Context, req generator.DraftRequest) (*generator.DraftOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DraftRequests = append(f.DraftRequests, req)
	return f.draftOutput(ctx)
}

// Revise implements draft.Generator.
func (f *FakeGenerator) Revise(ctx context.Context, req generator.DraftRequest) (*generator.DraftOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReviseRequests = append(f.ReviseRequests, req)
	return f.draftOutput(ctx)
}

func (f *FakeGenerator) draftOutput(ctx context.Context) (*generator.DraftOutput, error) {
	if f.DraftErr != nil {
		return nil, f.DraftErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := SampleDraftOutput()
	if f.DraftOut != nil {
		c := *f.DraftOut
		out = &c
	}
	return out, nil
}

// Score implements review.Scorer.
func (f *FakeGenerator) Score(ctx context.Context, req generator.ScoreRequest) (*generator.ScoreOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ScoreCalls++
	if f.ScoreErr != nil {
		return nil, f.ScoreErr
	}
	if len(f.Judgments) == 0 {
		return &generator.ScoreOutput{Judgment: Judgment(25, 35, 25)}, nil
	}
	i := f.ScoreCalls - 1
	if i >= len(f.Judgments) {
		i = len(f.Judgments) - 1
	}
	return &generator.ScoreOutput{Judgment: f.Judgments[i], TokensIn: 10, TokensOut: 5}, nil
}

// Outline implements research.Outliner.
func (f *FakeGenerator) Outline(ctx context.Context, req generator.OutlineRequest) (*generator.OutlineOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OutlineCalls++
	if f.OutlineErr != nil {
		return nil, f.OutlineErr
	}
	if f.OutlineOut == nil {
		return &generator.OutlineOutput{
			ContentGaps:      []string{"具体例が少ない"},
			SuggestedOutline: []string{"導入", "本論", "まとめ"},
		}, nil
	}
	return f.OutlineOut, nil
}

// Propose implements propose.Generator.
func (f *FakeGenerator) Propose(ctx context.Context, req generator.ProposeRequest) (*generator.ProposeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ProposeCalls = append(f.ProposeCalls, req)
	if f.ProposeErr != nil {
		return nil, f.ProposeErr
	}
	if f.ProposeOut != nil {
		c := *f.ProposeOut
		c.Proposals = append([]generator.Theme(nil), f.ProposeOut.Proposals...)
		return &c, nil
	}
	return &generator.ProposeOutput{Proposals: []generator.Theme{
		{Title: "予算実績差異を読む3つの視点", SEOKeywords: []string{"予算実績"}, SourceType: "hybrid", Relevance: 0.9},
		{Title: "中小企業の予算管理を90日で立ち上げる", SEOKeywords: []string{"予算管理 中小企業"}, SourceType: "knowledge_base"},
	}}, nil
}

// Calls returns draft, revise and score call counts.
func (f *FakeGenerator) Calls() (drafts, revisions, scores int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.DraftRequests), len(f.ReviseRequests), f.ScoreCalls
}

// =============================================================================
// Store fake
// =============================================================================

// FailingStore wraps a store and fails saves on demand. FailAfter counts
// successful saves before every later save fails; negative never fails.
type FailingStore struct {
	store.Store

	mu        sync.Mutex
	FailAfter int
	saves     int
	loads     int
}

// NewFailingStore wraps inner. It fails nothing until FailSavesAfter is set.
func NewFailingStore(inner store.Store) *FailingStore {
	return &FailingStore{Store: inner, FailAfter: -1}
}

// FailSavesAfter makes every save after the next n fail.
func (f *FailingStore) FailSavesAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailAfter = f.saves + n
}

// Save implements store.Store.
func (f *FailingStore) Save(ctx context.Context, st *article.State) error {
	f.mu.Lock()
	if f.FailAfter >= 0 && f.saves >= f.FailAfter {
		f.mu.Unlock()
		return ErrInjected
	}
	f.saves++
	f.mu.Unlock()
	return f.Store.Save(ctx, st)
}

// Load implements store.Store.
func (f *FailingStore) Load(ctx context.Context, id string) (*article.State, error) {
	f.mu.Lock()
	f.loads++
	f.mu.Unlock()
	return f.Store.Load(ctx, id)
}

// Counts returns successful saves and attempted loads.
func (f *FailingStore) Counts() (saves, loads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves, f.loads
}

// =============================================================================
// Notifier fake
// =============================================================================

// RecordingNotifier keeps every event it receives.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	Err    error
}

// Notify implements notify.Notifier.
func (n *RecordingNotifier) Notify(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.Err
}

// Events returns a copy of the received events.
func (n *RecordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

// OfType returns received events of type t.
func (n *RecordingNotifier) OfType(t notify.EventType) []notify.Event {
	var out []notify.Event
	for _, e := range n.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
