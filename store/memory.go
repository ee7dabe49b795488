package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
)

// Memory implements Store in process memory. States are cloned on the way
// in and out.
type Memory struct {
	mu       sync.RWMutex
	articles map[string]*article.State
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{articles: make(map[string]*article.State)}
}

// Save stores a copy of st.
func (m *Memory) Save(ctx context.Context, st *article.State) error {
	if err := ctx.Err(); err != nil {
		return nferrors.Persistence("save", err)
	}
	if st == nil || strings.TrimSpace(st.ID) == "" {
		return nferrors.Validation("id", "required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles[st.ID] = st.Clone()
	return nil
}

// Load returns a copy of the stored state.
func (m *Memory) Load(ctx context.Context, id string) (*article.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, nferrors.Persistence("load", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.articles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", nferrors.ErrNotFound, id)
	}
	return st.Clone(), nil
}

// List returns copies, most recently updated first.
func (m *Memory) List(ctx context.Context, f Filter) ([]*article.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, nferrors.Persistence("list", err)
	}
	m.mu.RLock()
	var out []*article.State
	for _, st := range m.articles {
		if f.match(st) {
			out = append(out, st.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Delete removes an article.
func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return nferrors.Persistence("delete", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return fmt.Errorf("%w: %s", nferrors.ErrNotFound, id)
	}
	delete(m.articles, id)
	return nil
}

// Len returns the number of stored articles.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.articles)
}
