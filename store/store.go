package store

import (
	"context"

	"github.com/randalmurphal/noteflow/article"
)

// DefaultDBPath is the default relative path for the SQLite DB.
const DefaultDBPath = "noteflow.db"

// Filter narrows List. Zero values match everything.
type Filter struct {
	Phase    article.Phase
	Uploaded *bool
	Limit    int
}

func (f Filter) match(s *article.State) bool {
	if f.Phase != "" && s.Phase != f.Phase {
		return false
	}
	if f.Uploaded != nil && s.IsUploaded != *f.Uploaded {
		return false
	}
	return true
}

// Store persists article states. Save is a full replace of the article
// and its essences. Load returns errors.ErrNotFound for unknown ids.
// Every other failure matches errors.ErrPersistence.
//
// Implementations never retain the pointer passed to Save nor hand out
// pointers they keep.
type Store interface {
	Save(ctx context.Context, s *article.State) error
	Load(ctx context.Context, id string) (*article.State, error)
	List(ctx context.Context, f Filter) ([]*article.State, error)
	Delete(ctx context.Context, id string) error
}
