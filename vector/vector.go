package vector

import (
	"context"
	"fmt"
	"sort"
)

// Collection names.
const (
	CollectionKnowledgeBase = "knowledge_base_v2"
	CollectionArchive       = "archive_index_v2"
)

// Document is an entry to index.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Match is a similarity hit. Score is higher for closer matches.
type Match struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}

// Index is implemented by ChromaClient and MemoryIndex.
type Index interface {
	Query(ctx context.Context, text string, topK int, collection string) ([]Match, error)
	Upsert(ctx context.Context, collection string, docs ...Document) error
}

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// SortMatches orders matches by score descending, keeping input order on ties.
func SortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Score > ms[j].Score
	})
}

func validateQuery(text string, topK int, collection string) error {
	if text == "" {
		return fmt.Errorf("empty query text")
	}
	if topK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", topK)
	}
	if collection == "" {
		return fmt.Errorf("collection required")
	}
	return nil
}
