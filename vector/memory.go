package vector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode"
)

// MemoryIndex is an in-process index scored by character bigram cosine
// similarity. Bigrams work for Japanese text without a tokenizer.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string][]memoryEntry
}

type memoryEntry struct {
	doc    Document
	vector map[string]float64
	norm   float64
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{collections: make(map[string][]memoryEntry)}
}

// Upsert adds or replaces documents by id.
func (m *MemoryIndex) Upsert(_ context.Context, collection string, docs ...Document) error {
	if collection == "" {
		return fmt.Errorf("collection required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.collections[collection]
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = fmt.Sprintf("%s-%d", collection, len(entries))
		}
		vec := bigrams(doc.Content)
		entry := memoryEntry{doc: doc, vector: vec, norm: norm(vec)}

		replaced := false
		for j := range entries {
			if entries[j].doc.ID == doc.ID {
				entries[j] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			entries = append(entries, entry)
		}
	}
	m.collections[collection] = entries
	return nil
}

// Query returns up to topK matches with a positive score.
func (m *MemoryIndex) Query(_ context.Context, text string, topK int, collection string) ([]Match, error) {
	if err := validateQuery(text, topK, collection); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := bigrams(text)
	qn := norm(q)

	var out []Match
	for _, e := range m.collections[collection] {
		score := cosine(q, qn, e.vector, e.norm)
		if score <= 0 {
			continue
		}
		out = append(out, Match{
			ID:       e.doc.ID,
			Content:  e.doc.Content,
			Metadata: e.doc.Metadata,
			Score:    score,
		})
	}
	SortMatches(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Len returns the number of documents in a collection.
func (m *MemoryIndex) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func bigrams(s string) map[string]float64 {
	var runes []rune
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			runes = append(runes, r)
		} else {
			runes = append(runes, ' ')
		}
	}
	out := make(map[string]float64)
	for i := 0; i+1 < len(runes); i++ {
		if runes[i] == ' ' || runes[i+1] == ' ' {
			continue
		}
		out[string(runes[i:i+2])]++
	}
	return out
}

func norm(v map[string]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func cosine(a map[string]float64, an float64, b map[string]float64, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for k, x := range a {
		dot += x * b[k]
	}
	return dot / (an * bn)
}
