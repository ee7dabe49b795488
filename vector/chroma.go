package vector

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	nfhttp "github.com/randalmurphal/noteflow/http"
)

// ChromaClient queries a Chroma server over its v1 REST API.
type ChromaClient struct {
	http     *nfhttp.Client
	embedder Embedder
	logger   *slog.Logger

	mu  sync.Mutex
	ids map[string]string // collection name -> id
}

// ChromaConfig configures ChromaClient.
type ChromaConfig struct {
	BaseURL    string
	Embedder   Embedder
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewChromaClient creates a client. An embedder is required because the
// REST API accepts vectors, not raw query text.
func NewChromaClient(cfg ChromaConfig) (*ChromaClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("chroma base url required")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("chroma embedder required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromaClient{
		http: nfhttp.NewClient(nfhttp.ClientConfig{
			Client:      cfg.HTTPClient,
			BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
			ServiceName: "chroma",
			Logger:      logger,
		}),
		embedder: cfg.Embedder,
		logger:   logger.With("component", "vector"),
		ids:      make(map[string]string),
	}, nil
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// collectionID resolves and caches a collection id, creating the
// collection when it does not exist.
func (c *ChromaClient) collectionID(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	id, ok := c.ids[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	var col chromaCollection
	body := map[string]any{
		"name":          name,
		"get_or_create": true,
		"metadata":      map[string]string{"hnsw:space": "cosine"},
	}
	if err := c.http.Post(ctx, "/api/v1/collections", body, &col); err != nil {
		return "", fmt.Errorf("resolve collection %s: %w", name, err)
	}
	if col.ID == "" {
		return "", fmt.Errorf("resolve collection %s: empty id", name)
	}

	c.mu.Lock()
	c.ids[name] = col.ID
	c.mu.Unlock()
	return col.ID, nil
}

type chromaQueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]*string        `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

// Query embeds text and returns the topK nearest documents. Score is
// 1 - cosine distance.
func (c *ChromaClient) Query(ctx context.Context, text string, topK int, collection string) ([]Match, error) {
	if err := validateQuery(text, topK, collection); err != nil {
		return nil, err
	}
	id, err := c.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}
	vecs, err := c.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors, want 1", len(vecs))
	}

	var resp chromaQueryResponse
	req := map[string]any{
		"query_embeddings": vecs,
		"n_results":        topK,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if err := c.http.Post(ctx, "/api/v1/collections/"+url.PathEscape(id)+"/query", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(resp.IDs[0]))
	for i, docID := range resp.IDs[0] {
		m := Match{ID: docID}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) && resp.Documents[0][i] != nil {
			m.Content = *resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			m.Metadata = stringifyMetadata(resp.Metadatas[0][i])
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			m.Score = 1 - resp.Distances[0][i]
		}
		matches = append(matches, m)
	}
	SortMatches(matches)

	c.logger.Debug("similarity query",
		"collection", collection,
		"top_k", topK,
		"matches", len(matches))
	return matches, nil
}

// Upsert embeds and stores documents.
func (c *ChromaClient) Upsert(ctx context.Context, collection string, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}
	id, err := c.collectionID(ctx, collection)
	if err != nil {
		return err
	}

	texts := make([]string, len(docs))
	ids := make([]string, len(docs))
	metas := make([]map[string]string, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document %d: id required", i)
		}
		texts[i] = d.Content
		ids[i] = d.ID
		metas[i] = d.Metadata
		if metas[i] == nil {
			metas[i] = map[string]string{}
		}
	}
	vecs, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	req := map[string]any{
		"ids":        ids,
		"embeddings": vecs,
		"documents":  texts,
		"metadatas":  metas,
	}
	return c.http.Post(ctx, "/api/v1/collections/"+url.PathEscape(id)+"/upsert", req, nil)
}

func stringifyMetadata(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}
