package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	nfhttp "github.com/randalmurphal/noteflow/http"
	"github.com/randalmurphal/noteflow/markdown"
)

// DefaultBaseURL is the Tavily API endpoint.
const DefaultBaseURL = "https://api.tavily.com"

// DefaultMaxResults is the number of competitor articles requested.
const DefaultMaxResults = 5

// Result is one ranked web result.
type Result struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Snippet    string   `json:"content"`
	RawContent string   `json:"raw_content,omitempty"`
	Score      float64  `json:"score"`
	Headings   []string `json:"-"`
}

// Response is a search answer plus its ranked results.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// TavilyClient searches the web with Tavily.
type TavilyClient struct {
	http        *nfhttp.Client
	apiKey      string
	profile     Profile
	maxResults  int
	querySuffix string
	logger      *slog.Logger
}

// Option configures TavilyClient.
type Option func(*tavilyConfig)

type tavilyConfig struct {
	baseURL     string
	httpClient  *http.Client
	profile     Profile
	maxResults  int
	querySuffix string
	timeout     time.Duration
	logger      *slog.Logger
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *tavilyConfig) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *tavilyConfig) { c.httpClient = hc }
}

// WithProfile sets the domain profile.
func WithProfile(p Profile) Option {
	return func(c *tavilyConfig) { c.profile = p }
}

// WithMaxResults sets how many results are requested.
func WithMaxResults(n int) Option {
	return func(c *tavilyConfig) { c.maxResults = n }
}

// WithQuerySuffix appends domain terms to every query.
func WithQuerySuffix(s string) Option {
	return func(c *tavilyConfig) { c.querySuffix = strings.TrimSpace(s) }
}

// WithTimeout bounds each search request.
func WithTimeout(d time.Duration) Option {
	return func(c *tavilyConfig) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *tavilyConfig) { c.logger = l }
}

// NewTavilyClient creates a Tavily client. The API key is required.
func NewTavilyClient(apiKey string, opts ...Option) (*TavilyClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("tavily api key required")
	}
	profile, _ := LookupProfile(ProfileBalanced)
	cfg := &tavilyConfig{
		baseURL:    DefaultBaseURL,
		profile:    profile,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &TavilyClient{
		http: nfhttp.NewClient(nfhttp.ClientConfig{
			Client:      cfg.httpClient,
			BaseURL:     cfg.baseURL,
			ServiceName: "tavily",
			Timeout:     cfg.timeout,
			Logger:      cfg.logger,
			BeforeRequest: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+apiKey)
			},
		}),
		apiKey:      apiKey,
		profile:     cfg.profile,
		maxResults:  cfg.maxResults,
		querySuffix: cfg.querySuffix,
		logger:      cfg.logger.With("component", "search"),
	}, nil
}

type tavilyRequest struct {
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	MaxResults        int      `json:"max_results"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
}

// Search runs one query. Results keep Tavily's ranking except that
// preferred domains move to the front.
func (c *TavilyClient) Search(ctx context.Context, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if c.querySuffix != "" {
		query = query + " " + c.querySuffix
	}

	req := tavilyRequest{
		Query:             query,
		SearchDepth:       "advanced",
		MaxResults:        c.maxResults,
		IncludeAnswer:     true,
		IncludeRawContent: true,
		IncludeDomains:    c.profile.Include,
		ExcludeDomains:    c.profile.Exclude,
	}

	var resp Response
	if err := c.http.Post(ctx, "/search", req, &resp); err != nil {
		c.logger.Warn("search failed", "query", query, "transient", nfhttp.Transient(err), "error", err)
		return nil, err
	}

	for i := range resp.Results {
		resp.Results[i].Headings = markdown.LooseHeadings(resp.Results[i].RawContent, 20)
	}
	resp.Results = Rerank(resp.Results, c.profile.Prefer)

	c.logger.Debug("search complete",
		"query", query,
		"profile", c.profile.Name,
		"results", len(resp.Results))
	return &resp, nil
}
