package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLookupProfile(t *testing.T) {
	p, err := LookupProfile("")
	if err != nil {
		t.Fatalf("LookupProfile() error = %v", err)
	}
	if p.Name != ProfileBalanced {
		t.Errorf("default profile = %q, want %q", p.Name, ProfileBalanced)
	}

	ev, _ := LookupProfile("EVIDENCE")
	if len(ev.Include) == 0 {
		t.Error("evidence profile should restrict included domains")
	}

	if _, err := LookupProfile("nope"); err == nil {
		t.Error("LookupProfile(nope) should fail")
	}
}

func TestRerank(t *testing.T) {
	results := []Result{
		{URL: "https://blog.example.com/a"},
		{URL: "https://www.gartner.com/en/finance"},
		{URL: "https://other.example.com/b"},
		{URL: "https://jp.kpmg.com/insights"},
	}

	got := Rerank(results, []string{"gartner.com", "kpmg.com"})
	var urls []string
	for _, r := range got {
		urls = append(urls, r.URL)
	}
	want := []string{
		"https://www.gartner.com/en/finance",
		"https://jp.kpmg.com/insights",
		"https://blog.example.com/a",
		"https://other.example.com/b",
	}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("Rerank() mismatch (-want +got):\n%s", diff)
	}
	if results[0].URL != "https://blog.example.com/a" {
		t.Error("Rerank() must not reorder its input")
	}
}

func TestDomain(t *testing.T) {
	tests := map[string]string{
		"https://www.CFO.com/x": "cfo.com",
		"http://jp.kpmg.com":    "jp.kpmg.com",
		"not a url at all":      "",
	}
	for in, want := range tests {
		if got := Domain(in); got != want {
			t.Errorf("Domain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTavilyClient_Search(t *testing.T) {
	var got tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s, want /search", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tvly-test" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"query":  got.Query,
			"answer": "EPM onboarding takes a quarter",
			"results": []map[string]any{
				{"url": "https://blog.example.com/epm", "title": "Blog", "content": "snippet", "raw_content": "■ 導入の壁\n本文", "score": 0.9},
				{"url": "https://www.deloitte.com/epm", "title": "Deloitte", "content": "snippet", "raw_content": "## 成功要因", "score": 0.8},
			},
		})
	}))
	defer server.Close()

	client, err := NewTavilyClient("tvly-test",
		WithBaseURL(server.URL),
		WithQuerySuffix("FP&A"),
	)
	if err != nil {
		t.Fatalf("NewTavilyClient() error = %v", err)
	}

	resp, err := client.Search(context.Background(), "EPM SaaS onboarding")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got.Query != "EPM SaaS onboarding FP&A" {
		t.Errorf("query = %q", got.Query)
	}
	if len(got.ExcludeDomains) == 0 {
		t.Error("balanced profile should send excluded domains")
	}
	if resp.Answer == "" {
		t.Error("Answer should be decoded")
	}
	if resp.Results[0].URL != "https://www.deloitte.com/epm" {
		t.Errorf("first result = %q, want preferred domain first", resp.Results[0].URL)
	}
	if diff := cmp.Diff([]string{"成功要因"}, resp.Results[0].Headings); diff != "" {
		t.Errorf("Headings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"導入の壁"}, resp.Results[1].Headings); diff != "" {
		t.Errorf("Headings mismatch (-want +got):\n%s", diff)
	}
}

func TestTavilyClient_Errors(t *testing.T) {
	if _, err := NewTavilyClient(""); err == nil {
		t.Error("NewTavilyClient(\"\") should fail")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := NewTavilyClient("tvly-bad", WithBaseURL(server.URL))
	if _, err := client.Search(context.Background(), "kw"); err == nil {
		t.Error("Search() should fail on 401")
	}
	if _, err := client.Search(context.Background(), "  "); err == nil {
		t.Error("Search() should reject an empty query")
	}
}
