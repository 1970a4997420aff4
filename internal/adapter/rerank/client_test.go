package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/reranker"
)

func TestRerank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Query     string   `json:"query"`
			Documents []string `json:"documents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Documents) != 2 {
			t.Errorf("documents = %d, want 2", len(req.Documents))
		}
		_, _ = w.Write([]byte(`{"results": [
			{"index": 1, "relevance_score": 0.91},
			{"index": 0, "relevance_score": 0.12}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bge-reranker-v2-m3")
	ranked, err := c.Rerank(context.Background(), "väder i Kiruna", []reranker.Candidate{
		{ID: "trafikverket", Content: "road conditions"},
		{ID: "smhi", Content: "weather forecasts"},
	})
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("len = %d, want 2", len(ranked))
	}
	if ranked[0].ID != "smhi" || ranked[0].Score != 0.91 {
		t.Errorf("top = %+v, want smhi/0.91", ranked[0])
	}
}

func TestRerankEmptyCandidates(t *testing.T) {
	c := NewClient("http://unused", "m")
	ranked, err := c.Rerank(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if ranked != nil {
		t.Errorf("ranked = %v, want nil", ranked)
	}
}

func TestRerankOutOfRangeIndexSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"index": 5, "relevance_score": 0.9}, {"index": 0, "relevance_score": 0.5}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m")
	ranked, err := c.Rerank(context.Background(), "q", []reranker.Candidate{{ID: "a", Content: "x"}})
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(ranked) != 1 || ranked[0].ID != "a" {
		t.Errorf("ranked = %+v", ranked)
	}
}

func TestRerankServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m")
	if _, err := c.Rerank(context.Background(), "q", []reranker.Candidate{{ID: "a"}}); err == nil {
		t.Fatal("expected error for 503")
	}
}
