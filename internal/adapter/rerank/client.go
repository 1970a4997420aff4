// Package rerank provides an HTTP client for a cross-encoder rerank
// service exposing a Cohere-style /rerank endpoint.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/reranker"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/resilience"
)

// Client talks to the rerank service.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a rerank client bound to one model.
func NewClient(baseURL, model string) *Client {
	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores candidates against the query using the cross-encoder.
// Results carry the candidate IDs, ordered by descending relevance.
func (c *Client) Rerank(ctx context.Context, query string, candidates []reranker.Candidate) ([]reranker.Ranked, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	docs := make([]string, len(candidates))
	for i, cand := range candidates {
		docs[i] = cand.Content
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: docs,
		TopN:      len(docs),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	data, err := c.doRequest(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	var resp rerankResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal rerank response: %w", err)
	}

	ranked := make([]reranker.Ranked, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Index < 0 || r.Index >= len(candidates) {
			continue
		}
		ranked = append(ranked, reranker.Ranked{
			ID:    candidates[r.Index].ID,
			Score: r.RelevanceScore,
		})
	}
	return ranked, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("rerank API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
