// Package reranker defines the port interface for cross-encoder reranking.
package reranker

import "context"

// Candidate is one document sent to the reranking backend.
type Candidate struct {
	ID         string
	Content    string
	PriorScore float64
}

// Ranked is one reranked result. Score may be zero when the backend
// returns an ordering without scores.
type Ranked struct {
	ID    string
	Score float64
}

// Reranker reorders candidates by relevance to the query. An empty result
// or an error means "keep the original order" — the call path never fails.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate) ([]Ranked, error)
}
