package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/retrieval"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/cache"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/reranker"
)

// Provenance values recorded per candidate in the rerank trace.
const (
	ProvenanceLexical  = "lexical"
	ProvenanceRerank   = "rerank"
	ProvenanceFallback = "fallback"
)

// RankedCandidate is one entry of the final candidate ordering handed to
// agent selection.
type RankedCandidate struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	Provenance string  `json:"provenance"`
}

// RerankTrace is the retained record of one rerank pass, cached per
// (session, normalized query) so identical calls within a session are
// idempotent and inspectable.
type RerankTrace struct {
	Query      string            `json:"query"`
	Ranked     []RankedCandidate `json:"ranked"`
	Breakdowns map[string]retrieval.Breakdown `json:"breakdowns"`
	RerankUsed bool              `json:"rerank_used"`
	CreatedAt  time.Time         `json:"created_at"`
}

// RerankService reorders the retrieval shortlist through an external
// cross-encoder, building contrastive documents so near-duplicate
// capabilities in the same namespace cluster are pushed apart.
type RerankService struct {
	catalog *CatalogService
	backend reranker.Reranker
	cache   cache.Cache
	ttl     time.Duration
}

// NewRerankService creates a rerank service. backend may be nil: the
// shortlist order is then passed through unchanged.
func NewRerankService(catalog *CatalogService, backend reranker.Reranker, c cache.Cache, ttl time.Duration) *RerankService {
	return &RerankService{catalog: catalog, backend: backend, cache: c, ttl: ttl}
}

// Rerank returns the final candidate ordering for the shortlist. A second
// call with the same session and normalized query returns the cached
// ordering without touching the backend.
func (s *RerankService) Rerank(ctx context.Context, sessionID string, q retrieval.Query, shortlist []retrieval.Scored) []RankedCandidate {
	if len(shortlist) == 0 {
		return nil
	}

	key := traceKey(sessionID, q)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var trace RerankTrace
			if err := json.Unmarshal(data, &trace); err == nil {
				return trace.Ranked
			}
		}
	}

	ranked, used := s.rerankOnce(ctx, q, shortlist)

	if s.cache != nil {
		trace := RerankTrace{
			Query:      q.Folded,
			Ranked:     ranked,
			Breakdowns: breakdownsByID(shortlist),
			RerankUsed: used,
			CreatedAt:  time.Now().UTC(),
		}
		if data, err := json.Marshal(trace); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				slog.Warn("rerank trace cache set failed", "error", err)
			}
		}
	}
	return ranked
}

// Trace returns the cached trace for a (session, query) pair, if present.
func (s *RerankService) Trace(ctx context.Context, sessionID string, q retrieval.Query) (RerankTrace, bool) {
	if s.cache == nil {
		return RerankTrace{}, false
	}
	data, ok, err := s.cache.Get(ctx, traceKey(sessionID, q))
	if err != nil || !ok {
		return RerankTrace{}, false
	}
	var trace RerankTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return RerankTrace{}, false
	}
	return trace, true
}

// rerankOnce calls the backend and merges its ordering with the original
// shortlist. Backend unavailable or empty result keeps the original order.
func (s *RerankService) rerankOnce(ctx context.Context, q retrieval.Query, shortlist []retrieval.Scored) ([]RankedCandidate, bool) {
	if s.backend == nil {
		return passThrough(shortlist, ProvenanceLexical), false
	}

	candidates := make([]reranker.Candidate, len(shortlist))
	for i, sc := range shortlist {
		candidates[i] = reranker.Candidate{
			ID:         sc.ID,
			Content:    s.contrastiveDoc(sc.ID),
			PriorScore: sc.Total(),
		}
	}

	results, err := s.backend.Rerank(ctx, q.Raw, candidates)
	if err != nil || len(results) == 0 {
		if err != nil {
			slog.Warn("reranker unavailable, keeping retrieval order", "error", err)
		}
		return passThrough(shortlist, ProvenanceFallback), false
	}

	ranked := make([]RankedCandidate, 0, len(shortlist))
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.ID] = true
		ranked = append(ranked, RankedCandidate{ID: r.ID, Score: r.Score, Provenance: ProvenanceRerank})
	}
	// Candidates the backend dropped keep their retrieval order at the tail.
	for _, sc := range shortlist {
		if !seen[sc.ID] {
			ranked = append(ranked, RankedCandidate{ID: sc.ID, Score: sc.Total(), Provenance: ProvenanceFallback})
		}
	}
	return ranked, true
}

// contrastiveDoc builds the rerank document for a capability: its own
// description followed by NOT-terms collected from the keywords and
// excludes of sibling capabilities in the same namespace cluster.
func (s *RerankService) contrastiveDoc(capabilityID string) string {
	catalog := s.catalog.Catalog()
	d, ok := catalog.Get(capabilityID)
	if !ok {
		return capabilityID
	}

	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteString(": ")
	b.WriteString(d.Description)

	var notTerms []string
	seen := map[string]bool{}
	own := map[string]bool{}
	for _, kw := range d.Keywords {
		own[strings.ToLower(kw)] = true
	}
	for _, sib := range catalog.Siblings(d) {
		for _, term := range append(append([]string{}, sib.Keywords...), sib.Excludes...) {
			folded := strings.ToLower(term)
			if folded == "" || own[folded] || seen[folded] {
				continue
			}
			seen[folded] = true
			notTerms = append(notTerms, term)
		}
	}
	for _, term := range d.Excludes {
		folded := strings.ToLower(term)
		if !seen[folded] && !own[folded] {
			seen[folded] = true
			notTerms = append(notTerms, term)
		}
	}

	if len(notTerms) > 0 {
		b.WriteString("\nNOT: ")
		b.WriteString(strings.Join(notTerms, ", "))
	}
	return b.String()
}

func passThrough(shortlist []retrieval.Scored, provenance string) []RankedCandidate {
	ranked := make([]RankedCandidate, len(shortlist))
	for i, sc := range shortlist {
		ranked[i] = RankedCandidate{ID: sc.ID, Score: sc.Total(), Provenance: provenance}
	}
	return ranked
}

func breakdownsByID(shortlist []retrieval.Scored) map[string]retrieval.Breakdown {
	m := make(map[string]retrieval.Breakdown, len(shortlist))
	for _, sc := range shortlist {
		m[sc.ID] = sc.Breakdown
	}
	return m
}

func traceKey(sessionID string, q retrieval.Query) string {
	return "trace:" + sessionID + ":" + q.Folded
}
