package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	capdomain "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/retrieval"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/feedback"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/messagequeue"
)

// RetrievalService scores the catalog against a query and assembles the
// candidate shortlist handed to reranking.
type RetrievalService struct {
	catalog  *CatalogService
	embedder *EmbeddingService
	feedback feedback.Store
	tuning   retrieval.Tuning
	queue    messagequeue.Queue
}

// NewRetrievalService creates a retrieval service. feedback and queue may
// be nil: boosts degrade to 0 and events are skipped.
func NewRetrievalService(catalog *CatalogService, embedder *EmbeddingService, fb feedback.Store, tuning retrieval.Tuning, queue messagequeue.Queue) *RetrievalService {
	return &RetrievalService{
		catalog:  catalog,
		embedder: embedder,
		feedback: fb,
		tuning:   tuning.Clamped(),
		queue:    queue,
	}
}

// Tuning returns the clamped tuning in effect.
func (s *RetrievalService) Tuning() retrieval.Tuning { return s.tuning }

// CatalogSize reports the number of entries in the live catalog.
func (s *RetrievalService) CatalogSize() int { return s.catalog.Catalog().Len() }

// Retrieve scores every catalog entry against the query, selects the
// candidate pool by namespace, and unions the lexical top candidates with
// the pure-embedding vector recall. The returned slice is the shortlist
// for reranking, lexical-first.
func (s *RetrievalService) Retrieve(ctx context.Context, q retrieval.Query, primary, fallback []capdomain.Path) []retrieval.Scored {
	start := time.Now()
	catalog := s.catalog.Catalog()
	t := s.tuning

	queryVec, err := s.embedder.EmbedQuery(ctx, q.Folded)
	if err != nil {
		queryVec = nil
	}

	scored := make([]retrieval.Scored, 0, catalog.Len())
	for _, d := range catalog.All() {
		emb := retrieval.Embeddings{}
		if queryVec != nil {
			emb.Semantic = retrieval.Cosine(queryVec, d.Semantic)
			emb.Structural = retrieval.Cosine(queryVec, d.Structural)
		}

		bonus := retrieval.NamespaceBonusFor(d, t, primary, fallback)
		boost := s.boostFor(ctx, d.ID, q)

		scored = append(scored, retrieval.Scored{
			ID:        d.ID,
			Breakdown: retrieval.Score(d, q, t, emb, bonus, boost),
		})
	}

	pools := retrieval.Partition(scored, catalog.Get, primary, fallback)
	pool := pools.Select()

	lexical := make([]retrieval.Scored, len(pool))
	copy(lexical, pool)
	retrieval.SortByTotal(lexical)
	lexical = retrieval.Top(lexical, t.RerankCandidates)

	var candidates []retrieval.Scored
	if queryVec != nil {
		vector := make([]retrieval.Scored, len(pool))
		copy(vector, pool)
		retrieval.SortBySemantic(vector)
		vector = retrieval.Top(vector, t.VectorRecallTopK)
		candidates = retrieval.Union(lexical, vector)
	} else {
		candidates = lexical
	}

	s.publishScored(ctx, q, candidates, time.Since(start))
	return candidates
}

// boostFor reads the historical feedback boost, scaled to the configured
// maximum. Store failure means boost 0; scoring never fails on feedback.
func (s *RetrievalService) boostFor(ctx context.Context, capabilityID string, q retrieval.Query) float64 {
	if s.feedback == nil {
		return 0
	}
	signal, err := s.feedback.GetBoost(ctx, capabilityID, q.Folded)
	if err != nil {
		slog.Warn("feedback boost unavailable", "capability", capabilityID, "error", err)
		return 0
	}
	return signal * s.tuning.MaxFeedbackBoost
}

func (s *RetrievalService) publishScored(ctx context.Context, q retrieval.Query, candidates []retrieval.Scored, took time.Duration) {
	if s.queue == nil {
		return
	}
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	data, err := json.Marshal(messagequeue.RetrievalScoredPayload{Query: q.Folded, Candidates: ids, DurationMs: took.Milliseconds()})
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectRetrievalScored, data); err != nil {
		slog.Warn("publish retrieval.scored failed", "error", err)
	}
}
