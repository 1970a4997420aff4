package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/cache"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/embedding"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/resilience"
)

// Embedding kinds cached per capability.
const (
	EmbeddingSemantic   = "semantic"
	EmbeddingStructural = "structural"
)

// EmbeddingService wraps the embedding provider with a content-hash cache.
// Keys carry the owner id, the embedding kind and a hash of the exact text
// embedded, so a metadata change invalidates the entry implicitly.
type EmbeddingService struct {
	provider embedding.Provider
	cache    cache.Cache
	retry    resilience.RetryPolicy
	ttl      time.Duration
}

// NewEmbeddingService creates an embedding service. provider may be nil,
// in which case every Embed returns a nil vector and callers degrade to
// lexical-only scoring.
func NewEmbeddingService(provider embedding.Provider, c cache.Cache, retry resilience.RetryPolicy, ttl time.Duration) *EmbeddingService {
	return &EmbeddingService{provider: provider, cache: c, retry: retry, ttl: ttl}
}

// Embed returns the embedding vector for text, hitting the cache first.
// A nil provider or an exhausted retry yields (nil, nil): embeddings are
// a best-effort signal, never a turn failure.
func (s *EmbeddingService) Embed(ctx context.Context, ownerID, kind, text string) ([]float32, error) {
	if s.provider == nil || text == "" {
		return nil, nil
	}

	key := embeddingKey(ownerID, kind, text)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var vec []float32
			if err := json.Unmarshal(data, &vec); err == nil {
				return vec, nil
			}
		}
	}

	var vec []float32
	err := resilience.Retry(ctx, s.retry, func() error {
		var embErr error
		vec, embErr = s.provider.Embed(ctx, text)
		return embErr
	})
	if err != nil {
		slog.Warn("embedding unavailable, degrading to lexical signals",
			"owner", ownerID, "kind", kind, "error", err)
		return nil, nil
	}

	if s.cache != nil {
		if data, err := json.Marshal(vec); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				slog.Warn("embedding cache set failed", "error", err)
			}
		}
	}
	return vec, nil
}

// EmbedQuery embeds ad-hoc query text under the shared "query" owner.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.Embed(ctx, "query", EmbeddingSemantic, text)
}

// Clear drops all cached vectors.
func (s *EmbeddingService) Clear(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}

func embeddingKey(ownerID, kind, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%s:%s", ownerID, kind, hex.EncodeToString(sum[:]))
}
