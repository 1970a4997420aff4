package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	capdomain "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
	capport "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/capability"
)

// CatalogService builds and owns the in-memory capability catalog. The
// catalog is built once per session from ordered sources plus operator
// overrides; Rebuild swaps the whole catalog atomically.
type CatalogService struct {
	embedder  *EmbeddingService
	overrides map[string]capdomain.Override

	mu       sync.RWMutex
	catalog  *capdomain.Catalog
	invokers map[string]capport.Invoker
}

// NewCatalogService creates a catalog service. overrides are keyed by
// capability id and applied before normalization.
func NewCatalogService(embedder *EmbeddingService, overrides []capdomain.Override) *CatalogService {
	byID := make(map[string]capdomain.Override, len(overrides))
	for _, o := range overrides {
		byID[o.ID] = o
	}
	empty, _ := capdomain.NewCatalog(nil)
	return &CatalogService{
		embedder:  embedder,
		overrides: byID,
		catalog:   empty,
		invokers:  map[string]capport.Invoker{},
	}
}

// Build assembles the catalog from the given sources: override, normalize,
// classify, compile the input validator and precompute embeddings for each
// descriptor. The finished catalog replaces the previous one atomically.
func (s *CatalogService) Build(ctx context.Context, sources []capport.Source) error {
	var descriptors []capdomain.Descriptor
	invokers := map[string]capport.Invoker{}

	for _, src := range sources {
		listed, err := src.List(ctx)
		if err != nil {
			return fmt.Errorf("list capabilities from %s: %w", src.Name(), err)
		}

		invoker, _ := src.(capport.Invoker)

		for _, d := range listed {
			if o, ok := s.overrides[d.ID]; ok {
				d = o.Apply(d)
			}
			d = capdomain.Normalize(d)
			d.Namespace = capdomain.Classify(d)

			validator, err := capdomain.CompileValidator(d.InputSchema)
			if err != nil {
				slog.Warn("invalid capability input schema, accepting any arguments",
					"capability", d.ID, "source", src.Name(), "error", err)
				validator = nil
			}
			d.Validate = validator

			s.embedDescriptor(ctx, &d)

			descriptors = append(descriptors, d)
			if invoker != nil {
				invokers[d.ID] = invoker
			}
		}

		slog.Info("capability source loaded", "source", src.Name(), "capabilities", len(listed))
	}

	catalog, err := capdomain.NewCatalog(descriptors)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	s.mu.Lock()
	s.catalog = catalog
	s.invokers = invokers
	s.mu.Unlock()

	slog.Info("capability catalog built", "size", catalog.Len())
	return nil
}

// Catalog returns the current catalog snapshot.
func (s *CatalogService) Catalog() *capdomain.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Invoke validates args against the capability's compiled schema and
// dispatches to the source that contributed it.
func (s *CatalogService) Invoke(ctx context.Context, capabilityID string, args map[string]any) (string, error) {
	s.mu.RLock()
	catalog := s.catalog
	invoker := s.invokers[capabilityID]
	s.mu.RUnlock()

	d, ok := catalog.Get(capabilityID)
	if !ok {
		return "", fmt.Errorf("unknown capability %s", capabilityID)
	}
	if d.Validate != nil {
		if err := d.Validate(args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", capabilityID, err)
		}
	}
	if invoker == nil {
		return "", fmt.Errorf("capability %s has no invoker", capabilityID)
	}
	return invoker.Invoke(ctx, capabilityID, args)
}

// embedDescriptor fills in missing embeddings through the cached embedding
// service. Precomputed vectors from the source are left untouched.
func (s *CatalogService) embedDescriptor(ctx context.Context, d *capdomain.Descriptor) {
	if s.embedder == nil {
		return
	}
	if d.Semantic == nil {
		vec, err := s.embedder.Embed(ctx, d.ID, EmbeddingSemantic, semanticText(*d))
		if err == nil {
			d.Semantic = vec
		}
	}
	if d.Structural == nil && len(d.InputSchema) > 0 {
		vec, err := s.embedder.Embed(ctx, d.ID, EmbeddingStructural, string(d.InputSchema))
		if err == nil {
			d.Structural = vec
		}
	}
}

// semanticText assembles the prose the semantic embedding is computed
// from: name, description, keywords, examples and identity fields.
func semanticText(d capdomain.Descriptor) string {
	parts := []string{d.Name, d.Description}
	parts = append(parts, d.Keywords...)
	parts = append(parts, d.ExampleQueries...)
	for _, f := range []string{
		d.Identity.MainIdentifier,
		d.Identity.CoreActivity,
		d.Identity.UniqueScope,
		d.Identity.GeographicScope,
	} {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, "\n")
}
