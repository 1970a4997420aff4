package service

import (
	"context"

	capdomain "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/exposure"
)

// NamespaceExposure implements the exposure policy over the catalog:
// a namespace with few enough capabilities is exposed verbatim, larger
// ones defer to ranked retrieval.
type NamespaceExposure struct {
	catalog *CatalogService
}

// NewNamespaceExposure creates the catalog-backed exposure policy.
func NewNamespaceExposure(catalog *CatalogService) *NamespaceExposure {
	return &NamespaceExposure{catalog: catalog}
}

// Expose returns the capability ids under the namespace when the set is
// small enough to enumerate, or nil to defer to retrieval.
func (e *NamespaceExposure) Expose(_ context.Context, namespace string) ([]string, error) {
	prefix := capdomain.ParsePath(namespace)
	if prefix.IsZero() {
		return nil, nil
	}

	matched := e.catalog.Catalog().ByNamespace(prefix)
	if len(matched) == 0 || len(matched) > exposure.HintLimit {
		return nil, nil
	}

	ids := make([]string, len(matched))
	for i, d := range matched {
		ids[i] = d.ID
	}
	return ids, nil
}
