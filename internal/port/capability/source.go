// Package capability defines the ports for capability discovery and
// invocation.
package capability

import (
	"context"

	domain "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
)

// Source supplies raw capability descriptors at catalog build time.
// Descriptors from a Source are overridden, normalized and classified by
// the catalog builder before entering the catalog.
type Source interface {
	// Name identifies the source ("native", "mcp:weather", ...).
	Name() string

	// List returns the source's capability descriptors.
	List(ctx context.Context) ([]domain.Descriptor, error)
}

// Invoker executes a single capability. The core only needs name,
// description and schema for scoring; invocation happens through here.
type Invoker interface {
	// Invoke runs the capability with validated arguments.
	Invoke(ctx context.Context, capabilityID string, args map[string]any) (string, error)
}
