// Package feedback defines the port interface for historical feedback signals.
package feedback

import "context"

// Outcome records how a selected capability worked out for a query, so
// future retrievals for similar queries can be nudged toward or away
// from it.
type Outcome struct {
	CapabilityID    string
	NormalizedQuery string
	Accepted        bool
	Weight          float64
}

// Store is the port interface for the historical feedback signal.
// Implementations must never fail scoring: callers treat an error as a
// zero boost.
type Store interface {
	// GetBoost returns a bounded score adjustment for the capability on
	// the given normalized query. Zero when no history exists.
	GetBoost(ctx context.Context, capabilityID, normalizedQuery string) (float64, error)

	// RecordOutcome appends one feedback observation.
	RecordOutcome(ctx context.Context, o Outcome) error
}
