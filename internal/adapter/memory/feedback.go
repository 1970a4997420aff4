// Package memory provides in-process adapter implementations used when
// no external backing service is configured.
package memory

import (
	"context"
	"sync"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/feedback"
)

const smoothing = 4.0

type signal struct {
	accepted float64
	rejected float64
}

// FeedbackStore keeps feedback signals in process memory. Signals are
// lost on restart, which is acceptable for single-node deployments.
type FeedbackStore struct {
	mu      sync.RWMutex
	signals map[string]signal
}

// NewFeedbackStore creates an empty in-memory feedback store.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{signals: make(map[string]signal)}
}

func key(capabilityID, normalizedQuery string) string {
	return capabilityID + "\x00" + normalizedQuery
}

// GetBoost returns the smoothed signal in [-1, 1], or 0 without history.
func (s *FeedbackStore) GetBoost(_ context.Context, capabilityID, normalizedQuery string) (float64, error) {
	s.mu.RLock()
	sig, ok := s.signals[key(capabilityID, normalizedQuery)]
	s.mu.RUnlock()
	if !ok {
		return 0, nil
	}
	return (sig.accepted - sig.rejected) / (sig.accepted + sig.rejected + smoothing), nil
}

// RecordOutcome accumulates one feedback observation.
func (s *FeedbackStore) RecordOutcome(_ context.Context, o feedback.Outcome) error {
	weight := o.Weight
	if weight <= 0 {
		weight = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(o.CapabilityID, o.NormalizedQuery)
	sig := s.signals[k]
	if o.Accepted {
		sig.accepted += weight
	} else {
		sig.rejected += weight
	}
	s.signals[k] = sig
	return nil
}
