package resilience

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate caps the total number of concurrent external calls across the process.
// All fan-out work shares one Gate, so the cap holds regardless of how many
// logical branches request concurrency.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate creates a Gate admitting at most n concurrent holders.
func NewGate(n int64) *Gate {
	if n < 1 {
		n = 1
	}
	return &Gate{sem: semaphore.NewWeighted(n)}
}

// Do acquires a slot, runs fn, and releases the slot. It returns the context
// error if the slot cannot be acquired before ctx is done.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn()
}
