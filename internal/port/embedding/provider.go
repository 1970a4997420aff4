// Package embedding defines the port interface for embedding providers.
package embedding

import "context"

// Provider turns text into a fixed-length vector. A provider failure is a
// degraded signal, never a failed turn: callers fall back to lexical-only
// scoring.
type Provider interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the provider's vector length.
	Dimensions() int
}
