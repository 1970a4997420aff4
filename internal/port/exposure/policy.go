// Package exposure defines the port interface for namespace exposure
// decisions during capability hinting.
package exposure

import "context"

// HintLimit bounds how many capability IDs a hint may enumerate before
// deferring to ranked retrieval.
const HintLimit = 6

// Policy decides which capability IDs may be exposed verbatim for a
// namespace hint. A nil slice means defer to retrieval for that namespace.
type Policy interface {
	Expose(ctx context.Context, namespace string) ([]string, error)
}
