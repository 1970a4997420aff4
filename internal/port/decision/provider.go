// Package decision defines the port interface for structured decision calls.
package decision

import "context"

// Request is one bounded decision call. The provider is asked to answer
// with JSON constrained to the schema described in the system prompt; it
// may reason first, so responses are parsed leniently.
type Request struct {
	System    string
	User      string
	MaxTokens int
}

// Response carries the provider's raw text. Extraction of the structured
// payload is the caller's job (strict-then-lenient).
type Response struct {
	Content   string
	TokensIn  int
	TokensOut int
}

// Provider executes decision calls against a language model.
type Provider interface {
	Decide(ctx context.Context, req Request) (Response, error)
}
