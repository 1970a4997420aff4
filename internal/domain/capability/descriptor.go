// Package capability defines the capability catalog domain: descriptors,
// namespace paths, metadata normalization and input schema validation.
package capability

import "errors"

// Kind tags how a capability is dispatched.
type Kind string

const (
	// KindNative is a capability implemented in-process.
	KindNative Kind = "native"
	// KindExternalProtocol is a capability reached over an external
	// protocol bridge (MCP tool on a remote server).
	KindExternalProtocol Kind = "external-protocol"
)

// Identity carries the discriminating fields used to tell near-duplicate
// capabilities apart during contrastive reranking.
type Identity struct {
	MainIdentifier  string `json:"main_identifier,omitempty"`
	CoreActivity    string `json:"core_activity,omitempty"`
	UniqueScope     string `json:"unique_scope,omitempty"`
	GeographicScope string `json:"geographic_scope,omitempty"`
}

// Descriptor is the immutable catalog record for one capability.
// Descriptors are created once at catalog build time and never mutated;
// a session reboot rebuilds the catalog wholesale.
type Descriptor struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	Namespace     Path      `json:"namespace"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Keywords      []string  `json:"keywords,omitempty"`
	ExampleQueries []string `json:"example_queries,omitempty"`
	Category      string    `json:"category,omitempty"`
	Identity      Identity  `json:"identity"`
	Excludes      []string  `json:"excludes,omitempty"`

	// Optional precomputed embeddings. Semantic is derived from the
	// descriptor prose, Structural from the input/output shape.
	Semantic   []float32 `json:"-"`
	Structural []float32 `json:"-"`

	// InputSchema is the raw JSON schema for invocation arguments.
	// Validate is compiled from it once at catalog build time.
	InputSchema []byte    `json:"input_schema,omitempty"`
	Validate    Validator `json:"-"`
}

// ErrIDRequired is returned for descriptors missing an id.
var ErrIDRequired = errors.New("capability id is required")

// ErrNameRequired is returned for descriptors missing a display name.
var ErrNameRequired = errors.New("capability name is required")

// Check verifies the structural invariants of a descriptor.
func (d *Descriptor) Check() error {
	if d.ID == "" {
		return ErrIDRequired
	}
	if d.Name == "" {
		return ErrNameRequired
	}
	if d.Kind == "" {
		return errors.New("capability kind is required")
	}
	return nil
}

// Override carries operator-supplied metadata applied over a source
// descriptor at catalog build time. Zero-valued fields leave the source
// value in place.
type Override struct {
	ID             string   `yaml:"id" json:"id"`
	Namespace      string   `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Description    string   `yaml:"description,omitempty" json:"description,omitempty"`
	Keywords       []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	ExampleQueries []string `yaml:"example_queries,omitempty" json:"example_queries,omitempty"`
	Category       string   `yaml:"category,omitempty" json:"category,omitempty"`
	Identity       Identity `yaml:"identity,omitempty" json:"identity,omitempty"`
	Excludes       []string `yaml:"excludes,omitempty" json:"excludes,omitempty"`
}

// Apply returns a copy of d with the override's non-zero fields applied.
func (o Override) Apply(d Descriptor) Descriptor {
	if o.Namespace != "" {
		d.Namespace = ParsePath(o.Namespace)
	}
	if o.Description != "" {
		d.Description = o.Description
	}
	if len(o.Keywords) > 0 {
		d.Keywords = append([]string(nil), o.Keywords...)
	}
	if len(o.ExampleQueries) > 0 {
		d.ExampleQueries = append([]string(nil), o.ExampleQueries...)
	}
	if o.Category != "" {
		d.Category = o.Category
	}
	if o.Identity.MainIdentifier != "" {
		d.Identity.MainIdentifier = o.Identity.MainIdentifier
	}
	if o.Identity.CoreActivity != "" {
		d.Identity.CoreActivity = o.Identity.CoreActivity
	}
	if o.Identity.UniqueScope != "" {
		d.Identity.UniqueScope = o.Identity.UniqueScope
	}
	if o.Identity.GeographicScope != "" {
		d.Identity.GeographicScope = o.Identity.GeographicScope
	}
	if len(o.Excludes) > 0 {
		d.Excludes = append([]string(nil), o.Excludes...)
	}
	return d
}
