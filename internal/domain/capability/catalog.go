package capability

import "fmt"

// Catalog is the immutable in-memory collection of capability descriptors
// for one session. Order is insertion order; scoring relies on it for
// stable tie-breaks. Rebuilding produces a fresh Catalog, existing ones
// are never mutated.
type Catalog struct {
	list []Descriptor
	byID map[string]int
}

// NewCatalog builds a catalog from descriptors that have already been
// overridden, normalized, classified and had their validators compiled.
// Duplicate ids are rejected.
func NewCatalog(descriptors []Descriptor) (*Catalog, error) {
	c := &Catalog{
		list: make([]Descriptor, 0, len(descriptors)),
		byID: make(map[string]int, len(descriptors)),
	}
	for _, d := range descriptors {
		if err := d.Check(); err != nil {
			return nil, fmt.Errorf("descriptor %q: %w", d.ID, err)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate capability id %q", d.ID)
		}
		c.byID[d.ID] = len(c.list)
		c.list = append(c.list, d)
	}
	return c, nil
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int { return len(c.list) }

// Get returns the descriptor with the given id.
func (c *Catalog) Get(id string) (Descriptor, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Descriptor{}, false
	}
	return c.list[i], true
}

// All returns the descriptors in insertion order. The caller must not
// modify the returned slice.
func (c *Catalog) All() []Descriptor { return c.list }

// ByNamespace returns descriptors whose namespace has the given prefix,
// in insertion order.
func (c *Catalog) ByNamespace(prefix Path) []Descriptor {
	var out []Descriptor
	for _, d := range c.list {
		if d.Namespace.HasPrefix(prefix) {
			out = append(out, d)
		}
	}
	return out
}

// Siblings returns the other descriptors sharing d's namespace cluster.
func (c *Catalog) Siblings(d Descriptor) []Descriptor {
	cluster := d.Namespace.Cluster()
	if cluster == "" {
		return nil
	}
	var out []Descriptor
	for _, other := range c.list {
		if other.ID != d.ID && other.Namespace.Cluster() == cluster {
			out = append(out, other)
		}
	}
	return out
}
