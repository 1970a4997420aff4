package capability

import "strings"

// Path is an ordered namespace path from root to leaf, rendered "a/b/c".
// Paths scope capability exposure and group siblings for contrastive
// description generation.
type Path []string

// ParsePath splits a "a/b/c" string into a Path. Empty segments are dropped.
func ParsePath(s string) Path {
	parts := strings.Split(s, "/")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			p = append(p, part)
		}
	}
	return p
}

// String renders the path root-to-leaf joined by "/".
func (p Path) String() string {
	return strings.Join(p, "/")
}

// IsZero reports whether the path has no segments.
func (p Path) IsZero() bool { return len(p) == 0 }

// HasPrefix reports whether prefix matches the leading segments of p.
// An empty prefix matches nothing: scoped exposure must be explicit.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) == 0 || len(prefix) > len(p) {
		return false
	}
	for i, seg := range prefix {
		if p[i] != seg {
			return false
		}
	}
	return true
}

// MatchesAny reports whether any path in set is a prefix of p.
func (p Path) MatchesAny(set []Path) bool {
	for _, prefix := range set {
		if p.HasPrefix(prefix) {
			return true
		}
	}
	return false
}

// Cluster returns the sibling-cluster key: the path minus its leaf.
// Capabilities sharing a cluster are contrasted against each other
// during reranking.
func (p Path) Cluster() string {
	if len(p) <= 1 {
		return ""
	}
	return Path(p[:len(p)-1]).String()
}

// ParsePaths converts a slice of "a/b/c" strings into Paths, dropping blanks.
func ParsePaths(in []string) []Path {
	out := make([]Path, 0, len(in))
	for _, s := range in {
		if p := ParsePath(s); !p.IsZero() {
			out = append(out, p)
		}
	}
	return out
}

// Classify assigns a namespace path to a descriptor that lacks one.
// Precedence: explicit path on the descriptor > category mapping > kind default.
func Classify(d Descriptor) Path {
	if !d.Namespace.IsZero() {
		return d.Namespace
	}
	switch d.Kind {
	case KindExternalProtocol:
		if d.Category != "" {
			return Path{"agents", slug(d.Category), slug(d.ID)}
		}
		return Path{"agents", slug(d.ID)}
	default:
		if d.Category != "" {
			return Path{"tools", slug(d.Category), slug(d.ID)}
		}
		return Path{"tools", slug(d.ID)}
	}
}

// slug lowercases and replaces path-hostile runes so classified segments
// stay stable and comparable.
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '/':
			b.WriteRune('-')
		}
	}
	return b.String()
}
