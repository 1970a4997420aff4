package retrieval

import (
	"sort"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
)

// Scored pairs a capability id with its score breakdown for one query.
type Scored struct {
	ID        string    `json:"id"`
	Breakdown Breakdown `json:"breakdown"`
}

// Total is the capability's composite score.
func (s Scored) Total() float64 { return s.Breakdown.Total }

// Pools partitions scored capabilities by namespace membership.
type Pools struct {
	Primary  []Scored
	Fallback []Scored
	Rest     []Scored
}

// Partition splits scored items into primary/fallback/rest pools by the
// namespace of the corresponding descriptor. Input order is preserved
// within each pool.
func Partition(items []Scored, lookup func(id string) (capability.Descriptor, bool), primary, fallback []capability.Path) Pools {
	var p Pools
	for _, it := range items {
		d, ok := lookup(it.ID)
		switch {
		case ok && d.Namespace.MatchesAny(primary):
			p.Primary = append(p.Primary, it)
		case ok && d.Namespace.MatchesAny(fallback):
			p.Fallback = append(p.Fallback, it)
		default:
			p.Rest = append(p.Rest, it)
		}
	}
	return p
}

// Select returns the candidate pool to rank: primary when its best total is
// positive, else fallback when its best total is positive, else whichever
// pool is non-empty, preferring primary, then fallback, then rest.
func (p Pools) Select() []Scored {
	if topTotal(p.Primary) > 0 {
		return p.Primary
	}
	if topTotal(p.Fallback) > 0 {
		return p.Fallback
	}
	switch {
	case len(p.Primary) > 0:
		return p.Primary
	case len(p.Fallback) > 0:
		return p.Fallback
	default:
		return p.Rest
	}
}

func topTotal(items []Scored) float64 {
	best := 0.0
	for _, it := range items {
		if it.Total() > best {
			best = it.Total()
		}
	}
	return best
}

// SortByTotal sorts descending by total score. The sort is stable: ties keep
// catalog insertion order.
func SortByTotal(items []Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Total() > items[j].Total()
	})
}

// SortBySemantic sorts descending by the raw semantic similarity, stable.
// Used for the pure-embedding "vector recall" ranking.
func SortBySemantic(items []Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Breakdown.SemanticRaw > items[j].Breakdown.SemanticRaw
	})
}

// Union merges the lexical top set with the vector-recall top set,
// deduplicating by id with lexical-first ordering. This guards against
// purely semantic matches that lexical scoring would miss.
func Union(lexical, vector []Scored) []Scored {
	seen := make(map[string]struct{}, len(lexical)+len(vector))
	out := make([]Scored, 0, len(lexical)+len(vector))
	for _, it := range lexical {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	for _, it := range vector {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Top returns the first n items (or all of them when fewer).
func Top(items []Scored, n int) []Scored {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}
