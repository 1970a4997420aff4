package retrieval

import (
	"math"
	"strings"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
)

// Breakdown records every signal's raw and weighted contribution to one
// capability's score for one query. Transient: recomputed per query.
type Breakdown struct {
	NameMatch       float64 `json:"name_match"`       // raw: 1 if name is a substring of the query
	KeywordHits     float64 `json:"keyword_hits"`     // raw ratio in [0,1]
	DescriptionHits float64 `json:"description_hits"` // raw ratio in [0,1]
	ExampleHits     float64 `json:"example_hits"`     // raw ratio in [0,1]
	Lexical         float64 `json:"lexical"`          // weighted sum of the four above
	SemanticRaw     float64 `json:"semantic_raw"`     // cosine similarity
	Semantic        float64 `json:"semantic"`         // weighted
	StructuralRaw   float64 `json:"structural_raw"`   // cosine similarity
	Structural      float64 `json:"structural"`       // weighted
	NamespaceBonus  float64 `json:"namespace_bonus"`
	FeedbackBoost   float64 `json:"feedback_boost"`
	Total           float64 `json:"total"`
}

// Embeddings carries the per-capability similarity inputs the scorer cannot
// compute itself. Zero values degrade that signal to nothing.
type Embeddings struct {
	Semantic   float64 // cosine(query, capability semantic embedding)
	Structural float64 // cosine(query, capability structural embedding)
}

// Score computes the full breakdown for one capability. All hit counts are
// normalized against the capability's own bounded field sizes, so verbose
// metadata buys no advantage. feedbackBoost is clamped to
// ±tuning.MaxFeedbackBoost before entering the total.
func Score(d capability.Descriptor, q Query, t Tuning, emb Embeddings, namespaceBonus, feedbackBoost float64) Breakdown {
	b := Breakdown{
		NameMatch:       nameMatch(d, q),
		KeywordHits:     keywordHits(d, q),
		DescriptionHits: descriptionHits(d, q),
		ExampleHits:     exampleHits(d, q),
		SemanticRaw:     emb.Semantic,
		StructuralRaw:   emb.Structural,
		NamespaceBonus:  namespaceBonus,
		FeedbackBoost:   clampFloat(feedbackBoost, -t.MaxFeedbackBoost, t.MaxFeedbackBoost),
	}

	b.Lexical = t.NameWeight*b.NameMatch +
		t.KeywordWeight*b.KeywordHits +
		t.DescriptionWeight*b.DescriptionHits +
		t.ExampleWeight*b.ExampleHits
	b.Semantic = t.SemanticWeight * b.SemanticRaw
	b.Structural = t.StructuralWeight * b.StructuralRaw

	// The explainability invariant: Total is exactly this sum, in this order.
	b.Total = b.Lexical + b.Semantic + b.Structural + b.NamespaceBonus + b.FeedbackBoost
	return b
}

// nameMatch returns 1 when the folded capability name occurs inside the query.
func nameMatch(d capability.Descriptor, q Query) float64 {
	name := FoldText(d.Name)
	if name != "" && contains(q.Folded, name) {
		return 1
	}
	return 0
}

// keywordHits returns matching keywords over total keywords.
func keywordHits(d capability.Descriptor, q Query) float64 {
	if len(d.Keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range d.Keywords {
		if contains(q.Folded, FoldText(kw)) {
			hits++
		}
	}
	return float64(hits) / float64(len(d.Keywords))
}

// descriptionHits returns shared tokens over description tokens.
func descriptionHits(d capability.Descriptor, q Query) float64 {
	tokens := Tokenize(FoldText(d.Description))
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if q.HasToken(tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// exampleHits returns matching examples over total examples. An example
// matches when it contains the query or the query contains it.
func exampleHits(d capability.Descriptor, q Query) float64 {
	if len(d.ExampleQueries) == 0 {
		return 0
	}
	hits := 0
	for _, ex := range d.ExampleQueries {
		folded := FoldText(ex)
		if folded == "" {
			continue
		}
		if contains(q.Folded, folded) || contains(folded, q.Folded) {
			hits++
		}
	}
	return float64(hits) / float64(len(d.ExampleQueries))
}

func contains(haystack, needle string) bool {
	return needle != "" && haystack != "" && strings.Contains(haystack, needle)
}

// NamespaceBonusFor returns the flat namespace bonus for a descriptor given
// the caller's primary and fallback namespace sets.
func NamespaceBonusFor(d capability.Descriptor, t Tuning, primary, fallback []capability.Path) float64 {
	if d.Namespace.MatchesAny(primary) {
		return t.NamespaceBonus
	}
	if d.Namespace.MatchesAny(fallback) {
		return t.FallbackBonus
	}
	return 0
}

// Cosine computes the cosine similarity of two vectors. Mismatched lengths
// or zero magnitude yield 0 rather than an error: a missing signal, not a
// failed turn.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
