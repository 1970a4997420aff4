// Package retrieval holds the pure scoring and ranking logic for capability
// retrieval: query normalization, multi-signal score breakdowns, candidate
// pools and vector-recall unioning.
package retrieval

// Tuning is the immutable value object holding all scoring weights, pool
// sizes and auto-acceptance thresholds. Build one with Clamped so untrusted
// input can never leave the safe numeric ranges.
type Tuning struct {
	NameWeight        float64
	KeywordWeight     float64
	DescriptionWeight float64
	ExampleWeight     float64
	SemanticWeight    float64
	StructuralWeight  float64
	NamespaceBonus    float64
	FallbackBonus     float64
	MaxFeedbackBoost  float64
	RerankCandidates  int
	VectorRecallTopK  int
	ScoreThreshold    float64
	MarginThreshold   float64
	LiveAutoSelect    bool
}

// DefaultTuning returns the tuning used when no configuration is supplied.
func DefaultTuning() Tuning {
	return Tuning{
		NameWeight:        0.30,
		KeywordWeight:     0.30,
		DescriptionWeight: 0.20,
		ExampleWeight:     0.20,
		SemanticWeight:    0.35,
		StructuralWeight:  0.15,
		NamespaceBonus:    0.25,
		FallbackBonus:     0.10,
		MaxFeedbackBoost:  0.10,
		RerankCandidates:  8,
		VectorRecallTopK:  5,
		ScoreThreshold:    0.55,
		MarginThreshold:   0.18,
		LiveAutoSelect:    true,
	}
}

// Clamped returns a copy of t with every field forced into its safe range.
// Zero-valued pool sizes fall back to the defaults.
func (t Tuning) Clamped() Tuning {
	def := DefaultTuning()

	t.NameWeight = clampFloat(t.NameWeight, 0, 5)
	t.KeywordWeight = clampFloat(t.KeywordWeight, 0, 5)
	t.DescriptionWeight = clampFloat(t.DescriptionWeight, 0, 5)
	t.ExampleWeight = clampFloat(t.ExampleWeight, 0, 5)
	t.SemanticWeight = clampFloat(t.SemanticWeight, 0, 5)
	t.StructuralWeight = clampFloat(t.StructuralWeight, 0, 5)
	t.NamespaceBonus = clampFloat(t.NamespaceBonus, 0, 1)
	t.FallbackBonus = clampFloat(t.FallbackBonus, 0, 1)
	t.MaxFeedbackBoost = clampFloat(t.MaxFeedbackBoost, 0, 1)
	t.ScoreThreshold = clampFloat(t.ScoreThreshold, 0, 1)
	t.MarginThreshold = clampFloat(t.MarginThreshold, 0, 1)

	if t.RerankCandidates <= 0 {
		t.RerankCandidates = def.RerankCandidates
	} else if t.RerankCandidates > 50 {
		t.RerankCandidates = 50
	}
	if t.VectorRecallTopK <= 0 {
		t.VectorRecallTopK = def.VectorRecallTopK
	} else if t.VectorRecallTopK > 50 {
		t.VectorRecallTopK = 50
	}

	return t
}

func clampFloat(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
