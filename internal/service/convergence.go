package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/turn"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/decision"
)

const convergeSystemPrompt = `You merge outputs from parallel sub-tasks into one coherent answer.
Respond with JSON only: {"merged_summary": string, "overlap_score": number between 0 and 1, "conflicts": [string], "merged_fields": [string]}.`

// ConvergenceService merges parallel sub-task summaries into one
// ConvergenceStatus. The merge call is a structured decision call; on any
// failure it degrades to deterministic concatenation by source domain.
type ConvergenceService struct {
	provider  decision.Provider
	maxTokens int
}

// NewConvergenceService creates a convergence service. provider may be
// nil, forcing the deterministic concatenation path.
func NewConvergenceService(provider decision.Provider, maxTokens int) *ConvergenceService {
	return &ConvergenceService{provider: provider, maxTokens: maxTokens}
}

// Merge combines the summaries. Zero summaries yields an empty status and
// one summary passes through without a merge call.
func (s *ConvergenceService) Merge(ctx context.Context, summaries []turn.SubTaskSummary) turn.ConvergenceStatus {
	switch len(summaries) {
	case 0:
		return turn.ConvergenceStatus{}
	case 1:
		return turn.PassThrough(summaries[0])
	}

	if s.provider == nil {
		return turn.Concatenate(summaries)
	}

	input, err := json.Marshal(summaries)
	if err != nil {
		return turn.Concatenate(summaries)
	}

	var merged struct {
		MergedSummary string   `json:"merged_summary"`
		OverlapScore  float64  `json:"overlap_score"`
		Conflicts     []string `json:"conflicts"`
		MergedFields  []string `json:"merged_fields"`
	}
	err = callDecision(ctx, s.provider, decision.Request{
		System:    convergeSystemPrompt,
		User:      string(input),
		MaxTokens: s.maxTokens,
	}, &merged)
	if err != nil || merged.MergedSummary == "" {
		slog.Warn("merge call failed, concatenating sub-task outputs", "error", err)
		return turn.Concatenate(summaries)
	}

	domains := make([]string, 0, len(summaries))
	for _, sum := range summaries {
		domains = append(domains, sum.Domain)
	}

	overlap := merged.OverlapScore
	if overlap < 0 {
		overlap = 0
	} else if overlap > 1 {
		overlap = 1
	}

	return turn.ConvergenceStatus{
		MergedFields:  merged.MergedFields,
		OverlapScore:  overlap,
		Conflicts:     merged.Conflicts,
		SourceDomains: domains,
		MergedSummary: merged.MergedSummary,
	}
}
