package turn

import "strings"

// SubTaskSummary is one parallel sub-task's output handed to convergence.
type SubTaskSummary struct {
	Domain  string `json:"domain"`
	Content string `json:"content"`
}

// ConvergenceStatus is the merged artifact produced from parallel sub-task
// outputs: field provenance, overlap, conflicts and the merged text.
type ConvergenceStatus struct {
	MergedFields  []string `json:"merged_fields,omitempty"`
	OverlapScore  float64  `json:"overlap_score"` // [0,1]
	Conflicts     []string `json:"conflicts,omitempty"`
	SourceDomains []string `json:"source_domains,omitempty"`
	MergedSummary string   `json:"merged_summary"`
	Degraded      bool     `json:"degraded,omitempty"`
}

// PassThrough builds the status for a single summary: its content becomes
// the merged summary unchanged, no merge call is made.
func PassThrough(s SubTaskSummary) ConvergenceStatus {
	status := ConvergenceStatus{
		OverlapScore:  0,
		MergedSummary: s.Content,
	}
	if s.Domain != "" {
		status.SourceDomains = []string{s.Domain}
	}
	return status
}

// Concatenate is the deterministic degraded merge: summaries joined per
// source domain, overlap zero, no conflicts reported.
func Concatenate(summaries []SubTaskSummary) ConvergenceStatus {
	var b strings.Builder
	domains := make([]string, 0, len(summaries))
	seen := make(map[string]struct{}, len(summaries))

	for i, s := range summaries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if s.Domain != "" {
			b.WriteString(s.Domain)
			b.WriteString(": ")
			if _, dup := seen[s.Domain]; !dup {
				seen[s.Domain] = struct{}{}
				domains = append(domains, s.Domain)
			}
		}
		b.WriteString(s.Content)
	}

	return ConvergenceStatus{
		OverlapScore:  0,
		SourceDomains: domains,
		MergedSummary: b.String(),
		Degraded:      true,
	}
}
