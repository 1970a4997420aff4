package turn

// Verdict is the critic's judgment of the current response.
type Verdict string

const (
	// VerdictOK accepts the response and moves to convergence/finalize.
	VerdictOK Verdict = "ok"
	// VerdictNeedsMore loops back to agent selection for more work.
	VerdictNeedsMore Verdict = "needs_more"
	// VerdictReplan discards the active plan and loops back to planning.
	VerdictReplan Verdict = "replan"
)

// Valid reports whether v is one of the known verdicts.
func (v Verdict) Valid() bool {
	return v == VerdictOK || v == VerdictNeedsMore || v == VerdictReplan
}

// CriticDecision is one critic evaluation: verdict plus free-text reason.
// Decisions are appended to the turn history and never removed.
type CriticDecision struct {
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
}

// needsMoreWindow is the history window inspected by the loop-breaker.
const needsMoreWindow = 3

// LoopBreakerTripped reports whether two of the last three critic decisions
// were needs_more. When tripped, the next evaluation is forced to ok so the
// turn cannot oscillate between selection and criticism forever.
func LoopBreakerTripped(history []CriticDecision) bool {
	start := len(history) - needsMoreWindow
	if start < 0 {
		start = 0
	}
	count := 0
	for _, d := range history[start:] {
		if d.Verdict == VerdictNeedsMore {
			count++
		}
	}
	return count >= 2
}
