package turn

import "fmt"

// Stage names the state machine stages a turn moves through.
type Stage string

const (
	StageResolveIntent Stage = "resolve_intent"
	StageSelectAgent   Stage = "select_agent"
	StagePlan          Stage = "plan"
	StageExecute       Stage = "execute"
	StageCritic        Stage = "critic"
	StageFinalize      Stage = "finalize"
)

// State is the turn-scoped working memory. Created at turn start, mutated
// by exactly one in-flight stage at a time, discarded at turn end.
// replanCount and totalSteps only ever grow and are bounded by the
// configured ceilings.
type State struct {
	TurnID        string
	Query         string
	SessionID     string
	Intent        string
	RouteHint     string
	Simple        bool
	SelectedAgents []string
	ActivePlan    *Plan
	Decisions     []CriticDecision
	Response      string
	Convergence   *ConvergenceStatus
	GuardFinalized bool

	replanCount int
	totalSteps  int

	maxReplans    int
	maxTotalSteps int
}

// NewState creates the working state for one turn with the given ceilings.
func NewState(turnID, sessionID, query string, maxReplans, maxTotalSteps int) *State {
	if maxReplans < 0 {
		maxReplans = 0
	}
	if maxTotalSteps < 1 {
		maxTotalSteps = 1
	}
	return &State{
		TurnID:        turnID,
		SessionID:     sessionID,
		Query:         query,
		maxReplans:    maxReplans,
		maxTotalSteps: maxTotalSteps,
	}
}

// ReplanCount returns how many plan→critic round-trips have happened.
func (s *State) ReplanCount() int { return s.replanCount }

// TotalSteps returns how many orchestrator iterations have happened.
func (s *State) TotalSteps() int { return s.totalSteps }

// MaxReplans returns the replan ceiling.
func (s *State) MaxReplans() int { return s.maxReplans }

// MaxTotalSteps returns the iteration ceiling.
func (s *State) MaxTotalSteps() int { return s.maxTotalSteps }

// StepBudgetExhausted reports whether the hard iteration ceiling is reached.
func (s *State) StepBudgetExhausted() bool { return s.totalSteps >= s.maxTotalSteps }

// ReplanBudgetExhausted reports whether the replan ceiling is reached.
func (s *State) ReplanBudgetExhausted() bool { return s.replanCount >= s.maxReplans }

// AdvanceStep counts one orchestrator iteration. It fails loudly if called
// past the ceiling: the state machine must route to finalize instead.
func (s *State) AdvanceStep() error {
	if s.StepBudgetExhausted() {
		return fmt.Errorf("turn %s: step ceiling %d already reached", s.TurnID, s.maxTotalSteps)
	}
	s.totalSteps++
	return nil
}

// CountReplan counts one plan regeneration requested by the critic.
func (s *State) CountReplan() error {
	if s.ReplanBudgetExhausted() {
		return fmt.Errorf("turn %s: replan ceiling %d already reached", s.TurnID, s.maxReplans)
	}
	s.replanCount++
	return nil
}

// RecordDecision appends a critic decision to the history.
func (s *State) RecordDecision(d CriticDecision) {
	s.Decisions = append(s.Decisions, d)
}

// NeedsPlan reports whether the planning stage must produce a new plan:
// no plan yet, the previous plan completed, or the critic asked for one.
func (s *State) NeedsPlan() bool {
	if s.ActivePlan == nil || s.ActivePlan.Completed() {
		return true
	}
	if n := len(s.Decisions); n > 0 && s.Decisions[n-1].Verdict == VerdictReplan {
		return true
	}
	return false
}
