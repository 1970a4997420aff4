// Package turn defines the per-turn orchestration domain: working state,
// plan steps, critic decisions and convergence results.
package turn

import "errors"

// StepStatus represents the lifecycle state of an individual plan step.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusCancelled  StepStatus = "cancelled"
)

// IsTerminal returns true if the step is in a final state.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusCompleted || s == StepStatusCancelled
}

// PlanStep is one unit of work in the active plan. Steps are owned
// exclusively by the active plan and never shared across turns.
type PlanStep struct {
	ID       string     `json:"id"`
	Content  string     `json:"content"`
	Status   StepStatus `json:"status"`
	Parallel bool       `json:"parallel"`
}

// Plan is the ordered, length-capped step list for the current turn.
type Plan struct {
	Steps []PlanStep `json:"steps"`
}

// MaxPlanStepsDefault caps the plan length when no configuration overrides it.
const MaxPlanStepsDefault = 4

// ErrPlanEmpty is returned when a plan is created with no steps.
var ErrPlanEmpty = errors.New("plan needs at least one step")

// NewPlan builds a plan from step contents, capping the list at maxSteps
// (extra steps are dropped, not an error: the planner is advisory).
func NewPlan(steps []PlanStep, maxSteps int) (*Plan, error) {
	if len(steps) == 0 {
		return nil, ErrPlanEmpty
	}
	if maxSteps <= 0 {
		maxSteps = MaxPlanStepsDefault
	}
	if len(steps) > maxSteps {
		steps = steps[:maxSteps]
	}
	out := make([]PlanStep, len(steps))
	copy(out, steps)
	for i := range out {
		if out[i].Status == "" {
			out[i].Status = StepStatusPending
		}
	}
	return &Plan{Steps: out}, nil
}

// Completed reports whether every step is terminal.
func (p *Plan) Completed() bool {
	if p == nil || len(p.Steps) == 0 {
		return false
	}
	for i := range p.Steps {
		if !p.Steps[i].Status.IsTerminal() {
			return false
		}
	}
	return true
}

// ParallelSteps returns the pending steps marked parallelizable.
func (p *Plan) ParallelSteps() []PlanStep {
	var out []PlanStep
	for _, s := range p.Steps {
		if s.Parallel && s.Status == StepStatusPending {
			out = append(out, s)
		}
	}
	return out
}

// SequentialSteps returns the pending steps that must run in order.
func (p *Plan) SequentialSteps() []PlanStep {
	var out []PlanStep
	for _, s := range p.Steps {
		if !s.Parallel && s.Status == StepStatusPending {
			out = append(out, s)
		}
	}
	return out
}

// MarkStep sets the status of the step with the given id.
func (p *Plan) MarkStep(id string, status StepStatus) bool {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			p.Steps[i].Status = status
			return true
		}
	}
	return false
}
