package capability

import (
	"context"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/turn"
)

// StepResult is the outcome of executing one plan step.
type StepResult struct {
	StepID  string
	Summary turn.SubTaskSummary
	Err     error
}

// Executor runs plan steps against the selected capabilities/agents and
// produces the turn's working response. Execution internals (connector
// calls, prompt assembly) live outside the decision core.
type Executor interface {
	// ExecuteStep runs one plan step and returns its sub-task summary.
	ExecuteStep(ctx context.Context, agentIDs []string, step turn.PlanStep) (turn.SubTaskSummary, error)

	// Respond produces the turn's candidate final response from the
	// accumulated sub-task summaries.
	Respond(ctx context.Context, query string, summaries []turn.SubTaskSummary) (string, error)
}
