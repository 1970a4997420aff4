package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/adapter/otel"
	capdomain "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/retrieval"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/turn"
	capport "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/decision"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/exposure"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/messagequeue"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/resilience"
)

// guardMessage is the canned user-visible response when a turn hits its
// step or replan ceiling without a usable response.
const guardMessage = "I couldn't fully complete this request within the allotted work budget. Please try a more specific question."

const intentSystemPrompt = `You route user requests for an assistant.
Respond with JSON only: {"intent": string, "route_hint": string, "simple": bool, "primary_namespaces": [string]}.
"simple" means a single capability can answer without planning.
"primary_namespaces" are capability namespace prefixes like "tools/weather".`

const selectSystemPrompt = `You pick the single best capability for a request from a fixed shortlist.
Respond with JSON only: {"agent_id": string, "reason": string}. agent_id must be one of the shortlist ids.`

const planSystemPrompt = `You break a request into at most %d concrete steps for an assistant.
Respond with JSON only: {"steps": [{"content": string, "parallel": bool}]}.
Mark steps parallel only when they do not depend on each other.`

const criticSystemPrompt = `You judge whether a draft response fully answers the user's request.
Respond with JSON only: {"verdict": "ok"|"needs_more"|"replan", "reason": string}.
"needs_more" requests additional capability work; "replan" discards the plan.`

// TurnRequest is one user request entering the orchestrator.
type TurnRequest struct {
	Query              string   `json:"query"`
	SessionID          string   `json:"session_id"`
	PrimaryNamespaces  []string `json:"primary_namespaces,omitempty"`
	FallbackNamespaces []string `json:"fallback_namespaces,omitempty"`
}

// TurnResult is the bounded outcome of one turn.
type TurnResult struct {
	TurnID         string                  `json:"turn_id"`
	Response       string                  `json:"response"`
	SelectedAgents []string                `json:"selected_agents,omitempty"`
	Decisions      []turn.CriticDecision   `json:"decisions,omitempty"`
	ReplanCount    int                     `json:"replan_count"`
	TotalSteps     int                     `json:"total_steps"`
	GuardFinalized bool                    `json:"guard_finalized,omitempty"`
	Convergence    *turn.ConvergenceStatus `json:"convergence,omitempty"`
}

// Orchestrator drives the bounded turn state machine:
// resolve_intent → select_agent → plan → execute → critic → finalize,
// with critic loops back to select_agent or plan under hard ceilings.
type Orchestrator struct {
	retrieval *RetrievalService
	rerank    *RerankService
	provider  decision.Provider
	executor  capport.Executor
	converge  *ConvergenceService
	exposure  exposure.Policy
	queue     messagequeue.Queue
	gate      *resilience.Gate
	metrics   *otel.Metrics

	maxReplans    int
	maxTotalSteps int
	maxPlanSteps  int
	maxTokens     int
}

// OrchestratorDeps bundles the orchestrator's collaborators. Provider,
// Exposure and Queue may be nil; each nil collaborator selects its
// documented fallback behavior.
type OrchestratorDeps struct {
	Retrieval *RetrievalService
	Rerank    *RerankService
	Provider  decision.Provider
	Executor  capport.Executor
	Converge  *ConvergenceService
	Exposure  exposure.Policy
	Queue     messagequeue.Queue
	Gate      *resilience.Gate
	Metrics   *otel.Metrics
}

// NewOrchestrator creates the turn orchestrator with the given ceilings.
func NewOrchestrator(deps OrchestratorDeps, maxReplans, maxTotalSteps, maxPlanSteps, maxTokens int) *Orchestrator {
	if maxPlanSteps < 1 {
		maxPlanSteps = turn.MaxPlanStepsDefault
	}
	gate := deps.Gate
	if gate == nil {
		gate = resilience.NewGate(1)
	}
	return &Orchestrator{
		retrieval:     deps.Retrieval,
		rerank:        deps.Rerank,
		provider:      deps.Provider,
		executor:      deps.Executor,
		converge:      deps.Converge,
		exposure:      deps.Exposure,
		queue:         deps.Queue,
		gate:          gate,
		metrics:       deps.Metrics,
		maxReplans:    maxReplans,
		maxTotalSteps: maxTotalSteps,
		maxPlanSteps:  maxPlanSteps,
		maxTokens:     maxTokens,
	}
}

// RunTurn executes one turn to completion. Collaborator failures degrade
// per stage; the only error returned is programmer misuse.
func (o *Orchestrator) RunTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	if req.Query == "" {
		return TurnResult{}, fmt.Errorf("turn query is required")
	}

	st := turn.NewState(uuid.NewString(), req.SessionID, req.Query, o.maxReplans, o.maxTotalSteps)
	q := retrieval.NormalizeQuery(req.Query)
	primary := capdomain.ParsePaths(req.PrimaryNamespaces)
	fallback := capdomain.ParsePaths(req.FallbackNamespaces)

	ctx, span := otel.StartTurnSpan(ctx, st.TurnID, st.SessionID)
	defer span.End()
	started := time.Now()
	if o.metrics != nil {
		o.metrics.TurnsStarted.Add(ctx, 1)
	}

	var summaries []turn.SubTaskSummary

	stage := turn.StageResolveIntent
	for stage != turn.StageFinalize {
		if err := st.AdvanceStep(); err != nil {
			o.guardFinalize(st)
			break
		}

		stageCtx, stageSpan := otel.StartStageSpan(ctx, string(stage))
		switch stage {
		case turn.StageResolveIntent:
			primary = o.resolveIntent(stageCtx, st, primary)
			stage = turn.StageSelectAgent

		case turn.StageSelectAgent:
			o.selectAgent(stageCtx, st, q, primary, fallback)
			stage = turn.StagePlan

		case turn.StagePlan:
			o.plan(stageCtx, st)
			stage = turn.StageExecute

		case turn.StageExecute:
			summaries = append(summaries, o.execute(stageCtx, st)...)
			stage = turn.StageCritic

		case turn.StageCritic:
			stage = o.critic(stageCtx, st)
		}
		stageSpan.End()
	}

	o.finalize(ctx, st, summaries)

	if o.metrics != nil {
		o.metrics.TurnsFinalized.Add(ctx, 1)
		if st.GuardFinalized || (st.Convergence != nil && st.Convergence.Degraded) {
			o.metrics.TurnsDegraded.Add(ctx, 1)
		}
		o.metrics.TurnDuration.Record(ctx, time.Since(started).Seconds())
	}

	return TurnResult{
		TurnID:         st.TurnID,
		Response:       st.Response,
		SelectedAgents: st.SelectedAgents,
		Decisions:      st.Decisions,
		ReplanCount:    st.ReplanCount(),
		TotalSteps:     st.TotalSteps(),
		GuardFinalized: st.GuardFinalized,
		Convergence:    st.Convergence,
	}, nil
}

// resolveIntent runs the routing decision call. On failure the turn
// defaults to non-simple with no route hint.
func (o *Orchestrator) resolveIntent(ctx context.Context, st *turn.State, primary []capdomain.Path) []capdomain.Path {
	var resolved struct {
		Intent            string   `json:"intent"`
		RouteHint         string   `json:"route_hint"`
		Simple            bool     `json:"simple"`
		PrimaryNamespaces []string `json:"primary_namespaces"`
	}
	err := o.decide(ctx, "resolve_intent", decision.Request{
		System:    intentSystemPrompt,
		User:      st.Query,
		MaxTokens: o.maxTokens,
	}, &resolved)
	if err != nil {
		slog.Debug("intent resolution unavailable, defaulting", "turn", st.TurnID, "error", err)
		return primary
	}

	st.Intent = resolved.Intent
	st.RouteHint = resolved.RouteHint
	st.Simple = resolved.Simple

	if len(primary) == 0 && len(resolved.PrimaryNamespaces) > 0 {
		primary = capdomain.ParsePaths(resolved.PrimaryNamespaces)
	}
	return primary
}

// selectAgent shortlists candidates via retrieval and reranking, then
// resolves the selection by auto-acceptance rules or a constrained
// decision call.
func (o *Orchestrator) selectAgent(ctx context.Context, st *turn.State, q retrieval.Query, primary, fallback []capdomain.Path) {
	if ids := o.exposedIDs(ctx, st.RouteHint); len(ids) > 0 {
		st.SelectedAgents = ids
		o.publish(ctx, messagequeue.SubjectTurnSelected, messagequeue.TurnSelectedPayload{TurnID: st.TurnID, Agents: ids})
		return
	}

	retrievalCtx, retrievalSpan := otel.StartRetrievalSpan(ctx, o.retrieval.CatalogSize())
	retrievalStart := time.Now()
	shortlist := o.retrieval.Retrieve(retrievalCtx, q, primary, fallback)
	ranked := o.rerank.Rerank(retrievalCtx, st.SessionID, q, shortlist)
	retrievalSpan.End()
	if o.metrics != nil {
		o.metrics.RetrievalDuration.Record(ctx, time.Since(retrievalStart).Seconds())
	}
	if len(ranked) == 0 {
		slog.Warn("no candidates for query", "turn", st.TurnID)
		return
	}

	selected := ranked[0].ID
	switch {
	case st.Simple:
		// Simple turns take the top candidate without another call.
	case o.autoAccept(ranked):
		if o.metrics != nil {
			o.metrics.AutoSelects.Add(ctx, 1)
		}
	default:
		selected = o.decideAgent(ctx, st, ranked)
	}

	st.SelectedAgents = []string{selected}
	o.publish(ctx, messagequeue.SubjectTurnSelected, messagequeue.TurnSelectedPayload{TurnID: st.TurnID, Agents: st.SelectedAgents})
}

// autoAccept applies the live auto-selection rule: accept the top
// candidate when it clears the score threshold and leads by the margin.
func (o *Orchestrator) autoAccept(ranked []RankedCandidate) bool {
	t := o.retrieval.Tuning()
	if !t.LiveAutoSelect {
		return false
	}
	top1 := ranked[0].Score
	if top1 < t.ScoreThreshold {
		return false
	}
	if len(ranked) == 1 {
		return true
	}
	return top1-ranked[1].Score >= t.MarginThreshold
}

// decideAgent asks the decision provider to choose from the shortlist.
// Unparseable or out-of-shortlist answers fall back to the top candidate.
func (o *Orchestrator) decideAgent(ctx context.Context, st *turn.State, ranked []RankedCandidate) string {
	shortlist, err := json.Marshal(ranked)
	if err != nil {
		return ranked[0].ID
	}

	var choice struct {
		AgentID string `json:"agent_id"`
		Reason  string `json:"reason"`
	}
	err = o.decide(ctx, "select_agent", decision.Request{
		System:    selectSystemPrompt,
		User:      fmt.Sprintf("Request: %s\nShortlist: %s", st.Query, shortlist),
		MaxTokens: o.maxTokens,
	}, &choice)
	if err != nil {
		slog.Warn("agent selection call failed, taking top candidate", "turn", st.TurnID, "error", err)
		return ranked[0].ID
	}

	for _, r := range ranked {
		if r.ID == choice.AgentID {
			return choice.AgentID
		}
	}
	slog.Warn("agent selection outside shortlist, taking top candidate",
		"turn", st.TurnID, "selected", choice.AgentID)
	return ranked[0].ID
}

// exposedIDs consults the exposure policy for the route hint's namespace.
// A nil policy or nil list defers to retrieval.
func (o *Orchestrator) exposedIDs(ctx context.Context, routeHint string) []string {
	if o.exposure == nil || routeHint == "" {
		return nil
	}
	ids, err := o.exposure.Expose(ctx, routeHint)
	if err != nil {
		slog.Debug("exposure policy failed, deferring to retrieval", "hint", routeHint, "error", err)
		return nil
	}
	if len(ids) == 0 || len(ids) > exposure.HintLimit {
		return nil
	}
	return ids
}

// plan regenerates the step list when needed: absent plan, completed
// plan, or a critic replan request. Plan call failure degrades to a
// single step carrying the raw query.
func (o *Orchestrator) plan(ctx context.Context, st *turn.State) {
	if !st.NeedsPlan() {
		return
	}

	var planned struct {
		Steps []struct {
			Content  string `json:"content"`
			Parallel bool   `json:"parallel"`
		} `json:"steps"`
	}
	err := o.decide(ctx, "plan", decision.Request{
		System:    fmt.Sprintf(planSystemPrompt, o.maxPlanSteps),
		User:      st.Query,
		MaxTokens: o.maxTokens,
	}, &planned)

	var steps []turn.PlanStep
	if err != nil || len(planned.Steps) == 0 {
		if err != nil {
			slog.Warn("plan call failed, using single-step plan", "turn", st.TurnID, "error", err)
		}
		steps = []turn.PlanStep{{ID: uuid.NewString(), Content: st.Query}}
	} else {
		for _, s := range planned.Steps {
			if s.Content == "" {
				continue
			}
			steps = append(steps, turn.PlanStep{ID: uuid.NewString(), Content: s.Content, Parallel: s.Parallel})
		}
		if len(steps) == 0 {
			steps = []turn.PlanStep{{ID: uuid.NewString(), Content: st.Query}}
		}
	}

	plan, err := turn.NewPlan(steps, o.maxPlanSteps)
	if err != nil {
		return
	}
	st.ActivePlan = plan
}

// execute runs the active plan's pending steps: parallel steps fan out
// under the global gate, sequential steps run in order. Step failures
// degrade to a cancelled step and never abort the turn.
func (o *Orchestrator) execute(ctx context.Context, st *turn.State) []turn.SubTaskSummary {
	if st.ActivePlan == nil || o.executor == nil {
		return nil
	}

	var (
		mu        sync.Mutex
		summaries []turn.SubTaskSummary
	)

	// mu also guards plan mutation: parallel steps share the active plan.
	runStep := func(step turn.PlanStep) {
		mu.Lock()
		st.ActivePlan.MarkStep(step.ID, turn.StepStatusInProgress)
		mu.Unlock()

		summary, err := o.executor.ExecuteStep(ctx, st.SelectedAgents, step)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			slog.Warn("plan step failed", "turn", st.TurnID, "step", step.ID, "error", err)
			st.ActivePlan.MarkStep(step.ID, turn.StepStatusCancelled)
			return
		}
		st.ActivePlan.MarkStep(step.ID, turn.StepStatusCompleted)
		summaries = append(summaries, summary)
	}

	var wg sync.WaitGroup
	for _, step := range st.ActivePlan.ParallelSteps() {
		if step.Status.IsTerminal() {
			continue
		}
		wg.Add(1)
		go func(step turn.PlanStep) {
			defer wg.Done()
			if err := o.gate.Do(ctx, func() error {
				runStep(step)
				return nil
			}); err != nil {
				slog.Warn("plan step gated out", "turn", st.TurnID, "step", step.ID, "error", err)
			}
		}(step)
	}
	wg.Wait()

	for _, step := range st.ActivePlan.SequentialSteps() {
		if step.Status.IsTerminal() {
			continue
		}
		runStep(step)
	}

	if len(summaries) > 0 {
		response, err := o.executor.Respond(ctx, st.Query, summaries)
		if err != nil {
			slog.Warn("respond failed", "turn", st.TurnID, "error", err)
		} else {
			st.Response = response
		}
	}
	return summaries
}

// critic evaluates the working response. Short-circuit order: guard
// finalized, step ceiling, missing response with replan ceiling reached,
// loop-breaker, then the decision call (defaulting to ok on failure).
func (o *Orchestrator) critic(ctx context.Context, st *turn.State) turn.Stage {
	switch {
	case st.GuardFinalized:
		st.RecordDecision(turn.CriticDecision{Verdict: turn.VerdictOK, Reason: "turn already guard finalized"})
		return turn.StageFinalize

	case st.StepBudgetExhausted():
		if st.Response == "" {
			o.guardFinalize(st)
		}
		st.RecordDecision(turn.CriticDecision{Verdict: turn.VerdictOK, Reason: "total step ceiling reached"})
		return turn.StageFinalize

	case st.Response == "" && st.ReplanBudgetExhausted():
		o.guardFinalize(st)
		st.RecordDecision(turn.CriticDecision{Verdict: turn.VerdictOK, Reason: "no response and replan ceiling reached"})
		return turn.StageFinalize

	case turn.LoopBreakerTripped(st.Decisions):
		st.RecordDecision(turn.CriticDecision{Verdict: turn.VerdictOK, Reason: "loop breaker forced acceptance"})
		return turn.StageFinalize
	}

	var judged struct {
		Verdict string `json:"verdict"`
		Reason  string `json:"reason"`
	}
	err := o.decide(ctx, "critic", decision.Request{
		System:    criticSystemPrompt,
		User:      fmt.Sprintf("Request: %s\nDraft response: %s", st.Query, st.Response),
		MaxTokens: o.maxTokens,
	}, &judged)

	verdict := turn.Verdict(judged.Verdict)
	if err != nil || !verdict.Valid() {
		if err != nil {
			slog.Warn("critic call failed, accepting response", "turn", st.TurnID, "error", err)
		}
		st.RecordDecision(turn.CriticDecision{Verdict: turn.VerdictOK, Reason: "critic unavailable, accepted by default"})
		return turn.StageFinalize
	}

	st.RecordDecision(turn.CriticDecision{Verdict: verdict, Reason: judged.Reason})

	switch verdict {
	case turn.VerdictNeedsMore:
		return turn.StageSelectAgent
	case turn.VerdictReplan:
		if err := st.CountReplan(); err != nil {
			o.guardFinalize(st)
			return turn.StageFinalize
		}
		if o.metrics != nil {
			o.metrics.Replans.Add(ctx, 1)
		}
		o.publish(ctx, messagequeue.SubjectTurnReplanned, messagequeue.TurnReplannedPayload{TurnID: st.TurnID, Replans: st.ReplanCount()})
		return turn.StagePlan
	default:
		return turn.StageFinalize
	}
}

// finalize merges parallel sub-task outputs when present and publishes
// the turns.finalized event.
func (o *Orchestrator) finalize(ctx context.Context, st *turn.State, summaries []turn.SubTaskSummary) {
	if len(summaries) > 1 && o.converge != nil {
		status := o.converge.Merge(ctx, summaries)
		st.Convergence = &status
		if st.Response == "" {
			st.Response = status.MergedSummary
		}
	}
	if st.Response == "" {
		o.guardFinalize(st)
	}
	o.publish(ctx, messagequeue.SubjectTurnFinalized, messagequeue.TurnFinalizedPayload{
		TurnID:  st.TurnID,
		Agents:  st.SelectedAgents,
		Steps:   st.TotalSteps(),
		Replans: st.ReplanCount(),
		Guard:   st.GuardFinalized,
	})
}

// decide runs one structured decision call under its own span.
func (o *Orchestrator) decide(ctx context.Context, purpose string, req decision.Request, out any) error {
	ctx, span := otel.StartDecisionSpan(ctx, purpose)
	defer span.End()
	if o.metrics != nil {
		o.metrics.DecisionCalls.Add(ctx, 1)
	}
	return callDecision(ctx, o.provider, req, out)
}

// guardFinalize marks the turn finalized with the canned guard message
// unless a response already exists.
func (o *Orchestrator) guardFinalize(st *turn.State) {
	st.GuardFinalized = true
	if st.Response == "" {
		st.Response = guardMessage
	}
}

func (o *Orchestrator) publish(ctx context.Context, subject string, event any) {
	if o.queue == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := o.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("turn event publish failed", "subject", subject, "error", err)
	}
}
