package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/turn"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/decision"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/resilience"
)

const respondSystemPrompt = `You answer the user's request from the sub-task results provided.
Answer directly in the user's language. Do not mention the sub-tasks.`

// CapabilityExecutor executes plan steps by invoking the selected
// capabilities through the catalog, and phrases the turn's response from
// the accumulated sub-task outputs.
type CapabilityExecutor struct {
	catalog   *CatalogService
	provider  decision.Provider
	maxTokens int
	retry     resilience.RetryPolicy
}

// NewCapabilityExecutor creates an executor over the catalog. provider may
// be nil; responses then fall back to joining the sub-task outputs.
func NewCapabilityExecutor(catalog *CatalogService, provider decision.Provider, maxTokens int, retry resilience.RetryPolicy) *CapabilityExecutor {
	return &CapabilityExecutor{catalog: catalog, provider: provider, maxTokens: maxTokens, retry: retry}
}

// ExecuteStep invokes the step against the selected capabilities in order
// and returns the first successful result as the step's summary.
func (e *CapabilityExecutor) ExecuteStep(ctx context.Context, agentIDs []string, step turn.PlanStep) (turn.SubTaskSummary, error) {
	if len(agentIDs) == 0 {
		return turn.SubTaskSummary{}, fmt.Errorf("step %s: no capabilities selected", step.ID)
	}

	var lastErr error
	for _, id := range agentIDs {
		var result string
		err := resilience.Retry(ctx, e.retry, func() error {
			var invErr error
			result, invErr = e.catalog.Invoke(ctx, id, map[string]any{"query": step.Content})
			return invErr
		})
		if err != nil {
			lastErr = err
			continue
		}
		return turn.SubTaskSummary{Domain: e.domainFor(id), Content: result}, nil
	}
	return turn.SubTaskSummary{}, fmt.Errorf("step %s: all capabilities failed: %w", step.ID, lastErr)
}

// Respond produces the turn's candidate response from the sub-task
// summaries. Without a decision provider the summaries are joined as-is.
func (e *CapabilityExecutor) Respond(ctx context.Context, query string, summaries []turn.SubTaskSummary) (string, error) {
	if len(summaries) == 0 {
		return "", fmt.Errorf("no sub-task output to respond from")
	}

	if e.provider == nil {
		parts := make([]string, len(summaries))
		for i, s := range summaries {
			parts[i] = s.Content
		}
		return strings.Join(parts, "\n\n"), nil
	}

	var b strings.Builder
	b.WriteString("Request: ")
	b.WriteString(query)
	for _, s := range summaries {
		b.WriteString("\n\nResult from ")
		b.WriteString(s.Domain)
		b.WriteString(":\n")
		b.WriteString(s.Content)
	}

	resp, err := e.provider.Decide(ctx, decision.Request{
		System:    respondSystemPrompt,
		User:      b.String(),
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("respond: %w", err)
	}
	return resp.Content, nil
}

// domainFor maps a capability id to its convergence domain: the category
// when set, else the namespace root, else the id itself.
func (e *CapabilityExecutor) domainFor(capabilityID string) string {
	d, ok := e.catalog.Catalog().Get(capabilityID)
	if !ok {
		return capabilityID
	}
	if d.Category != "" {
		return d.Category
	}
	if !d.Namespace.IsZero() {
		return d.Namespace[0]
	}
	return capabilityID
}
