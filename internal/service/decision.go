package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/decision"
)

// callDecision runs one decision call and decodes the structured payload
// into out. The provider may reason before answering, so decoding falls
// back to extractJSON when the raw content is not valid JSON.
func callDecision(ctx context.Context, provider decision.Provider, req decision.Request, out any) error {
	if provider == nil {
		return fmt.Errorf("no decision provider configured")
	}

	resp, err := provider.Decide(ctx, req)
	if err != nil {
		return fmt.Errorf("decision call: %w", err)
	}

	if err := json.Unmarshal([]byte(resp.Content), out); err == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), out); err != nil {
		return fmt.Errorf("decode decision response: %w", err)
	}
	return nil
}

// extractJSON attempts to extract a JSON object from a string that may contain
// markdown fences or other surrounding text.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	// Strip markdown code fences
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}

	// Find first { and last }
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}

	return s
}
