package messagequeue

// TurnSelectedPayload is the schema for turns.selected messages.
type TurnSelectedPayload struct {
	TurnID string   `json:"turn_id"`
	Agents []string `json:"agents,omitempty"`
}

// TurnReplannedPayload is the schema for turns.replanned messages.
type TurnReplannedPayload struct {
	TurnID  string `json:"turn_id"`
	Replans int    `json:"replans"`
}

// TurnFinalizedPayload is the schema for turns.finalized messages.
type TurnFinalizedPayload struct {
	TurnID  string   `json:"turn_id"`
	Agents  []string `json:"agents,omitempty"`
	Steps   int      `json:"steps"`
	Replans int      `json:"replans,omitempty"`
	Guard   bool     `json:"guard,omitempty"`
}

// RetrievalScoredPayload is the schema for retrieval.scored messages.
type RetrievalScoredPayload struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	DurationMs int64    `json:"duration_ms"`
}
