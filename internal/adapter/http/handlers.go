package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/retrieval"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/feedback"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/messagequeue"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// Handlers bundles the services the HTTP surface exposes. Feedback and
// Queue may be nil; their endpoints then report unavailability.
type Handlers struct {
	Catalog      *service.CatalogService
	Retrieval    *service.RetrievalService
	Rerank       *service.RerankService
	Orchestrator *service.Orchestrator
	Feedback     feedback.Store
	Queue        messagequeue.Queue
	Version      string
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	type healthStatus struct {
		Status      string `json:"status"`
		Version     string `json:"version"`
		CatalogSize int    `json:"catalog_size"`
		Queue       string `json:"queue"`
	}

	status := healthStatus{
		Status:      "ok",
		Version:     h.Version,
		CatalogSize: h.Catalog.Catalog().Len(),
		Queue:       "disabled",
	}
	if h.Queue != nil {
		status.Queue = "disconnected"
		if h.Queue.IsConnected() {
			status.Queue = "connected"
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// ListCapabilities handles GET /v1/capabilities.
func (h *Handlers) ListCapabilities(w http.ResponseWriter, _ *http.Request) {
	catalog := h.Catalog.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"size":         catalog.Len(),
		"capabilities": catalog.All(),
	})
}

// rankedCandidate is one entry of the retrieve response: the final rank
// plus the scorer's full breakdown for explainability.
type rankedCandidate struct {
	ID         string              `json:"id"`
	Score      float64             `json:"score"`
	Provenance string              `json:"provenance"`
	Breakdown  retrieval.Breakdown `json:"breakdown"`
}

// Retrieve handles POST /v1/retrieve.
func (h *Handlers) Retrieve(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Query              string   `json:"query"`
		SessionID          string   `json:"session_id"`
		PrimaryNamespaces  []string `json:"primary_namespaces"`
		FallbackNamespaces []string `json:"fallback_namespaces"`
		Limit              int      `json:"limit"`
	}](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if !requireField(w, req.Query, "query") {
		return
	}

	q := retrieval.NormalizeQuery(req.Query)
	primary := capability.ParsePaths(req.PrimaryNamespaces)
	fallback := capability.ParsePaths(req.FallbackNamespaces)

	scored := h.Retrieval.Retrieve(r.Context(), q, primary, fallback)
	ranked := h.Rerank.Rerank(r.Context(), req.SessionID, q, scored)

	breakdowns := make(map[string]retrieval.Breakdown, len(scored))
	for _, sc := range scored {
		breakdowns[sc.ID] = sc.Breakdown
	}

	if req.Limit > 0 && req.Limit < len(ranked) {
		ranked = ranked[:req.Limit]
	}

	out := make([]rankedCandidate, len(ranked))
	for i, rc := range ranked {
		out[i] = rankedCandidate{
			ID:         rc.ID,
			Score:      rc.Score,
			Provenance: rc.Provenance,
			Breakdown:  breakdowns[rc.ID],
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q.Folded, "candidates": out})
}

// RunTurn handles POST /v1/turns.
func (h *Handlers) RunTurn(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.TurnRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if !requireField(w, req.Query, "query") {
		return
	}

	result, err := h.Orchestrator.RunTurn(r.Context(), req)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RecordFeedback handles POST /v1/feedback.
func (h *Handlers) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	if h.Feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback store not configured")
		return
	}

	req, ok := readJSON[struct {
		CapabilityID string  `json:"capability_id"`
		Query        string  `json:"query"`
		Accepted     bool    `json:"accepted"`
		Weight       float64 `json:"weight"`
	}](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if !requireField(w, req.CapabilityID, "capability_id") || !requireField(w, req.Query, "query") {
		return
	}
	if _, found := h.Catalog.Catalog().Get(req.CapabilityID); !found {
		writeError(w, http.StatusNotFound, "unknown capability")
		return
	}

	outcome := feedback.Outcome{
		CapabilityID:    req.CapabilityID,
		NormalizedQuery: retrieval.NormalizeQuery(req.Query).Folded,
		Accepted:        req.Accepted,
		Weight:          req.Weight,
	}
	if err := h.Feedback.RecordOutcome(r.Context(), outcome); err != nil {
		writeDomainError(w, err, "feedback not recorded")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTrace handles GET /v1/sessions/{session_id}/trace?query=...
func (h *Handlers) GetTrace(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	query := r.URL.Query().Get("query")
	if !requireField(w, query, "query") {
		return
	}

	trace, found := h.Rerank.Trace(r.Context(), sessionID, retrieval.NormalizeQuery(query))
	if !found {
		writeError(w, http.StatusNotFound, "no trace for session and query")
		return
	}
	writeJSON(w, http.StatusOK, trace)
}
