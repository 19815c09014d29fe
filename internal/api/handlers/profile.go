package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/iQube-Protocol/moneypenny/internal/api/middleware"
	"github.com/iQube-Protocol/moneypenny/internal/logger"
	"github.com/iQube-Protocol/moneypenny/internal/pipeline"
	"github.com/iQube-Protocol/moneypenny/internal/profile"
	"github.com/iQube-Protocol/moneypenny/internal/records"
)

// ProfileHandler serves multi-period aggregation and extraction history.
type ProfileHandler struct {
	svc     *pipeline.Service
	history records.HistoryReader
}

// NewProfileHandler wires the handler. history may be nil when no store is configured.
func NewProfileHandler(svc *pipeline.Service, history records.HistoryReader) *ProfileHandler {
	return &ProfileHandler{svc: svc, history: history}
}

// AggregateRequest is the body of POST /profile/aggregate. Each month's proposed_overrides
// are accepted and ignored. Missing feature keys, and a missing months list, count as zero.
type AggregateRequest struct {
	TenantID string          `json:"tenant_id"`
	Months   []MonthFeatures `json:"months"`
}

// MonthFeatures is one period of an aggregate request.
type MonthFeatures struct {
	Month             string                  `json:"month"`
	Features          profile.FeatureSet      `json:"features"`
	ProposedOverrides *profile.PolicyOverride `json:"proposed_overrides,omitempty"`
}

// Aggregate handles POST /profile/aggregate
func (h *ProfileHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorCode(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.TenantID) == "" {
		middleware.WriteErrorCode(w, http.StatusBadRequest, CodeBadRequest, "tenant_id is required", nil)
		return
	}

	periods := make([]profile.Period, 0, len(req.Months))
	for i, m := range req.Months {
		if !m.Features.IsFinite() {
			middleware.WriteErrorCode(w, http.StatusBadRequest, CodeBadRequest, "Features must be finite numbers", map[string]interface{}{"index": i, "month": m.Month})
			return
		}
		periods = append(periods, profile.Period{Label: m.Month, Features: m.Features})
	}

	summary := h.svc.Aggregate(r.Context(), req.TenantID, periods)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tenant_id": req.TenantID,
		"aggregate": summary,
	})
}

// History handles GET /profile/history?tenant_id=...&limit=...
func (h *ProfileHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Profile history is not configured")
		return
	}

	query := r.URL.Query()
	tenantID := strings.TrimSpace(query.Get("tenant_id"))
	if tenantID == "" {
		middleware.WriteErrorCode(w, http.StatusBadRequest, CodeBadRequest, "tenant_id is required", nil)
		return
	}

	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			limit = n
		}
	}

	extractions, err := h.history.ListExtractions(r.Context(), tenantID, limit)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to list extraction history")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list extraction history")
		return
	}
	if extractions == nil {
		extractions = []records.ExtractionRecord{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tenant_id":   tenantID,
		"extractions": extractions,
		"count":       len(extractions),
	})
}
