package handlers

import (
	"net/http"
	"strconv"

	"github.com/gashedge/gashedge/api/types"
)

// SystemHandler handles breaker status and risk aggregate HTTP requests
type SystemHandler struct {
	service types.SystemService
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(service types.SystemService) *SystemHandler {
	return &SystemHandler{service: service}
}

// HandleBreakerStatus handles GET /v1/breaker/status
func (h *SystemHandler) HandleBreakerStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	status, err := h.service.GetBreakerStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_breaker_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"breaker": status})
}

// HandleRiskMetrics handles GET /v1/risk/metrics
func (h *SystemHandler) HandleRiskMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	metrics, err := h.service.GetRiskMetrics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_metrics_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"metrics": metrics})
}

// HandleLiquidations handles GET /v1/liquidations
func (h *SystemHandler) HandleLiquidations(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	req := types.ListLiquidationsRequest{Limit: parseLimit(r)}
	if raw := r.URL.Query().Get("position_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_position_id", "position_id must be a positive integer")
			return
		}
		req.PositionID = id
	}

	resp, err := h.service.ListLiquidations(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_liquidations_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
