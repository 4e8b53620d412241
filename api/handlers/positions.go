package handlers

import (
	"net/http"
	"strings"

	"github.com/gashedge/gashedge/api/types"
)

// PositionHandler handles position-related HTTP requests
type PositionHandler struct {
	service types.PositionService
}

// NewPositionHandler creates a new position handler
func NewPositionHandler(service types.PositionService) *PositionHandler {
	return &PositionHandler{service: service}
}

// HandlePositions handles /v1/positions endpoint (GET for list)
func (h *PositionHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPositions(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// HandlePosition handles /v1/positions/{id} and /v1/positions/{id}/health (GET)
func (h *PositionHandler) HandlePosition(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	prefix := "/v1/positions/"
	if !strings.HasPrefix(path, prefix) {
		writeError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" {
		writeError(w, http.StatusBadRequest, "missing_position_id", "Position ID is required")
		return
	}

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	parts := strings.Split(rest, "/")
	id, ok := parseID(parts[0])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_position_id", "Position ID must be a positive integer")
		return
	}

	if len(parts) == 2 && parts[1] == "health" {
		h.getPositionHealth(w, r, id)
		return
	}
	if len(parts) > 1 {
		writeError(w, http.StatusNotFound, "not_found", "Unknown position resource")
		return
	}
	h.getPosition(w, r, id)
}

// HandlePrice handles GET /v1/price
func (h *PositionHandler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	price, err := h.service.GetPrice(r.Context())
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "price_not_found", err.Error())
		} else {
			writeError(w, http.StatusServiceUnavailable, "price_unavailable", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"price": price})
}

// listPositions handles GET /v1/positions
func (h *PositionHandler) listPositions(w http.ResponseWriter, r *http.Request) {
	req := types.ListPositionsRequest{
		Owner: r.URL.Query().Get("owner"),
		State: r.URL.Query().Get("state"),
		Limit: parseLimit(r),
	}
	if r.URL.Query().Get("unhealthy") == "true" {
		req.UnhealthyOnly = true
	}
	if req.Owner == "" {
		req.Owner = r.Header.Get("X-Owner-Address")
	}

	resp, err := h.service.ListPositions(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_positions_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// getPosition handles GET /v1/positions/{id}
func (h *PositionHandler) getPosition(w http.ResponseWriter, r *http.Request, id uint64) {
	position, err := h.service.GetPosition(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "position_not_found", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "get_position_failed", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"position": position})
}

// getPositionHealth handles GET /v1/positions/{id}/health
func (h *PositionHandler) getPositionHealth(w http.ResponseWriter, r *http.Request, id uint64) {
	health, err := h.service.GetPositionHealth(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "position_not_found", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "get_health_failed", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"health": health})
}
