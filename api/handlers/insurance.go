package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gashedge/gashedge/api/types"
)

// InsuranceHandler handles insurance fund and claim HTTP requests
type InsuranceHandler struct {
	service types.InsuranceService
}

// NewInsuranceHandler creates a new insurance handler
func NewInsuranceHandler(service types.InsuranceService) *InsuranceHandler {
	return &InsuranceHandler{service: service}
}

// HandleFund handles GET /v1/insurance/fund
func (h *InsuranceHandler) HandleFund(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	status, err := h.service.GetFundStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_fund_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"fund": status})
}

// HandleClaims handles /v1/insurance/claims (GET for list, POST to file)
func (h *InsuranceHandler) HandleClaims(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listClaims(w, r)
	case http.MethodPost:
		h.fileClaim(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// HandleClaim handles GET /v1/insurance/claims/{id}
func (h *InsuranceHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/v1/insurance/claims/")
	id, ok := parseID(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_claim_id", "Claim ID must be a positive integer")
		return
	}

	claim, err := h.service.GetClaim(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "claim_not_found", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "get_claim_failed", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"claim": claim})
}

// listClaims handles GET /v1/insurance/claims
func (h *InsuranceHandler) listClaims(w http.ResponseWriter, r *http.Request) {
	req := types.ListClaimsRequest{
		Claimant: r.URL.Query().Get("claimant"),
		State:    r.URL.Query().Get("state"),
		Limit:    parseLimit(r),
	}

	resp, err := h.service.ListClaims(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_claims_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// fileClaim handles POST /v1/insurance/claims
func (h *InsuranceHandler) fileClaim(w http.ResponseWriter, r *http.Request) {
	var req types.FileClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	if req.Claimant == "" {
		req.Claimant = r.Header.Get("X-Owner-Address")
	}
	if req.Claimant == "" {
		writeError(w, http.StatusBadRequest, "missing_claimant", "claimant address is required")
		return
	}
	if req.Amount == "" {
		writeError(w, http.StatusBadRequest, "missing_amount", "amount is required")
		return
	}
	if req.Evidence == "" {
		writeError(w, http.StatusBadRequest, "missing_evidence", "evidence is required")
		return
	}

	resp, err := h.service.FileClaim(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file_claim_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}
