package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gashedge/gashedge/api/types"
)

type stubPositionService struct {
	positions map[uint64]types.PositionView
	price     *types.PriceView
}

func (s *stubPositionService) ListPositions(ctx context.Context, req types.ListPositionsRequest) (*types.ListPositionsResponse, error) {
	out := make([]types.PositionView, 0)
	for _, p := range s.positions {
		if req.Owner != "" && p.Owner != req.Owner {
			continue
		}
		out = append(out, p)
	}
	return &types.ListPositionsResponse{Positions: out, Total: len(out)}, nil
}

func (s *stubPositionService) GetPosition(ctx context.Context, id uint64) (*types.PositionView, error) {
	p, ok := s.positions[id]
	if !ok {
		return nil, fmt.Errorf("position not found: %d", id)
	}
	return &p, nil
}

func (s *stubPositionService) GetPositionHealth(ctx context.Context, id uint64) (*types.PositionHealthView, error) {
	p, ok := s.positions[id]
	if !ok {
		return nil, fmt.Errorf("position not found: %d", id)
	}
	return &types.PositionHealthView{PositionID: id, HealthFactor: p.HealthFactor}, nil
}

func (s *stubPositionService) GetPrice(ctx context.Context) (*types.PriceView, error) {
	if s.price == nil {
		return nil, fmt.Errorf("price not found")
	}
	return s.price, nil
}

type stubInsuranceService struct {
	claims  map[uint64]types.ClaimView
	nextID  uint64
	fileErr error
}

func (s *stubInsuranceService) GetFundStatus(ctx context.Context) (*types.FundStatusView, error) {
	return &types.FundStatusView{Balance: "1000000", PendingClaims: len(s.claims)}, nil
}

func (s *stubInsuranceService) ListClaims(ctx context.Context, req types.ListClaimsRequest) (*types.ListClaimsResponse, error) {
	out := make([]types.ClaimView, 0, len(s.claims))
	for _, c := range s.claims {
		out = append(out, c)
	}
	return &types.ListClaimsResponse{Claims: out, Total: len(out)}, nil
}

func (s *stubInsuranceService) GetClaim(ctx context.Context, id uint64) (*types.ClaimView, error) {
	c, ok := s.claims[id]
	if !ok {
		return nil, fmt.Errorf("claim not found: %d", id)
	}
	return &c, nil
}

func (s *stubInsuranceService) FileClaim(ctx context.Context, req types.FileClaimRequest) (*types.FileClaimResponse, error) {
	if s.fileErr != nil {
		return nil, s.fileErr
	}
	s.nextID++
	claim := types.ClaimView{
		ClaimID:      s.nextID,
		Claimant:     req.Claimant,
		IncidentType: req.IncidentType,
		Amount:       req.Amount,
		State:        "pending",
	}
	s.claims[s.nextID] = claim
	return &types.FileClaimResponse{Claim: claim}, nil
}

func newPositionStub() *stubPositionService {
	return &stubPositionService{
		positions: map[uint64]types.PositionView{
			1: {PositionID: 1, Owner: "alice", Exposure: "1000000", Collateral: "1200000", Leverage: 10000, HealthFactor: 12000, State: "active"},
			2: {PositionID: 2, Owner: "bob", Exposure: "500000", Collateral: "700000", Leverage: 20000, HealthFactor: 7000, State: "liquidatable"},
		},
		price: &types.PriceView{Symbol: "GAS", Price: "1000000", Confidence: 9800},
	}
}

func TestHandlePositions(t *testing.T) {
	h := NewPositionHandler(newPositionStub())

	testCases := []struct {
		name       string
		method     string
		url        string
		wantStatus int
		wantTotal  int
	}{
		{"list all", http.MethodGet, "/v1/positions", http.StatusOK, 2},
		{"filter owner", http.MethodGet, "/v1/positions?owner=alice", http.StatusOK, 1},
		{"method not allowed", http.MethodDelete, "/v1/positions", http.StatusMethodNotAllowed, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.url, nil)
			rec := httptest.NewRecorder()
			h.HandlePositions(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantStatus != http.StatusOK {
				return
			}
			var resp types.ListPositionsResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Total != tc.wantTotal {
				t.Errorf("total = %d, want %d", resp.Total, tc.wantTotal)
			}
		})
	}
}

func TestHandlePosition(t *testing.T) {
	h := NewPositionHandler(newPositionStub())

	testCases := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{"found", "/v1/positions/1", http.StatusOK},
		{"not found", "/v1/positions/99", http.StatusNotFound},
		{"bad id", "/v1/positions/abc", http.StatusBadRequest},
		{"health", "/v1/positions/2/health", http.StatusOK},
		{"unknown subresource", "/v1/positions/1/margin", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rec := httptest.NewRecorder()
			h.HandlePosition(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestHandlePositionHealthPayload(t *testing.T) {
	h := NewPositionHandler(newPositionStub())

	req := httptest.NewRequest(http.MethodGet, "/v1/positions/2/health", nil)
	rec := httptest.NewRecorder()
	h.HandlePosition(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Health types.PositionHealthView `json:"health"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Health.PositionID != 2 {
		t.Errorf("position_id = %d, want 2", resp.Health.PositionID)
	}
	if resp.Health.HealthFactor != 7000 {
		t.Errorf("health_factor = %d, want 7000", resp.Health.HealthFactor)
	}
}

func TestHandlePrice(t *testing.T) {
	h := NewPositionHandler(newPositionStub())

	req := httptest.NewRequest(http.MethodGet, "/v1/price", nil)
	rec := httptest.NewRecorder()
	h.HandlePrice(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"symbol":"GAS"`) {
		t.Errorf("body missing price symbol: %s", rec.Body.String())
	}

	stale := NewPositionHandler(&stubPositionService{})
	rec = httptest.NewRecorder()
	stale.HandlePrice(rec, httptest.NewRequest(http.MethodGet, "/v1/price", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleFileClaim(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		header     string
		wantStatus int
	}{
		{
			name:       "valid",
			body:       `{"claimant":"alice","incident_type":"liquidation_shortfall","amount":"500","evidence":"tx 0xabc"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "claimant from header",
			body:       `{"incident_type":"oracle_failure","amount":"500","evidence":"stale feed"}`,
			header:     "bob",
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing claimant",
			body:       `{"incident_type":"oracle_failure","amount":"500","evidence":"stale feed"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing evidence",
			body:       `{"claimant":"alice","incident_type":"oracle_failure","amount":"500"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewInsuranceHandler(&stubInsuranceService{claims: make(map[uint64]types.ClaimView)})
			req := httptest.NewRequest(http.MethodPost, "/v1/insurance/claims", strings.NewReader(tc.body))
			if tc.header != "" {
				req.Header.Set("X-Owner-Address", tc.header)
			}
			rec := httptest.NewRecorder()
			h.HandleClaims(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandleClaimLookup(t *testing.T) {
	svc := &stubInsuranceService{claims: map[uint64]types.ClaimView{
		7: {ClaimID: 7, Claimant: "alice", State: "approved"},
	}}
	h := NewInsuranceHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/insurance/claims/7", nil)
	rec := httptest.NewRecorder()
	h.HandleClaim(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	h.HandleClaim(rec, httptest.NewRequest(http.MethodGet, "/v1/insurance/claims/8", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
