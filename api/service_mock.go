package api

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/gashedge/gashedge/api/types"
)

// MockService implements all service interfaces against in-memory state.
// It backs the server in standalone mode and the handler tests.
type MockService struct {
	positions    map[uint64]*types.PositionView
	claims       map[uint64]*types.ClaimView
	liquidations []types.LiquidationView
	fund         types.FundStatusView
	breaker      types.BreakerStatusView
	metrics      types.RiskMetricsView
	price        *types.PriceView
	mu           sync.RWMutex
	claimSeq     uint64
}

// NewMockService creates a new mock service with empty state.
func NewMockService() *MockService {
	return &MockService{
		positions: make(map[uint64]*types.PositionView),
		claims:    make(map[uint64]*types.ClaimView),
		fund: types.FundStatusView{
			Balance:        "0",
			TotalDeposits:  "0",
			TotalPayouts:   "0",
			TotalPenalties: "0",
		},
		breaker: types.BreakerStatusView{
			CooldownMillis:  3_600_000,
			SystemRiskLevel: "normal",
		},
		metrics: types.RiskMetricsView{
			TotalExposure:    "0",
			CurrentDailyLoss: "0",
		},
	}
}

// SeedPosition installs a position for tests and demos.
func (ms *MockService) SeedPosition(p types.PositionView) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cp := p
	ms.positions[p.PositionID] = &cp
}

// SeedPrice installs an oracle observation.
func (ms *MockService) SeedPrice(p types.PriceView) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cp := p
	ms.price = &cp
}

// SeedLiquidation appends a liquidation record.
func (ms *MockService) SeedLiquidation(l types.LiquidationView) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.liquidations = append(ms.liquidations, l)
}

// SetBreakerStatus replaces the breaker snapshot.
func (ms *MockService) SetBreakerStatus(s types.BreakerStatusView) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.breaker = s
}

// SetFundStatus replaces the fund snapshot.
func (ms *MockService) SetFundStatus(s types.FundStatusView) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.fund = s
}

// ============ PositionService Implementation ============

func (ms *MockService) ListPositions(ctx context.Context, req types.ListPositionsRequest) (*types.ListPositionsResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	out := make([]types.PositionView, 0)
	for _, p := range ms.positions {
		if req.Owner != "" && p.Owner != req.Owner {
			continue
		}
		if req.State != "" && p.State != req.State {
			continue
		}
		if req.UnhealthyOnly && p.HealthFactor >= 9000 {
			continue
		}
		out = append(out, *p)
		if len(out) >= limit {
			break
		}
	}

	return &types.ListPositionsResponse{Positions: out, Total: len(out)}, nil
}

func (ms *MockService) GetPosition(ctx context.Context, positionID uint64) (*types.PositionView, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	p, ok := ms.positions[positionID]
	if !ok {
		return nil, fmt.Errorf("position not found: %d", positionID)
	}
	cp := *p
	return &cp, nil
}

func (ms *MockService) GetPositionHealth(ctx context.Context, positionID uint64) (*types.PositionHealthView, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	p, ok := ms.positions[positionID]
	if !ok {
		return nil, fmt.Errorf("position not found: %d", positionID)
	}

	level := "low"
	switch {
	case p.HealthFactor < 2000:
		level = "critical"
	case p.HealthFactor < 5000:
		level = "high"
	case p.HealthFactor < 8000:
		level = "medium"
	}

	var score int64
	switch {
	case p.Leverage >= 50000:
		score += 70
	case p.Leverage >= 30000:
		score += 40
	case p.Leverage >= 20000:
		score += 20
	}
	switch {
	case p.HealthFactor < 8000:
		score += 60
	case p.HealthFactor < 9000:
		score += 30
	case p.HealthFactor < 9500:
		score += 10
	}

	return &types.PositionHealthView{
		PositionID:       p.PositionID,
		HealthFactor:     p.HealthFactor,
		RiskScore:        score,
		RiskLevel:        level,
		LiquidationPrice: liquidationPrice(p),
		MarginCall:       p.HealthFactor < 9000 && p.HealthFactor >= 8000,
		Liquidatable:     p.HealthFactor < 8000,
	}, nil
}

func (ms *MockService) GetPrice(ctx context.Context) (*types.PriceView, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.price == nil {
		return nil, fmt.Errorf("price not found")
	}
	cp := *ms.price
	return &cp, nil
}

// liquidationPrice derives the oracle price at which collateral exactly
// meets the minimum collateral ratio. Mirrors on-chain math on string
// amounts so the mock stays self-contained.
func liquidationPrice(p *types.PositionView) string {
	collateral, ok1 := new(big.Int).SetString(p.Collateral, 10)
	exposure, ok2 := new(big.Int).SetString(p.Exposure, 10)
	if !ok1 || !ok2 || exposure.Sign() <= 0 {
		return "0"
	}
	num := new(big.Int).Mul(collateral, big.NewInt(10000))
	num.Mul(num, big.NewInt(1_000_000))
	den := new(big.Int).Mul(exposure, big.NewInt(12000))
	return new(big.Int).Div(num, den).String()
}

// ============ InsuranceService Implementation ============

func (ms *MockService) GetFundStatus(ctx context.Context) (*types.FundStatusView, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	status := ms.fund
	pending := 0
	for _, c := range ms.claims {
		if c.State == "pending" {
			pending++
		}
	}
	status.PendingClaims = pending
	return &status, nil
}

func (ms *MockService) ListClaims(ctx context.Context, req types.ListClaimsRequest) (*types.ListClaimsResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	out := make([]types.ClaimView, 0)
	for _, c := range ms.claims {
		if req.Claimant != "" && c.Claimant != req.Claimant {
			continue
		}
		if req.State != "" && c.State != req.State {
			continue
		}
		out = append(out, *c)
		if len(out) >= limit {
			break
		}
	}

	return &types.ListClaimsResponse{Claims: out, Total: len(out)}, nil
}

func (ms *MockService) GetClaim(ctx context.Context, claimID uint64) (*types.ClaimView, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	c, ok := ms.claims[claimID]
	if !ok {
		return nil, fmt.Errorf("claim not found: %d", claimID)
	}
	cp := *c
	return &cp, nil
}

func (ms *MockService) FileClaim(ctx context.Context, req types.FileClaimRequest) (*types.FileClaimResponse, error) {
	if req.Claimant == "" {
		return nil, fmt.Errorf("claimant is required")
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid amount: %s", req.Amount)
	}
	if req.Evidence == "" {
		return nil, fmt.Errorf("evidence is required")
	}
	switch req.IncidentType {
	case "liquidation_shortfall", "oracle_failure", "breaker_malfunction":
	default:
		return nil, fmt.Errorf("invalid incident type: %s", req.IncidentType)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	id := atomic.AddUint64(&ms.claimSeq, 1)
	claim := &types.ClaimView{
		ClaimID:      id,
		Claimant:     req.Claimant,
		IncidentType: req.IncidentType,
		Amount:       amount.String(),
		State:        "pending",
		Evidence:     req.Evidence,
		FiledAt:      nowMillis(),
	}
	ms.claims[id] = claim

	return &types.FileClaimResponse{Claim: *claim}, nil
}

// ============ SystemService Implementation ============

func (ms *MockService) GetBreakerStatus(ctx context.Context) (*types.BreakerStatusView, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	status := ms.breaker
	return &status, nil
}

func (ms *MockService) GetRiskMetrics(ctx context.Context) (*types.RiskMetricsView, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	metrics := ms.metrics
	return &metrics, nil
}

func (ms *MockService) ListLiquidations(ctx context.Context, req types.ListLiquidationsRequest) (*types.ListLiquidationsResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	out := make([]types.LiquidationView, 0)
	for _, l := range ms.liquidations {
		if req.PositionID != 0 && l.PositionID != req.PositionID {
			continue
		}
		out = append(out, l)
		if len(out) >= limit {
			break
		}
	}

	return &types.ListLiquidationsResponse{Liquidations: out, Total: len(out)}, nil
}
