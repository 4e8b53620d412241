package types

import (
	"context"
	"time"
)

// PositionView is the wire form of a risk position. Amounts are decimal
// strings in base units, ratios are basis points.
type PositionView struct {
	PositionID      uint64 `json:"position_id"`
	Owner           string `json:"owner"`
	Exposure        string `json:"exposure"`
	Collateral      string `json:"collateral"`
	Leverage        int64  `json:"leverage"`
	EntryPrice      string `json:"entry_price"`
	HealthFactor    int64  `json:"health_factor"`
	State           string `json:"state"`
	AutoLiquidation bool   `json:"auto_liquidation"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
}

// PositionHealthView is the assessment endpoint payload.
type PositionHealthView struct {
	PositionID       uint64 `json:"position_id"`
	HealthFactor     int64  `json:"health_factor"`
	RiskScore        int64  `json:"risk_score"`
	RiskLevel        string `json:"risk_level"`
	LiquidationPrice string `json:"liquidation_price"`
	MarginCall       bool   `json:"margin_call"`
	Liquidatable     bool   `json:"liquidatable"`
}

// LiquidationView describes one liquidation record.
type LiquidationView struct {
	LiquidationID uint64 `json:"liquidation_id"`
	PositionID    uint64 `json:"position_id"`
	Liquidator    string `json:"liquidator,omitempty"`
	Amount        string `json:"amount"`
	Value         string `json:"value"`
	Penalty       string `json:"penalty"`
	Reward        string `json:"reward"`
	Shortfall     string `json:"shortfall"`
	Kind          string `json:"kind"`
	Timestamp     int64  `json:"timestamp"`
}

// FundStatusView reports insurance fund accounting.
type FundStatusView struct {
	Balance        string `json:"balance"`
	TotalDeposits  string `json:"total_deposits"`
	TotalPayouts   string `json:"total_payouts"`
	TotalPenalties string `json:"total_penalties"`
	PendingClaims  int    `json:"pending_claims"`
}

// ClaimView is the wire form of an insurance claim.
type ClaimView struct {
	ClaimID        uint64 `json:"claim_id"`
	Claimant       string `json:"claimant"`
	IncidentType   string `json:"incident_type"`
	Amount         string `json:"amount"`
	ApprovedAmount string `json:"approved_amount,omitempty"`
	State          string `json:"state"`
	Evidence       string `json:"evidence,omitempty"`
	FiledAt        int64  `json:"filed_at"`
	AssessedAt     int64  `json:"assessed_at,omitempty"`
}

// BreakerStatusView reports circuit breaker and emergency flags.
type BreakerStatusView struct {
	VolatilityTripped bool   `json:"volatility_tripped"`
	VolumeTripped     bool   `json:"volume_tripped"`
	CascadeTripped    bool   `json:"cascade_tripped"`
	TriggerCount      uint64 `json:"trigger_count"`
	LastTriggeredAt   int64  `json:"last_triggered_at,omitempty"`
	CooldownMillis    int64  `json:"cooldown_millis"`
	Paused            bool   `json:"paused"`
	EmergencyMode     bool   `json:"emergency_mode"`
	SystemRiskLevel   string `json:"system_risk_level"`
}

// RiskMetricsView reports rolling system-wide risk aggregates.
type RiskMetricsView struct {
	TotalExposure        string `json:"total_exposure"`
	CurrentDailyLoss     string `json:"current_daily_loss"`
	LiquidationsInWindow uint64 `json:"liquidations_in_window"`
	WindowStartedAt      int64  `json:"window_started_at"`
}

// PriceView is the last accepted oracle observation.
type PriceView struct {
	Symbol     string `json:"symbol"`
	Price      string `json:"price"`
	Confidence int64  `json:"confidence"`
	UpdatedAt  int64  `json:"updated_at"`
}

// ListPositionsRequest filters the position listing.
type ListPositionsRequest struct {
	Owner         string `json:"owner,omitempty"`
	State         string `json:"state,omitempty"`
	UnhealthyOnly bool   `json:"unhealthy_only,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// ListPositionsResponse carries a filtered page of positions.
type ListPositionsResponse struct {
	Positions []PositionView `json:"positions"`
	Total     int            `json:"total"`
}

// ListLiquidationsRequest filters liquidation history.
type ListLiquidationsRequest struct {
	PositionID uint64 `json:"position_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// ListLiquidationsResponse carries a page of liquidation records.
type ListLiquidationsResponse struct {
	Liquidations []LiquidationView `json:"liquidations"`
	Total        int               `json:"total"`
}

// ListClaimsRequest filters the claim listing.
type ListClaimsRequest struct {
	Claimant string `json:"claimant,omitempty"`
	State    string `json:"state,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// ListClaimsResponse carries a page of claims.
type ListClaimsResponse struct {
	Claims []ClaimView `json:"claims"`
	Total  int         `json:"total"`
}

// FileClaimRequest submits a claim for assessment.
type FileClaimRequest struct {
	Claimant     string `json:"claimant"`
	IncidentType string `json:"incident_type"`
	Amount       string `json:"amount"`
	Evidence     string `json:"evidence"`
}

// FileClaimResponse returns the newly filed claim.
type FileClaimResponse struct {
	Claim ClaimView `json:"claim"`
}

// PositionService reads position and price state.
type PositionService interface {
	ListPositions(ctx context.Context, req ListPositionsRequest) (*ListPositionsResponse, error)
	GetPosition(ctx context.Context, positionID uint64) (*PositionView, error)
	GetPositionHealth(ctx context.Context, positionID uint64) (*PositionHealthView, error)
	GetPrice(ctx context.Context) (*PriceView, error)
}

// InsuranceService reads fund state and accepts claim filings.
type InsuranceService interface {
	GetFundStatus(ctx context.Context) (*FundStatusView, error)
	ListClaims(ctx context.Context, req ListClaimsRequest) (*ListClaimsResponse, error)
	GetClaim(ctx context.Context, claimID uint64) (*ClaimView, error)
	FileClaim(ctx context.Context, req FileClaimRequest) (*FileClaimResponse, error)
}

// SystemService reads breaker state and system-wide risk aggregates.
type SystemService interface {
	GetBreakerStatus(ctx context.Context) (*BreakerStatusView, error)
	GetRiskMetrics(ctx context.Context) (*RiskMetricsView, error)
	ListLiquidations(ctx context.Context, req ListLiquidationsRequest) (*ListLiquidationsResponse, error)
}

// NowMillis returns current timestamp in milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
