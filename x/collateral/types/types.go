package types

import (
	"cosmossdk.io/math"
)

const (
	ModuleName = "collateral"

	// BasisPoints is the denominator for all ratio fields (10000 = 100%).
	BasisPoints = int64(10000)

	// PriceScale is the fixed-point scale for oracle prices (1e6 = 1.0).
	PriceScale = int64(1_000_000)

	// MinCollateralRatio is the floor enforced at position creation: 120%.
	MinCollateralRatio = int64(12000)

	// DefaultLiquidationThreshold is the health factor below which a
	// position becomes liquidatable: 80%.
	DefaultLiquidationThreshold = int64(8000)

	// DefaultMarginCallLevel is the health factor below which a margin
	// call is raised: 90%.
	DefaultMarginCallLevel = int64(9000)

	// CollateralDenom is the settlement denom positions post margin in.
	CollateralDenom = "ugas"
)

// PositionState tracks a position through its lifecycle.
type PositionState int

const (
	StateHealthy PositionState = iota
	StateMarginCall
	StateLiquidatable
	StatePartiallyLiquidated
	StateClosed
)

func (s PositionState) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateMarginCall:
		return "margin_call"
	case StateLiquidatable:
		return "liquidatable"
	case StatePartiallyLiquidated:
		return "partially_liquidated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// RiskLevel is the coarse classification derived from the health factor.
type RiskLevel int

const (
	RiskLevelLow RiskLevel = iota
	RiskLevelMedium
	RiskLevelHigh
	RiskLevelCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLevelLow:
		return "low"
	case RiskLevelMedium:
		return "medium"
	case RiskLevelHigh:
		return "high"
	case RiskLevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// RiskPosition is a leveraged exposure backed by posted collateral.
//
// ExposureAmount is denominated in gas units, CollateralAmount in ugas.
// All ratio fields (leverage, health factor, thresholds) are basis points.
type RiskPosition struct {
	PositionID             uint64        `json:"position_id"`
	Owner                  string        `json:"owner"`
	ExposureAmount         math.Int      `json:"exposure_amount"`
	CollateralAmount       math.Int      `json:"collateral_amount"`
	LeverageRatio          int64         `json:"leverage_ratio"`
	HealthFactor           math.Int      `json:"health_factor"`
	LiquidationThreshold   int64         `json:"liquidation_threshold"`
	MarginCallLevel        int64         `json:"margin_call_level"`
	RiskScore              uint32        `json:"risk_score"`
	AutoLiquidationEnabled bool          `json:"auto_liquidation_enabled"`
	State                  PositionState `json:"state"`
	LastUpdate             int64         `json:"last_update"` // unix ms
}

// IsLiquidatable reports whether the cached health factor has crossed
// the liquidation threshold.
func (p *RiskPosition) IsLiquidatable() bool {
	return p.HealthFactor.LT(math.NewInt(p.LiquidationThreshold))
}

// IsUnderMarginCall reports whether the cached health factor has crossed
// the margin call level but not yet the liquidation threshold.
func (p *RiskPosition) IsUnderMarginCall() bool {
	hf := p.HealthFactor
	return hf.LT(math.NewInt(p.MarginCallLevel)) && hf.GTE(math.NewInt(p.LiquidationThreshold))
}

// PositionHealth is a read-only snapshot of a position's risk standing.
type PositionHealth struct {
	PositionID       uint64    `json:"position_id"`
	Owner            string    `json:"owner"`
	HealthFactor     math.Int  `json:"health_factor"`
	RiskScore        uint32    `json:"risk_score"`
	RiskLevel        RiskLevel `json:"risk_level"`
	LiquidationPrice math.Int  `json:"liquidation_price"`
	State            string    `json:"state"`
}

// PriceInfo is an oracle observation for a symbol. Price is scaled by
// PriceScale; Confidence is basis points.
type PriceInfo struct {
	Symbol     string   `json:"symbol"`
	Price      math.Int `json:"price"`
	Confidence int64    `json:"confidence"`
	Timestamp  int64    `json:"timestamp"` // unix ms
}

// GasSymbol is the single price symbol the engine tracks.
const GasSymbol = "GAS"

// PriceConfig bounds oracle observations accepted for risk evaluation.
type PriceConfig struct {
	MaxPriceAgeMs int64 `json:"max_price_age_ms"`
	MinConfidence int64 `json:"min_confidence"` // bps
}

// DefaultPriceConfig returns the production price acceptance bounds.
func DefaultPriceConfig() PriceConfig {
	return PriceConfig{
		MaxPriceAgeMs: 60_000,
		MinConfidence: 9000,
	}
}
