package types

import (
	"cosmossdk.io/math"
)

const (
	ModuleName = "liquidation"

	// BasisPoints is the denominator for ratio fields.
	BasisPoints = int64(10000)
)

// LiquidationStatus tracks a liquidation record.
type LiquidationStatus int

const (
	LiquidationExecuted LiquidationStatus = iota
	LiquidationPartial
	LiquidationEmergency
)

func (s LiquidationStatus) String() string {
	switch s {
	case LiquidationExecuted:
		return "executed"
	case LiquidationPartial:
		return "partial"
	case LiquidationEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// LiquidationRecord is the audit entry written for every executed
// liquidation.
type LiquidationRecord struct {
	LiquidationID       uint64            `json:"liquidation_id"`
	PositionID          uint64            `json:"position_id"`
	Owner               string            `json:"owner"`
	Liquidator          string            `json:"liquidator"`
	LiquidatedAmount    math.Int          `json:"liquidated_amount"`
	LiquidatedValue     math.Int          `json:"liquidated_value"`
	Penalty             math.Int          `json:"penalty"`
	RemainingCollateral math.Int          `json:"remaining_collateral"`
	ShortfallCovered    math.Int          `json:"shortfall_covered"`
	Forced              bool              `json:"forced"`
	Status              LiquidationStatus `json:"status"`
	Timestamp           int64             `json:"timestamp"` // unix ms
}

// LiquidationConfig holds the liquidation policy parameters. Rates are
// basis points.
type LiquidationConfig struct {
	// PenaltyRateBps is charged on the liquidated value. Policy range
	// 500-1000.
	PenaltyRateBps int64 `json:"penalty_rate_bps"`

	// AutoLiquidationFractionBps bounds how much of a position's
	// exposure one monitor pass may close.
	AutoLiquidationFractionBps int64 `json:"auto_liquidation_fraction_bps"`

	// ForcedClosurePenaltyBps is charged on remaining collateral when an
	// emergency close is forced.
	ForcedClosurePenaltyBps int64 `json:"forced_closure_penalty_bps"`

	// LiquidatorRewardShareBps is the penalty share paid to the caller
	// that triggered the liquidation; the rest accrues to the insurance
	// fund.
	LiquidatorRewardShareBps int64 `json:"liquidator_reward_share_bps"`

	// MaxLiquidationsPerBlock caps the end-of-block sweep.
	MaxLiquidationsPerBlock int `json:"max_liquidations_per_block"`
}

// DefaultLiquidationConfig returns the production liquidation policy
func DefaultLiquidationConfig() LiquidationConfig {
	return LiquidationConfig{
		PenaltyRateBps:             1000,
		AutoLiquidationFractionBps: 5000,
		ForcedClosurePenaltyBps:    1000,
		LiquidatorRewardShareBps:   3000,
		MaxLiquidationsPerBlock:    100,
	}
}

// Validate enforces the policy bounds
func (c LiquidationConfig) Validate() error {
	if c.PenaltyRateBps < 500 || c.PenaltyRateBps > 1000 {
		return ErrInvalidConfig.Wrap("penalty rate outside 5%-10% policy range")
	}
	if c.AutoLiquidationFractionBps <= 0 || c.AutoLiquidationFractionBps > BasisPoints {
		return ErrInvalidConfig.Wrap("auto liquidation fraction outside (0,100%]")
	}
	if c.LiquidatorRewardShareBps < 0 || c.LiquidatorRewardShareBps > BasisPoints {
		return ErrInvalidConfig.Wrap("liquidator reward share outside [0,100%]")
	}
	if c.MaxLiquidationsPerBlock <= 0 {
		return ErrInvalidConfig.Wrap("max liquidations per block must be positive")
	}
	return nil
}
