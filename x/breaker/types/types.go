package types

import (
	"cosmossdk.io/math"
)

const (
	ModuleName = "breaker"

	// BasisPoints is the denominator for all ratio fields.
	BasisPoints = int64(10000)

	// DefaultVolatilityThreshold trips the price volatility breaker at a
	// 20% single-window move.
	DefaultVolatilityThreshold = int64(2000)

	// DefaultVolumeSpikeThreshold trips the volume breaker at 5x the
	// reference volume.
	DefaultVolumeSpikeThreshold = int64(50000)

	// DefaultCascadeThreshold trips the liquidation cascade breaker when
	// 10% of open exposure is liquidated in a window.
	DefaultCascadeThreshold = int64(1000)

	// DefaultCooldownMs is the minimum time tripped breakers stay up.
	DefaultCooldownMs = int64(3_600_000) // 1h
)

// BreakerType identifies an individual circuit breaker.
type BreakerType int

const (
	BreakerPriceVolatility BreakerType = iota
	BreakerVolumeSpike
	BreakerLiquidationCascade
)

func (b BreakerType) String() string {
	switch b {
	case BreakerPriceVolatility:
		return "price_volatility"
	case BreakerVolumeSpike:
		return "volume_spike"
	case BreakerLiquidationCascade:
		return "liquidation_cascade"
	default:
		return "unknown"
	}
}

// SystemRiskLevel is the advisory system-wide risk classification.
type SystemRiskLevel int

const (
	SystemRiskLow SystemRiskLevel = iota
	SystemRiskMedium
	SystemRiskHigh
	SystemRiskCritical
)

func (l SystemRiskLevel) String() string {
	switch l {
	case SystemRiskLow:
		return "low"
	case SystemRiskMedium:
		return "medium"
	case SystemRiskHigh:
		return "high"
	case SystemRiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// CircuitBreakerState holds the tripped flags and trigger bookkeeping
// for the three breakers.
type CircuitBreakerState struct {
	PriceVolatilityTripped    bool     `json:"price_volatility_tripped"`
	VolumeSpikeTripped        bool     `json:"volume_spike_tripped"`
	LiquidationCascadeTripped bool     `json:"liquidation_cascade_tripped"`
	DailyLossLimit            math.Int `json:"daily_loss_limit"`
	CurrentDailyLoss          math.Int `json:"current_daily_loss"`
	CooldownPeriodMs          int64    `json:"cooldown_period_ms"`
	TriggerCount              uint64   `json:"trigger_count"`
	LastTriggerTimestamp      int64    `json:"last_trigger_timestamp"` // unix ms
}

// AnyTripped reports whether any breaker is currently up.
func (s *CircuitBreakerState) AnyTripped() bool {
	return s.PriceVolatilityTripped || s.VolumeSpikeTripped || s.LiquidationCascadeTripped
}

// DefaultCircuitBreakerState returns the untripped initial state.
func DefaultCircuitBreakerState() *CircuitBreakerState {
	return &CircuitBreakerState{
		DailyLossLimit:   math.NewInt(10_000_000_000),
		CurrentDailyLoss: math.ZeroInt(),
		CooldownPeriodMs: DefaultCooldownMs,
	}
}

// BreakerConfig holds the trip thresholds, all in basis points.
type BreakerConfig struct {
	VolatilityThreshold  int64 `json:"volatility_threshold"`
	VolumeSpikeThreshold int64 `json:"volume_spike_threshold"`
	CascadeThreshold     int64 `json:"cascade_threshold"`
}

// DefaultBreakerConfig returns the production trip thresholds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		VolatilityThreshold:  DefaultVolatilityThreshold,
		VolumeSpikeThreshold: DefaultVolumeSpikeThreshold,
		CascadeThreshold:     DefaultCascadeThreshold,
	}
}

// EmergencySystem holds the operator-controlled emergency switches.
type EmergencySystem struct {
	EmergencyMode          bool   `json:"emergency_mode"`
	SystemPaused           bool   `json:"system_paused"`
	CircuitBreakersActive  bool   `json:"circuit_breakers_active"`
	LastEmergencyTimestamp int64  `json:"last_emergency_timestamp"` // unix ms
	Reason                 string `json:"reason"`
	EstimatedDurationMs    int64  `json:"estimated_duration_ms"`
}

// RiskMetrics aggregates system-wide risk inputs for the advisory
// risk-level calculation.
type RiskMetrics struct {
	TotalExposure       math.Int       `json:"total_exposure"`
	VaR95               math.LegacyDec `json:"var_95"`
	ExpectedShortfall   math.LegacyDec `json:"expected_shortfall"`
	MarketRiskBps       int64          `json:"market_risk_bps"`
	LiquidityRisk       SystemRiskLevel `json:"liquidity_risk"`
	ConcentrationBps    int64          `json:"concentration_bps"`
	CounterpartyRiskBps int64          `json:"counterparty_risk_bps"`
	UpdatedAt           int64          `json:"updated_at"` // unix ms
}

// DefaultRiskMetrics returns zeroed metrics.
func DefaultRiskMetrics() *RiskMetrics {
	return &RiskMetrics{
		TotalExposure:     math.ZeroInt(),
		VaR95:             math.LegacyZeroDec(),
		ExpectedShortfall: math.LegacyZeroDec(),
		LiquidityRisk:     SystemRiskLow,
	}
}

// StressTestResult is an append-only record of a stress scenario run.
type StressTestResult struct {
	Scenario       string   `json:"scenario"`
	ProjectedLoss  math.Int `json:"projected_loss"`
	SystemSurvival bool     `json:"system_survival"`
	Timestamp      int64    `json:"timestamp"` // unix ms
}
