package types

import (
	"cosmossdk.io/math"
)

// HealthFactor computes collateral adequacy in basis points.
//
// health = collateralValue * 10000 / (exposureValue * leverage / 10000)
//
// A zero-exposure position is fully healthy by definition. Both values
// must already be expressed in the same denomination.
func HealthFactor(collateralValue, exposureValue math.Int, leverageBps int64) math.Int {
	if exposureValue.IsZero() {
		return math.NewInt(BasisPoints)
	}
	leveraged := exposureValue.MulRaw(leverageBps).QuoRaw(BasisPoints)
	if leveraged.IsZero() {
		return math.NewInt(BasisPoints)
	}
	return collateralValue.MulRaw(BasisPoints).Quo(leveraged)
}

// LiquidationPrice returns the oracle price (PriceScale fixed-point) at
// which the position's collateral exactly meets MinCollateralRatio.
// Advisory only: liquidation eligibility is decided by the health factor.
func LiquidationPrice(collateralAmount, exposureAmount math.Int) math.Int {
	if exposureAmount.IsZero() {
		return math.ZeroInt()
	}
	// collateral = exposure * price/PriceScale * MinCollateralRatio/10000
	return collateralAmount.MulRaw(BasisPoints).MulRaw(PriceScale).
		Quo(exposureAmount.MulRaw(MinCollateralRatio))
}

// Risk score component breakpoints. Leverage contributes by tier
// (2x/3x/5x), health by proximity to the liquidation band (95/90/80%).
const (
	scoreLeverage2x = 20
	scoreLeverage3x = 40
	scoreLeverage5x = 70

	scoreHealth95 = 10
	scoreHealth90 = 30
	scoreHealth80 = 60
)

// RiskScore combines leverage and health into a 0-130 composite score.
// Higher is riskier.
func RiskScore(leverageBps int64, healthBps math.Int) uint32 {
	var score uint32
	switch {
	case leverageBps >= 5*BasisPoints:
		score += scoreLeverage5x
	case leverageBps >= 3*BasisPoints:
		score += scoreLeverage3x
	case leverageBps >= 2*BasisPoints:
		score += scoreLeverage2x
	}
	hf := healthBps.Int64()
	switch {
	case hf < 8000:
		score += scoreHealth80
	case hf < 9000:
		score += scoreHealth90
	case hf < 9500:
		score += scoreHealth95
	}
	return score
}

// AssessRiskLevel maps a health factor onto the coarse risk ladder:
// >=80% low, >=50% medium, >=20% high, below critical.
func AssessRiskLevel(healthBps math.Int) RiskLevel {
	hf := healthBps.Int64()
	switch {
	case hf >= 8000:
		return RiskLevelLow
	case hf >= 5000:
		return RiskLevelMedium
	case hf >= 2000:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}
