package keeper

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/breaker/types"
)

// CalculateSystemRiskLevel counts breached dimensions: market risk over
// 15%, liquidity risk high or worse, concentration over 50%,
// counterparty risk over 30%. Three or more is critical, two high, one
// medium. Advisory only, gates nothing.
func CalculateSystemRiskLevel(m *types.RiskMetrics) types.SystemRiskLevel {
	breaches := 0
	if m.MarketRiskBps > 1500 {
		breaches++
	}
	if m.LiquidityRisk >= types.SystemRiskHigh {
		breaches++
	}
	if m.ConcentrationBps > 5000 {
		breaches++
	}
	if m.CounterpartyRiskBps > 3000 {
		breaches++
	}
	switch {
	case breaches >= 3:
		return types.SystemRiskCritical
	case breaches == 2:
		return types.SystemRiskHigh
	case breaches == 1:
		return types.SystemRiskMedium
	default:
		return types.SystemRiskLow
	}
}

// SystemRiskLevel returns the advisory classification for the stored
// metrics.
func (k *Keeper) SystemRiskLevel(ctx sdk.Context) types.SystemRiskLevel {
	return CalculateSystemRiskLevel(k.GetRiskMetrics(ctx))
}

// RecordStressTest appends a stress scenario result keyed by the
// assessment timestamp. History is append-only.
func (k *Keeper) RecordStressTest(ctx sdk.Context, scenario string, projectedLoss math.Int, survival bool) error {
	if scenario == "" {
		return types.ErrInvalidStressScenario
	}
	result := types.StressTestResult{
		Scenario:       scenario,
		ProjectedLoss:  projectedLoss,
		SystemSurvival: survival,
		Timestamp:      ctx.BlockTime().UnixMilli(),
	}
	store := k.GetStore(ctx)
	key := append(StressTestKeyPrefix, sdk.Uint64ToBigEndian(uint64(result.Timestamp))...)
	key = append(key, []byte(scenario)...)
	bz, _ := json.Marshal(result)
	store.Set(key, bz)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"stress_test_recorded",
		sdk.NewAttribute("scenario", scenario),
		sdk.NewAttribute("projected_loss", projectedLoss.String()),
		sdk.NewAttribute("survival", fmt.Sprintf("%t", survival)),
	))
	return nil
}

// GetStressTestResults returns the stress history, oldest first
func (k *Keeper) GetStressTestResults(ctx sdk.Context) []types.StressTestResult {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, StressTestKeyPrefix)
	defer iterator.Close()

	var results []types.StressTestResult
	for ; iterator.Valid(); iterator.Next() {
		var r types.StressTestResult
		if err := json.Unmarshal(iterator.Value(), &r); err != nil {
			continue
		}
		results = append(results, r)
	}
	return results
}

// blockSignals accumulates per-block inputs for the end-of-block
// breaker evaluation.
type blockSignals struct {
	LiquidatedNotional math.Int `json:"liquidated_notional"`
	VolumeNotional     math.Int `json:"volume_notional"`
	RefVolumeNotional  math.Int `json:"ref_volume_notional"`
}

func newBlockSignals() *blockSignals {
	return &blockSignals{
		LiquidatedNotional: math.ZeroInt(),
		VolumeNotional:     math.ZeroInt(),
		RefVolumeNotional:  math.ZeroInt(),
	}
}

func (k *Keeper) getBlockSignals(ctx sdk.Context) *blockSignals {
	store := k.GetStore(ctx)
	bz := store.Get(BlockSignalKey)
	if bz == nil {
		return newBlockSignals()
	}
	var s blockSignals
	if err := json.Unmarshal(bz, &s); err != nil {
		return newBlockSignals()
	}
	return &s
}

func (k *Keeper) setBlockSignals(ctx sdk.Context, s *blockSignals) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(s)
	store.Set(BlockSignalKey, bz)
}

// ReportLiquidation accumulates liquidated notional for the cascade
// signal and the daily loss counter.
func (k *Keeper) ReportLiquidation(ctx sdk.Context, notional math.Int) {
	s := k.getBlockSignals(ctx)
	s.LiquidatedNotional = s.LiquidatedNotional.Add(notional)
	k.setBlockSignals(ctx, s)

	state := k.GetBreakerState(ctx)
	state.CurrentDailyLoss = state.CurrentDailyLoss.Add(notional)
	k.SetBreakerState(ctx, state)
}

// ReportVolume accumulates traded notional for the volume spike signal.
func (k *Keeper) ReportVolume(ctx sdk.Context, notional math.Int) {
	s := k.getBlockSignals(ctx)
	s.VolumeNotional = s.VolumeNotional.Add(notional)
	k.setBlockSignals(ctx, s)
}

// EvaluateBlock derives the three breaker signals from the block's
// accumulated activity and the price move since the previous
// evaluation, runs Check, and rolls the signal window.
func (k *Keeper) EvaluateBlock(ctx sdk.Context, currentPrice math.Int) {
	s := k.getBlockSignals(ctx)

	// price move vs last evaluated price, absolute, in bps
	var priceChangeBps int64
	store := k.GetStore(ctx)
	if bz := store.Get(LastPriceKey); bz != nil {
		var last math.Int
		if err := json.Unmarshal(bz, &last); err == nil && last.IsPositive() && currentPrice.IsPositive() {
			diff := currentPrice.Sub(last)
			if diff.IsNegative() {
				diff = diff.Neg()
			}
			priceChangeBps = diff.MulRaw(types.BasisPoints).Quo(last).Int64()
		}
	}
	if currentPrice.IsPositive() {
		bz, _ := json.Marshal(currentPrice)
		store.Set(LastPriceKey, bz)
	}

	// volume ratio vs previous window
	var volumeChangeBps int64
	if s.RefVolumeNotional.IsPositive() {
		volumeChangeBps = s.VolumeNotional.MulRaw(types.BasisPoints).Quo(s.RefVolumeNotional).Int64()
	}

	// liquidated share of open exposure
	var liquidationRateBps int64
	total := k.GetRiskMetrics(ctx).TotalExposure
	if total.IsPositive() {
		liquidationRateBps = s.LiquidatedNotional.MulRaw(types.BasisPoints).Quo(total).Int64()
	}

	if _, err := k.Check(ctx, priceChangeBps, volumeChangeBps, liquidationRateBps); err != nil {
		k.logger.Error("breaker evaluation failed", "error", err)
	}

	k.refreshRiskMetrics(ctx, priceChangeBps)

	next := newBlockSignals()
	next.RefVolumeNotional = s.VolumeNotional
	k.setBlockSignals(ctx, next)
}

// refreshRiskMetrics updates the advisory risk dimensions from the
// block's observed price move and the current position book. Market
// risk is the absolute single-window move, concentration the largest
// position's share of open exposure, VaR a one-tailed 95% estimate
// scaling the observed move by 1.65 sigma over the open exposure.
func (k *Keeper) refreshRiskMetrics(ctx sdk.Context, priceChangeBps int64) {
	m := k.GetRiskMetrics(ctx)
	m.MarketRiskBps = priceChangeBps

	if m.TotalExposure.IsPositive() {
		if k.positionSource != nil {
			largest := k.positionSource.LargestExposure(ctx)
			m.ConcentrationBps = largest.MulRaw(types.BasisPoints).Quo(m.TotalExposure).Int64()
		}
		m.VaR95 = math.LegacyNewDecFromInt(m.TotalExposure).
			MulInt64(priceChangeBps * 165).
			QuoInt64(types.BasisPoints * 100)
		m.ExpectedShortfall = m.VaR95.MulInt64(125).QuoInt64(100)
	} else {
		m.ConcentrationBps = 0
		m.VaR95 = math.LegacyZeroDec()
		m.ExpectedShortfall = math.LegacyZeroDec()
	}

	state := k.GetBreakerState(ctx)
	switch {
	case state.LiquidationCascadeTripped:
		m.LiquidityRisk = types.SystemRiskHigh
	case state.AnyTripped():
		m.LiquidityRisk = types.SystemRiskMedium
	default:
		m.LiquidityRisk = types.SystemRiskLow
	}

	k.SetRiskMetrics(ctx, m)
}
