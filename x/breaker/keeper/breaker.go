package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/breaker/types"
)

// Check evaluates the three breaker signals against their thresholds
// and trips every breached breaker in one pass. Signals are basis
// points: priceChange is the absolute single-window price move,
// volumeChange the ratio to reference volume, liquidationRate the share
// of open exposure liquidated in the window.
//
// Each breach increments TriggerCount and stamps LastTriggerTimestamp,
// so repeated breaches while tripped extend the cooldown.
func (k *Keeper) Check(ctx sdk.Context, priceChangeBps, volumeChangeBps, liquidationRateBps int64) ([]types.BreakerType, error) {
	if priceChangeBps < 0 || volumeChangeBps < 0 || liquidationRateBps < 0 {
		return nil, types.ErrInvalidSignal
	}

	cfg := k.GetConfig(ctx)
	state := k.GetBreakerState(ctx)

	var tripped []types.BreakerType
	if priceChangeBps >= cfg.VolatilityThreshold {
		state.PriceVolatilityTripped = true
		tripped = append(tripped, types.BreakerPriceVolatility)
		k.emitTrip(ctx, types.BreakerPriceVolatility, priceChangeBps, cfg.VolatilityThreshold, state.CooldownPeriodMs)
	}
	if volumeChangeBps >= cfg.VolumeSpikeThreshold {
		state.VolumeSpikeTripped = true
		tripped = append(tripped, types.BreakerVolumeSpike)
		k.emitTrip(ctx, types.BreakerVolumeSpike, volumeChangeBps, cfg.VolumeSpikeThreshold, state.CooldownPeriodMs)
	}
	if liquidationRateBps >= cfg.CascadeThreshold {
		state.LiquidationCascadeTripped = true
		tripped = append(tripped, types.BreakerLiquidationCascade)
		k.emitTrip(ctx, types.BreakerLiquidationCascade, liquidationRateBps, cfg.CascadeThreshold, state.CooldownPeriodMs)
	}

	// accumulated liquidation losses past the daily limit trip the
	// cascade breaker even with a quiet single window
	if state.DailyLossLimit.IsPositive() && !state.LiquidationCascadeTripped &&
		state.CurrentDailyLoss.GTE(state.DailyLossLimit) {
		state.LiquidationCascadeTripped = true
		tripped = append(tripped, types.BreakerLiquidationCascade)
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			"daily_loss_limit_breached",
			sdk.NewAttribute("current_daily_loss", state.CurrentDailyLoss.String()),
			sdk.NewAttribute("daily_loss_limit", state.DailyLossLimit.String()),
		))
	}

	if len(tripped) > 0 {
		state.TriggerCount += uint64(len(tripped))
		state.LastTriggerTimestamp = ctx.BlockTime().UnixMilli()
		k.SetBreakerState(ctx, state)

		sys := k.GetEmergencySystem(ctx)
		sys.CircuitBreakersActive = true
		k.SetEmergencySystem(ctx, sys)

		k.logger.Warn("circuit breakers tripped",
			"count", len(tripped),
			"price_change_bps", priceChangeBps,
			"volume_change_bps", volumeChangeBps,
			"liquidation_rate_bps", liquidationRateBps,
		)
	}
	return tripped, nil
}

func (k *Keeper) emitTrip(ctx sdk.Context, b types.BreakerType, value, threshold, cooldownMs int64) {
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"circuit_breaker_triggered",
		sdk.NewAttribute("breaker", b.String()),
		sdk.NewAttribute("value", fmt.Sprintf("%d", value)),
		sdk.NewAttribute("threshold", fmt.Sprintf("%d", threshold)),
		sdk.NewAttribute("cooldown_ms", fmt.Sprintf("%d", cooldownMs)),
	))
}

// Reset clears all tripped breakers and the accumulated daily loss.
// The call fails outright while the cooldown window is open; once the
// cooldown has elapsed it is idempotent.
func (k *Keeper) Reset(ctx sdk.Context) error {
	state := k.GetBreakerState(ctx)

	if state.LastTriggerTimestamp > 0 {
		elapsed := ctx.BlockTime().UnixMilli() - state.LastTriggerTimestamp
		if elapsed < state.CooldownPeriodMs {
			return types.ErrCooldownNotElapsed.Wrapf(
				"%dms remaining", state.CooldownPeriodMs-elapsed)
		}
	}

	state.PriceVolatilityTripped = false
	state.VolumeSpikeTripped = false
	state.LiquidationCascadeTripped = false
	state.CurrentDailyLoss = math.ZeroInt()
	k.SetBreakerState(ctx, state)

	sys := k.GetEmergencySystem(ctx)
	sys.CircuitBreakersActive = false
	k.SetEmergencySystem(ctx, sys)

	ctx.EventManager().EmitEvent(sdk.NewEvent("circuit_breakers_reset"))
	k.logger.Info("circuit breakers reset")
	return nil
}

// ActivateEmergency trips all breakers and enters emergency mode.
// Authority only.
func (k *Keeper) ActivateEmergency(ctx sdk.Context, authority, reason string, estimatedDurationMs int64) error {
	if authority != k.authority {
		return types.ErrUnauthorized
	}

	state := k.GetBreakerState(ctx)
	state.PriceVolatilityTripped = true
	state.VolumeSpikeTripped = true
	state.LiquidationCascadeTripped = true
	state.TriggerCount++
	state.LastTriggerTimestamp = ctx.BlockTime().UnixMilli()
	k.SetBreakerState(ctx, state)

	sys := k.GetEmergencySystem(ctx)
	sys.EmergencyMode = true
	sys.CircuitBreakersActive = true
	sys.LastEmergencyTimestamp = ctx.BlockTime().UnixMilli()
	sys.Reason = reason
	sys.EstimatedDurationMs = estimatedDurationMs
	k.SetEmergencySystem(ctx, sys)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"emergency_activated",
		sdk.NewAttribute("reason", reason),
		sdk.NewAttribute("estimated_duration_ms", fmt.Sprintf("%d", estimatedDurationMs)),
	))
	k.logger.Error("emergency mode activated", "reason", reason)
	return nil
}

// Pause raises the hard pause switch. Authority only.
func (k *Keeper) Pause(ctx sdk.Context, authority string) error {
	if authority != k.authority {
		return types.ErrUnauthorized
	}
	sys := k.GetEmergencySystem(ctx)
	sys.SystemPaused = true
	k.SetEmergencySystem(ctx, sys)

	ctx.EventManager().EmitEvent(sdk.NewEvent("system_paused"))
	k.logger.Error("system paused")
	return nil
}

// Resume lowers the pause switch and leaves emergency mode. Breaker
// flags are untouched: they clear only through Reset after cooldown.
func (k *Keeper) Resume(ctx sdk.Context, authority string) error {
	if authority != k.authority {
		return types.ErrUnauthorized
	}
	sys := k.GetEmergencySystem(ctx)
	if !sys.SystemPaused && !sys.EmergencyMode {
		return types.ErrNotPaused
	}
	sys.SystemPaused = false
	sys.EmergencyMode = false
	sys.Reason = ""
	k.SetEmergencySystem(ctx, sys)

	ctx.EventManager().EmitEvent(sdk.NewEvent("system_resumed"))
	k.logger.Info("system resumed")
	return nil
}
