package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	collateraltypes "github.com/gashedge/gashedge/x/collateral/types"
	"github.com/gashedge/gashedge/x/liquidation/types"
)

// Refresh revalues a position at price and updates its derived risk
// fields and lifecycle state. Running it twice with the same price is a
// no-op after the first call; the refresh event fires only on a state
// transition.
func (k *Keeper) Refresh(ctx sdk.Context, positionID uint64, price math.Int) (*collateraltypes.RiskPosition, error) {
	position, found := k.collateralKeeper.GetPosition(ctx, positionID)
	if !found {
		return nil, types.ErrPositionNotFound
	}
	if position.State == collateraltypes.StateClosed {
		return position, nil
	}

	exposureValue := position.ExposureAmount.Mul(price).QuoRaw(collateraltypes.PriceScale)
	health := collateraltypes.HealthFactor(position.CollateralAmount, exposureValue, position.LeverageRatio)

	prevState := position.State
	position.HealthFactor = health
	position.RiskScore = collateraltypes.RiskScore(position.LeverageRatio, health)
	position.LastUpdate = ctx.BlockTime().UnixMilli()

	switch {
	case position.State == collateraltypes.StatePartiallyLiquidated && position.IsLiquidatable():
		// stays partially liquidated until healthy again
	case position.IsLiquidatable():
		position.State = collateraltypes.StateLiquidatable
	case position.IsUnderMarginCall():
		position.State = collateraltypes.StateMarginCall
	default:
		position.State = collateraltypes.StateHealthy
	}
	k.collateralKeeper.SetPosition(ctx, position)

	if position.State != prevState {
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			"position_refreshed",
			sdk.NewAttribute("position_id", fmt.Sprintf("%d", positionID)),
			sdk.NewAttribute("health_factor", health.String()),
			sdk.NewAttribute("from_state", prevState.String()),
			sdk.NewAttribute("to_state", position.State.String()),
		))
	}
	return position, nil
}

// Liquidate closes up to amount of a liquidatable position's exposure
// at price. Callable by anyone; the caller earns the liquidator share
// of the penalty.
//
// Closing exposure costs its market value plus the penalty, both
// charged to the position's collateral. When the collateral cannot
// cover the full debit, the insurance fund absorbs the difference in
// one piece; a fund that cannot cover it aborts the whole call and the
// position is untouched.
func (k *Keeper) Liquidate(ctx sdk.Context, liquidator string, positionID uint64, amount, price math.Int) (*types.LiquidationRecord, error) {
	if k.breakerKeeper != nil {
		if err := k.breakerKeeper.EnsureLiquidationAllowed(ctx); err != nil {
			return nil, err
		}
	}
	if !amount.IsPositive() {
		return nil, types.ErrInvalidAmount
	}
	var liquidatorAddr sdk.AccAddress
	if liquidator != "" {
		addr, err := sdk.AccAddressFromBech32(liquidator)
		if err != nil {
			return nil, types.ErrInvalidAddress.Wrapf("liquidator %q: %s", liquidator, err)
		}
		liquidatorAddr = addr
	}

	position, err := k.Refresh(ctx, positionID, price)
	if err != nil {
		return nil, err
	}
	if !position.IsLiquidatable() {
		return nil, types.ErrLiquidationNotRequired.Wrapf(
			"health factor %s at or above threshold %d",
			position.HealthFactor, position.LiquidationThreshold)
	}

	if amount.GT(position.ExposureAmount) {
		amount = position.ExposureAmount
	}

	cfg := k.GetConfig(ctx)
	liquidatedValue := amount.Mul(price).QuoRaw(collateraltypes.PriceScale)
	penalty := liquidatedValue.MulRaw(cfg.PenaltyRateBps).QuoRaw(types.BasisPoints)
	debit := liquidatedValue.Add(penalty)

	shortfall := math.ZeroInt()
	remaining := position.CollateralAmount.Sub(debit)
	if remaining.IsNegative() {
		shortfall = remaining.Neg()
		remaining = math.ZeroInt()
		relatedID := fmt.Sprintf("position-%d", positionID)
		if err := k.insuranceKeeper.CoverShortfall(ctx, collateraltypes.ModuleName, shortfall, relatedID); err != nil {
			return nil, err
		}
	}

	// penalty split between the triggering liquidator and the fund
	reward := math.ZeroInt()
	if liquidator != "" && cfg.LiquidatorRewardShareBps > 0 {
		reward = penalty.MulRaw(cfg.LiquidatorRewardShareBps).QuoRaw(types.BasisPoints)
		if reward.IsPositive() {
			coins := sdk.NewCoins(sdk.NewCoin(collateraltypes.CollateralDenom, reward))
			if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, collateraltypes.ModuleName, liquidatorAddr, coins); err != nil {
				return nil, err
			}
		}
	}
	if err := k.insuranceKeeper.CollectPenalty(ctx, collateraltypes.ModuleName, penalty.Sub(reward)); err != nil {
		return nil, err
	}

	position.ExposureAmount = position.ExposureAmount.Sub(amount)
	position.CollateralAmount = remaining

	status := types.LiquidationExecuted
	if position.ExposureAmount.IsZero() {
		// fully liquidated: refund what is left and retire the position
		if remaining.IsPositive() {
			ownerAddr, addrErr := sdk.AccAddressFromBech32(position.Owner)
			if addrErr != nil {
				return nil, types.ErrInvalidAddress.Wrapf("owner %q: %s", position.Owner, addrErr)
			}
			coins := sdk.NewCoins(sdk.NewCoin(collateraltypes.CollateralDenom, remaining))
			if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, collateraltypes.ModuleName, ownerAddr, coins); err != nil {
				return nil, err
			}
		}
		position.State = collateraltypes.StateClosed
		position.CollateralAmount = math.ZeroInt()
		k.collateralKeeper.DeletePosition(ctx, positionID)
	} else {
		status = types.LiquidationPartial
		position.State = collateraltypes.StatePartiallyLiquidated
		exposureValue := position.ExposureAmount.Mul(price).QuoRaw(collateraltypes.PriceScale)
		position.HealthFactor = collateraltypes.HealthFactor(position.CollateralAmount, exposureValue, position.LeverageRatio)
		position.RiskScore = collateraltypes.RiskScore(position.LeverageRatio, position.HealthFactor)
		position.LastUpdate = ctx.BlockTime().UnixMilli()
		k.collateralKeeper.SetPosition(ctx, position)
	}

	if k.breakerKeeper != nil {
		k.breakerKeeper.ReportLiquidation(ctx, liquidatedValue)
		k.breakerKeeper.RemoveExposure(ctx, amount)
	}

	record := &types.LiquidationRecord{
		LiquidationID:       k.nextRecordID(ctx),
		PositionID:          positionID,
		Owner:               position.Owner,
		Liquidator:          liquidator,
		LiquidatedAmount:    amount,
		LiquidatedValue:     liquidatedValue,
		Penalty:             penalty,
		RemainingCollateral: position.CollateralAmount,
		ShortfallCovered:    shortfall,
		Status:              status,
		Timestamp:           ctx.BlockTime().UnixMilli(),
	}
	k.SetRecord(ctx, record)
	k.emitLiquidationEvent(ctx, record)

	k.logger.Info("position liquidated",
		"position_id", positionID,
		"amount", amount.String(),
		"penalty", penalty.String(),
		"shortfall", shortfall.String(),
		"status", status.String(),
	)
	return record, nil
}

// MonitorAndLiquidate is the automated path: it refreshes the position
// at the current oracle price and, when liquidatable, closes the
// configured fraction of its exposure. Positions that opted out of auto
// liquidation are rejected.
func (k *Keeper) MonitorAndLiquidate(ctx sdk.Context, positionID uint64) (*types.LiquidationRecord, error) {
	position, found := k.collateralKeeper.GetPosition(ctx, positionID)
	if !found {
		return nil, types.ErrPositionNotFound
	}
	if !position.AutoLiquidationEnabled {
		return nil, types.ErrAutoLiquidationOff
	}

	price, err := k.collateralKeeper.GetPrice(ctx, collateraltypes.GasSymbol)
	if err != nil {
		return nil, err
	}
	position, err = k.Refresh(ctx, positionID, price.Price)
	if err != nil {
		return nil, err
	}
	if !position.IsLiquidatable() {
		return nil, types.ErrLiquidationNotRequired
	}

	cfg := k.GetConfig(ctx)
	amount := position.ExposureAmount.MulRaw(cfg.AutoLiquidationFractionBps).QuoRaw(types.BasisPoints)
	if amount.IsZero() {
		amount = position.ExposureAmount
	}
	return k.Liquidate(ctx, "", positionID, amount, price.Price)
}

// EmergencyClose zeroes a position's exposure by authority decision,
// outside the normal health gating. A forced close charges the forced
// closure penalty on the remaining collateral; a cooperative close does
// not. Works while the system is paused or in emergency mode.
func (k *Keeper) EmergencyClose(ctx sdk.Context, authority string, positionID uint64, forced bool) (*types.LiquidationRecord, error) {
	if authority != k.authority {
		return nil, types.ErrUnauthorized
	}
	position, found := k.collateralKeeper.GetPosition(ctx, positionID)
	if !found {
		return nil, types.ErrPositionNotFound
	}

	cfg := k.GetConfig(ctx)
	penalty := math.ZeroInt()
	if forced {
		penalty = position.CollateralAmount.MulRaw(cfg.ForcedClosurePenaltyBps).QuoRaw(types.BasisPoints)
	}
	remaining := position.CollateralAmount.Sub(penalty)
	if remaining.IsNegative() {
		remaining = math.ZeroInt()
	}
	if err := k.insuranceKeeper.CollectPenalty(ctx, collateraltypes.ModuleName, penalty); err != nil {
		return nil, err
	}

	if remaining.IsPositive() {
		ownerAddr, addrErr := sdk.AccAddressFromBech32(position.Owner)
		if addrErr != nil {
			return nil, types.ErrInvalidAddress.Wrapf("owner %q: %s", position.Owner, addrErr)
		}
		coins := sdk.NewCoins(sdk.NewCoin(collateraltypes.CollateralDenom, remaining))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, collateraltypes.ModuleName, ownerAddr, coins); err != nil {
			return nil, err
		}
	}

	closedExposure := position.ExposureAmount
	if k.breakerKeeper != nil {
		k.breakerKeeper.RemoveExposure(ctx, closedExposure)
	}
	k.collateralKeeper.DeletePosition(ctx, positionID)

	record := &types.LiquidationRecord{
		LiquidationID:       k.nextRecordID(ctx),
		PositionID:          positionID,
		Owner:               position.Owner,
		Liquidator:          authority,
		LiquidatedAmount:    closedExposure,
		LiquidatedValue:     math.ZeroInt(),
		Penalty:             penalty,
		RemainingCollateral: math.ZeroInt(),
		ShortfallCovered:    math.ZeroInt(),
		Forced:              forced,
		Status:              types.LiquidationEmergency,
		Timestamp:           ctx.BlockTime().UnixMilli(),
	}
	k.SetRecord(ctx, record)
	k.emitLiquidationEvent(ctx, record)

	k.logger.Warn("position emergency closed",
		"position_id", positionID,
		"forced", forced,
		"penalty", penalty.String(),
	)
	return record, nil
}

func (k *Keeper) emitLiquidationEvent(ctx sdk.Context, record *types.LiquidationRecord) {
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"liquidation_executed",
		sdk.NewAttribute("liquidation_id", fmt.Sprintf("%d", record.LiquidationID)),
		sdk.NewAttribute("position_id", fmt.Sprintf("%d", record.PositionID)),
		sdk.NewAttribute("owner", record.Owner),
		sdk.NewAttribute("liquidator", record.Liquidator),
		sdk.NewAttribute("amount", record.LiquidatedAmount.String()),
		sdk.NewAttribute("penalty", record.Penalty.String()),
		sdk.NewAttribute("shortfall_covered", record.ShortfallCovered.String()),
		sdk.NewAttribute("status", record.Status.String()),
	))
}

// EndBlockLiquidations sweeps auto-liquidation-enabled positions at the
// stored oracle price, capped per block. A cap hit defers the rest to
// the next block rather than failing.
func (k *Keeper) EndBlockLiquidations(ctx sdk.Context) {
	if k.breakerKeeper != nil {
		if err := k.breakerKeeper.EnsureLiquidationAllowed(ctx); err != nil {
			return
		}
	}
	price, err := k.collateralKeeper.GetPrice(ctx, collateraltypes.GasSymbol)
	if err != nil {
		return
	}

	cfg := k.GetConfig(ctx)
	executed := 0
	for _, position := range k.collateralKeeper.GetAllPositions(ctx) {
		if executed >= cfg.MaxLiquidationsPerBlock {
			break
		}
		if !position.AutoLiquidationEnabled {
			continue
		}
		refreshed, err := k.Refresh(ctx, position.PositionID, price.Price)
		if err != nil || !refreshed.IsLiquidatable() {
			continue
		}
		if _, err := k.MonitorAndLiquidate(ctx, position.PositionID); err != nil {
			k.logger.Error("auto liquidation failed",
				"position_id", position.PositionID,
				"error", err,
			)
			continue
		}
		executed++
	}
	if executed > 0 {
		k.logger.Info("auto liquidation sweep", "executed", executed)
	}
}
