package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/collateral/types"
)

// OpenPosition creates a new leveraged risk position. The collateral is
// moved from the owner into the module account before the record is
// written, so a transfer failure leaves no state behind.
func (k *Keeper) OpenPosition(
	ctx sdk.Context,
	owner string,
	exposure math.Int,
	collateral math.Int,
	leverageBps int64,
	autoLiquidation bool,
) (uint64, error) {
	if k.breakerKeeper != nil {
		if err := k.breakerKeeper.EnsureRiskTakingAllowed(ctx); err != nil {
			return 0, err
		}
	}

	if !exposure.IsPositive() {
		return 0, types.ErrInvalidExposure
	}
	if !collateral.IsPositive() {
		return 0, types.ErrInvalidCollateral
	}
	if leverageBps <= 0 {
		return 0, types.ErrInvalidLeverage
	}

	// Entry check: collateral/exposure must clear the 120% floor at the
	// stated leverage.
	health := types.HealthFactor(collateral, exposure, leverageBps)
	if health.LT(math.NewInt(types.MinCollateralRatio)) {
		return 0, types.ErrInsufficientCollateral.Wrapf(
			"health factor %s below minimum %d", health, types.MinCollateralRatio)
	}

	ownerAddr, err := sdk.AccAddressFromBech32(owner)
	if err != nil {
		return 0, types.ErrUnauthorized.Wrap(err.Error())
	}
	coins := sdk.NewCoins(sdk.NewCoin(types.CollateralDenom, collateral))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, ownerAddr, types.ModuleName, coins); err != nil {
		return 0, err
	}

	position := &types.RiskPosition{
		PositionID:             k.nextPositionID(ctx),
		Owner:                  owner,
		ExposureAmount:         exposure,
		CollateralAmount:       collateral,
		LeverageRatio:          leverageBps,
		HealthFactor:           health,
		LiquidationThreshold:   types.DefaultLiquidationThreshold,
		MarginCallLevel:        types.DefaultMarginCallLevel,
		RiskScore:              types.RiskScore(leverageBps, health),
		AutoLiquidationEnabled: autoLiquidation,
		State:                  types.StateHealthy,
		LastUpdate:             ctx.BlockTime().UnixMilli(),
	}
	k.SetPosition(ctx, position)

	if k.breakerKeeper != nil {
		k.breakerKeeper.AddExposure(ctx, exposure)
	}

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"position_opened",
		sdk.NewAttribute("position_id", fmt.Sprintf("%d", position.PositionID)),
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("exposure", exposure.String()),
		sdk.NewAttribute("collateral", collateral.String()),
		sdk.NewAttribute("leverage", fmt.Sprintf("%d", leverageBps)),
		sdk.NewAttribute("health_factor", health.String()),
	))

	k.logger.Info("position opened",
		"position_id", position.PositionID,
		"owner", owner,
		"health_factor", health.String(),
	)
	return position.PositionID, nil
}

// TopUp adds collateral to an existing position and recomputes its
// derived risk fields.
func (k *Keeper) TopUp(ctx sdk.Context, owner string, positionID uint64, additional math.Int) error {
	if k.breakerKeeper != nil {
		if err := k.breakerKeeper.EnsureNotPaused(ctx); err != nil {
			return err
		}
	}
	if !additional.IsPositive() {
		return types.ErrInvalidCollateral
	}

	position, found := k.GetPosition(ctx, positionID)
	if !found {
		return types.ErrPositionNotFound
	}
	if position.Owner != owner {
		return types.ErrUnauthorized
	}
	if position.State == types.StateClosed {
		return types.ErrPositionClosed
	}

	ownerAddr, err := sdk.AccAddressFromBech32(owner)
	if err != nil {
		return types.ErrUnauthorized.Wrap(err.Error())
	}
	coins := sdk.NewCoins(sdk.NewCoin(types.CollateralDenom, additional))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, ownerAddr, types.ModuleName, coins); err != nil {
		return err
	}

	position.CollateralAmount = position.CollateralAmount.Add(additional)
	k.recomputeDerived(ctx, position)
	k.SetPosition(ctx, position)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"position_topped_up",
		sdk.NewAttribute("position_id", fmt.Sprintf("%d", positionID)),
		sdk.NewAttribute("amount", additional.String()),
		sdk.NewAttribute("new_collateral", position.CollateralAmount.String()),
		sdk.NewAttribute("health_factor", position.HealthFactor.String()),
	))
	return nil
}

// ClosePosition refunds the remaining collateral of a fully unwound
// position and deletes the record.
func (k *Keeper) ClosePosition(ctx sdk.Context, owner string, positionID uint64) (math.Int, error) {
	if k.breakerKeeper != nil {
		if err := k.breakerKeeper.EnsureNotPaused(ctx); err != nil {
			return math.ZeroInt(), err
		}
	}

	position, found := k.GetPosition(ctx, positionID)
	if !found {
		return math.ZeroInt(), types.ErrPositionNotFound
	}
	if position.Owner != owner {
		return math.ZeroInt(), types.ErrUnauthorized
	}
	if !position.ExposureAmount.IsZero() {
		return math.ZeroInt(), types.ErrExposureOutstanding.Wrapf(
			"exposure %s must be zero", position.ExposureAmount)
	}

	refund := position.CollateralAmount
	if refund.IsPositive() {
		ownerAddr, err := sdk.AccAddressFromBech32(owner)
		if err != nil {
			return math.ZeroInt(), types.ErrUnauthorized.Wrap(err.Error())
		}
		coins := sdk.NewCoins(sdk.NewCoin(types.CollateralDenom, refund))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, ownerAddr, coins); err != nil {
			return math.ZeroInt(), err
		}
	}
	k.DeletePosition(ctx, positionID)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"position_closed",
		sdk.NewAttribute("position_id", fmt.Sprintf("%d", positionID)),
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("refunded", refund.String()),
	))
	return refund, nil
}

// recomputeDerived refreshes the cached health factor, risk score and
// lifecycle state from the position's current amounts. The exposure is
// revalued at the stored oracle price when one is available.
func (k *Keeper) recomputeDerived(ctx sdk.Context, position *types.RiskPosition) {
	exposureValue := position.ExposureAmount
	if price, err := k.GetPrice(ctx, types.GasSymbol); err == nil {
		exposureValue = position.ExposureAmount.Mul(price.Price).QuoRaw(types.PriceScale)
	}

	position.HealthFactor = types.HealthFactor(position.CollateralAmount, exposureValue, position.LeverageRatio)
	position.RiskScore = types.RiskScore(position.LeverageRatio, position.HealthFactor)
	position.LastUpdate = ctx.BlockTime().UnixMilli()

	switch {
	case position.State == types.StateClosed || position.State == types.StatePartiallyLiquidated:
		// liquidation module owns these transitions
	case position.IsLiquidatable():
		position.State = types.StateLiquidatable
	case position.IsUnderMarginCall():
		position.State = types.StateMarginCall
	default:
		position.State = types.StateHealthy
	}
}

// GetPositionHealth returns a read-only risk snapshot for a position.
func (k *Keeper) GetPositionHealth(ctx sdk.Context, positionID uint64) (*types.PositionHealth, error) {
	position, found := k.GetPosition(ctx, positionID)
	if !found {
		return nil, types.ErrPositionNotFound
	}
	return &types.PositionHealth{
		PositionID:       position.PositionID,
		Owner:            position.Owner,
		HealthFactor:     position.HealthFactor,
		RiskScore:        position.RiskScore,
		RiskLevel:        types.AssessRiskLevel(position.HealthFactor),
		LiquidationPrice: types.LiquidationPrice(position.CollateralAmount, position.ExposureAmount),
		State:            position.State.String(),
	}, nil
}

// GetUnhealthyPositions returns positions at or past their margin call
// level, ordered by store key.
func (k *Keeper) GetUnhealthyPositions(ctx sdk.Context) []*types.RiskPosition {
	var unhealthy []*types.RiskPosition
	for _, p := range k.GetAllPositions(ctx) {
		if p.IsLiquidatable() || p.IsUnderMarginCall() {
			unhealthy = append(unhealthy, p)
		}
	}
	return unhealthy
}
