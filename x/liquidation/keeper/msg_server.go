package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	collateraltypes "github.com/gashedge/gashedge/x/collateral/types"
	"github.com/gashedge/gashedge/x/liquidation/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

// RefreshPosition handles the MsgRefreshPosition message
func (m *msgServer) RefreshPosition(ctx context.Context, msg *types.MsgRefreshPosition) (*types.MsgRefreshPositionResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	price, err := m.Keeper.collateralKeeper.GetPrice(sdkCtx, collateraltypes.GasSymbol)
	if err != nil {
		return nil, err
	}
	position, err := m.Keeper.Refresh(sdkCtx, msg.PositionID, price.Price)
	if err != nil {
		return nil, err
	}
	return &types.MsgRefreshPositionResponse{
		HealthFactor: position.HealthFactor.String(),
		State:        position.State.String(),
	}, nil
}

// Liquidate handles the MsgLiquidate message
func (m *msgServer) Liquidate(ctx context.Context, msg *types.MsgLiquidate) (*types.MsgLiquidateResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", msg.Amount)
	}
	price, err := m.Keeper.collateralKeeper.GetPrice(sdkCtx, collateraltypes.GasSymbol)
	if err != nil {
		return nil, err
	}
	record, err := m.Keeper.Liquidate(sdkCtx, msg.Liquidator, msg.PositionID, amount, price.Price)
	if err != nil {
		return nil, err
	}
	return &types.MsgLiquidateResponse{
		LiquidationID: record.LiquidationID,
		Penalty:       record.Penalty.String(),
		Status:        record.Status.String(),
	}, nil
}

// EmergencyClose handles the MsgEmergencyClose message
func (m *msgServer) EmergencyClose(ctx context.Context, msg *types.MsgEmergencyClose) (*types.MsgEmergencyCloseResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	record, err := m.Keeper.EmergencyClose(sdkCtx, msg.Authority, msg.PositionID, msg.Forced)
	if err != nil {
		return nil, err
	}
	return &types.MsgEmergencyCloseResponse{
		LiquidationID: record.LiquidationID,
		Penalty:       record.Penalty.String(),
	}, nil
}
