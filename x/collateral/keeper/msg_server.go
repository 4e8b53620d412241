package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/collateral/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

// OpenPosition handles the MsgOpenPosition message
func (m *msgServer) OpenPosition(ctx context.Context, msg *types.MsgOpenPosition) (*types.MsgOpenPositionResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	exposure, ok := math.NewIntFromString(msg.ExposureAmount)
	if !ok {
		return nil, fmt.Errorf("invalid exposure amount: %s", msg.ExposureAmount)
	}
	collateral, ok := math.NewIntFromString(msg.Collateral)
	if !ok {
		return nil, fmt.Errorf("invalid collateral amount: %s", msg.Collateral)
	}

	positionID, err := m.Keeper.OpenPosition(sdkCtx, msg.Owner, exposure, collateral, msg.LeverageRatio, msg.AutoLiquidation)
	if err != nil {
		return nil, err
	}

	position, _ := m.Keeper.GetPosition(sdkCtx, positionID)
	return &types.MsgOpenPositionResponse{
		PositionID:   positionID,
		HealthFactor: position.HealthFactor.String(),
	}, nil
}

// TopUp handles the MsgTopUp message
func (m *msgServer) TopUp(ctx context.Context, msg *types.MsgTopUp) (*types.MsgTopUpResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", msg.Amount)
	}

	if err := m.Keeper.TopUp(sdkCtx, msg.Owner, msg.PositionID, amount); err != nil {
		return nil, err
	}

	position, found := m.Keeper.GetPosition(sdkCtx, msg.PositionID)
	if !found {
		return nil, types.ErrPositionNotFound
	}
	return &types.MsgTopUpResponse{
		NewCollateral: position.CollateralAmount.String(),
		HealthFactor:  position.HealthFactor.String(),
	}, nil
}

// ClosePosition handles the MsgClosePosition message
func (m *msgServer) ClosePosition(ctx context.Context, msg *types.MsgClosePosition) (*types.MsgClosePositionResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	refund, err := m.Keeper.ClosePosition(sdkCtx, msg.Owner, msg.PositionID)
	if err != nil {
		return nil, err
	}
	return &types.MsgClosePositionResponse{
		RefundedCollateral: refund.String(),
	}, nil
}

// SubmitPrice handles the MsgSubmitPrice message
func (m *msgServer) SubmitPrice(ctx context.Context, msg *types.MsgSubmitPrice) (*types.MsgSubmitPriceResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	price, ok := math.NewIntFromString(msg.Price)
	if !ok {
		return nil, fmt.Errorf("invalid price: %s", msg.Price)
	}
	if err := m.Keeper.SetPrice(sdkCtx, msg.Authority, msg.Symbol, price, msg.Confidence); err != nil {
		return nil, err
	}
	return &types.MsgSubmitPriceResponse{}, nil
}
