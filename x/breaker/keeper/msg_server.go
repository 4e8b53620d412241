package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/breaker/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

// CheckBreakers handles the MsgCheckBreakers message
func (m *msgServer) CheckBreakers(ctx context.Context, msg *types.MsgCheckBreakers) (*types.MsgCheckBreakersResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	tripped, err := m.Keeper.Check(sdkCtx, msg.PriceChangeBps, msg.VolumeChangeBps, msg.LiquidationRateBps)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tripped))
	for _, b := range tripped {
		names = append(names, b.String())
	}
	return &types.MsgCheckBreakersResponse{Tripped: names}, nil
}

// ResetBreakers handles the MsgResetBreakers message
func (m *msgServer) ResetBreakers(ctx context.Context, msg *types.MsgResetBreakers) (*types.MsgResetBreakersResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if err := m.Keeper.Reset(sdkCtx); err != nil {
		return nil, err
	}
	return &types.MsgResetBreakersResponse{}, nil
}

// ActivateEmergency handles the MsgActivateEmergency message
func (m *msgServer) ActivateEmergency(ctx context.Context, msg *types.MsgActivateEmergency) (*types.MsgActivateEmergencyResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if err := m.Keeper.ActivateEmergency(sdkCtx, msg.Authority, msg.Reason, msg.EstimatedDurationMs); err != nil {
		return nil, err
	}
	return &types.MsgActivateEmergencyResponse{}, nil
}

// PauseSystem handles the MsgPauseSystem message
func (m *msgServer) PauseSystem(ctx context.Context, msg *types.MsgPauseSystem) (*types.MsgPauseSystemResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if err := m.Keeper.Pause(sdkCtx, msg.Authority); err != nil {
		return nil, err
	}
	return &types.MsgPauseSystemResponse{}, nil
}

// ResumeSystem handles the MsgResumeSystem message
func (m *msgServer) ResumeSystem(ctx context.Context, msg *types.MsgResumeSystem) (*types.MsgResumeSystemResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if err := m.Keeper.Resume(sdkCtx, msg.Authority); err != nil {
		return nil, err
	}
	return &types.MsgResumeSystemResponse{}, nil
}

// RecordStressTest handles the MsgRecordStressTest message
func (m *msgServer) RecordStressTest(ctx context.Context, msg *types.MsgRecordStressTest) (*types.MsgRecordStressTestResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if msg.Authority != m.Keeper.authority {
		return nil, types.ErrUnauthorized
	}
	loss, ok := math.NewIntFromString(msg.ProjectedLoss)
	if !ok {
		return nil, fmt.Errorf("invalid projected loss: %s", msg.ProjectedLoss)
	}
	if err := m.Keeper.RecordStressTest(sdkCtx, msg.Scenario, loss, msg.SystemSurvival); err != nil {
		return nil, err
	}
	return &types.MsgRecordStressTestResponse{}, nil
}
