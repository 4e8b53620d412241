package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/insurance/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

// Deposit handles the MsgDeposit message
func (m *msgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", msg.Amount)
	}
	if err := m.Keeper.Deposit(sdkCtx, msg.Depositor, amount); err != nil {
		return nil, err
	}
	return &types.MsgDepositResponse{
		NewBalance: m.Keeper.GetFund(sdkCtx).Balance.String(),
	}, nil
}

// FileClaim handles the MsgFileClaim message
func (m *msgServer) FileClaim(ctx context.Context, msg *types.MsgFileClaim) (*types.MsgFileClaimResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", msg.Amount)
	}
	incident, _ := types.IncidentTypeFromString(msg.IncidentType)

	claimID, err := m.Keeper.FileClaim(sdkCtx, msg.Claimant, amount, incident, msg.Evidence)
	if err != nil {
		return nil, err
	}
	return &types.MsgFileClaimResponse{ClaimID: claimID}, nil
}

// AssessClaim handles the MsgAssessClaim message
func (m *msgServer) AssessClaim(ctx context.Context, msg *types.MsgAssessClaim) (*types.MsgAssessClaimResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	approvedAmount := math.ZeroInt()
	if msg.ApprovedAmount != "" {
		parsed, ok := math.NewIntFromString(msg.ApprovedAmount)
		if !ok {
			return nil, fmt.Errorf("invalid approved amount: %s", msg.ApprovedAmount)
		}
		approvedAmount = parsed
	}

	if err := m.Keeper.AssessClaim(sdkCtx, msg.Assessor, msg.ClaimID, msg.Approve, approvedAmount); err != nil {
		return nil, err
	}
	claim, _ := m.Keeper.GetClaim(sdkCtx, msg.ClaimID)
	return &types.MsgAssessClaimResponse{Status: claim.Status.String()}, nil
}

// RetryPayout handles the MsgRetryPayout message
func (m *msgServer) RetryPayout(ctx context.Context, msg *types.MsgRetryPayout) (*types.MsgRetryPayoutResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if err := m.Keeper.RetryPayout(sdkCtx, msg.ClaimID); err != nil {
		return nil, err
	}
	claim, _ := m.Keeper.GetClaim(sdkCtx, msg.ClaimID)
	return &types.MsgRetryPayoutResponse{Status: claim.Status.String()}, nil
}
