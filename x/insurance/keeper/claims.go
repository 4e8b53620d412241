package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/insurance/types"
)

// FileClaim records a compensation request. No funds move at filing.
func (k *Keeper) FileClaim(
	ctx sdk.Context,
	claimant string,
	amount math.Int,
	incidentType types.IncidentType,
	evidence string,
) (uint64, error) {
	if !amount.IsPositive() {
		return 0, types.ErrInvalidClaimAmount
	}
	if evidence == "" {
		return 0, types.ErrEvidenceRequired
	}
	if incidentType.String() == "unknown" {
		return 0, types.ErrInvalidIncidentType
	}

	claim := &types.InsuranceClaim{
		ClaimID:      k.nextClaimID(ctx),
		Claimant:     claimant,
		ClaimAmount:  amount,
		IncidentType: incidentType,
		Evidence:     evidence,
		Status:       types.ClaimPending,
		PayoutAmount: math.ZeroInt(),
		FiledAt:      ctx.BlockTime().UnixMilli(),
	}
	k.SetClaim(ctx, claim)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"claim_filed",
		sdk.NewAttribute("claim_id", attrID(claim.ClaimID)),
		sdk.NewAttribute("claimant", claimant),
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("incident_type", incidentType.String()),
	))
	return claim.ClaimID, nil
}

// AssessClaim approves or rejects a pending claim. Rejection is
// terminal. Approval immediately attempts payout; when the fund cannot
// cover the approved amount the claim stays Approved with a zero payout
// and can be retried later.
func (k *Keeper) AssessClaim(
	ctx sdk.Context,
	assessor string,
	claimID uint64,
	approve bool,
	approvedAmount math.Int,
) error {
	if assessor != k.authority {
		return types.ErrUnauthorized
	}
	claim, found := k.GetClaim(ctx, claimID)
	if !found {
		return types.ErrClaimNotFound
	}
	if claim.Status != types.ClaimPending {
		return types.ErrInvalidClaimState.Wrapf("claim is %s", claim.Status)
	}

	claim.Assessor = assessor
	claim.AssessedAt = ctx.BlockTime().UnixMilli()

	if !approve {
		claim.Status = types.ClaimRejected
		k.SetClaim(ctx, claim)
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			"claim_rejected",
			sdk.NewAttribute("claim_id", attrID(claimID)),
		))
		return nil
	}

	if !approvedAmount.IsPositive() || approvedAmount.GT(claim.ClaimAmount) {
		approvedAmount = claim.ClaimAmount
	}
	claim.Status = types.ClaimApproved
	claim.PayoutAmount = approvedAmount
	k.SetClaim(ctx, claim)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"claim_approved",
		sdk.NewAttribute("claim_id", attrID(claimID)),
		sdk.NewAttribute("approved_amount", approvedAmount.String()),
	))
	return k.tryPayout(ctx, claim)
}

// RetryPayout attempts to pay an approved claim whose earlier payout
// was blocked by an underfunded balance.
func (k *Keeper) RetryPayout(ctx sdk.Context, claimID uint64) error {
	claim, found := k.GetClaim(ctx, claimID)
	if !found {
		return types.ErrClaimNotFound
	}
	if claim.Status != types.ClaimApproved {
		return types.ErrInvalidClaimState.Wrapf("claim is %s", claim.Status)
	}
	return k.tryPayout(ctx, claim)
}

// tryPayout pays the claim in full when the fund balance allows.
// An underfunded balance leaves the claim Approved and unpaid; that is
// the retry path, not an error.
func (k *Keeper) tryPayout(ctx sdk.Context, claim *types.InsuranceClaim) error {
	fund := k.GetFund(ctx)
	if fund.Balance.LT(claim.PayoutAmount) {
		k.logger.Info("claim payout deferred",
			"claim_id", claim.ClaimID,
			"payout", claim.PayoutAmount.String(),
			"balance", fund.Balance.String(),
		)
		return nil
	}

	claimantAddr, err := sdk.AccAddressFromBech32(claim.Claimant)
	if err != nil {
		return types.ErrUnauthorized.Wrap(err.Error())
	}
	coins := sdk.NewCoins(sdk.NewCoin(types.FundDenom, claim.PayoutAmount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, claimantAddr, coins); err != nil {
		return err
	}

	fund.Withdraw(claim.PayoutAmount, ctx.BlockTime().UnixMilli())
	k.SetFund(ctx, fund)

	claim.Status = types.ClaimPaid
	claim.PaidAt = ctx.BlockTime().UnixMilli()
	k.SetClaim(ctx, claim)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"claim_paid",
		sdk.NewAttribute("claim_id", attrID(claim.ClaimID)),
		sdk.NewAttribute("claimant", claim.Claimant),
		sdk.NewAttribute("payout", claim.PayoutAmount.String()),
	))
	return nil
}
