package keeper

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/insurance/types"
)

// Store key prefixes
var (
	FundKey         = []byte{0x01}
	ClaimKeyPrefix  = []byte{0x02}
	ClaimCounterKey = []byte{0x03}
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
	SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error
}

// Keeper manages the insurance fund and claim lifecycle
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
	authority  string // claim assessor address
}

// NewKeeper creates a new insurance keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		authority:  authority,
		logger:     logger.With("module", "x/insurance"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the claim assessor address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Fund ============

// GetFund returns the fund, initializing an empty one on first access
func (k *Keeper) GetFund(ctx sdk.Context) *types.InsuranceFund {
	store := k.GetStore(ctx)
	bz := store.Get(FundKey)
	if bz == nil {
		return types.NewInsuranceFund(ctx.BlockTime().UnixMilli())
	}
	var fund types.InsuranceFund
	if err := json.Unmarshal(bz, &fund); err != nil {
		return types.NewInsuranceFund(ctx.BlockTime().UnixMilli())
	}
	return &fund
}

// SetFund persists the fund
func (k *Keeper) SetFund(ctx sdk.Context, fund *types.InsuranceFund) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(fund)
	store.Set(FundKey, bz)
}

// Deposit moves amount from the depositor into the fund. Anyone may
// contribute.
func (k *Keeper) Deposit(ctx sdk.Context, depositor string, amount math.Int) error {
	if !amount.IsPositive() {
		return types.ErrInvalidDeposit
	}
	depositorAddr, err := sdk.AccAddressFromBech32(depositor)
	if err != nil {
		return types.ErrUnauthorized.Wrap(err.Error())
	}
	coins := sdk.NewCoins(sdk.NewCoin(types.FundDenom, amount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, depositorAddr, types.ModuleName, coins); err != nil {
		return err
	}

	fund := k.GetFund(ctx)
	fund.Deposit(amount, ctx.BlockTime().UnixMilli())
	k.SetFund(ctx, fund)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"insurance_deposit",
		sdk.NewAttribute("depositor", depositor),
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("new_balance", fund.Balance.String()),
	))
	return nil
}

// CoverShortfall debits the fund to absorb a liquidation shortfall and
// releases the coins into the requesting module's account. All or
// nothing: a fund that cannot cover the full amount covers none of it
// and the caller's transaction aborts.
func (k *Keeper) CoverShortfall(ctx sdk.Context, toModule string, amount math.Int, relatedID string) error {
	if !amount.IsPositive() {
		return nil
	}
	fund := k.GetFund(ctx)
	if !fund.Withdraw(amount, ctx.BlockTime().UnixMilli()) {
		return types.ErrInsuranceFundDepleted.Wrapf(
			"shortfall %s exceeds balance %s", amount, fund.Balance)
	}
	coins := sdk.NewCoins(sdk.NewCoin(types.FundDenom, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, types.ModuleName, toModule, coins); err != nil {
		return err
	}
	k.SetFund(ctx, fund)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"shortfall_covered",
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("related_id", relatedID),
		sdk.NewAttribute("remaining_balance", fund.Balance.String()),
	))
	k.logger.Warn("insurance fund covered shortfall",
		"amount", amount.String(),
		"related_id", relatedID,
		"remaining", fund.Balance.String(),
	)
	return nil
}

// CollectPenalty credits a liquidation penalty share into the fund and
// moves the backing coins out of the collecting module's account. The
// book balance gates claim payouts, so every credit here must be
// matched by coins the fund account actually holds.
func (k *Keeper) CollectPenalty(ctx sdk.Context, fromModule string, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	coins := sdk.NewCoins(sdk.NewCoin(types.FundDenom, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, fromModule, types.ModuleName, coins); err != nil {
		return err
	}
	fund := k.GetFund(ctx)
	fund.Deposit(amount, ctx.BlockTime().UnixMilli())
	k.SetFund(ctx, fund)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"penalty_collected",
		sdk.NewAttribute("source_module", fromModule),
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("new_balance", fund.Balance.String()),
	))
	return nil
}

// GetFundStatus returns a solvency snapshot
func (k *Keeper) GetFundStatus(ctx sdk.Context) *types.FundStatus {
	fund := k.GetFund(ctx)
	pending := 0
	for _, c := range k.GetAllClaims(ctx) {
		if c.Status == types.ClaimPending {
			pending++
		}
	}
	return &types.FundStatus{
		Balance:       fund.Balance,
		TotalDeposits: fund.TotalDeposits,
		TotalPayouts:  fund.TotalPayouts,
		PendingClaims: pending,
		UpdatedAt:     fund.UpdatedAt,
	}
}

// claimKey builds the store key for a claim ID
func claimKey(id uint64) []byte {
	return append(ClaimKeyPrefix, sdk.Uint64ToBigEndian(id)...)
}

// nextClaimID increments and returns the claim counter
func (k *Keeper) nextClaimID(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	var id uint64 = 1
	if bz := store.Get(ClaimCounterKey); bz != nil {
		id = sdk.BigEndianToUint64(bz) + 1
	}
	store.Set(ClaimCounterKey, sdk.Uint64ToBigEndian(id))
	return id
}

// SetClaim persists a claim
func (k *Keeper) SetClaim(ctx sdk.Context, claim *types.InsuranceClaim) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(claim)
	store.Set(claimKey(claim.ClaimID), bz)
}

// GetClaim retrieves a claim
func (k *Keeper) GetClaim(ctx sdk.Context, claimID uint64) (*types.InsuranceClaim, bool) {
	store := k.GetStore(ctx)
	bz := store.Get(claimKey(claimID))
	if bz == nil {
		return nil, false
	}
	var claim types.InsuranceClaim
	if err := json.Unmarshal(bz, &claim); err != nil {
		return nil, false
	}
	return &claim, true
}

// GetAllClaims returns every claim ordered by ID
func (k *Keeper) GetAllClaims(ctx sdk.Context) []*types.InsuranceClaim {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, ClaimKeyPrefix)
	defer iterator.Close()

	var claims []*types.InsuranceClaim
	for ; iterator.Valid(); iterator.Next() {
		var claim types.InsuranceClaim
		if err := json.Unmarshal(iterator.Value(), &claim); err != nil {
			continue
		}
		claims = append(claims, &claim)
	}
	return claims
}

func attrID(id uint64) string {
	return fmt.Sprintf("%d", id)
}
