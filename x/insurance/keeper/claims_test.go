package keeper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/gashedge/gashedge/x/insurance/types"
)

// mockBankKeeper tracks per-module balances and rejects sends a module
// account cannot back with coins
type mockBankKeeper struct {
	balances   map[string]sdk.Coins
	toModule   []sdk.Coins
	fromModule []sdk.Coins
}

func newMockBankKeeper() *mockBankKeeper {
	return &mockBankKeeper{balances: make(map[string]sdk.Coins)}
}

// fund seeds a module account with coins outside any keeper flow
func (m *mockBankKeeper) fund(module string, amt sdk.Coins) {
	m.balances[module] = m.balances[module].Add(amt...)
}

func (m *mockBankKeeper) moduleBalance(module string) sdk.Coins {
	return m.balances[module]
}

func (m *mockBankKeeper) debit(module string, amt sdk.Coins) error {
	held := m.balances[module]
	if !amt.IsAllLTE(held) {
		return fmt.Errorf("module %s holds %s, cannot send %s", module, held, amt)
	}
	m.balances[module] = held.Sub(amt...)
	return nil
}

func (m *mockBankKeeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	m.balances[recipientModule] = m.balances[recipientModule].Add(amt...)
	m.toModule = append(m.toModule, amt)
	return nil
}

func (m *mockBankKeeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	if err := m.debit(senderModule, amt); err != nil {
		return err
	}
	m.fromModule = append(m.fromModule, amt)
	return nil
}

func (m *mockBankKeeper) SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error {
	if err := m.debit(senderModule, amt); err != nil {
		return err
	}
	m.balances[recipientModule] = m.balances[recipientModule].Add(amt...)
	return nil
}

const testAuthority = "assessor"

// setupKeeper creates a test keeper with an in-memory store
func setupKeeper(tb testing.TB) (*Keeper, *mockBankKeeper, sdk.Context) {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey(types.ModuleName)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger()).
		WithBlockTime(time.Now())

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	bank := newMockBankKeeper()
	return NewKeeper(cdc, storeKey, bank, testAuthority, log.NewNopLogger()), bank, ctx
}

func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed + "____________________")[:20]).String()
}

func TestDeposit(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	depositor := testAddr("depositor")

	if err := k.Deposit(ctx, depositor, math.ZeroInt()); !errors.Is(err, types.ErrInvalidDeposit) {
		t.Fatalf("expected ErrInvalidDeposit, got %v", err)
	}
	if err := k.Deposit(ctx, depositor, math.NewInt(1_000_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.Deposit(ctx, depositor, math.NewInt(500_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fund := k.GetFund(ctx)
	if !fund.Balance.Equal(math.NewInt(1_500_000)) {
		t.Errorf("expected balance 1500000, got %s", fund.Balance)
	}
	if !fund.TotalDeposits.Equal(math.NewInt(1_500_000)) {
		t.Errorf("expected total deposits 1500000, got %s", fund.TotalDeposits)
	}
	if len(bank.toModule) != 2 {
		t.Errorf("expected 2 transfers, got %d", len(bank.toModule))
	}
}

func TestCoverShortfall(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	if err := k.Deposit(ctx, testAddr("depositor"), math.NewInt(1_000_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := k.CoverShortfall(ctx, "collateral", math.NewInt(400_000), "liquidation-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fund := k.GetFund(ctx)
	if !fund.Balance.Equal(math.NewInt(600_000)) {
		t.Errorf("expected balance 600000, got %s", fund.Balance)
	}
	if !fund.TotalPayouts.Equal(math.NewInt(400_000)) {
		t.Errorf("expected total payouts 400000, got %s", fund.TotalPayouts)
	}

	// the covered coins physically land in the requesting module
	covered := bank.moduleBalance("collateral").AmountOf(types.FundDenom)
	if !covered.Equal(math.NewInt(400_000)) {
		t.Errorf("expected 400000 released to collateral, got %s", covered)
	}
	held := bank.moduleBalance(types.ModuleName).AmountOf(types.FundDenom)
	if !held.Equal(math.NewInt(600_000)) {
		t.Errorf("expected fund account to hold 600000, got %s", held)
	}

	// all or nothing: over-balance debit covers none of it
	if err := k.CoverShortfall(ctx, "collateral", math.NewInt(700_000), "liquidation-2"); !errors.Is(err, types.ErrInsuranceFundDepleted) {
		t.Fatalf("expected ErrInsuranceFundDepleted, got %v", err)
	}
	if !k.GetFund(ctx).Balance.Equal(math.NewInt(600_000)) {
		t.Error("failed cover must not touch the balance")
	}

	// zero shortfall is a no-op
	if err := k.CoverShortfall(ctx, "collateral", math.ZeroInt(), "liquidation-3"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCollectPenalty(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	bank.fund("collateral", sdk.NewCoins(sdk.NewCoin(types.FundDenom, math.NewInt(70_000))))

	if err := k.CollectPenalty(ctx, "collateral", math.NewInt(70_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.CollectPenalty(ctx, "collateral", math.ZeroInt()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fund := k.GetFund(ctx)
	if !fund.Balance.Equal(math.NewInt(70_000)) {
		t.Errorf("expected balance 70000, got %s", fund.Balance)
	}
	// the book credit is backed by coins in the fund account
	held := bank.moduleBalance(types.ModuleName).AmountOf(types.FundDenom)
	if !held.Equal(math.NewInt(70_000)) {
		t.Errorf("expected fund account to hold 70000, got %s", held)
	}

	// a source module without the coins cannot inflate the book balance
	if err := k.CollectPenalty(ctx, "collateral", math.NewInt(1)); err == nil {
		t.Fatal("expected unbacked penalty collection to fail")
	}
	if !k.GetFund(ctx).Balance.Equal(math.NewInt(70_000)) {
		t.Error("failed collection must not touch the balance")
	}
}

func TestPenaltyBackedClaimPayout(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	claimant := testAddr("claimant")

	// 300 deposited, 200 collected from liquidation penalties: the fund
	// account holds the full 500 the book reports
	if err := k.Deposit(ctx, testAddr("depositor"), math.NewInt(300)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bank.fund("collateral", sdk.NewCoins(sdk.NewCoin(types.FundDenom, math.NewInt(200))))
	if err := k.CollectPenalty(ctx, "collateral", math.NewInt(200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := k.FileClaim(ctx, claimant, math.NewInt(500), types.IncidentLiquidationLoss, "record 12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.AssessClaim(ctx, testAuthority, id, true, math.NewInt(500)); err != nil {
		t.Fatalf("approval must pay out against collected penalties: %v", err)
	}

	claim, _ := k.GetClaim(ctx, id)
	if claim.Status != types.ClaimPaid {
		t.Fatalf("expected paid, got %s", claim.Status)
	}
	if !k.GetFund(ctx).Balance.IsZero() {
		t.Errorf("expected drained balance, got %s", k.GetFund(ctx).Balance)
	}
	held := bank.moduleBalance(types.ModuleName).AmountOf(types.FundDenom)
	if !held.IsZero() {
		t.Errorf("expected drained fund account, got %s", held)
	}
}

func TestFileClaimValidation(t *testing.T) {
	claimant := testAddr("claimant")

	testCases := []struct {
		name     string
		amount   int64
		incident types.IncidentType
		evidence string
		expErr   error
	}{
		{
			name:     "valid claim",
			amount:   500,
			incident: types.IncidentOracleFailure,
			evidence: "tx 0xabc, oracle gap 14:02-14:17 UTC",
		},
		{
			name:     "zero amount",
			amount:   0,
			incident: types.IncidentOracleFailure,
			evidence: "x",
			expErr:   types.ErrInvalidClaimAmount,
		},
		{
			name:     "missing evidence",
			amount:   500,
			incident: types.IncidentOracleFailure,
			expErr:   types.ErrEvidenceRequired,
		},
		{
			name:     "unknown incident type",
			amount:   500,
			incident: types.IncidentType(99),
			evidence: "x",
			expErr:   types.ErrInvalidIncidentType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			k, _, ctx := setupKeeper(t)
			id, err := k.FileClaim(ctx, claimant, math.NewInt(tc.amount), tc.incident, tc.evidence)
			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Fatalf("expected %v, got %v", tc.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			claim, found := k.GetClaim(ctx, id)
			if !found {
				t.Fatal("claim not stored")
			}
			if claim.Status != types.ClaimPending {
				t.Errorf("expected pending, got %s", claim.Status)
			}
		})
	}
}

func TestAssessClaimLifecycle(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	claimant := testAddr("claimant")

	if err := k.Deposit(ctx, testAddr("depositor"), math.NewInt(1_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := k.FileClaim(ctx, claimant, math.NewInt(500), types.IncidentLiquidationLoss, "record 42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := k.AssessClaim(ctx, "intruder", id, true, math.NewInt(500)); !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := k.AssessClaim(ctx, testAuthority, 999, true, math.NewInt(500)); !errors.Is(err, types.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}

	// approval pays immediately when funded
	if err := k.AssessClaim(ctx, testAuthority, id, true, math.NewInt(400)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claim, _ := k.GetClaim(ctx, id)
	if claim.Status != types.ClaimPaid {
		t.Fatalf("expected paid, got %s", claim.Status)
	}
	if !claim.PayoutAmount.Equal(math.NewInt(400)) {
		t.Errorf("expected payout 400, got %s", claim.PayoutAmount)
	}
	if !k.GetFund(ctx).Balance.Equal(math.NewInt(600)) {
		t.Errorf("expected balance 600, got %s", k.GetFund(ctx).Balance)
	}
	if len(bank.fromModule) != 1 {
		t.Errorf("expected one payout transfer, got %d", len(bank.fromModule))
	}

	// paid claims cannot be re-assessed
	if err := k.AssessClaim(ctx, testAuthority, id, false, math.ZeroInt()); !errors.Is(err, types.ErrInvalidClaimState) {
		t.Errorf("expected ErrInvalidClaimState, got %v", err)
	}
}

func TestAssessClaimRejection(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	id, err := k.FileClaim(ctx, testAddr("claimant"), math.NewInt(500), types.IncidentSystemOutage, "outage log")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.AssessClaim(ctx, testAuthority, id, false, math.ZeroInt()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claim, _ := k.GetClaim(ctx, id)
	if claim.Status != types.ClaimRejected {
		t.Fatalf("expected rejected, got %s", claim.Status)
	}
	// rejection is terminal
	if err := k.RetryPayout(ctx, id); !errors.Is(err, types.ErrInvalidClaimState) {
		t.Errorf("expected ErrInvalidClaimState, got %v", err)
	}
}

func TestDeferredPayoutAndRetry(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	claimant := testAddr("claimant")
	depositor := testAddr("depositor")

	if err := k.Deposit(ctx, depositor, math.NewInt(300)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := k.FileClaim(ctx, claimant, math.NewInt(500), types.IncidentBreachExploit, "incident report 7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// approved for more than the balance: stays approved, unpaid
	if err := k.AssessClaim(ctx, testAuthority, id, true, math.NewInt(500)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claim, _ := k.GetClaim(ctx, id)
	if claim.Status != types.ClaimApproved {
		t.Fatalf("expected approved, got %s", claim.Status)
	}
	if !k.GetFund(ctx).Balance.Equal(math.NewInt(300)) {
		t.Error("deferred payout must not touch the balance")
	}

	// retry before refunding changes nothing
	if err := k.RetryPayout(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claim, _ = k.GetClaim(ctx, id)
	if claim.Status != types.ClaimApproved {
		t.Fatalf("expected still approved, got %s", claim.Status)
	}

	// top the fund up, retry pays in full
	if err := k.Deposit(ctx, depositor, math.NewInt(300)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.RetryPayout(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claim, _ = k.GetClaim(ctx, id)
	if claim.Status != types.ClaimPaid {
		t.Fatalf("expected paid, got %s", claim.Status)
	}
	if !k.GetFund(ctx).Balance.Equal(math.NewInt(100)) {
		t.Errorf("expected balance 100, got %s", k.GetFund(ctx).Balance)
	}
}

func TestApprovedAmountClampedToClaim(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	if err := k.Deposit(ctx, testAddr("depositor"), math.NewInt(10_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := k.FileClaim(ctx, testAddr("claimant"), math.NewInt(500), types.IncidentOracleFailure, "gap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// over-approval clamps to the claimed amount
	if err := k.AssessClaim(ctx, testAuthority, id, true, math.NewInt(9_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claim, _ := k.GetClaim(ctx, id)
	if !claim.PayoutAmount.Equal(math.NewInt(500)) {
		t.Errorf("expected payout clamped to 500, got %s", claim.PayoutAmount)
	}
}

func TestGetFundStatus(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	if err := k.Deposit(ctx, testAddr("depositor"), math.NewInt(1_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := k.FileClaim(ctx, testAddr("a"), math.NewInt(100), types.IncidentOracleFailure, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := k.FileClaim(ctx, testAddr("b"), math.NewInt(200), types.IncidentSystemOutage, "y"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status := k.GetFundStatus(ctx)
	if !status.Balance.Equal(math.NewInt(1_000)) {
		t.Errorf("expected balance 1000, got %s", status.Balance)
	}
	if status.PendingClaims != 2 {
		t.Errorf("expected 2 pending claims, got %d", status.PendingClaims)
	}
}

func TestIncidentTypeFromString(t *testing.T) {
	testCases := []struct {
		input    string
		expected types.IncidentType
		ok       bool
	}{
		{input: "oracle_failure", expected: types.IncidentOracleFailure, ok: true},
		{input: "liquidation_loss", expected: types.IncidentLiquidationLoss, ok: true},
		{input: "breach_exploit", expected: types.IncidentBreachExploit, ok: true},
		{input: "system_outage", expected: types.IncidentSystemOutage, ok: true},
		{input: "meteor_strike", ok: false},
	}

	for _, tc := range testCases {
		got, ok := types.IncidentTypeFromString(tc.input)
		if ok != tc.ok {
			t.Errorf("%q: expected ok=%t, got %t", tc.input, tc.ok, ok)
			continue
		}
		if ok && got != tc.expected {
			t.Errorf("%q: expected %s, got %s", tc.input, tc.expected, got)
		}
	}
}
