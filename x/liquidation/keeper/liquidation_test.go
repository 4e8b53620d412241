package keeper

import (
	"context"
	"errors"
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

	collateralkeeper "github.com/gashedge/gashedge/x/collateral/keeper"
	collateraltypes "github.com/gashedge/gashedge/x/collateral/types"
	"github.com/gashedge/gashedge/x/liquidation/types"
)

// mockBankKeeper records module transfers without moving real coins
type mockBankKeeper struct {
	fromModule []sdk.Coins
	recipients []sdk.AccAddress
}

func (m *mockBankKeeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	return nil
}

func (m *mockBankKeeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	m.fromModule = append(m.fromModule, amt)
	m.recipients = append(m.recipients, recipientAddr)
	return nil
}

// mockInsuranceKeeper tracks fund debits with a configurable balance
type mockInsuranceKeeper struct {
	balance   math.Int
	covered   math.Int
	penalties math.Int
}

func (m *mockInsuranceKeeper) CoverShortfall(ctx sdk.Context, toModule string, amount math.Int, relatedID string) error {
	if !amount.IsPositive() {
		return nil
	}
	if m.balance.LT(amount) {
		return errors.New("insurance fund depleted")
	}
	m.balance = m.balance.Sub(amount)
	m.covered = m.covered.Add(amount)
	return nil
}

func (m *mockInsuranceKeeper) CollectPenalty(ctx sdk.Context, fromModule string, amount math.Int) error {
	m.penalties = m.penalties.Add(amount)
	return nil
}

// mockBreakerKeeper records liquidation reports
type mockBreakerKeeper struct {
	liquidationErr   error
	reportedNotional math.Int
	removedExposure  math.Int
}

func (m *mockBreakerKeeper) EnsureLiquidationAllowed(ctx sdk.Context) error { return m.liquidationErr }
func (m *mockBreakerKeeper) ReportLiquidation(ctx sdk.Context, notional math.Int) {
	m.reportedNotional = m.reportedNotional.Add(notional)
}
func (m *mockBreakerKeeper) RemoveExposure(ctx sdk.Context, amount math.Int) {
	m.removedExposure = m.removedExposure.Add(amount)
}

// collateralBankStub satisfies the collateral keeper's bank dependency
type collateralBankStub struct{}

func (collateralBankStub) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	return nil
}

func (collateralBankStub) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	return nil
}

const testAuthority = "authority"

type testFixture struct {
	keeper     *Keeper
	collateral *collateralkeeper.Keeper
	insurance  *mockInsuranceKeeper
	breaker    *mockBreakerKeeper
	bank       *mockBankKeeper
	ctx        sdk.Context
}

// setupFixture wires a liquidation keeper against a real collateral
// keeper backed by the same in-memory multistore
func setupFixture(tb testing.TB) *testFixture {
	tb.Helper()

	collateralKey := storetypes.NewKVStoreKey(collateraltypes.ModuleName)
	liquidationKey := storetypes.NewKVStoreKey(types.ModuleName)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(collateralKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(liquidationKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger()).
		WithBlockTime(time.Now())

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	collateralKeeper := collateralkeeper.NewKeeper(cdc, collateralKey, collateralBankStub{}, testAuthority, log.NewNopLogger())
	insurance := &mockInsuranceKeeper{
		balance:   math.NewInt(5_000_000),
		covered:   math.ZeroInt(),
		penalties: math.ZeroInt(),
	}
	breaker := &mockBreakerKeeper{
		reportedNotional: math.ZeroInt(),
		removedExposure:  math.ZeroInt(),
	}
	bank := &mockBankKeeper{}

	keeper := NewKeeper(cdc, liquidationKey, collateralKeeper, insurance, breaker, bank, testAuthority, log.NewNopLogger())
	return &testFixture{
		keeper:     keeper,
		collateral: collateralKeeper,
		insurance:  insurance,
		breaker:    breaker,
		bank:       bank,
		ctx:        ctx,
	}
}

func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed + "____________________")[:20]).String()
}

// openTestPosition creates a position at the 120% entry floor
func openTestPosition(tb testing.TB, f *testFixture, owner string, auto bool) uint64 {
	tb.Helper()
	id, err := f.collateral.OpenPosition(f.ctx, owner, math.NewInt(1_000_000), math.NewInt(1_200_000), 10000, auto)
	if err != nil {
		tb.Fatalf("failed to open position: %v", err)
	}
	return id
}

func TestRefresh(t *testing.T) {
	f := setupFixture(t)
	id := openTestPosition(t, f, testAddr("owner"), false)

	// at the entry price nothing changes
	position, err := f.keeper.Refresh(f.ctx, id, math.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if position.State != collateraltypes.StateHealthy {
		t.Errorf("expected healthy, got %s", position.State)
	}
	if !position.HealthFactor.Equal(math.NewInt(12000)) {
		t.Errorf("expected health 12000, got %s", position.HealthFactor)
	}

	// gas price up 10%: margin call band
	position, err = f.keeper.Refresh(f.ctx, id, math.NewInt(1_400_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if position.State != collateraltypes.StateMarginCall {
		t.Errorf("expected margin call, got %s", position.State)
	}

	// price doubles: liquidatable
	position, err = f.keeper.Refresh(f.ctx, id, math.NewInt(2_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if position.State != collateraltypes.StateLiquidatable {
		t.Errorf("expected liquidatable, got %s", position.State)
	}
	if !position.HealthFactor.Equal(math.NewInt(6000)) {
		t.Errorf("expected health 6000, got %s", position.HealthFactor)
	}

	if _, err := f.keeper.Refresh(f.ctx, 999, math.NewInt(1_000_000)); !errors.Is(err, types.ErrPositionNotFound) {
		t.Errorf("expected ErrPositionNotFound, got %v", err)
	}
}

func TestRefreshIdempotent(t *testing.T) {
	f := setupFixture(t)
	id := openTestPosition(t, f, testAddr("owner"), false)

	first, err := f.keeper.Refresh(f.ctx, id, math.NewInt(2_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.keeper.Refresh(f.ctx, id, math.NewInt(2_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.HealthFactor.Equal(second.HealthFactor) || first.State != second.State {
		t.Error("repeated refresh at the same price must not change state")
	}

	// the transition event fires once
	transitions := 0
	for _, ev := range f.ctx.EventManager().Events() {
		if ev.Type == "position_refreshed" {
			transitions++
		}
	}
	if transitions != 1 {
		t.Errorf("expected 1 refresh event, got %d", transitions)
	}
}

func TestLiquidateFullWithShortfall(t *testing.T) {
	f := setupFixture(t)
	owner := testAddr("owner")
	liquidator := testAddr("liquidator")
	id := openTestPosition(t, f, owner, false)

	// price doubles: closing the whole exposure costs 2.2M against 1.2M
	// collateral, the fund absorbs the 1M gap
	record, err := f.keeper.Liquidate(f.ctx, liquidator, id, math.NewInt(1_000_000), math.NewInt(2_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.Status != types.LiquidationExecuted {
		t.Errorf("expected executed, got %s", record.Status)
	}
	if !record.LiquidatedValue.Equal(math.NewInt(2_000_000)) {
		t.Errorf("expected liquidated value 2000000, got %s", record.LiquidatedValue)
	}
	if !record.Penalty.Equal(math.NewInt(200_000)) {
		t.Errorf("expected penalty 200000, got %s", record.Penalty)
	}
	if !record.ShortfallCovered.Equal(math.NewInt(1_000_000)) {
		t.Errorf("expected shortfall 1000000, got %s", record.ShortfallCovered)
	}
	if !f.insurance.covered.Equal(math.NewInt(1_000_000)) {
		t.Errorf("fund covered %s, expected 1000000", f.insurance.covered)
	}

	// 30% of the penalty to the liquidator, the rest to the fund
	if len(f.bank.fromModule) != 1 {
		t.Fatalf("expected one reward transfer, got %d", len(f.bank.fromModule))
	}
	reward := f.bank.fromModule[0].AmountOf(collateraltypes.CollateralDenom)
	if !reward.Equal(math.NewInt(60_000)) {
		t.Errorf("expected reward 60000, got %s", reward)
	}
	if !f.insurance.penalties.Equal(math.NewInt(140_000)) {
		t.Errorf("expected fund penalty share 140000, got %s", f.insurance.penalties)
	}

	if _, found := f.collateral.GetPosition(f.ctx, id); found {
		t.Error("fully liquidated position must be deleted")
	}
	if !f.breaker.reportedNotional.Equal(math.NewInt(2_000_000)) {
		t.Errorf("expected reported notional 2000000, got %s", f.breaker.reportedNotional)
	}
	if !f.breaker.removedExposure.Equal(math.NewInt(1_000_000)) {
		t.Errorf("expected removed exposure 1000000, got %s", f.breaker.removedExposure)
	}
}

func TestLiquidatePartial(t *testing.T) {
	f := setupFixture(t)
	id := openTestPosition(t, f, testAddr("owner"), false)

	record, err := f.keeper.Liquidate(f.ctx, testAddr("liquidator"), id, math.NewInt(400_000), math.NewInt(2_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != types.LiquidationPartial {
		t.Fatalf("expected partial, got %s", record.Status)
	}
	// 800k value + 80k penalty out of 1.2M collateral, no shortfall
	if !record.ShortfallCovered.IsZero() {
		t.Errorf("expected no shortfall, got %s", record.ShortfallCovered)
	}
	if !record.RemainingCollateral.Equal(math.NewInt(320_000)) {
		t.Errorf("expected remaining collateral 320000, got %s", record.RemainingCollateral)
	}

	position, found := f.collateral.GetPosition(f.ctx, id)
	if !found {
		t.Fatal("partially liquidated position must survive")
	}
	if position.State != collateraltypes.StatePartiallyLiquidated {
		t.Errorf("expected partially liquidated, got %s", position.State)
	}
	if !position.ExposureAmount.Equal(math.NewInt(600_000)) {
		t.Errorf("expected exposure 600000, got %s", position.ExposureAmount)
	}
}

func TestLiquidateHealthyPositionRejected(t *testing.T) {
	f := setupFixture(t)
	id := openTestPosition(t, f, testAddr("owner"), false)

	_, err := f.keeper.Liquidate(f.ctx, testAddr("liquidator"), id, math.NewInt(1_000_000), math.NewInt(1_000_000))
	if !errors.Is(err, types.ErrLiquidationNotRequired) {
		t.Errorf("expected ErrLiquidationNotRequired, got %v", err)
	}
}

func TestLiquidateAbortsWhenFundDepleted(t *testing.T) {
	f := setupFixture(t)
	f.insurance.balance = math.NewInt(100)
	id := openTestPosition(t, f, testAddr("owner"), false)

	_, err := f.keeper.Liquidate(f.ctx, testAddr("liquidator"), id, math.NewInt(1_000_000), math.NewInt(2_000_000))
	if err == nil {
		t.Fatal("expected fund depletion to abort the liquidation")
	}

	// all or nothing: the position keeps its exposure and collateral
	position, found := f.collateral.GetPosition(f.ctx, id)
	if !found {
		t.Fatal("aborted liquidation must not delete the position")
	}
	if !position.ExposureAmount.Equal(math.NewInt(1_000_000)) {
		t.Errorf("exposure must be untouched, got %s", position.ExposureAmount)
	}
	if !position.CollateralAmount.Equal(math.NewInt(1_200_000)) {
		t.Errorf("collateral must be untouched, got %s", position.CollateralAmount)
	}
	if len(f.bank.fromModule) != 0 {
		t.Error("aborted liquidation must not pay rewards")
	}
}

func TestLiquidateGatedByBreaker(t *testing.T) {
	f := setupFixture(t)
	f.breaker.liquidationErr = errors.New("system paused")
	id := openTestPosition(t, f, testAddr("owner"), false)

	if _, err := f.keeper.Liquidate(f.ctx, testAddr("liquidator"), id, math.NewInt(1), math.NewInt(2_000_000)); err == nil {
		t.Error("expected breaker gate to block liquidation")
	}
}

func TestLiquidateInvalidAmount(t *testing.T) {
	f := setupFixture(t)
	id := openTestPosition(t, f, testAddr("owner"), false)

	if _, err := f.keeper.Liquidate(f.ctx, testAddr("liquidator"), id, math.ZeroInt(), math.NewInt(2_000_000)); !errors.Is(err, types.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	// over-ask clamps to the open exposure instead of failing
	record, err := f.keeper.Liquidate(f.ctx, testAddr("liquidator"), id, math.NewInt(9_999_999), math.NewInt(2_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !record.LiquidatedAmount.Equal(math.NewInt(1_000_000)) {
		t.Errorf("expected clamp to 1000000, got %s", record.LiquidatedAmount)
	}
}

func TestLiquidateRejectsMalformedLiquidator(t *testing.T) {
	f := setupFixture(t)
	id := openTestPosition(t, f, testAddr("owner"), false)

	_, err := f.keeper.Liquidate(f.ctx, "not-a-bech32-address", id, math.NewInt(1_000_000), math.NewInt(2_000_000))
	if !errors.Is(err, types.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}

	// rejected before any state change: no reward, position intact
	if len(f.bank.fromModule) != 0 {
		t.Error("rejected liquidation must not pay a reward")
	}
	position, found := f.collateral.GetPosition(f.ctx, id)
	if !found {
		t.Fatal("rejected liquidation must not delete the position")
	}
	if !position.ExposureAmount.Equal(math.NewInt(1_000_000)) {
		t.Errorf("exposure must be untouched, got %s", position.ExposureAmount)
	}
}

func TestMonitorAndLiquidate(t *testing.T) {
	f := setupFixture(t)
	id := openTestPosition(t, f, testAddr("owner"), true)

	if err := f.collateral.SetPrice(f.ctx, testAuthority, collateraltypes.GasSymbol, math.NewInt(2_000_000), 9500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record, err := f.keeper.MonitorAndLiquidate(f.ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// half the exposure, no liquidator reward on the automated path
	if !record.LiquidatedAmount.Equal(math.NewInt(500_000)) {
		t.Errorf("expected amount 500000, got %s", record.LiquidatedAmount)
	}
	if len(f.bank.fromModule) != 0 {
		t.Error("automated liquidation must not pay a reward")
	}
	if !f.insurance.penalties.Equal(math.NewInt(100_000)) {
		t.Errorf("expected full penalty 100000 to the fund, got %s", f.insurance.penalties)
	}
}

func TestMonitorRespectsOptOut(t *testing.T) {
	f := setupFixture(t)
	id := openTestPosition(t, f, testAddr("owner"), false)

	if err := f.collateral.SetPrice(f.ctx, testAuthority, collateraltypes.GasSymbol, math.NewInt(2_000_000), 9500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.keeper.MonitorAndLiquidate(f.ctx, id); !errors.Is(err, types.ErrAutoLiquidationOff) {
		t.Errorf("expected ErrAutoLiquidationOff, got %v", err)
	}
}

func TestEmergencyClose(t *testing.T) {
	f := setupFixture(t)
	owner := testAddr("owner")
	id := openTestPosition(t, f, owner, false)

	if _, err := f.keeper.EmergencyClose(f.ctx, "intruder", id, true); !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	record, err := f.keeper.EmergencyClose(f.ctx, testAuthority, id, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != types.LiquidationEmergency || !record.Forced {
		t.Errorf("unexpected record: %+v", record)
	}
	// forced close charges 10% of collateral, refunds the rest
	if !record.Penalty.Equal(math.NewInt(120_000)) {
		t.Errorf("expected penalty 120000, got %s", record.Penalty)
	}
	if len(f.bank.fromModule) != 1 {
		t.Fatalf("expected one refund transfer, got %d", len(f.bank.fromModule))
	}
	refund := f.bank.fromModule[0].AmountOf(collateraltypes.CollateralDenom)
	if !refund.Equal(math.NewInt(1_080_000)) {
		t.Errorf("expected refund 1080000, got %s", refund)
	}
	if _, found := f.collateral.GetPosition(f.ctx, id); found {
		t.Error("emergency closed position must be deleted")
	}
	if !f.breaker.removedExposure.Equal(math.NewInt(1_000_000)) {
		t.Errorf("expected removed exposure 1000000, got %s", f.breaker.removedExposure)
	}
}

func TestEmergencyCloseCooperative(t *testing.T) {
	f := setupFixture(t)
	id := openTestPosition(t, f, testAddr("owner"), false)

	record, err := f.keeper.EmergencyClose(f.ctx, testAuthority, id, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !record.Penalty.IsZero() {
		t.Errorf("cooperative close must not charge a penalty, got %s", record.Penalty)
	}
	refund := f.bank.fromModule[0].AmountOf(collateraltypes.CollateralDenom)
	if !refund.Equal(math.NewInt(1_200_000)) {
		t.Errorf("expected full refund 1200000, got %s", refund)
	}
}

func TestEmergencyCloseWorksWhilePaused(t *testing.T) {
	f := setupFixture(t)
	f.breaker.liquidationErr = errors.New("system paused")
	id := openTestPosition(t, f, testAddr("owner"), false)

	if _, err := f.keeper.EmergencyClose(f.ctx, testAuthority, id, false); err != nil {
		t.Errorf("emergency close must bypass the pause gates, got %v", err)
	}
}

func TestEndBlockLiquidations(t *testing.T) {
	f := setupFixture(t)
	autoID := openTestPosition(t, f, testAddr("alice"), true)
	manualID := openTestPosition(t, f, testAddr("bob"), false)

	if err := f.collateral.SetPrice(f.ctx, testAuthority, collateraltypes.GasSymbol, math.NewInt(2_000_000), 9500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.keeper.EndBlockLiquidations(f.ctx)

	auto, found := f.collateral.GetPosition(f.ctx, autoID)
	if !found {
		t.Fatal("partially liquidated position must survive the sweep")
	}
	if auto.State != collateraltypes.StatePartiallyLiquidated {
		t.Errorf("expected auto position partially liquidated, got %s", auto.State)
	}

	manual, _ := f.collateral.GetPosition(f.ctx, manualID)
	if !manual.ExposureAmount.Equal(math.NewInt(1_000_000)) {
		t.Error("opt-out position must not be touched by the sweep")
	}

	records := f.keeper.GetAllRecords(f.ctx)
	if len(records) != 1 {
		t.Errorf("expected 1 liquidation record, got %d", len(records))
	}
}

func TestEndBlockSkipsWithoutPrice(t *testing.T) {
	f := setupFixture(t)
	openTestPosition(t, f, testAddr("owner"), true)

	f.keeper.EndBlockLiquidations(f.ctx)
	if len(f.keeper.GetAllRecords(f.ctx)) != 0 {
		t.Error("sweep without a price must do nothing")
	}
}

func TestSetConfigValidates(t *testing.T) {
	f := setupFixture(t)

	cfg := types.DefaultLiquidationConfig()
	cfg.PenaltyRateBps = 400
	if err := f.keeper.SetConfig(f.ctx, cfg); !errors.Is(err, types.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	cfg.PenaltyRateBps = 500
	if err := f.keeper.SetConfig(f.ctx, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.keeper.GetConfig(f.ctx); got.PenaltyRateBps != 500 {
		t.Errorf("expected penalty rate 500, got %d", got.PenaltyRateBps)
	}
}
