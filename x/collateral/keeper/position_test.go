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

	"github.com/gashedge/gashedge/x/collateral/types"
)

// mockBankKeeper records module transfers without moving real coins
type mockBankKeeper struct {
	toModule   []sdk.Coins
	fromModule []sdk.Coins
	failSend   bool
}

func (m *mockBankKeeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	if m.failSend {
		return errors.New("insufficient funds")
	}
	m.toModule = append(m.toModule, amt)
	return nil
}

func (m *mockBankKeeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	m.fromModule = append(m.fromModule, amt)
	return nil
}

// mockBreakerKeeper gates risk operations with configurable errors
type mockBreakerKeeper struct {
	pauseErr error
	riskErr  error
	exposure math.Int
}

func (m *mockBreakerKeeper) EnsureNotPaused(ctx sdk.Context) error         { return m.pauseErr }
func (m *mockBreakerKeeper) EnsureRiskTakingAllowed(ctx sdk.Context) error { return m.riskErr }
func (m *mockBreakerKeeper) AddExposure(ctx sdk.Context, amount math.Int) {
	m.exposure = m.exposure.Add(amount)
}
func (m *mockBreakerKeeper) RemoveExposure(ctx sdk.Context, amount math.Int) {
	m.exposure = m.exposure.Sub(amount)
}

const testAuthority = "authority"

// setupKeeper creates a test keeper with an in-memory store
func setupKeeper(tb testing.TB) (*Keeper, *mockBankKeeper, *mockBreakerKeeper, sdk.Context) {
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

	bank := &mockBankKeeper{}
	breaker := &mockBreakerKeeper{exposure: math.ZeroInt()}
	keeper := NewKeeper(cdc, storeKey, bank, testAuthority, log.NewNopLogger())
	keeper.SetBreakerKeeper(breaker)

	return keeper, bank, breaker, ctx
}

func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed + "____________________")[:20]).String()
}

func TestOpenPosition(t *testing.T) {
	owner := testAddr("owner")

	testCases := []struct {
		name       string
		exposure   int64
		collateral int64
		leverage   int64
		expErr     error
	}{
		{
			name:       "valid position at entry floor",
			exposure:   1_000_000,
			collateral: 1_200_000,
			leverage:   10000,
		},
		{
			name:       "insufficient collateral",
			exposure:   1_000_000,
			collateral: 150_000,
			leverage:   10000,
			expErr:     types.ErrInsufficientCollateral,
		},
		{
			name:       "collateral floor scales with leverage",
			exposure:   1_000_000,
			collateral: 1_200_000,
			leverage:   20000,
			expErr:     types.ErrInsufficientCollateral,
		},
		{
			name:       "zero exposure rejected",
			exposure:   0,
			collateral: 1_200_000,
			leverage:   10000,
			expErr:     types.ErrInvalidExposure,
		},
		{
			name:       "negative collateral rejected",
			exposure:   1_000_000,
			collateral: -1,
			leverage:   10000,
			expErr:     types.ErrInvalidCollateral,
		},
		{
			name:       "zero leverage rejected",
			exposure:   1_000_000,
			collateral: 1_200_000,
			leverage:   0,
			expErr:     types.ErrInvalidLeverage,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			k, _, _, ctx := setupKeeper(t)
			id, err := k.OpenPosition(ctx, owner, math.NewInt(tc.exposure), math.NewInt(tc.collateral), tc.leverage, false)
			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Fatalf("expected %v, got %v", tc.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			position, found := k.GetPosition(ctx, id)
			if !found {
				t.Fatal("position not stored")
			}
			if position.State != types.StateHealthy {
				t.Errorf("expected healthy state, got %s", position.State)
			}
		})
	}
}

func TestOpenPositionMovesCollateral(t *testing.T) {
	k, bank, breaker, ctx := setupKeeper(t)
	owner := testAddr("owner")

	id, err := k.OpenPosition(ctx, owner, math.NewInt(1_000_000), math.NewInt(1_500_000), 10000, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bank.toModule) != 1 {
		t.Fatalf("expected one collateral transfer, got %d", len(bank.toModule))
	}
	want := sdk.NewCoins(sdk.NewCoin(types.CollateralDenom, math.NewInt(1_500_000)))
	if !bank.toModule[0].Equal(want) {
		t.Errorf("expected transfer %s, got %s", want, bank.toModule[0])
	}
	if !breaker.exposure.Equal(math.NewInt(1_000_000)) {
		t.Errorf("expected exposure 1000000 reported, got %s", breaker.exposure)
	}
	if id != 1 {
		t.Errorf("expected first position id 1, got %d", id)
	}

	// transfer failure must leave no position behind
	bank.failSend = true
	_, err = k.OpenPosition(ctx, owner, math.NewInt(1_000_000), math.NewInt(1_500_000), 10000, false)
	if err == nil {
		t.Fatal("expected bank error")
	}
	if len(k.GetAllPositions(ctx)) != 1 {
		t.Errorf("failed open must not write state")
	}
}

func TestOpenPositionBlockedByBreaker(t *testing.T) {
	k, _, breaker, ctx := setupKeeper(t)
	breaker.riskErr = errors.New("system paused")

	_, err := k.OpenPosition(ctx, testAddr("owner"), math.NewInt(1_000_000), math.NewInt(1_500_000), 10000, false)
	if err == nil {
		t.Fatal("expected breaker gate to block open")
	}
}

func TestTopUp(t *testing.T) {
	k, _, _, ctx := setupKeeper(t)
	owner := testAddr("owner")

	id, err := k.OpenPosition(ctx, owner, math.NewInt(1_000_000), math.NewInt(1_200_000), 10000, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := k.TopUp(ctx, owner, id, math.NewInt(300_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	position, _ := k.GetPosition(ctx, id)
	if !position.CollateralAmount.Equal(math.NewInt(1_500_000)) {
		t.Errorf("expected collateral 1500000, got %s", position.CollateralAmount)
	}
	if !position.HealthFactor.Equal(math.NewInt(15000)) {
		t.Errorf("expected health 15000, got %s", position.HealthFactor)
	}

	if err := k.TopUp(ctx, testAddr("other"), id, math.NewInt(100)); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := k.TopUp(ctx, owner, 999, math.NewInt(100)); !errors.Is(err, types.ErrPositionNotFound) {
		t.Errorf("expected ErrPositionNotFound, got %v", err)
	}
	if err := k.TopUp(ctx, owner, id, math.ZeroInt()); !errors.Is(err, types.ErrInvalidCollateral) {
		t.Errorf("expected ErrInvalidCollateral, got %v", err)
	}
}

func TestClosePosition(t *testing.T) {
	k, bank, _, ctx := setupKeeper(t)
	owner := testAddr("owner")

	id, err := k.OpenPosition(ctx, owner, math.NewInt(1_000_000), math.NewInt(1_200_000), 10000, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// outstanding exposure blocks close
	if _, err := k.ClosePosition(ctx, owner, id); !errors.Is(err, types.ErrExposureOutstanding) {
		t.Fatalf("expected ErrExposureOutstanding, got %v", err)
	}

	position, _ := k.GetPosition(ctx, id)
	position.ExposureAmount = math.ZeroInt()
	k.SetPosition(ctx, position)

	refund, err := k.ClosePosition(ctx, owner, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !refund.Equal(math.NewInt(1_200_000)) {
		t.Errorf("expected refund 1200000, got %s", refund)
	}
	if len(bank.fromModule) != 1 {
		t.Errorf("expected one refund transfer, got %d", len(bank.fromModule))
	}
	if _, found := k.GetPosition(ctx, id); found {
		t.Error("closed position must be deleted")
	}
}

func TestRecomputeUsesOraclePrice(t *testing.T) {
	k, _, _, ctx := setupKeeper(t)
	owner := testAddr("owner")

	id, err := k.OpenPosition(ctx, owner, math.NewInt(1_000_000), math.NewInt(1_200_000), 10000, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// gas price doubles: exposure value doubles, health halves
	if err := k.SetPrice(ctx, testAuthority, types.GasSymbol, math.NewInt(2_000_000), 9500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.TopUp(ctx, owner, id, math.NewInt(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	position, _ := k.GetPosition(ctx, id)
	if !position.HealthFactor.Equal(math.NewInt(6000)) {
		t.Errorf("expected health 6000 after price doubling, got %s", position.HealthFactor)
	}
	if position.State != types.StateLiquidatable {
		t.Errorf("expected liquidatable state, got %s", position.State)
	}
}

func TestGetPositionHealth(t *testing.T) {
	k, _, _, ctx := setupKeeper(t)
	owner := testAddr("owner")

	id, err := k.OpenPosition(ctx, owner, math.NewInt(1_000_000), math.NewInt(1_200_000), 10000, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	health, err := k.GetPositionHealth(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if health.RiskLevel != types.RiskLevelLow {
		t.Errorf("expected low risk, got %s", health.RiskLevel)
	}
	if !health.LiquidationPrice.Equal(math.NewInt(1_000_000)) {
		t.Errorf("expected liquidation price 1000000, got %s", health.LiquidationPrice)
	}

	if _, err := k.GetPositionHealth(ctx, 999); !errors.Is(err, types.ErrPositionNotFound) {
		t.Errorf("expected ErrPositionNotFound, got %v", err)
	}
}

func TestGetUnhealthyPositions(t *testing.T) {
	k, _, _, ctx := setupKeeper(t)

	healthy, _ := k.OpenPosition(ctx, testAddr("alice"), math.NewInt(1_000_000), math.NewInt(2_000_000), 10000, false)
	risky, _ := k.OpenPosition(ctx, testAddr("bob"), math.NewInt(1_000_000), math.NewInt(1_200_000), 10000, false)

	position, _ := k.GetPosition(ctx, risky)
	position.HealthFactor = math.NewInt(8500)
	k.SetPosition(ctx, position)

	unhealthy := k.GetUnhealthyPositions(ctx)
	if len(unhealthy) != 1 {
		t.Fatalf("expected 1 unhealthy position, got %d", len(unhealthy))
	}
	if unhealthy[0].PositionID != risky {
		t.Errorf("expected position %d, got %d", risky, unhealthy[0].PositionID)
	}
	_ = healthy
}
