package keeper

import (
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

	"github.com/gashedge/gashedge/x/breaker/types"
)

const testAuthority = "authority"

// setupKeeper creates a test keeper with an in-memory store
func setupKeeper(tb testing.TB) (*Keeper, sdk.Context) {
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

	return NewKeeper(cdc, storeKey, testAuthority, log.NewNopLogger()), ctx
}

func TestCheckTripsBreachedBreakers(t *testing.T) {
	testCases := []struct {
		name            string
		priceChange     int64
		volumeChange    int64
		liquidationRate int64
		expTripped      int
	}{
		{name: "all quiet", priceChange: 100, volumeChange: 10000, liquidationRate: 50, expTripped: 0},
		{name: "volatility at threshold", priceChange: 2000, volumeChange: 0, liquidationRate: 0, expTripped: 1},
		{name: "volume spike", priceChange: 0, volumeChange: 50000, liquidationRate: 0, expTripped: 1},
		{name: "cascade", priceChange: 0, volumeChange: 0, liquidationRate: 1000, expTripped: 1},
		{name: "all three breach at once", priceChange: 2500, volumeChange: 60000, liquidationRate: 1500, expTripped: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			k, ctx := setupKeeper(t)
			tripped, err := k.Check(ctx, tc.priceChange, tc.volumeChange, tc.liquidationRate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tripped) != tc.expTripped {
				t.Fatalf("expected %d tripped, got %d", tc.expTripped, len(tripped))
			}

			state := k.GetBreakerState(ctx)
			if state.TriggerCount != uint64(tc.expTripped) {
				t.Errorf("expected trigger count %d, got %d", tc.expTripped, state.TriggerCount)
			}
			sys := k.GetEmergencySystem(ctx)
			if sys.CircuitBreakersActive != (tc.expTripped > 0) {
				t.Errorf("CircuitBreakersActive = %t with %d tripped", sys.CircuitBreakersActive, tc.expTripped)
			}
		})
	}
}

func TestCheckRejectsNegativeSignals(t *testing.T) {
	k, ctx := setupKeeper(t)
	if _, err := k.Check(ctx, -1, 0, 0); !errors.Is(err, types.ErrInvalidSignal) {
		t.Errorf("expected ErrInvalidSignal, got %v", err)
	}
}

func TestCheckAccumulatesTriggerCount(t *testing.T) {
	k, ctx := setupKeeper(t)

	for i := 0; i < 3; i++ {
		if _, err := k.Check(ctx, 2500, 0, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	state := k.GetBreakerState(ctx)
	if state.TriggerCount != 3 {
		t.Errorf("expected trigger count 3, got %d", state.TriggerCount)
	}
	if !state.PriceVolatilityTripped {
		t.Error("volatility breaker should stay tripped")
	}
}

func TestResetCooldown(t *testing.T) {
	k, ctx := setupKeeper(t)

	if _, err := k.Check(ctx, 2500, 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// cooldown window still open
	early := ctx.WithBlockTime(ctx.BlockTime().Add(30 * time.Minute))
	if err := k.Reset(early); !errors.Is(err, types.ErrCooldownNotElapsed) {
		t.Fatalf("expected ErrCooldownNotElapsed, got %v", err)
	}
	if !k.GetBreakerState(early).PriceVolatilityTripped {
		t.Error("failed reset must not clear breakers")
	}

	// after the full cooldown
	late := ctx.WithBlockTime(ctx.BlockTime().Add(61 * time.Minute))
	if err := k.Reset(late); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state := k.GetBreakerState(late)
	if state.AnyTripped() {
		t.Error("reset must clear all breakers")
	}
	if !state.CurrentDailyLoss.IsZero() {
		t.Errorf("reset must zero daily loss, got %s", state.CurrentDailyLoss)
	}
	if k.GetEmergencySystem(late).CircuitBreakersActive {
		t.Error("reset must clear CircuitBreakersActive")
	}

	// idempotent once elapsed
	if err := k.Reset(late); err != nil {
		t.Errorf("repeat reset should succeed, got %v", err)
	}
}

func TestResetWithoutTrigger(t *testing.T) {
	k, ctx := setupKeeper(t)
	if err := k.Reset(ctx); err != nil {
		t.Errorf("reset with no trigger history should succeed, got %v", err)
	}
}

func TestEmergencyLifecycle(t *testing.T) {
	k, ctx := setupKeeper(t)

	if err := k.ActivateEmergency(ctx, "intruder", "drill", 0); !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := k.ActivateEmergency(ctx, testAuthority, "oracle outage", 600_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := k.GetBreakerState(ctx)
	if !state.PriceVolatilityTripped || !state.VolumeSpikeTripped || !state.LiquidationCascadeTripped {
		t.Error("emergency must trip all breakers")
	}
	sys := k.GetEmergencySystem(ctx)
	if !sys.EmergencyMode || sys.Reason != "oracle outage" {
		t.Errorf("unexpected emergency state: %+v", sys)
	}

	if err := k.EnsureRiskTakingAllowed(ctx); !errors.Is(err, types.ErrEmergencyModeActive) {
		t.Errorf("expected ErrEmergencyModeActive, got %v", err)
	}
	if err := k.EnsureLiquidationAllowed(ctx); !errors.Is(err, types.ErrEmergencyModeActive) {
		t.Errorf("expected ErrEmergencyModeActive, got %v", err)
	}

	if err := k.Resume(ctx, testAuthority); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys = k.GetEmergencySystem(ctx)
	if sys.EmergencyMode || sys.Reason != "" {
		t.Errorf("resume must clear emergency mode: %+v", sys)
	}
	// breaker flags survive resume until an explicit reset
	if !k.GetBreakerState(ctx).AnyTripped() {
		t.Error("resume must not clear breaker flags")
	}
}

func TestPauseBlocksEverything(t *testing.T) {
	k, ctx := setupKeeper(t)

	if err := k.Pause(ctx, testAuthority); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.EnsureNotPaused(ctx); !errors.Is(err, types.ErrSystemPaused) {
		t.Errorf("expected ErrSystemPaused, got %v", err)
	}
	if err := k.EnsureRiskTakingAllowed(ctx); !errors.Is(err, types.ErrSystemPaused) {
		t.Errorf("expected ErrSystemPaused, got %v", err)
	}
	if err := k.EnsureLiquidationAllowed(ctx); !errors.Is(err, types.ErrSystemPaused) {
		t.Errorf("expected ErrSystemPaused, got %v", err)
	}

	if err := k.Resume(ctx, testAuthority); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.EnsureNotPaused(ctx); err != nil {
		t.Errorf("unexpected error after resume: %v", err)
	}

	if err := k.Resume(ctx, testAuthority); !errors.Is(err, types.ErrNotPaused) {
		t.Errorf("expected ErrNotPaused, got %v", err)
	}
}

func TestTrippedBreakerGatesRiskTakingOnly(t *testing.T) {
	k, ctx := setupKeeper(t)

	if _, err := k.Check(ctx, 2500, 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.EnsureRiskTakingAllowed(ctx); err == nil {
		t.Error("tripped breaker must block new risk")
	}
	if err := k.EnsureLiquidationAllowed(ctx); err != nil {
		t.Errorf("tripped breaker must not block liquidation, got %v", err)
	}
}

func TestExposureTracking(t *testing.T) {
	k, ctx := setupKeeper(t)

	k.AddExposure(ctx, math.NewInt(1_000_000))
	k.AddExposure(ctx, math.NewInt(500_000))
	if total := k.GetRiskMetrics(ctx).TotalExposure; !total.Equal(math.NewInt(1_500_000)) {
		t.Errorf("expected exposure 1500000, got %s", total)
	}

	k.RemoveExposure(ctx, math.NewInt(2_000_000))
	if total := k.GetRiskMetrics(ctx).TotalExposure; !total.IsZero() {
		t.Errorf("exposure must clamp at zero, got %s", total)
	}
}

func TestEvaluateBlockDerivesSignals(t *testing.T) {
	k, ctx := setupKeeper(t)

	k.AddExposure(ctx, math.NewInt(10_000_000))

	// first evaluation seeds the reference price, nothing trips
	k.EvaluateBlock(ctx, math.NewInt(1_000_000))
	if k.GetBreakerState(ctx).AnyTripped() {
		t.Fatal("first evaluation must not trip")
	}

	// 25% price move trips volatility
	k.EvaluateBlock(ctx, math.NewInt(1_250_000))
	state := k.GetBreakerState(ctx)
	if !state.PriceVolatilityTripped {
		t.Error("25% move must trip the volatility breaker")
	}
	if state.VolumeSpikeTripped || state.LiquidationCascadeTripped {
		t.Error("only the volatility breaker should trip")
	}
}

func TestEvaluateBlockCascade(t *testing.T) {
	k, ctx := setupKeeper(t)

	k.AddExposure(ctx, math.NewInt(10_000_000))
	// 15% of open exposure liquidated in one block
	k.ReportLiquidation(ctx, math.NewInt(1_500_000))

	k.EvaluateBlock(ctx, math.NewInt(1_000_000))
	state := k.GetBreakerState(ctx)
	if !state.LiquidationCascadeTripped {
		t.Error("liquidation cascade breaker should trip")
	}
	if !state.CurrentDailyLoss.Equal(math.NewInt(1_500_000)) {
		t.Errorf("expected daily loss 1500000, got %s", state.CurrentDailyLoss)
	}

	// window rolled: signals reset for next block
	k.EvaluateBlock(ctx, math.NewInt(1_000_000))
	// the flag persists, only the per-block accumulator clears
	if !k.GetBreakerState(ctx).LiquidationCascadeTripped {
		t.Error("tripped flag must persist across blocks")
	}
}

type stubPositionSource struct {
	largest math.Int
}

func (s stubPositionSource) LargestExposure(ctx sdk.Context) math.Int {
	return s.largest
}

func TestEvaluateBlockRefreshesRiskMetrics(t *testing.T) {
	k, ctx := setupKeeper(t)
	k.SetPositionSource(stubPositionSource{largest: math.NewInt(6_000_000)})
	k.AddExposure(ctx, math.NewInt(10_000_000))

	// seed the reference price, then a 10% move
	k.EvaluateBlock(ctx, math.NewInt(1_000_000))
	k.EvaluateBlock(ctx, math.NewInt(1_100_000))

	m := k.GetRiskMetrics(ctx)
	if m.MarketRiskBps != 1000 {
		t.Errorf("expected market risk 1000 bps, got %d", m.MarketRiskBps)
	}
	if m.ConcentrationBps != 6000 {
		t.Errorf("expected concentration 6000 bps, got %d", m.ConcentrationBps)
	}
	// 1.65 sigma on 10M exposure at a 10% move
	if !m.VaR95.Equal(math.LegacyNewDec(1_650_000)) {
		t.Errorf("expected VaR95 1650000, got %s", m.VaR95)
	}
	if !m.ExpectedShortfall.Equal(math.LegacyNewDec(2_062_500)) {
		t.Errorf("expected shortfall 2062500, got %s", m.ExpectedShortfall)
	}
	if m.LiquidityRisk != types.SystemRiskLow {
		t.Errorf("expected low liquidity risk, got %s", m.LiquidityRisk)
	}

	// a cascade elevates the liquidity dimension
	k.ReportLiquidation(ctx, math.NewInt(1_500_000))
	k.EvaluateBlock(ctx, math.NewInt(1_100_000))
	if got := k.GetRiskMetrics(ctx).LiquidityRisk; got != types.SystemRiskHigh {
		t.Errorf("expected high liquidity risk after cascade, got %s", got)
	}
}

func TestEvaluateBlockMetricsWithoutExposure(t *testing.T) {
	k, ctx := setupKeeper(t)
	k.SetPositionSource(stubPositionSource{largest: math.ZeroInt()})

	k.EvaluateBlock(ctx, math.NewInt(1_000_000))
	m := k.GetRiskMetrics(ctx)
	if m.ConcentrationBps != 0 || !m.VaR95.IsZero() || !m.ExpectedShortfall.IsZero() {
		t.Errorf("empty book must carry zero risk metrics: %+v", m)
	}
}

func TestDailyLossLimitTripsCascade(t *testing.T) {
	k, ctx := setupKeeper(t)

	state := k.GetBreakerState(ctx)
	state.DailyLossLimit = math.NewInt(1_000_000)
	k.SetBreakerState(ctx, state)
	k.AddExposure(ctx, math.NewInt(1_000_000_000))

	// each block liquidates far below the per-block cascade rate
	k.ReportLiquidation(ctx, math.NewInt(600_000))
	k.EvaluateBlock(ctx, math.NewInt(1_000_000))
	if k.GetBreakerState(ctx).LiquidationCascadeTripped {
		t.Fatal("loss below the daily limit must not trip")
	}

	// the accumulated daily loss crosses the limit
	k.ReportLiquidation(ctx, math.NewInt(600_000))
	k.EvaluateBlock(ctx, math.NewInt(1_000_000))
	state = k.GetBreakerState(ctx)
	if !state.LiquidationCascadeTripped {
		t.Fatal("accumulated loss past the daily limit must trip the cascade breaker")
	}
	if state.TriggerCount != 1 {
		t.Errorf("expected trigger count 1, got %d", state.TriggerCount)
	}
	if !k.GetEmergencySystem(ctx).CircuitBreakersActive {
		t.Error("daily loss trip must raise CircuitBreakersActive")
	}

	// reset clears the flag and the accumulator together
	late := ctx.WithBlockTime(ctx.BlockTime().Add(61 * time.Minute))
	if err := k.Reset(late); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state = k.GetBreakerState(late)
	if state.LiquidationCascadeTripped || !state.CurrentDailyLoss.IsZero() {
		t.Errorf("reset must clear the trip and the daily loss, got %+v", state)
	}
}

func TestCalculateSystemRiskLevel(t *testing.T) {
	testCases := []struct {
		name     string
		metrics  types.RiskMetrics
		expected types.SystemRiskLevel
	}{
		{
			name:     "all calm",
			metrics:  types.RiskMetrics{},
			expected: types.SystemRiskLow,
		},
		{
			name:     "one breach",
			metrics:  types.RiskMetrics{MarketRiskBps: 1600},
			expected: types.SystemRiskMedium,
		},
		{
			name:     "two breaches",
			metrics:  types.RiskMetrics{MarketRiskBps: 1600, ConcentrationBps: 6000},
			expected: types.SystemRiskHigh,
		},
		{
			name: "three breaches",
			metrics: types.RiskMetrics{
				MarketRiskBps:       1600,
				ConcentrationBps:    6000,
				CounterpartyRiskBps: 3500,
			},
			expected: types.SystemRiskCritical,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateSystemRiskLevel(&tc.metrics)
			if got != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestRecordStressTest(t *testing.T) {
	k, ctx := setupKeeper(t)

	if err := k.RecordStressTest(ctx, "", math.NewInt(1), true); !errors.Is(err, types.ErrInvalidStressScenario) {
		t.Fatalf("expected ErrInvalidStressScenario, got %v", err)
	}

	if err := k.RecordStressTest(ctx, "gas spike 5x", math.NewInt(2_000_000), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	later := ctx.WithBlockTime(ctx.BlockTime().Add(time.Second))
	if err := k.RecordStressTest(later, "oracle outage", math.NewInt(8_000_000), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := k.GetStressTestResults(ctx)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Scenario != "gas spike 5x" || results[1].Scenario != "oracle outage" {
		t.Errorf("results out of order: %+v", results)
	}
}
