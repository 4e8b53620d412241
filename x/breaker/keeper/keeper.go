package keeper

import (
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/breaker/types"
)

// Store key prefixes
var (
	BreakerStateKey      = []byte{0x01}
	EmergencyKey         = []byte{0x02}
	ConfigKey            = []byte{0x03}
	RiskMetricsKey       = []byte{0x04}
	StressTestKeyPrefix  = []byte{0x05}
	BlockSignalKey       = []byte{0x06}
	LastPriceKey         = []byte{0x07}
)

// PositionSource reports the largest single open exposure, feeding the
// concentration metric.
type PositionSource interface {
	LargestExposure(ctx sdk.Context) math.Int
}

// Keeper manages circuit breaker state and the emergency switches
type Keeper struct {
	cdc            codec.BinaryCodec
	storeKey       storetypes.StoreKey
	logger         log.Logger
	authority      string
	positionSource PositionSource
}

// NewKeeper creates a new breaker keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:       cdc,
		storeKey:  storeKey,
		authority: authority,
		logger:    logger.With("module", "x/breaker"),
	}
}

// SetPositionSource wires the position book after construction, the
// collateral keeper depends on this one
func (k *Keeper) SetPositionSource(source PositionSource) {
	k.positionSource = source
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the governance authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ State Storage ============

// GetBreakerState returns the breaker flags, initializing defaults on
// first access
func (k *Keeper) GetBreakerState(ctx sdk.Context) *types.CircuitBreakerState {
	store := k.GetStore(ctx)
	bz := store.Get(BreakerStateKey)
	if bz == nil {
		return types.DefaultCircuitBreakerState()
	}
	var state types.CircuitBreakerState
	if err := json.Unmarshal(bz, &state); err != nil {
		return types.DefaultCircuitBreakerState()
	}
	return &state
}

// SetBreakerState persists the breaker flags
func (k *Keeper) SetBreakerState(ctx sdk.Context, state *types.CircuitBreakerState) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(state)
	store.Set(BreakerStateKey, bz)
}

// GetEmergencySystem returns the emergency switches
func (k *Keeper) GetEmergencySystem(ctx sdk.Context) *types.EmergencySystem {
	store := k.GetStore(ctx)
	bz := store.Get(EmergencyKey)
	if bz == nil {
		return &types.EmergencySystem{}
	}
	var sys types.EmergencySystem
	if err := json.Unmarshal(bz, &sys); err != nil {
		return &types.EmergencySystem{}
	}
	return &sys
}

// SetEmergencySystem persists the emergency switches
func (k *Keeper) SetEmergencySystem(ctx sdk.Context, sys *types.EmergencySystem) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(sys)
	store.Set(EmergencyKey, bz)
}

// GetConfig returns the trip thresholds
func (k *Keeper) GetConfig(ctx sdk.Context) types.BreakerConfig {
	store := k.GetStore(ctx)
	bz := store.Get(ConfigKey)
	if bz == nil {
		return types.DefaultBreakerConfig()
	}
	var cfg types.BreakerConfig
	if err := json.Unmarshal(bz, &cfg); err != nil {
		return types.DefaultBreakerConfig()
	}
	return cfg
}

// SetConfig persists the trip thresholds
func (k *Keeper) SetConfig(ctx sdk.Context, cfg types.BreakerConfig) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(cfg)
	store.Set(ConfigKey, bz)
}

// ============ Gates ============

// EnsureNotPaused rejects when the operator pause switch is up
func (k *Keeper) EnsureNotPaused(ctx sdk.Context) error {
	if k.GetEmergencySystem(ctx).SystemPaused {
		return types.ErrSystemPaused
	}
	return nil
}

// EnsureRiskTakingAllowed rejects new risk while paused, in emergency
// mode, or while any breaker is tripped
func (k *Keeper) EnsureRiskTakingAllowed(ctx sdk.Context) error {
	sys := k.GetEmergencySystem(ctx)
	if sys.SystemPaused {
		return types.ErrSystemPaused
	}
	if sys.EmergencyMode {
		return types.ErrEmergencyModeActive
	}
	if k.GetBreakerState(ctx).AnyTripped() {
		return types.ErrEmergencyModeActive.Wrap("circuit breakers active")
	}
	return nil
}

// EnsureLiquidationAllowed rejects manual liquidation while paused or
// in emergency mode. Tripped breakers do not block liquidation: closing
// risk stays possible while opening risk does not.
func (k *Keeper) EnsureLiquidationAllowed(ctx sdk.Context) error {
	sys := k.GetEmergencySystem(ctx)
	if sys.SystemPaused {
		return types.ErrSystemPaused
	}
	if sys.EmergencyMode {
		return types.ErrEmergencyModeActive
	}
	return nil
}

// ============ Exposure & Metrics ============

// GetRiskMetrics returns the aggregated risk metrics
func (k *Keeper) GetRiskMetrics(ctx sdk.Context) *types.RiskMetrics {
	store := k.GetStore(ctx)
	bz := store.Get(RiskMetricsKey)
	if bz == nil {
		return types.DefaultRiskMetrics()
	}
	var m types.RiskMetrics
	if err := json.Unmarshal(bz, &m); err != nil {
		return types.DefaultRiskMetrics()
	}
	return &m
}

// SetRiskMetrics persists the aggregated risk metrics
func (k *Keeper) SetRiskMetrics(ctx sdk.Context, m *types.RiskMetrics) {
	m.UpdatedAt = ctx.BlockTime().UnixMilli()
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(m)
	store.Set(RiskMetricsKey, bz)
}

// AddExposure is reported by the collateral module when exposure opens
func (k *Keeper) AddExposure(ctx sdk.Context, amount math.Int) {
	m := k.GetRiskMetrics(ctx)
	m.TotalExposure = m.TotalExposure.Add(amount)
	k.SetRiskMetrics(ctx, m)
}

// RemoveExposure is reported when exposure is unwound or liquidated
func (k *Keeper) RemoveExposure(ctx sdk.Context, amount math.Int) {
	m := k.GetRiskMetrics(ctx)
	m.TotalExposure = m.TotalExposure.Sub(amount)
	if m.TotalExposure.IsNegative() {
		m.TotalExposure = math.ZeroInt()
	}
	k.SetRiskMetrics(ctx, m)
}
