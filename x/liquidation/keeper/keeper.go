package keeper

import (
	"context"
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	collateraltypes "github.com/gashedge/gashedge/x/collateral/types"
	"github.com/gashedge/gashedge/x/liquidation/types"
)

// Store key prefixes
var (
	RecordKeyPrefix  = []byte{0x01}
	RecordCounterKey = []byte{0x02}
	ConfigKey        = []byte{0x03}
)

// CollateralKeeper defines the expected interface for the collateral module
type CollateralKeeper interface {
	GetPosition(ctx sdk.Context, positionID uint64) (*collateraltypes.RiskPosition, bool)
	SetPosition(ctx sdk.Context, position *collateraltypes.RiskPosition)
	DeletePosition(ctx sdk.Context, positionID uint64)
	GetAllPositions(ctx sdk.Context) []*collateraltypes.RiskPosition
	GetPrice(ctx sdk.Context, symbol string) (*collateraltypes.PriceInfo, error)
}

// InsuranceKeeper defines the expected interface for the insurance module
type InsuranceKeeper interface {
	CoverShortfall(ctx sdk.Context, toModule string, amount math.Int, relatedID string) error
	CollectPenalty(ctx sdk.Context, fromModule string, amount math.Int) error
}

// BreakerKeeper defines the expected interface for the breaker module
type BreakerKeeper interface {
	EnsureLiquidationAllowed(ctx sdk.Context) error
	ReportLiquidation(ctx sdk.Context, notional math.Int)
	RemoveExposure(ctx sdk.Context, amount math.Int)
}

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// Keeper executes liquidations against collateral-module positions
type Keeper struct {
	cdc              codec.BinaryCodec
	storeKey         storetypes.StoreKey
	collateralKeeper CollateralKeeper
	insuranceKeeper  InsuranceKeeper
	breakerKeeper    BreakerKeeper
	bankKeeper       BankKeeper
	logger           log.Logger
	authority        string // emergency close authority
}

// NewKeeper creates a new liquidation keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	collateralKeeper CollateralKeeper,
	insuranceKeeper InsuranceKeeper,
	breakerKeeper BreakerKeeper,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:              cdc,
		storeKey:         storeKey,
		collateralKeeper: collateralKeeper,
		insuranceKeeper:  insuranceKeeper,
		breakerKeeper:    breakerKeeper,
		bankKeeper:       bankKeeper,
		authority:        authority,
		logger:           logger.With("module", "x/liquidation"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the emergency close authority
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// GetConfig returns the liquidation policy, falling back to defaults
func (k *Keeper) GetConfig(ctx sdk.Context) types.LiquidationConfig {
	store := k.GetStore(ctx)
	bz := store.Get(ConfigKey)
	if bz == nil {
		return types.DefaultLiquidationConfig()
	}
	var cfg types.LiquidationConfig
	if err := json.Unmarshal(bz, &cfg); err != nil {
		return types.DefaultLiquidationConfig()
	}
	return cfg
}

// SetConfig validates and persists the liquidation policy
func (k *Keeper) SetConfig(ctx sdk.Context, cfg types.LiquidationConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(cfg)
	store.Set(ConfigKey, bz)
	return nil
}

// ============ Records ============

func recordKey(id uint64) []byte {
	return append(RecordKeyPrefix, sdk.Uint64ToBigEndian(id)...)
}

// nextRecordID increments and returns the record counter
func (k *Keeper) nextRecordID(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	var id uint64 = 1
	if bz := store.Get(RecordCounterKey); bz != nil {
		id = sdk.BigEndianToUint64(bz) + 1
	}
	store.Set(RecordCounterKey, sdk.Uint64ToBigEndian(id))
	return id
}

// SetRecord persists a liquidation record
func (k *Keeper) SetRecord(ctx sdk.Context, record *types.LiquidationRecord) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(record)
	store.Set(recordKey(record.LiquidationID), bz)
}

// GetRecord retrieves a liquidation record
func (k *Keeper) GetRecord(ctx sdk.Context, id uint64) (*types.LiquidationRecord, bool) {
	store := k.GetStore(ctx)
	bz := store.Get(recordKey(id))
	if bz == nil {
		return nil, false
	}
	var record types.LiquidationRecord
	if err := json.Unmarshal(bz, &record); err != nil {
		return nil, false
	}
	return &record, true
}

// GetAllRecords returns every liquidation record ordered by ID
func (k *Keeper) GetAllRecords(ctx sdk.Context) []*types.LiquidationRecord {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, RecordKeyPrefix)
	defer iterator.Close()

	var records []*types.LiquidationRecord
	for ; iterator.Valid(); iterator.Next() {
		var record types.LiquidationRecord
		if err := json.Unmarshal(iterator.Value(), &record); err != nil {
			continue
		}
		records = append(records, &record)
	}
	return records
}
