package keeper

import (
	"context"
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/collateral/types"
)

// Store key prefixes
var (
	PositionKeyPrefix  = []byte{0x01}
	PositionCounterKey = []byte{0x02}
	PriceKeyPrefix     = []byte{0x03}
	PriceConfigKey     = []byte{0x04}
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// BreakerKeeper defines the expected interface for the breaker module
type BreakerKeeper interface {
	EnsureNotPaused(ctx sdk.Context) error
	EnsureRiskTakingAllowed(ctx sdk.Context) error
	AddExposure(ctx sdk.Context, amount math.Int)
	RemoveExposure(ctx sdk.Context, amount math.Int)
}

// Keeper manages risk positions and the oracle price store
type Keeper struct {
	cdc           codec.BinaryCodec
	storeKey      storetypes.StoreKey
	bankKeeper    BankKeeper
	breakerKeeper BreakerKeeper
	logger        log.Logger
	authority     string // price feed / governance authority address
}

// NewKeeper creates a new collateral keeper
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
		logger:     logger.With("module", "x/collateral"),
	}
}

// SetBreakerKeeper wires the breaker keeper after construction to break
// the keeper initialization cycle.
func (k *Keeper) SetBreakerKeeper(bk BreakerKeeper) {
	k.breakerKeeper = bk
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

// ============ Position Storage ============

func positionKey(id uint64) []byte {
	return append(PositionKeyPrefix, sdk.Uint64ToBigEndian(id)...)
}

// SetPosition saves a position to the store
func (k *Keeper) SetPosition(ctx sdk.Context, position *types.RiskPosition) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(position)
	store.Set(positionKey(position.PositionID), bz)
}

// GetPosition retrieves a position from the store
func (k *Keeper) GetPosition(ctx sdk.Context, positionID uint64) (*types.RiskPosition, bool) {
	store := k.GetStore(ctx)
	bz := store.Get(positionKey(positionID))
	if bz == nil {
		return nil, false
	}
	var position types.RiskPosition
	if err := json.Unmarshal(bz, &position); err != nil {
		return nil, false
	}
	return &position, true
}

// DeletePosition removes a position from the store
func (k *Keeper) DeletePosition(ctx sdk.Context, positionID uint64) {
	store := k.GetStore(ctx)
	store.Delete(positionKey(positionID))
}

// GetAllPositions returns every open position
func (k *Keeper) GetAllPositions(ctx sdk.Context) []*types.RiskPosition {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, PositionKeyPrefix)
	defer iterator.Close()

	var positions []*types.RiskPosition
	for ; iterator.Valid(); iterator.Next() {
		var position types.RiskPosition
		if err := json.Unmarshal(iterator.Value(), &position); err != nil {
			continue
		}
		positions = append(positions, &position)
	}
	return positions
}

// LargestExposure returns the biggest single open exposure, zero when
// the book is empty
func (k *Keeper) LargestExposure(ctx sdk.Context) math.Int {
	largest := math.ZeroInt()
	for _, p := range k.GetAllPositions(ctx) {
		if p.ExposureAmount.GT(largest) {
			largest = p.ExposureAmount
		}
	}
	return largest
}

// GetPositionsByOwner returns every position held by owner
func (k *Keeper) GetPositionsByOwner(ctx sdk.Context, owner string) []*types.RiskPosition {
	var positions []*types.RiskPosition
	for _, p := range k.GetAllPositions(ctx) {
		if p.Owner == owner {
			positions = append(positions, p)
		}
	}
	return positions
}

// nextPositionID increments and returns the position counter
func (k *Keeper) nextPositionID(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	var id uint64 = 1
	if bz := store.Get(PositionCounterKey); bz != nil {
		id = sdk.BigEndianToUint64(bz) + 1
	}
	store.Set(PositionCounterKey, sdk.Uint64ToBigEndian(id))
	return id
}
