package keeper

import (
	"encoding/json"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gashedge/gashedge/x/collateral/types"
)

// SetPriceConfig stores the price acceptance bounds
func (k *Keeper) SetPriceConfig(ctx sdk.Context, cfg types.PriceConfig) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(cfg)
	store.Set(PriceConfigKey, bz)
}

// GetPriceConfig returns the price acceptance bounds, falling back to
// defaults when none are stored
func (k *Keeper) GetPriceConfig(ctx sdk.Context) types.PriceConfig {
	store := k.GetStore(ctx)
	bz := store.Get(PriceConfigKey)
	if bz == nil {
		return types.DefaultPriceConfig()
	}
	var cfg types.PriceConfig
	if err := json.Unmarshal(bz, &cfg); err != nil {
		return types.DefaultPriceConfig()
	}
	return cfg
}

// SetPrice records an oracle observation. Only the configured authority
// may submit prices.
func (k *Keeper) SetPrice(ctx sdk.Context, submitter, symbol string, price math.Int, confidence int64) error {
	if submitter != k.authority {
		return types.ErrUnauthorized.Wrap("price submission restricted to authority")
	}
	if !price.IsPositive() {
		return types.ErrInvalidPrice
	}

	info := types.PriceInfo{
		Symbol:     symbol,
		Price:      price,
		Confidence: confidence,
		Timestamp:  ctx.BlockTime().UnixMilli(),
	}
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(info)
	store.Set(append(PriceKeyPrefix, []byte(symbol)...), bz)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"price_updated",
		sdk.NewAttribute("symbol", symbol),
		sdk.NewAttribute("price", price.String()),
	))
	return nil
}

// GetPrice returns the stored observation for symbol, rejecting stale
// or low-confidence data.
func (k *Keeper) GetPrice(ctx sdk.Context, symbol string) (*types.PriceInfo, error) {
	store := k.GetStore(ctx)
	bz := store.Get(append(PriceKeyPrefix, []byte(symbol)...))
	if bz == nil {
		return nil, types.ErrPriceNotFound
	}
	var info types.PriceInfo
	if err := json.Unmarshal(bz, &info); err != nil {
		return nil, types.ErrPriceNotFound
	}

	cfg := k.GetPriceConfig(ctx)
	age := ctx.BlockTime().UnixMilli() - info.Timestamp
	if age > cfg.MaxPriceAgeMs {
		return nil, types.ErrPriceStale.Wrapf("age %dms exceeds %dms", age, cfg.MaxPriceAgeMs)
	}
	if info.Confidence < cfg.MinConfidence {
		return nil, types.ErrPriceConfidenceLow.Wrapf("confidence %d below %d", info.Confidence, cfg.MinConfidence)
	}
	return &info, nil
}
