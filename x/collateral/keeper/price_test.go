package keeper

import (
	"errors"
	"testing"
	"time"

	"cosmossdk.io/math"

	"github.com/gashedge/gashedge/x/collateral/types"
)

func TestSetPriceAuthority(t *testing.T) {
	k, _, _, ctx := setupKeeper(t)

	if err := k.SetPrice(ctx, "intruder", types.GasSymbol, math.NewInt(1_000_000), 9500); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := k.SetPrice(ctx, testAuthority, types.GasSymbol, math.ZeroInt(), 9500); !errors.Is(err, types.ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
	if err := k.SetPrice(ctx, testAuthority, types.GasSymbol, math.NewInt(1_000_000), 9500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := k.GetPrice(ctx, types.GasSymbol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Price.Equal(math.NewInt(1_000_000)) {
		t.Errorf("expected price 1000000, got %s", info.Price)
	}
}

func TestGetPriceRejectsStaleAndLowConfidence(t *testing.T) {
	k, _, _, ctx := setupKeeper(t)

	if _, err := k.GetPrice(ctx, types.GasSymbol); !errors.Is(err, types.ErrPriceNotFound) {
		t.Errorf("expected ErrPriceNotFound, got %v", err)
	}

	if err := k.SetPrice(ctx, testAuthority, types.GasSymbol, math.NewInt(1_000_000), 9500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// beyond the 60s acceptance window
	stale := ctx.WithBlockTime(ctx.BlockTime().Add(2 * time.Minute))
	if _, err := k.GetPrice(stale, types.GasSymbol); !errors.Is(err, types.ErrPriceStale) {
		t.Errorf("expected ErrPriceStale, got %v", err)
	}

	if err := k.SetPrice(ctx, testAuthority, types.GasSymbol, math.NewInt(1_000_000), 8000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := k.GetPrice(ctx, types.GasSymbol); !errors.Is(err, types.ErrPriceConfidenceLow) {
		t.Errorf("expected ErrPriceConfidenceLow, got %v", err)
	}
}

func TestPriceConfigRoundTrip(t *testing.T) {
	k, _, _, ctx := setupKeeper(t)

	cfg := k.GetPriceConfig(ctx)
	if cfg.MaxPriceAgeMs != 60_000 || cfg.MinConfidence != 9000 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	k.SetPriceConfig(ctx, types.PriceConfig{MaxPriceAgeMs: 5_000, MinConfidence: 9900})
	cfg = k.GetPriceConfig(ctx)
	if cfg.MaxPriceAgeMs != 5_000 || cfg.MinConfidence != 9900 {
		t.Errorf("config not persisted: %+v", cfg)
	}
}
