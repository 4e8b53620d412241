package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrLiquidationNotRequired = errors.Register(ModuleName, 1, "position health above liquidation threshold")
	ErrPositionNotFound       = errors.Register(ModuleName, 2, "position not found")
	ErrInvalidAmount          = errors.Register(ModuleName, 3, "liquidation amount must be positive")
	ErrUnauthorized           = errors.Register(ModuleName, 4, "caller is not authorized")
	ErrInvalidConfig          = errors.Register(ModuleName, 5, "invalid liquidation config")
	ErrAutoLiquidationOff     = errors.Register(ModuleName, 6, "auto liquidation disabled for position")
	ErrRecordNotFound         = errors.Register(ModuleName, 7, "liquidation record not found")
	ErrInvalidAddress         = errors.Register(ModuleName, 8, "invalid bech32 address")
)
