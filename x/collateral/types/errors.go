package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrInsufficientCollateral = errors.Register(ModuleName, 1, "collateral below minimum ratio")
	ErrInvalidExposure        = errors.Register(ModuleName, 2, "exposure amount must be positive")
	ErrInvalidCollateral      = errors.Register(ModuleName, 3, "collateral amount must be positive")
	ErrInvalidLeverage        = errors.Register(ModuleName, 4, "leverage ratio must be positive")
	ErrPositionNotFound       = errors.Register(ModuleName, 5, "position not found")
	ErrUnauthorized           = errors.Register(ModuleName, 6, "caller is not authorized")
	ErrExposureOutstanding    = errors.Register(ModuleName, 7, "position still has open exposure")
	ErrPositionClosed         = errors.Register(ModuleName, 8, "position is closed")
	ErrPriceNotFound          = errors.Register(ModuleName, 9, "no price available for symbol")
	ErrPriceStale             = errors.Register(ModuleName, 10, "price observation too old")
	ErrPriceConfidenceLow     = errors.Register(ModuleName, 11, "price confidence below minimum")
	ErrInvalidPrice           = errors.Register(ModuleName, 12, "price must be positive")
	ErrCollateralUnderflow    = errors.Register(ModuleName, 13, "operation would make collateral negative")
)
