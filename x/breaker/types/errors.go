package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrCooldownNotElapsed    = errors.Register(ModuleName, 1, "breaker cooldown has not elapsed")
	ErrSystemPaused          = errors.Register(ModuleName, 2, "system is paused")
	ErrEmergencyModeActive   = errors.Register(ModuleName, 3, "emergency mode is active")
	ErrUnauthorized          = errors.Register(ModuleName, 4, "caller is not authorized")
	ErrNotPaused             = errors.Register(ModuleName, 5, "system is not paused")
	ErrEmergencyNotActive    = errors.Register(ModuleName, 6, "emergency mode is not active")
	ErrInvalidSignal         = errors.Register(ModuleName, 7, "breaker signal must be non-negative")
	ErrInvalidStressScenario = errors.Register(ModuleName, 8, "stress scenario name required")
)
