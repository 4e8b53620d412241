package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrInsuranceFundDepleted = errors.Register(ModuleName, 1, "insurance fund cannot cover amount")
	ErrClaimNotFound         = errors.Register(ModuleName, 2, "claim not found")
	ErrInvalidClaimState     = errors.Register(ModuleName, 3, "claim is not in the required state")
	ErrInvalidClaimAmount    = errors.Register(ModuleName, 4, "claim amount must be positive")
	ErrInvalidIncidentType   = errors.Register(ModuleName, 5, "unknown incident type")
	ErrEvidenceRequired      = errors.Register(ModuleName, 6, "claim evidence required")
	ErrUnauthorized          = errors.Register(ModuleName, 7, "caller is not authorized")
	ErrInvalidDeposit        = errors.Register(ModuleName, 8, "deposit amount must be positive")
)
