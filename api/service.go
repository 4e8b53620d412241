package api

import (
	"github.com/gashedge/gashedge/api/types"
)

// Re-export types for convenience
type (
	PositionView             = types.PositionView
	PositionHealthView       = types.PositionHealthView
	LiquidationView          = types.LiquidationView
	FundStatusView           = types.FundStatusView
	ClaimView                = types.ClaimView
	BreakerStatusView        = types.BreakerStatusView
	RiskMetricsView          = types.RiskMetricsView
	PriceView                = types.PriceView
	ListPositionsRequest     = types.ListPositionsRequest
	ListPositionsResponse    = types.ListPositionsResponse
	ListLiquidationsRequest  = types.ListLiquidationsRequest
	ListLiquidationsResponse = types.ListLiquidationsResponse
	ListClaimsRequest        = types.ListClaimsRequest
	ListClaimsResponse       = types.ListClaimsResponse
	FileClaimRequest         = types.FileClaimRequest
	FileClaimResponse        = types.FileClaimResponse
	PositionService          = types.PositionService
	InsuranceService         = types.InsuranceService
	SystemService            = types.SystemService
)

// nowMillis returns current timestamp in milliseconds
func nowMillis() int64 {
	return types.NowMillis()
}
