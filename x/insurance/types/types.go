package types

import (
	"cosmossdk.io/math"
)

const (
	ModuleName = "insurance"

	// BasisPoints is the denominator for ratio fields.
	BasisPoints = int64(10000)

	// FundDenom is the denom the fund holds.
	FundDenom = "ugas"
)

// ClaimStatus tracks a claim through assessment and payout.
type ClaimStatus int

const (
	ClaimPending ClaimStatus = iota
	ClaimApproved
	ClaimRejected
	ClaimPaid
)

func (s ClaimStatus) String() string {
	switch s {
	case ClaimPending:
		return "pending"
	case ClaimApproved:
		return "approved"
	case ClaimRejected:
		return "rejected"
	case ClaimPaid:
		return "paid"
	default:
		return "unknown"
	}
}

// IncidentType classifies what a claim compensates for.
type IncidentType int

const (
	IncidentOracleFailure IncidentType = iota
	IncidentLiquidationLoss
	IncidentBreachExploit
	IncidentSystemOutage
)

func (t IncidentType) String() string {
	switch t {
	case IncidentOracleFailure:
		return "oracle_failure"
	case IncidentLiquidationLoss:
		return "liquidation_loss"
	case IncidentBreachExploit:
		return "breach_exploit"
	case IncidentSystemOutage:
		return "system_outage"
	default:
		return "unknown"
	}
}

// IncidentTypeFromString parses the wire form of an incident type.
func IncidentTypeFromString(s string) (IncidentType, bool) {
	switch s {
	case "oracle_failure":
		return IncidentOracleFailure, true
	case "liquidation_loss":
		return IncidentLiquidationLoss, true
	case "breach_exploit":
		return IncidentBreachExploit, true
	case "system_outage":
		return IncidentSystemOutage, true
	default:
		return 0, false
	}
}

// InsuranceFund is the shared backstop for liquidation shortfalls and
// approved claims.
type InsuranceFund struct {
	Balance            math.Int `json:"balance"`
	TotalDeposits      math.Int `json:"total_deposits"`
	TotalPayouts       math.Int `json:"total_payouts"`
	CoverageRatioBps   int64    `json:"coverage_ratio_bps"`
	MinReserveRatioBps int64    `json:"min_reserve_ratio_bps"`
	CreatedAt          int64    `json:"created_at"`  // unix ms
	UpdatedAt          int64    `json:"updated_at"`  // unix ms
}

// NewInsuranceFund creates an empty fund
func NewInsuranceFund(now int64) *InsuranceFund {
	return &InsuranceFund{
		Balance:            math.ZeroInt(),
		TotalDeposits:      math.ZeroInt(),
		TotalPayouts:       math.ZeroInt(),
		CoverageRatioBps:   500,  // target 5% of open exposure
		MinReserveRatioBps: 1000, // keep 10% of deposits in reserve
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Deposit credits the fund
func (f *InsuranceFund) Deposit(amount math.Int, now int64) {
	f.Balance = f.Balance.Add(amount)
	f.TotalDeposits = f.TotalDeposits.Add(amount)
	f.UpdatedAt = now
}

// Withdraw debits the fund, returning false when the balance cannot
// cover the full amount. No partial debits.
func (f *InsuranceFund) Withdraw(amount math.Int, now int64) bool {
	if f.Balance.LT(amount) {
		return false
	}
	f.Balance = f.Balance.Sub(amount)
	f.TotalPayouts = f.TotalPayouts.Add(amount)
	f.UpdatedAt = now
	return true
}

// InsuranceClaim is a compensation request against the fund.
type InsuranceClaim struct {
	ClaimID      uint64       `json:"claim_id"`
	Claimant     string       `json:"claimant"`
	ClaimAmount  math.Int     `json:"claim_amount"`
	IncidentType IncidentType `json:"incident_type"`
	Evidence     string       `json:"evidence"`
	Status       ClaimStatus  `json:"status"`
	Assessor     string       `json:"assessor"`
	PayoutAmount math.Int     `json:"payout_amount"`
	FiledAt      int64        `json:"filed_at"`    // unix ms
	AssessedAt   int64        `json:"assessed_at"` // unix ms
	PaidAt       int64        `json:"paid_at"`     // unix ms
}

// FundStatus is a read-only fund solvency snapshot.
type FundStatus struct {
	Balance       math.Int `json:"balance"`
	TotalDeposits math.Int `json:"total_deposits"`
	TotalPayouts  math.Int `json:"total_payouts"`
	PendingClaims int      `json:"pending_claims"`
	UpdatedAt     int64    `json:"updated_at"`
}
