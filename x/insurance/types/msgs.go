package types

import (
	"context"
	"fmt"

	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgDeposit{},
		&MsgFileClaim{},
		&MsgAssessClaim{},
		&MsgRetryPayout{},
	)
}

// Message types for insurance module
const (
	TypeMsgDeposit     = "deposit"
	TypeMsgFileClaim   = "file_claim"
	TypeMsgAssessClaim = "assess_claim"
	TypeMsgRetryPayout = "retry_payout"
)

// MsgServer defines the insurance module's message service
type MsgServer interface {
	Deposit(context.Context, *MsgDeposit) (*MsgDepositResponse, error)
	FileClaim(context.Context, *MsgFileClaim) (*MsgFileClaimResponse, error)
	AssessClaim(context.Context, *MsgAssessClaim) (*MsgAssessClaimResponse, error)
	RetryPayout(context.Context, *MsgRetryPayout) (*MsgRetryPayoutResponse, error)
}

// MsgDeposit contributes to the insurance fund.
type MsgDeposit struct {
	Depositor string `json:"depositor"`
	Amount    string `json:"amount"`
}

func (msg *MsgDeposit) Reset()         { *msg = MsgDeposit{} }
func (msg *MsgDeposit) String() string { return msg.Depositor }
func (msg *MsgDeposit) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgDeposit
func (msg *MsgDeposit) XXX_MessageName() string {
	return "gashedge.insurance.v1.MsgDeposit"
}

func (msg *MsgDeposit) ValidateBasic() error {
	if msg.Depositor == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgDeposit) GetSigners() []sdk.AccAddress {
	depositor, _ := sdk.AccAddressFromBech32(msg.Depositor)
	return []sdk.AccAddress{depositor}
}

// MsgFileClaim files a compensation request against the fund.
type MsgFileClaim struct {
	Claimant     string `json:"claimant"`
	Amount       string `json:"amount"`
	IncidentType string `json:"incident_type"`
	Evidence     string `json:"evidence"`
}

func (msg *MsgFileClaim) Reset()         { *msg = MsgFileClaim{} }
func (msg *MsgFileClaim) String() string { return msg.Claimant }
func (msg *MsgFileClaim) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgFileClaim
func (msg *MsgFileClaim) XXX_MessageName() string {
	return "gashedge.insurance.v1.MsgFileClaim"
}

func (msg *MsgFileClaim) ValidateBasic() error {
	if msg.Claimant == "" {
		return ErrUnauthorized
	}
	if msg.Evidence == "" {
		return ErrEvidenceRequired
	}
	if _, ok := IncidentTypeFromString(msg.IncidentType); !ok {
		return ErrInvalidIncidentType
	}
	return nil
}

func (msg *MsgFileClaim) GetSigners() []sdk.AccAddress {
	claimant, _ := sdk.AccAddressFromBech32(msg.Claimant)
	return []sdk.AccAddress{claimant}
}

// MsgAssessClaim approves or rejects a pending claim. Authority only.
type MsgAssessClaim struct {
	Assessor       string `json:"assessor"`
	ClaimID        uint64 `json:"claim_id"`
	Approve        bool   `json:"approve"`
	ApprovedAmount string `json:"approved_amount"`
}

func (msg *MsgAssessClaim) Reset()         { *msg = MsgAssessClaim{} }
func (msg *MsgAssessClaim) String() string { return fmt.Sprintf("%d", msg.ClaimID) }
func (msg *MsgAssessClaim) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgAssessClaim
func (msg *MsgAssessClaim) XXX_MessageName() string {
	return "gashedge.insurance.v1.MsgAssessClaim"
}

func (msg *MsgAssessClaim) ValidateBasic() error {
	if msg.Assessor == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgAssessClaim) GetSigners() []sdk.AccAddress {
	assessor, _ := sdk.AccAddressFromBech32(msg.Assessor)
	return []sdk.AccAddress{assessor}
}

// MsgRetryPayout retries payout of an approved, unpaid claim. Callable
// by anyone.
type MsgRetryPayout struct {
	Caller  string `json:"caller"`
	ClaimID uint64 `json:"claim_id"`
}

func (msg *MsgRetryPayout) Reset()         { *msg = MsgRetryPayout{} }
func (msg *MsgRetryPayout) String() string { return fmt.Sprintf("%d", msg.ClaimID) }
func (msg *MsgRetryPayout) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgRetryPayout
func (msg *MsgRetryPayout) XXX_MessageName() string {
	return "gashedge.insurance.v1.MsgRetryPayout"
}

func (msg *MsgRetryPayout) ValidateBasic() error {
	if msg.Caller == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgRetryPayout) GetSigners() []sdk.AccAddress {
	caller, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{caller}
}

// MsgDepositResponse is the response for MsgDeposit
type MsgDepositResponse struct {
	NewBalance string `json:"new_balance"`
}

func (msg *MsgDepositResponse) Reset()         { *msg = MsgDepositResponse{} }
func (msg *MsgDepositResponse) String() string { return msg.NewBalance }
func (msg *MsgDepositResponse) ProtoMessage()  {}

// MsgFileClaimResponse is the response for MsgFileClaim
type MsgFileClaimResponse struct {
	ClaimID uint64 `json:"claim_id"`
}

func (msg *MsgFileClaimResponse) Reset()         { *msg = MsgFileClaimResponse{} }
func (msg *MsgFileClaimResponse) String() string { return fmt.Sprintf("%d", msg.ClaimID) }
func (msg *MsgFileClaimResponse) ProtoMessage()  {}

// MsgAssessClaimResponse is the response for MsgAssessClaim
type MsgAssessClaimResponse struct {
	Status string `json:"status"`
}

func (msg *MsgAssessClaimResponse) Reset()         { *msg = MsgAssessClaimResponse{} }
func (msg *MsgAssessClaimResponse) String() string { return msg.Status }
func (msg *MsgAssessClaimResponse) ProtoMessage()  {}

// MsgRetryPayoutResponse is the response for MsgRetryPayout
type MsgRetryPayoutResponse struct {
	Status string `json:"status"`
}

func (msg *MsgRetryPayoutResponse) Reset()         { *msg = MsgRetryPayoutResponse{} }
func (msg *MsgRetryPayoutResponse) String() string { return msg.Status }
func (msg *MsgRetryPayoutResponse) ProtoMessage()  {}
