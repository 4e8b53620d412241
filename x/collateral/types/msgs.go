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
		&MsgOpenPosition{},
		&MsgTopUp{},
		&MsgClosePosition{},
		&MsgSubmitPrice{},
	)
}

// Message types for collateral module
const (
	TypeMsgOpenPosition  = "open_position"
	TypeMsgTopUp         = "top_up"
	TypeMsgClosePosition = "close_position"
	TypeMsgSubmitPrice   = "submit_price"
)

// MsgServer defines the collateral module's message service
type MsgServer interface {
	OpenPosition(context.Context, *MsgOpenPosition) (*MsgOpenPositionResponse, error)
	TopUp(context.Context, *MsgTopUp) (*MsgTopUpResponse, error)
	ClosePosition(context.Context, *MsgClosePosition) (*MsgClosePositionResponse, error)
	SubmitPrice(context.Context, *MsgSubmitPrice) (*MsgSubmitPriceResponse, error)
}

// MsgOpenPosition opens a new leveraged risk position. Amounts are
// decimal strings; LeverageRatio is basis points.
type MsgOpenPosition struct {
	Owner           string `json:"owner"`
	ExposureAmount  string `json:"exposure_amount"`
	Collateral      string `json:"collateral"`
	LeverageRatio   int64  `json:"leverage_ratio"`
	AutoLiquidation bool   `json:"auto_liquidation"`
}

func (msg *MsgOpenPosition) Reset()         { *msg = MsgOpenPosition{} }
func (msg *MsgOpenPosition) String() string { return msg.Owner }
func (msg *MsgOpenPosition) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgOpenPosition
func (msg *MsgOpenPosition) XXX_MessageName() string {
	return "gashedge.collateral.v1.MsgOpenPosition"
}

func (msg *MsgOpenPosition) ValidateBasic() error {
	if msg.Owner == "" {
		return ErrUnauthorized
	}
	if msg.LeverageRatio <= 0 {
		return ErrInvalidLeverage
	}
	return nil
}

func (msg *MsgOpenPosition) GetSigners() []sdk.AccAddress {
	owner, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{owner}
}

// MsgTopUp adds collateral to an existing position.
type MsgTopUp struct {
	Owner      string `json:"owner"`
	PositionID uint64 `json:"position_id"`
	Amount     string `json:"amount"`
}

func (msg *MsgTopUp) Reset()         { *msg = MsgTopUp{} }
func (msg *MsgTopUp) String() string { return fmt.Sprintf("%s/%d", msg.Owner, msg.PositionID) }
func (msg *MsgTopUp) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgTopUp
func (msg *MsgTopUp) XXX_MessageName() string {
	return "gashedge.collateral.v1.MsgTopUp"
}

func (msg *MsgTopUp) ValidateBasic() error {
	if msg.Owner == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgTopUp) GetSigners() []sdk.AccAddress {
	owner, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{owner}
}

// MsgClosePosition closes a fully unwound position and refunds the
// remaining collateral.
type MsgClosePosition struct {
	Owner      string `json:"owner"`
	PositionID uint64 `json:"position_id"`
}

func (msg *MsgClosePosition) Reset()         { *msg = MsgClosePosition{} }
func (msg *MsgClosePosition) String() string { return fmt.Sprintf("%s/%d", msg.Owner, msg.PositionID) }
func (msg *MsgClosePosition) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgClosePosition
func (msg *MsgClosePosition) XXX_MessageName() string {
	return "gashedge.collateral.v1.MsgClosePosition"
}

func (msg *MsgClosePosition) ValidateBasic() error {
	if msg.Owner == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgClosePosition) GetSigners() []sdk.AccAddress {
	owner, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{owner}
}

// MsgSubmitPrice records an oracle observation. Authority-gated.
type MsgSubmitPrice struct {
	Authority  string `json:"authority"`
	Symbol     string `json:"symbol"`
	Price      string `json:"price"`
	Confidence int64  `json:"confidence"`
}

func (msg *MsgSubmitPrice) Reset()         { *msg = MsgSubmitPrice{} }
func (msg *MsgSubmitPrice) String() string { return msg.Symbol }
func (msg *MsgSubmitPrice) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgSubmitPrice
func (msg *MsgSubmitPrice) XXX_MessageName() string {
	return "gashedge.collateral.v1.MsgSubmitPrice"
}

func (msg *MsgSubmitPrice) ValidateBasic() error {
	if msg.Authority == "" {
		return ErrUnauthorized
	}
	if msg.Symbol == "" {
		return ErrPriceNotFound
	}
	return nil
}

func (msg *MsgSubmitPrice) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// MsgOpenPositionResponse is the response for MsgOpenPosition
type MsgOpenPositionResponse struct {
	PositionID   uint64 `json:"position_id"`
	HealthFactor string `json:"health_factor"`
}

func (msg *MsgOpenPositionResponse) Reset()         { *msg = MsgOpenPositionResponse{} }
func (msg *MsgOpenPositionResponse) String() string { return fmt.Sprintf("%d", msg.PositionID) }
func (msg *MsgOpenPositionResponse) ProtoMessage()  {}

// MsgTopUpResponse is the response for MsgTopUp
type MsgTopUpResponse struct {
	NewCollateral string `json:"new_collateral"`
	HealthFactor  string `json:"health_factor"`
}

func (msg *MsgTopUpResponse) Reset()         { *msg = MsgTopUpResponse{} }
func (msg *MsgTopUpResponse) String() string { return msg.NewCollateral }
func (msg *MsgTopUpResponse) ProtoMessage()  {}

// MsgClosePositionResponse is the response for MsgClosePosition
type MsgClosePositionResponse struct {
	RefundedCollateral string `json:"refunded_collateral"`
}

func (msg *MsgClosePositionResponse) Reset()         { *msg = MsgClosePositionResponse{} }
func (msg *MsgClosePositionResponse) String() string { return msg.RefundedCollateral }
func (msg *MsgClosePositionResponse) ProtoMessage()  {}

// MsgSubmitPriceResponse is the response for MsgSubmitPrice
type MsgSubmitPriceResponse struct{}

func (msg *MsgSubmitPriceResponse) Reset()         { *msg = MsgSubmitPriceResponse{} }
func (msg *MsgSubmitPriceResponse) String() string { return "" }
func (msg *MsgSubmitPriceResponse) ProtoMessage()  {}
