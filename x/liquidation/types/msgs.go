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
		&MsgRefreshPosition{},
		&MsgLiquidate{},
		&MsgEmergencyClose{},
	)
}

// Message types for liquidation module
const (
	TypeMsgRefreshPosition = "refresh_position"
	TypeMsgLiquidate       = "liquidate"
	TypeMsgEmergencyClose  = "emergency_close"
)

// MsgServer defines the liquidation module's message service
type MsgServer interface {
	RefreshPosition(context.Context, *MsgRefreshPosition) (*MsgRefreshPositionResponse, error)
	Liquidate(context.Context, *MsgLiquidate) (*MsgLiquidateResponse, error)
	EmergencyClose(context.Context, *MsgEmergencyClose) (*MsgEmergencyCloseResponse, error)
}

// MsgRefreshPosition revalues a position at the stored oracle price.
// Callable by anyone.
type MsgRefreshPosition struct {
	Caller     string `json:"caller"`
	PositionID uint64 `json:"position_id"`
}

func (msg *MsgRefreshPosition) Reset()         { *msg = MsgRefreshPosition{} }
func (msg *MsgRefreshPosition) String() string { return fmt.Sprintf("%d", msg.PositionID) }
func (msg *MsgRefreshPosition) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgRefreshPosition
func (msg *MsgRefreshPosition) XXX_MessageName() string {
	return "gashedge.liquidation.v1.MsgRefreshPosition"
}

func (msg *MsgRefreshPosition) ValidateBasic() error {
	if msg.Caller == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgRefreshPosition) GetSigners() []sdk.AccAddress {
	caller, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{caller}
}

// MsgLiquidate liquidates a liquidatable position. Callable by anyone.
type MsgLiquidate struct {
	Liquidator string `json:"liquidator"`
	PositionID uint64 `json:"position_id"`
	Amount     string `json:"amount"`
}

func (msg *MsgLiquidate) Reset()         { *msg = MsgLiquidate{} }
func (msg *MsgLiquidate) String() string { return fmt.Sprintf("%d", msg.PositionID) }
func (msg *MsgLiquidate) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgLiquidate
func (msg *MsgLiquidate) XXX_MessageName() string {
	return "gashedge.liquidation.v1.MsgLiquidate"
}

func (msg *MsgLiquidate) ValidateBasic() error {
	if msg.Liquidator == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgLiquidate) GetSigners() []sdk.AccAddress {
	liquidator, _ := sdk.AccAddressFromBech32(msg.Liquidator)
	return []sdk.AccAddress{liquidator}
}

// MsgEmergencyClose force-closes a position by authority decision.
type MsgEmergencyClose struct {
	Authority  string `json:"authority"`
	PositionID uint64 `json:"position_id"`
	Forced     bool   `json:"forced"`
}

func (msg *MsgEmergencyClose) Reset()         { *msg = MsgEmergencyClose{} }
func (msg *MsgEmergencyClose) String() string { return fmt.Sprintf("%d", msg.PositionID) }
func (msg *MsgEmergencyClose) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgEmergencyClose
func (msg *MsgEmergencyClose) XXX_MessageName() string {
	return "gashedge.liquidation.v1.MsgEmergencyClose"
}

func (msg *MsgEmergencyClose) ValidateBasic() error {
	if msg.Authority == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgEmergencyClose) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// MsgRefreshPositionResponse is the response for MsgRefreshPosition
type MsgRefreshPositionResponse struct {
	HealthFactor string `json:"health_factor"`
	State        string `json:"state"`
}

func (msg *MsgRefreshPositionResponse) Reset()         { *msg = MsgRefreshPositionResponse{} }
func (msg *MsgRefreshPositionResponse) String() string { return msg.State }
func (msg *MsgRefreshPositionResponse) ProtoMessage()  {}

// MsgLiquidateResponse is the response for MsgLiquidate
type MsgLiquidateResponse struct {
	LiquidationID uint64 `json:"liquidation_id"`
	Penalty       string `json:"penalty"`
	Status        string `json:"status"`
}

func (msg *MsgLiquidateResponse) Reset()         { *msg = MsgLiquidateResponse{} }
func (msg *MsgLiquidateResponse) String() string { return msg.Status }
func (msg *MsgLiquidateResponse) ProtoMessage()  {}

// MsgEmergencyCloseResponse is the response for MsgEmergencyClose
type MsgEmergencyCloseResponse struct {
	LiquidationID uint64 `json:"liquidation_id"`
	Penalty       string `json:"penalty"`
}

func (msg *MsgEmergencyCloseResponse) Reset()         { *msg = MsgEmergencyCloseResponse{} }
func (msg *MsgEmergencyCloseResponse) String() string { return msg.Penalty }
func (msg *MsgEmergencyCloseResponse) ProtoMessage()  {}
