package types

import (
	"context"

	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgCheckBreakers{},
		&MsgResetBreakers{},
		&MsgActivateEmergency{},
		&MsgPauseSystem{},
		&MsgResumeSystem{},
		&MsgRecordStressTest{},
	)
}

// Message types for breaker module
const (
	TypeMsgCheckBreakers     = "check_breakers"
	TypeMsgResetBreakers     = "reset_breakers"
	TypeMsgActivateEmergency = "activate_emergency"
	TypeMsgPauseSystem       = "pause_system"
	TypeMsgResumeSystem      = "resume_system"
	TypeMsgRecordStressTest  = "record_stress_test"
)

// MsgServer defines the breaker module's message service
type MsgServer interface {
	CheckBreakers(context.Context, *MsgCheckBreakers) (*MsgCheckBreakersResponse, error)
	ResetBreakers(context.Context, *MsgResetBreakers) (*MsgResetBreakersResponse, error)
	ActivateEmergency(context.Context, *MsgActivateEmergency) (*MsgActivateEmergencyResponse, error)
	PauseSystem(context.Context, *MsgPauseSystem) (*MsgPauseSystemResponse, error)
	ResumeSystem(context.Context, *MsgResumeSystem) (*MsgResumeSystemResponse, error)
	RecordStressTest(context.Context, *MsgRecordStressTest) (*MsgRecordStressTestResponse, error)
}

// MsgCheckBreakers evaluates explicit breaker signals. Callable by
// anyone; the signals are validated against stored thresholds.
type MsgCheckBreakers struct {
	Caller             string `json:"caller"`
	PriceChangeBps     int64  `json:"price_change_bps"`
	VolumeChangeBps    int64  `json:"volume_change_bps"`
	LiquidationRateBps int64  `json:"liquidation_rate_bps"`
}

func (msg *MsgCheckBreakers) Reset()         { *msg = MsgCheckBreakers{} }
func (msg *MsgCheckBreakers) String() string { return msg.Caller }
func (msg *MsgCheckBreakers) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgCheckBreakers
func (msg *MsgCheckBreakers) XXX_MessageName() string {
	return "gashedge.breaker.v1.MsgCheckBreakers"
}

func (msg *MsgCheckBreakers) ValidateBasic() error {
	if msg.Caller == "" {
		return ErrUnauthorized
	}
	if msg.PriceChangeBps < 0 || msg.VolumeChangeBps < 0 || msg.LiquidationRateBps < 0 {
		return ErrInvalidSignal
	}
	return nil
}

func (msg *MsgCheckBreakers) GetSigners() []sdk.AccAddress {
	caller, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{caller}
}

// MsgResetBreakers clears tripped breakers after cooldown. Callable by
// anyone.
type MsgResetBreakers struct {
	Caller string `json:"caller"`
}

func (msg *MsgResetBreakers) Reset()         { *msg = MsgResetBreakers{} }
func (msg *MsgResetBreakers) String() string { return msg.Caller }
func (msg *MsgResetBreakers) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgResetBreakers
func (msg *MsgResetBreakers) XXX_MessageName() string {
	return "gashedge.breaker.v1.MsgResetBreakers"
}

func (msg *MsgResetBreakers) ValidateBasic() error {
	if msg.Caller == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgResetBreakers) GetSigners() []sdk.AccAddress {
	caller, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{caller}
}

// MsgActivateEmergency enters emergency mode. Authority only.
type MsgActivateEmergency struct {
	Authority           string `json:"authority"`
	Reason              string `json:"reason"`
	EstimatedDurationMs int64  `json:"estimated_duration_ms"`
}

func (msg *MsgActivateEmergency) Reset()         { *msg = MsgActivateEmergency{} }
func (msg *MsgActivateEmergency) String() string { return msg.Reason }
func (msg *MsgActivateEmergency) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgActivateEmergency
func (msg *MsgActivateEmergency) XXX_MessageName() string {
	return "gashedge.breaker.v1.MsgActivateEmergency"
}

func (msg *MsgActivateEmergency) ValidateBasic() error {
	if msg.Authority == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgActivateEmergency) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// MsgPauseSystem raises the hard pause switch. Authority only.
type MsgPauseSystem struct {
	Authority string `json:"authority"`
}

func (msg *MsgPauseSystem) Reset()         { *msg = MsgPauseSystem{} }
func (msg *MsgPauseSystem) String() string { return msg.Authority }
func (msg *MsgPauseSystem) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgPauseSystem
func (msg *MsgPauseSystem) XXX_MessageName() string {
	return "gashedge.breaker.v1.MsgPauseSystem"
}

func (msg *MsgPauseSystem) ValidateBasic() error {
	if msg.Authority == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgPauseSystem) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// MsgResumeSystem lowers the pause switch and leaves emergency mode.
// Authority only.
type MsgResumeSystem struct {
	Authority string `json:"authority"`
}

func (msg *MsgResumeSystem) Reset()         { *msg = MsgResumeSystem{} }
func (msg *MsgResumeSystem) String() string { return msg.Authority }
func (msg *MsgResumeSystem) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgResumeSystem
func (msg *MsgResumeSystem) XXX_MessageName() string {
	return "gashedge.breaker.v1.MsgResumeSystem"
}

func (msg *MsgResumeSystem) ValidateBasic() error {
	if msg.Authority == "" {
		return ErrUnauthorized
	}
	return nil
}

func (msg *MsgResumeSystem) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// MsgRecordStressTest appends a stress scenario result. Authority only.
type MsgRecordStressTest struct {
	Authority      string `json:"authority"`
	Scenario       string `json:"scenario"`
	ProjectedLoss  string `json:"projected_loss"`
	SystemSurvival bool   `json:"system_survival"`
}

func (msg *MsgRecordStressTest) Reset()         { *msg = MsgRecordStressTest{} }
func (msg *MsgRecordStressTest) String() string { return msg.Scenario }
func (msg *MsgRecordStressTest) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgRecordStressTest
func (msg *MsgRecordStressTest) XXX_MessageName() string {
	return "gashedge.breaker.v1.MsgRecordStressTest"
}

func (msg *MsgRecordStressTest) ValidateBasic() error {
	if msg.Authority == "" {
		return ErrUnauthorized
	}
	if msg.Scenario == "" {
		return ErrInvalidStressScenario
	}
	return nil
}

func (msg *MsgRecordStressTest) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// MsgCheckBreakersResponse is the response for MsgCheckBreakers
type MsgCheckBreakersResponse struct {
	Tripped []string `json:"tripped"`
}

func (msg *MsgCheckBreakersResponse) Reset()         { *msg = MsgCheckBreakersResponse{} }
func (msg *MsgCheckBreakersResponse) String() string { return "" }
func (msg *MsgCheckBreakersResponse) ProtoMessage()  {}

// MsgResetBreakersResponse is the response for MsgResetBreakers
type MsgResetBreakersResponse struct{}

func (msg *MsgResetBreakersResponse) Reset()         { *msg = MsgResetBreakersResponse{} }
func (msg *MsgResetBreakersResponse) String() string { return "" }
func (msg *MsgResetBreakersResponse) ProtoMessage()  {}

// MsgActivateEmergencyResponse is the response for MsgActivateEmergency
type MsgActivateEmergencyResponse struct{}

func (msg *MsgActivateEmergencyResponse) Reset()         { *msg = MsgActivateEmergencyResponse{} }
func (msg *MsgActivateEmergencyResponse) String() string { return "" }
func (msg *MsgActivateEmergencyResponse) ProtoMessage()  {}

// MsgPauseSystemResponse is the response for MsgPauseSystem
type MsgPauseSystemResponse struct{}

func (msg *MsgPauseSystemResponse) Reset()         { *msg = MsgPauseSystemResponse{} }
func (msg *MsgPauseSystemResponse) String() string { return "" }
func (msg *MsgPauseSystemResponse) ProtoMessage()  {}

// MsgResumeSystemResponse is the response for MsgResumeSystem
type MsgResumeSystemResponse struct{}

func (msg *MsgResumeSystemResponse) Reset()         { *msg = MsgResumeSystemResponse{} }
func (msg *MsgResumeSystemResponse) String() string { return "" }
func (msg *MsgResumeSystemResponse) ProtoMessage()  {}

// MsgRecordStressTestResponse is the response for MsgRecordStressTest
type MsgRecordStressTestResponse struct{}

func (msg *MsgRecordStressTestResponse) Reset()         { *msg = MsgRecordStressTestResponse{} }
func (msg *MsgRecordStressTestResponse) String() string { return "" }
func (msg *MsgRecordStressTestResponse) ProtoMessage()  {}
