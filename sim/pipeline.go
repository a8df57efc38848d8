package sim

// Unit roles in the pipeline.
const (
	RoleZonal   = "zonal"
	RoleAirbag  = "airbag"
	RoleCockpit = "cockpit"
)

// Zonal unit signals.
const (
	ZonalInAirbagIsDisabled    = "In_PassengerAirbagIsDisabled_bo"
	ZonalInWarningState        = "In_PassengerAirbagWarningState_se"
	ZonalInUserConfirm         = "In_UserConfirmAirbagState_se"
	ZonalOutDeactivationSwitch = "Out_PassengerAirbagDeactivationSwitch_bo"
	ZonalOutWarningState       = "Out_PassengerAirbagWarningState_se"
	ZonalOutUserConfirm        = "Out_UserConfirmAirbagState_se"
)

// Airbag unit signals. All three are integers.
const (
	AirbagInSwitch       = "PADS"
	AirbagOutDisableLamp = "PADL"
	AirbagOutEnableLamp  = "PAEL"
)

// Cockpit unit signals.
const (
	CockpitInUserConfirm   = "In_UserConfirmAirbagState"
	CockpitInDisableLamp   = "In_PassengerAirbagDisableLamp_bo"
	CockpitInEnableLamp    = "In_PassengerAirbagEnableLamp_bo"
	CockpitInWarningState  = "In_PassengerAirbagWarningState_se"
	CockpitOutUserConfirm  = "Out_UserConfirmAirbagState_se"
	CockpitOutWarningState = "Out_PassengerAirbagWarningState_se"
	CockpitOutDisableLamp  = "Out_PassengerAirbagDisableLamp_bo"
)

// Direction says which loop owns writes to a slot.
type Direction uint8

const (
	// FromBroker slots are written by the bridge and read by the orchestrator.
	FromBroker Direction = iota + 1
	// ToBroker slots are written by the orchestrator and read by the bridge.
	ToBroker
)

func (d Direction) String() string {
	switch d {
	case FromBroker:
		return "from-broker"
	case ToBroker:
		return "to-broker"
	default:
		return "unknown"
	}
}

// Slot identifies one boundary signal in the Buffer.
type Slot int

const (
	SlotAirbagIsDisabled Slot = iota
	SlotWarningStateIn
	SlotUserConfirmIn
	SlotUserConfirmOut
	SlotDisableLampOut
	SlotWarningStateOut

	numSlots
)

// SlotSpec is the static description of a boundary slot.
type SlotSpec struct {
	Name      string
	Path      string // broker signal path
	Kind      Kind
	Direction Direction
	Initial   Value
}

var slotSpecs = [numSlots]SlotSpec{
	SlotAirbagIsDisabled: {
		Name:      "passenger_airbag_is_disabled",
		Path:      "Vehicle.Cabin.Light.Spotlight.Row1.PassengerSide.IsLightOn",
		Kind:      KindBool,
		Direction: FromBroker,
		Initial:   Bool(false),
	},
	SlotWarningStateIn: {
		Name:      "passenger_airbag_warning_state",
		Path:      "Vehicle.Cabin.Seat.Row1.PassengerSide.Position",
		Kind:      KindInt,
		Direction: FromBroker,
		Initial:   Int(0),
	},
	SlotUserConfirmIn: {
		Name:      "user_confirm_airbag_state",
		Path:      "Vehicle.Cabin.Seat.Row1.PassengerSide.Seating.Length",
		Kind:      KindInt,
		Direction: FromBroker,
		Initial:   Int(0),
	},
	SlotUserConfirmOut: {
		Name:      "user_confirm_airbag_state_echo",
		Path:      "Vehicle.Cabin.Seat.Row1.PassengerSide.Height",
		Kind:      KindInt,
		Direction: ToBroker,
		Initial:   Int(0),
	},
	SlotDisableLampOut: {
		Name:      "passenger_airbag_disable_lamp",
		Path:      "Vehicle.Cabin.Seat.Row1.PassengerSide.Airbag.IsDeployed",
		Kind:      KindBool,
		Direction: ToBroker,
		Initial:   Bool(true),
	},
	SlotWarningStateOut: {
		Name:      "passenger_airbag_warning_state_echo",
		Path:      "Vehicle.Cabin.Seat.Row1.PassengerSide.Massage",
		Kind:      KindInt,
		Direction: ToBroker,
		Initial:   Int(0),
	},
}

// Spec returns the static description of s. It panics on an out-of-range slot.
func (s Slot) Spec() SlotSpec { return slotSpecs[s] }

func (s Slot) String() string {
	if s < 0 || s >= numSlots {
		return "slot(invalid)"
	}
	return slotSpecs[s].Name
}

// Slots returns every boundary slot in declaration order.
func Slots() []Slot {
	out := make([]Slot, 0, numSlots)
	for s := Slot(0); s < numSlots; s++ {
		out = append(out, s)
	}
	return out
}

// SlotsFor returns the slots with the given direction in declaration order.
func SlotsFor(d Direction) []Slot {
	var out []Slot
	for s := Slot(0); s < numSlots; s++ {
		if slotSpecs[s].Direction == d {
			out = append(out, s)
		}
	}
	return out
}

// BrokerPaths returns every declared broker path, used for the bridge's
// batched read.
func BrokerPaths() []string {
	out := make([]string, 0, numSlots)
	for s := Slot(0); s < numSlots; s++ {
		out = append(out, slotSpecs[s].Path)
	}
	return out
}

// SlotByPath resolves a broker path back to its slot.
func SlotByPath(path string) (Slot, bool) {
	for s := Slot(0); s < numSlots; s++ {
		if slotSpecs[s].Path == path {
			return s, true
		}
	}
	return 0, false
}

// PipelineState holds one tick's working values. It is rebuilt from the
// Buffer every tick and dropped once the outputs are published.
type PipelineState struct {
	Tick int64
	Time float64

	// Zonal inputs
	AirbagIsDisabled Value
	WarningStateIn   Value
	Feedback         Value // Cockpit's user-confirm echo from the previous tick

	// Zonal outputs
	DeactivationSwitch Value
	ZonalWarningState  Value

	// Airbag outputs
	DisableLamp Value
	EnableLamp  Value

	// Cockpit inputs/outputs
	UserConfirmIn       Value
	CockpitDisableLamp  Value
	CockpitWarningState Value
	CockpitUserConfirm  Value

	// Zonal's echo of the feedback, published to the broker
	ZonalUserConfirm Value
}
