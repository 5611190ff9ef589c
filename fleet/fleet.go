package fleet

import "errors"

// ChannelType groups the channels of an inverter's statistics.
type ChannelType int

const (
	ChannelTypeAC  ChannelType = iota // one per AC output
	ChannelTypeDC                     // one per PV input
	ChannelTypeInv                    // inverter level values, there is always exactly one
)

// Field identifies one measured value within a channel.
type Field int

const (
	FieldIAC Field = iota // AC current, A
	FieldUAC              // AC voltage, V
	FieldPAC              // AC power, W
	FieldPF               // power factor
	FieldF                // grid frequency, Hz
	FieldIDC              // DC current, A
	FieldUDC              // DC voltage, V
	FieldPDC              // DC power, W
	FieldYT               // lifetime yield, kWh
	FieldT                // module temperature, °C
)

// CommandStatus is the transport's view of the last limit command sent to an inverter.
type CommandStatus int

const (
	CommandStatusOk CommandStatus = iota
	CommandStatusPending
	CommandStatusFailure
)

// LimitType selects how an inverter interprets a power limit command.
type LimitType int

const (
	LimitTypeAbsoluteNonPersistent LimitType = iota // Watts, forgotten by the inverter on restart
	LimitTypeRelativeNonPersistent
	LimitTypeAbsolutePersistent
	LimitTypeRelativePersistent
)

// ErrQueueFull is returned by SendActivePowerLimit when the radio cannot accept another command.
var ErrQueueFull = errors.New("command queue full")

// Statistics is a snapshot of an inverter's most recent measurements.
type Statistics interface {
	ChannelTypes() []ChannelType
	Channels(channelType ChannelType) []int
	Value(channelType ChannelType, channel int, field Field) float64
}

// Inverter is one micro-inverter reachable over the radio.
type Inverter interface {
	Serial() uint64
	Statistics() Statistics
	IsQueueEmpty() bool
	LastLimitCommandStatus() CommandStatus
	// SendActivePowerLimit queues a power limit command. It does not wait for the inverter to acknowledge it.
	SendActivePowerLimit(limit float64, limitType LimitType) error
}

// Fleet gives access to all of the inverters and to their aggregate reachability.
type Fleet interface {
	Inverters() []Inverter
	InverterBySerial(serial uint64) Inverter
	AllEnabledProducing() bool
	AtLeastOneReachable() bool
}
