package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// ReadingMeta is common to all readings and events
type ReadingMeta struct {
	ID       uuid.UUID
	DeviceID uuid.UUID
	Time     time.Time
}

// FleetReading holds the aggregated telemetry of the whole inverter fleet, in real units, as it was encoded into the
// register map on one tick.
type FleetReading struct {
	ReadingMeta
	PowerTotal   float64 // W
	CurrentTotal float64 // A
	CurrentPhA   float64
	CurrentPhB   float64
	CurrentPhC   float64
	VoltagePhA   float64 // V
	VoltagePhB   float64
	VoltagePhC   float64
	Frequency    float64 // Hz
	PowerFactor  float64
	EnergyTotal  float64 // Wh
	DcCurrent    float64 // A
	DcVoltage    float64 // V, the highest of all the inputs
	DcPower      float64 // W
	Temperature  float64 // °C, the hottest of all the inverters
	Status       uint16  // the SunSpec operating state
}

// LimitCommand records an active power limit command that was handed to an inverter.
type LimitCommand struct {
	ReadingMeta
	Serial      uint64
	TargetPower uint16 // W
	Cause       string // "update" for a new host limit, "revert" when the fail-safe restores full power
}
