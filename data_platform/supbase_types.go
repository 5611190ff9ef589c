package dataplatform

import (
	"strconv"
	"time"

	"github.com/cepro/sunspecgateway/repository"
	"github.com/google/uuid"
)

// supabaseFleetReading holds the json encoding schema for a fleet reading in supabase.
type supabaseFleetReading struct {
	ID           uuid.UUID `json:"id"`
	Time         time.Time `json:"time"`
	DeviceID     uuid.UUID `json:"device_id"`
	PowerTotal   float64   `json:"power_total"`
	CurrentTotal float64   `json:"current_total"`
	CurrentPhA   float64   `json:"current_ph_a"`
	CurrentPhB   float64   `json:"current_ph_b"`
	CurrentPhC   float64   `json:"current_ph_c"`
	VoltagePhA   float64   `json:"voltage_ph_a"`
	VoltagePhB   float64   `json:"voltage_ph_b"`
	VoltagePhC   float64   `json:"voltage_ph_c"`
	Frequency    float64   `json:"frequency"`
	PowerFactor  float64   `json:"power_factor"`
	EnergyTotal  float64   `json:"energy_total"`
	DcCurrent    float64   `json:"dc_current"`
	DcVoltage    float64   `json:"dc_voltage"`
	DcPower      float64   `json:"dc_power"`
	Temperature  float64   `json:"temperature"`
	Status       uint16    `json:"status"`
}

// supabaseLimitCommand holds the json encoding schema for a power limit command in supabase.
type supabaseLimitCommand struct {
	ID          uuid.UUID `json:"id"`
	Time        time.Time `json:"time"`
	DeviceID    uuid.UUID `json:"device_id"`
	Serial      string    `json:"serial"` // inverter serials exceed the javascript safe integer range
	TargetPower uint16    `json:"target_power"`
	Cause       string    `json:"cause"`
}

func convertFleetReadings(readings []repository.StoredFleetReading) []supabaseFleetReading {
	var supabaseReadings []supabaseFleetReading
	for _, stored := range readings {
		r := stored.FleetReading
		supabaseReadings = append(supabaseReadings, supabaseFleetReading{
			ID:           r.ID,
			Time:         r.Time,
			DeviceID:     r.DeviceID,
			PowerTotal:   r.PowerTotal,
			CurrentTotal: r.CurrentTotal,
			CurrentPhA:   r.CurrentPhA,
			CurrentPhB:   r.CurrentPhB,
			CurrentPhC:   r.CurrentPhC,
			VoltagePhA:   r.VoltagePhA,
			VoltagePhB:   r.VoltagePhB,
			VoltagePhC:   r.VoltagePhC,
			Frequency:    r.Frequency,
			PowerFactor:  r.PowerFactor,
			EnergyTotal:  r.EnergyTotal,
			DcCurrent:    r.DcCurrent,
			DcVoltage:    r.DcVoltage,
			DcPower:      r.DcPower,
			Temperature:  r.Temperature,
			Status:       r.Status,
		})
	}
	return supabaseReadings
}

func convertLimitCommands(commands []repository.StoredLimitCommand) []supabaseLimitCommand {
	var supabaseCommands []supabaseLimitCommand
	for _, stored := range commands {
		c := stored.LimitCommand
		supabaseCommands = append(supabaseCommands, supabaseLimitCommand{
			ID:          c.ID,
			Time:        c.Time,
			DeviceID:    c.DeviceID,
			Serial:      strconv.FormatUint(c.Serial, 10),
			TargetPower: c.TargetPower,
			Cause:       c.Cause,
		})
	}
	return supabaseCommands
}
