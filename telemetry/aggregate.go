package telemetry

import (
	"github.com/cepro/sunspecgateway/config"
	"github.com/cepro/sunspecgateway/fleet"
)

// The fixed point multipliers applied to each measurement. They match the scale factors declared in the SunSpec map so
// that the accumulated values can be written straight into registers.
const (
	CurrentMultiplier     = 100  // A, SF -2
	VoltageMultiplier     = 10   // V, SF -1
	PowerMultiplier       = 10   // W, SF -1
	PowerFactorMultiplier = 100  // SF -2
	FrequencyMultiplier   = 10   // Hz, SF -1
	EnergyMultiplier      = 10   // Wh, SF -1
	TemperatureMultiplier = 10   // °C, SF -1
	kWhToWh               = 1000 // lifetime yield is reported by the inverters in kWh
)

// Phase accumulates the AC channel samples assigned to one grid phase.
type Phase struct {
	Current     uint32 // summed, A x100
	Voltage     uint16 // highest sample, V x10
	Power       uint32 // summed, W x10
	PowerFactor uint32 // summed, x100
	Frequency   uint32 // summed, Hz x10
	Count       uint32 // number of AC channel samples
}

// Accumulator is the per-tick reduction of the whole fleet's statistics.
type Accumulator struct {
	Phases      [config.MaxPhases]Phase
	DcCurrent   uint32 // summed, A x100
	DcVoltage   uint16 // highest input, V x10
	DcPower     uint32 // summed, W x10
	Energy      int64  // summed lifetime yield, Wh x10
	Temperature int16  // hottest inverter, °C x10, never below zero
}

// Aggregate folds the statistics of every inverter with an enabled configuration entry into an Accumulator.
// Inverters without a configuration entry, or with a disabled one, do not contribute. The result does not depend on the
// order of `inverters`.
func Aggregate(sunspec *config.SunSpec, inverters []fleet.Inverter) Accumulator {
	var acc Accumulator

	for _, inv := range inverters {
		if inv == nil {
			continue
		}

		conf := sunspec.InverterBySerial(inv.Serial())
		if conf == nil || !conf.Enabled {
			continue
		}

		acc.add(conf, inv.Statistics())
	}

	return acc
}

func (a *Accumulator) add(conf *config.InverterConfig, stats fleet.Statistics) {
	for _, channelType := range stats.ChannelTypes() {
		for _, c := range stats.Channels(channelType) {
			switch channelType {
			case fleet.ChannelTypeAC:
				if c < 0 || c >= len(conf.ChannelAC) || int(conf.ChannelAC[c].Phase) >= config.MaxPhases {
					continue // this channel has not been assigned to a phase
				}
				phase := &a.Phases[conf.ChannelAC[c].Phase]
				phase.Current += scale(stats.Value(channelType, c, fleet.FieldIAC), CurrentMultiplier)
				phase.Voltage = max(phase.Voltage, uint16(scale(stats.Value(channelType, c, fleet.FieldUAC), VoltageMultiplier)))
				phase.Power += scale(stats.Value(channelType, c, fleet.FieldPAC), PowerMultiplier)
				phase.PowerFactor += scale(stats.Value(channelType, c, fleet.FieldPF), PowerFactorMultiplier)
				phase.Frequency += scale(stats.Value(channelType, c, fleet.FieldF), FrequencyMultiplier)
				phase.Count++

			case fleet.ChannelTypeDC:
				a.DcCurrent += scale(stats.Value(channelType, c, fleet.FieldIDC), CurrentMultiplier)
				a.DcVoltage = max(a.DcVoltage, uint16(scale(stats.Value(channelType, c, fleet.FieldUDC), VoltageMultiplier)))
				a.DcPower += scale(stats.Value(channelType, c, fleet.FieldPDC), PowerMultiplier)

			case fleet.ChannelTypeInv:
				a.Energy += int64(scale(stats.Value(channelType, c, fleet.FieldYT), EnergyMultiplier*kWhToWh))
				a.Temperature = max(a.Temperature, int16(stats.Value(channelType, c, fleet.FieldT)*TemperatureMultiplier))
			}
		}
	}
}

// scale converts a measurement to its fixed point representation, truncating like the register encoding does.
// Negative measurements are clamped to zero.
func scale(val float64, multiplier float64) uint32 {
	if val <= 0 {
		return 0
	}
	return uint32(val * multiplier)
}

// TotalCurrent is the summed AC current of all phases, A x100.
func (a *Accumulator) TotalCurrent() uint32 {
	return a.Phases[0].Current + a.Phases[1].Current + a.Phases[2].Current
}

// TotalPower is the summed AC power of all phases, W x10.
func (a *Accumulator) TotalPower() uint32 {
	return a.Phases[0].Power + a.Phases[1].Power + a.Phases[2].Power
}

func (a *Accumulator) sampleCount() uint32 {
	return a.Phases[0].Count + a.Phases[1].Count + a.Phases[2].Count
}

// PowerFactor is the mean power factor over all AC samples, x100. It is zero when there are no samples.
func (a *Accumulator) PowerFactor() uint32 {
	count := a.sampleCount()
	if count == 0 {
		return 0
	}
	return (a.Phases[0].PowerFactor + a.Phases[1].PowerFactor + a.Phases[2].PowerFactor) / count
}

// Frequency is the mean grid frequency over all AC samples, Hz x10. It is zero when there are no samples.
func (a *Accumulator) Frequency() uint32 {
	count := a.sampleCount()
	if count == 0 {
		return 0
	}
	return (a.Phases[0].Frequency + a.Phases[1].Frequency + a.Phases[2].Frequency) / count
}

// Reading converts the accumulated fixed point values into a FleetReading in real units.
func (a *Accumulator) Reading(meta ReadingMeta, status uint16) FleetReading {
	return FleetReading{
		ReadingMeta:  meta,
		PowerTotal:   float64(a.TotalPower()) / PowerMultiplier,
		CurrentTotal: float64(a.TotalCurrent()) / CurrentMultiplier,
		CurrentPhA:   float64(a.Phases[0].Current) / CurrentMultiplier,
		CurrentPhB:   float64(a.Phases[1].Current) / CurrentMultiplier,
		CurrentPhC:   float64(a.Phases[2].Current) / CurrentMultiplier,
		VoltagePhA:   float64(a.Phases[0].Voltage) / VoltageMultiplier,
		VoltagePhB:   float64(a.Phases[1].Voltage) / VoltageMultiplier,
		VoltagePhC:   float64(a.Phases[2].Voltage) / VoltageMultiplier,
		Frequency:    float64(a.Frequency()) / FrequencyMultiplier,
		PowerFactor:  float64(a.PowerFactor()) / PowerFactorMultiplier,
		EnergyTotal:  float64(a.Energy) / EnergyMultiplier,
		DcCurrent:    float64(a.DcCurrent) / CurrentMultiplier,
		DcVoltage:    float64(a.DcVoltage) / VoltageMultiplier,
		DcPower:      float64(a.DcPower) / PowerMultiplier,
		Temperature:  float64(a.Temperature) / TemperatureMultiplier,
		Status:       status,
	}
}
