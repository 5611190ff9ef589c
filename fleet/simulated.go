package fleet

import (
	"log/slog"
	"math"
	"time"

	"github.com/cepro/sunspecgateway/config"
)

const (
	simulatedCommandLatency = 500 * time.Millisecond // how long a simulated radio takes to deliver a command
	simulatedGridVoltage    = 230.0
	simulatedGridFrequency  = 50.0
)

// SimulatedInverter produces plausible telemetry for one configured inverter and obeys the power limits it is sent.
// It is driven entirely by the callers goroutine and is not safe for concurrent use.
type SimulatedInverter struct {
	serial     uint64
	maxPower   float64
	numAC      int
	irradiance float64

	limit        float64   // the active power limit in Watts
	pendingUntil time.Time // a command is "on the radio" until this time
	energy       float64   // lifetime yield, kWh
	lastUpdate   time.Time
	now          func() time.Time
}

func (s *SimulatedInverter) Serial() uint64 { return s.serial }

func (s *SimulatedInverter) IsQueueEmpty() bool {
	return !s.now().Before(s.pendingUntil)
}

func (s *SimulatedInverter) LastLimitCommandStatus() CommandStatus {
	if s.now().Before(s.pendingUntil) {
		return CommandStatusPending
	}
	return CommandStatusOk
}

func (s *SimulatedInverter) SendActivePowerLimit(limit float64, limitType LimitType) error {
	if !s.IsQueueEmpty() {
		return ErrQueueFull
	}
	if limitType != LimitTypeAbsoluteNonPersistent {
		slog.Warn("Simulated inverter only supports absolute limits", "serial", s.serial, "limit_type", limitType)
	}
	s.limit = math.Min(limit, s.maxPower)
	s.pendingUntil = s.now().Add(simulatedCommandLatency)
	return nil
}

// Statistics returns a fresh snapshot, accumulating the energy produced since the previous snapshot.
func (s *SimulatedInverter) Statistics() Statistics {
	t := s.now()
	power := math.Min(s.maxPower*s.irradiance, s.limit)

	if !s.lastUpdate.IsZero() {
		s.energy += power * t.Sub(s.lastUpdate).Hours() / 1000
	}
	s.lastUpdate = t

	stats := NewMockStatistics()
	acPower := power / float64(s.numAC)
	for c := 0; c < s.numAC; c++ {
		stats.Set(ChannelTypeAC, c, FieldPAC, acPower).
			Set(ChannelTypeAC, c, FieldUAC, simulatedGridVoltage).
			Set(ChannelTypeAC, c, FieldIAC, acPower/simulatedGridVoltage).
			Set(ChannelTypeAC, c, FieldPF, 1.0).
			Set(ChannelTypeAC, c, FieldF, simulatedGridFrequency)
	}

	// assume two PV modules on a 96% efficient inverter
	dcPower := power / 0.96 / 2
	for c := 0; c < 2; c++ {
		stats.Set(ChannelTypeDC, c, FieldPDC, dcPower).
			Set(ChannelTypeDC, c, FieldUDC, 34.0).
			Set(ChannelTypeDC, c, FieldIDC, dcPower/34.0)
	}

	temperature := 25.0
	if s.maxPower > 0 {
		temperature += 20.0 * power / s.maxPower
	}
	stats.Set(ChannelTypeInv, 0, FieldYT, s.energy).
		Set(ChannelTypeInv, 0, FieldT, temperature)

	return stats
}

// Simulated is a Fleet of SimulatedInverters built from the configured inverters.
type Simulated struct {
	inverters []*SimulatedInverter
}

func NewSimulated(sunspec config.SunSpec, irradiance float64) *Simulated {
	sim := &Simulated{}
	for _, conf := range sunspec.Inverters {
		if conf.Serial == 0 {
			continue
		}
		sim.inverters = append(sim.inverters, &SimulatedInverter{
			serial:     conf.Serial,
			maxPower:   float64(conf.MaxPower),
			numAC:      max(len(conf.ChannelAC), 1),
			irradiance: irradiance,
			limit:      float64(conf.MaxPower),
			now:        time.Now,
		})
	}
	return sim
}

func (f *Simulated) Inverters() []Inverter {
	invs := make([]Inverter, 0, len(f.inverters))
	for _, inv := range f.inverters {
		invs = append(invs, inv)
	}
	return invs
}

func (f *Simulated) InverterBySerial(serial uint64) Inverter {
	for _, inv := range f.inverters {
		if inv.serial == serial {
			return inv
		}
	}
	return nil
}

func (f *Simulated) AllEnabledProducing() bool { return len(f.inverters) > 0 }
func (f *Simulated) AtLeastOneReachable() bool { return len(f.inverters) > 0 }
