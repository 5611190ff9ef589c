package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/cepro/sunspecgateway/fleet"
	"github.com/cepro/sunspecgateway/modbus"
	"github.com/cepro/sunspecgateway/powerlimit"
	"github.com/cepro/sunspecgateway/sunspec"
	"github.com/cepro/sunspecgateway/telemetry"
	"github.com/google/uuid"
)

// Daylight reports whether the sun is up, the inverters are expected to be asleep otherwise.
type Daylight interface {
	IsDaylight(t time.Time) bool
}

// DaylightFunc adapts an ordinary function, such as timeutils.ClockTimePeriod.Contains, to the Daylight interface.
type DaylightFunc func(t time.Time) bool

func (f DaylightFunc) IsDaylight(t time.Time) bool {
	return f(t)
}

type Config struct {
	DeviceID        uuid.UUID
	TickInterval    time.Duration // how often the fleet is aggregated and the limits are drained
	ReadingInterval time.Duration // how often a FleetReading is emitted, at most

	Map        *sunspec.Map
	Controller *powerlimit.Controller
	Source     powerlimit.ConfigSource
	Fleet      fleet.Fleet
	Daylight   Daylight

	Requests <-chan *modbus.Request // register requests from the Modbus server
}

type identity struct {
	manufacturer string
	model        string
}

// Gateway owns the SunSpec register map and everything that reads or writes it.
//
// All register requests, host writes and the periodic re-encoding of the map happen on the goroutine that calls Run, so
// none of the state it owns needs locking. Fleet readings are emitted onto the `Readings` channel, a reading is dropped
// if nobody is ready to receive it.
type Gateway struct {
	Readings chan telemetry.FleetReading

	config     Config
	identities chan identity

	lastReading time.Time
	logger      *slog.Logger
}

func New(config Config) *Gateway {
	return &Gateway{
		Readings:   make(chan telemetry.FleetReading, 25),
		config:     config,
		identities: make(chan identity, 1),
		logger:     slog.Default().With("component", "gateway"),
	}
}

// Run loops until the context is cancelled, answering register requests as soon as they arrive and running the tick
// every `TickInterval`.
func (g *Gateway) Run(ctx context.Context) {
	ticker := time.NewTicker(g.config.TickInterval)
	defer ticker.Stop()

	requests := g.config.Requests

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				requests = nil
				continue
			}
			g.handleRequest(req)
		case id := <-g.identities:
			g.config.Map.SetManufacturerModel(id.manufacturer, id.model)
			g.logger.Info("Updated manufacturer and model", "manufacturer", id.manufacturer, "model", id.model)
		case t := <-ticker.C:
			g.Tick(t)
		}
	}
}

func (g *Gateway) handleRequest(req *modbus.Request) {
	resp := modbus.Execute(g.config.Map.Table(), req)
	if resp.Err != nil {
		g.logger.Debug("Register request failed", "client", req.ClientAddr, "address", req.Address, "quantity", req.Quantity, "write", req.IsWrite, "error", resp.Err)
	}
	req.Reply(resp)
}

// SetManufacturerModel schedules new manufacturer and model strings to be encoded on the gateway's goroutine. It is safe
// to call from any goroutine. If an earlier update has not yet been applied then it is replaced.
func (g *Gateway) SetManufacturerModel(manufacturer, model string) {
	id := identity{manufacturer: manufacturer, model: model}
	for {
		select {
		case g.identities <- id:
			return
		default:
		}
		// discard the stale update that is in the way
		select {
		case <-g.identities:
		default:
		}
	}
}

// Tick classifies the operating state, drains the pending power limits and re-encodes the fleet telemetry. When the
// fleet is not producing only the status is updated and the AC totals are zeroed.
func (g *Gateway) Tick(t time.Time) {
	sunspecConf := g.config.Source.Get()
	allProducing := g.config.Fleet.AllEnabledProducing()

	status := sunspec.ClassifyStatus(
		g.config.Daylight.IsDaylight(t),
		allProducing,
		g.config.Fleet.AtLeastOneReachable(),
		g.config.Map.Throttled(),
	)
	g.config.Map.SetStatus(status)

	if !allProducing {
		g.config.Map.ZeroAC()
		return
	}

	if sunspecConf.RemoteControl {
		g.config.Controller.DrainPending()
	}

	acc := telemetry.Aggregate(&sunspecConf, g.config.Fleet.Inverters())
	g.config.Map.Encode(&acc, sunspecConf.PhaseCount(), sunspecConf.TotalMaxPower())

	if t.Sub(g.lastReading) >= g.config.ReadingInterval {
		g.lastReading = t
		g.emit(acc.Reading(telemetry.ReadingMeta{
			ID:       uuid.New(),
			DeviceID: g.config.DeviceID,
			Time:     t,
		}, status))
	}
}

func (g *Gateway) emit(reading telemetry.FleetReading) {
	select {
	case g.Readings <- reading:
	default:
		g.logger.Debug("Dropped fleet reading")
	}
}
