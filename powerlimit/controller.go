package powerlimit

import (
	"log/slog"
	"time"

	"github.com/cepro/sunspecgateway/config"
	"github.com/cepro/sunspecgateway/fleet"
	"github.com/cepro/sunspecgateway/registers"
	"github.com/cepro/sunspecgateway/sunspec"
	"github.com/cepro/sunspecgateway/telemetry"
	"github.com/google/uuid"
)

const (
	defaultTimeoutSecs = 120
	fullPowerPct       = 100

	CauseUpdate = "update"
	CauseRevert = "revert"
)

// ConfigSource provides the live SunSpec configuration.
type ConfigSource interface {
	Get() config.SunSpec
}

// Slot tracks the limit that should be applied to one inverter.
type Slot struct {
	Serial      uint64 // zero when the slot is free
	TargetPower uint16 // W
	Deadline    int64  // monotonic milliseconds
	Pending     bool   // the target has not yet been handed to the inverter
	Revert      bool   // the target is a fail-safe return to full power
}

// Summary describes the outcome of applying a power limit.
type Summary struct {
	Percentage uint16 // effective percentage after rounding to the power divider
	TotalPower uint16 // W, summed over the inverters that were given a share
	Inverters  int    // number of inverters that were given a share
}

// Controller turns the percentage, timeout and enable values written by a host into per-inverter power limits, tracks
// their delivery and returns the inverters to full power if the host stops refreshing the limit.
//
// The controller is not safe for concurrent use, HandleWrite and DrainPending must be called from the same goroutine.
type Controller struct {
	source ConfigSource
	fleet  fleet.Fleet
	clock  Clock
	logger *slog.Logger

	commands chan<- telemetry.LimitCommand
	deviceID uuid.UUID

	slots [config.MaxInverters]Slot

	lastPct     uint16
	lastTimeout uint16
	enable      bool
}

func New(source ConfigSource, inverters fleet.Fleet, clock Clock) *Controller {
	return &Controller{
		source:      source,
		fleet:       inverters,
		clock:       clock,
		logger:      slog.Default().With("component", "powerlimit"),
		lastPct:     fullPowerPct,
		lastTimeout: defaultTimeoutSecs,
	}
}

// EmitCommands configures the controller to report every accepted limit command on `commands`. Sends never block, a
// command that cannot be sent is dropped.
func (c *Controller) EmitCommands(commands chan<- telemetry.LimitCommand, deviceID uuid.UUID) {
	c.commands = commands
	c.deviceID = deviceID
}

// Attach registers the write hooks for the immediate control addresses.
func (c *Controller) Attach(table *registers.Table) {
	table.Hook(sunspec.AddrWMaxLimPct, c.HandleWrite)
	table.Hook(sunspec.AddrWMaxLimPctRvrtTms, c.HandleWrite)
	table.Hook(sunspec.AddrWMaxLimEna, c.HandleWrite)
}

// HandleWrite is the write hook for the immediate control addresses. It returns the value to store in the register.
func (c *Controller) HandleWrite(address uint16, value uint16) uint16 {
	if !c.source.Get().RemoteControl {
		return value
	}

	changed := false

	switch address {
	case sunspec.AddrWMaxLimPct:
		value = min(value, fullPowerPct)
		c.logger.Info("Host wrote limit percentage", "pct", value)
		changed = value != c.lastPct && c.enable
		c.lastPct = value

	case sunspec.AddrWMaxLimPctRvrtTms:
		c.logger.Info("Host wrote limit timeout", "timeout_secs", value)
		changed = value != c.lastTimeout && c.enable
		c.lastTimeout = value

	case sunspec.AddrWMaxLimEna:
		c.logger.Info("Host wrote limit enable", "enable", value)
		changed = (value == 1) != c.enable
		c.enable = value == 1

	default:
		return value
	}

	if changed {
		pct := uint16(fullPowerPct)
		if c.enable {
			pct = c.lastPct
		}
		c.ApplyPowerLimit(pct, c.lastTimeout)
	}

	return value
}

// ApplyPowerLimit spreads `percentage` of the fleet capacity over the enabled inverters in proportion to their max
// power. The requested power is rounded down to a multiple of the configured power divider first, so the effective
// percentage may be slightly lower than requested. The deadline of every touched slot is refreshed to `timeoutSecs`
// from now, or 120 seconds if it is zero. Returns false if there is no capacity to control.
func (c *Controller) ApplyPowerLimit(percentage uint16, timeoutSecs uint16) (Summary, bool) {
	sunspecConf := c.source.Get()

	capacity := uint32(sunspecConf.TotalMaxPower())
	if capacity == 0 {
		c.logger.Warn("No controllable capacity, ignoring power limit", "pct", percentage)
		return Summary{}, false
	}

	divider := uint32(max(sunspecConf.PowerDivider, 1))
	requested := capacity * uint32(percentage) / 100
	requested = (requested / divider) * divider
	effectivePct := requested * 100 / capacity

	if timeoutSecs == 0 {
		timeoutSecs = defaultTimeoutSecs
	}
	deadline := c.clock.NowMillis() + int64(timeoutSecs)*time.Second.Milliseconds()

	summary := Summary{Percentage: uint16(effectivePct)}
	for _, conf := range sunspecConf.Inverters {
		if !conf.Enabled || conf.Serial == 0 {
			continue
		}

		share := uint16(uint32(conf.MaxPower) * effectivePct / 100)

		slot := c.slotFor(conf.Serial)
		if slot == nil {
			c.logger.Error("No free limit slot, skipping inverter", "serial", conf.Serial)
			continue
		}

		summary.TotalPower += share
		summary.Inverters++

		if slot.TargetPower != share {
			c.logger.Info("New power level", "serial", conf.Serial, "watts", share, "pct", effectivePct)
			slot.TargetPower = share
			slot.Pending = true
		}
		// the host has spoken again, whatever is still pending is its update
		slot.Revert = false
		slot.Deadline = deadline
	}

	c.logger.Info("Applied power limit", "requested_pct", percentage, "effective_pct", summary.Percentage, "total_watts", summary.TotalPower)

	return summary, true
}

// slotFor returns the slot already tracking `serial`, or allocates a free one. A newly allocated slot is pending so that
// its first target is delivered even when it is 0 W. Returns nil if every slot is taken.
func (c *Controller) slotFor(serial uint64) *Slot {
	for i := range c.slots {
		if c.slots[i].Serial == serial {
			return &c.slots[i]
		}
	}

	for i := range c.slots {
		if c.slots[i].Serial == 0 {
			c.slots[i] = Slot{Serial: serial, Pending: true}
			return &c.slots[i]
		}
	}

	return nil
}

// DrainPending attempts to deliver every pending limit and expires slots whose deadline has passed. A slot that expires
// before its limit was delivered is re-armed with the inverter's full power instead of being freed.
func (c *Controller) DrainPending() {
	sunspecConf := c.source.Get()
	now := c.clock.NowMillis()

	for i := range c.slots {
		slot := &c.slots[i]
		if slot.Serial == 0 {
			continue
		}

		conf := sunspecConf.InverterBySerial(slot.Serial)
		if conf == nil {
			c.logger.Info("Releasing limit slot of unconfigured inverter", "serial", slot.Serial)
			*slot = Slot{}
			continue
		}

		if slot.Pending {
			slot.Pending = !c.deliver(slot)
		}

		if now-slot.Deadline > 0 {
			if !slot.Pending {
				*slot = Slot{}
			} else {
				if !slot.Revert {
					c.logger.Warn("Limit was not delivered before its deadline, reverting to full power", "serial", slot.Serial)
				}
				slot.TargetPower = conf.MaxPower
				slot.Revert = true
			}
		}
	}
}

// deliver hands the slot's target to its inverter and returns true if the command was accepted, or if there is no
// inverter to deliver to.
func (c *Controller) deliver(slot *Slot) bool {
	if slot.Serial == 0 {
		return true
	}

	inv := c.fleet.InverterBySerial(slot.Serial)
	if inv == nil {
		return true
	}

	if !inv.IsQueueEmpty() || inv.LastLimitCommandStatus() == fleet.CommandStatusPending {
		return false
	}

	cause := CauseUpdate
	if slot.Revert {
		cause = CauseRevert
	}

	logger := c.logger.With("serial", slot.Serial)
	logger.Info("Sending power limit", "watts", slot.TargetPower, "cause", cause)

	err := inv.SendActivePowerLimit(float64(slot.TargetPower), fleet.LimitTypeAbsoluteNonPersistent)
	if err != nil {
		logger.Warn("Failed to send power limit, will retry", "error", err)
		return false
	}

	c.emit(telemetry.LimitCommand{
		ReadingMeta: telemetry.ReadingMeta{
			ID:       uuid.New(),
			DeviceID: c.deviceID,
			Time:     time.Now(),
		},
		Serial:      slot.Serial,
		TargetPower: slot.TargetPower,
		Cause:       cause,
	})
	return true
}

func (c *Controller) emit(cmd telemetry.LimitCommand) {
	if c.commands == nil {
		return
	}
	select {
	case c.commands <- cmd:
	default:
		c.logger.Debug("Dropped limit command event", "serial", cmd.Serial)
	}
}

// Slots returns a copy of the slot table.
func (c *Controller) Slots() [config.MaxInverters]Slot {
	return c.slots
}
