package config

import (
	"fmt"
	"os"
	"time"

	timeutils "github.com/cepro/sunspecgateway/time_utils"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	MaxInverters = 10 // the maximum number of inverters that can be configured, this also sizes the power limit slots
	MaxChannels  = 6  // the maximum number of AC channels on a single inverter
	MaxPhases    = 3
)

// ChannelConfig assigns one AC channel of an inverter to a grid phase (0=A, 1=B, 2=C).
type ChannelConfig struct {
	Phase uint8 `yaml:"phase"`
}

// InverterConfig holds the SunSpec specific configuration of one inverter.
type InverterConfig struct {
	Serial    uint64          `yaml:"serial"`
	Enabled   bool            `yaml:"enabled"`
	MaxPower  uint16          `yaml:"maxPower"` // declared maximum AC output in Watts
	ChannelAC []ChannelConfig `yaml:"channelAc"`
}

// SunSpec holds the configuration that drives the register map and the power limit controller.
type SunSpec struct {
	Enabled       bool             `yaml:"enabled"`
	RemoteControl bool             `yaml:"remoteControl"` // when false, host writes to the control block have no effect
	Manufacturer  string           `yaml:"manufacturer"`
	Model         string           `yaml:"model"`
	PowerDivider  uint16           `yaml:"powerDivider"` // requested fleet power is rounded down to a multiple of this value
	Inverters     []InverterConfig `yaml:"inverters"`
}

// InverterBySerial returns the configuration for the given serial, or nil if it isn't configured.
func (s *SunSpec) InverterBySerial(serial uint64) *InverterConfig {
	if serial == 0 {
		return nil
	}
	for i := range s.Inverters {
		if s.Inverters[i].Serial == serial {
			return &s.Inverters[i]
		}
	}
	return nil
}

// TotalMaxPower returns the summed max power of all enabled inverters. It is zero when remote control is disabled.
func (s *SunSpec) TotalMaxPower() uint16 {
	if !s.RemoteControl {
		return 0
	}

	var maxPower uint16
	for _, inv := range s.Inverters {
		if inv.Enabled && inv.Serial != 0 {
			maxPower += inv.MaxPower
		}
	}
	return maxPower
}

// PhaseCount returns the number of distinct phases used by the AC channels of the enabled inverters.
func (s *SunSpec) PhaseCount() uint16 {
	var phases [MaxPhases]bool
	for _, inv := range s.Inverters {
		if !inv.Enabled || inv.Serial == 0 {
			continue
		}
		for _, channel := range inv.ChannelAC {
			if int(channel.Phase) < MaxPhases {
				phases[channel.Phase] = true
			}
		}
	}

	var count uint16
	for _, used := range phases {
		if used {
			count++
		}
	}
	return count
}

type DeviceConfig struct {
	ID      uuid.UUID `yaml:"id"`
	Serial  string    `yaml:"serial"` // the serial written into the common block
	Version string    `yaml:"version"`
}

type ServerConfig struct {
	URL         string `yaml:"url"` // e.g. "tcp://0.0.0.0:502"
	TimeoutSecs int    `yaml:"timeoutSecs"`
	MaxClients  uint   `yaml:"maxClients"`
}

type SupabaseConfig struct {
	Url string `yaml:"url"`
	// key is specified via env var
	Schema string `yaml:"schema"`
}

type DataPlatformConfig struct {
	UploadIntervalSecs int            `yaml:"uploadIntervalSecs"`
	BufferPath         string         `yaml:"bufferPath"` // location of the SQLite file that buffers telemetry before upload
	Supabase           SupabaseConfig `yaml:"supabase"`
}

type SimulatedFleetConfig struct {
	IrradianceFactor float64 `yaml:"irradianceFactor"` // fraction of max power that the simulated inverters produce
}

type Config struct {
	LogLevel            string                    `yaml:"logLevel"`
	TickIntervalMs      int                       `yaml:"tickIntervalMs"`
	ReadingIntervalSecs int                       `yaml:"readingIntervalSecs"` // how often fleet readings are sent to the data platform
	Device              DeviceConfig              `yaml:"device"`
	Server              ServerConfig              `yaml:"server"`
	SunSpec             SunSpec                   `yaml:"sunspec"`
	Daylight            timeutils.ClockTimePeriod `yaml:"daylight"`
	DataPlatform        *DataPlatformConfig       `yaml:"dataPlatform"`
	SimulatedFleet      SimulatedFleetConfig      `yaml:"simulatedFleet"`
}

// Read loads, defaults and validates the YAML configuration at `path`.
func Read(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	return Parse(content)
}

// Parse decodes, defaults and validates the given YAML configuration.
func Parse(content []byte) (Config, error) {
	var config Config
	err := yaml.Unmarshal(content, &config)
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	config.applyDefaults()

	err = config.validate()
	if err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.TickIntervalMs == 0 {
		c.TickIntervalMs = 100
	}
	if c.ReadingIntervalSecs == 0 {
		c.ReadingIntervalSecs = 5
	}
	if c.Server.URL == "" {
		c.Server.URL = "tcp://0.0.0.0:502"
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = 30
	}
	if c.Server.MaxClients == 0 {
		c.Server.MaxClients = 5
	}
	if c.SunSpec.PowerDivider == 0 {
		c.SunSpec.PowerDivider = 1
	}
	if c.Daylight.Start.Location == nil {
		// no daylight window configured, treat the whole day as daylight
		c.Daylight = timeutils.ClockTimePeriod{
			Start: timeutils.ClockTime{Location: time.UTC},
			End:   timeutils.ClockTime{Hour: 23, Minute: 59, Second: 59, Location: time.UTC},
		}
	}
	if c.DataPlatform != nil {
		if c.DataPlatform.UploadIntervalSecs == 0 {
			c.DataPlatform.UploadIntervalSecs = 30
		}
		if c.DataPlatform.BufferPath == "" {
			c.DataPlatform.BufferPath = "telemetry.sqlite"
		}
	}
	if c.SimulatedFleet.IrradianceFactor == 0 {
		c.SimulatedFleet.IrradianceFactor = 0.8
	}
}

func (c *Config) validate() error {
	if len(c.SunSpec.Inverters) > MaxInverters {
		return fmt.Errorf("%d inverters configured, at most %d are supported", len(c.SunSpec.Inverters), MaxInverters)
	}

	seen := make(map[uint64]bool, len(c.SunSpec.Inverters))
	for i, inv := range c.SunSpec.Inverters {
		if inv.Serial != 0 && seen[inv.Serial] {
			return fmt.Errorf("inverter %d: duplicate serial %d", i, inv.Serial)
		}
		seen[inv.Serial] = true

		if len(inv.ChannelAC) == 0 || len(inv.ChannelAC) > MaxChannels {
			return fmt.Errorf("inverter %d: %d AC channels configured, expected 1 to %d", i, len(inv.ChannelAC), MaxChannels)
		}
		for ch, channel := range inv.ChannelAC {
			if int(channel.Phase) >= MaxPhases {
				return fmt.Errorf("inverter %d channel %d: invalid phase %d", i, ch, channel.Phase)
			}
		}
	}

	if c.DataPlatform != nil && c.DataPlatform.Supabase.Url == "" {
		return fmt.Errorf("data platform is configured without a supabase url")
	}

	return nil
}
