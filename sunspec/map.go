package sunspec

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/cepro/sunspecgateway/config"
	"github.com/cepro/sunspecgateway/registers"
	"github.com/cepro/sunspecgateway/telemetry"
)

// Map lays out the SunSpec blocks inside a register table and encodes fleet telemetry into them.
type Map struct {
	table  *registers.Table
	logger *slog.Logger
}

func New(table *registers.Table) *Map {
	return &Map{
		table:  table,
		logger: slog.Default().With("component", "sunspec"),
	}
}

// Table returns the underlying register table.
func (m *Map) Table() *registers.Table {
	return m.table
}

// Init defines every block of the map and writes the initial values: strings from the configuration, scale factors,
// the "starting" status and the defaults of the immediate controls.
func (m *Map) Init(sunspec config.SunSpec, device config.DeviceConfig) error {
	if !m.table.DefineField(AddrHeader, 0, HeaderSize/2) {
		return fmt.Errorf("define header at %d: address already in use", AddrHeader)
	}
	m.table.WriteString(AddrHeader, "SunS", HeaderSize)

	phaseCount := sunspec.PhaseCount()
	blocks := []block{
		{name: "common", start: AddrCommonID, id: CommonBlockID, length: CommonBlockLength},
		{name: "inverter", start: AddrPhaseID, id: PhaseBlockBaseID + phaseCount, length: PhaseBlockLength},
		{name: "nameplate", start: AddrNameplateID, id: NameplateBlockID, length: NameplateBlockLength},
		{name: "controls", start: AddrControlsID, id: ControlsBlockID, length: ControlsBlockLength},
		{name: "end", start: AddrEndID, id: EndBlockID, length: EndBlockLength},
	}
	for _, b := range blocks {
		err := m.defineBlock(b)
		if err != nil {
			return err
		}
	}

	// Common block
	m.SetManufacturerModel(sunspec.Manufacturer, sunspec.Model)
	m.writeString(AddrOptions, "", OptionsSize)
	m.writeString(AddrVersion, device.Version, VersionSize)
	m.writeString(AddrSerial, device.Serial, SerialSize)
	m.writeU16(AddrDeviceAddress, DeviceAddress)

	// Inverter block
	m.writeS16(AddrCurrentSF, CurrentSF)
	m.writeS16(AddrVoltageSF, VoltageSF)
	m.writeS16(AddrPowerSF, PowerSF)
	m.writeS16(AddrFrequencySF, FrequencySF)
	m.writeS16(AddrApparentPowerSF, ApparentPowerSF)
	m.writeS16(AddrReactivePowerSF, ReactivePowerSF)
	m.writeS16(AddrPowerFactorSF, PowerFactorSF)
	m.writeS16(AddrEnergySF, EnergySF)
	m.writeS16(AddrDcCurrentSF, DcCurrentSF)
	m.writeS16(AddrDcVoltageSF, DcVoltageSF)
	m.writeS16(AddrDcPowerSF, DcPowerSF)
	m.writeS16(AddrTemperatureSF, TemperatureSF)
	m.SetStatus(StatusStarting)

	// Nameplate block
	m.writeU16(AddrDERType, DERTypePV)
	m.writeU16(AddrWRtg, sunspec.TotalMaxPower())
	m.writeU16(AddrAhrRtg, 0)

	// Immediate controls
	m.writeU16(AddrConn, 1)
	m.writeU16(AddrWMaxLimPct, 100)
	m.writeU16(AddrWMaxLimPctRvrtTms, 0)
	m.writeU16(AddrWMaxLimEna, 0)

	return nil
}

// defineBlock reserves the ID and length words of a block, followed by its payload.
func (m *Map) defineBlock(b block) error {
	if !m.table.DefineField(b.start, b.id, 1) || !m.table.DefineField(b.start+1, b.length, 1) {
		return fmt.Errorf("define %s block header at %d: address already in use", b.name, b.start)
	}
	if b.length == 0 {
		return nil
	}
	if !m.table.DefineField(b.payloadStart(), 0, b.length) {
		return fmt.Errorf("define %s block payload at %d: address already in use", b.name, b.payloadStart())
	}
	return nil
}

// SetManufacturerModel re-encodes the manufacturer and model strings of the common block.
func (m *Map) SetManufacturerModel(manufacturer, model string) {
	m.writeString(AddrManufacturer, manufacturer, ManufacturerSize)
	m.writeString(AddrModel, model, ModelSize)
}

// SetStatus writes the operating state.
func (m *Map) SetStatus(status uint16) {
	m.writeU16(AddrOperatingState, status)
}

// Status returns the operating state that was last written.
func (m *Map) Status() uint16 {
	val, _ := m.table.Read(AddrOperatingState)
	return val
}

// Throttled returns true if the host has enabled a power limit below 100%.
func (m *Map) Throttled() bool {
	enable, _ := m.table.Read(AddrWMaxLimEna)
	pct, _ := m.table.Read(AddrWMaxLimPct)
	return enable == 1 && pct < 100
}

// ZeroAC forces the AC total current and AC power to zero, leaving every other field at its last value.
func (m *Map) ZeroAC() {
	m.writeU16(AddrCurrentTotal, 0)
	m.writeS16(AddrPower, 0)
}

// Encode writes the accumulated fleet telemetry into the inverter and nameplate blocks. The accumulator values are
// already in the fixed point units given by the declared scale factors. Values beyond the range of their register are
// saturated at its maximum.
func (m *Map) Encode(acc *telemetry.Accumulator, phaseCount uint16, ratedPower uint16) {
	m.writeU16(AddrPhaseID, PhaseBlockBaseID+phaseCount)

	m.writeU16(AddrCurrentTotal, saturateU16(acc.TotalCurrent()))
	m.writeU16(AddrCurrentPhA, saturateU16(acc.Phases[0].Current))
	m.writeU16(AddrCurrentPhB, saturateU16(acc.Phases[1].Current))
	m.writeU16(AddrCurrentPhC, saturateU16(acc.Phases[2].Current))

	// there is no line-to-line measurement, the phase voltages are reported for both
	m.writeU16(AddrVoltagePhAB, acc.Phases[0].Voltage)
	m.writeU16(AddrVoltagePhBC, acc.Phases[1].Voltage)
	m.writeU16(AddrVoltagePhCA, acc.Phases[2].Voltage)
	m.writeU16(AddrVoltagePhAN, acc.Phases[0].Voltage)
	m.writeU16(AddrVoltagePhBN, acc.Phases[1].Voltage)
	m.writeU16(AddrVoltagePhCN, acc.Phases[2].Voltage)

	m.writeS16(AddrPower, saturateS16(acc.TotalPower()))
	m.writeU16(AddrFrequency, saturateU16(acc.Frequency()))
	m.writeS16(AddrPowerFactor, saturateS16(acc.PowerFactor()))
	if !m.table.WriteS32(AddrEnergy, saturateS32(acc.Energy)) {
		m.logger.Error("Failed to write register", "address", AddrEnergy)
	}

	m.writeU16(AddrDcCurrent, saturateU16(acc.DcCurrent))
	m.writeU16(AddrDcVoltage, acc.DcVoltage)
	m.writeS16(AddrDcPower, saturateS16(acc.DcPower))

	for _, addr := range []uint16{AddrTempCabinet, AddrTempHeatSink, AddrTempTransformer, AddrTempOther} {
		m.writeS16(addr, acc.Temperature)
	}

	m.writeU16(AddrWRtg, ratedPower)
}

func saturateU16(v uint32) uint16 {
	return uint16(min(v, math.MaxUint16))
}

func saturateS16(v uint32) int16 {
	return int16(min(v, math.MaxInt16))
}

func saturateS32(v int64) int32 {
	return int32(max(min(v, math.MaxInt32), math.MinInt32))
}

func (m *Map) writeU16(address uint16, value uint16) {
	if !m.table.WriteU16(address, value) {
		m.logger.Error("Failed to write register", "address", address)
	}
}

func (m *Map) writeS16(address uint16, value int16) {
	if !m.table.WriteS16(address, value) {
		m.logger.Error("Failed to write register", "address", address)
	}
}

func (m *Map) writeString(address uint16, text string, byteSize uint16) {
	if !m.table.WriteString(address, text, byteSize) {
		m.logger.Error("Failed to write register", "address", address)
	}
}
