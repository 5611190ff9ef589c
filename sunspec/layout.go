package sunspec

// Register addresses of the SunSpec map. The layout is the externally visible protocol surface and must not move.
const (
	AddrHeader = 40000 // "SunS" identifier

	// Common block (model 1)
	AddrCommonID      = 40002
	AddrCommonLength  = 40003
	AddrManufacturer  = 40004
	AddrModel         = 40020
	AddrOptions       = 40036
	AddrVersion       = 40044
	AddrSerial        = 40052
	AddrDeviceAddress = 40068

	// Inverter block (models 101, 102 and 103 depending on the number of phases)
	AddrPhaseID         = 40069
	AddrPhaseLength     = 40070
	AddrCurrentTotal    = 40071
	AddrCurrentPhA      = 40072
	AddrCurrentPhB      = 40073
	AddrCurrentPhC      = 40074
	AddrCurrentSF       = 40075
	AddrVoltagePhAB     = 40076
	AddrVoltagePhBC     = 40077
	AddrVoltagePhCA     = 40078
	AddrVoltagePhAN     = 40079
	AddrVoltagePhBN     = 40080
	AddrVoltagePhCN     = 40081
	AddrVoltageSF       = 40082
	AddrPower           = 40083
	AddrPowerSF         = 40084
	AddrFrequency       = 40085
	AddrFrequencySF     = 40086
	AddrApparentPower   = 40087
	AddrApparentPowerSF = 40088
	AddrReactivePower   = 40089
	AddrReactivePowerSF = 40090
	AddrPowerFactor     = 40091
	AddrPowerFactorSF   = 40092
	AddrEnergy          = 40093 // two words
	AddrEnergySF        = 40095
	AddrDcCurrent       = 40096
	AddrDcCurrentSF     = 40097
	AddrDcVoltage       = 40098
	AddrDcVoltageSF     = 40099
	AddrDcPower         = 40100
	AddrDcPowerSF       = 40101
	AddrTempCabinet     = 40102
	AddrTempHeatSink    = 40103
	AddrTempTransformer = 40104
	AddrTempOther       = 40105
	AddrTemperatureSF   = 40106
	AddrOperatingState  = 40107
	AddrVendorState     = 40108

	// Nameplate block (model 120)
	AddrNameplateID     = 40121
	AddrNameplateLength = 40122
	AddrDERType         = 40123
	AddrWRtg            = 40124
	AddrAhrRtg          = 40143

	// Immediate controls block (model 123)
	AddrControlsID        = 40149
	AddrControlsLength    = 40150
	AddrConnWinTms        = 40151
	AddrConnRvrtTms       = 40152
	AddrConn              = 40153
	AddrWMaxLimPct        = 40154
	AddrWMaxLimPctWinTms  = 40155
	AddrWMaxLimPctRvrtTms = 40156
	AddrWMaxLimPctRmpTms  = 40157
	AddrWMaxLimEna        = 40158
	AddrWMaxLimPctSF      = 40172
	AddrOutPFSetSF        = 40173
	AddrVArPctSF          = 40174

	// End block
	AddrEndID     = 40175
	AddrEndLength = 40176
)

// Block IDs and payload lengths, in registers.
const (
	CommonBlockID        = 1
	CommonBlockLength    = 65
	PhaseBlockBaseID     = 100 // plus the number of phases
	PhaseBlockLength     = 50
	NameplateBlockID     = 120
	NameplateBlockLength = 26
	ControlsBlockID      = 123
	ControlsBlockLength  = 24
	EndBlockID           = 0xFFFF
	EndBlockLength       = 0
)

// Sizes of the string fields, in bytes.
const (
	HeaderSize       = 4
	ManufacturerSize = 32
	ModelSize        = 32
	OptionsSize      = 16
	VersionSize      = 16
	SerialSize       = 32
)

// Fixed values written during initialisation.
const (
	DeviceAddress = 126
	DERTypePV     = 4
)

// Scale factors, as powers of ten, declared for the encoded telemetry. With PowerSF the signed AC power register tops
// out at 3276.7 W, larger fleets are reported at that ceiling.
const (
	CurrentSF       = -2
	VoltageSF       = -1
	PowerSF         = -1
	FrequencySF     = -1
	ApparentPowerSF = -1
	ReactivePowerSF = -1
	PowerFactorSF   = -2
	EnergySF        = -1
	DcCurrentSF     = -2
	DcVoltageSF     = -1
	DcPowerSF       = -1
	TemperatureSF   = -1
)

// block describes one contiguous SunSpec model: an ID word and a length word followed by `length` payload words.
type block struct {
	name   string
	start  uint16 // address of the ID word
	id     uint16
	length uint16
}

// payloadStart is the address of the first word after the ID and length words.
func (b block) payloadStart() uint16 {
	return b.start + 2
}
