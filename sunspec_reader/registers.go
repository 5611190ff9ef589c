package sunspecreader

import (
	"math"

	"github.com/cepro/sunspecgateway/modbusaccess"
	"github.com/cepro/sunspecgateway/sunspec"
)

var headerBlock = modbusaccess.RegisterBlock{
	Name:         "Header",
	StartAddr:    sunspec.AddrHeader,
	NumRegisters: sunspec.HeaderSize / 2,
	Registers: map[string]modbusaccess.Register{
		"Header": {
			StartAddr: sunspec.AddrHeader,
			DataType:  modbusaccess.StringType(sunspec.HeaderSize),
		},
	},
}

// scaleFactorBlock is read first, the values are used to scale the telemetry of the inverter block
var scaleFactorBlock = modbusaccess.RegisterBlock{
	Name:         "ScaleFactors",
	StartAddr:    sunspec.AddrCurrentSF,
	NumRegisters: sunspec.AddrTemperatureSF - sunspec.AddrCurrentSF + 1,
	Registers: map[string]modbusaccess.Register{
		"Current":     {StartAddr: sunspec.AddrCurrentSF, DataType: modbusaccess.Int16Type},
		"Voltage":     {StartAddr: sunspec.AddrVoltageSF, DataType: modbusaccess.Int16Type},
		"Power":       {StartAddr: sunspec.AddrPowerSF, DataType: modbusaccess.Int16Type},
		"Frequency":   {StartAddr: sunspec.AddrFrequencySF, DataType: modbusaccess.Int16Type},
		"PowerFactor": {StartAddr: sunspec.AddrPowerFactorSF, DataType: modbusaccess.Int16Type},
		"Energy":      {StartAddr: sunspec.AddrEnergySF, DataType: modbusaccess.Int16Type},
		"DcCurrent":   {StartAddr: sunspec.AddrDcCurrentSF, DataType: modbusaccess.Int16Type},
		"DcVoltage":   {StartAddr: sunspec.AddrDcVoltageSF, DataType: modbusaccess.Int16Type},
		"DcPower":     {StartAddr: sunspec.AddrDcPowerSF, DataType: modbusaccess.Int16Type},
		"Temperature": {StartAddr: sunspec.AddrTemperatureSF, DataType: modbusaccess.Int16Type},
	},
}

var blocks = []modbusaccess.RegisterBlock{
	{
		Name:         "Common",
		StartAddr:    sunspec.AddrManufacturer,
		NumRegisters: sunspec.CommonBlockLength,
		Registers: map[string]modbusaccess.Register{
			"Manufacturer":  {StartAddr: sunspec.AddrManufacturer, DataType: modbusaccess.StringType(sunspec.ManufacturerSize)},
			"Model":         {StartAddr: sunspec.AddrModel, DataType: modbusaccess.StringType(sunspec.ModelSize)},
			"Version":       {StartAddr: sunspec.AddrVersion, DataType: modbusaccess.StringType(sunspec.VersionSize)},
			"Serial":        {StartAddr: sunspec.AddrSerial, DataType: modbusaccess.StringType(sunspec.SerialSize)},
			"DeviceAddress": {StartAddr: sunspec.AddrDeviceAddress, DataType: modbusaccess.Uint16Type},
		},
	},
	{
		Name:         "Inverter",
		StartAddr:    sunspec.AddrPhaseID,
		NumRegisters: sunspec.AddrVendorState - sunspec.AddrPhaseID + 1,
		Registers: map[string]modbusaccess.Register{
			"PhaseBlockID": {StartAddr: sunspec.AddrPhaseID, DataType: modbusaccess.Uint16Type},
			"CurrentTotal": {
				StartAddr:   sunspec.AddrCurrentTotal,
				DataType:    modbusaccess.Uint16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Current }),
			},
			"CurrentPhA": {
				StartAddr:   sunspec.AddrCurrentPhA,
				DataType:    modbusaccess.Uint16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Current }),
			},
			"CurrentPhB": {
				StartAddr:   sunspec.AddrCurrentPhB,
				DataType:    modbusaccess.Uint16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Current }),
			},
			"CurrentPhC": {
				StartAddr:   sunspec.AddrCurrentPhC,
				DataType:    modbusaccess.Uint16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Current }),
			},
			// Line to line voltages repeat the phase voltages, so they are not of interest
			"VoltagePhAN": {
				StartAddr:   sunspec.AddrVoltagePhAN,
				DataType:    modbusaccess.Uint16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Voltage }),
			},
			"VoltagePhBN": {
				StartAddr:   sunspec.AddrVoltagePhBN,
				DataType:    modbusaccess.Uint16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Voltage }),
			},
			"VoltagePhCN": {
				StartAddr:   sunspec.AddrVoltagePhCN,
				DataType:    modbusaccess.Uint16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Voltage }),
			},
			"Power": {
				StartAddr:   sunspec.AddrPower,
				DataType:    modbusaccess.Int16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Power }),
			},
			"Frequency": {
				StartAddr:   sunspec.AddrFrequency,
				DataType:    modbusaccess.Uint16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Frequency }),
			},
			// Apparent and reactive power are always zero
			"PowerFactor": {
				StartAddr:   sunspec.AddrPowerFactor,
				DataType:    modbusaccess.Int16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.PowerFactor }),
			},
			"Energy": {
				StartAddr:   sunspec.AddrEnergy,
				DataType:    modbusaccess.Int32LowWordFirstType,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Energy }),
			},
			"DcCurrent": {
				StartAddr:   sunspec.AddrDcCurrent,
				DataType:    modbusaccess.Uint16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.DcCurrent }),
			},
			"DcVoltage": {
				StartAddr:   sunspec.AddrDcVoltage,
				DataType:    modbusaccess.Uint16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.DcVoltage }),
			},
			"DcPower": {
				StartAddr:   sunspec.AddrDcPower,
				DataType:    modbusaccess.Int16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.DcPower }),
			},
			// All four temperatures hold the hottest inverter
			"Temperature": {
				StartAddr:   sunspec.AddrTempCabinet,
				DataType:    modbusaccess.Int16Type,
				ScalingFunc: scaleBy(func(sf *scaleFactors) int16 { return sf.Temperature }),
			},
			"Status": {StartAddr: sunspec.AddrOperatingState, DataType: modbusaccess.Uint16Type},
		},
	},
	{
		Name:         "Nameplate",
		StartAddr:    sunspec.AddrWRtg,
		NumRegisters: 1,
		Registers: map[string]modbusaccess.Register{
			"RatedPower": {StartAddr: sunspec.AddrWRtg, DataType: modbusaccess.Uint16Type},
		},
	},
	{
		Name:         "Controls",
		StartAddr:    sunspec.AddrWMaxLimPct,
		NumRegisters: sunspec.AddrWMaxLimEna - sunspec.AddrWMaxLimPct + 1,
		Registers: map[string]modbusaccess.Register{
			"LimitPct":     {StartAddr: sunspec.AddrWMaxLimPct, DataType: modbusaccess.Uint16Type},
			"LimitTimeout": {StartAddr: sunspec.AddrWMaxLimPctRvrtTms, DataType: modbusaccess.Uint16Type},
			"LimitEnabled": {StartAddr: sunspec.AddrWMaxLimEna, DataType: modbusaccess.Uint16Type},
		},
	},
}

// scaleBy returns a scaling function that applies the power of ten scale factor picked out by `factor`.
func scaleBy(factor func(sf *scaleFactors) int16) func(modbusaccess.Scaler, interface{}) interface{} {
	return func(scaler modbusaccess.Scaler, val interface{}) interface{} {
		sf := scaler.(*scaleFactors)
		return toFloat(val) * math.Pow10(int(factor(sf)))
	}
}

func toFloat(val interface{}) float64 {
	switch v := val.(type) {
	case uint16:
		return float64(v)
	case int16:
		return float64(v)
	case uint32:
		return float64(v)
	case int32:
		return float64(v)
	default:
		return math.NaN()
	}
}
