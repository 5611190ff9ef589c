// Package sunspecreader reads the SunSpec map of a gateway back over Modbus and decodes it into a Snapshot. It is used
// by the probe tool to check a running gateway from the outside.
package sunspecreader

import (
	"fmt"

	"github.com/cepro/sunspecgateway/modbusaccess"
	"github.com/mitchellh/mapstructure"
)

// Snapshot holds the interesting values of a SunSpec map, with the scale factors already applied.
type Snapshot struct {
	Manufacturer  string
	Model         string
	Version       string
	Serial        string
	DeviceAddress uint16

	PhaseBlockID uint16
	CurrentTotal float64
	CurrentPhA   float64
	CurrentPhB   float64
	CurrentPhC   float64
	VoltagePhAN  float64
	VoltagePhBN  float64
	VoltagePhCN  float64
	Power        float64
	Frequency    float64
	PowerFactor  float64
	Energy       float64
	DcCurrent    float64
	DcVoltage    float64
	DcPower      float64
	Temperature  float64
	Status       uint16

	RatedPower uint16

	LimitPct     uint16
	LimitTimeout uint16
	LimitEnabled uint16
}

// scaleFactors are the power of ten exponents that the inverter block declares for its values.
type scaleFactors struct {
	Current     int16
	Voltage     int16
	Power       int16
	Frequency   int16
	PowerFactor int16
	Energy      int16
	DcCurrent   int16
	DcVoltage   int16
	DcPower     int16
	Temperature int16
}

type Reader struct {
	client modbusaccess.HoldingRegisterReader
}

func New(client modbusaccess.HoldingRegisterReader) *Reader {
	return &Reader{client: client}
}

// Read checks the SunSpec header and then polls every block of the map.
func (r *Reader) Read() (Snapshot, error) {

	header, err := modbusaccess.PollBlock(r.client, nil, headerBlock)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read header: %w", err)
	}
	if header["Header"] != "SunS" {
		return Snapshot{}, fmt.Errorf("unexpected header: %q", header["Header"])
	}

	sfMetrics, err := modbusaccess.PollBlock(r.client, nil, scaleFactorBlock)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read scale factors: %w", err)
	}
	var sf scaleFactors
	err = mapstructure.Decode(sfMetrics, &sf)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode scale factors: %w", err)
	}

	metrics, err := modbusaccess.PollBlocks(r.client, &sf, blocks)
	if err != nil {
		return Snapshot{}, err
	}

	var snapshot Snapshot
	err = mapstructure.Decode(metrics, &snapshot)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	return snapshot, nil
}
