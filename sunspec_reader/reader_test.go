package sunspecreader

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/cepro/sunspecgateway/config"
	"github.com/cepro/sunspecgateway/fleet"
	"github.com/cepro/sunspecgateway/registers"
	"github.com/cepro/sunspecgateway/sunspec"
	"github.com/cepro/sunspecgateway/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableReader serves holding register reads straight from a register table.
type tableReader struct {
	table *registers.Table
}

func (r tableReader) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	vals, err := r.table.ReadRange(address, quantity)
	if err != nil {
		return nil, err
	}
	bytes := make([]byte, 0, len(vals)*2)
	for _, val := range vals {
		bytes = binary.BigEndian.AppendUint16(bytes, val)
	}
	return bytes, nil
}

func TestRead(t *testing.T) {
	conf := config.SunSpec{
		RemoteControl: true,
		Manufacturer:  "OpenDTU",
		Model:         "Gateway",
		Inverters: []config.InverterConfig{
			{Serial: 1, Enabled: true, MaxPower: 800, ChannelAC: []config.ChannelConfig{{Phase: 0}}},
			{Serial: 2, Enabled: true, MaxPower: 1600, ChannelAC: []config.ChannelConfig{{Phase: 2}}},
		},
	}

	inv1 := fleet.NewMockInverter(1)
	inv1.Stats.Set(fleet.ChannelTypeAC, 0, fleet.FieldPAC, 500).
		Set(fleet.ChannelTypeAC, 0, fleet.FieldIAC, 2.2).
		Set(fleet.ChannelTypeAC, 0, fleet.FieldUAC, 230).
		Set(fleet.ChannelTypeAC, 0, fleet.FieldF, 50).
		Set(fleet.ChannelTypeAC, 0, fleet.FieldPF, 1).
		Set(fleet.ChannelTypeAC, 0, fleet.FieldYT, 1.5).
		Set(fleet.ChannelTypeInv, 0, fleet.FieldT, 35)
	inv2 := fleet.NewMockInverter(2)
	inv2.Stats.Set(fleet.ChannelTypeAC, 0, fleet.FieldPAC, 1000).
		Set(fleet.ChannelTypeAC, 0, fleet.FieldIAC, 4.4).
		Set(fleet.ChannelTypeAC, 0, fleet.FieldUAC, 240).
		Set(fleet.ChannelTypeAC, 0, fleet.FieldF, 50).
		Set(fleet.ChannelTypeAC, 0, fleet.FieldPF, 1).
		Set(fleet.ChannelTypeAC, 0, fleet.FieldYT, 2.5).
		Set(fleet.ChannelTypeInv, 0, fleet.FieldT, 41)

	m := sunspec.New(registers.NewTable())
	require.NoError(t, m.Init(conf, config.DeviceConfig{Serial: "199980140256", Version: "v24.2.12"}))
	acc := telemetry.Aggregate(&conf, []fleet.Inverter{inv1, inv2})
	m.Encode(&acc, conf.PhaseCount(), conf.TotalMaxPower())
	m.SetStatus(sunspec.StatusMPPT)

	snapshot, err := New(tableReader{table: m.Table()}).Read()
	require.NoError(t, err)

	assert.Equal(t, "OpenDTU", snapshot.Manufacturer)
	assert.Equal(t, "Gateway", snapshot.Model)
	assert.Equal(t, "v24.2.12", snapshot.Version)
	assert.Equal(t, "199980140256", snapshot.Serial)
	assert.Equal(t, uint16(sunspec.DeviceAddress), snapshot.DeviceAddress)
	assert.Equal(t, uint16(sunspec.PhaseBlockBaseID+2), snapshot.PhaseBlockID)
	assert.Equal(t, uint16(sunspec.StatusMPPT), snapshot.Status)
	assert.Equal(t, uint16(2400), snapshot.RatedPower)

	assert.InDelta(t, 1500, snapshot.Power, 0.01)
	assert.InDelta(t, 6.6, snapshot.CurrentTotal, 0.01)
	assert.InDelta(t, 2.2, snapshot.CurrentPhA, 0.01)
	assert.InDelta(t, 0, snapshot.CurrentPhB, 0.01)
	assert.InDelta(t, 4.4, snapshot.CurrentPhC, 0.01)
	assert.InDelta(t, 230, snapshot.VoltagePhAN, 0.01)
	assert.InDelta(t, 240, snapshot.VoltagePhCN, 0.01)
	assert.InDelta(t, 50, snapshot.Frequency, 0.01)
	assert.InDelta(t, 41, snapshot.Temperature, 0.01)
	assert.InDelta(t, 4000, snapshot.Energy, 0.01) // Wh

	assert.Equal(t, uint16(100), snapshot.LimitPct)
	assert.Equal(t, uint16(0), snapshot.LimitEnabled)
}

func TestRead_BadHeader(t *testing.T) {
	table := registers.NewTable()
	require.True(t, table.DefineField(sunspec.AddrHeader, 0, 2))
	table.WriteString(sunspec.AddrHeader, "Nope", 4)

	_, err := New(tableReader{table: table}).Read()
	assert.ErrorContains(t, err, "unexpected header")
}

type failingReader struct{}

func (failingReader) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func TestRead_ClientError(t *testing.T) {
	_, err := New(failingReader{}).Read()
	assert.ErrorContains(t, err, "connection reset")
}
