package fleet

import (
	"testing"
	"time"

	"github.com/cepro/sunspecgateway/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulated(t *testing.T) {
	sim := NewSimulated(config.SunSpec{
		Inverters: []config.InverterConfig{
			{Serial: 11, Enabled: true, MaxPower: 1000, ChannelAC: []config.ChannelConfig{{Phase: 0}, {Phase: 1}}},
			{Serial: 0, Enabled: true, MaxPower: 1000, ChannelAC: []config.ChannelConfig{{Phase: 0}}},
		},
	}, 0.8)

	require.Len(t, sim.Inverters(), 1)
	assert.Nil(t, sim.InverterBySerial(12))
	assert.True(t, sim.AllEnabledProducing())

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	inv := sim.InverterBySerial(11).(*SimulatedInverter)
	inv.now = func() time.Time { return now }

	stats := inv.Statistics()
	assert.Equal(t, []int{0, 1}, stats.Channels(ChannelTypeAC))
	assert.InDelta(t, 400.0, stats.Value(ChannelTypeAC, 1, FieldPAC), 0.001)

	// a limit below the available power caps the output once it has been sent
	require.NoError(t, inv.SendActivePowerLimit(500, LimitTypeAbsoluteNonPersistent))
	assert.False(t, inv.IsQueueEmpty())
	assert.Equal(t, CommandStatusPending, inv.LastLimitCommandStatus())
	assert.ErrorIs(t, inv.SendActivePowerLimit(200, LimitTypeAbsoluteNonPersistent), ErrQueueFull)

	now = now.Add(time.Hour)
	assert.True(t, inv.IsQueueEmpty())
	assert.Equal(t, CommandStatusOk, inv.LastLimitCommandStatus())

	stats = inv.Statistics()
	assert.InDelta(t, 250.0, stats.Value(ChannelTypeAC, 0, FieldPAC), 0.001)
	assert.InDelta(t, 0.5, stats.Value(ChannelTypeInv, 0, FieldYT), 0.001)
}
