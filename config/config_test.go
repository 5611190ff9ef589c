package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleConfig = `
logLevel: debug
device:
  id: 64d84428-b989-4443-9a5e-aed02c224ee7
  serial: "199980000001"
  version: "3"
server:
  url: tcp://127.0.0.1:1502
sunspec:
  enabled: true
  remoteControl: true
  manufacturer: OpenDTU
  model: OpenDTU SunSpec
  powerDivider: 10
  inverters:
    - serial: 116180000001
      enabled: true
      maxPower: 1000
      channelAc:
        - phase: 0
    - serial: 116180000002
      enabled: false
      maxPower: 2000
      channelAc:
        - phase: 1
        - phase: 2
daylight:
  start: "06:00"
  end: "21:00"
  location: Europe/London
dataPlatform:
  supabase:
    url: https://example.supabase.co
    schema: sunspec
`

func TestParse(t *testing.T) {
	config, err := Parse([]byte(exampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, 100, config.TickIntervalMs)
	assert.Equal(t, 5, config.ReadingIntervalSecs)
	assert.Equal(t, "64d84428-b989-4443-9a5e-aed02c224ee7", config.Device.ID.String())
	assert.Equal(t, "199980000001", config.Device.Serial)
	assert.Equal(t, "tcp://127.0.0.1:1502", config.Server.URL)
	assert.Equal(t, uint(5), config.Server.MaxClients)

	assert.True(t, config.SunSpec.RemoteControl)
	assert.Equal(t, uint16(10), config.SunSpec.PowerDivider)
	require.Len(t, config.SunSpec.Inverters, 2)
	assert.Equal(t, uint64(116180000002), config.SunSpec.Inverters[1].Serial)
	assert.Equal(t, []ChannelConfig{{Phase: 1}, {Phase: 2}}, config.SunSpec.Inverters[1].ChannelAC)

	assert.Equal(t, 6, config.Daylight.Start.Hour)
	assert.Equal(t, "Europe/London", config.Daylight.End.Location.String())

	require.NotNil(t, config.DataPlatform)
	assert.Equal(t, 30, config.DataPlatform.UploadIntervalSecs)
	assert.Equal(t, "telemetry.sqlite", config.DataPlatform.BufferPath)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "Phase out of range",
			yaml: "sunspec:\n  inverters:\n    - serial: 1\n      channelAc:\n        - phase: 3\n",
		},
		{
			name: "No AC channels",
			yaml: "sunspec:\n  inverters:\n    - serial: 1\n",
		},
		{
			name: "Duplicate serial",
			yaml: "sunspec:\n  inverters:\n    - serial: 1\n      channelAc: [{phase: 0}]\n    - serial: 1\n      channelAc: [{phase: 0}]\n",
		},
		{
			name: "Data platform without url",
			yaml: "dataPlatform:\n  uploadIntervalSecs: 5\n",
		},
		{
			name: "Not yaml",
			yaml: "sunspec: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSunSpec_Helpers(t *testing.T) {
	sunspec := SunSpec{
		RemoteControl: true,
		Inverters: []InverterConfig{
			{Serial: 1, Enabled: true, MaxPower: 800, ChannelAC: []ChannelConfig{{Phase: 0}}},
			{Serial: 2, Enabled: true, MaxPower: 1200, ChannelAC: []ChannelConfig{{Phase: 0}, {Phase: 2}}},
			{Serial: 3, Enabled: false, MaxPower: 600, ChannelAC: []ChannelConfig{{Phase: 1}}},
			{Serial: 0, Enabled: true, MaxPower: 600, ChannelAC: []ChannelConfig{{Phase: 1}}},
		},
	}

	assert.Equal(t, uint16(2000), sunspec.TotalMaxPower())
	assert.Equal(t, uint16(2), sunspec.PhaseCount())
	assert.Nil(t, sunspec.InverterBySerial(0))
	assert.Nil(t, sunspec.InverterBySerial(99))
	assert.Equal(t, uint16(600), sunspec.InverterBySerial(3).MaxPower)

	sunspec.RemoteControl = false
	assert.Equal(t, uint16(0), sunspec.TotalMaxPower())
}

func TestStore(t *testing.T) {
	store := NewStore(SunSpec{Manufacturer: "A"})
	assert.Equal(t, "A", store.Get().Manufacturer)
	store.Set(SunSpec{Manufacturer: "B"})
	assert.Equal(t, "B", store.Get().Manufacturer)
}

func TestStore_Update(t *testing.T) {
	store := NewStore(SunSpec{Manufacturer: "A", Model: "1"})

	// updating without an observer is fine
	store.Update(SunSpec{Manufacturer: "B", Model: "2"})
	assert.Equal(t, "B", store.Get().Manufacturer)

	var notified []string
	store.Observe(func(manufacturer, model string) {
		notified = append(notified, manufacturer+"/"+model)
		// the observer sees the new snapshot
		assert.Equal(t, manufacturer, store.Get().Manufacturer)
	})

	store.Update(SunSpec{Manufacturer: "C", Model: "3"})
	store.Set(SunSpec{Manufacturer: "D", Model: "4"})

	assert.Equal(t, []string{"C/3"}, notified)
	assert.Equal(t, "D", store.Get().Manufacturer)
}
