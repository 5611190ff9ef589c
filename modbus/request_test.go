package modbus

import (
	"testing"

	"github.com/cepro/sunspecgateway/registers"
	"github.com/simonvetter/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable() *registers.Table {
	table := registers.NewTable()
	table.DefineField(100, 1, 1)
	table.DefineField(101, 2, 1)
	table.DefineField(102, 3, 1)
	return table
}

func TestExecute_Read(t *testing.T) {
	table := newTestTable()

	resp := Execute(table, NewReadRequest(100, 3))
	require.NoError(t, resp.Err)
	assert.Equal(t, []uint16{1, 2, 3}, resp.Values)

	resp = Execute(table, NewReadRequest(101, 3))
	assert.ErrorIs(t, resp.Err, modbus.ErrIllegalDataAddress)
	assert.Nil(t, resp.Values)
}

func TestExecute_Write(t *testing.T) {
	table := newTestTable()

	var hooked []uint16
	table.Hook(101, func(address uint16, value uint16) uint16 {
		hooked = append(hooked, value)
		return value * 2
	})

	resp := Execute(table, NewWriteRequest(100, []uint16{10, 20, 30}))
	require.NoError(t, resp.Err)
	assert.Equal(t, []uint16{20}, hooked)

	vals, err := table.ReadRange(100, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint16{10, 40, 30}, vals)
}

func TestExecute_WriteUndefined(t *testing.T) {
	table := newTestTable()

	var hooked bool
	table.Hook(101, func(address uint16, value uint16) uint16 {
		hooked = true
		return value
	})

	// the last address is undefined so nothing may be written
	resp := Execute(table, NewWriteRequest(101, []uint16{7, 8, 9}))
	assert.ErrorIs(t, resp.Err, modbus.ErrIllegalDataAddress)
	assert.False(t, hooked)

	vals, err := table.ReadRange(100, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3}, vals)

	resp = Execute(table, NewWriteRequest(0xFFFF, []uint16{1, 2}))
	assert.ErrorIs(t, resp.Err, modbus.ErrIllegalDataAddress)
}
