package registers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_DefineField(t *testing.T) {
	table := NewTable()

	require.True(t, table.DefineField(100, 7, 4))
	for addr, expected := range map[uint16]uint16{100: 7, 101: 0, 102: 0, 103: 0} {
		val, ok := table.Read(addr)
		assert.True(t, ok)
		assert.Equal(t, expected, val, "address %d", addr)
	}

	// overlapping spans must be rejected without reserving anything
	assert.False(t, table.DefineField(98, 0, 3))
	assert.False(t, table.IsDefined(98))
	assert.False(t, table.IsDefined(99))
	assert.False(t, table.DefineField(103, 0, 1))

	assert.True(t, table.DefineField(104, 0, 1))
	assert.False(t, table.DefineField(0xFFFF, 0, 2))
	assert.False(t, table.DefineField(10, 0, 0))

	assert.Equal(t, []uint16{100, 101, 102, 103, 104}, table.Addresses())
}

func TestTable_WriteUndefined(t *testing.T) {
	table := NewTable()
	assert.False(t, table.WriteU16(1, 1))
	assert.False(t, table.WriteS32(1, 1))
	assert.ErrorIs(t, table.HostWrite(1, 1), ErrUndefinedAddress)

	_, err := table.ReadRange(1, 2)
	assert.ErrorIs(t, err, ErrUndefinedAddress)
}

func TestTable_WriteS16(t *testing.T) {
	table := NewTable()
	table.DefineField(0, 0, 1)

	table.WriteS16(0, -2)
	val, _ := table.Read(0)
	assert.Equal(t, uint16(0xFFFE), val)
	assert.Equal(t, int16(-2), int16(val))
}

func TestTable_WriteU32HighWordFirst(t *testing.T) {
	values := []uint32{0, 1, 0xFFFF, 0x10000, 0x12345678, 3000000, math.MaxUint32}

	for _, v := range values {
		table := NewTable()
		table.DefineField(500, 0, 2)
		require.True(t, table.WriteU32(500, v))

		words, err := table.ReadRange(500, 2)
		require.NoError(t, err)
		assert.Equal(t, v, uint32(words[0])<<16|uint32(words[1]), "value %d", v)
	}
}

func TestTable_WriteS32LowWordFirst(t *testing.T) {
	values := []int32{0, 1, -1, 0xFFFF, -0x10000, 0x12345678, math.MinInt32, math.MaxInt32}

	for _, v := range values {
		table := NewTable()
		table.DefineField(500, 0, 2)
		require.True(t, table.WriteS32(500, v))

		words, err := table.ReadRange(500, 2)
		require.NoError(t, err)
		assert.Equal(t, v, int32(uint32(words[1])<<16|uint32(words[0])), "value %d", v)
	}

	// the two orderings really are different
	table := NewTable()
	table.DefineField(0, 0, 4)
	table.WriteU32(0, 0x00010002)
	table.WriteS32(2, 0x00010002)
	words, _ := table.ReadRange(0, 4)
	assert.Equal(t, []uint16{0x0001, 0x0002, 0x0002, 0x0001}, words)
}

// decodeString is the inverse of WriteString, it stops at the first NUL byte.
func decodeString(words []uint16) string {
	b := make([]byte, 0, len(words)*2)
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func TestTable_WriteString(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		byteSize uint16
		expected []uint16
	}{
		{
			name:     "Exactly fills the field",
			text:     "SunS",
			byteSize: 4,
			expected: []uint16{0x5375, 0x6E53},
		},
		{
			name:     "Even length shorter than the field",
			text:     "AB",
			byteSize: 8,
			expected: []uint16{0x4142, 0, 0, 0},
		},
		{
			name:     "Odd length leaves a zero low byte",
			text:     "ABC",
			byteSize: 6,
			expected: []uint16{0x4142, 0x4300, 0},
		},
		{
			name:     "Longer than the field is truncated",
			text:     "ABCDEFGHIJ",
			byteSize: 4,
			expected: []uint16{0x4142, 0x4344},
		},
		{
			name:     "Empty string zeroes the field",
			text:     "",
			byteSize: 4,
			expected: []uint16{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable()
			span := tt.byteSize / 2
			// sentinel words either side of the field must never be touched
			table.DefineField(9, 0xBEEF, 1)
			table.DefineField(10, 0xFFFF, span)
			for i := uint16(1); i < span; i++ {
				table.WriteU16(10+i, 0xFFFF)
			}
			table.DefineField(10+span, 0xBEEF, 1)

			table.WriteString(10, tt.text, tt.byteSize)

			words, err := table.ReadRange(10, span)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, words)

			before, _ := table.Read(9)
			after, _ := table.Read(10 + span)
			assert.Equal(t, uint16(0xBEEF), before)
			assert.Equal(t, uint16(0xBEEF), after)
		})
	}
}

func TestTable_WriteStringRoundTrip(t *testing.T) {
	for _, text := range []string{"AB", "OpenDTU", "Hoymiles", "HMS-2000-4T"} {
		table := NewTable()
		table.DefineField(0, 0, 16)
		table.WriteString(0, text, 32)
		// writing twice must give the same result
		table.WriteString(0, text, 32)

		words, _ := table.ReadRange(0, 16)
		assert.Equal(t, text, decodeString(words))
	}
}

func TestTable_HostWriteHook(t *testing.T) {
	table := NewTable()
	table.DefineField(40154, 100, 5)

	var calls []uint16
	table.Hook(40154, func(address uint16, value uint16) uint16 {
		calls = append(calls, address)
		if value > 100 {
			return 100
		}
		return value
	})

	require.NoError(t, table.HostWrite(40154, 150))
	val, _ := table.Read(40154)
	assert.Equal(t, uint16(100), val)

	// an address without a hook is stored as-is
	require.NoError(t, table.HostWrite(40155, 150))
	val, _ = table.Read(40155)
	assert.Equal(t, uint16(150), val)

	assert.Equal(t, []uint16{40154}, calls)
}
