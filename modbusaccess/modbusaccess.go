package modbusaccess

import (
	"bytes"
	"encoding/binary"
)

// Type represents the different types of data that can be queried over modbus.
type Type struct {
	name          string                   // the name of the data type
	dataLength    uint16                   // the number of underlying bytes to represent the data type
	fromBytesFunc func([]byte) interface{} // function to convert the bytes to the concrete data type
}

func (t Type) String() string {
	return t.name
}

// Uint16Type represents the 16 bit unsigned integer data type on Modbus.
var Uint16Type = Type{
	name:       "uint16",
	dataLength: 2,
	fromBytesFunc: func(bytes []byte) interface{} {
		return binary.BigEndian.Uint16(bytes)
	},
}

// Int16Type represents the 16 bit signed integer data type on Modbus.
var Int16Type = Type{
	name:       "int16",
	dataLength: 2,
	fromBytesFunc: func(bytes []byte) interface{} {
		return int16(binary.BigEndian.Uint16(bytes))
	},
}

// Uint32Type represents the 32 bit unsigned integer data type, with the high word in the first register.
var Uint32Type = Type{
	name:       "uint32",
	dataLength: 4,
	fromBytesFunc: func(bytes []byte) interface{} {
		return binary.BigEndian.Uint32(bytes)
	},
}

// Int32LowWordFirstType represents the 32 bit signed integer data type with the low word in the first register. Each
// word is still big endian. The SunSpec gateway encodes its lifetime energy like this.
var Int32LowWordFirstType = Type{
	name:       "int32lw",
	dataLength: 4,
	fromBytesFunc: func(bytes []byte) interface{} {
		low := uint32(binary.BigEndian.Uint16(bytes[0:2]))
		high := uint32(binary.BigEndian.Uint16(bytes[2:4]))
		return int32(high<<16 | low)
	},
}

// StringType returns the type of a null padded string field that is `size` bytes long, with the first character in the
// high byte of the first register.
func StringType(size uint16) Type {
	return Type{
		name:       "string",
		dataLength: size,
		fromBytesFunc: func(b []byte) interface{} {
			return string(bytes.Trim(b, "\x00"))
		},
	}
}

// Scaler can be any object used to help scale modbus values.
// For trivial scaling scenarios (e.g. 'divide by 1000') this is not really required, but for more complicated scaling
// scenarios (e.g. 'scale by the scale factor registers of the device') it can be neccesary to retrieve state from the `scaler`.
type Scaler interface{}

// valueScalingFunc is a prototype for a function that scales a modbus value.
type valueScalingFunc func(Scaler, interface{}) interface{}

// Register holds a value on the modbus slave at the given address
type Register struct {
	StartAddr   uint16
	DataType    Type
	ScalingFunc valueScalingFunc // a function to scale the recieved value to get it's 'true' value (transmitting scaled values is common in Modbus)
}

// RegisterBlock represents a contigous block of modbus registers that are read in one chunk.
type RegisterBlock struct {
	Name         string              // name of the block used for context/logging
	StartAddr    uint16              // the first register address of the block
	NumRegisters uint16              // the number of registers in this block (each register is two bytes)
	Registers    map[string]Register // details of all the registers of interest in this block, keyed by unique name
}
