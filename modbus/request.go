package modbus

import (
	"errors"

	"github.com/cepro/sunspecgateway/registers"
	"github.com/simonvetter/modbus"
)

// Request is a holding register read or write made by a Modbus client.
type Request struct {
	ClientAddr string
	UnitID     uint8
	Address    uint16
	Quantity   uint16
	IsWrite    bool
	Values     []uint16 // the values to write, one per register

	reply chan Response
}

// Response is the outcome of executing a Request. For reads, Values holds one value per requested register.
type Response struct {
	Values []uint16
	Err    error
}

// NewReadRequest returns a request to read `quantity` registers starting at `address`.
func NewReadRequest(address uint16, quantity uint16) *Request {
	return &Request{
		Address:  address,
		Quantity: quantity,
		reply:    make(chan Response, 1),
	}
}

// NewWriteRequest returns a request to write `values` into consecutive registers starting at `address`.
func NewWriteRequest(address uint16, values []uint16) *Request {
	return &Request{
		Address:  address,
		Quantity: uint16(len(values)),
		IsWrite:  true,
		Values:   values,
		reply:    make(chan Response, 1),
	}
}

// Wait blocks until the request has been answered.
func (r *Request) Wait() Response {
	return <-r.reply
}

// Reply answers the client that made the request. It must be called exactly once.
func (r *Request) Reply(resp Response) {
	r.reply <- resp
}

// Execute runs the request against the register table. Writes go through the table's hooks. A request that touches any
// undefined address fails as a whole with an illegal data address exception, and nothing is written.
func Execute(table *registers.Table, r *Request) Response {
	if !r.IsWrite {
		vals, err := table.ReadRange(r.Address, r.Quantity)
		if err != nil {
			return Response{Err: toException(err)}
		}
		return Response{Values: vals}
	}

	if int(r.Address)+len(r.Values) > 0x10000 {
		return Response{Err: modbus.ErrIllegalDataAddress}
	}
	for i := range r.Values {
		if !table.IsDefined(r.Address + uint16(i)) {
			return Response{Err: modbus.ErrIllegalDataAddress}
		}
	}

	for i, val := range r.Values {
		err := table.HostWrite(r.Address+uint16(i), val)
		if err != nil {
			return Response{Err: toException(err)}
		}
	}
	return Response{}
}

// toException maps register table errors onto the Modbus exception the client should see.
func toException(err error) error {
	if errors.Is(err, registers.ErrUndefinedAddress) {
		return modbus.ErrIllegalDataAddress
	}
	return modbus.ErrServerDeviceFailure
}
