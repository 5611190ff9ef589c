package modbus

import (
	"fmt"

	"github.com/simonvetter/modbus"
)

// ReadRegisters reads `quantity` consecutive holding registers starting at `address`.
func (c *Client) ReadRegisters(address uint16, quantity uint16) ([]uint16, error) {

	err := c.reconnectIfNecessary()
	if err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}

	vals, err := c.subClient.ReadRegisters(address, quantity, modbus.HOLDING_REGISTER)
	if err != nil {
		c.setShouldReconnect()
		return nil, fmt.Errorf("read %d registers at %d: %w", quantity, address, err)
	}

	return vals, nil
}
