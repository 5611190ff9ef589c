package modbus

import (
	"fmt"
)

// WriteRegister writes a single holding register.
func (c *Client) WriteRegister(address uint16, val uint16) error {

	err := c.reconnectIfNecessary()
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}

	err = c.subClient.WriteRegister(address, val)
	if err != nil {
		c.setShouldReconnect()
		return fmt.Errorf("write register %d: %w", address, err)
	}

	return nil
}

// WriteRegisters writes consecutive holding registers starting at `address`.
func (c *Client) WriteRegisters(address uint16, vals []uint16) error {

	err := c.reconnectIfNecessary()
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}

	err = c.subClient.WriteRegisters(address, vals)
	if err != nil {
		c.setShouldReconnect()
		return fmt.Errorf("write %d registers at %d: %w", len(vals), address, err)
	}

	return nil
}
