package modbus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/simonvetter/modbus"
)

// Client provides an interface onto a Modbus TCP device, such as the SunSpec map served by this gateway.
// It hides the underlying open source modbus library and re-connects after any error on the connection.
type Client struct {
	url     string
	timeout time.Duration
	unitID  uint8

	subClient       *modbus.ModbusClient // the raw client of the underlying modbus library we are using
	shouldReconnect bool                 // when true, the subClient is 'dirty' and will be re-created next time a read or write call is made
	logger          *slog.Logger
}

// NewClient returns a client for the device at `url`, e.g. "tcp://192.168.1.10:502". No connection is made until the
// first read or write.
func NewClient(url string, unitID uint8, timeout time.Duration) *Client {
	return &Client{
		url:             url,
		timeout:         timeout,
		unitID:          unitID,
		shouldReconnect: true,
		logger:          slog.Default().With("url", url),
	}
}

// createSubClient creates the open-source modbus library client and connects to the device.
func (c *Client) createSubClient() error {
	subClient, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     c.url,
		Timeout: c.timeout,
	})
	if err != nil {
		return fmt.Errorf("create modbus client: %w", err)
	}

	err = subClient.Open()
	if err != nil {
		return fmt.Errorf("open modbus client: %w", err)
	}

	err = subClient.SetUnitId(c.unitID)
	if err != nil {
		subClient.Close()
		return fmt.Errorf("set unit id: %w", err)
	}

	c.subClient = subClient

	return nil
}

// setShouldReconnect is called when there has been an error with the modbus connection that should trigger a re-connect.
func (c *Client) setShouldReconnect() {
	c.shouldReconnect = true
}

// reconnectIfNecessary will close the old connection and reconnect if there have been problems with the connection.
func (c *Client) reconnectIfNecessary() error {
	if !c.shouldReconnect {
		return nil
	}

	// Ignore errors from Close() as we will continue with the reconnect anyway and start a new connection.
	if c.subClient != nil {
		c.subClient.Close()
	}

	err := c.createSubClient()
	if err != nil {
		return err
	}

	c.shouldReconnect = false

	c.logger.Info("Connected modbus client")

	return nil
}

// Close closes the connection, if there is one.
func (c *Client) Close() error {
	if c.subClient == nil {
		return nil
	}
	c.shouldReconnect = true
	return c.subClient.Close()
}
