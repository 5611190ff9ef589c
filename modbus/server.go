package modbus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cepro/sunspecgateway/config"
	"github.com/simonvetter/modbus"
)

// How long a client request waits for the owner of the register table to pick it up and answer it.
const requestWaitTimeout = 2 * time.Second

// Server accepts Modbus TCP connections and forwards the holding register requests they make onto a channel.
//
// The underlying library runs one goroutine per client connection. Those goroutines never touch the register table
// themselves, they block until whoever is reading from Requests() has executed the request and replied to it.
type Server struct {
	conf     config.ServerConfig
	requests chan *Request

	subServer *modbus.ModbusServer // the raw server of the underlying modbus library we are using
	logger    *slog.Logger
}

func NewServer(conf config.ServerConfig) (*Server, error) {
	s := &Server{
		conf:     conf,
		requests: make(chan *Request),
		logger:   slog.Default().With("url", conf.URL),
	}

	subServer, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        conf.URL,
		Timeout:    time.Duration(conf.TimeoutSecs) * time.Second,
		MaxClients: conf.MaxClients,
	}, s)
	if err != nil {
		return nil, fmt.Errorf("create modbus server: %w", err)
	}
	s.subServer = subServer

	return s, nil
}

// Requests returns the channel on which client requests arrive. Every request must be answered with Reply.
func (s *Server) Requests() <-chan *Request {
	return s.requests
}

func (s *Server) Start() error {
	err := s.subServer.Start()
	if err != nil {
		return fmt.Errorf("start modbus server: %w", err)
	}
	s.logger.Info("Started modbus server")
	return nil
}

func (s *Server) Stop() error {
	err := s.subServer.Stop()
	if err != nil {
		return fmt.Errorf("stop modbus server: %w", err)
	}
	s.logger.Info("Stopped modbus server")
	return nil
}

// HandleHoldingRegisters implements the library's RequestHandler for both reads and writes of holding registers.
func (s *Server) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	r := NewReadRequest(req.Addr, req.Quantity)
	if req.IsWrite {
		r = NewWriteRequest(req.Addr, req.Args)
	}
	r.ClientAddr = req.ClientAddr
	r.UnitID = req.UnitId

	timer := time.NewTimer(requestWaitTimeout)
	defer timer.Stop()

	select {
	case s.requests <- r:
	case <-timer.C:
		s.logger.Warn("Request was not picked up in time", "client", req.ClientAddr, "address", req.Addr)
		return nil, modbus.ErrServerDeviceBusy
	}

	select {
	case resp := <-r.reply:
		return resp.Values, resp.Err
	case <-timer.C:
		s.logger.Warn("Request was not answered in time", "client", req.ClientAddr, "address", req.Addr)
		return nil, modbus.ErrServerDeviceBusy
	}
}

// The SunSpec map only consists of holding registers.

func (s *Server) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

func (s *Server) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

func (s *Server) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	return nil, modbus.ErrIllegalFunction
}
