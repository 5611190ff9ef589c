// Command probe talks to a running SunSpec gateway over Modbus TCP, either to read back its SunSpec map or to set a
// power limit through the immediate controls block.
//
//	probe read -host localhost:502
//	probe limit -url tcp://localhost:502 -pct 50 -timeout 60
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cepro/sunspecgateway/modbus"
	"github.com/cepro/sunspecgateway/sunspec"
	sunspecreader "github.com/cepro/sunspecgateway/sunspec_reader"
	gridx "github.com/grid-x/modbus"
)

func main() {

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "read":
		err = runRead(os.Args[2:])
	case "limit":
		err = runLimit(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Probe failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: probe read|limit [flags]")
}

// runRead polls the whole SunSpec map and logs the decoded values.
func runRead(args []string) error {
	flags := flag.NewFlagSet("read", flag.ExitOnError)
	host := flags.String("host", "localhost:502", "host and port of the gateway")
	unitID := flags.Uint("unit", 1, "modbus unit id")
	timeout := flags.Duration("timeout", 10*time.Second, "modbus request timeout")
	flags.Parse(args)

	handler := gridx.NewTCPClientHandler(*host)
	handler.Timeout = *timeout
	handler.SlaveID = byte(*unitID)

	slog.Info("Connecting to gateway", "host", *host)

	err := handler.Connect()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer handler.Close()

	snapshot, err := sunspecreader.New(gridx.NewClient(handler)).Read()
	if err != nil {
		return err
	}

	slog.Info(
		"Common block",
		"manufacturer", snapshot.Manufacturer,
		"model", snapshot.Model,
		"version", snapshot.Version,
		"serial", snapshot.Serial,
		"device_address", snapshot.DeviceAddress,
	)
	slog.Info(
		"Inverter block",
		"block_id", snapshot.PhaseBlockID,
		"status", snapshot.Status,
		"power", snapshot.Power,
		"current", snapshot.CurrentTotal,
		"current_a", snapshot.CurrentPhA,
		"current_b", snapshot.CurrentPhB,
		"current_c", snapshot.CurrentPhC,
		"voltage_a", snapshot.VoltagePhAN,
		"voltage_b", snapshot.VoltagePhBN,
		"voltage_c", snapshot.VoltagePhCN,
		"frequency", snapshot.Frequency,
		"power_factor", snapshot.PowerFactor,
		"energy", snapshot.Energy,
		"dc_power", snapshot.DcPower,
		"dc_voltage", snapshot.DcVoltage,
		"dc_current", snapshot.DcCurrent,
		"temperature", snapshot.Temperature,
	)
	slog.Info(
		"Controls",
		"rated_power", snapshot.RatedPower,
		"limit_pct", snapshot.LimitPct,
		"limit_timeout", snapshot.LimitTimeout,
		"limit_enabled", snapshot.LimitEnabled,
	)

	return nil
}

// runLimit writes the percentage, the revert timeout and the enable flag of the immediate controls.
func runLimit(args []string) error {
	flags := flag.NewFlagSet("limit", flag.ExitOnError)
	url := flags.String("url", "tcp://localhost:502", "modbus url of the gateway")
	unitID := flags.Uint("unit", 1, "modbus unit id")
	pct := flags.Uint("pct", 100, "power limit in percent of the rated power")
	revertSecs := flags.Uint("timeout", 0, "seconds until the limit reverts, 0 uses the gateway default")
	disable := flags.Bool("disable", false, "disable the power limit instead of enabling it")
	flags.Parse(args)

	client := modbus.NewClient(*url, uint8(*unitID), 10*time.Second)
	defer client.Close()

	// the timeout goes first so that the limit is applied with it
	err := client.WriteRegister(sunspec.AddrWMaxLimPctRvrtTms, uint16(*revertSecs))
	if err != nil {
		return err
	}
	err = client.WriteRegister(sunspec.AddrWMaxLimPct, uint16(*pct))
	if err != nil {
		return err
	}

	var enable uint16 = 1
	if *disable {
		enable = 0
	}
	err = client.WriteRegister(sunspec.AddrWMaxLimEna, enable)
	if err != nil {
		return err
	}

	vals, err := client.ReadRegisters(sunspec.AddrWMaxLimPct, 5)
	if err != nil {
		return err
	}
	slog.Info("Power limit written", "pct", vals[0], "timeout", vals[2], "enabled", vals[4])

	return nil
}
