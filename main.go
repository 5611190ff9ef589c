package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cepro/sunspecgateway/config"
	dataplatform "github.com/cepro/sunspecgateway/data_platform"
	"github.com/cepro/sunspecgateway/fleet"
	"github.com/cepro/sunspecgateway/gateway"
	"github.com/cepro/sunspecgateway/modbus"
	"github.com/cepro/sunspecgateway/powerlimit"
	"github.com/cepro/sunspecgateway/registers"
	"github.com/cepro/sunspecgateway/repository"
	"github.com/cepro/sunspecgateway/sunspec"
	"github.com/cepro/sunspecgateway/supabase"
	"github.com/cepro/sunspecgateway/telemetry"
)

func main() {

	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Read(*configPath)
	if err != nil {
		slog.Error("Failed to read config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	err = logLevel.UnmarshalText([]byte(cfg.LogLevel))
	if err != nil {
		slog.Error("Failed to parse log level", "level", cfg.LogLevel, "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if !cfg.SunSpec.Enabled {
		slog.Info("SunSpec is disabled, nothing to do")
		return
	}

	slog.Info("Starting SunSpec gateway...", "inverters", len(cfg.SunSpec.Inverters), "remote_control", cfg.SunSpec.RemoteControl)

	ctx, cancel := context.WithCancel(context.Background())

	store := config.NewStore(cfg.SunSpec)
	inverters := fleet.NewSimulated(cfg.SunSpec, cfg.SimulatedFleet.IrradianceFactor)

	sunspecMap := sunspec.New(registers.NewTable())
	err = sunspecMap.Init(cfg.SunSpec, cfg.Device)
	if err != nil {
		slog.Error("Failed to initialise SunSpec map", "error", err)
		return
	}

	limitCommands := make(chan telemetry.LimitCommand, 25)
	controller := powerlimit.New(store, inverters, powerlimit.NewMonotonicClock())
	controller.Attach(sunspecMap.Table())
	controller.EmitCommands(limitCommands, cfg.Device.ID)

	server, err := modbus.NewServer(cfg.Server)
	if err != nil {
		slog.Error("Failed to create modbus server", "error", err)
		return
	}

	gw := gateway.New(gateway.Config{
		DeviceID:        cfg.Device.ID,
		TickInterval:    time.Duration(cfg.TickIntervalMs) * time.Millisecond,
		ReadingInterval: time.Duration(cfg.ReadingIntervalSecs) * time.Second,
		Map:             sunspecMap,
		Controller:      controller,
		Source:          store,
		Fleet:           inverters,
		Daylight:        gateway.DaylightFunc(cfg.Daylight.Contains),
		Requests:        server.Requests(),
	})
	store.Observe(gw.SetManufacturerModel)
	go gw.Run(ctx)

	err = server.Start()
	if err != nil {
		slog.Error("Failed to start modbus server", "error", err)
		cancel()
		return
	}

	if cfg.DataPlatform != nil {
		dataPlatform, err := newDataPlatform(*cfg.DataPlatform)
		if err != nil {
			slog.Error("Failed to create data platform", "error", err)
			server.Stop()
			cancel()
			return
		}
		go dataPlatform.Run(ctx)

		// the fleet readings and limit commands are buffered and uploaded by the data platform
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case reading := <-gw.Readings:
					dataPlatform.FleetReadings <- reading
				case command := <-limitCommands:
					dataPlatform.LimitCommands <- command
				}
			}
		}()
	} else {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case reading := <-gw.Readings:
					slog.Debug("Fleet reading", "power", reading.PowerTotal, "status", reading.Status)
				case command := <-limitCommands:
					slog.Debug("Limit command", "serial", command.Serial, "target_power", command.TargetPower, "cause", command.Cause)
				}
			}
		}()
	}

	// wait for a ctrl-c interrupt before exiting, a SIGHUP reloads the SunSpec configuration
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range signalChan {
		if sig != syscall.SIGHUP {
			break
		}
		reloaded, err := config.Read(*configPath)
		if err != nil {
			slog.Error("Failed to reload config", "path", *configPath, "error", err)
			continue
		}
		store.Update(reloaded.SunSpec)
		slog.Info("Reloaded SunSpec configuration", "inverters", len(reloaded.SunSpec.Inverters))
	}

	server.Stop()

	// cancel any open go-routines and give them up to 100ms to gracefully shutdown
	cancel()
	time.Sleep(time.Millisecond * 100)

	slog.Info("Exiting")
}

func newDataPlatform(conf config.DataPlatformConfig) (*dataplatform.DataPlatform, error) {
	supabaseClient, err := supabase.New(conf.Supabase.Url, os.Getenv("SUPABASE_KEY"), os.Getenv("SUPABASE_USER_KEY"), conf.Supabase.Schema)
	if err != nil {
		return nil, err
	}

	repo, err := repository.New(conf.BufferPath)
	if err != nil {
		return nil, err
	}

	return dataplatform.New(supabaseClient, repo, time.Duration(conf.UploadIntervalSecs)*time.Second), nil
}
