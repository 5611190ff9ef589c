package dataplatform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cepro/sunspecgateway/repository"
	"github.com/cepro/sunspecgateway/telemetry"
)

const (
	fleetReadingsTable = "sunspec_fleet_readings"
	limitCommandsTable = "sunspec_limit_commands"

	// uploadChunkLimit defines how many data points we can upload in one supabase HTTP request
	uploadChunkLimit = 100
)

// Uploader inserts rows into a remote table. It is implemented by the supabase client.
type Uploader interface {
	Upload(table string, rows interface{}) error
}

// DataPlatform handles the streaming of telemetry to Supabase.
// Put new fleet readings and limit commands onto the appropriate channels, they will be bufferred on disk in a SQLite
// database before being uploaded.
type DataPlatform struct {
	FleetReadings chan telemetry.FleetReading
	LimitCommands chan telemetry.LimitCommand

	uploadInterval time.Duration
	repository     *repository.Repository
	uploader       Uploader
	logger         *slog.Logger
}

func New(uploader Uploader, repository *repository.Repository, uploadInterval time.Duration) *DataPlatform {
	return &DataPlatform{
		FleetReadings:  make(chan telemetry.FleetReading, 25), // a small buffer to allow SQLite to catch up in case the disk is slow
		LimitCommands:  make(chan telemetry.LimitCommand, 25),
		uploadInterval: uploadInterval,
		repository:     repository,
		uploader:       uploader,
		logger:         slog.Default().With("component", "data_platform"),
	}
}

// Run loops until the context is cancelled, storing readings and commands as they arrive and uploading them
// periodically.
func (d *DataPlatform) Run(ctx context.Context) {

	uploadTicker := time.NewTicker(d.uploadInterval)
	defer uploadTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case reading := <-d.FleetReadings:
			err := d.repository.AddFleetReading(reading)
			if err != nil {
				d.logger.Error("Failed to persist fleet reading", "error", err)
				continue
			}
			d.logger.Debug("Stored fleet reading")

		case command := <-d.LimitCommands:
			err := d.repository.AddLimitCommand(command)
			if err != nil {
				d.logger.Error("Failed to persist limit command", "error", err)
				continue
			}
			d.logger.Debug("Stored limit command")

		case <-uploadTicker.C:
			d.attemptUpload()
		}
	}
}

// attemptUpload attempts to upload the telemetry from the repository. Fresh records are tried before the ones that
// have already failed an upload at least once.
func (d *DataPlatform) attemptUpload() {
	for _, fresh := range []bool{true, false} {
		readings, err := d.repository.GetFleetReadings(uploadChunkLimit, fresh)
		if err != nil {
			d.logger.Error("Failed to query fleet readings", "fresh", fresh, "error", err)
		} else if len(readings) > 0 {
			err = d.handleFleetReadings(readings)
			if err != nil {
				d.logger.Error("Failed to handle fleet readings", "fresh", fresh, "error", err)
			}
		}

		commands, err := d.repository.GetLimitCommands(uploadChunkLimit, fresh)
		if err != nil {
			d.logger.Error("Failed to query limit commands", "fresh", fresh, "error", err)
		} else if len(commands) > 0 {
			err = d.handleLimitCommands(commands)
			if err != nil {
				d.logger.Error("Failed to handle limit commands", "fresh", fresh, "error", err)
			}
		}
	}
}

// handleFleetReadings attempts to upload the given readings. If successfull, it deletes the readings from the database,
// if unsuccessful, it increments the 'upload attempt count' column and leaves the readings for another time.
func (d *DataPlatform) handleFleetReadings(readings []repository.StoredFleetReading) error {

	uploadErr := d.uploader.Upload(fleetReadingsTable, convertFleetReadings(readings))
	if uploadErr != nil {
		uploadErr := fmt.Errorf("upload failed: %w", uploadErr)
		errInc := d.repository.IncrementFleetReadingAttempts(readings)
		if errInc != nil {
			return fmt.Errorf("%w: increment upload attempt count: %w", uploadErr, errInc)
		}
		return uploadErr
	}

	// if the delete fails the readings will be uploaded again, supabase rejects the duplicates on their id
	err := d.repository.DeleteFleetReadings(readings)
	if err != nil {
		return fmt.Errorf("delete fleet readings: %w", err)
	}

	d.logger.Info("Uploaded readings", "db_table", fleetReadingsTable, "db_records", len(readings))
	return nil
}

// handleLimitCommands is like handleFleetReadings, for the recorded limit commands.
func (d *DataPlatform) handleLimitCommands(commands []repository.StoredLimitCommand) error {

	uploadErr := d.uploader.Upload(limitCommandsTable, convertLimitCommands(commands))
	if uploadErr != nil {
		uploadErr := fmt.Errorf("upload failed: %w", uploadErr)
		errInc := d.repository.IncrementLimitCommandAttempts(commands)
		if errInc != nil {
			return fmt.Errorf("%w: increment upload attempt count: %w", uploadErr, errInc)
		}
		return uploadErr
	}

	err := d.repository.DeleteLimitCommands(commands)
	if err != nil {
		return fmt.Errorf("delete limit commands: %w", err)
	}

	d.logger.Info("Uploaded readings", "db_table", limitCommandsTable, "db_records", len(commands))
	return nil
}
