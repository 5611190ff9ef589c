package repository

import "github.com/cepro/sunspecgateway/telemetry"

// StoredFleetReading represents a fleet reading that is persisted to the SQLite database, and includes a count of upload attempts.
type StoredFleetReading struct {
	telemetry.FleetReading
	UploadAttemptCount uint
}

// StoredLimitCommand represents a power limit command that is persisted to the SQLite database, and includes a count of upload attempts.
type StoredLimitCommand struct {
	telemetry.LimitCommand
	UploadAttemptCount uint
}

func newStoredFleetReading(reading telemetry.FleetReading) StoredFleetReading {
	return StoredFleetReading{
		FleetReading:       reading,
		UploadAttemptCount: 0,
	}
}

func newStoredLimitCommand(command telemetry.LimitCommand) StoredLimitCommand {
	return StoredLimitCommand{
		LimitCommand:       command,
		UploadAttemptCount: 0,
	}
}
