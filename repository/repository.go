package repository

import (
	"fmt"

	"github.com/cepro/sunspecgateway/telemetry"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repository stores telemetry to the local file system (sqlite) before it is uploaded to Supabase.
type Repository struct {
	db *gorm.DB
}

func New(path string) (*Repository, error) {

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite allows a single writer, sharing one connection avoids "database is locked" errors
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Migrate the schema
	err = db.AutoMigrate(&StoredFleetReading{}, &StoredLimitCommand{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repository{
		db: db,
	}, nil
}

func (r *Repository) AddFleetReading(reading telemetry.FleetReading) error {
	stored := newStoredFleetReading(reading)
	result := r.db.Create(&stored)
	return result.Error
}

func (r *Repository) AddLimitCommand(command telemetry.LimitCommand) error {
	stored := newStoredLimitCommand(command)
	result := r.db.Create(&stored)
	return result.Error
}

// GetFleetReadings returns up to `limit` readings, newest first. When `fresh` is true only readings that have never been
// uploaded are returned, otherwise only those that have failed at least one upload.
func (r *Repository) GetFleetReadings(limit int, fresh bool) ([]StoredFleetReading, error) {
	var readings []StoredFleetReading

	result := r.pending(limit, fresh).Find(&readings)
	if result.Error != nil {
		return nil, result.Error
	}
	return readings, nil
}

// GetLimitCommands is like GetFleetReadings, for the recorded limit commands.
func (r *Repository) GetLimitCommands(limit int, fresh bool) ([]StoredLimitCommand, error) {
	var commands []StoredLimitCommand

	result := r.pending(limit, fresh).Find(&commands)
	if result.Error != nil {
		return nil, result.Error
	}
	return commands, nil
}

func (r *Repository) pending(limit int, fresh bool) *gorm.DB {
	query := r.db.Limit(limit).Order("upload_attempt_count asc, time desc")
	if fresh {
		return query.Where("upload_attempt_count = ?", 0)
	}
	return query.Where("upload_attempt_count > ?", 0)
}

func (r *Repository) DeleteFleetReadings(readings []StoredFleetReading) error {
	if len(readings) == 0 {
		return nil
	}
	result := r.db.Delete(&readings)
	return result.Error
}

func (r *Repository) DeleteLimitCommands(commands []StoredLimitCommand) error {
	if len(commands) == 0 {
		return nil
	}
	result := r.db.Delete(&commands)
	return result.Error
}

func (r *Repository) IncrementFleetReadingAttempts(readings []StoredFleetReading) error {
	if len(readings) == 0 {
		return nil
	}
	result := r.db.Model(&readings).UpdateColumn("upload_attempt_count", gorm.Expr("upload_attempt_count + ?", 1))
	return result.Error
}

func (r *Repository) IncrementLimitCommandAttempts(commands []StoredLimitCommand) error {
	if len(commands) == 0 {
		return nil
	}
	result := r.db.Model(&commands).UpdateColumn("upload_attempt_count", gorm.Expr("upload_attempt_count + ?", 1))
	return result.Error
}
