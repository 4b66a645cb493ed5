package database

import (
	"log/slog"

	"github.com/karloscodes/cartridge/cache"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"github.com/adima959/vl-marketing-tool-sub006/internal/config"
	"github.com/adima959/vl-marketing-tool-sub006/internal/visits"
)

// TrackerManager wraps cartridge's sqlite.Manager for the visit tracker
// store, the application's primary database.
type TrackerManager struct {
	*sqlite.Manager
	logger *slog.Logger
}

// NewTrackerManager creates the tracker store manager using cartridge's
// sqlite.Manager.
func NewTrackerManager(cfg *config.Config, logger *slog.Logger) *TrackerManager {
	sqliteCfg := sqlite.Config{
		Path:         cfg.GetTrackerDatabasePath(),
		MaxOpenConns: cfg.GetMaxOpenConns(),
		MaxIdleConns: cfg.GetMaxIdleConns(),
		Logger:       logger,
		EnableWAL:    true,
		TxImmediate:  true,
		BusyTimeout:  5000,
	}

	return &TrackerManager{
		Manager: sqlite.NewManager(sqliteCfg),
		logger:  logger,
	}
}

// Init initializes the tracker store connection.
func (tm *TrackerManager) Init() error {
	_, err := tm.Manager.Connect()
	return err
}

// MigrateDatabase runs the tracker store migrations.
func (tm *TrackerManager) MigrateDatabase() error {
	db := tm.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&cache.CacheRecord{},
			&visits.Visit{},
		)
	})
	if err != nil {
		tm.logger.Error("Failed to auto-migrate tracker database", slog.Any("error", err))
		return err
	}

	if err := tm.CheckpointWAL("FULL"); err != nil {
		tm.logger.Warn("Failed to checkpoint WAL after migration", slog.Any("error", err))
	}

	tm.logger.Info("Tracker database migration completed successfully")
	return nil
}
