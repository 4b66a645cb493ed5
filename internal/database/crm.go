package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adima959/vl-marketing-tool-sub006/internal/config"
	"github.com/adima959/vl-marketing-tool-sub006/internal/crm"
)

// CRMManager owns the conversion store connection. Production points it at
// the CRM's MySQL endpoint; development and tests run against a local SQLite
// replica with the same schema.
type CRMManager struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

// NewCRMManager creates the CRM store manager. Init must be called before
// GetConnection.
func NewCRMManager(cfg *config.Config, logger *slog.Logger) *CRMManager {
	return &CRMManager{cfg: cfg, logger: logger}
}

// Init opens the CRM store connection with the configured driver.
func (cm *CRMManager) Init() error {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cm.cfg.CRMDatabaseType {
	case config.MySQLDatabase:
		db, err = gorm.Open(mysql.Open(cm.cfg.GetCRMDatabaseDSN()), gormCfg)
	case config.SQLiteDatabase:
		db, err = gorm.Open(sqlite.Open(cm.cfg.GetCRMDatabaseDSN()), gormCfg)
	default:
		return fmt.Errorf("unsupported CRM database type: %s", cm.cfg.CRMDatabaseType)
	}
	if err != nil {
		return fmt.Errorf("failed to connect CRM database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access CRM connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cm.cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(cm.cfg.GetMaxIdleConns())

	cm.db = db
	cm.logger.Info("CRM database connected", slog.String("type", cm.cfg.CRMDatabaseType))
	return nil
}

// GetConnection returns the CRM store handle.
func (cm *CRMManager) GetConnection() *gorm.DB {
	return cm.db
}

// MigrateDatabase creates the orders schema. Only the SQLite replica is
// migrated; the MySQL endpoint is owned by the CRM itself.
func (cm *CRMManager) MigrateDatabase() error {
	if cm.cfg.CRMDatabaseType != config.SQLiteDatabase {
		cm.logger.Info("Skipping CRM migration on external database",
			slog.String("type", cm.cfg.CRMDatabaseType))
		return nil
	}

	if cm.db == nil {
		return gorm.ErrInvalidDB
	}
	if err := cm.db.AutoMigrate(&crm.Order{}); err != nil {
		cm.logger.Error("Failed to auto-migrate CRM database", slog.Any("error", err))
		return err
	}

	cm.logger.Info("CRM database migration completed successfully")
	return nil
}
