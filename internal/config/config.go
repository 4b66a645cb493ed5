// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types. The tracker store is always SQLite; the CRM store can be
// the local SQLite replica or a MySQL endpoint.
const (
	SQLiteDatabase = "sqlite"
	MySQLDatabase  = "mysql"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`
	APIKey      string   `mapstructure:"apikey"`
	Domain      string   `mapstructure:"domain"`

	// File paths
	StoragePath           string `mapstructure:"storagepath"`
	TrackerDatabasePath   string `mapstructure:"trackerdbpath"`
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// CRM store settings
	CRMDatabaseType string `mapstructure:"crmdbtype"`
	CRMDatabaseDSN  string `mapstructure:"crmdbdsn"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Tracker database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`

	// Data retention settings
	VisitsRetentionDays int `mapstructure:"visitsretentiondays"`
}

var (
	cfg  *Config
	once sync.Once
)

const defaultPrivateKey = "88888888888888888888888888888888"

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		// Set defaults
		v.SetDefault("appname", "vlmt")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", defaultPrivateKey)
		v.SetDefault("storagepath", "storage")
		v.SetDefault("publicdir", "web/dist/assets")
		v.SetDefault("publicassetsurlprefix", "/")
		v.SetDefault("crmdbtype", SQLiteDatabase)
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("jobintervalseconds", 60)
		v.SetDefault("visitsretentiondays", 365)

		// Bind environment variables
		v.BindEnv("appname", "VLMT_APP_NAME")
		v.BindEnv("appport", "VLMT_APP_PORT")
		v.BindEnv("environment", "VLMT_ENV")
		v.BindEnv("loglevel", "VLMT_LOG_LEVEL")
		v.BindEnv("privatekey", "VLMT_PRIVATE_KEY")
		v.BindEnv("apikey", "VLMT_API_KEY")
		v.BindEnv("domain", "VLMT_DOMAIN")
		v.BindEnv("storagepath", "VLMT_STORAGE_PATH")
		v.BindEnv("trackerdbpath", "VLMT_TRACKER_DB_PATH")
		v.BindEnv("publicdir", "VLMT_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "VLMT_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("crmdbtype", "VLMT_CRM_DB_TYPE")
		v.BindEnv("crmdbdsn", "VLMT_CRM_DB_DSN")
		v.BindEnv("logsdir", "VLMT_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "VLMT_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "VLMT_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "VLMT_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "VLMT_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "VLMT_DB_MAX_IDLE_CONNS")
		v.BindEnv("jobintervalseconds", "VLMT_JOB_INTERVAL_SECONDS")
		v.BindEnv("visitsretentiondays", "VLMT_VISITS_RETENTION_DAYS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.TrackerDatabasePath = cfg.GetTrackerDatabasePath()

		if cfg.PrivateKey == "" {
			log.Fatal("Private key is required")
		}
		if cfg.IsProduction() && cfg.PrivateKey == defaultPrivateKey {
			log.Fatal("Production requires a unique VLMT_PRIVATE_KEY (cannot use default)")
		}
		if cfg.IsProduction() && cfg.APIKey == "" {
			log.Fatal("Production requires VLMT_API_KEY to protect the reporting API")
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validCRMTypes := map[string]bool{
		SQLiteDatabase: true,
		MySQLDatabase:  true,
	}
	if !validCRMTypes[c.CRMDatabaseType] {
		return fmt.Errorf("invalid CRM database type: %s", c.CRMDatabaseType)
	}
	if c.CRMDatabaseType == MySQLDatabase && c.CRMDatabaseDSN == "" {
		return fmt.Errorf("CRM database type %s requires VLMT_CRM_DB_DSN", MySQLDatabase)
	}

	return nil
}

// GetTrackerDatabasePath returns the tracker store path, deriving a
// per-environment file under the storage directory when not set explicitly.
func (c *Config) GetTrackerDatabasePath() string {
	if c.TrackerDatabasePath == "" {
		c.TrackerDatabasePath = filepath.Join(c.StoragePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.TrackerDatabasePath
}

// GetCRMDatabaseDSN returns the CRM store connection string. For the SQLite
// replica an unset DSN falls back to a per-environment file next to the
// tracker database.
func (c *Config) GetCRMDatabaseDSN() string {
	if c.CRMDatabaseDSN != "" {
		return c.CRMDatabaseDSN
	}
	return filepath.Join(c.StoragePath,
		fmt.Sprintf("%s-crm-%s.db", c.AppName, c.Environment))
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the primary (tracker) database connection string
// (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetTrackerDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1 (required for E2E test stability)
// - Development/Production: 10 (allows concurrent reads for parallel report queries)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1 (matches MaxOpenConns for test stability)
// - Development/Production: 5 (keep half the connections warm for reuse)
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
