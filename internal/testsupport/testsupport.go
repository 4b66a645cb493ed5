package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adima959/vl-marketing-tool-sub006/internal"
	"github.com/adima959/vl-marketing-tool-sub006/internal/config"
	"github.com/adima959/vl-marketing-tool-sub006/internal/crm"
	"github.com/adima959/vl-marketing-tool-sub006/internal/visits"
)

// testDBCache caches test databases by store kind and test name so multiple
// calls within the same test share the same database.
var (
	testDBCache   = make(map[string]*gorm.DB)
	testDBCacheMu sync.Mutex
)

// TestDBManager wraps cartridge's TestDBManager so an in-memory store can
// stand in for the tracker manager.
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// SetupTrackerDB creates an in-memory tracker store with the visits schema
// migrated.
func SetupTrackerDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, "tracker", &cache.CacheRecord{}, &visits.Visit{})
}

// SetupCRMDB creates an in-memory CRM store replica with the orders schema
// migrated.
func SetupCRMDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, "crm", &crm.Order{})
}

// SetupTestStores creates both stores for engine-level tests.
func SetupTestStores(t *testing.T) (*gorm.DB, *gorm.DB) {
	t.Helper()
	return SetupTrackerDB(t), SetupCRMDB(t)
}

// openTestDB opens a named in-memory database with cache=shared so multiple
// connections within a test reach the same data. Databases are cached by
// store kind and root test name to survive t.Run closures capturing the
// outer t.
func openTestDB(t *testing.T, kind string, models ...interface{}) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}
	cacheKey := kind + ":" + rootName

	testDBCacheMu.Lock()
	if db, exists := testDBCache[cacheKey]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%s_%d?mode=memory&cache=shared", kind, sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open %s test database: %v", kind, err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("testsupport: failed to migrate %s models: %v", kind, err)
	}

	testDBCacheMu.Lock()
	testDBCache[cacheKey] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, cacheKey)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// InsertVisits stores the given visits, failing the test on error.
func InsertVisits(t *testing.T, db *gorm.DB, rows []visits.Visit) {
	t.Helper()
	require.NoError(t, db.CreateInBatches(rows, 100).Error)
}

// InsertOrders stores the given orders, failing the test on error.
func InsertOrders(t *testing.T, db *gorm.DB, rows []crm.Order) {
	t.Helper()
	require.NoError(t, db.CreateInBatches(rows, 100).Error)
}

// CleanTables clears the given tables, or every non-system table when none
// are named.
func CleanTables(db *gorm.DB, tables []string) {
	if len(tables) == 0 {
		var tableNames []string
		db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)
		tables = tableNames
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateAPITestApp creates a test Fiber app with all routes mounted over
// the given stores. The API key is applied to the test config so request
// auth can be exercised.
func CreateAPITestApp(t *testing.T, trackerDB, crmDB *gorm.DB, apiKey string) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(trackerDB)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test
	appConfig.APIKey = apiKey

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv, crmDB)
	return srv.App()
}

// Day returns a UTC timestamp on the given day, offset into working hours so
// visit-window boundaries are unambiguous.
func Day(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}
