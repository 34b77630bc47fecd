package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lens-server-go/internal/platform/storage/migrations"
)

// Global database instance shared by repositories.
var db *gorm.DB

// InitDatabase opens the SQLite database at the given DSN and applies all
// pending migrations. Calling it twice is a no-op.
func InitDatabase(dsn string) error {
	if db != nil {
		return nil
	}

	if dsn == "" {
		dsn = filepath.Join("data", "lens.db")
	}
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	var err error
	db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	return Migrate(db)
}

// Migrate runs the full migration set against the given handle. Exposed so
// tests can run against their own in-memory databases.
func Migrate(handle *gorm.DB) error {
	manager := NewMigrationManager(handle)
	manager.AddMigration(&migrations.Migration001Invocations{})

	if err := manager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// GetDB returns the global database instance.
func GetDB() *gorm.DB {
	if db == nil {
		panic("database not initialized, call InitDatabase() first")
	}
	return db
}
