// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"fmt"     // DSN formatting
	"strings" // Database names from test names
	"testing" // Test helpers

	"finance_tracker/internal/db" // Schema migration

	"github.com/stretchr/testify/require" // Test assertions
	"gorm.io/driver/sqlite"               // SQLite driver for GORM
	"gorm.io/gorm"                        // GORM ORM library
	"gorm.io/gorm/logger"                 // Silenced SQL logging
)

// New returns a migrated SQLite database private to t.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}
