package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DSN turns a file path into a DSN with a busy timeout and foreign keys on.
// ":memory:" and "file:" DSNs pass through untouched.
func DSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return path + "?_busy_timeout=5000&_foreign_keys=on"
}

// Open opens the SQLite file at path, creating its directory if needed. The
// pool holds a single connection.
func Open(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	if dsn := DSN(path); dsn != path {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create dir: %w", err)
			}
		}
	}
	db, err := gorm.Open(sqlite.Open(DSN(path)), gcfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
