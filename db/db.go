// Package db opens the gorm connection behind the sql storage backend and
// the audit log.
package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kasuganosora/gjtracker/config"
	dbmysql "github.com/kasuganosora/gjtracker/db/mysql"
	dbsqlite "github.com/kasuganosora/gjtracker/db/sqlite"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// SlowQuery is the duration above which a statement is logged as slow.
const SlowQuery = 200 * time.Millisecond

// Open connects to the database named by cfg.Mode. Query errors and slow
// statements go to log.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: NewGormLogger(log, SlowQuery)}
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath, gcfg)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, dbmysql.Pool{
			MaxOpen: cfg.MySQLMaxOpen,
			MaxIdle: cfg.MySQLMaxIdle,
			MaxLife: cfg.MySQLMaxLife,
		}, gcfg)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
