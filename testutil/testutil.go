package testutil

import (
	"path/filepath"
	"testing"

	"github.com/kasuganosora/gjtracker/cache"
	"github.com/kasuganosora/gjtracker/config"
	dbadapter "github.com/kasuganosora/gjtracker/db"
	"github.com/kasuganosora/gjtracker/model"
	"github.com/kasuganosora/gjtracker/tracker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupTestDB opens a SQLite database in the test's temp dir and runs
// AutoMigrate. Each test gets its own file, so it is safe in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, zap.NewNop())
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupTestCache opens the in-process cache and bus, closed when the test ends.
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	b, err := cache.Open(cache.CacheConfig{})
	require.NoError(t, err, "SetupTestCache: Open")
	t.Cleanup(func() { _ = b.Close() })
	return b.Cache, b.PubSub
}

// NewStore returns an empty store that accepts every confirmation and logs
// nowhere. Extra options are applied after the defaults.
func NewStore(t *testing.T, opts ...tracker.Option) *tracker.Store {
	t.Helper()
	base := []tracker.Option{
		tracker.WithPolicy(tracker.AlwaysYes),
		tracker.WithLogger(zap.NewNop()),
	}
	s := tracker.NewStore(append(base, opts...)...)
	require.NoError(t, s.Load(tracker.NewState()), "NewStore: Load")
	return s
}
