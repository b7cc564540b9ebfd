// Package storage persists the tracker state either as relational rows
// (gorm, SQLite or MySQL) or as one JSON document in the cache (Redis or
// in-process), the way the browser build kept it in localStorage.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/kasuganosora/gjtracker/cache"
	"github.com/kasuganosora/gjtracker/config"
	"github.com/kasuganosora/gjtracker/tracker"
	"gorm.io/gorm"
)

// Repository loads and saves the whole tracker state.
type Repository interface {
	// Load returns the stored state, or an empty state if nothing was saved yet.
	Load(ctx context.Context) (*tracker.State, error)
	Save(ctx context.Context, st *tracker.State) error
}

// Open picks the repository for the configured backend. db is used by the
// sql backend, c by the kv backend; the other may be nil.
func Open(cfg config.StorageConfig, db *gorm.DB, c cache.Cache) (Repository, error) {
	switch cfg.Backend {
	case config.BackendSQL:
		if db == nil {
			return nil, fmt.Errorf("storage: sql backend needs a database")
		}
		return NewSQLRepository(db), nil
	case config.BackendKV:
		if c == nil {
			return nil, fmt.Errorf("storage: kv backend needs a cache")
		}
		return NewKVRepository(c, cfg.Key), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

// PersistFunc adapts repo to the store's persist hook, bounding each save by
// timeout (no bound when zero).
func PersistFunc(repo Repository, timeout time.Duration) tracker.PersistFunc {
	return func(st *tracker.State) error {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return repo.Save(ctx, st)
	}
}
