// Package app wires configuration, storage, the tracker store, change hooks
// and the HTTP surface into one process.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kasuganosora/gjtracker/audit"
	"github.com/kasuganosora/gjtracker/cache"
	"github.com/kasuganosora/gjtracker/config"
	dbadapter "github.com/kasuganosora/gjtracker/db"
	"github.com/kasuganosora/gjtracker/hook"
	"github.com/kasuganosora/gjtracker/model"
	"github.com/kasuganosora/gjtracker/scheduler"
	"github.com/kasuganosora/gjtracker/storage"
	"github.com/kasuganosora/gjtracker/tracker"
)

// AuditFeedKey is the cache list holding the change log in kv mode.
const AuditFeedKey = "gjtracker:audit"

const (
	reminderTask     = "reminders"
	auditStopTimeout = 5 * time.Second
)

// App holds the long-lived services of a gjtracker process.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB // nil with the kv backend
	Cache  cache.Cache
	PubSub cache.PubSub
	Repo   storage.Repository
	Sched  *scheduler.Scheduler
	Hooks  *hook.Center
	Audit  audit.Log
	Store  *tracker.Store

	closers []func()
}

// NewLogger returns a development logger in debug mode and a production
// logger otherwise.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// PolicyFor maps tracker.confirm to a non-interactive Confirmer. "ask" has no
// one to ask outside a terminal and declines.
func PolicyFor(confirm string) tracker.Confirmer {
	if confirm == config.ConfirmYes {
		return tracker.AlwaysYes
	}
	return tracker.AlwaysNo
}

// New opens every backend named by cfg and loads the stored state. Extra
// store options are applied last, so callers can override the confirmation
// policy. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...tracker.Option) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	if err := a.open(); err != nil {
		a.Close()
		return nil, err
	}

	a.Hooks = hook.NewCenter()
	a.Hooks.Register(hook.OnStateChanged, 0, "publish", a.publishChange)
	a.Hooks.Register(hook.OnStateChanged, 10, "audit", func(_ context.Context, _ string, ch tracker.Change) error {
		a.Audit.Record(ch)
		return nil
	})

	base := []tracker.Option{
		tracker.WithLogger(logger),
		tracker.WithPersist(storage.PersistFunc(a.Repo, cfg.Storage.Timeout)),
		tracker.WithNotify(a.notify),
		tracker.WithTimer(a.Sched),
		tracker.WithMaxPasses(cfg.Tracker.MaxPasses),
		tracker.WithXPCost(cfg.Tracker.XPCostPerLevel),
		tracker.WithPolicy(PolicyFor(cfg.Tracker.Confirm)),
	}
	a.Store = tracker.NewStore(append(base, opts...)...)

	st, err := a.Repo.Load(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}
	var cycle *tracker.CyclicGraphError
	if err := a.Store.Load(st); err != nil {
		if !errors.As(err, &cycle) {
			a.Close()
			return nil, fmt.Errorf("load state: %w", err)
		}
		logger.Warn("stored graph has a cycle, tiers left unsettled", zap.Strings("items", cycle.Items))
	}
	logger.Info("tracker state loaded",
		zap.String("backend", cfg.Storage.Backend),
		zap.Int("items", len(st.Items)),
		zap.Int("characters", len(st.Characters)))
	return a, nil
}

func (a *App) open() error {
	cfg := a.Config
	if cfg.Storage.Backend == config.BackendSQL {
		db, err := dbadapter.Open(cfg.Database, a.Logger)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		if err := model.AutoMigrate(db); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
		a.Logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))
	}

	backend, err := cache.Open(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	a.Cache, a.PubSub = backend.Cache, backend.PubSub
	a.closers = append(a.closers, func() { _ = backend.Close() })
	a.Logger.Info("Cache initialized", zap.Bool("redis", backend.Redis))

	if a.DB != nil {
		svc := audit.New(a.DB, a.Logger)
		a.Audit = svc
		a.closers = append(a.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditStopTimeout)
			defer cancel()
			if err := svc.Stop(ctx); err != nil {
				a.Logger.Warn("audit log not fully flushed", zap.Error(err))
			}
		})
	} else {
		a.Audit = audit.NewFeed(a.Cache, AuditFeedKey, audit.DefaultFeedSize, a.Logger)
	}

	repo, err := storage.Open(cfg.Storage, a.DB, a.Cache)
	if err != nil {
		return err
	}
	a.Repo = repo

	a.Sched = scheduler.New(a.Logger)
	a.closers = append(a.closers, a.Sched.Stop)
	return nil
}

// Close stops the scheduler, flushes the audit log and closes the backends,
// in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) notify(ch tracker.Change) {
	if err := a.Hooks.Dispatch(context.Background(), ch); err != nil {
		a.Logger.Warn("change hooks failed", zap.String("kind", string(ch.Kind)), zap.Error(err))
	}
}

func (a *App) publishChange(ctx context.Context, _ string, ch tracker.Change) error {
	raw, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.PubSub.Publish(ctx, cache.ChangesChannel, string(raw))
}

// StartReminders logs the overdue goals of "Me" every interval.
func (a *App) StartReminders(interval time.Duration) {
	if interval <= 0 {
		return
	}
	a.Sched.AddTicker(reminderTask, interval, a.logReminders)
}

func (a *App) logReminders() {
	for _, r := range a.Store.DueReminders(time.Now()) {
		a.Logger.Info(r.Text(),
			zap.String("item", r.ItemID),
			zap.Int("level", r.Level),
			zap.Int("target", r.TargetLevel),
			zap.String("due", r.Due))
	}
}
