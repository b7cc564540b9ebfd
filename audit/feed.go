package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kasuganosora/gjtracker/cache"
	"github.com/kasuganosora/gjtracker/model"
	"github.com/kasuganosora/gjtracker/tracker"
	"go.uber.org/zap"
)

// DefaultFeedSize caps the cache-backed feed.
const DefaultFeedSize = 500

// Feed keeps the most recent changes as a capped list in the cache. It is the
// audit log of the kv storage backend, where there is no SQL database.
type Feed struct {
	c       cache.Cache
	key     string
	size    int64
	timeout time.Duration
	logger  *zap.Logger
}

// NewFeed stores entries under key, keeping at most size of them.
func NewFeed(c cache.Cache, key string, size int, logger *zap.Logger) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{c: c, key: key, size: int64(size), timeout: 2 * time.Second, logger: logger}
}

// Record pushes the change onto the feed and trims it. Failures are logged.
func (f *Feed) Record(ch tracker.Change) {
	raw, err := json.Marshal(entryFor(ch))
	if err != nil {
		f.logger.Error("audit feed encode", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	if err := f.c.PushCapped(ctx, f.key, string(raw), f.size); err != nil {
		f.logger.Error("audit feed push", zap.Error(err), zap.String("action", string(ch.Kind)))
	}
}

// Recent returns up to limit entries, newest first.
func (f *Feed) Recent(ctx context.Context, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		return []model.AuditLog{}, nil
	}
	raws, err := f.c.Newest(ctx, f.key, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("audit feed: %w", err)
	}
	out := make([]model.AuditLog, 0, len(raws))
	for _, raw := range raws {
		var e model.AuditLog
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			f.logger.Warn("audit feed: skipping bad entry", zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
