package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kasuganosora/gjtracker/cache"
	"github.com/kasuganosora/gjtracker/tracker"
)

// KVRepository keeps the state as one JSON document under a single key.
type KVRepository struct {
	c   cache.Cache
	key string
}

// NewKVRepository stores the state under key.
func NewKVRepository(c cache.Cache, key string) *KVRepository {
	return &KVRepository{c: c, key: key}
}

func (r *KVRepository) Load(ctx context.Context) (*tracker.State, error) {
	raw, err := r.c.Get(ctx, r.key)
	if cache.IsNotFound(err) {
		return tracker.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("kv load %s: %w", r.key, err)
	}
	st := tracker.NewState()
	if err := json.Unmarshal([]byte(raw), st); err != nil {
		return nil, fmt.Errorf("kv load %s: decode: %w", r.key, err)
	}
	return st, nil
}

func (r *KVRepository) Save(ctx context.Context, st *tracker.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("kv save: encode: %w", err)
	}
	if err := r.c.Set(ctx, r.key, string(raw), 0); err != nil {
		return fmt.Errorf("kv save %s: %w", r.key, err)
	}
	return nil
}
