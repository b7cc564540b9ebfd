// Package local keeps cache values and pub/sub in process, for setups
// without Redis.
package local

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

const defaultGCInterval = 30 * time.Second

type value struct {
	data     string
	expireAt time.Time // zero means no expiry
}

func (v value) expired(now time.Time) bool {
	return !v.expireAt.IsZero() && now.After(v.expireAt)
}

// Cache holds string values with optional expiry and capped lists.
type Cache struct {
	mu     sync.RWMutex
	kv     map[string]value
	lists  map[string][]string
	stopGC chan struct{}
	once   sync.Once
}

// NewCache starts a Cache whose expired values are dropped every gcInterval
// (30s when non-positive).
func NewCache(gcInterval time.Duration) *Cache {
	if gcInterval <= 0 {
		gcInterval = defaultGCInterval
	}
	c := &Cache{
		kv:     make(map[string]value),
		lists:  make(map[string][]string),
		stopGC: make(chan struct{}),
	}
	go c.runGC(gcInterval)
	return c
}

// Close stops the GC goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stopGC) })
}

func (c *Cache) runGC(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			c.mu.Lock()
			for k, v := range c.kv {
				if v.expired(now) {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	v, ok := c.kv[key]
	c.mu.RUnlock()
	if !ok || v.expired(time.Now()) {
		return "", ErrNotFound
	}
	return v.data, nil
}

func (c *Cache) Set(_ context.Context, key, data string, ttl time.Duration) error {
	v := value{data: data}
	if ttl > 0 {
		v.expireAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.kv[key] = v
	c.mu.Unlock()
	return nil
}

// PushCapped prepends data and drops entries beyond limit. A non-positive
// limit empties the list.
func (c *Cache) PushCapped(_ context.Context, key, data string, limit int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit <= 0 {
		delete(c.lists, key)
		return nil
	}
	old := c.lists[key]
	keep := min(int64(len(old)), limit-1)
	l := make([]string, 0, keep+1)
	l = append(l, data)
	c.lists[key] = append(l, old[:keep]...)
	return nil
}

// Newest returns a copy of the first n entries.
func (c *Cache) Newest(_ context.Context, key string, n int64) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l := c.lists[key]
	n = max(min(n, int64(len(l))), 0)
	return append([]string{}, l[:n]...), nil
}
