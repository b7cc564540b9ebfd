// Package cache provides the key/value store and pub/sub bus used by the kv
// storage backend, the audit feed and the change stream. Redis is used when
// an address is configured; otherwise everything stays in process.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/kasuganosora/gjtracker/cache/local"
	cacheredis "github.com/kasuganosora/gjtracker/cache/redis"
)

// ChangesChannel is the pub/sub channel carrying JSON-encoded tracker changes.
const ChangesChannel = "tracker:changes"

// Cache is the key/value side. Values are strings; lists hold the newest
// entry first.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// PushCapped prepends value to the list at key and keeps at most limit entries.
	PushCapped(ctx context.Context, key, value string, limit int64) error
	// Newest returns up to n entries of the list at key.
	Newest(ctx context.Context, key string, n int64) ([]string, error)
}

// Message is a received pub/sub message.
type Message struct {
	Channel string
	Payload string
}

// PubSub publishes to and subscribes on named channels. The cancel func
// returned by Subscribe closes the message channel.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
}

// CacheConfig holds configuration for both Redis and the in-process backend.
type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

// IsNotFound reports whether err is a missing-key error from either backend.
func IsNotFound(err error) bool {
	return errors.Is(err, local.ErrNotFound) || errors.Is(err, cacheredis.ErrNotFound)
}

// Backend is an opened cache and bus pair.
type Backend struct {
	Cache  Cache
	PubSub PubSub
	Redis  bool
	close  func() error
}

// Close releases the connection or stops the in-process GC.
func (b *Backend) Close() error { return b.close() }

// Open connects to Redis when cfg.RedisAddr is set, sharing one client
// between the cache and the bus. Otherwise it builds in-process versions.
func Open(cfg CacheConfig) (*Backend, error) {
	if cfg.RedisAddr != "" {
		cl, err := cacheredis.Dial(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{
			Cache:  cl,
			PubSub: redisBus{cl},
			Redis:  true,
			close:  cl.Close,
		}, nil
	}

	lc := local.NewCache(cfg.LocalGCInterval)
	return &Backend{
		Cache:  lc,
		PubSub: localBus{local.NewPubSub(cfg.LocalPubSubBuf)},
		close:  func() error { lc.Close(); return nil },
	}, nil
}

// forward re-types messages from src until it closes.
func forward[T any](src <-chan T, conv func(T) *Message) <-chan *Message {
	out := make(chan *Message, cap(src))
	go func() {
		defer close(out)
		for msg := range src {
			out <- conv(msg)
		}
	}()
	return out
}

type localBus struct{ ps *local.PubSub }

func (b localBus) Publish(ctx context.Context, channel, message string) error {
	return b.ps.Publish(ctx, channel, message)
}

func (b localBus) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	ch, cancel := b.ps.Subscribe(channels...)
	return forward(ch, func(m local.Message) *Message {
		return &Message{Channel: m.Channel, Payload: m.Payload}
	}), cancel, nil
}

type redisBus struct{ cl *cacheredis.Client }

func (b redisBus) Publish(ctx context.Context, channel, message string) error {
	return b.cl.Publish(ctx, channel, message)
}

func (b redisBus) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	ch, cancel, err := b.cl.Subscribe(ctx, channels...)
	if err != nil {
		return nil, nil, err
	}
	return forward(ch, func(m cacheredis.Message) *Message {
		return &Message{Channel: m.Channel, Payload: m.Payload}
	}), cancel, nil
}
