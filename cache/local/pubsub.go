package local

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

const defaultBuf = 256

// Message is an in-process pub/sub message.
type Message struct {
	Channel string
	Payload string
}

type subscriber struct {
	ch       chan Message
	channels []string
	once     sync.Once
}

// PubSub fans messages out to in-process subscribers. A subscriber whose
// buffer is full misses the message instead of blocking the publisher.
type PubSub struct {
	mu      sync.RWMutex
	subs    map[string][]*subscriber
	bufSize int
	dropped atomic.Int64
}

// NewPubSub creates a PubSub with the given per-subscriber buffer
// (256 when non-positive).
func NewPubSub(bufSize int) *PubSub {
	if bufSize <= 0 {
		bufSize = defaultBuf
	}
	return &PubSub{subs: make(map[string][]*subscriber), bufSize: bufSize}
}

func (ps *PubSub) Publish(_ context.Context, channel, payload string) error {
	msg := Message{Channel: channel, Payload: payload}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, s := range ps.subs[channel] {
		select {
		case s.ch <- msg:
		default:
			ps.dropped.Add(1)
		}
	}
	return nil
}

// Dropped returns how many messages were discarded for full buffers.
func (ps *PubSub) Dropped() int64 { return ps.dropped.Load() }

// Subscribe registers for channels. The cancel func unsubscribes and closes
// the returned channel; calling it again is a no-op.
func (ps *PubSub) Subscribe(channels ...string) (<-chan Message, func()) {
	s := &subscriber{ch: make(chan Message, ps.bufSize), channels: channels}

	ps.mu.Lock()
	for _, c := range channels {
		ps.subs[c] = append(ps.subs[c], s)
	}
	ps.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			ps.mu.Lock()
			defer ps.mu.Unlock()
			for _, c := range s.channels {
				ps.subs[c] = slices.DeleteFunc(ps.subs[c], func(x *subscriber) bool { return x == s })
				if len(ps.subs[c]) == 0 {
					delete(ps.subs, c)
				}
			}
			close(s.ch)
		})
	}
	return s.ch, cancel
}
