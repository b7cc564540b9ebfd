package hook

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/kasuganosora/gjtracker/tracker"
)

// ErrInterrupt signals that a handler wants to stop further processing.
var ErrInterrupt = errors.New("hook interrupted")

// Event names. OnStateChanged fires for every change, before the
// kind-specific event.
const (
	OnStateChanged = "on_state_changed"
	OnLevelUp      = "on_level_up"
	OnEvolve       = "on_evolve"
	OnImport       = "on_import"
	OnBoostExpired = "on_boost_expired"
)

// EventFor maps a change kind to its kind-specific event, or "" if none.
func EventFor(kind tracker.ChangeKind) string {
	switch kind {
	case tracker.ChangeLevelUp:
		return OnLevelUp
	case tracker.ChangeEvolved:
		return OnEvolve
	case tracker.ChangeImported, tracker.ChangeStateReplaced:
		return OnImport
	case tracker.ChangeBoostExpired:
		return OnBoostExpired
	}
	return ""
}

// HookFn handles one change. Returning ErrInterrupt stops the remaining
// handlers of the same event.
type HookFn func(ctx context.Context, event string, ch tracker.Change) error

type hookEntry struct {
	priority int
	fn       HookFn
	name     string
}

// Center manages event hook registrations.
type Center struct {
	mu    sync.RWMutex
	hooks map[string][]*hookEntry
}

// NewCenter creates a new Center.
func NewCenter() *Center {
	return &Center{hooks: make(map[string][]*hookEntry)}
}

// Register adds a HookFn for the given event with the given priority (lower runs first).
// name is used for Unregister.
func (c *Center) Register(event string, priority int, name string, fn HookFn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := append(c.hooks[event], &hookEntry{priority: priority, fn: fn, name: name})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	c.hooks[event] = entries
}

// Unregister removes all hooks with the given name for the given event.
func (c *Center) Unregister(event, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks[event] = without(c.hooks[event], name)
}

// UnregisterAll removes all hooks registered with the given name across all events.
func (c *Center) UnregisterAll(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for event, entries := range c.hooks {
		c.hooks[event] = without(entries, name)
	}
}

func without(entries []*hookEntry, name string) []*hookEntry {
	n := 0
	for _, e := range entries {
		if e.name != name {
			entries[n] = e
			n++
		}
	}
	return entries[:n]
}

// Trigger runs the handlers of one event in priority order. Errors other than
// ErrInterrupt do not stop the chain; they are joined and returned.
func (c *Center) Trigger(ctx context.Context, event string, ch tracker.Change) error {
	c.mu.RLock()
	entries := make([]*hookEntry, len(c.hooks[event]))
	copy(entries, c.hooks[event])
	c.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		err := e.fn(ctx, event, ch)
		if errors.Is(err, ErrInterrupt) {
			break
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch triggers OnStateChanged and then the kind-specific event of ch.
func (c *Center) Dispatch(ctx context.Context, ch tracker.Change) error {
	err := c.Trigger(ctx, OnStateChanged, ch)
	if event := EventFor(ch.Kind); event != "" {
		err = errors.Join(err, c.Trigger(ctx, event, ch))
	}
	return err
}
