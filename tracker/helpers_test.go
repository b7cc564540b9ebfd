package tracker

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	ids := 0
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithIDFunc(func() string { ids++; return strconv.Itoa(ids) }),
		WithPolicy(AlwaysNo),
	}
	return NewStore(append(base, opts...)...)
}

func mustSave(t *testing.T, s *Store, in ItemInput, opts ...CallOption) *Item {
	t.Helper()
	res, err := s.SaveItem(in, opts...)
	require.NoError(t, err)
	return res.Item
}

func mustItem(t *testing.T, s *Store, id string) *Item {
	t.Helper()
	it, err := s.Item(id)
	require.NoError(t, err)
	return it
}

func tasks(ts ...string) []string { return ts }

// fakeTimer holds delayed callbacks until a test fires them.
type fakeTimer struct {
	mu     sync.Mutex
	fns    map[string]func()
	delays map[string]time.Duration
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{fns: map[string]func(){}, delays: map[string]time.Duration{}}
}

func (f *fakeTimer) AddDelay(name string, d time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns[name] = fn
	f.delays[name] = d
}

func (f *fakeTimer) Remove(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.fns[name]
	delete(f.fns, name)
	delete(f.delays, name)
	return ok
}

func (f *fakeTimer) Fire(name string) bool {
	f.mu.Lock()
	fn, ok := f.fns[name]
	delete(f.fns, name)
	delete(f.delays, name)
	f.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

func (f *fakeTimer) Pending() map[string]time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]time.Duration, len(f.delays))
	for k, v := range f.delays {
		out[k] = v
	}
	return out
}

// recorder collects persisted snapshots and notified changes.
type recorder struct {
	mu       sync.Mutex
	persists []*State
	changes  []Change
}

func (r *recorder) persist(st *State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persists = append(r.persists, st)
	return nil
}

func (r *recorder) notify(ch Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, ch)
}

func (r *recorder) kinds() []ChangeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChangeKind, len(r.changes))
	for i, ch := range r.changes {
		out[i] = ch.Kind
	}
	return out
}

func (r *recorder) persistCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.persists)
}
