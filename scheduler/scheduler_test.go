package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newScheduler(t *testing.T) *Scheduler {
	s := New(zap.NewNop())
	t.Cleanup(s.Stop)
	return s
}

func TestAddTicker_Repeats(t *testing.T) {
	s := newScheduler(t)
	var n atomic.Int32
	s.AddTicker("reminders", 10*time.Millisecond, func() { n.Add(1) })

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"reminders"}, s.Jobs(), "tickers stay scheduled")
}

func TestAddTicker_Replaces(t *testing.T) {
	s := newScheduler(t)
	var first, second atomic.Int32
	s.AddTicker("reminders", 10*time.Millisecond, func() { first.Add(1) })
	s.AddTicker("reminders", 10*time.Millisecond, func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestAddTicker_NoOverlap(t *testing.T) {
	s := newScheduler(t)
	var active, worst, runs atomic.Int32
	s.AddTicker("slow", time.Millisecond, func() {
		cur := active.Add(1)
		if cur > worst.Load() {
			worst.Store(cur)
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		runs.Add(1)
	})

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), worst.Load())
}

func TestAddDelay_FiresOnce(t *testing.T) {
	s := newScheduler(t)
	var n atomic.Int32
	s.AddDelay("boost:b1", 5*time.Millisecond, func() { n.Add(1) })
	assert.Equal(t, []string{"boost:b1"}, s.Jobs())

	assert.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
	assert.Empty(t, s.Jobs())
}

func TestAddDelay_Replaces(t *testing.T) {
	s := newScheduler(t)
	var got atomic.Value
	s.AddDelay("boost:b1", 5*time.Millisecond, func() { got.Store("old") })
	s.AddDelay("boost:b1", 10*time.Millisecond, func() { got.Store("new") })

	assert.Eventually(t, func() bool { return got.Load() != nil }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "new", got.Load())
}

func TestRemove(t *testing.T) {
	s := newScheduler(t)
	var n atomic.Int32
	s.AddDelay("boost:b1", 20*time.Millisecond, func() { n.Add(1) })
	s.AddTicker("reminders", 20*time.Millisecond, func() { n.Add(1) })

	assert.True(t, s.Remove("boost:b1"))
	assert.True(t, s.Remove("reminders"))
	assert.False(t, s.Remove("boost:b1"))
	assert.False(t, s.Remove("unknown"))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, n.Load())
}

func TestRemove_FromInsideJob(t *testing.T) {
	s := newScheduler(t)
	var n atomic.Int32
	s.AddTicker("once-then-stop", 5*time.Millisecond, func() {
		n.Add(1)
		s.Remove("once-then-stop")
	})

	assert.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
	assert.Empty(t, s.Jobs())
}

func TestPanicIsLoggedAndTickerContinues(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := New(zap.New(core))
	defer s.Stop()

	var n atomic.Int32
	s.AddTicker("reminders", 5*time.Millisecond, func() {
		if n.Add(1) == 1 {
			panic("bad goal")
		}
	})

	assert.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("scheduler job panicked").Len())
}

func TestStop_WaitsAndDrops(t *testing.T) {
	s := New(zap.NewNop())
	started := make(chan struct{})
	var finished atomic.Bool
	s.AddDelay("slow", time.Millisecond, func() {
		close(started)
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})
	<-started

	s.Stop()
	assert.True(t, finished.Load(), "Stop waits for the running job")

	var n atomic.Int32
	s.AddDelay("late", time.Millisecond, func() { n.Add(1) })
	s.AddTicker("late-ticker", time.Millisecond, func() { n.Add(1) })
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, n.Load())
	require.Empty(t, s.Jobs())

	s.Stop()
}
