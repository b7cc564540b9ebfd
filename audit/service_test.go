package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kasuganosora/gjtracker/model"
	"github.com/kasuganosora/gjtracker/testutil"
	"github.com/kasuganosora/gjtracker/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nop() *zap.Logger { return zap.NewNop() }

var _ Log = (*Service)(nil)
var _ Log = (*Feed)(nil)

func TestNew_StartsWorker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	require.NotNil(t, svc)
	svc.Stop(context.Background())
}

func TestRecord_EnqueuedAndFlushed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	svc.Record(tracker.Change{
		Kind:    tracker.ChangeLevelUp,
		ItemID:  "skill_focus",
		ActorID: tracker.MeID,
		From:    2,
		To:      3,
		At:      time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	})

	// Stop flushes remaining entries
	svc.Stop(context.Background())

	var logs []model.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "level_up", logs[0].Action)
	assert.Equal(t, "skill_focus", logs[0].ItemID)
	assert.Equal(t, tracker.MeID, logs[0].ActorID)
	assert.Equal(t, 2, logs[0].FromLevel)
	assert.Equal(t, 3, logs[0].ToLevel)
	assert.Contains(t, string(logs[0].Payload), `"kind":"level_up"`)
}

func TestRecord_BatchFlush(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	for i := 0; i < 150; i++ {
		svc.Record(tracker.Change{Kind: tracker.ChangeChecklist, Detail: fmt.Sprint(i)})
	}
	svc.Stop(context.Background())

	var count int64
	db.Model(&model.AuditLog{}).Count(&count)
	assert.Equal(t, int64(150), count)
}

func TestRecent_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		svc.Record(tracker.Change{Kind: tracker.ChangeXP, Detail: fmt.Sprint(i), At: base.Add(time.Duration(i) * time.Minute)})
	}
	svc.Stop(context.Background())

	logs, err := svc.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "2", logs[0].Detail)
	assert.Equal(t, "1", logs[1].Detail)
}

func TestRecent_FlushesQueuedEntries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop(), WithBatch(100, time.Hour))
	defer svc.Stop(context.Background())

	svc.Record(tracker.Change{Kind: tracker.ChangeEvolved, ItemID: "skill_focus"})
	logs, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "skill_focus", logs[0].ItemID)

	empty, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFlush_CanceledContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	require.NoError(t, svc.Stop(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, svc.Flush(ctx), "flush after stop is a no-op")
}

func TestWithBatch_TimerWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop(), WithBatch(100, 10*time.Millisecond))
	defer svc.Stop(context.Background())

	svc.Record(tracker.Change{Kind: tracker.ChangeXP})
	assert.Eventually(t, func() bool {
		var n int64
		db.Model(&model.AuditLog{}).Count(&n)
		return n == 1
	}, time.Second, 10*time.Millisecond)
}

func TestStop_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	require.NoError(t, svc.Stop(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))
}

func TestRecord_FloodDoesNotBlock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 2000; i++ {
			svc.Record(tracker.Change{Kind: tracker.ChangeJournal})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Record blocked")
	}
	svc.Stop(context.Background())
}

// ---- Feed ----

func TestFeed_RecordAndRecent(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	f := NewFeed(c, "GJTracker:audit", 3, nop())

	for i := 0; i < 5; i++ {
		f.Record(tracker.Change{Kind: tracker.ChangeXP, Detail: fmt.Sprint(i)})
	}

	logs, err := f.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 3, "feed is capped")
	assert.Equal(t, "4", logs[0].Detail)
	assert.Equal(t, "2", logs[2].Detail)
	assert.Equal(t, "xp", logs[0].Action)
}

func TestFeed_RecentZeroLimit(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	f := NewFeed(c, "k", 0, nop())
	f.Record(tracker.Change{Kind: tracker.ChangeXP})
	logs, err := f.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
