package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/kasuganosora/gjtracker/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordTo(out *[]string, tag string) HookFn {
	return func(_ context.Context, _ string, _ tracker.Change) error {
		*out = append(*out, tag)
		return nil
	}
}

func TestTrigger_NoHandlers(t *testing.T) {
	c := NewCenter()
	assert.NoError(t, c.Trigger(context.Background(), "noop", tracker.Change{}))
}

func TestRegister_SingleHandler(t *testing.T) {
	c := NewCenter()
	var got tracker.Change
	c.Register(OnLevelUp, 0, "h1", func(_ context.Context, event string, ch tracker.Change) error {
		assert.Equal(t, OnLevelUp, event)
		got = ch
		return nil
	})
	require.NoError(t, c.Trigger(context.Background(), OnLevelUp, tracker.Change{Kind: tracker.ChangeLevelUp, ItemID: "a", To: 3}))
	assert.Equal(t, "a", got.ItemID)
	assert.Equal(t, 3, got.To)
}

func TestTrigger_PriorityOrder(t *testing.T) {
	c := NewCenter()
	var order []string
	c.Register("ev", 10, "late", recordTo(&order, "late"))
	c.Register("ev", 1, "early", recordTo(&order, "early"))
	c.Register("ev", 5, "mid", recordTo(&order, "mid"))

	require.NoError(t, c.Trigger(context.Background(), "ev", tracker.Change{}))
	assert.Equal(t, []string{"early", "mid", "late"}, order)
}

func TestTrigger_Interrupt(t *testing.T) {
	c := NewCenter()
	var order []string
	c.Register("ev", 1, "stop", func(context.Context, string, tracker.Change) error { return ErrInterrupt })
	c.Register("ev", 2, "never", recordTo(&order, "never"))

	assert.NoError(t, c.Trigger(context.Background(), "ev", tracker.Change{}))
	assert.Empty(t, order)
}

func TestTrigger_ErrorsJoinedChainContinues(t *testing.T) {
	c := NewCenter()
	var order []string
	boom := errors.New("boom")
	c.Register("ev", 1, "fail", func(context.Context, string, tracker.Change) error { return boom })
	c.Register("ev", 2, "after", recordTo(&order, "after"))

	err := c.Trigger(context.Background(), "ev", tracker.Change{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"after"}, order)
}

func TestUnregister(t *testing.T) {
	c := NewCenter()
	var order []string
	c.Register("a", 0, "x", recordTo(&order, "a"))
	c.Register("b", 0, "x", recordTo(&order, "b"))
	c.Register("b", 1, "y", recordTo(&order, "y"))

	c.Unregister("a", "x")
	require.NoError(t, c.Trigger(context.Background(), "a", tracker.Change{}))
	assert.Empty(t, order)

	c.UnregisterAll("x")
	require.NoError(t, c.Trigger(context.Background(), "b", tracker.Change{}))
	assert.Equal(t, []string{"y"}, order)
}

func TestDispatch_GenericThenSpecific(t *testing.T) {
	c := NewCenter()
	var order []string
	c.Register(OnStateChanged, 0, "all", recordTo(&order, "all"))
	c.Register(OnEvolve, 0, "evolve", recordTo(&order, "evolve"))
	c.Register(OnLevelUp, 0, "level", recordTo(&order, "level"))

	require.NoError(t, c.Dispatch(context.Background(), tracker.Change{Kind: tracker.ChangeEvolved}))
	assert.Equal(t, []string{"all", "evolve"}, order)

	order = nil
	require.NoError(t, c.Dispatch(context.Background(), tracker.Change{Kind: tracker.ChangeJournal}))
	assert.Equal(t, []string{"all"}, order)
}

func TestEventFor(t *testing.T) {
	assert.Equal(t, OnLevelUp, EventFor(tracker.ChangeLevelUp))
	assert.Equal(t, OnImport, EventFor(tracker.ChangeImported))
	assert.Equal(t, OnImport, EventFor(tracker.ChangeStateReplaced))
	assert.Equal(t, OnBoostExpired, EventFor(tracker.ChangeBoostExpired))
	assert.Equal(t, "", EventFor(tracker.ChangeXP))
}
