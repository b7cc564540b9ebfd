package tracker

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tiersOf(items []*Item) map[string]int {
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.ID] = it.Tier
	}
	return out
}

// ---- RecomputeTiers ----

func TestRecomputeTiers_OutOfOrder(t *testing.T) {
	items := []*Item{
		{ID: "d", Parents: []Parent{{ID: "c"}, {ID: "a"}}},
		{ID: "c", Parents: []Parent{{ID: "a"}, {ID: "b"}}},
		{ID: "a"},
		{ID: "b"},
	}
	require.NoError(t, RecomputeTiers(items, 0))
	assert.Equal(t, map[string]int{"a": 0, "b": 0, "c": 1, "d": 2}, tiersOf(items))
}

func TestRecomputeTiers_Prime(t *testing.T) {
	items := []*Item{
		{ID: "a", IsPrime: true},
		{ID: "b"},
		{ID: "c", Parents: []Parent{{ID: "a"}, {ID: "b"}}},
	}
	require.NoError(t, RecomputeTiers(items, 0))
	assert.False(t, items[0].IsPrime)
	assert.False(t, items[1].IsPrime)
	assert.True(t, items[2].IsPrime)
}

func TestRecomputeTiers_MissingParentCountsAsRoot(t *testing.T) {
	items := []*Item{{ID: "x", Parents: []Parent{{ID: "ghost"}}}}
	require.NoError(t, RecomputeTiers(items, 0))
	assert.Equal(t, 1, items[0].Tier)
}

func TestRecomputeTiers_StaleTierReset(t *testing.T) {
	items := []*Item{{ID: "root", Tier: 4}}
	require.NoError(t, RecomputeTiers(items, 0))
	assert.Equal(t, 0, items[0].Tier)
}

func TestRecomputeTiers_Cycle(t *testing.T) {
	items := []*Item{
		{ID: "a", Parents: []Parent{{ID: "b"}}},
		{ID: "b", Parents: []Parent{{ID: "a"}}},
	}
	err := RecomputeTiers(items, 0)
	var cyc *CyclicGraphError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, 3, cyc.Passes)
	assert.ElementsMatch(t, []string{"a", "b"}, cyc.Items)
}

func TestRecomputeTiers_MaxPassesRaisesBound(t *testing.T) {
	items := []*Item{{ID: "a", Parents: []Parent{{ID: "a"}}}}
	var cyc *CyclicGraphError
	require.True(t, errors.As(RecomputeTiers(items, 10), &cyc))
	assert.Equal(t, 10, cyc.Passes)
}

// randomDAG builds n items where each item only points at earlier ones, then
// shuffles them so propagation order differs from topological order.
func randomDAG(r *rand.Rand, n int) []*Item {
	items := make([]*Item, n)
	for i := range items {
		it := &Item{ID: fmt.Sprintf("i%d", i)}
		if i > 0 && r.IntN(4) > 0 {
			seen := map[int]bool{}
			for range 1 + r.IntN(2) {
				p := r.IntN(i)
				if !seen[p] {
					seen[p] = true
					it.Parents = append(it.Parents, Parent{ID: fmt.Sprintf("i%d", p)})
				}
			}
		}
		items[i] = it
	}
	r.Shuffle(n, func(i, j int) { items[i], items[j] = items[j], items[i] })
	return items
}

func TestRecomputeTiers_RandomDAGs(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for round := range 50 {
		items := randomDAG(r, 5+r.IntN(40))
		require.NoError(t, RecomputeTiers(items, 0), "round %d", round)
		first := tiersOf(items)

		byID := map[string]*Item{}
		children := map[string]bool{}
		for _, it := range items {
			byID[it.ID] = it
			for _, p := range it.Parents {
				children[p.ID] = true
			}
		}
		for _, it := range items {
			if len(it.Parents) == 0 {
				assert.Equal(t, 0, it.Tier, it.ID)
			} else {
				highest := 0
				for _, p := range it.Parents {
					highest = max(highest, byID[p.ID].Tier)
				}
				assert.Equal(t, highest+1, it.Tier, it.ID)
			}
			assert.Equal(t, !children[it.ID], it.IsPrime, it.ID)
		}

		require.NoError(t, RecomputeTiers(items, 0))
		assert.Equal(t, first, tiersOf(items), "round %d not idempotent", round)
	}
}

// ---- Store.RecomputeAll ----

func TestStore_RecomputeAll_PersistsAndNotifies(t *testing.T) {
	rec := &recorder{}
	s := newTestStore(t, WithPersist(rec.persist), WithNotify(rec.notify))
	mustSave(t, s, ItemInput{ID: "a", Name: "A", Type: TypeSkill})
	before := rec.persistCount()

	require.NoError(t, s.RecomputeAll())
	assert.Equal(t, before+1, rec.persistCount())
	assert.Equal(t, ChangeTiers, rec.kinds()[len(rec.kinds())-1])
}

func TestStore_RecomputeAll_CycleFromLoad(t *testing.T) {
	s := newTestStore(t)
	st := NewState()
	st.Items = []*Item{
		{ID: "a", Name: "A", Type: TypeSkill, Parents: []Parent{{ID: "b"}}},
		{ID: "b", Name: "B", Type: TypeSkill, Parents: []Parent{{ID: "a"}}},
	}
	var cyc *CyclicGraphError
	assert.True(t, errors.As(s.Load(st), &cyc))
	assert.True(t, errors.As(s.RecomputeAll(), &cyc))
}

func cyclicState() *State {
	st := NewState()
	st.Items = []*Item{
		{ID: "a", Name: "A", Type: TypeSkill, Parents: []Parent{{ID: "b"}}},
		{ID: "b", Name: "B", Type: TypeSkill, Parents: []Parent{{ID: "a"}}},
	}
	return st
}

func TestStore_CycleAndPersistErrorBothReported(t *testing.T) {
	boom := errors.New("disk full")
	tests := []struct {
		name string
		run  func(s *Store) error
	}{
		{"replace", func(s *Store) error { return s.Replace(cyclicState()) }},
		{"recompute", func(s *Store) error {
			_ = s.Load(cyclicState())
			return s.RecomputeAll()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, WithPersist(func(*State) error { return boom }))
			err := tt.run(s)
			var cyc *CyclicGraphError
			assert.True(t, errors.As(err, &cyc))
			assert.ErrorIs(t, err, ErrPersist)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestSplitCycle(t *testing.T) {
	cyc := &CyclicGraphError{Passes: 3, Items: []string{"a", "b"}}
	persist := fmt.Errorf("%w: disk full", ErrPersist)

	c, rest := SplitCycle(nil)
	assert.Nil(t, c)
	assert.NoError(t, rest)

	c, rest = SplitCycle(cyc)
	assert.Same(t, cyc, c)
	assert.NoError(t, rest)

	c, rest = SplitCycle(persist)
	assert.Nil(t, c)
	assert.ErrorIs(t, rest, ErrPersist)

	c, rest = SplitCycle(errors.Join(cyc, persist))
	assert.Same(t, cyc, c)
	assert.ErrorIs(t, rest, ErrPersist)
	assert.False(t, errors.As(rest, new(*CyclicGraphError)))
}
