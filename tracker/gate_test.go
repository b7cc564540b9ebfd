package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedABC(t *testing.T, s *Store, levelA, levelB int) {
	t.Helper()
	mustSave(t, s, ItemInput{ID: "a", Name: "A", Type: TypeFactor, Level: levelA})
	mustSave(t, s, ItemInput{ID: "b", Name: "B", Type: TypeFactor, Level: levelB})
	mustSave(t, s, ItemInput{ID: "c", Name: "C", Type: TypeSkill, Parents: []Parent{
		{ID: "a", RequiredLevel: 2},
		{ID: "b", RequiredLevel: 2},
	}})
}

func TestCanAcquire_Scenario(t *testing.T) {
	s := newTestStore(t)
	seedABC(t, s, 1, 3)

	assert.Equal(t, 1, mustItem(t, s, "c").Tier)
	assert.False(t, s.CanAcquire("c", ""), "A is below its requirement")

	mustSave(t, s, ItemInput{ID: "a", Name: "A", Type: TypeFactor, Level: 2})
	assert.True(t, s.CanAcquire("c", ""))
}

func TestCanAcquire_Conjunction(t *testing.T) {
	s := newTestStore(t)
	seedABC(t, s, 3, 1)
	assert.False(t, s.CanAcquire("c", ""), "B alone failing must block")

	unmet, err := s.UnmetRequirements("c", "")
	require.NoError(t, err)
	assert.Equal(t, []Requirement{{ParentID: "b", Required: 2, Have: 1}}, unmet)
}

func TestCanAcquire_RootAlwaysTrue(t *testing.T) {
	s := newTestStore(t)
	seedABC(t, s, 0, 0)
	assert.True(t, s.CanAcquire("a", ""))
	assert.True(t, s.CanAcquire("a", "nobody"))
}

func TestCanAcquire_UnknownItem(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.CanAcquire("ghost", ""))
	_, err := s.UnmetRequirements("ghost", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCanAcquire_CharacterLevelsNotGlobal(t *testing.T) {
	s := newTestStore(t)
	seedABC(t, s, 5, 5)
	hero, err := s.CreateCharacter("Hero")
	require.NoError(t, err)

	assert.True(t, s.CanAcquire("c", ""))
	assert.False(t, s.CanAcquire("c", hero.ID), "hero holds neither parent")

	for range 2 {
		_, err = s.LevelUp("a", hero.ID)
		require.NoError(t, err)
		_, err = s.LevelUp("b", hero.ID)
		require.NoError(t, err)
	}
	assert.True(t, s.CanAcquire("c", hero.ID))
}

func TestCanAcquire_ImmediateParentsOnly(t *testing.T) {
	s := newTestStore(t)
	seedABC(t, s, 0, 0)
	mustSave(t, s, ItemInput{ID: "d", Name: "D", Type: TypeFactor})
	mustSave(t, s, ItemInput{ID: "e", Name: "E", Type: TypeSkill, Level: 0, Parents: []Parent{
		{ID: "c", RequiredLevel: 1},
		{ID: "d", RequiredLevel: 0},
	}})
	hero, err := s.CreateCharacter("Hero")
	require.NoError(t, err)

	s.mu.Lock()
	c := s.character(hero.ID)
	c.Items = append(c.Items, CharItem{ItemID: "c", Level: 1})
	s.mu.Unlock()

	assert.True(t, s.CanAcquire("e", hero.ID), "ancestors of c are not checked")
}

func TestCanAcquire_MissingParentIsLevelZero(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, ItemInput{ID: "x", Name: "X", Type: TypeSkill, Parents: []Parent{
		{ID: "ghost", RequiredLevel: 1},
	}})
	assert.False(t, s.CanAcquire("x", ""))

	unmet, err := s.UnmetRequirements("x", "")
	require.NoError(t, err)
	require.Len(t, unmet, 1)
	assert.True(t, unmet[0].Missing)
	assert.Equal(t, 0, unmet[0].Have)
}

func TestCanAcquire_UnknownActorIsLevelZero(t *testing.T) {
	s := newTestStore(t)
	seedABC(t, s, 3, 3)
	assert.False(t, s.CanAcquire("c", "char_nobody"))
}
