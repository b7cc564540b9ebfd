package tracker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestImport_CreatesWithDefaults(t *testing.T) {
	s := newTestStore(t)
	sum, err := s.Import([]ImportRow{
		{Name: "Focus", Type: "factor"},
		{Name: "Calm", Type: "Factor"},
		{ID: "sk", Name: "Sword", Type: "skill", Parents: &[]Parent{{ID: "factor_focus", RequiredLevel: 2}, {ID: "factor_calm", RequiredLevel: 2}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"factor_focus", "factor_calm", "sk"}, sum.Created)
	assert.Empty(t, sum.Merged)

	it := mustItem(t, s, "factor_focus")
	assert.Equal(t, 0, it.Level)
	assert.Empty(t, it.Parents)
	for l := 1; l <= MaxLevel; l++ {
		assert.Empty(t, it.Checklists.At(l))
	}
	assert.Equal(t, 1, mustItem(t, s, "sk").Tier, "tiers recomputed after the batch")
}

func TestImport_MergesByIDOrName(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, ItemInput{ID: "x", Name: "Deep Work", Type: TypeSkill, Description: "keep", Notes: "old"})

	sum, err := s.Import([]ImportRow{
		{Name: "DEEP WORK", Type: "skill", Notes: ptr("new"), Enhanced: ptr(true)},
		{ID: "x", Name: "Deep Work", Type: "faculty"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x"}, sum.Merged)
	assert.Empty(t, sum.Created)

	it := mustItem(t, s, "x")
	assert.Equal(t, "keep", it.Description)
	assert.Equal(t, "new", it.Notes)
	assert.True(t, it.Enhanced)
	assert.Equal(t, TypeFaculty, it.Type)
	assert.Len(t, s.Items(), 1)
}

func TestImport_SkipsInvalidRows(t *testing.T) {
	s := newTestStore(t)
	sum, err := s.Import([]ImportRow{
		{Name: "", Type: "skill"},
		{Name: "X"},
		{Name: "X", Type: "spell"},
		{Name: "X", Type: "skill", Level: ptr(9)},
		{Name: "X", Type: "skill", Parents: &[]Parent{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
	})
	require.NoError(t, err)
	assert.Len(t, sum.Skipped, 5)
	assert.Empty(t, s.Items())
}

func TestImport_HighLevelMarksEnhanced(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Import([]ImportRow{{Name: "X", Type: "skill", Level: ptr(7)}})
	require.NoError(t, err)
	it := mustItem(t, s, "skill_x")
	assert.Equal(t, 7, it.Level)
	assert.True(t, it.Enhanced)
}

func TestImport_CycleKept(t *testing.T) {
	rec := &recorder{}
	s := newTestStore(t, WithPersist(rec.persist))
	_, err := s.Import([]ImportRow{
		{ID: "a", Name: "A", Type: "skill", Parents: &[]Parent{{ID: "b"}}},
		{ID: "b", Name: "B", Type: "skill", Parents: &[]Parent{{ID: "a"}}},
	})
	var cyc *CyclicGraphError
	assert.True(t, errors.As(err, &cyc))
	assert.Len(t, s.Items(), 2)
	assert.Equal(t, 1, rec.persistCount())
}

func TestImport_DerivedIDTakenGetsSuffix(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, ItemInput{ID: "skill_run_fast", Name: "Sprint", Type: TypeSkill})

	sum, err := s.Import([]ImportRow{{Name: "Run Fast", Type: "skill"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"skill_run_fast_2"}, sum.Created)
	assert.Empty(t, sum.Merged)
	assert.Equal(t, "Sprint", mustItem(t, s, "skill_run_fast").Name)
	assert.Equal(t, "Run Fast", mustItem(t, s, "skill_run_fast_2").Name)

	seen := map[string]bool{}
	for _, it := range s.Items() {
		assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
	}
	assert.Len(t, seen, 2)
}

func TestImport_SuffixSkipsTakenSuffixes(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, ItemInput{ID: "factor_calm", Name: "Still", Type: TypeFactor})
	mustSave(t, s, ItemInput{ID: "factor_calm_2", Name: "Quiet", Type: TypeFactor})

	sum, err := s.Import([]ImportRow{{Name: "Calm", Type: "factor"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"factor_calm_3"}, sum.Created)
}

func TestReplace_RejectsDuplicateIDs(t *testing.T) {
	rec := &recorder{}
	s := newTestStore(t, WithPersist(rec.persist))
	mustSave(t, s, ItemInput{ID: "a", Name: "A", Type: TypeSkill})
	before := rec.persistCount()

	st := NewState()
	st.Items = []*Item{
		{ID: "x", Name: "X", Type: TypeSkill},
		{ID: "x", Name: "Y", Type: TypeSkill},
	}
	err := s.Replace(st)
	assert.ErrorIs(t, err, ErrInvalidItem)
	assert.ErrorIs(t, s.Load(st), ErrInvalidItem)

	assert.Len(t, s.Items(), 1)
	assert.Equal(t, "A", mustItem(t, s, "a").Name)
	assert.Equal(t, before, rec.persistCount())
}
