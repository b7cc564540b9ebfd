package exchange

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kasuganosora/gjtracker/testutil"
	"github.com/kasuganosora/gjtracker/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *tracker.Store {
	t.Helper()
	s := testutil.NewStore(t)
	var cl tracker.Checklists
	cl.Set(1, []string{"inhale, then exhale", `say "om"`})
	_, err := s.SaveItem(tracker.ItemInput{Name: "Breathing", Type: "skill", Level: 6, Enhanced: true, Checklists: cl, Description: "multi\nline"})
	require.NoError(t, err)
	_, err = s.SaveItem(tracker.ItemInput{Name: "Posture", Type: "skill", Level: 2})
	require.NoError(t, err)
	_, err = s.SaveItem(tracker.ItemInput{Name: "Calm", Type: "faculty", Parents: []tracker.Parent{
		{ID: "skill_breathing", RequiredLevel: 5},
		{ID: "skill_posture", RequiredLevel: 2},
	}})
	require.NoError(t, err)
	return s
}

// ---- CSV ----

func TestCSV_RoundTripIntoEmptyStore(t *testing.T) {
	src := seeded(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, src.Items()))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	dst := testutil.NewStore(t)
	sum, err := dst.Import(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"skill_breathing", "skill_posture", "faculty_calm"}, sum.Created)

	for _, want := range src.Items() {
		got, err := dst.Item(want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.Description, got.Description)
		assert.Equal(t, want.Level, got.Level)
		assert.Equal(t, want.Enhanced, got.Enhanced)
		assert.Equal(t, want.Tier, got.Tier)
		assert.Equal(t, want.Parents, got.Parents)
		assert.Equal(t, want.Checklists.At(1), got.Checklists.At(1))
		assert.Equal(t, want.History, got.History)
	}
}

func TestWriteCSV_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(Columns, ",")+"\n", buf.String())
}

func TestReadCSV_EmptyCellsLeaveFieldsUnset(t *testing.T) {
	in := "name,type,level,enhanced,description\nFocus,skill,,,\n"
	rows, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Focus", rows[0].Name)
	assert.Nil(t, rows[0].Level)
	assert.Nil(t, rows[0].Enhanced)
	assert.Nil(t, rows[0].Description)
	assert.Nil(t, rows[0].Parents)
}

func TestReadCSV_AnyColumnOrderAndBOM(t *testing.T) {
	in := "\ufeffType,Name,Level,extra\nfaculty,Calm,3,ignored\n"
	rows, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "faculty", rows[0].Type)
	assert.Equal(t, "Calm", rows[0].Name)
	require.NotNil(t, rows[0].Level)
	assert.Equal(t, 3, *rows[0].Level)
}

func TestReadCSV_MissingRequiredColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("id,name\nx,X\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadCSV_BadCellReportsLine(t *testing.T) {
	in := "name,type,parents\nA,skill,[]\nB,skill,{not json\n"
	_, err := ReadCSV(strings.NewReader(in))
	assert.ErrorContains(t, err, "csv line 3: parents")

	_, err = ReadCSV(strings.NewReader("name,type,level\nA,skill,high\n"))
	assert.ErrorContains(t, err, "level")
}

func TestReadCSV_Empty(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSV_MergeOnlyTouchesGivenCells(t *testing.T) {
	s := seeded(t)
	rows, err := ReadCSV(strings.NewReader("name,type,notes\nbreathing,skill,practice daily\n"))
	require.NoError(t, err)

	sum, err := s.Import(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"skill_breathing"}, sum.Merged)

	it, err := s.Item("skill_breathing")
	require.NoError(t, err)
	assert.Equal(t, "practice daily", it.Notes)
	assert.Equal(t, 6, it.Level, "level untouched")
	assert.Equal(t, "multi\nline", it.Description, "description untouched")
}

// ---- JSON ----

func TestJSON_RoundTrip(t *testing.T) {
	src := seeded(t)
	_, err := src.CreateCharacter("Ada")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, src.Snapshot()))
	assert.Contains(t, buf.String(), "\n  \"items\": [")

	st, err := ReadJSON(&buf)
	require.NoError(t, err)

	dst := testutil.NewStore(t)
	require.NoError(t, dst.Replace(st))

	var again bytes.Buffer
	require.NoError(t, WriteJSON(&again, dst.Snapshot()))
	var first bytes.Buffer
	require.NoError(t, WriteJSON(&first, src.Snapshot()))
	assert.JSONEq(t, first.String(), again.String())
}

func TestReadJSON_Invalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{"))
	assert.Error(t, err)
}

func TestReadJSON_IgnoresUnknownFields(t *testing.T) {
	st, err := ReadJSON(strings.NewReader(`{"items":[{"id":"skill_a","name":"A","type":"skill"}],"journal":[]}`))
	require.NoError(t, err)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "skill_a", st.Items[0].ID)
}

func TestCSV_FreeTextKeepsWhitespace(t *testing.T) {
	items := []*tracker.Item{{
		ID: "skill_focus", Name: "Focus", Type: tracker.TypeSkill,
		Description: "  indented\n", Notes: "trailing  ",
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Description)
	require.NotNil(t, rows[0].Notes)
	assert.Equal(t, "  indented\n", *rows[0].Description)
	assert.Equal(t, "trailing  ", *rows[0].Notes)
}

func TestReadCSV_TrimsKeyCells(t *testing.T) {
	in := "id,name,type,level,notes\n x , Focus ,skill , 3 ,\"keep  \"\n"
	rows, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0].ID)
	assert.Equal(t, "Focus", rows[0].Name)
	assert.Equal(t, "skill", rows[0].Type)
	require.NotNil(t, rows[0].Level)
	assert.Equal(t, 3, *rows[0].Level)
	require.NotNil(t, rows[0].Notes)
	assert.Equal(t, "keep  ", *rows[0].Notes)
}
