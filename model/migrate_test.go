package model_test

import (
	"testing"
	"time"

	"github.com/kasuganosora/gjtracker/model"
	"github.com/kasuganosora/gjtracker/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Item
	item := &model.Item{
		ID: "skill_focus", Position: 0, Name: "Focus", Type: "skill",
		Level:      2,
		Parents:    datatypes.JSON(`[]`),
		Checklists: datatypes.JSON(`{"1":["breathe"]}`),
		History:    datatypes.JSON(`[]`),
	}
	require.NoError(t, db.Create(item).Error)

	var found model.Item
	require.NoError(t, db.First(&found, "id = ?", "skill_focus").Error)
	assert.Equal(t, "Focus", found.Name)
	assert.JSONEq(t, `{"1":["breathe"]}`, string(found.Checklists))

	// Character
	char := &model.Character{ID: "char_me", Name: "Me", Items: datatypes.JSON(`[]`)}
	require.NoError(t, db.Create(char).Error)

	// Party
	party := &model.Party{ID: "party_1", Name: "Crew", CharIDs: datatypes.JSON(`["char_me"]`)}
	require.NoError(t, db.Create(party).Error)

	// Setting
	require.NoError(t, db.Create(&model.Setting{ID: model.SettingsRowID, Theme: "dark"}).Error)

	// AuditLog
	al := &model.AuditLog{Action: "level_up", ItemID: "skill_focus", FromLevel: 2, ToLevel: 3, CreatedAt: time.Now()}
	require.NoError(t, db.Create(al).Error)
	assert.Greater(t, al.ID, int64(0))
}

func TestAutoMigrate_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	assert.NoError(t, model.AutoMigrate(db))
}

func TestAutoMigrate_CreatesEveryTable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	for _, table := range []string{"items", "characters", "parties", "settings", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.Len(t, model.Tables(), 5)
}
