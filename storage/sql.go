package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kasuganosora/gjtracker/model"
	"github.com/kasuganosora/gjtracker/tracker"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLRepository maps the state onto the items, characters, parties and
// settings tables. Nested collections live in JSON columns.
type SQLRepository struct {
	db *gorm.DB
}

// NewSQLRepository expects the tables to exist (see model.AutoMigrate).
func NewSQLRepository(db *gorm.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// ---- Load ----

func (r *SQLRepository) Load(ctx context.Context) (*tracker.State, error) {
	db := r.db.WithContext(ctx)
	st := tracker.NewState()

	var items []model.Item
	if err := db.Order("position").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	for _, row := range items {
		it, err := itemFromRow(row)
		if err != nil {
			return nil, err
		}
		st.Items = append(st.Items, it)
	}

	var chars []model.Character
	if err := db.Order("position").Find(&chars).Error; err != nil {
		return nil, fmt.Errorf("load characters: %w", err)
	}
	for _, row := range chars {
		c, err := characterFromRow(row)
		if err != nil {
			return nil, err
		}
		st.Characters = append(st.Characters, c)
	}

	var parties []model.Party
	if err := db.Order("position").Find(&parties).Error; err != nil {
		return nil, fmt.Errorf("load parties: %w", err)
	}
	for _, row := range parties {
		p, err := partyFromRow(row)
		if err != nil {
			return nil, err
		}
		st.Parties = append(st.Parties, p)
	}

	var set model.Setting
	res := db.Limit(1).Find(&set, model.SettingsRowID)
	if res.Error != nil {
		return nil, fmt.Errorf("load settings: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		st.Settings = tracker.Settings{Theme: set.Theme, DiscoveryMode: set.DiscoveryMode, Emojis: set.Emojis}
	}
	return st, nil
}

// decode unmarshals a JSON column; NULL or empty leaves v untouched.
func decode(col datatypes.JSON, v any, what, id string) error {
	if len(col) == 0 || string(col) == "null" {
		return nil
	}
	if err := json.Unmarshal(col, v); err != nil {
		return fmt.Errorf("decode %s of %s: %w", what, id, err)
	}
	return nil
}

func itemFromRow(row model.Item) (*tracker.Item, error) {
	it := &tracker.Item{
		ID:          row.ID,
		Name:        row.Name,
		Type:        tracker.ItemType(row.Type),
		Description: row.Description,
		Notes:       row.Notes,
		Tier:        row.Tier,
		Level:       row.Level,
		IsPrime:     row.IsPrime,
		Enhanced:    row.Enhanced,
	}
	if err := decode(row.Parents, &it.Parents, "parents", row.ID); err != nil {
		return nil, err
	}
	if err := decode(row.Checklists, &it.Checklists, "checklists", row.ID); err != nil {
		return nil, err
	}
	if err := decode(row.History, &it.History, "history", row.ID); err != nil {
		return nil, err
	}
	return it, nil
}

func characterFromRow(row model.Character) (*tracker.Character, error) {
	c := &tracker.Character{ID: row.ID, Name: row.Name, XP: row.XP}
	if err := decode(row.Items, &c.Items, "items", row.ID); err != nil {
		return nil, err
	}
	if err := decode(row.Goals, &c.Goals, "goals", row.ID); err != nil {
		return nil, err
	}
	if err := decode(row.Journals, &c.Journals, "journals", row.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func partyFromRow(row model.Party) (*tracker.Party, error) {
	p := &tracker.Party{ID: row.ID, Name: row.Name}
	if err := decode(row.CharIDs, &p.CharIDs, "members", row.ID); err != nil {
		return nil, err
	}
	if err := decode(row.TempBoosts, &p.TempBoosts, "boosts", row.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// ---- Save ----

// Save writes the whole state in one transaction: rows are upserted and rows
// no longer present in st are deleted.
func (r *SQLRepository) Save(ctx context.Context, st *tracker.State) error {
	items := make([]model.Item, 0, len(st.Items))
	for i, it := range st.Items {
		row, err := itemToRow(i, it)
		if err != nil {
			return err
		}
		items = append(items, row)
	}
	chars := make([]model.Character, 0, len(st.Characters))
	for i, c := range st.Characters {
		row, err := characterToRow(i, c)
		if err != nil {
			return err
		}
		chars = append(chars, row)
	}
	parties := make([]model.Party, 0, len(st.Parties))
	for i, p := range st.Parties {
		row, err := partyToRow(i, p)
		if err != nil {
			return err
		}
		parties = append(parties, row)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := syncTable(tx, &model.Item{}, items, idsOf(items, func(m model.Item) string { return m.ID })); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		if err := syncTable(tx, &model.Character{}, chars, idsOf(chars, func(m model.Character) string { return m.ID })); err != nil {
			return fmt.Errorf("save characters: %w", err)
		}
		if err := syncTable(tx, &model.Party{}, parties, idsOf(parties, func(m model.Party) string { return m.ID })); err != nil {
			return fmt.Errorf("save parties: %w", err)
		}
		set := model.Setting{
			ID:            model.SettingsRowID,
			Theme:         st.Settings.Theme,
			DiscoveryMode: st.Settings.DiscoveryMode,
			Emojis:        st.Settings.Emojis,
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&set).Error; err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		return nil
	})
}

func idsOf[T any](rows []T, id func(T) string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = id(r)
	}
	return out
}

// syncTable upserts rows and removes every row of the table whose id is not in ids.
func syncTable[T any](tx *gorm.DB, table any, rows []T, ids []string) error {
	del := tx.Model(table)
	if len(ids) > 0 {
		del = del.Where("id NOT IN ?", ids)
	} else {
		del = del.Where("1 = 1")
	}
	if err := del.Delete(table).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&rows, 100).Error
}

func encode(v any, what, id string) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s of %s: %w", what, id, err)
	}
	return datatypes.JSON(raw), nil
}

func itemToRow(pos int, it *tracker.Item) (model.Item, error) {
	row := model.Item{
		ID:          it.ID,
		Position:    pos,
		Name:        it.Name,
		Type:        string(it.Type),
		Description: it.Description,
		Notes:       it.Notes,
		Tier:        it.Tier,
		Level:       it.Level,
		IsPrime:     it.IsPrime,
		Enhanced:    it.Enhanced,
	}
	var err error
	if row.Parents, err = encode(it.Parents, "parents", it.ID); err != nil {
		return row, err
	}
	if row.Checklists, err = encode(&it.Checklists, "checklists", it.ID); err != nil {
		return row, err
	}
	if row.History, err = encode(it.History, "history", it.ID); err != nil {
		return row, err
	}
	return row, nil
}

func characterToRow(pos int, c *tracker.Character) (model.Character, error) {
	row := model.Character{ID: c.ID, Position: pos, Name: c.Name, XP: c.XP}
	var err error
	if row.Items, err = encode(c.Items, "items", c.ID); err != nil {
		return row, err
	}
	if row.Goals, err = encode(c.Goals, "goals", c.ID); err != nil {
		return row, err
	}
	if row.Journals, err = encode(c.Journals, "journals", c.ID); err != nil {
		return row, err
	}
	return row, nil
}

func partyToRow(pos int, p *tracker.Party) (model.Party, error) {
	row := model.Party{ID: p.ID, Position: pos, Name: p.Name}
	var err error
	if row.CharIDs, err = encode(p.CharIDs, "members", p.ID); err != nil {
		return row, err
	}
	if row.TempBoosts, err = encode(p.TempBoosts, "boosts", p.ID); err != nil {
		return row, err
	}
	return row, nil
}
