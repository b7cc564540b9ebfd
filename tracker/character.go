package tracker

import (
	"encoding/json"
	"strconv"
	"time"
)

// MeID and MeName identify the notebook character that always exists.
const (
	MeID   = "char_me"
	MeName = "Me"
)

// Progress holds the checked state of each level's tasks. Index 0 is level 1.
type Progress [MaxLevel][]bool

// At returns the progress of level (1-based).
func (p *Progress) At(level int) []bool {
	if level < 1 || level > MaxLevel {
		return nil
	}
	return p[level-1]
}

// Mark records checked for task idx of level, growing the slice as needed.
func (p *Progress) Mark(level, idx int, checked bool) {
	if level < 1 || level > MaxLevel || idx < 0 {
		return
	}
	row := p[level-1]
	for len(row) <= idx {
		row = append(row, false)
	}
	row[idx] = checked
	p[level-1] = row
}

// Complete reports whether every one of n tasks at level is checked. Empty
// checklists are never complete.
func (p *Progress) Complete(level, n int) bool {
	if n == 0 {
		return false
	}
	row := p.At(level)
	if len(row) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if !row[i] {
			return false
		}
	}
	return true
}

func (p Progress) clone() Progress {
	var out Progress
	for i, row := range p {
		if row != nil {
			out[i] = append([]bool{}, row...)
		}
	}
	return out
}

// MarshalJSON writes only levels that have progress, keyed by level number.
func (p Progress) MarshalJSON() ([]byte, error) {
	m := make(map[string][]bool)
	for i, row := range p {
		if len(row) > 0 {
			m[strconv.Itoa(i+1)] = row
		}
	}
	return json.Marshal(m)
}

func (p *Progress) UnmarshalJSON(data []byte) error {
	var m map[string][]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*p = Progress{}
	for k, row := range m {
		lvl, err := strconv.Atoi(k)
		if err != nil || lvl < 1 || lvl > MaxLevel {
			continue
		}
		p[lvl-1] = row
	}
	return nil
}

// CharItem is a character-local level and checklist progress for one item.
type CharItem struct {
	ItemID            string   `json:"id"`
	Level             int      `json:"level"`
	ChecklistProgress Progress `json:"checklistProgress"`
}

// Goal is a target level for an item by a due date (YYYY-MM-DD).
type Goal struct {
	ItemID      string `json:"itemId"`
	TargetLevel int    `json:"targetLevel"`
	Due         string `json:"due"`
}

// DueTime parses the goal's due date. Invalid dates report ok=false.
func (g Goal) DueTime() (time.Time, bool) {
	t, err := time.Parse(DateLayout, g.Due)
	return t, err == nil
}

// Character tracks its own levels for items, separate from the global ones.
type Character struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	XP       int               `json:"xp"`
	Items    []CharItem        `json:"items"`
	Goals    []Goal            `json:"goals"`
	Journals map[string]string `json:"journals"`
}

// Clone returns a deep copy of the character.
func (c *Character) Clone() *Character {
	out := *c
	out.Items = make([]CharItem, len(c.Items))
	for i, ci := range c.Items {
		ci.ChecklistProgress = ci.ChecklistProgress.clone()
		out.Items[i] = ci
	}
	out.Goals = append([]Goal{}, c.Goals...)
	out.Journals = make(map[string]string, len(c.Journals))
	for k, v := range c.Journals {
		out.Journals[k] = v
	}
	return &out
}

func (c *Character) item(itemID string) *CharItem {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// LevelOf returns the character's level in itemID, 0 if never acquired.
func (c *Character) LevelOf(itemID string) int {
	if ci := c.item(itemID); ci != nil {
		return ci.Level
	}
	return 0
}

// Boost is a time-limited level bonus a party grants its members on one item.
type Boost struct {
	ID      string    `json:"id"`
	ItemID  string    `json:"itemId"`
	Bonus   int       `json:"bonus"`
	Expires time.Time `json:"expires"`
}

// Party groups characters for RPG play.
type Party struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CharIDs    []string `json:"charIds"`
	TempBoosts []Boost  `json:"tempBoosts"`
}

// Clone returns a deep copy of the party.
func (p *Party) Clone() *Party {
	out := *p
	out.CharIDs = append([]string{}, p.CharIDs...)
	out.TempBoosts = append([]Boost{}, p.TempBoosts...)
	return &out
}

func (p *Party) hasMember(charID string) bool {
	for _, id := range p.CharIDs {
		if id == charID {
			return true
		}
	}
	return false
}

// Settings are user preferences persisted with the state.
type Settings struct {
	Theme         string `json:"theme"`
	DiscoveryMode bool   `json:"discoveryMode"`
	Emojis        bool   `json:"emojis"`
}

// Themes lists the selectable themes in toggle order.
var Themes = []string{"light", "dark", "orange"}

// State is the full persisted tracker state.
type State struct {
	Items      []*Item      `json:"items"`
	Characters []*Character `json:"characters"`
	Parties    []*Party     `json:"parties"`
	Settings   Settings     `json:"settings"`
}

// NewState returns an empty state with default settings.
func NewState() *State {
	return &State{
		Items:      []*Item{},
		Characters: []*Character{},
		Parties:    []*Party{},
		Settings:   Settings{Theme: Themes[0]},
	}
}

// Clone returns a deep copy of the state.
func (st *State) Clone() *State {
	out := &State{
		Items:      make([]*Item, len(st.Items)),
		Characters: make([]*Character, len(st.Characters)),
		Parties:    make([]*Party, len(st.Parties)),
		Settings:   st.Settings,
	}
	for i, it := range st.Items {
		out.Items[i] = it.Clone()
	}
	for i, c := range st.Characters {
		out.Characters[i] = c.Clone()
	}
	for i, p := range st.Parties {
		out.Parties[i] = p.Clone()
	}
	return out
}
