package tracker

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxLevel is the highest level an item can reach.
const MaxLevel = 7

// EnhancedLevel is the first level that requires the item to be enhanced.
const EnhancedLevel = 6

// MaxParents is the number of parents a non-root item should have.
const MaxParents = 2

// ItemType categorizes an item in the prerequisite graph.
type ItemType string

const (
	TypeSkill   ItemType = "skill"
	TypeFaculty ItemType = "faculty"
	TypeFactor  ItemType = "factor"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case TypeSkill, TypeFaculty, TypeFactor:
		return true
	default:
		return false
	}
}

// ParseItemType normalizes user input into an ItemType.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid item type %q (want skill|faculty|factor)", s)
	}
	return t, nil
}

// Parent is a prerequisite edge: the child needs RequiredLevel in parent ID.
type Parent struct {
	ID            string `json:"id"`
	RequiredLevel int    `json:"requiredLevel"`
}

// HistoryEntry is one append-only change log record of an item.
type HistoryEntry struct {
	Date   string `json:"date"`
	Change string `json:"change"`
}

// Checklists holds the tasks of levels 1..MaxLevel. Index 0 is level 1.
type Checklists [MaxLevel][]string

// At returns the tasks of level (1-based). Out-of-range levels have no tasks.
func (c *Checklists) At(level int) []string {
	if level < 1 || level > MaxLevel {
		return nil
	}
	return c[level-1]
}

// Set replaces the tasks of level (1-based). Out-of-range levels are ignored.
func (c *Checklists) Set(level int, tasks []string) {
	if level < 1 || level > MaxLevel {
		return
	}
	c[level-1] = tasks
}

func (c Checklists) clone() Checklists {
	var out Checklists
	for i, tasks := range c {
		out[i] = append([]string{}, tasks...)
	}
	return out
}

// MarshalJSON writes checklists as {"1": [...], ..., "7": [...]}.
func (c Checklists) MarshalJSON() ([]byte, error) {
	m := make(map[string][]string, MaxLevel)
	for i, tasks := range c {
		if tasks == nil {
			tasks = []string{}
		}
		m[strconv.Itoa(i+1)] = tasks
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts the level-keyed object form. Unknown keys are ignored.
func (c *Checklists) UnmarshalJSON(data []byte) error {
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = Checklists{}
	for k, tasks := range m {
		lvl, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		c.Set(lvl, tasks)
	}
	return nil
}

// Item is a node of the prerequisite graph.
type Item struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        ItemType       `json:"type"`
	Description string         `json:"description"`
	Parents     []Parent       `json:"parents"`
	Tier        int            `json:"tier"`
	Level       int            `json:"level"`
	Checklists  Checklists     `json:"checklists"`
	Notes       string         `json:"notes"`
	History     []HistoryEntry `json:"history"`
	IsPrime     bool           `json:"isPrime"`
	Enhanced    bool           `json:"enhanced"`
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	out := *it
	out.Parents = append([]Parent{}, it.Parents...)
	out.History = append([]HistoryEntry{}, it.History...)
	out.Checklists = it.Checklists.clone()
	return &out
}

// HasParent reports whether id is one of the item's parents.
func (it *Item) HasParent(id string) bool {
	for _, p := range it.Parents {
		if p.ID == id {
			return true
		}
	}
	return false
}

var idSpace = regexp.MustCompile(`\s`)

// DefaultItemID builds the id an item gets when none is supplied: "<type>_<name>".
func DefaultItemID(t ItemType, name string) string {
	return string(t) + "_" + idSpace.ReplaceAllString(strings.ToLower(name), "_")
}

var grades = [...]string{"F", "D", "C", "B", "A-", "A", "S", "Z"}

// LevelGrade maps a level to its letter grade. Unknown levels grade as F.
func LevelGrade(level int) string {
	if level < 0 || level >= len(grades) {
		return "F"
	}
	return grades[level]
}
