package tracker

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// ItemInput is the editable part of an item. Tier, IsPrime and History are
// managed by the store.
type ItemInput struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        ItemType   `json:"type"`
	Description string     `json:"description"`
	Notes       string     `json:"notes"`
	Parents     []Parent   `json:"parents"`
	Level       int        `json:"level"`
	Enhanced    bool       `json:"enhanced"`
	Checklists  Checklists `json:"checklists"`
}

// SaveResult reports a saved item and advisory structural warnings.
type SaveResult struct {
	Item     *Item    `json:"item"`
	Created  bool     `json:"created"`
	Warnings []string `json:"warnings,omitempty"`
}

// WarnParentCount is returned in SaveResult.Warnings for tiered items whose
// parent count is not MaxParents.
const WarnParentCount = "tier 1+ items should have exactly two parents"

func validateInput(in *ItemInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidItem, in.Type)
	}
	if in.Level < 0 || in.Level > MaxLevel {
		return fmt.Errorf("%w: level %d out of range 0..%d", ErrInvalidItem, in.Level, MaxLevel)
	}
	if len(in.Parents) > MaxParents {
		return fmt.Errorf("%w: at most %d parents, got %d", ErrInvalidItem, MaxParents, len(in.Parents))
	}
	id := in.ID
	if id == "" {
		id = DefaultItemID(in.Type, in.Name)
	}
	seen := make(map[string]bool, len(in.Parents))
	for _, p := range in.Parents {
		switch {
		case p.ID == "":
			return fmt.Errorf("%w: empty parent id", ErrInvalidItem)
		case p.ID == id:
			return fmt.Errorf("%w: %q cannot be its own parent", ErrInvalidItem, id)
		case seen[p.ID]:
			return fmt.Errorf("%w: duplicate parent %q", ErrInvalidItem, p.ID)
		case p.RequiredLevel < 0 || p.RequiredLevel > MaxLevel:
			return fmt.Errorf("%w: required level %d for %q out of range", ErrInvalidItem, p.RequiredLevel, p.ID)
		}
		seen[p.ID] = true
	}
	in.ID = id
	return nil
}

// SaveItem creates the item or replaces the editable fields of the item with
// the same id; a missing id defaults to DefaultItemID. History is kept across
// edits. A level of 6 or more on an item that is not enhanced asks for
// enhancement (declining rejects the save) and level 7 asks for divine unlock
// (declining stores 6). A save that would close a cycle is rolled back and
// returns *CyclicGraphError.
func (s *Store) SaveItem(in ItemInput, opts ...CallOption) (SaveResult, error) {
	o := s.callOpts(opts)
	if err := validateInput(&in); err != nil {
		return SaveResult{}, err
	}
	var res SaveResult
	err := s.mutate(func() ([]Change, error) {
		existing := s.index[in.ID]
		if in.Level >= EnhancedLevel && !in.Enhanced {
			if !o.confirm.Confirm(Prompt{Kind: PromptEnhancement, ItemID: in.ID, ItemName: in.Name, Level: in.Level}) {
				return nil, fmt.Errorf("%w: level %d requires enhancement", ErrInvalidItem, in.Level)
			}
			in.Enhanced = true
		}
		if in.Level == MaxLevel && !o.confirm.Confirm(Prompt{Kind: PromptDivineUnlock, ItemID: in.ID, ItemName: in.Name, Level: in.Level}) {
			in.Level = MaxLevel - 1
		}

		it := &Item{
			ID:          in.ID,
			Name:        in.Name,
			Type:        in.Type,
			Description: in.Description,
			Notes:       in.Notes,
			Parents:     append([]Parent{}, in.Parents...),
			Level:       in.Level,
			Enhanced:    in.Enhanced,
			Checklists:  in.Checklists.clone(),
			History:     []HistoryEntry{},
		}
		var old *Item
		if existing != nil {
			old = existing.Clone()
			it.History = existing.History
			it.Tier = existing.Tier
			*existing = *it
			it = existing
		} else {
			s.state.Items = append(s.state.Items, it)
			s.index[it.ID] = it
		}

		if err := s.recompute(); err != nil {
			if old != nil {
				*existing = *old
			} else {
				s.state.Items = s.state.Items[:len(s.state.Items)-1]
				delete(s.index, it.ID)
			}
			if rerr := s.recompute(); rerr != nil {
				s.logger.Error("tiers unsettled after rollback", zap.Error(rerr))
			}
			return nil, err
		}

		res = SaveResult{Item: it.Clone(), Created: old == nil}
		if it.Tier > 0 && len(it.Parents) != MaxParents {
			res.Warnings = append(res.Warnings, WarnParentCount)
		}
		return []Change{{Kind: ChangeItemSaved, ItemID: it.ID, To: it.Level}}, nil
	})
	return res, err
}

// DeleteItem removes the item, every character's progress, goals and journal
// for it, and party boosts on it. Children keep their now dangling parent
// reference, which counts as a level 0, tier 0 parent.
func (s *Store) DeleteItem(id string) error {
	return s.mutate(func() ([]Change, error) {
		if s.index[id] == nil {
			return nil, itemNotFound(id)
		}
		s.state.Items = slices.DeleteFunc(s.state.Items, func(it *Item) bool { return it.ID == id })
		delete(s.index, id)

		for _, c := range s.state.Characters {
			c.Items = slices.DeleteFunc(c.Items, func(ci CharItem) bool { return ci.ItemID == id })
			c.Goals = slices.DeleteFunc(c.Goals, func(g Goal) bool { return g.ItemID == id })
			delete(c.Journals, id)
		}
		for _, p := range s.state.Parties {
			p.TempBoosts = slices.DeleteFunc(p.TempBoosts, func(b Boost) bool {
				if b.ItemID != id {
					return false
				}
				s.cancelTimer(b.ID)
				return true
			})
		}
		if err := s.recompute(); err != nil {
			return nil, err
		}
		return []Change{{Kind: ChangeItemDeleted, ItemID: id}}, nil
	})
}

// Filter narrows Search. Nil bounds are open.
type Filter struct {
	Query     string     `json:"query" form:"q"`
	Types     []ItemType `json:"types" form:"type"`
	LooseOnly bool       `json:"looseOnly" form:"loose"`
	TierMin   *int       `json:"tierMin" form:"tier_min"`
	TierMax   *int       `json:"tierMax" form:"tier_max"`
	LevelMin  *int       `json:"levelMin" form:"level_min"`
	LevelMax  *int       `json:"levelMax" form:"level_max"`
}

func inRange(v int, lo, hi *int) bool {
	return (lo == nil || v >= *lo) && (hi == nil || v <= *hi)
}

// Search returns copies of the items matching f. The query matches names and
// descriptions without regard to case.
func (s *Store) Search(f Filter) []*Item {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(f.Query))

	s.mu.Lock()
	defer s.mu.Unlock()
	pool := s.state.Items
	if f.LooseOnly {
		pool = FindLooseEnds(pool)
	}
	var out []*Item
	for _, it := range pool {
		if q != "" && !strings.Contains(fold.String(it.Name), q) && !strings.Contains(fold.String(it.Description), q) {
			continue
		}
		if len(f.Types) > 0 && !slices.Contains(f.Types, it.Type) {
			continue
		}
		if !inRange(it.Tier, f.TierMin, f.TierMax) || !inRange(it.Level, f.LevelMin, f.LevelMax) {
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}

// Settings returns the stored preferences.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings
}

// SetSettings replaces the stored preferences.
func (s *Store) SetSettings(set Settings) error {
	if !slices.Contains(Themes, set.Theme) {
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidInput, set.Theme)
	}
	return s.mutate(func() ([]Change, error) {
		s.state.Settings = set
		return []Change{{Kind: ChangeSettings, Detail: set.Theme}}, nil
	})
}

// ToggleTheme advances to the next theme and returns it.
func (s *Store) ToggleTheme() (string, error) {
	var next string
	err := s.mutate(func() ([]Change, error) {
		i := slices.Index(Themes, s.state.Settings.Theme)
		next = Themes[(i+1)%len(Themes)]
		s.state.Settings.Theme = next
		return []Change{{Kind: ChangeSettings, Detail: next}}, nil
	})
	return next, err
}
