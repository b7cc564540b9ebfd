package tracker

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// ImportRow is one item of a bulk import. Name and Type are required; nil
// fields leave the merged item's value untouched.
type ImportRow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description *string         `json:"description,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	Parents     *[]Parent       `json:"parents,omitempty"`
	Level       *int            `json:"level,omitempty"`
	Enhanced    *bool           `json:"enhanced,omitempty"`
	Checklists  *Checklists     `json:"checklists,omitempty"`
	History     *[]HistoryEntry `json:"history,omitempty"`
}

// SkippedRow explains why a row was not imported. Row is 0-based.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportSummary counts the outcome of Import.
type ImportSummary struct {
	Created []string     `json:"created"`
	Merged  []string     `json:"merged"`
	Skipped []SkippedRow `json:"skipped,omitempty"`
}

// Import merges rows into the store. A row matches an existing item by id or
// by name without regard to case, and its set fields overwrite the item's.
// Unmatched rows become new items with tier 0, level 0, empty checklists and
// no parents unless the row says otherwise. A derived id already held by
// another item gets a numeric suffix. Tiers are recomputed once after the
// batch; a resulting cycle is reported but the import is kept.
func (s *Store) Import(rows []ImportRow) (ImportSummary, error) {
	var sum ImportSummary
	var tierErr error
	fold := cases.Fold()
	err := s.mutate(func() ([]Change, error) {
		byName := make(map[string]*Item, len(s.state.Items))
		for _, it := range s.state.Items {
			byName[fold.String(it.Name)] = it
		}
		for i, row := range rows {
			name := strings.TrimSpace(row.Name)
			if name == "" || strings.TrimSpace(row.Type) == "" {
				sum.Skipped = append(sum.Skipped, SkippedRow{Row: i, Reason: "name and type are required"})
				continue
			}
			t, err := ParseItemType(row.Type)
			if err != nil {
				sum.Skipped = append(sum.Skipped, SkippedRow{Row: i, Reason: err.Error()})
				continue
			}
			if err := checkRow(row); err != nil {
				sum.Skipped = append(sum.Skipped, SkippedRow{Row: i, Reason: err.Error()})
				continue
			}

			it := s.index[row.ID]
			if it == nil {
				it = byName[fold.String(name)]
			}
			if it == nil {
				id := row.ID
				if id == "" {
					id = s.freeID(DefaultItemID(t, name))
				}
				it = &Item{ID: id, Parents: []Parent{}, History: []HistoryEntry{}}
				s.state.Items = append(s.state.Items, it)
				s.index[id] = it
				sum.Created = append(sum.Created, id)
			} else {
				sum.Merged = append(sum.Merged, it.ID)
			}
			it.Name = name
			it.Type = t
			mergeRow(it, row)
			byName[fold.String(name)] = it
		}
		tierErr = s.recompute()
		if len(sum.Created)+len(sum.Merged) == 0 {
			return nil, nil
		}
		return []Change{{
			Kind:   ChangeImported,
			Detail: fmt.Sprintf("%d created, %d merged, %d skipped", len(sum.Created), len(sum.Merged), len(sum.Skipped)),
		}}, nil
	})
	return sum, errors.Join(tierErr, err)
}

// freeID returns base, or base with the lowest "_N" suffix (N >= 2) that no
// item uses yet. Callers hold s.mu.
func (s *Store) freeID(base string) string {
	if s.index[base] == nil {
		return base
	}
	for n := 2; ; n++ {
		if id := fmt.Sprintf("%s_%d", base, n); s.index[id] == nil {
			return id
		}
	}
}

func checkRow(row ImportRow) error {
	if row.Level != nil && (*row.Level < 0 || *row.Level > MaxLevel) {
		return fmt.Errorf("level %d out of range 0..%d", *row.Level, MaxLevel)
	}
	if row.Parents != nil && len(*row.Parents) > MaxParents {
		return fmt.Errorf("%d parents, at most %d allowed", len(*row.Parents), MaxParents)
	}
	return nil
}

func mergeRow(it *Item, row ImportRow) {
	if row.Description != nil {
		it.Description = *row.Description
	}
	if row.Notes != nil {
		it.Notes = *row.Notes
	}
	if row.Parents != nil {
		it.Parents = append([]Parent{}, (*row.Parents)...)
	}
	if row.Checklists != nil {
		it.Checklists = row.Checklists.clone()
	}
	if row.History != nil {
		it.History = append([]HistoryEntry{}, (*row.History)...)
	}
	if row.Enhanced != nil {
		it.Enhanced = *row.Enhanced
	}
	if row.Level != nil {
		it.Level = *row.Level
	}
	// Imported data above level 5 was enhanced where it came from.
	if it.Level >= EnhancedLevel {
		it.Enhanced = true
	}
}
