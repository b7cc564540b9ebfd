package tracker

import "fmt"

// Evolve shifts the item's checklists up by one level: level l takes the tasks
// of level l-1 for l = 7..2, level 7's old tasks are dropped and level 1 is
// cleared for new content. A dated history entry records the change. Level and
// tier are not touched.
func (s *Store) Evolve(itemID string) (*Item, error) {
	var out *Item
	err := s.mutate(func() ([]Change, error) {
		it := s.index[itemID]
		if it == nil {
			return nil, itemNotFound(itemID)
		}
		for l := MaxLevel; l > 1; l-- {
			it.Checklists.Set(l, it.Checklists.At(l-1))
		}
		it.Checklists.Set(1, []string{})
		it.History = append(it.History, HistoryEntry{
			Date:   s.today(),
			Change: fmt.Sprintf("Evolved (level %d checklists shifted down).", it.Level),
		})
		out = it.Clone()
		return []Change{{Kind: ChangeEvolved, ItemID: itemID, To: it.Level}}, nil
	})
	return out, err
}
