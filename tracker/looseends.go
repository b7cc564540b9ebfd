package tracker

// FindLooseEnds returns the items that break a structural rule: a non-root
// with other than two parents, or a childless item that is not a factor.
// Childlessness is derived from items, not from the stored IsPrime flag.
func FindLooseEnds(items []*Item) []*Item {
	hasChildren := make(map[string]bool, len(items))
	for _, it := range items {
		for _, p := range it.Parents {
			hasChildren[p.ID] = true
		}
	}
	var out []*Item
	for _, it := range items {
		if isLooseEnd(it, hasChildren) {
			out = append(out, it)
		}
	}
	return out
}

func isLooseEnd(it *Item, hasChildren map[string]bool) bool {
	if it.Tier > 0 && len(it.Parents) != MaxParents {
		return true
	}
	return !hasChildren[it.ID] && it.Type != TypeFactor
}

// LooseEnds returns copies of the store's loose-end items. Tiers are read as
// stored, so run RecomputeAll first after editing the graph outside the store.
func (s *Store) LooseEnds() []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := FindLooseEnds(s.state.Items)
	out := make([]*Item, len(found))
	for i, it := range found {
		out[i] = it.Clone()
	}
	return out
}
