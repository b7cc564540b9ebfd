package tracker

import (
	"errors"

	"go.uber.org/zap"
)

// RecomputeTiers assigns every item tier = 1 + max(parent tier), or 0 without
// parents, by relaxing full passes until nothing changes. A parent that is not
// in items counts as tier 0. IsPrime is refreshed from the children relation.
//
// An acyclic graph settles within len(items)+1 passes; maxPasses can only raise
// that bound. Not settling returns *CyclicGraphError and leaves the tiers of the
// last pass in place.
func RecomputeTiers(items []*Item, maxPasses int) error {
	byID := make(map[string]*Item, len(items))
	hasChildren := make(map[string]bool, len(items))
	for _, it := range items {
		byID[it.ID] = it
		for _, p := range it.Parents {
			hasChildren[p.ID] = true
		}
	}
	for _, it := range items {
		it.IsPrime = !hasChildren[it.ID]
	}

	bound := len(items) + 1
	if maxPasses > bound {
		bound = maxPasses
	}
	for pass := 1; ; pass++ {
		var changed []string
		for _, it := range items {
			t := tierFromParents(it, byID)
			if t != it.Tier {
				it.Tier = t
				changed = append(changed, it.ID)
			}
		}
		if len(changed) == 0 {
			return nil
		}
		if pass >= bound {
			return &CyclicGraphError{Passes: pass, Items: changed}
		}
	}
}

func tierFromParents(it *Item, byID map[string]*Item) int {
	if len(it.Parents) == 0 {
		return 0
	}
	highest := 0
	for _, p := range it.Parents {
		if parent, ok := byID[p.ID]; ok && parent.Tier > highest {
			highest = parent.Tier
		}
	}
	return highest + 1
}

// RecomputeAll reruns tier propagation over the whole store, then persists and
// notifies.
func (s *Store) RecomputeAll() error {
	var tierErr error
	err := s.mutate(func() ([]Change, error) {
		tierErr = s.recompute()
		return []Change{{Kind: ChangeTiers}}, nil
	})
	return errors.Join(tierErr, err)
}

// recompute runs propagation on the current items. Callers hold s.mu.
func (s *Store) recompute() error {
	err := RecomputeTiers(s.state.Items, s.maxPasses)
	if err != nil {
		s.logger.Warn("tier propagation did not settle", zap.Error(err))
	}
	return err
}
