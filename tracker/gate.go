package tracker

import "go.uber.org/zap"

// Requirement is one parent requirement evaluated for an actor.
type Requirement struct {
	ParentID string `json:"parentId"`
	Required int    `json:"required"`
	Have     int    `json:"have"`
	Missing  bool   `json:"missing,omitempty"` // parent item is not in the store
}

// CanAcquire reports whether the actor meets every parent requirement of the
// item. An empty actorID checks the parents' global levels. Tier 0 items are
// always acquirable. Unknown items are not: an id that resolves to nothing has
// no requirements to satisfy, so it is refused rather than granted.
func (s *Store) CanAcquire(itemID, actorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAcquire(itemID, actorID)
}

// UnmetRequirements lists the parent requirements the actor fails for the item.
func (s *Store) UnmetRequirements(itemID, actorID string) ([]Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.index[itemID]
	if it == nil {
		return nil, itemNotFound(itemID)
	}
	if it.Tier == 0 {
		return nil, nil
	}
	return s.unmet(it, actorID), nil
}

func (s *Store) canAcquire(itemID, actorID string) bool {
	it := s.index[itemID]
	if it == nil {
		return false
	}
	if it.Tier == 0 {
		return true
	}
	return len(s.unmet(it, actorID)) == 0
}

func (s *Store) unmet(it *Item, actorID string) []Requirement {
	var out []Requirement
	for _, p := range it.Parents {
		_, known := s.index[p.ID]
		have := s.actorLevel(actorID, p.ID)
		if have < p.RequiredLevel {
			out = append(out, Requirement{ParentID: p.ID, Required: p.RequiredLevel, Have: have, Missing: !known})
		}
	}
	return out
}

// actorLevel is the actor's level in itemID: character-local when actorID is
// set, the item's global level otherwise. Missing references count as 0.
func (s *Store) actorLevel(actorID, itemID string) int {
	if actorID == "" {
		it := s.index[itemID]
		if it == nil {
			s.logger.Debug("unresolved parent", zap.String("item_id", itemID))
			return 0
		}
		return it.Level
	}
	c := s.character(actorID)
	if c == nil {
		s.logger.Debug("unresolved actor", zap.String("actor_id", actorID))
		return 0
	}
	return c.LevelOf(itemID)
}
