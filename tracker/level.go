package tracker

import "fmt"

// Outcome describes how a level-up request resolved.
type Outcome string

const (
	OutcomeLeveledUp Outcome = "leveled_up"
	OutcomeCapped    Outcome = "capped"   // divine unlock declined, held at 6
	OutcomeAtMax     Outcome = "at_max"   // already at MaxLevel
	OutcomeBlocked   Outcome = "blocked"  // parent requirements not met
	OutcomeDeclined  Outcome = "declined" // enhancement declined, nothing changed
)

// LevelUpResult reports a level-up attempt.
type LevelUpResult struct {
	ItemID   string  `json:"itemId"`
	ActorID  string  `json:"actorId,omitempty"`
	From     int     `json:"from"`
	To       int     `json:"to"`
	Outcome  Outcome `json:"outcome"`
	Enhanced bool    `json:"enhanced,omitempty"` // enhancement was granted by this call
}

// Advanced reports whether the level went up.
func (r LevelUpResult) Advanced() bool { return r.To > r.From }

// LevelUp raises the actor's level in the item by one. An empty actorID levels
// the item's global level. Unmet prerequisites are a silent no-op; levels past
// 5 need the enhancement prompt accepted and level 7 needs divine unlock, which
// when declined holds the result at 6.
func (s *Store) LevelUp(itemID, actorID string, opts ...CallOption) (LevelUpResult, error) {
	o := s.callOpts(opts)
	var res LevelUpResult
	err := s.mutate(func() ([]Change, error) {
		var changes []Change
		var err error
		res, changes, err = s.levelUp(itemID, actorID, o.confirm)
		return changes, err
	})
	return res, err
}

func (s *Store) levelUp(itemID, actorID string, confirm Confirmer) (LevelUpResult, []Change, error) {
	it := s.index[itemID]
	if it == nil {
		return LevelUpResult{}, nil, itemNotFound(itemID)
	}
	var c *Character
	cur := it.Level
	if actorID != "" {
		if c = s.character(actorID); c == nil {
			return LevelUpResult{}, nil, characterNotFound(actorID)
		}
		cur = c.LevelOf(itemID)
	}

	res := LevelUpResult{ItemID: itemID, ActorID: actorID, From: cur, To: cur}
	if cur >= MaxLevel {
		res.Outcome = OutcomeAtMax
		return res, nil, nil
	}
	if !s.canAcquire(itemID, actorID) {
		res.Outcome = OutcomeBlocked
		return res, nil, nil
	}

	next := cur + 1
	var changes []Change
	if next >= EnhancedLevel && !it.Enhanced {
		if !confirm.Confirm(Prompt{Kind: PromptEnhancement, ItemID: it.ID, ItemName: it.Name, Level: next}) {
			res.Outcome = OutcomeDeclined
			return res, nil, nil
		}
		it.Enhanced = true
		res.Enhanced = true
		changes = append(changes, Change{Kind: ChangeEnhanced, ItemID: itemID, ActorID: actorID})
	}

	res.Outcome = OutcomeLeveledUp
	if next == MaxLevel && !confirm.Confirm(Prompt{Kind: PromptDivineUnlock, ItemID: it.ID, ItemName: it.Name, Level: next}) {
		next = MaxLevel - 1
		res.Outcome = OutcomeCapped
	}

	if c != nil {
		ci := c.item(itemID)
		if ci == nil {
			c.Items = append(c.Items, CharItem{ItemID: itemID})
			ci = &c.Items[len(c.Items)-1]
		}
		ci.Level = next
	} else {
		it.Level = next
	}
	res.To = next
	if res.Advanced() {
		changes = append(changes, Change{Kind: ChangeLevelUp, ItemID: itemID, ActorID: actorID, From: res.From, To: res.To})
	}
	return res, changes, nil
}

// CheckResult reports a checklist update and any level-ups it triggered.
type CheckResult struct {
	ActorID  string          `json:"actorId"`
	ItemID   string          `json:"itemId"`
	Level    int             `json:"level"`
	Task     int             `json:"task"`
	Checked  bool            `json:"checked"`
	LevelUps []LevelUpResult `json:"levelUps,omitempty"`
}

// SetChecklistItem records a task's checked state for the actor (the "Me"
// character when actorID is empty). When the checklist of the next level is
// then fully checked, the item levels up; this repeats while following levels
// are already complete.
func (s *Store) SetChecklistItem(actorID, itemID string, level, taskIndex int, checked bool, opts ...CallOption) (CheckResult, error) {
	o := s.callOpts(opts)
	var res CheckResult
	err := s.mutate(func() ([]Change, error) {
		c := s.character(actorID)
		if actorID == "" {
			c = s.me()
		}
		if c == nil {
			return nil, characterNotFound(actorID)
		}
		it := s.index[itemID]
		if it == nil {
			return nil, itemNotFound(itemID)
		}
		if level < 1 || level > MaxLevel {
			return nil, fmt.Errorf("%w: level %d out of range 1..%d", ErrInvalidInput, level, MaxLevel)
		}
		if n := len(it.Checklists.At(level)); taskIndex < 0 || taskIndex >= n {
			return nil, fmt.Errorf("%w: task %d out of range (level %d has %d tasks)", ErrInvalidInput, taskIndex, level, n)
		}
		ci := c.item(itemID)
		if ci == nil {
			return nil, fmt.Errorf("%w: %s does not hold %q", ErrNotAcquired, c.Name, itemID)
		}

		ci.ChecklistProgress.Mark(level, taskIndex, checked)
		res = CheckResult{ActorID: c.ID, ItemID: itemID, Level: level, Task: taskIndex, Checked: checked}
		changes := []Change{{Kind: ChangeChecklist, ItemID: itemID, ActorID: c.ID, To: level}}

		for range MaxLevel {
			next := c.LevelOf(itemID) + 1
			if next > MaxLevel {
				break
			}
			tasks := it.Checklists.At(next)
			if !c.item(itemID).ChecklistProgress.Complete(next, len(tasks)) {
				break
			}
			lr, more, err := s.levelUp(itemID, c.ID, o.confirm)
			if err != nil {
				return nil, err
			}
			res.LevelUps = append(res.LevelUps, lr)
			changes = append(changes, more...)
			if lr.Outcome != OutcomeLeveledUp {
				break
			}
		}
		return changes, nil
	})
	return res, err
}
