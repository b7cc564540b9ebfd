package tracker

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CreateCharacter adds an RPG character with no items.
func (s *Store) CreateCharacter(name string) (*Character, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: character name is required", ErrInvalidInput)
	}
	if name == MeName {
		return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidInput, MeName)
	}
	var out *Character
	err := s.mutate(func() ([]Change, error) {
		c := &Character{
			ID:       "char_" + s.newID(),
			Name:     name,
			Items:    []CharItem{},
			Goals:    []Goal{},
			Journals: map[string]string{},
		}
		s.state.Characters = append(s.state.Characters, c)
		out = c.Clone()
		return []Change{{Kind: ChangeCharacter, ActorID: c.ID, Detail: name}}, nil
	})
	return out, err
}

// AcquireItem gives the character the item at level 0. It fails with
// *GateError listing the unmet parent requirements, or ErrAlreadyAcquired.
func (s *Store) AcquireItem(charID, itemID string) error {
	return s.mutate(func() ([]Change, error) {
		c := s.character(charID)
		if c == nil {
			return nil, characterNotFound(charID)
		}
		it := s.index[itemID]
		if it == nil {
			return nil, itemNotFound(itemID)
		}
		if c.item(itemID) != nil {
			return nil, fmt.Errorf("%w: %s already has %s", ErrAlreadyAcquired, c.Name, it.Name)
		}
		if !s.canAcquire(itemID, charID) {
			return nil, &GateError{ItemID: itemID, ActorID: charID, Unmet: s.unmet(it, charID)}
		}
		c.Items = append(c.Items, CharItem{ItemID: itemID})
		return []Change{{Kind: ChangeAcquired, ItemID: itemID, ActorID: charID}}, nil
	})
}

// AddXP grants XP to the character and returns the new total.
func (s *Store) AddXP(charID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: xp amount must be positive", ErrInvalidInput)
	}
	var total int
	err := s.mutate(func() ([]Change, error) {
		c := s.character(charID)
		if c == nil {
			return nil, characterNotFound(charID)
		}
		c.XP += amount
		total = c.XP
		return []Change{{Kind: ChangeXP, ActorID: charID, To: total, Detail: fmt.Sprintf("+%d", amount)}}, nil
	})
	return total, err
}

// XPCost is the price of raising an item to level.
func (s *Store) XPCost(level int) int { return s.xpCost * level }

// SpendXP pays for one level-up of a held item. The character is charged for
// the level actually reached, nothing when the level-up did not advance.
func (s *Store) SpendXP(charID, itemID string, opts ...CallOption) (LevelUpResult, error) {
	o := s.callOpts(opts)
	var res LevelUpResult
	err := s.mutate(func() ([]Change, error) {
		c := s.character(charID)
		if c == nil {
			return nil, characterNotFound(charID)
		}
		if s.index[itemID] == nil {
			return nil, itemNotFound(itemID)
		}
		ci := c.item(itemID)
		if ci == nil {
			return nil, fmt.Errorf("%w: %s does not hold %q", ErrNotAcquired, c.Name, itemID)
		}
		if cost := s.XPCost(ci.Level + 1); ci.Level < MaxLevel && c.XP < cost {
			return nil, fmt.Errorf("%w: %s has %d, level %d costs %d", ErrInsufficientXP, c.Name, c.XP, ci.Level+1, cost)
		}
		var changes []Change
		var err error
		res, changes, err = s.levelUp(itemID, charID, o.confirm)
		if err != nil {
			return nil, err
		}
		if res.Advanced() {
			spent := s.XPCost(res.To)
			c.XP -= spent
			changes = append(changes, Change{Kind: ChangeXP, ActorID: charID, ItemID: itemID, To: c.XP, Detail: fmt.Sprintf("-%d", spent)})
		}
		return changes, nil
	})
	return res, err
}

// ToggleEnhancement flips the item's enhanced flag and returns the new value.
// An item above level 5 cannot lose its enhancement.
func (s *Store) ToggleEnhancement(itemID string) (bool, error) {
	var on bool
	err := s.mutate(func() ([]Change, error) {
		it := s.index[itemID]
		if it == nil {
			return nil, itemNotFound(itemID)
		}
		if it.Enhanced && it.Level >= EnhancedLevel {
			return nil, fmt.Errorf("%w: %s is level %d and must stay enhanced", ErrInvalidInput, it.Name, it.Level)
		}
		it.Enhanced = !it.Enhanced
		on = it.Enhanced
		return []Change{{Kind: ChangeEnhanced, ItemID: itemID, Detail: fmt.Sprint(on)}}, nil
	})
	return on, err
}

// AddGoal records a target level for an item by a due date. An empty charID
// means "Me".
func (s *Store) AddGoal(charID string, g Goal) error {
	if g.TargetLevel < 1 || g.TargetLevel > MaxLevel {
		return fmt.Errorf("%w: target level %d out of range 1..%d", ErrInvalidInput, g.TargetLevel, MaxLevel)
	}
	if _, ok := g.DueTime(); !ok {
		return fmt.Errorf("%w: due date %q, want %s", ErrInvalidInput, g.Due, DateLayout)
	}
	return s.mutate(func() ([]Change, error) {
		c := s.actor(charID)
		if c == nil {
			return nil, characterNotFound(charID)
		}
		if s.index[g.ItemID] == nil {
			return nil, itemNotFound(g.ItemID)
		}
		c.Goals = append(c.Goals, g)
		return []Change{{Kind: ChangeGoal, ItemID: g.ItemID, ActorID: c.ID, To: g.TargetLevel, Detail: g.Due}}, nil
	})
}

// Reminder is an overdue goal that has not been reached.
type Reminder struct {
	ItemID      string `json:"itemId"`
	ItemName    string `json:"itemName"`
	TargetLevel int    `json:"targetLevel"`
	Level       int    `json:"level"`
	Due         string `json:"due"`
}

// Text is the message shown for the reminder.
func (r Reminder) Text() string {
	return fmt.Sprintf("Reminder: time to practice %s! (level %d of %d, due %s)", r.ItemName, r.Level, r.TargetLevel, r.Due)
}

// DueReminders lists the goals of "Me" whose due date is before now's
// calendar day and whose target level is not yet held.
func (s *Store) DueReminders(now time.Time) []Reminder {
	today, _ := time.Parse(DateLayout, now.Format(DateLayout))

	s.mu.Lock()
	defer s.mu.Unlock()
	me := s.me()
	var out []Reminder
	for _, g := range me.Goals {
		due, ok := g.DueTime()
		if !ok || !due.Before(today) {
			continue
		}
		lvl := me.LevelOf(g.ItemID)
		if lvl >= g.TargetLevel {
			continue
		}
		name := "a skill"
		if it := s.index[g.ItemID]; it != nil {
			name = it.Name
		}
		out = append(out, Reminder{ItemID: g.ItemID, ItemName: name, TargetLevel: g.TargetLevel, Level: lvl, Due: g.Due})
	}
	return out
}

// AppendJournal adds a dated line to the character's journal for the item.
// An empty charID means "Me".
func (s *Store) AppendJournal(charID, itemID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty journal entry", ErrInvalidInput)
	}
	return s.mutate(func() ([]Change, error) {
		c := s.actor(charID)
		if c == nil {
			return nil, characterNotFound(charID)
		}
		if s.index[itemID] == nil {
			return nil, itemNotFound(itemID)
		}
		line := s.today() + ": " + text
		if prev := c.Journals[itemID]; prev != "" {
			line = prev + "\n" + line
		}
		c.Journals[itemID] = line
		return []Change{{Kind: ChangeJournal, ItemID: itemID, ActorID: c.ID}}, nil
	})
}

// CreateParty groups existing characters. Duplicate ids are collapsed.
func (s *Store) CreateParty(name string, charIDs []string) (*Party, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: party name is required", ErrInvalidInput)
	}
	var out *Party
	err := s.mutate(func() ([]Change, error) {
		members := make([]string, 0, len(charIDs))
		for _, id := range charIDs {
			id = strings.TrimSpace(id)
			if s.character(id) == nil {
				return nil, characterNotFound(id)
			}
			if !slices.Contains(members, id) {
				members = append(members, id)
			}
		}
		p := &Party{ID: "party_" + s.newID(), Name: name, CharIDs: members, TempBoosts: []Boost{}}
		s.state.Parties = append(s.state.Parties, p)
		out = p.Clone()
		return []Change{{Kind: ChangeParty, Detail: name}}, nil
	})
	return out, err
}

// Parties returns copies of all parties.
func (s *Store) Parties() []*Party {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Party, len(s.state.Parties))
	for i, p := range s.state.Parties {
		out[i] = p.Clone()
	}
	return out
}

// Party returns a copy of the party with id.
func (s *Store) Party(id string) (*Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.party(id)
	if p == nil {
		return nil, partyNotFound(id)
	}
	return p.Clone(), nil
}

// PartyItems returns the items held by at least one party member.
func (s *Store) PartyItems(partyID string) ([]*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.party(partyID)
	if p == nil {
		return nil, partyNotFound(partyID)
	}
	var out []*Item
	for _, it := range s.state.Items {
		for _, id := range p.CharIDs {
			if c := s.character(id); c != nil && c.item(it.ID) != nil {
				out = append(out, it.Clone())
				break
			}
		}
	}
	return out, nil
}

// BoostHandle revokes a temporary boost before it expires.
type BoostHandle struct {
	ID      string
	PartyID string
	ItemID  string
	Expires time.Time
	store   *Store
}

// Cancel removes the boost now. It reports false when the boost had already
// expired or been cancelled.
func (h *BoostHandle) Cancel() bool {
	return h.store.cancelBoost(h.PartyID, h.ID)
}

// CancelBoost removes a party boost by id, like BoostHandle.Cancel.
func (s *Store) CancelBoost(partyID, boostID string) bool {
	return s.cancelBoost(partyID, boostID)
}

func boostTimer(id string) string { return "boost:" + id }

// AddTemporaryBoost grants every party member bonus levels in the item for d.
// The boost is removed when d elapses unless cancelled first.
func (s *Store) AddTemporaryBoost(partyID, itemID string, bonus int, d time.Duration) (*BoostHandle, error) {
	if s.timer == nil {
		return nil, ErrNoScheduler
	}
	if bonus < 1 || d <= 0 {
		return nil, fmt.Errorf("%w: boost needs a positive bonus and duration", ErrInvalidInput)
	}
	var h *BoostHandle
	err := s.mutate(func() ([]Change, error) {
		p := s.party(partyID)
		if p == nil {
			return nil, partyNotFound(partyID)
		}
		if s.index[itemID] == nil {
			return nil, itemNotFound(itemID)
		}
		b := Boost{ID: s.newID(), ItemID: itemID, Bonus: bonus, Expires: s.now().Add(d)}
		p.TempBoosts = append(p.TempBoosts, b)
		s.scheduleBoost(partyID, b.ID, d)
		h = &BoostHandle{ID: b.ID, PartyID: partyID, ItemID: itemID, Expires: b.Expires, store: s}
		return []Change{{Kind: ChangeBoostAdded, ItemID: itemID, Detail: b.ID, To: bonus}}, nil
	})
	return h, err
}

func (s *Store) scheduleBoost(partyID, boostID string, d time.Duration) {
	s.timer.AddDelay(boostTimer(boostID), d, func() { s.expireBoost(partyID, boostID) })
}

func (s *Store) cancelTimer(boostID string) {
	if s.timer != nil {
		s.timer.Remove(boostTimer(boostID))
	}
}

func (s *Store) cancelBoost(partyID, boostID string) bool {
	removed := false
	err := s.mutate(func() ([]Change, error) {
		b, ok := s.dropBoost(partyID, boostID)
		if !ok {
			return nil, nil
		}
		s.cancelTimer(boostID)
		removed = true
		return []Change{{Kind: ChangeBoostCancelled, ItemID: b.ItemID, Detail: boostID}}, nil
	})
	if err != nil {
		s.logger.Warn("boost cancel not persisted", zap.String("boost_id", boostID), zap.Error(err))
	}
	return removed
}

func (s *Store) expireBoost(partyID, boostID string) {
	err := s.mutate(func() ([]Change, error) {
		b, ok := s.dropBoost(partyID, boostID)
		if !ok {
			return nil, nil
		}
		return []Change{{Kind: ChangeBoostExpired, ItemID: b.ItemID, Detail: boostID}}, nil
	})
	if err != nil {
		s.logger.Warn("boost expiry not persisted", zap.String("boost_id", boostID), zap.Error(err))
	}
}

func (s *Store) dropBoost(partyID, boostID string) (Boost, bool) {
	p := s.party(partyID)
	if p == nil {
		return Boost{}, false
	}
	for i, b := range p.TempBoosts {
		if b.ID == boostID {
			p.TempBoosts = slices.Delete(p.TempBoosts, i, i+1)
			return b, true
		}
	}
	return Boost{}, false
}

// rescheduleBoosts drops boosts that expired while the state was stored and
// schedules the rest. Callers hold s.mu.
func (s *Store) rescheduleBoosts() {
	now := s.now()
	for _, p := range s.state.Parties {
		p.TempBoosts = slices.DeleteFunc(p.TempBoosts, func(b Boost) bool {
			if !b.Expires.After(now) {
				return true
			}
			if s.timer == nil {
				return false
			}
			s.scheduleBoost(p.ID, b.ID, b.Expires.Sub(now))
			return false
		})
	}
}

// EffectiveLevel is the character's level in the item plus every active boost
// of its parties, capped at MaxLevel. Prerequisite checks use raw levels.
func (s *Store) EffectiveLevel(charID, itemID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.character(charID)
	if c == nil {
		return 0, characterNotFound(charID)
	}
	lvl := c.LevelOf(itemID)
	now := s.now()
	for _, p := range s.state.Parties {
		if !p.hasMember(charID) {
			continue
		}
		for _, b := range p.TempBoosts {
			if b.ItemID == itemID && b.Expires.After(now) {
				lvl += b.Bonus
			}
		}
	}
	return min(lvl, MaxLevel), nil
}

// actor resolves a character id, "Me" when empty. Callers hold s.mu.
func (s *Store) actor(charID string) *Character {
	if charID == "" {
		return s.me()
	}
	return s.character(charID)
}
