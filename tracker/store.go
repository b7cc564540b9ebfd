package tracker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DateLayout is the calendar date format used in history entries and goals.
const DateLayout = "2006-01-02"

// PersistFunc receives a deep copy of the state after every mutation.
type PersistFunc func(st *State) error

// NotifyFunc is told about every change after it was persisted.
type NotifyFunc func(ch Change)

// Timer schedules and revokes named one-shot callbacks.
type Timer interface {
	AddDelay(name string, delay time.Duration, fn func())
	Remove(name string) bool
}

// ChangeKind names the mutation a Change describes.
type ChangeKind string

const (
	ChangeItemSaved      ChangeKind = "item_saved"
	ChangeItemDeleted    ChangeKind = "item_deleted"
	ChangeTiers          ChangeKind = "tiers_recomputed"
	ChangeChecklist      ChangeKind = "checklist"
	ChangeLevelUp        ChangeKind = "level_up"
	ChangeEnhanced       ChangeKind = "enhanced"
	ChangeEvolved        ChangeKind = "evolved"
	ChangeImported       ChangeKind = "imported"
	ChangeStateReplaced  ChangeKind = "state_replaced"
	ChangeCharacter      ChangeKind = "character_created"
	ChangeAcquired       ChangeKind = "acquired"
	ChangeXP             ChangeKind = "xp"
	ChangeGoal           ChangeKind = "goal_added"
	ChangeJournal        ChangeKind = "journal"
	ChangeParty          ChangeKind = "party_created"
	ChangeBoostAdded     ChangeKind = "boost_added"
	ChangeBoostExpired   ChangeKind = "boost_expired"
	ChangeBoostCancelled ChangeKind = "boost_cancelled"
	ChangeSettings       ChangeKind = "settings"
)

// Change describes one state mutation for view refresh and auditing.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	ItemID  string     `json:"itemId,omitempty"`
	ActorID string     `json:"actorId,omitempty"`
	From    int        `json:"from,omitempty"`
	To      int        `json:"to,omitempty"`
	Detail  string     `json:"detail,omitempty"`
	At      time.Time  `json:"at"`
}

// Store owns every item, character and party of the tracker. All mutations go
// through its methods; each one persists and notifies before returning.
type Store struct {
	mu    sync.Mutex
	pmu   sync.Mutex // orders persist calls by mutation order
	state *State
	index map[string]*Item

	confirm   Confirmer
	persist   PersistFunc
	notify    NotifyFunc
	timer     Timer
	maxPasses int
	xpCost    int
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPolicy sets the default confirmation policy. Without one every prompt is declined.
func WithPolicy(c Confirmer) Option { return func(s *Store) { s.confirm = c } }

// WithPersist sets the persistence callback.
func WithPersist(fn PersistFunc) Option { return func(s *Store) { s.persist = fn } }

// WithNotify sets the view-refresh callback.
func WithNotify(fn NotifyFunc) Option { return func(s *Store) { s.notify = fn } }

// WithTimer sets the scheduler used for temporary boosts.
func WithTimer(t Timer) Option { return func(s *Store) { s.timer = t } }

// WithMaxPasses raises the tier propagation pass bound.
func WithMaxPasses(n int) Option { return func(s *Store) { s.maxPasses = n } }

// WithXPCost sets the XP price per target level used by SpendXP.
func WithXPCost(perLevel int) Option { return func(s *Store) { s.xpCost = perLevel } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDFunc replaces the id generator for characters, parties and boosts.
func WithIDFunc(fn func() string) Option { return func(s *Store) { s.newID = fn } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.logger = l } }

// NewStore returns a store holding an empty state with the "Me" character.
func NewStore(opts ...Option) *Store {
	s := &Store{
		xpCost: 100,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.install(NewState())
	return s
}

// Load replaces the state with a copy of st without persisting it. Missing
// collections are normalized, "Me" is created if absent, tiers are recomputed
// and unexpired boosts are rescheduled. A cyclic graph is loaded anyway and
// reported as *CyclicGraphError; duplicate item ids are not.
func (s *Store) Load(st *State) error {
	if err := uniqueItemIDs(st.Items); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.install(st.Clone())
	s.rescheduleBoosts()
	return s.recompute()
}

// Replace swaps in a full state (JSON import) and persists it. A state with
// two items sharing an id is refused with ErrInvalidItem.
func (s *Store) Replace(st *State) error {
	if err := uniqueItemIDs(st.Items); err != nil {
		return err
	}
	var tierErr error
	err := s.mutate(func() ([]Change, error) {
		s.install(st.Clone())
		s.rescheduleBoosts()
		tierErr = s.recompute()
		return []Change{{Kind: ChangeStateReplaced, Detail: fmt.Sprintf("%d items", len(s.state.Items))}}, nil
	})
	return errors.Join(tierErr, err)
}

func uniqueItemIDs(items []*Item) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if seen[it.ID] {
			return fmt.Errorf("%w: duplicate item id %q", ErrInvalidItem, it.ID)
		}
		seen[it.ID] = true
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) install(st *State) {
	if st.Items == nil {
		st.Items = []*Item{}
	}
	if st.Characters == nil {
		st.Characters = []*Character{}
	}
	if st.Parties == nil {
		st.Parties = []*Party{}
	}
	if st.Settings.Theme == "" {
		st.Settings.Theme = Themes[0]
	}
	for _, it := range st.Items {
		if it.Parents == nil {
			it.Parents = []Parent{}
		}
		if it.History == nil {
			it.History = []HistoryEntry{}
		}
	}
	hasMe := false
	for _, c := range st.Characters {
		if c.Journals == nil {
			c.Journals = map[string]string{}
		}
		if c.Goals == nil {
			c.Goals = []Goal{}
		}
		if c.Items == nil {
			c.Items = []CharItem{}
		}
		if c.Name == MeName {
			hasMe = true
		}
	}
	if !hasMe {
		st.Characters = append(st.Characters, &Character{
			ID:       MeID,
			Name:     MeName,
			Items:    []CharItem{},
			Goals:    []Goal{},
			Journals: map[string]string{},
		})
	}
	s.state = st
	s.reindex()
}

func (s *Store) reindex() {
	s.index = make(map[string]*Item, len(s.state.Items))
	for _, it := range s.state.Items {
		s.index[it.ID] = it
	}
}

// mutate runs fn under the lock. When fn reports changes, the new state is
// persisted and the changes are announced after the lock is released.
func (s *Store) mutate(fn func() ([]Change, error)) error {
	s.mu.Lock()
	changes, err := fn()
	if err != nil || len(changes) == 0 {
		s.mu.Unlock()
		return err
	}
	snap := s.state.Clone()
	now := s.now()
	s.pmu.Lock()
	s.mu.Unlock()

	var persistErr error
	if s.persist != nil {
		if perr := s.persist(snap); perr != nil {
			s.logger.Error("persist failed; keeping in-memory state", zap.Error(perr))
			persistErr = fmt.Errorf("%w: %w", ErrPersist, perr)
		}
	}
	s.pmu.Unlock()
	if s.notify != nil {
		for _, ch := range changes {
			if ch.At.IsZero() {
				ch.At = now
			}
			s.notify(ch)
		}
	}
	return persistErr
}

// Item returns a copy of the item with id.
func (s *Store) Item(id string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.index[id]
	if it == nil {
		return nil, itemNotFound(id)
	}
	return it.Clone(), nil
}

// Items returns copies of all items in insertion order.
func (s *Store) Items() []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Item, len(s.state.Items))
	for i, it := range s.state.Items {
		out[i] = it.Clone()
	}
	return out
}

// Children returns copies of the items that list id as a parent.
func (s *Store) Children(id string) ([]*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index[id] == nil {
		return nil, itemNotFound(id)
	}
	var out []*Item
	for _, it := range s.state.Items {
		if it.HasParent(id) {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

// Character returns a copy of the character with id.
func (s *Store) Character(id string) (*Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.character(id)
	if c == nil {
		return nil, characterNotFound(id)
	}
	return c.Clone(), nil
}

// Characters returns copies of all characters.
func (s *Store) Characters() []*Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Character, len(s.state.Characters))
	for i, c := range s.state.Characters {
		out[i] = c.Clone()
	}
	return out
}

// Me returns the notebook character.
func (s *Store) Me() *Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.me().Clone()
}

func (s *Store) me() *Character {
	for _, c := range s.state.Characters {
		if c.Name == MeName {
			return c
		}
	}
	return nil
}

func (s *Store) character(id string) *Character {
	for _, c := range s.state.Characters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Store) party(id string) *Party {
	for _, p := range s.state.Parties {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Store) today() string {
	return s.now().Format(DateLayout)
}
