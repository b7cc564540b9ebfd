package tracker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrNotAcquired is returned when a character operates on an item it does not hold.
	ErrNotAcquired = errors.New("item not acquired")
	// ErrAlreadyAcquired is returned when a character acquires an item twice.
	ErrAlreadyAcquired = errors.New("item already acquired")
	// ErrInvalidItem wraps item validation failures.
	ErrInvalidItem = errors.New("invalid item")
	// ErrInvalidInput wraps malformed operation arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPersist wraps persist callback failures. The in-memory state is kept.
	ErrPersist = errors.New("persist failed")
	// ErrNoScheduler is returned when a timed operation has no scheduler wired.
	ErrNoScheduler = errors.New("no scheduler configured")
	// ErrInsufficientXP is returned when a character cannot pay for a level.
	ErrInsufficientXP = errors.New("insufficient xp")
)

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func itemNotFound(id string) error      { return &NotFoundError{Kind: "item", ID: id} }
func characterNotFound(id string) error { return &NotFoundError{Kind: "character", ID: id} }
func partyNotFound(id string) error     { return &NotFoundError{Kind: "party", ID: id} }

// CyclicGraphError is returned when tier propagation does not settle within its
// pass bound, which only happens when the parent graph contains a cycle.
type CyclicGraphError struct {
	Passes int
	Items  []string // items whose tier still changed in the last pass
}

func (e *CyclicGraphError) Error() string {
	return fmt.Sprintf("parent graph has a cycle: tiers unsettled after %d passes (%s)",
		e.Passes, strings.Join(e.Items, ", "))
}

// GateError lists the parent requirements an actor does not meet for an item.
type GateError struct {
	ItemID  string
	ActorID string
	Unmet   []Requirement
}

func (e *GateError) Error() string {
	parts := make([]string, 0, len(e.Unmet))
	for _, r := range e.Unmet {
		parts = append(parts, fmt.Sprintf("%s %d/%d", r.ParentID, r.Have, r.Required))
	}
	return fmt.Sprintf("prerequisites for %q not met: %s", e.ItemID, strings.Join(parts, ", "))
}

// SplitCycle separates a *CyclicGraphError from whatever else err carries,
// such as ErrPersist joined to it by the same mutation. rest is nil when the
// cycle was the only failure; cycle is nil when there was none.
func SplitCycle(err error) (cycle *CyclicGraphError, rest error) {
	if !errors.As(err, &cycle) {
		return nil, err
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return cycle, nil
	}
	var others []error
	for _, e := range joined.Unwrap() {
		var c *CyclicGraphError
		if !errors.As(e, &c) {
			others = append(others, e)
		}
	}
	return cycle, errors.Join(others...)
}
