package tracker

import "sync"

// PromptKind identifies a yes/no question the engine asks before an
// irreversible progression step.
type PromptKind string

const (
	PromptEnhancement  PromptKind = "enhancement"
	PromptDivineUnlock PromptKind = "divine_unlock"
	PromptEvolution    PromptKind = "evolution"
)

// Prompt carries the context of a confirmation request.
type Prompt struct {
	Kind     PromptKind
	ItemID   string
	ItemName string
	Level    int // level being requested; 0 for evolution
}

// Text is the question shown to an interactive user.
func (p Prompt) Text() string {
	switch p.Kind {
	case PromptEnhancement:
		return "\"" + p.ItemName + "\" requires enhancement to go past level 5. Proceed?"
	case PromptDivineUnlock:
		return "Is \"" + p.ItemName + "\" truly fathomable, or is it divine insight? (no keeps it at level 6)"
	case PromptEvolution:
		return "Evolve \"" + p.ItemName + "\"? This shifts its checklists down one level."
	default:
		return "Proceed?"
	}
}

// Confirmer answers confirmation prompts.
type Confirmer interface {
	Confirm(p Prompt) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(p Prompt) bool

func (f ConfirmFunc) Confirm(p Prompt) bool { return f(p) }

var (
	// AlwaysYes accepts every prompt.
	AlwaysYes Confirmer = ConfirmFunc(func(Prompt) bool { return true })
	// AlwaysNo declines every prompt.
	AlwaysNo Confirmer = ConfirmFunc(func(Prompt) bool { return false })
)

// ScriptedConfirmer answers prompts from a fixed sequence, then declines.
// It records every prompt it was asked.
type ScriptedConfirmer struct {
	mu      sync.Mutex
	answers []bool
	Asked   []Prompt
}

// Scripted returns a Confirmer that replays answers in order.
func Scripted(answers ...bool) *ScriptedConfirmer {
	return &ScriptedConfirmer{answers: answers}
}

func (s *ScriptedConfirmer) Confirm(p Prompt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, p)
	if len(s.answers) == 0 {
		return false
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a
}

// CallOption adjusts a single store call.
type CallOption func(*callOptions)

type callOptions struct {
	confirm Confirmer
}

// WithConfirmer overrides the store's confirmation policy for one call.
func WithConfirmer(c Confirmer) CallOption {
	return func(o *callOptions) { o.confirm = c }
}

func (s *Store) callOpts(opts []CallOption) callOptions {
	o := callOptions{confirm: s.confirm}
	for _, fn := range opts {
		fn(&o)
	}
	if o.confirm == nil {
		o.confirm = AlwaysNo
	}
	return o
}
