package wizard

import "errors"

// State is the lifecycle position of a single wizard session.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateReviewing  State = "reviewing"
	StateCommitting State = "committing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Variant selects which staged workflow a session runs.
type Variant string

const (
	// VariantImport is the document import flow: uploaded document,
	// extraction oracle, every extracted item selectable.
	VariantImport Variant = "import"
	// VariantSync is the registry sync flow: registry diff oracle,
	// only new items selectable.
	VariantSync Variant = "sync"
)

var (
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrNoInput           = errors.New("wizard input is required")
	ErrEmptySelection    = errors.New("selection is empty")
	ErrSessionClosed     = errors.New("wizard session closed")
	ErrUnknownSession    = errors.New("unknown wizard session")
)

// transitions lists the legal next states for each state. Reviewing's
// self-loop (selection edits, release choice) is handled without a
// transition; reset-to-Idle is legal from every state.
var transitions = map[State][]State{
	StateIdle:       {StateFetching},
	StateFetching:   {StateReviewing, StateIdle},
	StateReviewing:  {StateCommitting, StateIdle},
	StateCommitting: {StateDone, StateFailed, StateIdle},
	StateDone:       {StateIdle},
	StateFailed:     {StateIdle},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidVariant reports whether v names a supported workflow variant.
func ValidVariant(v Variant) bool {
	return v == VariantImport || v == VariantSync
}
