package wizard

// EventType distinguishes the progress events emitted while a session is
// fetching or committing.
type EventType string

const (
	EventTypeLog      EventType = "log"
	EventTypeProgress EventType = "progress"
	EventTypeComplete EventType = "complete"
	EventTypeError    EventType = "error"
)

// Event is pushed to subscribers (websocket clients, the CLI) after every
// suspension point of a run.
type Event struct {
	Type      EventType `json:"type"`
	WizardID  string    `json:"wizard_id"`
	Message   string    `json:"message,omitempty"`
	Processed int       `json:"processed,omitempty"`
	Total     int       `json:"total,omitempty"`
	Percent   int       `json:"percent,omitempty"`
}

const eventBuffer = 128

// emit delivers an event without blocking the run; a slow or absent
// subscriber drops events rather than stalling the commit loop.
func emit(ch chan Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

func progressPercent(processed, total int) int {
	if total <= 0 {
		return 100
	}
	return processed * 100 / total
}
