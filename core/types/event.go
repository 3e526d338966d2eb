package types

// Event represents a typed event emitted during state transitions. Attributes
// are flat key/value pairs consumed by indexers and the test harness.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// EventType implements the events.Event interface so engines can hand the
// struct to an emitter directly.
func (e *Event) EventType() string {
	if e == nil {
		return ""
	}
	return e.Type
}
