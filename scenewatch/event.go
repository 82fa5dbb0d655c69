package scenewatch

import "github.com/google/uuid"

// EventKind is the type of a scene change event
type EventKind uint16

const (
	// EventNewObject means a candidate identity stabilized into the scene baseline
	EventNewObject EventKind = iota
	// EventObjectMissing means a baseline identity's absence was confirmed
	EventObjectMissing
	// EventObjectReturned means a missing identity re-stabilized into the baseline
	EventObjectReturned
)

func (kind EventKind) String() string {
	switch kind {
	case EventNewObject:
		return "new_object"
	case EventObjectMissing:
		return "object_missing"
	case EventObjectReturned:
		return "object_returned"
	default:
		return "unknown"
	}
}

// Drift describes how far a returned object landed from where it disappeared:
// center displacement in pixels and IoU between the pre-missing and returned boxes.
type Drift struct {
	Distance float64
	IoU      float64
}

// ChangeEvent is an immutable record emitted once per confirmed transition.
// Box is the last known (Kalman-smoothed) bounding box at emission time.
// Drift is populated for EventObjectReturned only.
type ChangeEvent struct {
	Kind       EventKind
	EntityID   uuid.UUID
	Label      string
	Box        Rectangle
	FrameIndex int
	Drift      *Drift
}

// Sink consumes change events. Implementations must not mutate events.
// The monitor makes no assumption about how events are rendered or stored.
type Sink interface {
	Push(event ChangeEvent)
}

// EventBuffer is a slice-backed Sink for tests and simple consumers
type EventBuffer struct {
	Events []ChangeEvent
}

func NewEventBuffer() *EventBuffer {
	return &EventBuffer{
		Events: make([]ChangeEvent, 0),
	}
}

func (buffer *EventBuffer) Push(event ChangeEvent) {
	buffer.Events = append(buffer.Events, event)
}

// Reset drops all buffered events
func (buffer *EventBuffer) Reset() {
	buffer.Events = buffer.Events[:0]
}
