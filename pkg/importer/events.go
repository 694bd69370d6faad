package importer

import "github.com/google/uuid"

// EventKind identifies what happened to a BeatmapSet during import.
type EventKind string

const (
	EventImported EventKind = "imported"
	EventReused   EventKind = "reused"
)

// Event is one deferred notification, buffered during stages 4-6 and
// dispatched only after a successful commit; a rolled-back pipeline run
// discards its buffered events entirely.
type Event struct {
	Kind  EventKind
	SetID uuid.UUID
}

// EventSink receives dispatched events. Implementations may be called
// concurrently from the normal and low-priority queues and must be safe for
// that.
type EventSink func(Event)
