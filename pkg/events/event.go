package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	NoteCreated    = "NOTE_CREATED"
	NoteUpdated    = "NOTE_UPDATED"
	NoteDeleted    = "NOTE_DELETED"
	NotesReordered = "NOTES_REORDERED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTE_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// NoteEvent describes a committed change to one owner's notes.
type NoteEvent struct {
	Type       string
	UserId     uuid.UUID
	NoteIds    []uuid.UUID
	OccurredAt time.Time
}

func (e NoteEvent) EventType() string {
	return e.Type
}

func (e NoteEvent) Payload() map[string]interface{} {
	ids := make([]string, len(e.NoteIds))
	for i, id := range e.NoteIds {
		ids[i] = id.String()
	}
	return map[string]interface{}{
		"user_id":  e.UserId.String(),
		"note_ids": ids,
		"count":    len(ids),
	}
}

func (e NoteEvent) Timestamp() time.Time {
	return e.OccurredAt
}
