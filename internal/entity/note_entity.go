package entity

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	Title      string
	Content    string
	Category   string
	Status     string
	IsFavorite bool
	Position   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NotePosition is one (id, position) pair of a reorder batch.
type NotePosition struct {
	Id       uuid.UUID
	Position int
}
