package dto

import (
	"time"

	"github.com/google/uuid"
)

type NoteResponse struct {
	Id         uuid.UUID `json:"id"`
	UserId     uuid.UUID `json:"userId"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	IsFavorite bool      `json:"isFavorite"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ListNotesQuery carries the already-parsed query string of GET /notes.
// Normalisation (defaults, allow-list, clamping) happens in the service.
type ListNotesQuery struct {
	Page          int
	PageSize      int
	Search        string
	Categories    []string
	Statuses      []string
	IsFavorite    bool
	SortField     string
	SortDirection string
}

type ListNotesResponse struct {
	Notes []*NoteResponse `json:"notes"`
	Total int64           `json:"total"`
}

type CreateNoteRequest struct {
	Title    string `json:"title" validate:"max=255"`
	Content  string `json:"content" validate:"required"`
	Category string `json:"category" validate:"max=100"`
	Status   string `json:"status" validate:"max=100"`
}

// UpdateNoteRequest is a partial update: nil fields are left untouched.
type UpdateNoteRequest struct {
	Id         uuid.UUID `json:"-"`
	Title      *string   `json:"title" validate:"omitnil,max=255"`
	Content    *string   `json:"content"`
	Category   *string   `json:"category" validate:"omitnil,max=100"`
	Status     *string   `json:"status" validate:"omitnil,max=100"`
	IsFavorite *bool     `json:"isFavorite"`
}

// IsEmpty reports whether none of the recognised fields is present.
func (r *UpdateNoteRequest) IsEmpty() bool {
	return r.Title == nil && r.Content == nil && r.Category == nil && r.Status == nil && r.IsFavorite == nil
}

type ToggleFavoriteRequest struct {
	Id         uuid.UUID `json:"-"`
	IsFavorite *bool     `json:"isFavorite" validate:"required"`
}

type ReorderItem struct {
	Id       *string `json:"id"`
	Position *int    `json:"position"`
}

type ReorderNotesRequest struct {
	Items []ReorderItem `json:"items"`
}

type ReorderNotesResponse struct {
	Success      bool  `json:"success"`
	UpdatedCount int64 `json:"updatedCount"`
}

// NoteChangedMessage is published on the in-process bus after every committed write
// and forwarded to the owner's websocket clients.
type NoteChangedMessage struct {
	Type       string      `json:"type"`
	UserId     uuid.UUID   `json:"user_id"`
	NoteIds    []uuid.UUID `json:"note_ids"`
	OccurredAt time.Time   `json:"occurred_at"`
}
