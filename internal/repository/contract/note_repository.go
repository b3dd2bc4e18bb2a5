package contract

import (
	"context"

	"notesync-be/internal/entity"
	"notesync-be/internal/repository/specification"

	"github.com/google/uuid"
)

type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	// Update persists the editable fields and leaves position untouched.
	Update(ctx context.Context, note *entity.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// LockOwner serializes writers of the user's ordering until the surrounding
	// transaction ends.
	LockOwner(ctx context.Context, userId uuid.UUID) error
	// MaxPosition returns the highest position among the user's notes, or nil when
	// the user has none.
	MaxPosition(ctx context.Context, userId uuid.UUID) (*int, error)
	// UpdatePositions writes every pair scoped to userId and returns the number of
	// rows touched. Callers run it inside a unit of work for atomicity.
	UpdatePositions(ctx context.Context, userId uuid.UUID, items []entity.NotePosition) (int64, error)
}
