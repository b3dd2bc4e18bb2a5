package unitofwork

import (
	"context"

	"notesync-be/internal/repository/contract"
)

// RepositoryFactory hands out one UnitOfWork per service call.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

// UnitOfWork scopes repositories to a single transaction once Begin is called.
// Rollback after Commit changes nothing, so callers defer it unconditionally.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	NoteRepository() contract.NoteRepository
}
