package service

import (
	"context"
	"strings"
	"time"

	"notesync-be/internal/apperror"
	"notesync-be/internal/cache"
	"notesync-be/internal/dto"
	"notesync-be/internal/entity"
	"notesync-be/internal/mapper"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/repository/contract"
	"notesync-be/internal/repository/specification"
	"notesync-be/internal/repository/unitofwork"
	"notesync-be/pkg/events"

	"github.com/google/uuid"
)

type INoteService interface {
	List(ctx context.Context, userId uuid.UUID, query dto.ListNotesQuery) (*dto.ListNotesResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NoteResponse, error)
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.NoteResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	ToggleFavorite(ctx context.Context, userId uuid.UUID, req *dto.ToggleFavoriteRequest) (*dto.NoteResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type noteService struct {
	uowFactory unitofwork.RepositoryFactory
	listCache  cache.NoteListCache
	changes    *noteChanges
	mapper     *mapper.NoteMapper
	logger     logger.ILogger
}

func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	listCache cache.NoteListCache,
	publisherService IPublisherService,
	log logger.ILogger,
) INoteService {
	return &noteService{
		uowFactory: uowFactory,
		listCache:  listCache,
		changes: &noteChanges{
			listCache: listCache,
			publisher: publisherService,
			logger:    log,
		},
		mapper: mapper.NewNoteMapper(),
		logger: log,
	}
}

func (c *noteService) List(ctx context.Context, userId uuid.UUID, q dto.ListNotesQuery) (*dto.ListNotesResponse, error) {
	query := NormalizeListQuery(q)
	key := query.CacheKey()

	// Read the generation before the store so a concurrent write can only make this
	// page unreachable, never stale.
	generation := c.listCache.Generation(ctx, userId)
	if cached, ok := c.listCache.Get(ctx, userId, generation, key); ok {
		return cached, nil
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAll(ctx, query.PageSpecifications(userId)...)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	total, err := uow.NoteRepository().Count(ctx, query.FilterSpecifications(userId)...)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	res := &dto.ListNotesResponse{
		Notes: c.mapper.ToResponses(notes),
		Total: total,
	}
	c.listCache.Set(ctx, userId, generation, key, res)
	return res, nil
}

// findOwned distinguishes a missing note (404) from someone else's note (403).
func findOwned(ctx context.Context, repo contract.NoteRepository, userId uuid.UUID, id uuid.UUID, extra ...specification.Specification) (*entity.Note, error) {
	note, err := repo.FindOne(ctx, append([]specification.Specification{specification.ByID{ID: id}}, extra...)...)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if note == nil {
		return nil, apperror.NotFound("Note not found")
	}
	if note.UserId != userId {
		return nil, apperror.Forbidden("You do not have access to this note")
	}
	return note, nil
}

func (c *noteService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := findOwned(ctx, uow.NoteRepository(), userId, id)
	if err != nil {
		return nil, err
	}
	return c.mapper.ToResponse(note), nil
}

func (c *noteService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperror.BadRequest("content is required")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	// New notes go to the tail of the owner's ordering. Concurrent creates queue on
	// the owner lock so each one sees the previous tail.
	if err := uow.NoteRepository().LockOwner(ctx, userId); err != nil {
		return nil, apperror.Internal(err)
	}
	maxPosition, err := uow.NoteRepository().MaxPosition(ctx, userId)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	position := 0
	if maxPosition != nil {
		position = *maxPosition + 1
	}

	now := time.Now()
	note := entity.Note{
		Id:         uuid.New(),
		UserId:     userId,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Category:   strings.TrimSpace(req.Category),
		Status:     strings.TrimSpace(req.Status),
		IsFavorite: false,
		Position:   position,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err)
	}

	c.changes.committed(ctx, userId, events.NoteCreated, note.Id)
	return c.mapper.ToResponse(&note), nil
}

func (c *noteService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	if req.IsEmpty() {
		return nil, apperror.BadRequest("at least one of title, content, category, status, isFavorite is required")
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		return nil, apperror.BadRequest("content cannot be empty")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	note, err := findOwned(ctx, uow.NoteRepository(), userId, req.Id, specification.ForUpdate{})
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		note.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Category != nil {
		note.Category = strings.TrimSpace(*req.Category)
	}
	if req.Status != nil {
		note.Status = strings.TrimSpace(*req.Status)
	}
	if req.IsFavorite != nil {
		note.IsFavorite = *req.IsFavorite
	}
	note.UpdatedAt = time.Now()

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err)
	}

	c.changes.committed(ctx, userId, events.NoteUpdated, note.Id)
	return c.mapper.ToResponse(note), nil
}

func (c *noteService) ToggleFavorite(ctx context.Context, userId uuid.UUID, req *dto.ToggleFavoriteRequest) (*dto.NoteResponse, error) {
	if req.IsFavorite == nil {
		return nil, apperror.BadRequest("isFavorite must be a boolean")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	note, err := findOwned(ctx, uow.NoteRepository(), userId, req.Id, specification.ForUpdate{})
	if err != nil {
		return nil, err
	}

	note.IsFavorite = *req.IsFavorite
	note.UpdatedAt = time.Now()

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err)
	}

	c.changes.committed(ctx, userId, events.NoteUpdated, note.Id)
	return c.mapper.ToResponse(note), nil
}

// Delete removes the note. Remaining positions keep their gaps.
func (c *noteService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if _, err := findOwned(ctx, uow.NoteRepository(), userId, id); err != nil {
		return err
	}

	if err := uow.NoteRepository().Delete(ctx, id); err != nil {
		return apperror.Internal(err)
	}

	c.changes.committed(ctx, userId, events.NoteDeleted, id)
	return nil
}
