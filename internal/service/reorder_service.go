package service

import (
	"context"
	"fmt"

	"notesync-be/internal/apperror"
	"notesync-be/internal/cache"
	"notesync-be/internal/dto"
	"notesync-be/internal/entity"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/repository/specification"
	"notesync-be/internal/repository/unitofwork"
	"notesync-be/pkg/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type IReorderService interface {
	Reorder(ctx context.Context, userId uuid.UUID, req *dto.ReorderNotesRequest) (*dto.ReorderNotesResponse, error)
}

type reorderService struct {
	uowFactory unitofwork.RepositoryFactory
	changes    *noteChanges
	tracer     trace.Tracer
	logger     logger.ILogger
}

func NewReorderService(
	uowFactory unitofwork.RepositoryFactory,
	listCache cache.NoteListCache,
	publisherService IPublisherService,
	log logger.ILogger,
) IReorderService {
	return &reorderService{
		uowFactory: uowFactory,
		changes: &noteChanges{
			listCache: listCache,
			publisher: publisherService,
			logger:    log,
		},
		tracer: otel.Tracer("notesync-be/service/reorder"),
		logger: log,
	}
}

// parseReorderItems checks the batch shape. Ids that are strings but not uuids cannot
// belong to anyone; they are reported through foreign so the whole batch gets a 403.
func parseReorderItems(items []dto.ReorderItem) (positions []entity.NotePosition, foreign bool, err error) {
	if len(items) == 0 {
		return nil, false, apperror.BadRequest("items must be a non-empty array")
	}

	seen := make(map[string]bool, len(items))
	positions = make([]entity.NotePosition, 0, len(items))
	for i, item := range items {
		if item.Id == nil || *item.Id == "" {
			return nil, false, apperror.BadRequest("items[%d].id is required", i)
		}
		if item.Position == nil {
			return nil, false, apperror.BadRequest("items[%d].position is required", i)
		}
		if seen[*item.Id] {
			return nil, false, apperror.BadRequest("items[%d].id is duplicated", i)
		}
		seen[*item.Id] = true

		id, parseErr := uuid.Parse(*item.Id)
		if parseErr != nil {
			foreign = true
			continue
		}
		positions = append(positions, entity.NotePosition{Id: id, Position: *item.Position})
	}
	return positions, foreign, nil
}

// Reorder persists client-resolved positions. Either every listed note is updated or
// none is; a single id the caller does not own rejects the whole batch.
func (s *reorderService) Reorder(ctx context.Context, userId uuid.UUID, req *dto.ReorderNotesRequest) (*dto.ReorderNotesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "NoteReorder", trace.WithAttributes(
		attribute.String("user.id", userId.String()),
		attribute.Int("reorder.items", len(req.Items)),
	))
	defer span.End()

	positions, foreign, err := parseReorderItems(req.Items)
	if err != nil {
		span.SetStatus(codes.Error, "invalid batch")
		return nil, err
	}
	if foreign {
		span.SetStatus(codes.Error, "foreign ids")
		return nil, apperror.Forbidden("One or more notes do not belong to you")
	}

	ids := make([]uuid.UUID, len(positions))
	for i, p := range positions {
		ids[i] = p.Id
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		span.RecordError(err)
		return nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	// One batched, locked lookup scoped to the owner: anything missing is either
	// absent or someone else's, and both reject the batch.
	owned, err := uow.NoteRepository().FindAll(ctx,
		specification.ByIDs{IDs: ids},
		specification.NoteOwnedByUser{UserID: userId},
		specification.ForUpdate{},
	)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Internal(err)
	}
	if len(owned) != len(ids) {
		s.logger.Warn("ReorderService", "Rejected reorder with foreign or missing notes", map[string]interface{}{
			"user_id":   userId,
			"requested": len(ids),
			"owned":     len(owned),
		})
		span.SetStatus(codes.Error, "foreign ids")
		return nil, apperror.Forbidden("One or more notes do not belong to you")
	}

	updated, err := uow.NoteRepository().UpdatePositions(ctx, userId, positions)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Internal(err)
	}
	if updated != int64(len(positions)) {
		err := fmt.Errorf("reorder touched %d of %d notes", updated, len(positions))
		span.RecordError(err)
		return nil, apperror.Internal(err)
	}

	if err := uow.Commit(); err != nil {
		span.RecordError(err)
		return nil, apperror.Internal(err)
	}

	span.SetAttributes(attribute.Int64("reorder.updated", updated))
	s.changes.committed(ctx, userId, events.NotesReordered, ids...)

	return &dto.ReorderNotesResponse{
		Success:      true,
		UpdatedCount: updated,
	}, nil
}
