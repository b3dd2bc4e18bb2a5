package implementation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"notesync-be/internal/entity"
	"notesync-be/internal/mapper"
	"notesync-be/internal/model"
	"notesync-be/internal/repository/contract"
	"notesync-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
}

func NewNoteRepository(db *gorm.DB) contract.NoteRepository {
	return &NoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteMapper(),
	}
}

func (r *NoteRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	return specification.All(specs).Apply(db)
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*note = *r.mapper.ToEntity(m)
	return nil
}

// Update writes the editable columns only. Position is owned by UpdatePositions.
func (r *NoteRepositoryImpl) Update(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	return r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ? AND user_id = ?", m.Id, m.UserId).
		Updates(map[string]interface{}{
			"title":       m.Title,
			"content":     m.Content,
			"category":    m.Category,
			"status":      m.Status,
			"is_favorite": m.IsFavorite,
			"updated_at":  m.UpdatedAt,
		}).Error
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Note{}, "id = ?", id).Error
}

func (r *NoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	var m model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	var models []*model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Note{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NoteRepositoryImpl) LockOwner(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", userId.String()).Error
}

func (r *NoteRepositoryImpl) MaxPosition(ctx context.Context, userId uuid.UUID) (*int, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("user_id = ?", userId).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return nil, err
	}
	if !max.Valid {
		return nil, nil
	}
	position := int(max.Int64)
	return &position, nil
}

func (r *NoteRepositoryImpl) UpdatePositions(ctx context.Context, userId uuid.UUID, items []entity.NotePosition) (int64, error) {
	now := time.Now()
	var updated int64
	for _, item := range items {
		res := r.db.WithContext(ctx).
			Model(&model.Note{}).
			Where("id = ? AND user_id = ?", item.Id, userId).
			Updates(map[string]interface{}{
				"position":   item.Position,
				"updated_at": now,
			})
		if res.Error != nil {
			return updated, res.Error
		}
		updated += res.RowsAffected
	}
	return updated, nil
}
