package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NoteOwnedByUser struct {
	UserID uuid.UUID
}

func (s NoteOwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.user_id = ?", s.UserID)
}

type ByCategories struct {
	Categories []string
}

func (s ByCategories) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category IN ?", s.Categories)
}

type ByStatuses struct {
	Statuses []string
}

func (s ByStatuses) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}

type FavoritesOnly struct{}

func (s FavoritesOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_favorite = ?", true)
}

// NoteSort orders by an allow-listed column and then by created_at, id so that
// equal keys always come back in the same order.
type NoteSort struct {
	Column string
	Desc   bool
}

func (s NoteSort) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: s.Column}, Desc: s.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}
