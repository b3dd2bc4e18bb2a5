package model

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;index:idx_notes_user_position,priority:1"`
	Title      string    `gorm:"type:varchar(255);not null;default:''"`
	Content    string    `gorm:"type:text;not null"`
	Category   string    `gorm:"type:varchar(100);not null;default:'';index"`
	Status     string    `gorm:"type:varchar(100);not null;default:'';index"`
	IsFavorite bool      `gorm:"not null;default:false"`
	Position   int       `gorm:"not null;default:0;index:idx_notes_user_position,priority:2"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Note) TableName() string {
	return "notes"
}
