package specification

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// NoteSearchQuery filters notes whose title or content contains Query, ignoring case.
// LIKE wildcards in Query are matched literally.
type NoteSearchQuery struct {
	Query string
}

func (s NoteSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + likeEscaper.Replace(s.Query) + "%"
	return db.Where("(title ILIKE ? OR content ILIKE ?)", pattern, pattern)
}
