package specification

import "gorm.io/gorm"

// Specification narrows, orders or locks a note query.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// All applies each specification in order. Order matters for sorting clauses.
type All []Specification

func (s All) Apply(db *gorm.DB) *gorm.DB {
	for _, spec := range s {
		if spec != nil {
			db = spec.Apply(db)
		}
	}
	return db
}
