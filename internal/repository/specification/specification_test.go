package specification

import (
	"testing"

	"notesync-be/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test password=test dbname=test port=5432 sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func toSQL(db *gorm.DB, specs ...Specification) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		tx = All(specs).Apply(tx)
		var notes []*model.Note
		return tx.Find(&notes)
	})
}

func TestListSpecificationsSQL(t *testing.T) {
	db := newDryRunDB(t)
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	sql := toSQL(db,
		NoteOwnedByUser{UserID: userID},
		ByCategories{Categories: []string{"work", "home"}},
		ByStatuses{Statuses: []string{"draft"}},
		FavoritesOnly{},
		NoteSort{Column: "position", Desc: true},
		Pagination{Limit: 10, Offset: 20},
	)

	assert.Contains(t, sql, "notes.user_id = '11111111-1111-1111-1111-111111111111'")
	assert.Contains(t, sql, "category IN ('work','home')")
	assert.Contains(t, sql, "status IN ('draft')")
	assert.Contains(t, sql, "is_favorite = true")
	assert.Contains(t, sql, `ORDER BY "position" DESC,"created_at","id"`)
	assert.Contains(t, sql, "LIMIT 10")
	assert.Contains(t, sql, "OFFSET 20")
}

func TestNoteSearchQueryEscapesWildcards(t *testing.T) {
	db := newDryRunDB(t)

	sql := toSQL(db, NoteSearchQuery{Query: "50%_off"})

	assert.Contains(t, sql, "title ILIKE")
	assert.Contains(t, sql, "content ILIKE")
	assert.Contains(t, sql, `%50\%\_off%`)
}

func TestForUpdateLocksRows(t *testing.T) {
	db := newDryRunDB(t)

	sql := toSQL(db, ByIDs{IDs: []uuid.UUID{uuid.New()}}, ForUpdate{})

	assert.Contains(t, sql, "id IN (")
	assert.Contains(t, sql, "FOR UPDATE")
}

func TestAllSkipsNilSpecifications(t *testing.T) {
	db := newDryRunDB(t)

	sql := toSQL(db, nil, ByIDs{IDs: []uuid.UUID{uuid.Nil}}, nil, ForUpdate{})
	assert.Contains(t, sql, "id IN ('00000000-0000-0000-0000-000000000000')")
	assert.Contains(t, sql, "FOR UPDATE")
}
