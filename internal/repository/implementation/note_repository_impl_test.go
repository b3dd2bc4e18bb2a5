package implementation

import (
	"context"
	"testing"
	"time"

	"notesync-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type capturedStatement struct {
	SQL  string
	Vars []interface{}
}

// newCapturingDB returns a dry-run postgres handle that records every built
// UPDATE and raw statement instead of sending it.
func newCapturingDB(t *testing.T) (*gorm.DB, *[]capturedStatement) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test password=test dbname=test port=5432 sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var captured []capturedStatement
	record := func(tx *gorm.DB) {
		captured = append(captured, capturedStatement{
			SQL:  tx.Statement.SQL.String(),
			Vars: append([]interface{}(nil), tx.Statement.Vars...),
		})
	}
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture_update", record))
	require.NoError(t, db.Callback().Raw().After("gorm:raw").Register("test:capture_raw", record))
	return db, &captured
}

func TestUpdateNeverWritesPosition(t *testing.T) {
	db, captured := newCapturingDB(t)
	repo := NewNoteRepository(db)

	note := &entity.Note{
		Id:         uuid.New(),
		UserId:     uuid.New(),
		Title:      "Groceries",
		Content:    "milk",
		IsFavorite: true,
		Position:   7,
		CreatedAt:  time.Now().Add(-time.Hour),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, repo.Update(context.Background(), note))

	require.Len(t, *captured, 1)
	stmt := (*captured)[0]
	assert.Contains(t, stmt.SQL, `UPDATE "notes" SET`)
	assert.Contains(t, stmt.SQL, `"is_favorite"=`)
	assert.Contains(t, stmt.SQL, `"updated_at"=`)
	assert.NotContains(t, stmt.SQL, "position")
	assert.NotContains(t, stmt.SQL, `"created_at"=`)
	assert.Contains(t, stmt.SQL, "id = ")
	assert.Contains(t, stmt.SQL, "user_id = ")
	assert.NotContains(t, stmt.Vars, 7)
}

func TestUpdateWritesFalseFavorite(t *testing.T) {
	db, captured := newCapturingDB(t)
	repo := NewNoteRepository(db)

	note := &entity.Note{Id: uuid.New(), UserId: uuid.New(), Content: "x", IsFavorite: false, UpdatedAt: time.Now()}
	require.NoError(t, repo.Update(context.Background(), note))

	require.Len(t, *captured, 1)
	assert.Contains(t, (*captured)[0].SQL, `"is_favorite"=`)
	assert.Contains(t, (*captured)[0].Vars, false)
}

func TestLockOwnerTakesTransactionAdvisoryLock(t *testing.T) {
	db, captured := newCapturingDB(t)
	repo := NewNoteRepository(db)
	userId := uuid.New()

	require.NoError(t, repo.LockOwner(context.Background(), userId))

	require.Len(t, *captured, 1)
	assert.Contains(t, (*captured)[0].SQL, "pg_advisory_xact_lock(hashtext(")
	assert.Equal(t, []interface{}{userId.String()}, (*captured)[0].Vars)
}
