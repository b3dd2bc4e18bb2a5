package service

import (
	"context"
	"net/http"
	"testing"

	"notesync-be/internal/dto"
	"notesync-be/internal/entity"
	"notesync-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id uuid.UUID, position int) dto.ReorderItem {
	return dto.ReorderItem{Id: strPtr(id.String()), Position: intPtr(position)}
}

func TestReorderMovesLastToFront(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userId := uuid.New()
	a := f.create(t, userId, dto.CreateNoteRequest{Title: "A"})
	b := f.create(t, userId, dto.CreateNoteRequest{Title: "B"})
	c := f.create(t, userId, dto.CreateNoteRequest{Title: "C"})

	before, err := f.notes.List(ctx, userId, dto.ListNotesQuery{SortField: "position"})
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, titles(before))

	res, err := f.reorder.Reorder(ctx, userId, &dto.ReorderNotesRequest{Items: []dto.ReorderItem{
		item(c.Id, 0), item(a.Id, 1), item(b.Id, 2),
	}})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(3), res.UpdatedCount)

	after, err := f.notes.List(ctx, userId, dto.ListNotesQuery{SortField: "position", SortDirection: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, titles(after))

	assert.Equal(t, events.NotesReordered, f.pub.types()[len(f.pub.types())-1])
	last := f.pub.messages[len(f.pub.messages)-1]
	assert.ElementsMatch(t, []uuid.UUID{a.Id, b.Id, c.Id}, last.NoteIds)
}

func TestReorderAcceptsPageLocalSubset(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userId := uuid.New()
	a := f.create(t, userId, dto.CreateNoteRequest{Title: "A"})
	b := f.create(t, userId, dto.CreateNoteRequest{Title: "B"})
	c := f.create(t, userId, dto.CreateNoteRequest{Title: "C"})

	_, err := f.reorder.Reorder(ctx, userId, &dto.ReorderNotesRequest{Items: []dto.ReorderItem{
		item(b.Id, 0), item(a.Id, 1),
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.get(a.Id).Position)
	assert.Equal(t, 0, f.store.get(b.Id).Position)
	assert.Equal(t, 2, f.store.get(c.Id).Position, "notes outside the batch keep their position")
}

func TestReorderRejectsForeignNotesAtomically(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	mine := f.create(t, u1, dto.CreateNoteRequest{Title: "mine"})
	theirs := f.create(t, u2, dto.CreateNoteRequest{Title: "theirs"})
	before := f.store.snapshot()

	_, err := f.reorder.Reorder(ctx, u1, &dto.ReorderNotesRequest{Items: []dto.ReorderItem{
		item(mine.Id, 5), item(theirs.Id, 0),
	}})
	assertStatus(t, err, http.StatusForbidden)

	_, err = f.reorder.Reorder(ctx, u1, &dto.ReorderNotesRequest{Items: []dto.ReorderItem{
		item(mine.Id, 5), item(uuid.New(), 0),
	}})
	assertStatus(t, err, http.StatusForbidden)

	_, err = f.reorder.Reorder(ctx, u1, &dto.ReorderNotesRequest{Items: []dto.ReorderItem{
		item(mine.Id, 5), {Id: strPtr("not-a-uuid"), Position: intPtr(0)},
	}})
	assertStatus(t, err, http.StatusForbidden)

	assert.Equal(t, before, f.store.snapshot())
	assert.Equal(t, []string{events.NoteCreated, events.NoteCreated}, f.pub.types())
}

func TestReorderRejectsMalformedBatches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userId := uuid.New()
	a := f.create(t, userId, dto.CreateNoteRequest{Title: "A"})
	before := f.store.snapshot()

	cases := []struct {
		name  string
		items []dto.ReorderItem
	}{
		{"nil items", nil},
		{"empty items", []dto.ReorderItem{}},
		{"missing position", []dto.ReorderItem{{Id: strPtr(a.Id.String())}}},
		{"missing id", []dto.ReorderItem{{Position: intPtr(0)}}},
		{"blank id", []dto.ReorderItem{{Id: strPtr(""), Position: intPtr(0)}}},
		{"duplicated id", []dto.ReorderItem{item(a.Id, 0), item(a.Id, 1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.reorder.Reorder(ctx, userId, &dto.ReorderNotesRequest{Items: tc.items})
			assertStatus(t, err, http.StatusBadRequest)
		})
	}
	assert.Equal(t, before, f.store.snapshot())
}

func TestReorderRollsBackOnWriteFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userId := uuid.New()
	a := f.create(t, userId, dto.CreateNoteRequest{Title: "A"})
	b := f.create(t, userId, dto.CreateNoteRequest{Title: "B"})
	c := f.create(t, userId, dto.CreateNoteRequest{Title: "C"})
	before := f.store.snapshot()
	invalidations := f.cache.invalidations()

	f.store.failPositionWriteAt = 2
	_, err := f.reorder.Reorder(ctx, userId, &dto.ReorderNotesRequest{Items: []dto.ReorderItem{
		item(c.Id, 0), item(a.Id, 1), item(b.Id, 2),
	}})
	assertStatus(t, err, http.StatusInternalServerError)

	assert.Equal(t, before, f.store.snapshot(), "no partial reorder is visible")
	assert.Equal(t, invalidations, f.cache.invalidations())
}

func TestParseReorderItems(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()

	positions, foreign, err := parseReorderItems([]dto.ReorderItem{item(id1, 3), item(id2, -1)})
	require.NoError(t, err)
	assert.False(t, foreign)
	assert.Equal(t, []entity.NotePosition{{Id: id1, Position: 3}, {Id: id2, Position: -1}}, positions)

	_, foreign, err = parseReorderItems([]dto.ReorderItem{item(id1, 0), {Id: strPtr("42"), Position: intPtr(1)}})
	require.NoError(t, err)
	assert.True(t, foreign)

	_, _, err = parseReorderItems([]dto.ReorderItem{item(id1, 0), {Id: strPtr("42")}})
	assertStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, err.Error(), "items[1].position is required")
}
