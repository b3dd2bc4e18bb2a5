package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"notesync-be/internal/dto"
	"notesync-be/internal/entity"
	"notesync-be/internal/repository/contract"
	"notesync-be/internal/repository/specification"
	"notesync-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// memStore is an in-memory note table shared by every unit of work of a test.
type memStore struct {
	mu    sync.Mutex
	notes map[uuid.UUID]entity.Note

	// failPositionWriteAt makes UpdatePositions fail after that many writes (0 = never).
	failPositionWriteAt int
	findAllCalls        int
	countCalls          int

	// afterFindOne, when set, runs once right after the next FindOne returns its row.
	afterFindOne func()

	ownerLocks  map[uuid.UUID]*sync.Mutex
	lockedUsers []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		notes:      make(map[uuid.UUID]entity.Note),
		ownerLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *memStore) ownerLock(userId uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ownerLocks[userId]
	if !ok {
		l = &sync.Mutex{}
		s.ownerLocks[userId] = l
	}
	return l
}

func (s *memStore) locks() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.lockedUsers...)
}

func (s *memStore) get(id uuid.UUID) entity.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes[id]
}

func (s *memStore) snapshot() map[uuid.UUID]entity.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]entity.Note, len(s.notes))
	for k, v := range s.notes {
		out[k] = v
	}
	return out
}

func (s *memStore) restore(snap map[uuid.UUID]entity.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = snap
}

type memFactory struct {
	store *memStore
}

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUoW{store: f.store}
}

type memUoW struct {
	store  *memStore
	before map[uuid.UUID]entity.Note
	inTx   bool
	held   []*sync.Mutex
}

// release drops the owner locks taken in this transaction.
func (u *memUoW) release() {
	for _, l := range u.held {
		l.Unlock()
	}
	u.held = nil
}

func (u *memUoW) Begin(ctx context.Context) error {
	if u.inTx {
		return errors.New("transaction already started")
	}
	u.before = u.store.snapshot()
	u.inTx = true
	return nil
}

func (u *memUoW) Commit() error {
	if !u.inTx {
		return errors.New("no transaction to commit")
	}
	u.inTx = false
	u.before = nil
	u.release()
	return nil
}

func (u *memUoW) Rollback() error {
	if !u.inTx {
		return errors.New("no transaction to rollback")
	}
	u.store.restore(u.before)
	u.inTx = false
	u.release()
	return nil
}

func (u *memUoW) NoteRepository() contract.NoteRepository {
	return &memNoteRepository{store: u.store, uow: u}
}

// memNoteRepository evaluates the specifications the services use.
type memNoteRepository struct {
	store *memStore
	uow   *memUoW
}

type evaluated struct {
	notes  []entity.Note
	sort   *specification.NoteSort
	paging *specification.Pagination
}

func (r *memNoteRepository) evaluate(specs []specification.Specification) (evaluated, error) {
	r.store.mu.Lock()
	all := make([]entity.Note, 0, len(r.store.notes))
	for _, n := range r.store.notes {
		all = append(all, n)
	}
	r.store.mu.Unlock()

	var res evaluated
	keep := func(pred func(entity.Note) bool) {
		filtered := all[:0]
		for _, n := range all {
			if pred(n) {
				filtered = append(filtered, n)
			}
		}
		all = filtered
	}

	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			keep(func(n entity.Note) bool { return n.Id == s.ID })
		case specification.ByIDs:
			set := make(map[uuid.UUID]bool, len(s.IDs))
			for _, id := range s.IDs {
				set[id] = true
			}
			keep(func(n entity.Note) bool { return set[n.Id] })
		case specification.NoteOwnedByUser:
			keep(func(n entity.Note) bool { return n.UserId == s.UserID })
		case specification.ByCategories:
			keep(func(n entity.Note) bool { return contains(s.Categories, n.Category) })
		case specification.ByStatuses:
			keep(func(n entity.Note) bool { return contains(s.Statuses, n.Status) })
		case specification.FavoritesOnly:
			keep(func(n entity.Note) bool { return n.IsFavorite })
		case specification.NoteSearchQuery:
			q := strings.ToLower(s.Query)
			keep(func(n entity.Note) bool {
				return strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q)
			})
		case specification.NoteSort:
			sortSpec := s
			res.sort = &sortSpec
		case specification.Pagination:
			paging := s
			res.paging = &paging
		case specification.ForUpdate:
		default:
			return res, fmt.Errorf("memNoteRepository: unsupported specification %T", spec)
		}
	}

	if res.sort != nil {
		sortNotes(all, *res.sort)
	}
	res.notes = all
	return res, nil
}

func sortNotes(notes []entity.Note, s specification.NoteSort) {
	primary := func(a, b entity.Note) int {
		switch s.Column {
		case "title":
			return strings.Compare(a.Title, b.Title)
		case "category":
			return strings.Compare(a.Category, b.Category)
		case "status":
			return strings.Compare(a.Status, b.Status)
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		case "updated_at":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			return a.Position - b.Position
		}
	}
	sort.SliceStable(notes, func(i, j int) bool {
		c := primary(notes[i], notes[j])
		if s.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		if c := notes[i].CreatedAt.Compare(notes[j].CreatedAt); c != 0 {
			return c < 0
		}
		return notes[i].Id.String() < notes[j].Id.String()
	})
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func (r *memNoteRepository) Create(ctx context.Context, note *entity.Note) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.notes[note.Id] = *note
	return nil
}

// Update mirrors the column list of the real repository: position, owner and
// creation time stay as stored.
func (r *memNoteRepository) Update(ctx context.Context, note *entity.Note) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.notes[note.Id]
	if !ok || stored.UserId != note.UserId {
		return nil
	}
	stored.Title = note.Title
	stored.Content = note.Content
	stored.Category = note.Category
	stored.Status = note.Status
	stored.IsFavorite = note.IsFavorite
	stored.UpdatedAt = note.UpdatedAt
	r.store.notes[note.Id] = stored
	return nil
}

func (r *memNoteRepository) LockOwner(ctx context.Context, userId uuid.UUID) error {
	if !r.uow.inTx {
		return errors.New("advisory lock outside a transaction")
	}
	l := r.store.ownerLock(userId)
	l.Lock()
	r.uow.held = append(r.uow.held, l)

	r.store.mu.Lock()
	r.store.lockedUsers = append(r.store.lockedUsers, userId)
	r.store.mu.Unlock()
	return nil
}

func (r *memNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.notes, id)
	return nil
}

func (r *memNoteRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	res, err := r.evaluate(specs)
	if err != nil || len(res.notes) == 0 {
		return nil, err
	}
	n := res.notes[0]

	r.store.mu.Lock()
	hook := r.store.afterFindOne
	r.store.afterFindOne = nil
	r.store.mu.Unlock()
	if hook != nil {
		hook()
	}
	return &n, nil
}

func (r *memNoteRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	r.store.mu.Lock()
	r.store.findAllCalls++
	r.store.mu.Unlock()

	res, err := r.evaluate(specs)
	if err != nil {
		return nil, err
	}

	notes := res.notes
	if res.paging != nil {
		start := res.paging.Offset
		if start > len(notes) {
			start = len(notes)
		}
		end := start + res.paging.Limit
		if end > len(notes) {
			end = len(notes)
		}
		notes = notes[start:end]
	}

	out := make([]*entity.Note, len(notes))
	for i := range notes {
		n := notes[i]
		out[i] = &n
	}
	return out, nil
}

func (r *memNoteRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	r.store.countCalls++
	r.store.mu.Unlock()

	res, err := r.evaluate(specs)
	if err != nil {
		return 0, err
	}
	return int64(len(res.notes)), nil
}

func (r *memNoteRepository) MaxPosition(ctx context.Context, userId uuid.UUID) (*int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var max *int
	for _, n := range r.store.notes {
		if n.UserId != userId {
			continue
		}
		if max == nil || n.Position > *max {
			p := n.Position
			max = &p
		}
	}
	return max, nil
}

func (r *memNoteRepository) UpdatePositions(ctx context.Context, userId uuid.UUID, items []entity.NotePosition) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var updated int64
	for i, item := range items {
		if r.store.failPositionWriteAt > 0 && i == r.store.failPositionWriteAt {
			return updated, errors.New("connection reset by peer")
		}
		n, ok := r.store.notes[item.Id]
		if !ok || n.UserId != userId {
			continue
		}
		n.Position = item.Position
		n.UpdatedAt = time.Now()
		r.store.notes[item.Id] = n
		updated++
	}
	return updated, nil
}

// spyCache records invalidations and serves pages like a real cache would.
type spyCache struct {
	mu          sync.Mutex
	generations map[uuid.UUID]int64
	pages       map[string]*dto.ListNotesResponse
	invalidated []uuid.UUID
}

func newSpyCache() *spyCache {
	return &spyCache{
		generations: make(map[uuid.UUID]int64),
		pages:       make(map[string]*dto.ListNotesResponse),
	}
}

func (c *spyCache) Generation(ctx context.Context, userId uuid.UUID) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userId]
}

func (c *spyCache) Get(ctx context.Context, userId uuid.UUID, generation int64, key string) (*dto.ListNotesResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.pages[fmt.Sprintf("%s/%d/%s", userId, generation, key)]
	return res, ok
}

func (c *spyCache) Set(ctx context.Context, userId uuid.UUID, generation int64, key string, res *dto.ListNotesResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[fmt.Sprintf("%s/%d/%s", userId, generation, key)] = res
}

func (c *spyCache) Invalidate(ctx context.Context, userId uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userId]++
	c.invalidated = append(c.invalidated, userId)
	return nil
}

func (c *spyCache) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.invalidated)
}

type spyPublisher struct {
	mu       sync.Mutex
	messages []dto.NoteChangedMessage
}

func (p *spyPublisher) Publish(ctx context.Context, msg dto.NoteChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *spyPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.Type
	}
	return out
}
