package notesync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type State int

const (
	StateIdle State = iota
	StateFetching
	StateReady
	StateReordering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateReordering:
		return "reordering"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned by CreateNote while a previous create is in flight.
	ErrBusy = errors.New("notesync: a create is already in progress")
	// ErrNotReady is returned by MoveItem outside StateReady.
	ErrNotReady = errors.New("notesync: list is not ready")
	// ErrInvalidMove is returned by MoveItem for out-of-range or identical indices.
	ErrInvalidMove = errors.New("notesync: invalid move")
)

// Notifier surfaces failed calls to the user. op names the call that failed.
type Notifier interface {
	Error(op string, err error)
}

type NotifierFunc func(op string, err error)

func (f NotifierFunc) Error(op string, err error) { f(op, err) }

// Snapshot is a copy of the engine state; Version increases with every change.
type Snapshot struct {
	Version     uint64
	State       State
	Params      Params
	SearchInput string
	ServerData  []Note
	LocalData   []Note
	Total       int64
	Busy        bool
	ViewMode    ViewMode
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithSearchDelay(d time.Duration) Option {
	return func(e *Engine) { e.debouncer = NewDebouncer(d) }
}

func WithParams(p Params) Option {
	return func(e *Engine) { e.params = p.clone() }
}

func WithViewPreferences(store ViewPreferenceStore) Option {
	return func(e *Engine) { e.prefs = store }
}

// OnChange is called after every state change, outside the engine lock. Calls from
// different goroutines may interleave; use Snapshot.Version to drop older ones.
func OnChange(fn func(Snapshot)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// Engine drives one list view. serverData is only ever replaced by the response of the
// latest requested fetch; localData is the working copy the UI renders and the target
// of optimistic edits.
type Engine struct {
	api       API
	notifier  Notifier
	logger    *zap.Logger
	prefs     ViewPreferenceStore
	debouncer *Debouncer
	onChange  func(Snapshot)

	mu          sync.Mutex
	version     uint64
	state       State
	params      Params
	searchInput string
	serverData  []Note
	localData   []Note
	total       int64
	creating    bool
	viewMode    ViewMode

	// seq of the latest requested fetch; older responses are dropped
	seq uint64

	inflight sync.WaitGroup
}

func New(api API, opts ...Option) *Engine {
	e := &Engine{
		api:      api,
		notifier: NotifierFunc(func(string, error) {}),
		logger:   zap.NewNop(),
		params:   DefaultParams(),
		viewMode: DefaultViewMode,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.debouncer == nil {
		e.debouncer = NewDebouncer(DefaultSearchDelay)
	}
	e.searchInput = e.params.Search
	return e
}

// Start restores the view preference and issues the first fetch.
func (e *Engine) Start(ctx context.Context) {
	mode, err := LoadViewMode(ctx, e.prefs)
	if err != nil {
		e.logger.Warn("failed to load view preference", zap.Error(err))
	}
	e.update(func() {
		e.viewMode = mode
		e.fetchLocked()
	})
}

// Wait blocks until every call issued so far, and the refetches they trigger, settle.
// A pending debounced search is not waited for.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Close drops a pending debounced search.
func (e *Engine) Close() {
	e.debouncer.Stop()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Version:     e.version,
		State:       e.state,
		Params:      e.params.clone(),
		SearchInput: e.searchInput,
		ServerData:  cloneNotes(e.serverData),
		LocalData:   cloneNotes(e.localData),
		Total:       e.total,
		Busy:        e.creating,
		ViewMode:    e.viewMode,
	}
}

// update runs fn under the lock and reports the resulting state.
func (e *Engine) update(fn func()) {
	e.mu.Lock()
	fn()
	e.version++
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if e.onChange != nil {
		e.onChange(snap)
	}
}

// run executes call on its own goroutine and counts it for Wait.
func (e *Engine) run(call func(ctx context.Context)) {
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		call(context.Background())
	}()
}

func (e *Engine) fetchLocked() {
	e.seq++
	seq := e.seq
	params := e.params.clone()
	e.state = StateFetching

	e.run(func(ctx context.Context) {
		page, err := e.api.List(ctx, params)
		e.fetched(seq, page, err)
	})
}

func (e *Engine) fetched(seq uint64, page *Page, err error) {
	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		e.logger.Debug("dropping stale list response", zap.Uint64("seq", seq))
		return
	}
	e.mu.Unlock()

	if err != nil {
		e.notifier.Error("list", err)
		e.update(func() {
			if seq == e.seq {
				// fall back to the last known good page
				e.localData = cloneNotes(e.serverData)
				e.state = StateReady
			}
		})
		return
	}

	e.update(func() {
		if seq != e.seq {
			return
		}
		e.serverData = cloneNotes(page.Notes)
		e.localData = cloneNotes(page.Notes)
		e.total = page.Total
		e.state = StateReady
	})
}

// Refetch discards local optimistic state in favour of a fresh server page.
func (e *Engine) Refetch() {
	e.update(e.fetchLocked)
}

func (e *Engine) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	e.update(func() {
		e.params.Page = page
		e.fetchLocked()
	})
}

func (e *Engine) SetPageSize(size int) {
	e.update(func() {
		e.params.PageSize = size
		e.params.Page = 1
		e.fetchLocked()
	})
}

func (e *Engine) SetSort(field, direction string) {
	e.update(func() {
		e.params.SortField = field
		e.params.SortDirection = direction
		e.params.Page = 1
		e.fetchLocked()
	})
}

func (e *Engine) SetFilters(categories, statuses []string, favoritesOnly bool) {
	e.update(func() {
		e.params.Categories = append([]string(nil), categories...)
		e.params.Statuses = append([]string(nil), statuses...)
		e.params.FavoritesOnly = favoritesOnly
		e.params.Page = 1
		e.fetchLocked()
	})
}

// TypeSearch records a keystroke. The query only changes once typing pauses.
func (e *Engine) TypeSearch(raw string) {
	e.update(func() {
		e.searchInput = raw
	})
	e.debouncer.Trigger(func() {
		e.commitSearch(raw)
	})
}

func (e *Engine) commitSearch(raw string) {
	e.update(func() {
		if strings.TrimSpace(raw) == strings.TrimSpace(e.params.Search) {
			return
		}
		e.params.Search = raw
		e.params.Page = 1
		e.fetchLocked()
	})
}

// MoveItem moves the note at index from to index to within the visible page,
// renumbers the page 0..n-1 and persists it. The new order shows immediately; the
// server page replaces it once the call settles either way.
func (e *Engine) MoveItem(from, to int) error {
	var err error
	e.update(func() {
		if e.state != StateReady {
			err = ErrNotReady
			return
		}
		if from == to || from < 0 || to < 0 || from >= len(e.localData) || to >= len(e.localData) {
			err = ErrInvalidMove
			return
		}

		moved := e.localData[from]
		reordered := make([]Note, 0, len(e.localData))
		reordered = append(reordered, e.localData[:from]...)
		reordered = append(reordered, e.localData[from+1:]...)
		reordered = append(reordered[:to], append([]Note{moved}, reordered[to:]...)...)

		items := make([]PositionUpdate, len(reordered))
		for i := range reordered {
			reordered[i].Position = i
			items[i] = PositionUpdate{Id: reordered[i].Id, Position: i}
		}
		e.localData = reordered
		e.state = StateReordering

		e.run(func(ctx context.Context) {
			_, callErr := e.api.Reorder(ctx, items)
			e.settled("reorder", callErr)
		})
	})
	return err
}

// settled reports a failed write and refetches; the server is authoritative either way.
// A failed write drops the optimistic change at once so a failing refetch cannot
// leave it on screen.
func (e *Engine) settled(op string, err error) {
	if err == nil {
		e.Refetch()
		return
	}
	e.logger.Warn("note write failed", zap.String("op", op), zap.Error(err))
	e.notifier.Error(op, err)
	e.update(func() {
		e.localData = cloneNotes(e.serverData)
		e.fetchLocked()
	})
}

func (e *Engine) CreateNote(note NewNote) error {
	var err error
	e.update(func() {
		if e.creating {
			err = ErrBusy
			return
		}
		e.creating = true
		e.run(func(ctx context.Context) {
			_, callErr := e.api.Create(ctx, note)
			e.update(func() { e.creating = false })
			e.settled("create", callErr)
		})
	})
	return err
}

func (e *Engine) UpdateNote(id string, patch NotePatch) {
	e.run(func(ctx context.Context) {
		_, err := e.api.Update(ctx, id, patch)
		e.settled("update", err)
	})
}

func (e *Engine) ToggleFavorite(id string, isFavorite bool) {
	e.update(func() {
		for i := range e.localData {
			if e.localData[i].Id == id {
				e.localData[i].IsFavorite = isFavorite
			}
		}
		e.run(func(ctx context.Context) {
			_, err := e.api.SetFavorite(ctx, id, isFavorite)
			e.settled("favorite", err)
		})
	})
}

func (e *Engine) DeleteNote(id string) {
	e.update(func() {
		kept := e.localData[:0:0]
		for _, n := range e.localData {
			if n.Id != id {
				kept = append(kept, n)
			}
		}
		e.localData = kept
		e.run(func(ctx context.Context) {
			e.settled("delete", e.api.Delete(ctx, id))
		})
	})
}

// SetViewMode switches the layout and persists it. Unknown modes fall back to list.
func (e *Engine) SetViewMode(ctx context.Context, mode ViewMode) error {
	mode, _ = ParseViewMode(string(mode))
	e.update(func() { e.viewMode = mode })
	if e.prefs == nil {
		return nil
	}
	return e.prefs.Set(ctx, mode)
}

func cloneNotes(notes []Note) []Note {
	if notes == nil {
		return nil
	}
	return append([]Note(nil), notes...)
}
