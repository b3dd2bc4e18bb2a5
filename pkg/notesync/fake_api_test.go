package notesync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// fakeAPI is an in-memory notes server for one user.
type fakeAPI struct {
	mu     sync.Mutex
	notes  []Note
	nextId int

	listCalls    []Params
	reorderCalls [][]PositionUpdate

	// pageGates[p], when set, holds List calls for page p until closed.
	pageGates map[int]chan struct{}
	// reorderGate and createGate hold the call until closed.
	reorderGate chan struct{}
	createGate  chan struct{}

	listErr     error
	reorderErr  error
	favoriteErr error
}

func newFakeAPI(titles ...string) *fakeAPI {
	f := &fakeAPI{pageGates: map[int]chan struct{}{}}
	for _, title := range titles {
		f.add(title)
	}
	return f
}

func (f *fakeAPI) add(title string) Note {
	f.nextId++
	now := time.Now()
	n := Note{
		Id:        fmt.Sprintf("n%d", f.nextId),
		Title:     title,
		Content:   title,
		Position:  len(f.notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.notes = append(f.notes, n)
	return n
}

func (f *fakeAPI) gate(ch chan struct{}) {
	if ch != nil {
		<-ch
	}
}

func (f *fakeAPI) List(ctx context.Context, params Params) (*Page, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, params.clone())
	gate := f.pageGates[params.Page]
	f.mu.Unlock()

	f.gate(gate)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}

	all := append([]Note(nil), f.notes...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Position < all[j].Position })

	size := params.PageSize
	if size < 1 {
		size = 10
	}
	start := (params.Page - 1) * size
	if start < 0 || start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return &Page{Notes: append([]Note(nil), all[start:end]...), Total: int64(len(all))}, nil
}

func (f *fakeAPI) Create(ctx context.Context, note NewNote) (*Note, error) {
	f.mu.Lock()
	gate := f.createGate
	f.mu.Unlock()
	f.gate(gate)

	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.add(note.Title)
	return &n, nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, patch NotePatch) (*Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		if f.notes[i].Id == id {
			if patch.Title != nil {
				f.notes[i].Title = *patch.Title
			}
			n := f.notes[i]
			return &n, nil
		}
	}
	return nil, &APIError{Status: 404, Message: "Note not found"}
}

func (f *fakeAPI) SetFavorite(ctx context.Context, id string, isFavorite bool) (*Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.favoriteErr != nil {
		return nil, f.favoriteErr
	}
	for i := range f.notes {
		if f.notes[i].Id == id {
			f.notes[i].IsFavorite = isFavorite
			n := f.notes[i]
			return &n, nil
		}
	}
	return nil, &APIError{Status: 404, Message: "Note not found"}
}

func (f *fakeAPI) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		if f.notes[i].Id == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return &APIError{Status: 404, Message: "Note not found"}
}

func (f *fakeAPI) Reorder(ctx context.Context, items []PositionUpdate) (int64, error) {
	f.mu.Lock()
	f.reorderCalls = append(f.reorderCalls, append([]PositionUpdate(nil), items...))
	gate := f.reorderGate
	f.mu.Unlock()
	f.gate(gate)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reorderErr != nil {
		return 0, f.reorderErr
	}
	for _, item := range items {
		for i := range f.notes {
			if f.notes[i].Id == item.Id {
				f.notes[i].Position = item.Position
			}
		}
	}
	return int64(len(items)), nil
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func (f *fakeAPI) searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.listCalls {
		out = append(out, p.Search)
	}
	return out
}

type recordingNotifier struct {
	mu  sync.Mutex
	ops []string
}

func (n *recordingNotifier) Error(op string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ops = append(n.ops, op)
}

func (n *recordingNotifier) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.ops...)
}

func titlesOf(notes []Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Title
	}
	return out
}
