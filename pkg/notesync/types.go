// Package notesync keeps a paginated, ordered view of one user's notes in sync with
// the notes API: it fetches pages, applies drag reorders and small edits
// optimistically, and reconciles with the server after every write.
package notesync

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Note struct {
	Id         string    `json:"id"`
	UserId     string    `json:"userId"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	IsFavorite bool      `json:"isFavorite"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Page struct {
	Notes []Note `json:"notes"`
	Total int64  `json:"total"`
}

// Params selects one page of the list.
type Params struct {
	Page          int
	PageSize      int
	Search        string
	Categories    []string
	Statuses      []string
	FavoritesOnly bool
	SortField     string
	SortDirection string
}

func DefaultParams() Params {
	return Params{
		Page:          1,
		PageSize:      10,
		SortField:     "position",
		SortDirection: "asc",
	}
}

// Values encodes p as the query string of GET /notes.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		v.Set("search", s)
	}
	if p.SortField != "" {
		dir := p.SortDirection
		if dir == "" {
			dir = "asc"
		}
		v.Set("sortBy", p.SortField+":"+dir)
	}
	if len(p.Categories) > 0 {
		v.Set("categories", strings.Join(p.Categories, ","))
	}
	if len(p.Statuses) > 0 {
		v.Set("statuses", strings.Join(p.Statuses, ","))
	}
	// The API ignores isFavorite=false, so only the restricting value is sent.
	if p.FavoritesOnly {
		v.Set("isFavorite", "true")
	}
	return v
}

func (p Params) clone() Params {
	p.Categories = append([]string(nil), p.Categories...)
	p.Statuses = append([]string(nil), p.Statuses...)
	return p
}

type NewNote struct {
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
}

// NotePatch is a partial update; nil fields are not sent.
type NotePatch struct {
	Title      *string `json:"title,omitempty"`
	Content    *string `json:"content,omitempty"`
	Category   *string `json:"category,omitempty"`
	Status     *string `json:"status,omitempty"`
	IsFavorite *bool   `json:"isFavorite,omitempty"`
}

type PositionUpdate struct {
	Id       string `json:"id"`
	Position int    `json:"position"`
}
