package service

import (
	"fmt"
	"net/url"
	"strings"

	"notesync-be/internal/dto"
	"notesync-be/internal/repository/specification"

	"github.com/google/uuid"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultSort     = "position"
)

// sortColumns is the allow-list of sortable fields, keyed by their API name.
var sortColumns = map[string]string{
	"title":     "title",
	"category":  "category",
	"status":    "status",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"position":  "position",
}

// NoteListQuery is a ListNotesQuery after defaults and the allow-list were applied.
type NoteListQuery struct {
	Page          int
	PageSize      int
	Search        string
	Categories    []string
	Statuses      []string
	FavoritesOnly bool
	SortField     string
	SortDesc      bool
}

func NormalizeListQuery(q dto.ListNotesQuery) NoteListQuery {
	page := q.Page
	if page < 1 {
		page = DefaultPage
	}

	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	sortField := q.SortField
	if _, ok := sortColumns[sortField]; !ok {
		sortField = DefaultSort
	}

	return NoteListQuery{
		Page:          page,
		PageSize:      pageSize,
		Search:        strings.TrimSpace(q.Search),
		Categories:    compact(q.Categories),
		Statuses:      compact(q.Statuses),
		FavoritesOnly: q.IsFavorite,
		SortField:     sortField,
		SortDesc:      strings.EqualFold(q.SortDirection, "desc"),
	}
}

func (q NoteListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// FilterSpecifications restricts to the owner and the requested filters. It is shared
// by the page query and the total count.
func (q NoteListQuery) FilterSpecifications(userId uuid.UUID) []specification.Specification {
	specs := []specification.Specification{
		specification.NoteOwnedByUser{UserID: userId},
	}
	if q.Search != "" {
		specs = append(specs, specification.NoteSearchQuery{Query: q.Search})
	}
	if len(q.Categories) > 0 {
		specs = append(specs, specification.ByCategories{Categories: q.Categories})
	}
	if len(q.Statuses) > 0 {
		specs = append(specs, specification.ByStatuses{Statuses: q.Statuses})
	}
	// Only true restricts; false means "any", same as omitting the parameter.
	if q.FavoritesOnly {
		specs = append(specs, specification.FavoritesOnly{})
	}
	return specs
}

func (q NoteListQuery) PageSpecifications(userId uuid.UUID) []specification.Specification {
	return append(q.FilterSpecifications(userId),
		specification.NoteSort{Column: sortColumns[q.SortField], Desc: q.SortDesc},
		specification.Pagination{Limit: q.PageSize, Offset: q.Offset()},
	)
}

// CacheKey is a canonical encoding of the query, stable across parameter order.
func (q NoteListQuery) CacheKey() string {
	v := url.Values{}
	v.Set("page", fmt.Sprint(q.Page))
	v.Set("size", fmt.Sprint(q.PageSize))
	v.Set("q", q.Search)
	v.Set("cat", strings.Join(q.Categories, ","))
	v.Set("st", strings.Join(q.Statuses, ","))
	v.Set("fav", fmt.Sprint(q.FavoritesOnly))
	v.Set("sort", fmt.Sprintf("%s:%t", q.SortField, q.SortDesc))
	return v.Encode()
}

// ParseSortBy splits "<field>:<asc|desc>". Unknown fields are resolved later by
// NormalizeListQuery.
func ParseSortBy(sortBy string) (field, direction string) {
	field, direction, _ = strings.Cut(strings.TrimSpace(sortBy), ":")
	return strings.TrimSpace(field), strings.ToLower(strings.TrimSpace(direction))
}

// SplitCSV parses a comma separated query parameter.
func SplitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	return compact(strings.Split(raw, ","))
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
