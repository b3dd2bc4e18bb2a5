package mapper

import (
	"notesync-be/internal/dto"
	"notesync-be/internal/entity"
	"notesync-be/internal/model"
)

type NoteMapper struct{}

func NewNoteMapper() *NoteMapper {
	return &NoteMapper{}
}

func (m *NoteMapper) ToEntity(n *model.Note) *entity.Note {
	if n == nil {
		return nil
	}

	return &entity.Note{
		Id:         n.Id,
		UserId:     n.UserId,
		Title:      n.Title,
		Content:    n.Content,
		Category:   n.Category,
		Status:     n.Status,
		IsFavorite: n.IsFavorite,
		Position:   n.Position,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func (m *NoteMapper) ToModel(n *entity.Note) *model.Note {
	if n == nil {
		return nil
	}

	return &model.Note{
		Id:         n.Id,
		UserId:     n.UserId,
		Title:      n.Title,
		Content:    n.Content,
		Category:   n.Category,
		Status:     n.Status,
		IsFavorite: n.IsFavorite,
		Position:   n.Position,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func (m *NoteMapper) ToEntities(notes []*model.Note) []*entity.Note {
	entities := make([]*entity.Note, len(notes))
	for i, n := range notes {
		entities[i] = m.ToEntity(n)
	}
	return entities
}

// ToResponse converts the entity into the JSON shape returned by the API.
func (m *NoteMapper) ToResponse(n *entity.Note) *dto.NoteResponse {
	if n == nil {
		return nil
	}

	return &dto.NoteResponse{
		Id:         n.Id,
		UserId:     n.UserId,
		Title:      n.Title,
		Content:    n.Content,
		Category:   n.Category,
		Status:     n.Status,
		IsFavorite: n.IsFavorite,
		Position:   n.Position,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func (m *NoteMapper) ToResponses(notes []*entity.Note) []*dto.NoteResponse {
	res := make([]*dto.NoteResponse, len(notes))
	for i, n := range notes {
		res[i] = m.ToResponse(n)
	}
	return res
}
