package controller

import (
	"notesync-be/internal/apperror"
	"notesync-be/internal/dto"
	"notesync-be/internal/pkg/serverutils"
	"notesync-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	ToggleFavorite(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Reorder(ctx *fiber.Ctx) error
}

type noteController struct {
	noteService    service.INoteService
	reorderService service.IReorderService
	auth           fiber.Handler
}

func NewNoteController(
	noteService service.INoteService,
	reorderService service.IReorderService,
	auth fiber.Handler,
) INoteController {
	return &noteController{
		noteService:    noteService,
		reorderService: reorderService,
		auth:           auth,
	}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notes")
	h.Use(c.auth)
	h.Get("", c.List)
	h.Post("", c.Create)
	// Registered before :id so "reorder" is never taken for an id.
	h.Post("reorder", c.Reorder)
	h.Get(":id", c.Show)
	h.Patch(":id", c.Update)
	h.Patch(":id/favorite", c.ToggleFavorite)
	h.Delete(":id", c.Delete)
}

// noteId parses the :id path parameter. A malformed id cannot name any note.
func noteId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.NotFound("Note not found")
	}
	return id, nil
}

func (c *noteController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	sortField, sortDirection := service.ParseSortBy(ctx.Query("sortBy"))
	query := dto.ListNotesQuery{
		Page:          ctx.QueryInt("page", service.DefaultPage),
		PageSize:      ctx.QueryInt("pageSize", service.DefaultPageSize),
		Search:        ctx.Query("search"),
		Categories:    service.SplitCSV(ctx.Query("categories")),
		Statuses:      service.SplitCSV(ctx.Query("statuses")),
		IsFavorite:    ctx.Query("isFavorite") == "true",
		SortField:     sortField,
		SortDirection: sortDirection,
	}

	res, err := c.noteService.List(ctx.UserContext(), userId, query)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *noteController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := noteId(ctx)
	if err != nil {
		return err
	}

	res, err := c.noteService.Show(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *noteController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.noteService.Create(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *noteController) Update(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := noteId(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.noteService.Update(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *noteController) ToggleFavorite(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := noteId(ctx)
	if err != nil {
		return err
	}

	var req dto.ToggleFavoriteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("isFavorite must be a boolean")
	}
	req.Id = id
	if req.IsFavorite == nil {
		return apperror.BadRequest("isFavorite must be a boolean")
	}

	res, err := c.noteService.ToggleFavorite(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}
	id, err := noteId(ctx)
	if err != nil {
		return err
	}

	if err := c.noteService.Delete(ctx.UserContext(), userId, id); err != nil {
		return err
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *noteController) Reorder(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	var req dto.ReorderNotesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("items must be an array of {id, position}")
	}

	res, err := c.reorderService.Reorder(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
