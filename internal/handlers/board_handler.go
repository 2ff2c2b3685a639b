package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/inkweave/inkweave-backend/internal/dto"
	"github.com/inkweave/inkweave-backend/internal/services"
	"github.com/inkweave/inkweave-backend/internal/viewer"
)

type BoardHandler struct {
	boards *services.BoardService
	views  *services.ViewTracker
}

func NewBoardHandler(boards *services.BoardService, views *services.ViewTracker) *BoardHandler {
	return &BoardHandler{boards: boards, views: views}
}

func (h *BoardHandler) Create(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	board, err := h.boards.CreateBoard(userID, services.BoardParams{
		Name:          req.Name,
		Description:   req.Description,
		AuthorsLocked: req.AuthorsLocked,
		WriterIDs:     req.WriterIDs,
		CameoIDs:      req.CameoIDs,
	})
	if err != nil {
		return serviceError(c, err, "Failed to create board")
	}

	return c.Status(fiber.StatusCreated).JSON(board)
}

func (h *BoardHandler) Get(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}

	board, err := h.boards.GetBoard(boardID)
	if err != nil {
		return serviceError(c, err, "Failed to fetch board")
	}
	return c.JSON(board)
}

func (h *BoardHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "25"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	boards, total, err := h.boards.ListBoards(limit, offset)
	if err != nil {
		return serviceError(c, err, "Failed to list boards")
	}
	return c.JSON(fiber.Map{"boards": boards, "total": total, "limit": limit, "offset": offset})
}

func (h *BoardHandler) Update(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}

	var req dto.CreateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	board, err := h.boards.UpdateBoard(userID, boardID, services.BoardParams{
		Name:          req.Name,
		Description:   req.Description,
		AuthorsLocked: req.AuthorsLocked,
		WriterIDs:     req.WriterIDs,
		CameoIDs:      req.CameoIDs,
	})
	if err != nil {
		return serviceError(c, err, "Failed to update board")
	}
	return c.JSON(board)
}

func (h *BoardHandler) CreateSection(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}

	var req dto.CreateSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	section, err := h.boards.CreateSection(userID, boardID, req.Name)
	if err != nil {
		return serviceError(c, err, "Failed to create section")
	}
	return c.Status(fiber.StatusCreated).JSON(section)
}

func (h *BoardHandler) DeleteSection(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	sectionID, err := uuid.Parse(c.Params("section_id"))
	if err != nil {
		return badRequest(c, "Invalid section ID")
	}

	if err := h.boards.DeleteSection(userID, sectionID); err != nil {
		return serviceError(c, err, "Failed to delete section")
	}
	return c.JSON(fiber.Map{"message": "Section deleted"})
}

func (h *BoardHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}

	if err := h.views.MarkBoardRead(userID, boardID, time.Now()); err != nil {
		return serviceError(c, err, "Failed to mark board read")
	}
	return c.JSON(fiber.Map{"message": "Marked read"})
}

func (h *BoardHandler) MarkUnread(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}

	if err := h.views.MarkBoardUnread(userID, boardID); err != nil {
		return serviceError(c, err, "Failed to mark board unread")
	}
	return c.JSON(fiber.Map{"message": "Marked unread"})
}

func (h *BoardHandler) Ignore(c *fiber.Ctx) error {
	return h.setIgnored(c, true)
}

func (h *BoardHandler) Unignore(c *fiber.Ctx) error {
	return h.setIgnored(c, false)
}

func (h *BoardHandler) setIgnored(c *fiber.Ctx, ignored bool) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}

	if ignored {
		err = h.views.IgnoreBoard(userID, boardID)
	} else {
		err = h.views.UnignoreBoard(userID, boardID)
	}
	if err != nil {
		return serviceError(c, err, "Failed to update ignore state")
	}
	return c.JSON(fiber.Map{"ignored": ignored})
}
