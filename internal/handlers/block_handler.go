package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/inkweave/inkweave-backend/internal/dto"
	"github.com/inkweave/inkweave-backend/internal/services"
	"github.com/inkweave/inkweave-backend/internal/viewer"
)

type BlockHandler struct {
	blocks *services.BlockIndex
}

func NewBlockHandler(blocks *services.BlockIndex) *BlockHandler {
	return &BlockHandler{blocks: blocks}
}

func (h *BlockHandler) Create(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.BlockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	block, err := h.blocks.CreateBlock(userID, req.BlockedID, req.HideThem, req.HideMe, req.BlockInteractions)
	if err != nil {
		if errors.Is(err, services.ErrSelfBlock) || errors.Is(err, services.ErrAlreadyBlocked) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return serviceError(c, err, "Failed to create block")
	}

	return c.Status(fiber.StatusCreated).JSON(block)
}

func (h *BlockHandler) Update(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	blockID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid block ID")
	}

	var req dto.UpdateBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	block, err := h.blocks.UpdateBlock(userID, blockID, req.HideThem, req.HideMe, req.BlockInteractions)
	if err != nil {
		return serviceError(c, err, "Failed to update block")
	}
	return c.JSON(block)
}

func (h *BlockHandler) Delete(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	blockID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid block ID")
	}

	if err := h.blocks.DeleteBlock(userID, blockID); err != nil {
		return serviceError(c, err, "Failed to delete block")
	}
	return c.JSON(fiber.Map{"message": "Block removed"})
}

func (h *BlockHandler) List(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	blocks, err := h.blocks.ListBlocks(userID)
	if err != nil {
		return serviceError(c, err, "Failed to list blocks")
	}
	return c.JSON(fiber.Map{"blocks": blocks})
}
