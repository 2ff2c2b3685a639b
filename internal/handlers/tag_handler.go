package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/inkweave/inkweave-backend/internal/dto"
	"github.com/inkweave/inkweave-backend/internal/models"
	"github.com/inkweave/inkweave-backend/internal/services"
	"github.com/inkweave/inkweave-backend/internal/viewer"
)

type TagHandler struct {
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

func (h *TagHandler) Create(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.TagRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	tag, err := h.tags.CreateTag(userID, req.Kind, req.Name)
	if err != nil {
		return serviceError(c, err, "Failed to create tag")
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

func (h *TagHandler) List(c *fiber.Ctx) error {
	var kind *models.TagKind
	if k := c.Query("kind"); k != "" {
		tk := models.TagKind(k)
		kind = &tk
	}

	tags, err := h.tags.ListTags(kind)
	if err != nil {
		return serviceError(c, err, "Failed to list tags")
	}
	return c.JSON(fiber.Map{"tags": tags})
}

func (h *TagHandler) SetThreadTags(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	var req dto.ThreadTagsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.tags.SetThreadTags(userID, threadID, req.TagIDs); err != nil {
		return serviceError(c, err, "Failed to update thread tags")
	}
	return c.JSON(fiber.Map{"message": "Tags updated"})
}

func (h *TagHandler) ThreadTags(c *fiber.Ctx) error {
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	tags, err := h.tags.ThreadTags(viewer.OptionalUserID(c), threadID)
	if err != nil {
		return serviceError(c, err, "Failed to list thread tags")
	}
	return c.JSON(fiber.Map{"tags": tags})
}
