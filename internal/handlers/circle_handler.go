package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/inkweave/inkweave-backend/internal/dto"
	"github.com/inkweave/inkweave-backend/internal/services"
	"github.com/inkweave/inkweave-backend/internal/viewer"
)

type CircleHandler struct {
	circles *services.CircleService
}

func NewCircleHandler(circles *services.CircleService) *CircleHandler {
	return &CircleHandler{circles: circles}
}

func (h *CircleHandler) Create(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CircleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	circle, err := h.circles.CreateCircle(userID, req.Name, req.MemberIDs)
	if err != nil {
		return serviceError(c, err, "Failed to create circle")
	}
	return c.Status(fiber.StatusCreated).JSON(circle)
}

func (h *CircleHandler) UpdateMembers(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	circleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid circle ID")
	}

	var req dto.CircleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.circles.UpdateMembers(userID, circleID, req.MemberIDs); err != nil {
		return serviceError(c, err, "Failed to update circle")
	}
	return c.JSON(fiber.Map{"message": "Circle updated"})
}

func (h *CircleHandler) Delete(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	circleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid circle ID")
	}

	if err := h.circles.DeleteCircle(userID, circleID); err != nil {
		return serviceError(c, err, "Failed to delete circle")
	}
	return c.JSON(fiber.Map{"message": "Circle deleted"})
}

func (h *CircleHandler) List(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	circles, err := h.circles.ListCircles(userID)
	if err != nil {
		return serviceError(c, err, "Failed to list circles")
	}
	return c.JSON(fiber.Map{"circles": circles})
}

func (h *CircleHandler) ListMembers(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	circleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid circle ID")
	}

	members, err := h.circles.ListMembers(userID, circleID)
	if err != nil {
		return serviceError(c, err, "Failed to list members")
	}
	return c.JSON(fiber.Map{"members": members})
}
