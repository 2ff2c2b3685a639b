package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/inkweave/inkweave-backend/internal/dto"
	"github.com/inkweave/inkweave-backend/internal/models"
	"github.com/inkweave/inkweave-backend/internal/services"
	"github.com/inkweave/inkweave-backend/internal/viewer"
)

type FavoriteHandler struct {
	favorites *services.FavoriteService
}

func NewFavoriteHandler(favorites *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

func (h *FavoriteHandler) Create(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.FavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	target := models.FavoriteTarget{Kind: req.TargetKind, ID: req.TargetID}
	if err := target.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	favorite, err := h.favorites.Favorite(userID, target)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyFavorited) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return serviceError(c, err, "Failed to create favorite")
	}

	return c.Status(fiber.StatusCreated).JSON(favorite)
}

func (h *FavoriteHandler) Delete(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	favoriteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid favorite ID")
	}

	if err := h.favorites.Unfavorite(userID, favoriteID); err != nil {
		return serviceError(c, err, "Failed to remove favorite")
	}
	return c.JSON(fiber.Map{"message": "Favorite removed"})
}

func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	favorites, err := h.favorites.List(userID)
	if err != nil {
		return serviceError(c, err, "Failed to list favorites")
	}
	return c.JSON(fiber.Map{"favorites": favorites})
}
