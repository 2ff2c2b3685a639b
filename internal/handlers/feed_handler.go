package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/inkweave/inkweave-backend/internal/services"
	"github.com/inkweave/inkweave-backend/internal/viewer"
)

type FeedHandler struct {
	feeds *services.FeedAssembler
}

func NewFeedHandler(feeds *services.FeedAssembler) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

// Get serves /feeds/:kind — unread, opened, owed or hidden.
func (h *FeedHandler) Get(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	kind := services.FeedKind(c.Params("kind"))
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "25"))

	feed, err := h.feeds.Feed(userID, kind, page, perPage)
	if err != nil {
		if errors.Is(err, services.ErrUnknownFeed) {
			return badRequest(c, err.Error())
		}
		return serviceError(c, err, "Failed to assemble feed")
	}

	return c.JSON(feed)
}
