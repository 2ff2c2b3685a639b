package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/dto"
	"github.com/inkweave/inkweave-backend/internal/models"
	"github.com/inkweave/inkweave-backend/internal/services"
	"github.com/inkweave/inkweave-backend/internal/viewer"
)

type ThreadHandler struct {
	db      *gorm.DB
	threads *services.ThreadService
	views   *services.ViewTracker
	ledger  *services.AuthorshipLedger
}

func NewThreadHandler(db *gorm.DB, threads *services.ThreadService, views *services.ViewTracker, ledger *services.AuthorshipLedger) *ThreadHandler {
	return &ThreadHandler{db: db, threads: threads, views: views, ledger: ledger}
}

func (h *ThreadHandler) Create(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	thread, err := h.threads.CreateThread(userID, services.CreateThreadParams{
		BoardID:       req.BoardID,
		SectionID:     req.SectionID,
		Subject:       req.Subject,
		Content:       req.Content,
		Privacy:       req.Privacy,
		AuthorsLocked: req.AuthorsLocked,
		ViewerIDs:     req.ViewerIDs,
		CircleIDs:     req.CircleIDs,
		AuthorIDs:     req.AuthorIDs,
	})
	if err != nil {
		if errors.Is(err, services.ErrBoardLocked) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return serviceError(c, err, "Failed to create thread")
	}

	return c.Status(fiber.StatusCreated).JSON(thread)
}

func (h *ThreadHandler) Get(c *fiber.Ctx) error {
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	thread, err := h.threads.GetThread(viewer.OptionalUserID(c), threadID)
	if err != nil {
		return serviceError(c, err, "Failed to fetch thread")
	}

	return c.JSON(thread)
}

func (h *ThreadHandler) Update(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	var req dto.UpdateThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	thread, err := h.threads.UpdateThread(userID, threadID, services.UpdateThreadParams{
		Subject:   req.Subject,
		Content:   req.Content,
		Privacy:   req.Privacy,
		Status:    req.Status,
		SectionID: req.SectionID,
		ViewerIDs: req.ViewerIDs,
		CircleIDs: req.CircleIDs,
		AuthorIDs: req.AuthorIDs,
	})
	if err != nil {
		return serviceError(c, err, "Failed to update thread")
	}

	return c.JSON(thread)
}

func (h *ThreadHandler) Delete(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	if err := h.threads.DeleteThread(userID, threadID); err != nil {
		return serviceError(c, err, "Failed to delete thread")
	}

	return c.JSON(fiber.Map{"message": "Thread deleted"})
}

func (h *ThreadHandler) ListReplies(c *fiber.Ctx) error {
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "25"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	replies, err := h.threads.ListReplies(viewer.OptionalUserID(c), threadID, limit, offset)
	if err != nil {
		return serviceError(c, err, "Failed to fetch replies")
	}

	return c.JSON(fiber.Map{"replies": replies, "limit": limit, "offset": offset})
}

func (h *ThreadHandler) PostReply(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	reply, err := h.threads.PostReply(userID, threadID, req.Content)
	if err != nil {
		return serviceError(c, err, "Failed to post reply")
	}

	return c.Status(fiber.StatusCreated).JSON(reply)
}

func (h *ThreadHandler) DeleteReply(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	replyID, err := uuid.Parse(c.Params("reply_id"))
	if err != nil {
		return badRequest(c, "Invalid reply ID")
	}

	if err := h.threads.DeleteReply(userID, replyID); err != nil {
		return serviceError(c, err, "Failed to delete reply")
	}

	return c.JSON(fiber.Map{"message": "Reply deleted"})
}

func (h *ThreadHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	var req dto.MarkReadRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}
	upTo := time.Now()
	if req.UpTo != nil {
		upTo = *req.UpTo
	}

	if err := h.views.MarkThreadRead(userID, threadID, upTo, false); err != nil {
		return serviceError(c, err, "Failed to mark read")
	}
	return c.JSON(fiber.Map{"message": "Marked read"})
}

func (h *ThreadHandler) MarkUnread(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	var req dto.MarkUnreadRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}

	var anchor *models.Reply
	if req.AnchorReplyID != nil {
		var reply models.Reply
		if err := h.db.First(&reply, "id = ? AND thread_id = ?", *req.AnchorReplyID, threadID).Error; err != nil {
			return badRequest(c, "Unknown anchor reply")
		}
		anchor = &reply
	}

	if err := h.views.MarkThreadUnread(userID, threadID, anchor); err != nil {
		return serviceError(c, err, "Failed to mark unread")
	}
	return c.JSON(fiber.Map{"message": "Marked unread"})
}

func (h *ThreadHandler) Ignore(c *fiber.Ctx) error {
	return h.setIgnored(c, true)
}

func (h *ThreadHandler) Unignore(c *fiber.Ctx) error {
	return h.setIgnored(c, false)
}

func (h *ThreadHandler) setIgnored(c *fiber.Ctx, ignored bool) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	if ignored {
		err = h.views.IgnoreThread(userID, threadID)
	} else {
		err = h.views.UnignoreThread(userID, threadID)
	}
	if err != nil {
		return serviceError(c, err, "Failed to update ignore state")
	}
	return c.JSON(fiber.Map{"ignored": ignored})
}

// FirstUnread answers where the user should resume reading.
func (h *ThreadHandler) FirstUnread(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	thread, err := h.threads.GetThread(&userID, threadID)
	if err != nil {
		return serviceError(c, err, "Failed to fetch thread")
	}

	first, err := h.views.FirstUnreadFor(userID, thread)
	if err != nil {
		return serviceError(c, err, "Failed to resolve unread position")
	}
	if first == nil {
		return c.JSON(dto.FirstUnreadResponse{ThreadID: threadID, AllRead: true})
	}
	return c.JSON(dto.FirstUnreadResponse{
		ThreadID: threadID,
		Root:     first.Reply == nil,
		Reply:    first.Reply,
	})
}

func (h *ThreadHandler) OptOut(c *fiber.Ctx) error {
	return h.setOwed(c, false)
}

func (h *ThreadHandler) OptIn(c *fiber.Ctx) error {
	return h.setOwed(c, true)
}

func (h *ThreadHandler) setOwed(c *fiber.Ctx, optIn bool) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	if optIn {
		err = h.ledger.OptIn(threadID, userID)
	} else {
		err = h.ledger.OptOut(threadID, userID)
	}
	if err != nil {
		return serviceError(c, err, "Failed to update obligation state")
	}
	return c.JSON(fiber.Map{"can_owe": optIn})
}

// Owes reports the caller's current obligation on one thread.
func (h *ThreadHandler) Owes(c *fiber.Ctx) error {
	userID, err := viewer.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid thread ID")
	}

	thread, err := h.threads.GetThread(&userID, threadID)
	if err != nil {
		return serviceError(c, err, "Failed to fetch thread")
	}

	owes, err := h.ledger.Owes(thread, userID)
	if err != nil {
		return serviceError(c, err, "Failed to resolve obligation")
	}
	return c.JSON(fiber.Map{"owes": owes})
}
