package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/models"
)

var ErrBoardLocked = errors.New("board is restricted to its writers")

// ThreadService is the CRUD layer over threads and replies. It owns nothing
// the engine components don't — it loads rows, gates them through
// AccessPolicy/BlockIndex, and keeps the ledger and tagged_at in step with
// content mutations inside one transaction.
type ThreadService struct {
	db     *gorm.DB
	access *AccessPolicy
	blocks *BlockIndex
	ledger *AuthorshipLedger
}

func NewThreadService(db *gorm.DB, access *AccessPolicy, blocks *BlockIndex, ledger *AuthorshipLedger) *ThreadService {
	return &ThreadService{db: db, access: access, blocks: blocks, ledger: ledger}
}

type CreateThreadParams struct {
	BoardID       uuid.UUID
	SectionID     *uuid.UUID
	Subject       string
	Content       string
	Privacy       models.Privacy
	AuthorsLocked bool
	ViewerIDs     []uuid.UUID
	CircleIDs     []uuid.UUID
	AuthorIDs     []uuid.UUID // invited co-authors, creator excluded
}

type UpdateThreadParams struct {
	Subject   *string
	Content   *string
	Privacy   *models.Privacy
	Status    *models.Status
	SectionID *uuid.UUID
	ViewerIDs []uuid.UUID // nil = unchanged
	CircleIDs []uuid.UUID // nil = unchanged
	AuthorIDs []uuid.UUID // nil = unchanged; full desired list including creator
}

func (s *ThreadService) CreateThread(creatorID uuid.UUID, params CreateThreadParams) (*models.Thread, error) {
	if params.Subject == "" {
		return nil, errors.New("subject is required")
	}

	var board models.Board
	if err := s.db.First(&board, "id = ?", params.BoardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if board.AuthorsLocked {
		ok, err := s.mayWriteOn(&board, creatorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBoardLocked
		}
	}

	now := time.Now()
	thread := models.Thread{
		ID:            uuid.New(),
		BoardID:       params.BoardID,
		SectionID:     params.SectionID,
		CreatorID:     creatorID,
		Subject:       params.Subject,
		Content:       params.Content,
		Privacy:       params.Privacy,
		AuthorsLocked: params.AuthorsLocked,
		Status:        models.StatusActive,
		TaggedAt:      now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if params.SectionID != nil {
			order, err := nextSectionOrder(tx, *params.SectionID)
			if err != nil {
				return err
			}
			thread.SectionOrder = order
		}
		if err := tx.Create(&thread).Error; err != nil {
			return fmt.Errorf("failed to create thread: %w", err)
		}

		creator := models.ThreadAuthor{
			UserID:   creatorID,
			ThreadID: thread.ID,
			Joined:   true,
			JoinedAt: &now,
			CanOwe:   true,
		}
		if err := tx.Create(&creator).Error; err != nil {
			return err
		}

		if err := s.replaceViewers(tx, thread.ID, params.ViewerIDs); err != nil {
			return err
		}
		if err := s.replaceCircles(tx, thread.ID, creatorID, params.CircleIDs); err != nil {
			return err
		}

		invited := append([]uuid.UUID{creatorID}, params.AuthorIDs...)
		return s.ledger.RecordInvite(tx, thread.ID, invited)
	})
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// UpdateThread edits thread attributes. The author-list reconciliation runs
// in the same transaction as the attribute update, so an author removed by
// the creator disappears atomically with the edit that removed them.
func (s *ThreadService) UpdateThread(actorID, threadID uuid.UUID, params UpdateThreadParams) (*models.Thread, error) {
	var thread models.Thread
	if err := s.db.First(&thread, "id = ?", threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if thread.CreatorID != actorID {
		return nil, ErrPermissionDenied
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if params.Subject != nil {
			updates["subject"] = *params.Subject
		}
		if params.Content != nil {
			updates["content"] = *params.Content
		}
		if params.Privacy != nil {
			updates["privacy"] = *params.Privacy
		}
		if params.Status != nil {
			updates["status"] = *params.Status
		}
		if params.SectionID != nil && (thread.SectionID == nil || *thread.SectionID != *params.SectionID) {
			order, err := nextSectionOrder(tx, *params.SectionID)
			if err != nil {
				return err
			}
			updates["section_id"] = *params.SectionID
			updates["section_order"] = order
			if thread.SectionID != nil {
				if err := compactSectionOrder(tx, *thread.SectionID, thread.ID); err != nil {
					return err
				}
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&thread).Updates(updates).Error; err != nil {
				return err
			}
		}

		if params.ViewerIDs != nil {
			if err := s.replaceViewers(tx, thread.ID, params.ViewerIDs); err != nil {
				return err
			}
		}
		if params.CircleIDs != nil {
			if err := s.replaceCircles(tx, thread.ID, actorID, params.CircleIDs); err != nil {
				return err
			}
		}
		if params.AuthorIDs != nil {
			if err := s.ledger.RecordInvite(tx, thread.ID, params.AuthorIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&thread, "id = ?", threadID).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

// GetThread loads a thread for the viewer. A PRIVATE thread the viewer may
// not see reports NotFound rather than PermissionDenied so its existence
// does not leak.
func (s *ThreadService) GetThread(viewerID *uuid.UUID, threadID uuid.UUID) (*models.Thread, error) {
	var thread models.Thread
	if err := s.db.First(&thread, "id = ?", threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	visible, err := s.access.CanView(viewerID, &thread)
	if err != nil {
		return nil, err
	}
	if !visible {
		if thread.Privacy == models.PrivacyPrivate {
			return nil, ErrNotFound
		}
		return nil, ErrPermissionDenied
	}
	return &thread, nil
}

// ListReplies returns a page of a visible thread's replies in creation
// order.
func (s *ThreadService) ListReplies(viewerID *uuid.UUID, threadID uuid.UUID, limit, offset int) ([]models.Reply, error) {
	if _, err := s.GetThread(viewerID, threadID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}

	var replies []models.Reply
	err := s.db.Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&replies).Error
	return replies, err
}

// PostReply appends a reply. Visibility, the thread's author lock, and
// block_interactions gate it; the reply row, the tagged_at bump and the
// ledger join all commit together.
func (s *ThreadService) PostReply(userID, threadID uuid.UUID, content string) (*models.Reply, error) {
	thread, err := s.GetThread(&userID, threadID)
	if err != nil {
		return nil, err
	}

	if thread.AuthorsLocked {
		var count int64
		err := s.db.Model(&models.ThreadAuthor{}).
			Where("thread_id = ? AND user_id = ?", threadID, userID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrPermissionDenied
		}
	}

	blocked, err := s.blocks.RepliesBlocked(thread, userID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrPermissionDenied
	}

	now := time.Now()
	reply := models.Reply{
		ID:        uuid.New(),
		ThreadID:  threadID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reply).Error; err != nil {
			return fmt.Errorf("failed to create reply: %w", err)
		}
		if err := tx.Model(&models.Thread{}).
			Where("id = ? AND tagged_at < ?", threadID, now).
			Update("tagged_at", now).Error; err != nil {
			return err
		}
		return s.ledger.RecordFirstReply(tx, threadID, userID, now)
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// DeleteReply removes the author's own reply and recomputes tagged_at from
// what remains — the one place the activity timestamp may move backward.
func (s *ThreadService) DeleteReply(actorID, replyID uuid.UUID) error {
	var reply models.Reply
	if err := s.db.First(&reply, "id = ?", replyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if reply.UserID != actorID {
		return ErrPermissionDenied
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&reply).Error; err != nil {
			return err
		}

		var thread models.Thread
		if err := tx.First(&thread, "id = ?", reply.ThreadID).Error; err != nil {
			return err
		}
		taggedAt := thread.CreatedAt
		var latest models.Reply
		err := tx.Where("thread_id = ?", reply.ThreadID).
			Order("created_at DESC").
			First(&latest).Error
		if err == nil {
			taggedAt = latest.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Model(&thread).Update("tagged_at", taggedAt).Error
	})
}

// DeleteThread removes a thread and all its dependent rows wholesale. Any
// failure rolls the whole cascade back; partial deletion is never left
// behind.
func (s *ThreadService) DeleteThread(actorID, threadID uuid.UUID) error {
	var thread models.Thread
	if err := s.db.First(&thread, "id = ?", threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if thread.CreatorID != actorID {
		return ErrPermissionDenied
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, del := range []interface{}{
			&models.ThreadAuthor{},
			&models.ThreadView{},
			&models.ThreadViewer{},
			&models.ThreadCircle{},
			&models.ThreadTag{},
		} {
			if err := tx.Where("thread_id = ?", threadID).Delete(del).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("thread_id = ?", threadID).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		if thread.SectionID != nil {
			if err := compactSectionOrder(tx, *thread.SectionID, thread.ID); err != nil {
				return err
			}
		}
		return tx.Delete(&thread).Error
	})
}

func (s *ThreadService) replaceViewers(tx *gorm.DB, threadID uuid.UUID, viewerIDs []uuid.UUID) error {
	if err := tx.Where("thread_id = ?", threadID).Delete(&models.ThreadViewer{}).Error; err != nil {
		return err
	}
	for _, id := range viewerIDs {
		if err := tx.Create(&models.ThreadViewer{ThreadID: threadID, UserID: id}).Error; err != nil {
			return err
		}
	}
	return nil
}

// replaceCircles attaches circles to the thread; only the actor's own
// circles may be attached.
func (s *ThreadService) replaceCircles(tx *gorm.DB, threadID, actorID uuid.UUID, circleIDs []uuid.UUID) error {
	if err := tx.Where("thread_id = ?", threadID).Delete(&models.ThreadCircle{}).Error; err != nil {
		return err
	}
	for _, id := range circleIDs {
		var circle models.AccessCircle
		if err := tx.First(&circle, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if circle.OwnerID != actorID {
			return ErrPermissionDenied
		}
		if err := tx.Create(&models.ThreadCircle{ThreadID: threadID, CircleID: id}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *ThreadService) mayWriteOn(board *models.Board, userID uuid.UUID) (bool, error) {
	if board.CreatorID == userID {
		return true, nil
	}
	var count int64
	err := s.db.Model(&models.BoardAuthor{}).
		Where("board_id = ? AND user_id = ?", board.ID, userID).
		Count(&count).Error
	return count > 0, err
}

// nextSectionOrder appends after the section's current last thread. Gaps
// are permitted, so max+1 is enough.
func nextSectionOrder(tx *gorm.DB, sectionID uuid.UUID) (int, error) {
	var max *int
	err := tx.Model(&models.Thread{}).
		Where("section_id = ?", sectionID).
		Select("MAX(section_order)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

// compactSectionOrder renumbers a section's threads 0..n-1 after one leaves.
func compactSectionOrder(tx *gorm.DB, sectionID, leavingThreadID uuid.UUID) error {
	var siblings []models.Thread
	err := tx.Where("section_id = ? AND id <> ?", sectionID, leavingThreadID).
		Order("section_order ASC").
		Find(&siblings).Error
	if err != nil {
		return err
	}
	for i, sibling := range siblings {
		if sibling.SectionOrder == i {
			continue
		}
		if err := tx.Model(&models.Thread{}).
			Where("id = ?", sibling.ID).
			Update("section_order", i).Error; err != nil {
			return err
		}
	}
	return nil
}
