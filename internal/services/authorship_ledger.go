package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/models"
)

// AuthorshipLedger tracks, per thread and participating user, whether they
// have joined by posting or are merely invited, and whether the thread
// counts against their reply-obligation total.
type AuthorshipLedger struct {
	db *gorm.DB

	// threads idle longer than this are treated as on hiatus for
	// obligation purposes without mutating their stored status
	hiatusWindow time.Duration
}

func NewAuthorshipLedger(db *gorm.DB, hiatusWindow time.Duration) *AuthorshipLedger {
	return &AuthorshipLedger{db: db, hiatusWindow: hiatusWindow}
}

// RecordInvite reconciles the thread's author rows against the desired
// author list. New ids become unjoined invitations. Removed ids that never
// joined are deleted outright; removed ids that did join keep their row —
// their contribution history — with can_owe forced off. Runs on the given
// handle so thread edits can wrap it in their own transaction.
func (l *AuthorshipLedger) RecordInvite(db *gorm.DB, threadID uuid.UUID, userIDs []uuid.UUID) error {
	if db == nil {
		db = l.db
	}

	var existing []models.ThreadAuthor
	if err := db.Where("thread_id = ?", threadID).Find(&existing).Error; err != nil {
		return err
	}

	wanted := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	for _, author := range existing {
		if wanted[author.UserID] {
			continue
		}
		if author.Joined {
			if err := db.Model(&models.ThreadAuthor{}).
				Where("user_id = ? AND thread_id = ?", author.UserID, threadID).
				Update("can_owe", false).Error; err != nil {
				return err
			}
		} else {
			if err := db.Where("user_id = ? AND thread_id = ?", author.UserID, threadID).
				Delete(&models.ThreadAuthor{}).Error; err != nil {
				return err
			}
		}
	}

	have := make(map[uuid.UUID]bool, len(existing))
	for _, author := range existing {
		have[author.UserID] = true
	}
	for _, id := range userIDs {
		if have[id] {
			continue
		}
		author := models.ThreadAuthor{
			UserID:   id,
			ThreadID: threadID,
			Joined:   false,
			CanOwe:   true,
		}
		if err := db.Create(&author).Error; err != nil {
			return fmt.Errorf("failed to create author invite: %w", err)
		}
	}
	return nil
}

// RecordFirstReply marks the user joined on their first reply. joined_at is
// set exactly once and never changes; an invitation accepted by posting
// keeps its can_owe setting. Runs on the given handle so reply creation can
// wrap it in the same transaction.
func (l *AuthorshipLedger) RecordFirstReply(db *gorm.DB, threadID, userID uuid.UUID, replyCreatedAt time.Time) error {
	if db == nil {
		db = l.db
	}

	var author models.ThreadAuthor
	err := db.Where("user_id = ? AND thread_id = ?", userID, threadID).First(&author).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		author = models.ThreadAuthor{
			UserID:   userID,
			ThreadID: threadID,
			Joined:   true,
			JoinedAt: &replyCreatedAt,
			CanOwe:   true,
		}
		return db.Create(&author).Error
	}
	if err != nil {
		return err
	}
	if author.Joined {
		return nil
	}
	return db.Model(&models.ThreadAuthor{}).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		Updates(map[string]interface{}{"joined": true, "joined_at": replyCreatedAt}).Error
}

// OptOut removes the thread from the user's obligation total without
// leaving it. A user who never joined has nothing to keep, so their row is
// deleted entirely.
func (l *AuthorshipLedger) OptOut(threadID, userID uuid.UUID) error {
	var author models.ThreadAuthor
	err := l.db.Where("user_id = ? AND thread_id = ?", userID, threadID).First(&author).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if !author.Joined {
		return l.db.Where("user_id = ? AND thread_id = ?", userID, threadID).
			Delete(&models.ThreadAuthor{}).Error
	}
	return l.db.Model(&models.ThreadAuthor{}).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		Update("can_owe", false).Error
}

// OptIn restores the thread to the user's obligation total. When OptOut
// deleted the row, an unjoined one is recreated so the round-trip works.
func (l *AuthorshipLedger) OptIn(threadID, userID uuid.UUID) error {
	var author models.ThreadAuthor
	err := l.db.Where("user_id = ? AND thread_id = ?", userID, threadID).First(&author).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		author = models.ThreadAuthor{
			UserID:   userID,
			ThreadID: threadID,
			Joined:   false,
			CanOwe:   true,
		}
		return l.db.Create(&author).Error
	}
	if err != nil {
		return err
	}
	return l.db.Model(&models.ThreadAuthor{}).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		Update("can_owe", true).Error
}

// Owes reports whether the user currently owes a reply on the thread. True
// only when the user has joined with can_owe set, the effective status is
// active or hiatus, the board is not the site-testing board, and the last
// toucher — the latest reply's author, or the thread creator when no
// replies exist — is someone else. A thread nobody but its creator has
// touched is never owed.
func (l *AuthorshipLedger) Owes(thread *models.Thread, userID uuid.UUID) (bool, error) {
	var author models.ThreadAuthor
	err := l.db.Where("user_id = ? AND thread_id = ?", userID, thread.ID).First(&author).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !author.Joined || !author.CanOwe {
		return false, nil
	}

	switch l.EffectiveStatus(thread) {
	case models.StatusActive, models.StatusHiatus:
	default:
		return false, nil
	}

	var board models.Board
	if err := l.db.First(&board, "id = ?", thread.BoardID).Error; err != nil {
		return false, err
	}
	if board.SiteTesting {
		return false, nil
	}

	lastToucher, err := l.lastToucher(thread)
	if err != nil {
		return false, err
	}
	return lastToucher != userID, nil
}

// EffectiveStatus degrades a stale ACTIVE thread to HIATUS without touching
// the stored column.
func (l *AuthorshipLedger) EffectiveStatus(thread *models.Thread) models.Status {
	if thread.Status == models.StatusActive && time.Since(thread.TaggedAt) > l.hiatusWindow {
		return models.StatusHiatus
	}
	return thread.Status
}

func (l *AuthorshipLedger) lastToucher(thread *models.Thread) (uuid.UUID, error) {
	var reply models.Reply
	err := l.db.Where("thread_id = ?", thread.ID).
		Order("created_at DESC").
		First(&reply).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return thread.CreatorID, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return reply.UserID, nil
}
