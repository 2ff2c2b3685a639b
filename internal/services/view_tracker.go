package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/models"
)

// unreadTick is how far before an anchor reply "mark unread from here"
// rewinds the read timestamp, so the anchor itself becomes unread again.
const unreadTick = time.Microsecond

// FirstUnread points at the earliest unseen item of a thread: a nil Reply
// means the thread's own root post.
type FirstUnread struct {
	ThreadID uuid.UUID
	Reply    *models.Reply
}

// ViewTracker records per-user read/ignore state at board and thread
// granularity. Thread-level state, once a row exists, permanently takes
// precedence over board-level state for that thread.
type ViewTracker struct {
	db     *gorm.DB
	access *AccessPolicy
}

func NewViewTracker(db *gorm.DB, access *AccessPolicy) *ViewTracker {
	return &ViewTracker{db: db, access: access}
}

// MarkThreadRead upserts the thread view with last_read_at = upTo. The
// timestamp never moves backward unless rewind is set (the "mark unread
// until reply N" path). Marking a thread the user cannot see reports
// success without writing anything, so existence is not leaked.
func (t *ViewTracker) MarkThreadRead(userID, threadID uuid.UUID, upTo time.Time, rewind bool) error {
	thread, err := t.loadThread(threadID)
	if err != nil {
		return err
	}
	visible, err := t.access.CanView(&userID, thread)
	if err != nil {
		return err
	}
	if !visible {
		return nil
	}

	var view models.ThreadView
	err = t.db.Where("user_id = ? AND thread_id = ?", userID, threadID).First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		view = models.ThreadView{UserID: userID, ThreadID: threadID, LastReadAt: &upTo}
		return t.db.Create(&view).Error
	}
	if err != nil {
		return err
	}

	if !rewind && view.LastReadAt != nil && !upTo.After(*view.LastReadAt) {
		return nil
	}
	return t.db.Model(&view).Update("last_read_at", upTo).Error
}

// MarkBoardRead marks everything on the board read as of upTo. It only
// affects threads with no ThreadView of their own.
func (t *ViewTracker) MarkBoardRead(userID, boardID uuid.UUID, upTo time.Time) error {
	if err := t.boardExists(boardID); err != nil {
		return err
	}

	var view models.BoardView
	err := t.db.Where("user_id = ? AND board_id = ?", userID, boardID).First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		view = models.BoardView{UserID: userID, BoardID: boardID, LastReadAt: &upTo}
		return t.db.Create(&view).Error
	}
	if err != nil {
		return err
	}

	if view.LastReadAt != nil && !upTo.After(*view.LastReadAt) {
		return nil
	}
	return t.db.Model(&view).Update("last_read_at", upTo).Error
}

// MarkThreadUnread clears the thread's read state. With an anchor reply the
// timestamp rewinds to just before the anchor instead, so the anchor and
// everything after it become unread again.
func (t *ViewTracker) MarkThreadUnread(userID, threadID uuid.UUID, anchor *models.Reply) error {
	if anchor != nil {
		return t.MarkThreadRead(userID, threadID, anchor.CreatedAt.Add(-unreadTick), true)
	}

	thread, err := t.loadThread(threadID)
	if err != nil {
		return err
	}
	visible, err := t.access.CanView(&userID, thread)
	if err != nil {
		return err
	}
	if !visible {
		return nil
	}

	var view models.ThreadView
	err = t.db.Where("user_id = ? AND thread_id = ?", userID, threadID).First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		view = models.ThreadView{UserID: userID, ThreadID: threadID}
		return t.db.Create(&view).Error
	}
	if err != nil {
		return err
	}
	return t.db.Model(&view).Update("last_read_at", nil).Error
}

// MarkBoardUnread clears the board-level read timestamp.
func (t *ViewTracker) MarkBoardUnread(userID, boardID uuid.UUID) error {
	if err := t.boardExists(boardID); err != nil {
		return err
	}

	var view models.BoardView
	err := t.db.Where("user_id = ? AND board_id = ?", userID, boardID).First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		view = models.BoardView{UserID: userID, BoardID: boardID}
		return t.db.Create(&view).Error
	}
	if err != nil {
		return err
	}
	return t.db.Model(&view).Update("last_read_at", nil).Error
}

// IgnoreThread removes the thread from the user's default feeds without
// touching its read timestamp.
func (t *ViewTracker) IgnoreThread(userID, threadID uuid.UUID) error {
	return t.setThreadIgnored(userID, threadID, true)
}

func (t *ViewTracker) UnignoreThread(userID, threadID uuid.UUID) error {
	return t.setThreadIgnored(userID, threadID, false)
}

func (t *ViewTracker) setThreadIgnored(userID, threadID uuid.UUID, ignored bool) error {
	thread, err := t.loadThread(threadID)
	if err != nil {
		return err
	}
	visible, err := t.access.CanView(&userID, thread)
	if err != nil {
		return err
	}
	if !visible {
		return nil
	}

	var view models.ThreadView
	err = t.db.Where("user_id = ? AND thread_id = ?", userID, threadID).First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		view = models.ThreadView{UserID: userID, ThreadID: threadID, Ignored: ignored}
		return t.db.Create(&view).Error
	}
	if err != nil {
		return err
	}
	return t.db.Model(&view).Update("ignored", ignored).Error
}

func (t *ViewTracker) IgnoreBoard(userID, boardID uuid.UUID) error {
	return t.setBoardIgnored(userID, boardID, true)
}

func (t *ViewTracker) UnignoreBoard(userID, boardID uuid.UUID) error {
	return t.setBoardIgnored(userID, boardID, false)
}

func (t *ViewTracker) setBoardIgnored(userID, boardID uuid.UUID, ignored bool) error {
	if err := t.boardExists(boardID); err != nil {
		return err
	}

	var view models.BoardView
	err := t.db.Where("user_id = ? AND board_id = ?", userID, boardID).First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		view = models.BoardView{UserID: userID, BoardID: boardID, Ignored: ignored}
		return t.db.Create(&view).Error
	}
	if err != nil {
		return err
	}
	return t.db.Model(&view).Update("ignored", ignored).Error
}

// FirstUnreadFor returns the earliest item in the thread past the user's
// effective read timestamp, or nil when the thread is fully read. The
// effective timestamp is the ThreadView's when a row exists — even one with
// a null timestamp — else the owning board's, else never-read. Ignoring a
// thread or board does not change the answer.
func (t *ViewTracker) FirstUnreadFor(userID uuid.UUID, thread *models.Thread) (*FirstUnread, error) {
	visible, err := t.access.CanView(&userID, thread)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, nil
	}

	readAt, never, err := t.effectiveReadAt(userID, thread)
	if err != nil {
		return nil, err
	}
	if never || thread.CreatedAt.After(readAt) {
		return &FirstUnread{ThreadID: thread.ID}, nil
	}

	var reply models.Reply
	err = t.db.Where("thread_id = ? AND created_at > ?", thread.ID, readAt).
		Order("created_at ASC").
		First(&reply).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &FirstUnread{ThreadID: thread.ID, Reply: &reply}, nil
}

// effectiveReadAt resolves the two-granularity precedence rule. The second
// return value is true when the user has never read the thread.
func (t *ViewTracker) effectiveReadAt(userID uuid.UUID, thread *models.Thread) (time.Time, bool, error) {
	var tv models.ThreadView
	err := t.db.Where("user_id = ? AND thread_id = ?", userID, thread.ID).First(&tv).Error
	if err == nil {
		if tv.LastReadAt == nil {
			return time.Time{}, true, nil
		}
		return *tv.LastReadAt, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, err
	}

	var bv models.BoardView
	err = t.db.Where("user_id = ? AND board_id = ?", userID, thread.BoardID).First(&bv).Error
	if err == nil {
		if bv.LastReadAt == nil {
			return time.Time{}, true, nil
		}
		return *bv.LastReadAt, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, err
	}
	return time.Time{}, true, nil
}

func (t *ViewTracker) loadThread(threadID uuid.UUID) (*models.Thread, error) {
	var thread models.Thread
	if err := t.db.First(&thread, "id = ?", threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &thread, nil
}

func (t *ViewTracker) boardExists(boardID uuid.UUID) error {
	var count int64
	if err := t.db.Model(&models.Board{}).Where("id = ?", boardID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
