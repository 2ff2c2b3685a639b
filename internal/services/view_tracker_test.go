package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkweave/inkweave-backend/internal/models"
)

func TestMarkThreadRead_Monotonic(t *testing.T) {
	db := newTestDB(t)
	tracker := NewViewTracker(db, NewAccessPolicy(db))

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)

	later := time.Now()
	earlier := later.Add(-time.Hour)

	require.NoError(t, tracker.MarkThreadRead(reader.ID, thread.ID, later, false))
	require.NoError(t, tracker.MarkThreadRead(reader.ID, thread.ID, earlier, false))

	var view models.ThreadView
	require.NoError(t, db.Where("user_id = ? AND thread_id = ?", reader.ID, thread.ID).First(&view).Error)
	require.NotNil(t, view.LastReadAt)
	assert.WithinDuration(t, later, *view.LastReadAt, time.Second,
		"an earlier mark-read must not rewind the timestamp")
}

func TestMarkThreadRead_UnknownThread(t *testing.T) {
	db := newTestDB(t)
	tracker := NewViewTracker(db, NewAccessPolicy(db))
	reader := createUser(t, db, "reader")

	err := tracker.MarkThreadRead(reader.ID, uuid.New(), time.Now(), false)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Marking a thread the user cannot see succeeds without writing, so the
// response does not reveal that the thread exists.
func TestMarkThreadRead_InvisibleThreadIsSilentNoop(t *testing.T) {
	db := newTestDB(t)
	tracker := NewViewTracker(db, NewAccessPolicy(db))

	creator := createUser(t, db, "creator")
	outsider := createUser(t, db, "outsider")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPrivate)

	require.NoError(t, tracker.MarkThreadRead(outsider.ID, thread.ID, time.Now(), false))

	var count int64
	require.NoError(t, db.Model(&models.ThreadView{}).
		Where("user_id = ?", outsider.ID).Count(&count).Error)
	assert.Zero(t, count)
}

// Once a ThreadView row exists, it wins over later board-level reads — even
// when its timestamp is null.
func TestReadStatePrecedence_ThreadRowWins(t *testing.T) {
	db := newTestDB(t)
	tracker := NewViewTracker(db, NewAccessPolicy(db))

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)

	// Explicitly mark the thread unread, creating a row with a null timestamp.
	require.NoError(t, tracker.MarkThreadUnread(reader.ID, thread.ID, nil))
	// Then mark the whole board read, later.
	require.NoError(t, tracker.MarkBoardRead(reader.ID, board.ID, time.Now().Add(time.Minute)))

	first, err := tracker.FirstUnreadFor(reader.ID, thread)
	require.NoError(t, err)
	require.NotNil(t, first, "thread-level unread must survive a later board-level read")
	assert.Nil(t, first.Reply, "first unread item should be the root post")
}

func TestFirstUnreadFor_BoardFallback(t *testing.T) {
	db := newTestDB(t)
	tracker := NewViewTracker(db, NewAccessPolicy(db))

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)

	// No state at all: root is unread.
	first, err := tracker.FirstUnreadFor(reader.ID, thread)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Nil(t, first.Reply)

	// Board read after the thread's creation covers it.
	require.NoError(t, tracker.MarkBoardRead(reader.ID, board.ID, time.Now().Add(time.Second)))
	first, err = tracker.FirstUnreadFor(reader.ID, thread)
	require.NoError(t, err)
	assert.Nil(t, first, "board-level read should cover a thread with no ThreadView")

	// A reply past the board timestamp surfaces as the first unread item.
	reply := createReply(t, db, thread.ID, creator.ID, time.Now().Add(time.Hour))
	first, err = tracker.FirstUnreadFor(reader.ID, thread)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, first.Reply)
	assert.Equal(t, reply.ID, first.Reply.ID)
}

func TestFirstUnreadFor_EarliestPastTimestamp(t *testing.T) {
	db := newTestDB(t)
	tracker := NewViewTracker(db, NewAccessPolicy(db))

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)

	base := time.Now()
	createReply(t, db, thread.ID, creator.ID, base.Add(1*time.Minute))
	second := createReply(t, db, thread.ID, creator.ID, base.Add(2*time.Minute))
	createReply(t, db, thread.ID, creator.ID, base.Add(3*time.Minute))

	require.NoError(t, tracker.MarkThreadRead(reader.ID, thread.ID, base.Add(90*time.Second), false))

	first, err := tracker.FirstUnreadFor(reader.ID, thread)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, first.Reply)
	assert.Equal(t, second.ID, first.Reply.ID)
}

func TestFirstUnreadFor_InvisibleThreadReturnsNothing(t *testing.T) {
	db := newTestDB(t)
	tracker := NewViewTracker(db, NewAccessPolicy(db))

	creator := createUser(t, db, "creator")
	outsider := createUser(t, db, "outsider")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPrivate)

	first, err := tracker.FirstUnreadFor(outsider.ID, thread)
	require.NoError(t, err)
	assert.Nil(t, first)
}

// Mark-unread anchored at a reply makes that reply and everything after it
// unread again, without touching earlier replies.
func TestMarkThreadUnread_AnchorRewind(t *testing.T) {
	db := newTestDB(t)
	tracker := NewViewTracker(db, NewAccessPolicy(db))

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)

	base := time.Now()
	createReply(t, db, thread.ID, creator.ID, base.Add(1*time.Minute))
	anchor := createReply(t, db, thread.ID, creator.ID, base.Add(2*time.Minute))
	createReply(t, db, thread.ID, creator.ID, base.Add(3*time.Minute))

	require.NoError(t, tracker.MarkThreadRead(reader.ID, thread.ID, base.Add(time.Hour), false))
	require.NoError(t, tracker.MarkThreadUnread(reader.ID, thread.ID, anchor))

	first, err := tracker.FirstUnreadFor(reader.ID, thread)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, first.Reply)
	assert.Equal(t, anchor.ID, first.Reply.ID)
}

func TestIgnore_DoesNotAffectFirstUnread(t *testing.T) {
	db := newTestDB(t)
	tracker := NewViewTracker(db, NewAccessPolicy(db))

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)

	require.NoError(t, tracker.IgnoreThread(reader.ID, thread.ID))

	first, err := tracker.FirstUnreadFor(reader.ID, thread)
	require.NoError(t, err)
	require.NotNil(t, first, "ignoring hides the thread from feeds, not from first-unread")

	require.NoError(t, tracker.UnignoreThread(reader.ID, thread.ID))
	var view models.ThreadView
	require.NoError(t, db.Where("user_id = ? AND thread_id = ?", reader.ID, thread.ID).First(&view).Error)
	assert.False(t, view.Ignored)
}

func TestMarkBoardUnread_ClearsTimestamp(t *testing.T) {
	db := newTestDB(t)
	tracker := NewViewTracker(db, NewAccessPolicy(db))

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)

	require.NoError(t, tracker.MarkBoardRead(reader.ID, board.ID, time.Now()))
	require.NoError(t, tracker.MarkBoardUnread(reader.ID, board.ID))

	var view models.BoardView
	require.NoError(t, db.Where("user_id = ? AND board_id = ?", reader.ID, board.ID).First(&view).Error)
	assert.Nil(t, view.LastReadAt)

	assert.ErrorIs(t, tracker.MarkBoardUnread(reader.ID, uuid.New()), ErrNotFound)
}
