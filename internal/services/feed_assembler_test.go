package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/cache"
	"github.com/inkweave/inkweave-backend/internal/models"
)

func newAssembler(t *testing.T) (*FeedAssembler, *BlockIndex, *ViewTracker, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	blocks := NewBlockIndex(db, cache.NewMemory())
	feeds := NewFeedAssembler(db, blocks, testHiatusWindow)
	tracker := NewViewTracker(db, NewAccessPolicy(db))
	return feeds, blocks, tracker, db
}

func TestFeed_UnknownKind(t *testing.T) {
	feeds, _, _, db := newAssembler(t)
	user := createUser(t, db, "user")

	_, err := feeds.Feed(user.ID, FeedKind("bogus"), 1, 25)
	assert.ErrorIs(t, err, ErrUnknownFeed)
}

func TestUnreadFeed_OrderingAndReadState(t *testing.T) {
	feeds, _, tracker, db := newAssembler(t)

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)

	older := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	newer := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	base := time.Now()
	require.NoError(t, db.Model(older).Update("tagged_at", base.Add(-time.Hour)).Error)
	require.NoError(t, db.Model(newer).Update("tagged_at", base).Error)

	page, err := feeds.Feed(reader.ID, FeedUnread, 1, 25)
	require.NoError(t, err)
	require.Len(t, page.Threads, 2)
	assert.Equal(t, newer.ID, page.Threads[0].ID, "unread feed is most-recent-activity first")
	assert.Equal(t, older.ID, page.Threads[1].ID)
	assert.EqualValues(t, 2, page.Total)

	// Reading one removes it.
	require.NoError(t, tracker.MarkThreadRead(reader.ID, newer.ID, base.Add(time.Minute), false))
	page, err = feeds.Feed(reader.ID, FeedUnread, 1, 25)
	require.NoError(t, err)
	require.Len(t, page.Threads, 1)
	assert.Equal(t, older.ID, page.Threads[0].ID)

	// New activity brings it back.
	createReply(t, db, newer.ID, creator.ID, base.Add(time.Hour))
	page, err = feeds.Feed(reader.ID, FeedUnread, 1, 25)
	require.NoError(t, err)
	assert.Len(t, page.Threads, 2)
}

func TestUnreadFeed_RespectsVisibility(t *testing.T) {
	feeds, _, _, db := newAssembler(t)

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)

	visible := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	createThread(t, db, board.ID, creator.ID, models.PrivacyPrivate)

	page, err := feeds.Feed(reader.ID, FeedUnread, 1, 25)
	require.NoError(t, err)
	require.Len(t, page.Threads, 1)
	assert.Equal(t, visible.ID, page.Threads[0].ID)
}

// Blocking filters feeds even where direct navigation would still show the
// thread.
func TestUnreadFeed_BlockExclusionIndependentOfVisibility(t *testing.T) {
	feeds, blocks, _, db := newAssembler(t)

	reader := createUser(t, db, "reader")
	author := createUser(t, db, "author")
	board := createBoard(t, db, author.ID)
	blockedThread := createThread(t, db, board.ID, author.ID, models.PrivacyPublic)

	_, err := blocks.CreateBlock(reader.ID, author.ID, models.BlockPosts, models.BlockNone, true)
	require.NoError(t, err)

	// Direct access still succeeds.
	policy := NewAccessPolicy(db)
	visible, err := policy.CanView(&reader.ID, blockedThread)
	require.NoError(t, err)
	require.True(t, visible)

	page, err := feeds.Feed(reader.ID, FeedUnread, 1, 25)
	require.NoError(t, err)
	assert.Empty(t, page.Threads, "feed must exclude threads hidden by blocks")
}

func TestUnreadFeed_IgnoredAtEitherGranularity(t *testing.T) {
	feeds, _, tracker, db := newAssembler(t)

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	boardA := createBoard(t, db, creator.ID)
	boardB := createBoard(t, db, creator.ID)

	threadA := createThread(t, db, boardA.ID, creator.ID, models.PrivacyPublic)
	createThread(t, db, boardB.ID, creator.ID, models.PrivacyPublic)

	require.NoError(t, tracker.IgnoreThread(reader.ID, threadA.ID))
	require.NoError(t, tracker.IgnoreBoard(reader.ID, boardB.ID))

	page, err := feeds.Feed(reader.ID, FeedUnread, 1, 25)
	require.NoError(t, err)
	assert.Empty(t, page.Threads)
}

// Opened is the unread set restricted to threads with a prior read record.
func TestOpenedFeed(t *testing.T) {
	feeds, _, tracker, db := newAssembler(t)

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)

	opened := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)

	base := time.Now()
	require.NoError(t, tracker.MarkThreadRead(reader.ID, opened.ID, base, false))
	createReply(t, db, opened.ID, creator.ID, base.Add(time.Hour))

	page, err := feeds.Feed(reader.ID, FeedOpened, 1, 25)
	require.NoError(t, err)
	require.Len(t, page.Threads, 1)
	assert.Equal(t, opened.ID, page.Threads[0].ID)
}

func TestOwedFeed_OrderingAndGates(t *testing.T) {
	feeds, _, _, db := newAssembler(t)

	creator := createUser(t, db, "creator")
	partner := createUser(t, db, "partner")
	board := createBoard(t, db, creator.ID)

	// Both owed by the partner; the staler one comes first.
	fresh := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	stale := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	joinAuthor(t, db, fresh.ID, partner.ID)
	joinAuthor(t, db, stale.ID, partner.ID)

	base := time.Now()
	require.NoError(t, db.Model(stale).Update("tagged_at", base.Add(-48*time.Hour)).Error)
	require.NoError(t, db.Model(fresh).Update("tagged_at", base).Error)

	// Not owed: the partner touched it last.
	answered := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	joinAuthor(t, db, answered.ID, partner.ID)
	createReply(t, db, answered.ID, partner.ID, base)

	page, err := feeds.Feed(partner.ID, FeedOwed, 1, 25)
	require.NoError(t, err)
	require.Len(t, page.Threads, 2)
	assert.Equal(t, stale.ID, page.Threads[0].ID, "owed feed is oldest obligation first")
	assert.Equal(t, fresh.ID, page.Threads[1].ID)
}

func TestOwedFeed_HideHiatusedDropsStaleActive(t *testing.T) {
	feeds, _, _, db := newAssembler(t)

	creator := createUser(t, db, "creator")
	partner := createUser(t, db, "partner")
	board := createBoard(t, db, creator.ID)

	active := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	staleActive := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	storedHiatus := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	joinAuthor(t, db, active.ID, partner.ID)
	joinAuthor(t, db, staleActive.ID, partner.ID)
	joinAuthor(t, db, storedHiatus.ID, partner.ID)

	require.NoError(t, db.Model(staleActive).
		Update("tagged_at", time.Now().Add(-testHiatusWindow-time.Hour)).Error)
	require.NoError(t, db.Model(storedHiatus).Update("status", models.StatusHiatus).Error)

	page, err := feeds.Feed(partner.ID, FeedOwed, 1, 25)
	require.NoError(t, err)
	assert.Len(t, page.Threads, 3, "all three count while hiatused threads are shown")

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", partner.ID).
		Update("hide_hiatused", true).Error)

	page, err = feeds.Feed(partner.ID, FeedOwed, 1, 25)
	require.NoError(t, err)
	require.Len(t, page.Threads, 1, "stale-active and stored-hiatus both drop out")
	assert.Equal(t, active.ID, page.Threads[0].ID)
}

func TestOwedFeed_SiteTestingBoardExcluded(t *testing.T) {
	feeds, _, _, db := newAssembler(t)

	creator := createUser(t, db, "creator")
	partner := createUser(t, db, "partner")
	board := createBoard(t, db, creator.ID)
	require.NoError(t, db.Model(board).Update("site_testing", true).Error)

	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
	joinAuthor(t, db, thread.ID, partner.ID)

	page, err := feeds.Feed(partner.ID, FeedOwed, 1, 25)
	require.NoError(t, err)
	assert.Empty(t, page.Threads)
}

func TestOwedFeed_UnknownUser(t *testing.T) {
	feeds, _, _, _ := newAssembler(t)

	_, err := feeds.Feed(uuid.New(), FeedOwed, 1, 25)
	assert.ErrorIs(t, err, ErrNotFound)
}

// The hidden feed partitions by granularity: ignored threads paginated,
// ignored boards listed whole.
func TestHiddenFeed_Partition(t *testing.T) {
	feeds, _, tracker, db := newAssembler(t)

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	boardA := createBoard(t, db, creator.ID)
	boardB := createBoard(t, db, creator.ID)

	thread := createThread(t, db, boardA.ID, creator.ID, models.PrivacyPublic)
	require.NoError(t, tracker.IgnoreThread(reader.ID, thread.ID))
	require.NoError(t, tracker.IgnoreBoard(reader.ID, boardB.ID))

	page, err := feeds.Feed(reader.ID, FeedHidden, 1, 25)
	require.NoError(t, err)
	require.Len(t, page.Threads, 1)
	assert.Equal(t, thread.ID, page.Threads[0].ID)
	require.Len(t, page.Boards, 1)
	assert.Equal(t, boardB.ID, page.Boards[0].ID)
}

func TestFeed_Pagination(t *testing.T) {
	feeds, _, _, db := newAssembler(t)

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)

	base := time.Now()
	for i := 0; i < 5; i++ {
		thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)
		require.NoError(t, db.Model(thread).
			Update("tagged_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	page, err := feeds.Feed(reader.ID, FeedUnread, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Threads, 2)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)

	// Out-of-range inputs clamp instead of failing.
	page, err = feeds.Feed(reader.ID, FeedUnread, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 25, page.PerPage)
}
