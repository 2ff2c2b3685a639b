package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkweave/inkweave-backend/internal/models"
)

func TestCanView_PublicVisibleToEveryone(t *testing.T) {
	db := newTestDB(t)
	policy := NewAccessPolicy(db)

	creator := createUser(t, db, "creator")
	stranger := createUser(t, db, "stranger")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPublic)

	visible, err := policy.CanView(nil, thread)
	require.NoError(t, err)
	assert.True(t, visible, "anonymous viewer should see a public thread")

	visible, err = policy.CanView(&stranger.ID, thread)
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestCanView_RegisteredRequiresLogin(t *testing.T) {
	db := newTestDB(t)
	policy := NewAccessPolicy(db)

	creator := createUser(t, db, "creator")
	reader := createUser(t, db, "reader")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyRegistered)

	visible, err := policy.CanView(nil, thread)
	require.NoError(t, err)
	assert.False(t, visible, "anonymous viewer should not see a registered-only thread")

	visible, err = policy.CanView(&reader.ID, thread)
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestCanView_AccessListExplicitViewer(t *testing.T) {
	db := newTestDB(t)
	policy := NewAccessPolicy(db)

	creator := createUser(t, db, "creator")
	listed := createUser(t, db, "listed")
	unlisted := createUser(t, db, "unlisted")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyAccessList)
	require.NoError(t, db.Create(&models.ThreadViewer{ThreadID: thread.ID, UserID: listed.ID}).Error)

	visible, err := policy.CanView(&listed.ID, thread)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = policy.CanView(&unlisted.ID, thread)
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = policy.CanView(nil, thread)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestCanView_AccessListViaCircle(t *testing.T) {
	db := newTestDB(t)
	policy := NewAccessPolicy(db)

	creator := createUser(t, db, "creator")
	member := createUser(t, db, "member")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyAccessList)

	circle := models.AccessCircle{ID: uuid.New(), OwnerID: creator.ID, Name: "friends"}
	require.NoError(t, db.Create(&circle).Error)
	require.NoError(t, db.Create(&models.CircleMember{CircleID: circle.ID, UserID: member.ID}).Error)
	require.NoError(t, db.Create(&models.ThreadCircle{ThreadID: thread.ID, CircleID: circle.ID}).Error)

	visible, err := policy.CanView(&member.ID, thread)
	require.NoError(t, err)
	assert.True(t, visible, "circle member should see an access-list thread via the circle")
}

// Authorship trumps privacy: even a merely-invited author sees a private
// thread.
func TestCanView_PrivateAuthorsOnly(t *testing.T) {
	db := newTestDB(t)
	policy := NewAccessPolicy(db)

	creator := createUser(t, db, "creator")
	invited := createUser(t, db, "invited")
	stranger := createUser(t, db, "stranger")
	board := createBoard(t, db, creator.ID)
	thread := createThread(t, db, board.ID, creator.ID, models.PrivacyPrivate)
	require.NoError(t, db.Create(&models.ThreadAuthor{
		UserID: invited.ID, ThreadID: thread.ID, Joined: false, CanOwe: true,
	}).Error)

	visible, err := policy.CanView(&creator.ID, thread)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = policy.CanView(&invited.ID, thread)
	require.NoError(t, err)
	assert.True(t, visible, "invited author should see a private thread before joining")

	visible, err = policy.CanView(&stranger.ID, thread)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestCanViewID_UnknownThread(t *testing.T) {
	db := newTestDB(t)
	policy := NewAccessPolicy(db)

	user := createUser(t, db, "user")
	_, err := policy.CanViewID(&user.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
