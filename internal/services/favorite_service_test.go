package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkweave/inkweave-backend/internal/models"
)

func TestFavorite_AllTargetKinds(t *testing.T) {
	db := newTestDB(t)
	svc := NewFavoriteService(db)

	user := createUser(t, db, "user")
	author := createUser(t, db, "author")
	board := createBoard(t, db, author.ID)
	thread := createThread(t, db, board.ID, author.ID, models.PrivacyPublic)

	for _, target := range []models.FavoriteTarget{
		models.BoardTarget(board.ID),
		models.ThreadTarget(thread.ID),
		models.UserTarget(author.ID),
	} {
		favorite, err := svc.Favorite(user.ID, target)
		require.NoError(t, err)
		assert.Equal(t, target, favorite.Target())
	}

	favorites, err := svc.List(user.ID)
	require.NoError(t, err)
	assert.Len(t, favorites, 3)
}

func TestFavorite_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewFavoriteService(db)

	user := createUser(t, db, "user")
	board := createBoard(t, db, user.ID)

	_, err := svc.Favorite(user.ID, models.FavoriteTarget{Kind: "playlist", ID: uuid.New()})
	assert.Error(t, err)

	_, err = svc.Favorite(user.ID, models.BoardTarget(uuid.New()))
	assert.ErrorIs(t, err, ErrNotFound, "target must exist")

	_, err = svc.Favorite(user.ID, models.BoardTarget(board.ID))
	require.NoError(t, err)
	_, err = svc.Favorite(user.ID, models.BoardTarget(board.ID))
	assert.ErrorIs(t, err, ErrAlreadyFavorited)
}

func TestUnfavorite_OwnerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewFavoriteService(db)

	user := createUser(t, db, "user")
	other := createUser(t, db, "other")
	board := createBoard(t, db, user.ID)

	favorite, err := svc.Favorite(user.ID, models.BoardTarget(board.ID))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Unfavorite(other.ID, favorite.ID), ErrPermissionDenied)
	require.NoError(t, svc.Unfavorite(user.ID, favorite.ID))
	assert.ErrorIs(t, svc.Unfavorite(user.ID, favorite.ID), ErrNotFound)
}
