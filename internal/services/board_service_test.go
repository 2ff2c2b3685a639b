package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkweave/inkweave-backend/internal/models"
)

func TestCreateBoard_WithWritersAndCameos(t *testing.T) {
	db := newTestDB(t)
	svc := NewBoardService(db)

	owner := createUser(t, db, "owner")
	writer := createUser(t, db, "writer")
	cameo := createUser(t, db, "cameo")

	board, err := svc.CreateBoard(owner.ID, BoardParams{
		Name:          "The Long Campaign",
		AuthorsLocked: true,
		WriterIDs:     []uuid.UUID{writer.ID},
		CameoIDs:      []uuid.UUID{cameo.ID},
	})
	require.NoError(t, err)

	var authors []models.BoardAuthor
	require.NoError(t, db.Where("board_id = ?", board.ID).Order("cameo ASC").Find(&authors).Error)
	require.Len(t, authors, 2)
	assert.False(t, authors[0].Cameo)
	assert.True(t, authors[1].Cameo)

	_, err = svc.CreateBoard(owner.ID, BoardParams{})
	assert.Error(t, err, "a board needs a name")
}

func TestUpdateBoard_CreatorOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewBoardService(db)

	owner := createUser(t, db, "owner")
	other := createUser(t, db, "other")
	board, err := svc.CreateBoard(owner.ID, BoardParams{Name: "before"})
	require.NoError(t, err)

	_, err = svc.UpdateBoard(other.ID, board.ID, BoardParams{Name: "after"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := svc.UpdateBoard(owner.ID, board.ID, BoardParams{Name: "after"})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Name)
}

func TestSections_CreateAndDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewBoardService(db)

	owner := createUser(t, db, "owner")
	board, err := svc.CreateBoard(owner.ID, BoardParams{Name: "board"})
	require.NoError(t, err)

	first, err := svc.CreateSection(owner.ID, board.ID, "act one")
	require.NoError(t, err)
	second, err := svc.CreateSection(owner.ID, board.ID, "act two")
	require.NoError(t, err)
	assert.Equal(t, 0, first.SectionOrder)
	assert.Equal(t, 1, second.SectionOrder)

	// Threads in a deleted section are detached, not deleted.
	thread := createThread(t, db, board.ID, owner.ID, models.PrivacyPublic)
	require.NoError(t, db.Model(thread).Update("section_id", first.ID).Error)

	require.NoError(t, svc.DeleteSection(owner.ID, first.ID))

	var stored models.Thread
	require.NoError(t, db.First(&stored, "id = ?", thread.ID).Error)
	assert.Nil(t, stored.SectionID)

	var remaining models.BoardSection
	require.NoError(t, db.First(&remaining, "id = ?", second.ID).Error)
	assert.Equal(t, 0, remaining.SectionOrder, "surviving sections renumber from zero")
}

func TestListBoards_Pagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewBoardService(db)

	owner := createUser(t, db, "owner")
	for i := 0; i < 3; i++ {
		_, err := svc.CreateBoard(owner.ID, BoardParams{Name: "board"})
		require.NoError(t, err)
	}

	boards, total, err := svc.ListBoards(2, 0)
	require.NoError(t, err)
	assert.Len(t, boards, 2)
	assert.EqualValues(t, 3, total)

	_, err = svc.GetBoard(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
