package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inkweave/inkweave-backend/internal/database"
	"github.com/inkweave/inkweave-backend/internal/models"
)

// newTestDB opens a fresh in-memory database migrated with the production
// model list. Each test gets its own named memory database so parallel tests
// never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createBoard(t *testing.T, db *gorm.DB, creatorID uuid.UUID) *models.Board {
	t.Helper()

	board := models.Board{
		ID:        uuid.New(),
		CreatorID: creatorID,
		Name:      "board-" + uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(&board).Error)
	return &board
}

// createThread inserts a thread plus the creator's joined author row, the
// shape CreateThread leaves behind.
func createThread(t *testing.T, db *gorm.DB, boardID, creatorID uuid.UUID, privacy models.Privacy) *models.Thread {
	t.Helper()

	now := time.Now()
	thread := models.Thread{
		ID:        uuid.New(),
		BoardID:   boardID,
		CreatorID: creatorID,
		Subject:   "subject",
		Content:   "content",
		Privacy:   privacy,
		Status:    models.StatusActive,
		TaggedAt:  now,
	}
	require.NoError(t, db.Create(&thread).Error)

	author := models.ThreadAuthor{
		UserID:   creatorID,
		ThreadID: thread.ID,
		Joined:   true,
		JoinedAt: &now,
		CanOwe:   true,
	}
	require.NoError(t, db.Create(&author).Error)
	return &thread
}

// joinAuthor adds a joined co-author row directly.
func joinAuthor(t *testing.T, db *gorm.DB, threadID, userID uuid.UUID) {
	t.Helper()

	now := time.Now()
	author := models.ThreadAuthor{
		UserID:   userID,
		ThreadID: threadID,
		Joined:   true,
		JoinedAt: &now,
		CanOwe:   true,
	}
	require.NoError(t, db.Create(&author).Error)
}

// createReply inserts a reply at the given time and moves the thread's
// tagged_at forward when the reply is newer.
func createReply(t *testing.T, db *gorm.DB, threadID, userID uuid.UUID, at time.Time) *models.Reply {
	t.Helper()

	reply := models.Reply{
		ID:        uuid.New(),
		ThreadID:  threadID,
		UserID:    userID,
		Content:   "reply",
		CreatedAt: at,
	}
	require.NoError(t, db.Create(&reply).Error)
	require.NoError(t, db.Model(&models.Thread{}).
		Where("id = ? AND tagged_at < ?", threadID, at).
		Update("tagged_at", at).Error)
	return &reply
}
