package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/cache"
	"github.com/inkweave/inkweave-backend/internal/models"
)

var (
	ErrSelfBlock      = errors.New("cannot block yourself")
	ErrAlreadyBlocked = errors.New("user already blocked")
)

// Invalidation names a user whose cached derived sets must be dropped.
// Mutations collect these inside their transaction and the index applies
// them only after commit, so a concurrent reader can never repopulate the
// cache from pre-commit state and have it stick past the commit.
type Invalidation struct {
	UserID uuid.UUID
}

// BlockIndex maintains, per user, the derived sets of thread and user ids
// suppressed by block relationships. The sets are disposable projections:
// always recomputable from the blocks table, cached best-effort behind the
// cache port. A failing cache degrades to recompute, never to hiding
// everything.
type BlockIndex struct {
	db    *gorm.DB
	cache cache.Cache
}

func NewBlockIndex(db *gorm.DB, c cache.Cache) *BlockIndex {
	return &BlockIndex{db: db, cache: c}
}

func hiddenThreadsKey(userID uuid.UUID) string {
	return "blocks:hidden-threads:" + userID.String()
}

func excludedThreadsKey(userID uuid.UUID) string {
	return "blocks:excluded-threads:" + userID.String()
}

func hiddenUsersKey(userID uuid.UUID) string {
	return "blocks:hidden-users:" + userID.String()
}

func excludingUsersKey(userID uuid.UUID) string {
	return "blocks:excluding-users:" + userID.String()
}

// HiddenThreadIDsFor returns the threads the user should not see because of
// blocks they initiated at POSTS strength or above. A thread is removed only
// when every author of it is blocked; a co-written thread with one
// non-blocked author stays visible.
func (b *BlockIndex) HiddenThreadIDsFor(userID uuid.UUID) ([]uuid.UUID, error) {
	return b.cachedIDs(hiddenThreadsKey(userID), func() ([]uuid.UUID, error) {
		blocked, err := b.counterpartIDs("blocker_id", "blocked_id", userID, "hide_them")
		if err != nil {
			return nil, err
		}
		return b.fullyAuthoredBy(blocked)
	})
}

// ExcludedAsAuthorFor returns the threads whose authors have blocked this
// user from seeing their content (hide_me at POSTS strength or above).
func (b *BlockIndex) ExcludedAsAuthorFor(userID uuid.UUID) ([]uuid.UUID, error) {
	return b.cachedIDs(excludedThreadsKey(userID), func() ([]uuid.UUID, error) {
		blockers, err := b.counterpartIDs("blocked_id", "blocker_id", userID, "hide_me")
		if err != nil {
			return nil, err
		}
		return b.fullyAuthoredBy(blockers)
	})
}

// HiddenUserIDsFor returns users the viewer has blocked at ALL strength,
// removed from aggregate listings such as "who's active".
func (b *BlockIndex) HiddenUserIDsFor(userID uuid.UUID) ([]uuid.UUID, error) {
	return b.cachedIDs(hiddenUsersKey(userID), func() ([]uuid.UUID, error) {
		var ids []uuid.UUID
		err := b.db.Model(&models.Block{}).
			Where("blocker_id = ? AND hide_them = ?", userID, models.BlockAll).
			Pluck("blocked_id", &ids).Error
		return ids, err
	})
}

// ExcludingUserIDsFor returns users who have blocked the viewer at ALL
// strength; the viewer must not see them in aggregate listings either.
func (b *BlockIndex) ExcludingUserIDsFor(userID uuid.UUID) ([]uuid.UUID, error) {
	return b.cachedIDs(excludingUsersKey(userID), func() ([]uuid.UUID, error) {
		var ids []uuid.UUID
		err := b.db.Model(&models.Block{}).
			Where("blocked_id = ? AND hide_me = ?", userID, models.BlockAll).
			Pluck("blocker_id", &ids).Error
		return ids, err
	})
}

// counterpartIDs plucks the other party of blocks where userID fills the
// given column and the level column is POSTS or above.
func (b *BlockIndex) counterpartIDs(ownCol, otherCol string, userID uuid.UUID, levelCol string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := b.db.Model(&models.Block{}).
		Where(ownCol+" = ? AND "+levelCol+" >= ?", userID, models.BlockPosts).
		Pluck(otherCol, &ids).Error
	return ids, err
}

// fullyAuthoredBy returns threads whose creator and every joined author fall
// inside the suppressed set.
func (b *BlockIndex) fullyAuthoredBy(suppressed []uuid.UUID) ([]uuid.UUID, error) {
	if len(suppressed) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := b.db.Model(&models.Thread{}).
		Where("threads.creator_id IN ?", suppressed).
		Where(`NOT EXISTS (SELECT 1 FROM thread_authors ta
			WHERE ta.thread_id = threads.id AND ta.joined = ? AND ta.user_id NOT IN ?)`,
			true, suppressed).
		Pluck("threads.id", &ids).Error
	return ids, err
}

// cachedIDs serves the id set from cache when possible, recomputing from the
// relational rows on miss or backend failure.
func (b *BlockIndex) cachedIDs(key string, compute func() ([]uuid.UUID, error)) ([]uuid.UUID, error) {
	if b.cache != nil {
		raw, ok, err := b.cache.Get(key)
		if err != nil {
			slog.Warn("block index cache read failed", "key", key, "error", err)
		} else if ok {
			var ids []uuid.UUID
			if err := json.Unmarshal(raw, &ids); err == nil {
				return ids, nil
			}
			slog.Warn("block index cache entry corrupt", "key", key)
		}
	}

	ids, err := compute()
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		if raw, err := json.Marshal(ids); err == nil {
			if err := b.cache.Set(key, raw); err != nil {
				slog.Warn("block index cache write failed", "key", key, "error", err)
			}
		}
	}
	return ids, nil
}

// Invalidate drops every derived set of each named user. Call only after
// the triggering transaction has committed.
func (b *BlockIndex) Invalidate(invs []Invalidation) {
	if b.cache == nil {
		return
	}
	for _, inv := range invs {
		for _, key := range []string{
			hiddenThreadsKey(inv.UserID),
			excludedThreadsKey(inv.UserID),
			hiddenUsersKey(inv.UserID),
			excludingUsersKey(inv.UserID),
		} {
			if err := b.cache.Delete(key); err != nil {
				slog.Warn("block index invalidation failed", "key", key, "error", err)
			}
		}
	}
}

// CreateBlock records a new block and invalidates both parties' derived
// sets after the row is committed.
func (b *BlockIndex) CreateBlock(blockerID, blockedID uuid.UUID, hideThem, hideMe models.BlockLevel, blockInteractions bool) (*models.Block, error) {
	if blockerID == blockedID {
		return nil, ErrSelfBlock
	}

	var existing models.Block
	if err := b.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).First(&existing).Error; err == nil {
		return nil, ErrAlreadyBlocked
	}

	block := models.Block{
		ID:                uuid.New(),
		BlockerID:         blockerID,
		BlockedID:         blockedID,
		HideThem:          hideThem,
		HideMe:            hideMe,
		BlockInteractions: blockInteractions,
	}
	if err := b.db.Create(&block).Error; err != nil {
		return nil, fmt.Errorf("failed to create block: %w", err)
	}

	b.Invalidate([]Invalidation{{UserID: blockerID}, {UserID: blockedID}})
	return &block, nil
}

// UpdateBlock changes the levels of an existing block owned by actorID.
func (b *BlockIndex) UpdateBlock(actorID, blockID uuid.UUID, hideThem, hideMe models.BlockLevel, blockInteractions bool) (*models.Block, error) {
	var block models.Block
	if err := b.db.First(&block, "id = ?", blockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if block.BlockerID != actorID {
		return nil, ErrPermissionDenied
	}

	err := b.db.Model(&block).Updates(map[string]interface{}{
		"hide_them":          hideThem,
		"hide_me":            hideMe,
		"block_interactions": blockInteractions,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update block: %w", err)
	}

	b.Invalidate([]Invalidation{{UserID: block.BlockerID}, {UserID: block.BlockedID}})
	return &block, nil
}

// DeleteBlock removes a block owned by actorID.
func (b *BlockIndex) DeleteBlock(actorID, blockID uuid.UUID) error {
	var block models.Block
	if err := b.db.First(&block, "id = ?", blockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if block.BlockerID != actorID {
		return ErrPermissionDenied
	}

	if err := b.db.Delete(&block).Error; err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}

	b.Invalidate([]Invalidation{{UserID: block.BlockerID}, {UserID: block.BlockedID}})
	return nil
}

// ListBlocks returns the blocks the user has placed.
func (b *BlockIndex) ListBlocks(userID uuid.UUID) ([]models.Block, error) {
	var blocks []models.Block
	err := b.db.Where("blocker_id = ?", userID).Order("created_at DESC").Find(&blocks).Error
	return blocks, err
}

// RepliesBlocked reports whether any author of the thread has revoked the
// given user's ability to reply (a block with block_interactions = false).
// Enforced at reply creation; it is independent of visibility.
func (b *BlockIndex) RepliesBlocked(thread *models.Thread, userID uuid.UUID) (bool, error) {
	var count int64
	err := b.db.Model(&models.Block{}).
		Where("blocked_id = ? AND block_interactions = ?", userID, false).
		Where(`blocker_id = ? OR blocker_id IN (
			SELECT ta.user_id FROM thread_authors ta WHERE ta.thread_id = ?)`,
			thread.CreatorID, thread.ID).
		Count(&count).Error
	return count > 0, err
}
