package viewer

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkweave/inkweave-backend/internal/models"
)

// VisibleTo returns a GORM scope restricting a threads query to rows the
// viewer may see under the privacy ladder. Block-derived exclusions are a
// separate concern, applied on top by the feed queries. A nil viewer is an
// anonymous request and sees public threads only.
func VisibleTo(viewerID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == nil {
			return db.Where("threads.privacy = ?", models.PrivacyPublic)
		}
		id := *viewerID
		return db.Where(
			`threads.privacy IN (?, ?)
			OR threads.creator_id = ?
			OR EXISTS (SELECT 1 FROM thread_authors ta WHERE ta.thread_id = threads.id AND ta.user_id = ?)
			OR (threads.privacy = ? AND (
				EXISTS (SELECT 1 FROM thread_viewers tv WHERE tv.thread_id = threads.id AND tv.user_id = ?)
				OR EXISTS (SELECT 1 FROM thread_circles tc
					JOIN circle_members cm ON cm.circle_id = tc.circle_id
					WHERE tc.thread_id = threads.id AND cm.user_id = ?)))`,
			models.PrivacyPublic, models.PrivacyRegistered,
			id, id,
			models.PrivacyAccessList, id, id,
		)
	}
}

// ForBoard restricts a threads query to one board.
func ForBoard(boardID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("threads.board_id = ?", boardID)
	}
}

// WithReadState left-joins the viewer's thread- and board-level view rows so
// read/ignore predicates can run in SQL. The joined columns are aliased
// tv_* and bv_*.
func WithReadState(userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("LEFT JOIN thread_views tv ON tv.thread_id = threads.id AND tv.user_id = ?", userID).
			Joins("LEFT JOIN board_views bv ON bv.board_id = threads.board_id AND bv.user_id = ?", userID)
	}
}

// Unread keeps threads whose latest activity is past the viewer's effective
// read timestamp. Thread-level state, once a row exists, wins over board
// state even when the board was marked read later.
func Unread() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			`(tv.user_id IS NOT NULL AND (tv.last_read_at IS NULL OR threads.tagged_at > tv.last_read_at))
			OR (tv.user_id IS NULL AND (bv.last_read_at IS NULL OR threads.tagged_at > bv.last_read_at))`)
	}
}

// Opened keeps threads the viewer has a read record for, at either
// granularity.
func Opened() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tv.user_id IS NOT NULL OR bv.user_id IS NOT NULL")
	}
}

// NotIgnored drops threads ignored at either granularity.
func NotIgnored() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("COALESCE(tv.ignored, ?) = ? AND COALESCE(bv.ignored, ?) = ?",
			false, false, false, false)
	}
}

// ExcludingThreads drops the given thread ids (block-derived exclusions).
func ExcludingThreads(ids []uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(ids) == 0 {
			return db
		}
		return db.Where("threads.id NOT IN ?", ids)
	}
}
