package models

import (
	"time"

	"github.com/google/uuid"
)

// ThreadView is a user's read/ignore state for one thread. A nil LastReadAt
// means never read. Once a ThreadView exists it permanently takes precedence
// over the owning board's BoardView for that thread, even if the board is
// later marked read at a newer timestamp.
type ThreadView struct {
	UserID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	ThreadID   uuid.UUID  `gorm:"type:uuid;primaryKey;index" json:"thread_id"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
	Ignored    bool       `gorm:"not null;default:false" json:"ignored"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (ThreadView) TableName() string {
	return "thread_views"
}

// BoardView is a user's read/ignore state for a whole board. It only governs
// threads with no ThreadView of their own.
type BoardView struct {
	UserID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	BoardID    uuid.UUID  `gorm:"type:uuid;primaryKey;index" json:"board_id"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
	Ignored    bool       `gorm:"not null;default:false" json:"ignored"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (BoardView) TableName() string {
	return "board_views"
}
