package models

import (
	"time"

	"github.com/google/uuid"
)

// ThreadAuthor is the per-user participation record on a thread. Joined=false
// is an invitation not yet accepted by posting. JoinedAt is set exactly once,
// on the user's first reply, and never changes afterward. CanOwe controls
// whether the thread counts against the user's reply-obligation total.
type ThreadAuthor struct {
	UserID    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	ThreadID  uuid.UUID  `gorm:"type:uuid;primaryKey;index" json:"thread_id"`
	Joined    bool       `gorm:"not null;default:false" json:"joined"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
	CanOwe    bool       `gorm:"not null;default:true" json:"can_owe"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (ThreadAuthor) TableName() string {
	return "thread_authors"
}
