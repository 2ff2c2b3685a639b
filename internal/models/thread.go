package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Privacy is a thread's visibility tier.
type Privacy int16

const (
	PrivacyPublic     Privacy = iota // anyone, including anonymous
	PrivacyRegistered                // any logged-in user
	PrivacyAccessList                // explicit viewers and attached circles
	PrivacyPrivate                   // authors only
)

// Status is a thread's stored lifecycle state. Obligation checks work on the
// *effective* status, which may degrade ACTIVE to HIATUS on staleness without
// touching this column.
type Status string

const (
	StatusActive    Status = "active"
	StatusComplete  Status = "complete"
	StatusAbandoned Status = "abandoned"
	StatusHiatus    Status = "hiatus"
)

// Thread is a top-level writing submission ("post") that accepts replies.
// TaggedAt tracks the most recent activity (creation or latest reply) and is
// monotonically non-decreasing except when content is deleted.
type Thread struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"board_id"`
	SectionID     *uuid.UUID     `gorm:"type:uuid;index" json:"section_id,omitempty"`
	SectionOrder  int            `gorm:"not null;default:0" json:"section_order"`
	CreatorID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"creator_id"`
	Subject       string         `gorm:"size:255;not null" json:"subject"`
	Content       string         `gorm:"type:text" json:"content"`
	Privacy       Privacy        `gorm:"not null;default:0;index" json:"privacy"`
	AuthorsLocked bool           `gorm:"default:false" json:"authors_locked"`
	Status        Status         `gorm:"size:20;not null;default:'active'" json:"status"`
	TaggedAt      time.Time      `gorm:"not null;index" json:"tagged_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Board   Board `gorm:"foreignKey:BoardID" json:"-"`
	Creator User  `gorm:"foreignKey:CreatorID" json:"-"`
}

func (Thread) TableName() string {
	return "threads"
}

// ThreadViewer is one entry of an ACCESS_LIST thread's explicit allow-list.
type ThreadViewer struct {
	ThreadID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"thread_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ThreadViewer) TableName() string {
	return "thread_viewers"
}

// ThreadCircle attaches a reusable AccessCircle to an ACCESS_LIST thread.
type ThreadCircle struct {
	ThreadID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"thread_id"`
	CircleID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"circle_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ThreadCircle) TableName() string {
	return "thread_circles"
}

// Reply is one tag in a thread. Content editing is handled elsewhere; the
// engine only cares about ordering and authorship attribution.
type Reply struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"thread_id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Content   string         `gorm:"type:text" json:"content"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Reply) TableName() string {
	return "replies"
}
