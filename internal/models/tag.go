package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagKind is the closed set of tag variants. Content warnings, settings,
// gallery groups and labels share storage but are distinct kinds; code that
// branches on kind should switch exhaustively over these constants.
type TagKind string

const (
	TagContentWarning TagKind = "content_warning"
	TagSetting        TagKind = "setting"
	TagGalleryGroup   TagKind = "gallery_group"
	TagLabel          TagKind = "label"
)

// Valid reports whether k is one of the known tag kinds.
func (k TagKind) Valid() bool {
	switch k {
	case TagContentWarning, TagSetting, TagGalleryGroup, TagLabel:
		return true
	}
	return false
}

type Tag struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Kind      TagKind        `gorm:"size:30;not null;index;uniqueIndex:idx_tags_kind_name" json:"kind"`
	Name      string         `gorm:"size:255;not null;uniqueIndex:idx_tags_kind_name" json:"name"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Tag) TableName() string {
	return "tags"
}

// ThreadTag applies a tag to a thread.
type ThreadTag struct {
	ThreadID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"thread_id"`
	TagID     uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ThreadTag) TableName() string {
	return "thread_tags"
}
