package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Board is a continuity: a named collection of threads. An open board accepts
// threads from anyone; a locked board restricts authorship to its writers and
// cameos. Locking never restricts who can *view* a thread — that is the
// thread's own privacy setting.
type Board struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"creator_id"`
	Name          string         `gorm:"size:255;not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	AuthorsLocked bool           `gorm:"default:false" json:"authors_locked"`
	SiteTesting   bool           `gorm:"default:false" json:"site_testing"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Creator User `gorm:"foreignKey:CreatorID" json:"-"`
}

func (Board) TableName() string {
	return "boards"
}

// BoardAuthor records a writer or cameo on a locked board. Cameos are guest
// authors: they may post but are not listed as owners of the continuity.
type BoardAuthor struct {
	BoardID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"board_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	Cameo     bool      `gorm:"default:false" json:"cameo"`
	CreatedAt time.Time `json:"created_at"`
}

func (BoardAuthor) TableName() string {
	return "board_authors"
}

// BoardSection groups threads inside a board with a manual ordering.
type BoardSection struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID      uuid.UUID `gorm:"type:uuid;not null;index" json:"board_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	SectionOrder int       `gorm:"not null;default:0" json:"section_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (BoardSection) TableName() string {
	return "board_sections"
}
