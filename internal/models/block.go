package models

import (
	"time"

	"github.com/google/uuid"
)

// BlockLevel is how much of a user's content a block suppresses.
type BlockLevel int16

const (
	BlockNone  BlockLevel = iota // nothing hidden
	BlockPosts                   // authored threads and replies hidden
	BlockAll                     // posts plus presence in aggregate listings
)

// Block is a directional relationship between two users. HideThem controls
// what the blocker stops seeing of the blocked user; HideMe controls what the
// blocked user stops seeing of the blocker. BlockInteractions is whether the
// blocked user may still reply to the blocker's threads; false revokes
// replying independent of either hide level.
type Block struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BlockerID         uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_blocks_pair" json:"blocker_id"`
	BlockedID         uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_blocks_pair" json:"blocked_id"`
	HideThem          BlockLevel `gorm:"not null;default:0" json:"hide_them"`
	HideMe            BlockLevel `gorm:"not null;default:0" json:"hide_me"`
	BlockInteractions bool       `gorm:"not null" json:"block_interactions"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Blocker User `gorm:"foreignKey:BlockerID" json:"-"`
	Blocked User `gorm:"foreignKey:BlockedID" json:"-"`
}

func (Block) TableName() string {
	return "blocks"
}
