package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FavoriteKind discriminates what a favorite points at.
type FavoriteKind string

const (
	FavoriteBoard  FavoriteKind = "board"
	FavoriteThread FavoriteKind = "thread"
	FavoriteUser   FavoriteKind = "user"
)

// FavoriteTarget is the board-or-thread-or-user a favorite points at.
// Construct with one of the *Target helpers so the kind/id pair stays valid.
type FavoriteTarget struct {
	Kind FavoriteKind
	ID   uuid.UUID
}

func BoardTarget(id uuid.UUID) FavoriteTarget {
	return FavoriteTarget{Kind: FavoriteBoard, ID: id}
}

func ThreadTarget(id uuid.UUID) FavoriteTarget {
	return FavoriteTarget{Kind: FavoriteThread, ID: id}
}

func UserTarget(id uuid.UUID) FavoriteTarget {
	return FavoriteTarget{Kind: FavoriteUser, ID: id}
}

// Validate rejects targets built outside the constructors.
func (t FavoriteTarget) Validate() error {
	switch t.Kind {
	case FavoriteBoard, FavoriteThread, FavoriteUser:
	default:
		return fmt.Errorf("unknown favorite kind %q", t.Kind)
	}
	if t.ID == uuid.Nil {
		return fmt.Errorf("favorite target id is required")
	}
	return nil
}

// Favorite bookmarks a board, thread, or user for its owner.
type Favorite struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_favorites_target" json:"user_id"`
	TargetKind FavoriteKind `gorm:"size:20;not null;uniqueIndex:idx_favorites_target" json:"target_kind"`
	TargetID   uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_favorites_target" json:"target_id"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// Target returns the favorite's target as the sum type.
func (f Favorite) Target() FavoriteTarget {
	return FavoriteTarget{Kind: f.TargetKind, ID: f.TargetID}
}
