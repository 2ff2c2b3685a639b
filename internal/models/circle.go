package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessCircle is a reusable, owner-scoped named group of users, attachable
// to ACCESS_LIST threads as an allow-list. Only its owner may mutate it.
type AccessCircle struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (AccessCircle) TableName() string {
	return "access_circles"
}

// CircleMember is one member of an AccessCircle.
type CircleMember struct {
	CircleID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"circle_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (CircleMember) TableName() string {
	return "circle_members"
}
