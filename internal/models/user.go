package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a writer account. Only identity and feed preferences live here;
// profile/gallery/icon data belongs to other services.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string         `gorm:"size:80;not null;uniqueIndex" json:"username"`
	Email        string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password     string         `gorm:"not null" json:"-"`
	Role         string         `gorm:"size:20;default:'user'" json:"role"`
	HideHiatused bool           `gorm:"default:false" json:"hide_hiatused"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
