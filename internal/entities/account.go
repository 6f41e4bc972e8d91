package entities

import (
	"time"

	"gorm.io/gorm"
)

// Account is a device-local user account linked to the cloud user ID that
// scopes the remote favorites collection.
type Account struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:100" json:"username"`
	UserID       string         `gorm:"uniqueIndex;size:64" json:"user_id"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}
