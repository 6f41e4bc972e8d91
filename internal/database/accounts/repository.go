// Package accounts provides database operations for device-local user
// accounts.
package accounts

import (
	"errors"

	"gorm.io/gorm"

	"github.com/readscout/readscout/internal/entities"
)

// Repository handles all account database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new account repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account.
func (r *Repository) Create(account *entities.Account) error {
	return r.db.Create(account).Error
}

// GetByUsername returns the account for a username, or nil when unknown.
func (r *Repository) GetByUsername(username string) (*entities.Account, error) {
	var account entities.Account
	err := r.db.Where("username = ?", username).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUserID returns the account for a cloud user ID, or nil when unknown.
func (r *Repository) GetByUserID(userID string) (*entities.Account, error) {
	var account entities.Account
	err := r.db.Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
