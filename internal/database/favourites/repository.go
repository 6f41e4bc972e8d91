// Package favourites provides database operations for the durable favorites
// ledger.
//
// Ledger rows snapshot the book fields at favorite time so they survive cache
// eviction; the cached_books row is only flagged, never owned, by this
// package.
//
// # Usage
//
//	repo := favourites.NewRepository(db)
//	entries, err := repo.List()
package favourites

import (
	"errors"

	"gorm.io/gorm"

	"github.com/readscout/readscout/internal/entities"
)

// Repository handles all favorites ledger database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new favorites ledger repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the ledger entry for a book, or nil when the book is not
// favorited.
func (r *Repository) Get(bookID string) (*entities.FavoriteEntry, error) {
	var entry entities.FavoriteEntry
	err := r.db.Where("book_id = ?", bookID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns all ledger entries ordered by AddedAt descending (most
// recently favorited first).
func (r *Repository) List() ([]entities.FavoriteEntry, error) {
	var entries []entities.FavoriteEntry
	err := r.db.Order("added_at DESC").Find(&entries).Error
	return entries, err
}

// Add inserts a ledger entry, or replaces an existing one for the same book.
func (r *Repository) Add(entry *entities.FavoriteEntry) error {
	var existing entities.FavoriteEntry
	err := r.db.Where("book_id = ?", entry.BookID).First(&existing).Error
	if err == nil {
		entry.AddedAt = existing.AddedAt
		return r.db.Save(entry).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(entry).Error
	}
	return err
}

// Remove deletes the ledger entry for a book. Removing an absent entry is a
// no-op, not an error.
func (r *Repository) Remove(bookID string) error {
	return r.db.Where("book_id = ?", bookID).Delete(&entities.FavoriteEntry{}).Error
}

// Exists reports whether the book has a ledger entry.
func (r *Repository) Exists(bookID string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.FavoriteEntry{}).Where("book_id = ?", bookID).Count(&count).Error
	return count > 0, err
}

// UpdateRating sets the user's rating on a ledger entry. The value is
// persisted as given; range validation is a caller contract.
func (r *Repository) UpdateRating(bookID string, rating float64) error {
	return r.db.Model(&entities.FavoriteEntry{}).
		Where("book_id = ?", bookID).
		Update("user_rating", rating).Error
}

// UpdateReadingStatus sets the reading status. Transitions are unconditional;
// there is no state machine guarding the order of status changes.
func (r *Repository) UpdateReadingStatus(bookID string, status entities.ReadingStatus) error {
	return r.db.Model(&entities.FavoriteEntry{}).
		Where("book_id = ?", bookID).
		Update("reading_status", status).Error
}

// UpdateProgress sets the current and total page counters.
func (r *Repository) UpdateProgress(bookID string, currentPage, totalPages int) error {
	return r.db.Model(&entities.FavoriteEntry{}).
		Where("book_id = ?", bookID).
		Updates(map[string]any{
			"current_page": currentPage,
			"total_pages":  totalPages,
		}).Error
}

// Count returns the number of ledger entries.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.FavoriteEntry{}).Count(&count).Error
	return count, err
}
