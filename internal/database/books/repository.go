// Package books provides database operations for the cached book store.
//
// Rows are keyed by the stable external book ID. Mutating operations run in a
// single GORM write scope; reads are best-effort and callers should treat an
// error as an empty cache rather than a fatal condition.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID("b1")
package books

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/readscout/readscout/internal/entities"
)

// Repository handles all cached book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new cached book repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID returns the cached book with the given ID, or nil when the book is
// not cached. Absence is not an error.
func (r *Repository) GetByID(id string) (*entities.CachedBook, error) {
	var book entities.CachedBook
	err := r.db.Where("id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByCategory returns cached books last fetched under the given category.
// With includeExpired=false only rows still inside their freshness window are
// returned; includeExpired=true returns every row and is used as the offline
// fallback.
func (r *Repository) GetByCategory(category string, includeExpired bool) ([]entities.CachedBook, error) {
	var result []entities.CachedBook
	query := r.db.Where("category = ?", category)
	if !includeExpired {
		query = query.Where("expires_at > ?", time.Now())
	}
	err := query.Order("title ASC").Find(&result).Error
	return result, err
}

// Search performs a case-insensitive substring match against title, author
// and description. Result order carries no relevance guarantee.
func (r *Repository) Search(query string, limit int) ([]entities.CachedBook, error) {
	var result []entities.CachedBook
	pattern := "%" + query + "%"
	q := r.db.Where(
		"LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)",
		pattern, pattern, pattern,
	)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&result).Error
	return result, err
}

// ListFavorites returns all cached books currently flagged as favorites.
func (r *Repository) ListFavorites() ([]entities.CachedBook, error) {
	var result []entities.CachedBook
	err := r.db.Where("is_favorite = ?", true).Order("title ASC").Find(&result).Error
	return result, err
}

// UpsertBatch inserts or updates the given records inside one transaction.
// On update all source-derived fields (including category) are overwritten
// and the freshness window is refreshed, but is_favorite and user_rating are
// preserved from the existing row. Re-applying the same batch is idempotent
// aside from refreshed timestamps.
func (r *Repository) UpsertBatch(records []entities.CachedBook) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range records {
			record := records[i]
			var existing entities.CachedBook
			err := tx.Where("id = ?", record.ID).First(&existing).Error
			switch {
			case err == nil:
				record.IsFavorite = existing.IsFavorite
				record.UserRating = existing.UserRating
				if err := tx.Save(&record).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&record).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}
		return nil
	})
}

// SetFavorite updates the favorite flag of a cached book. Updating an absent
// ID is a no-op, not an error.
func (r *Repository) SetFavorite(id string, isFavorite bool) error {
	return r.db.Model(&entities.CachedBook{}).
		Where("id = ?", id).
		Update("is_favorite", isFavorite).Error
}

// SetUserRating updates the user's personal rating of a cached book. The
// store does not clamp the value; range validation is a caller contract.
// Updating an absent ID is a no-op, not an error.
func (r *Repository) SetUserRating(id string, rating float64) error {
	return r.db.Model(&entities.CachedBook{}).
		Where("id = ?", id).
		Update("user_rating", rating).Error
}

// Create inserts a single cached book row. Used when favoriting a book that
// is no longer cached.
func (r *Repository) Create(book *entities.CachedBook) error {
	return r.db.Create(book).Error
}

// DeleteExpiredNonFavorites removes all rows whose freshness window has
// passed and that are not favorited. Favorite rows are never touched by this
// path. Returns the number of deleted rows.
func (r *Repository) DeleteExpiredNonFavorites() (int64, error) {
	result := r.db.
		Where("expires_at < ? AND is_favorite = ?", time.Now(), false).
		Delete(&entities.CachedBook{})
	return result.RowsAffected, result.Error
}

// CountExpiredNonFavorites returns how many rows the next eviction pass
// would remove.
func (r *Repository) CountExpiredNonFavorites() (int64, error) {
	var count int64
	err := r.db.Model(&entities.CachedBook{}).
		Where("expires_at < ? AND is_favorite = ?", time.Now(), false).
		Count(&count).Error
	return count, err
}

// Count returns the total number of cached rows, for observability.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.CachedBook{}).Count(&count).Error
	return count, err
}
