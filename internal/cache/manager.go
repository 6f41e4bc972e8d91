// Package cache translates fetched book batches into cached rows with TTL
// bookkeeping, and serves reads through the cache with an offline fallback.
package cache

import (
	"time"

	"github.com/readscout/readscout/internal/booksearch"
	"github.com/readscout/readscout/internal/database/books"
	"github.com/readscout/readscout/internal/entities"
)

// DefaultTTL is the freshness window applied to cached rows.
const DefaultTTL = time.Hour

// Manager governs cache upserts and freshness.
type Manager struct {
	books *books.Repository
	ttl   time.Duration
}

// NewManager creates a cache manager over the shared book repository.
// ttl <= 0 selects DefaultTTL.
func NewManager(repo *books.Repository, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{books: repo, ttl: ttl}
}

// TTL returns the configured freshness window.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Cache upserts a fetched batch under the given category. New rows get a
// fresh TTL window; existing rows have their source-derived fields and
// category overwritten and their window refreshed, while the favorite flag
// and user rating are preserved. Re-caching the same batch is idempotent
// aside from refreshed timestamps.
func (m *Manager) Cache(incoming []booksearch.ExternalBook, category string) error {
	now := time.Now()
	records := make([]entities.CachedBook, 0, len(incoming))
	for _, book := range incoming {
		if book.ID == "" {
			continue
		}
		records = append(records, entities.CachedBook{
			ID:            book.ID,
			Title:         book.Title,
			Author:        book.Author(),
			Subtitle:      book.Subtitle,
			Description:   book.Description,
			CoverURL:      book.CoverURL,
			PublishedDate: book.PublishedDate,
			Category:      category,
			Rating:        book.Rating,
			CachedAt:      now,
			ExpiresAt:     now.Add(m.ttl),
		})
	}
	return m.books.UpsertBatch(records)
}

// FreshForCategory returns only the unexpired cached rows for a category.
// Callers use an empty result as the signal to refetch.
func (m *Manager) FreshForCategory(category string) ([]entities.CachedBook, error) {
	return m.books.GetByCategory(category, false)
}

// BooksForCategory returns the fresh cached rows for a category, falling
// back to expired rows when nothing fresh is cached (offline fallback).
func (m *Manager) BooksForCategory(category string) ([]entities.CachedBook, error) {
	fresh, err := m.books.GetByCategory(category, false)
	if err != nil {
		return nil, err
	}
	if len(fresh) > 0 {
		return fresh, nil
	}
	return m.books.GetByCategory(category, true)
}

// GetBook returns a cached book by ID, or nil when not cached.
func (m *Manager) GetBook(id string) (*entities.CachedBook, error) {
	return m.books.GetByID(id)
}

// Search matches cached rows by substring against title, author and
// description.
func (m *Manager) Search(query string, limit int) ([]entities.CachedBook, error) {
	return m.books.Search(query, limit)
}

// Purge deletes expired non-favorite rows and returns the count. Favorited
// rows are exempt regardless of their freshness window.
func (m *Manager) Purge() (int64, error) {
	return m.books.DeleteExpiredNonFavorites()
}
