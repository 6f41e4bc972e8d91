// Package ledger mediates all favorite-state transitions. Every mutation is
// applied to local storage first and succeeds or fails on storage alone;
// cloud mirroring happens through a detached best-effort hook whose outcome
// never surfaces in the local result.
package ledger

import (
	"fmt"
	"log"
	"time"

	"github.com/readscout/readscout/internal/database/books"
	"github.com/readscout/readscout/internal/database/favourites"
	"github.com/readscout/readscout/internal/entities"
	"github.com/readscout/readscout/internal/watch"
)

// Mirror enqueues best-effort remote mirroring of ledger mutations. Enqueue
// failures are logged by the implementation, never returned to the caller.
type Mirror interface {
	EnqueuePush(entry entities.FavoriteEntry)
	EnqueueRemove(bookID string)
}

// StatsRecorder is notified when a favorite transitions to finished. Wired by
// the app shell; may be nil.
type StatsRecorder interface {
	BookFinished(entry entities.FavoriteEntry)
}

// Service presents the favorite-centric view over the shared store.
type Service struct {
	books      *books.Repository
	favourites *favourites.Repository
	entryWatch *watch.Watcher[[]entities.FavoriteEntry]
	bookWatch  *watch.Watcher[[]entities.CachedBook]
	mirror     Mirror
	stats      StatsRecorder
	ttl        time.Duration
}

// NewService creates the ledger service. mirror and stats may be nil.
func NewService(bookRepo *books.Repository, favRepo *favourites.Repository, mirror Mirror, stats StatsRecorder, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		books:      bookRepo,
		favourites: favRepo,
		entryWatch: watch.NewWatcher[[]entities.FavoriteEntry](),
		bookWatch:  watch.NewWatcher[[]entities.CachedBook](),
		mirror:     mirror,
		stats:      stats,
		ttl:        ttl,
	}
}

// AddFavorite marks a book as favorited. When the book has fallen out of the
// cache the row is recreated from the given snapshot, already flagged, so it
// is never reaper-eligible in between.
func (s *Service) AddFavorite(book entities.CachedBook) error {
	now := time.Now()

	existing, err := s.books.GetByID(book.ID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	if existing == nil {
		book.IsFavorite = true
		book.CachedAt = now
		book.ExpiresAt = now.Add(s.ttl)
		if err := s.books.Create(&book); err != nil {
			return fmt.Errorf("add favorite: %w", err)
		}
		existing = &book
	} else {
		if err := s.books.SetFavorite(book.ID, true); err != nil {
			return fmt.Errorf("add favorite: %w", err)
		}
		existing.IsFavorite = true
	}

	entry := entities.NewFavoriteEntry(*existing, now)
	if err := s.favourites.Add(&entry); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}

	s.notify()
	s.mirrorPush(book.ID)
	return nil
}

// RemoveFavorite clears the favorite flag and deletes the ledger entry. The
// cache row stays behind and is left to ordinary TTL eviction.
func (s *Service) RemoveFavorite(bookID string) error {
	if err := s.books.SetFavorite(bookID, false); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if err := s.favourites.Remove(bookID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	s.notify()
	if s.mirror != nil {
		s.mirror.EnqueueRemove(bookID)
	}
	return nil
}

// UpdateRating sets the user's rating on both the ledger entry and the cache
// row so the change is visible through either view. The value is persisted
// as given; the UI owns range validation.
func (s *Service) UpdateRating(bookID string, rating float64) error {
	if err := s.favourites.UpdateRating(bookID, rating); err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	if err := s.books.SetUserRating(bookID, rating); err != nil {
		return fmt.Errorf("update rating: %w", err)
	}

	s.notify()
	s.mirrorPush(bookID)
	return nil
}

// UpdateReadingStatus transitions the reading status unconditionally. A
// transition to finished notifies the stats recorder.
func (s *Service) UpdateReadingStatus(bookID string, status entities.ReadingStatus) error {
	if !entities.ValidReadingStatus(status) {
		return fmt.Errorf("update reading status: unknown status %q", status)
	}
	if err := s.favourites.UpdateReadingStatus(bookID, status); err != nil {
		return fmt.Errorf("update reading status: %w", err)
	}

	if status == entities.ReadingStatusFinished && s.stats != nil {
		if entry, err := s.favourites.Get(bookID); err == nil && entry != nil {
			s.stats.BookFinished(*entry)
		}
	}

	s.notify()
	s.mirrorPush(bookID)
	return nil
}

// UpdateProgress sets the page counters on a ledger entry.
func (s *Service) UpdateProgress(bookID string, currentPage, totalPages int) error {
	if err := s.favourites.UpdateProgress(bookID, currentPage, totalPages); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}

	s.notify()
	s.mirrorPush(bookID)
	return nil
}

// RestoreFavorite re-creates a ledger entry from a remote record during an
// explicit restore. The cache row is written flagged and with a fresh TTL
// window; the mirror is deliberately not notified, a restore must not echo
// back to the cloud.
func (s *Service) RestoreFavorite(entry entities.FavoriteEntry) error {
	now := time.Now()

	existing, err := s.books.GetByID(entry.BookID)
	if err != nil {
		return fmt.Errorf("restore favorite: %w", err)
	}
	if existing == nil {
		row := entities.CachedBook{
			ID:            entry.BookID,
			Title:         entry.Title,
			Author:        entry.Author,
			Subtitle:      entry.Subtitle,
			Description:   entry.Description,
			CoverURL:      entry.CoverURL,
			PublishedDate: entry.PublishedDate,
			Rating:        entry.Rating,
			UserRating:    entry.UserRating,
			IsFavorite:    true,
			CachedAt:      now,
			ExpiresAt:     now.Add(s.ttl),
		}
		if err := s.books.Create(&row); err != nil {
			return fmt.Errorf("restore favorite: %w", err)
		}
	} else if err := s.books.SetFavorite(entry.BookID, true); err != nil {
		return fmt.Errorf("restore favorite: %w", err)
	}

	if err := s.favourites.Add(&entry); err != nil {
		return fmt.Errorf("restore favorite: %w", err)
	}

	s.notify()
	return nil
}

// IsFavorite reports whether the book has a ledger entry.
func (s *Service) IsFavorite(bookID string) (bool, error) {
	return s.favourites.Exists(bookID)
}

// ListFavorites returns the ledger ordered by AddedAt descending.
func (s *Service) ListFavorites() ([]entities.FavoriteEntry, error) {
	return s.favourites.List()
}

// GetFavorite returns a single ledger entry, or nil when not favorited.
func (s *Service) GetFavorite(bookID string) (*entities.FavoriteEntry, error) {
	return s.favourites.Get(bookID)
}

// ObserveFavorites subscribes to the ledger. The subscriber receives the
// current list immediately and a fresh list after every favorite mutation;
// cancel detaches cleanly.
func (s *Service) ObserveFavorites() (<-chan []entities.FavoriteEntry, func()) {
	initial, err := s.favourites.List()
	if err != nil {
		log.Printf("Favorites ledger: initial observe list failed: %v", err)
		initial = nil
	}
	return s.entryWatch.Subscribe(initial)
}

// ObserveFavoriteBooks subscribes to the favorite subset of the cache, for
// callers that want CachedBook rows rather than ledger entries.
func (s *Service) ObserveFavoriteBooks() (<-chan []entities.CachedBook, func()) {
	initial, err := s.books.ListFavorites()
	if err != nil {
		log.Printf("Favorites ledger: initial book observe list failed: %v", err)
		initial = nil
	}
	return s.bookWatch.Subscribe(initial)
}

// notify re-emits both favorite views to their subscribers.
func (s *Service) notify() {
	entries, err := s.favourites.List()
	if err != nil {
		log.Printf("Favorites ledger: listing entries for notification failed: %v", err)
	} else {
		s.entryWatch.Publish(entries)
	}

	favoriteBooks, err := s.books.ListFavorites()
	if err != nil {
		log.Printf("Favorites ledger: listing favorite books for notification failed: %v", err)
		return
	}
	s.bookWatch.Publish(favoriteBooks)
}

// mirrorPush hands the current entry snapshot to the mirror. Missing entries
// and enqueue problems are the mirror's concern, not the caller's.
func (s *Service) mirrorPush(bookID string) {
	if s.mirror == nil {
		return
	}
	entry, err := s.favourites.Get(bookID)
	if err != nil {
		log.Printf("Favorites ledger: loading entry %s for mirror push failed: %v", bookID, err)
		return
	}
	if entry == nil {
		return
	}
	s.mirror.EnqueuePush(*entry)
}
