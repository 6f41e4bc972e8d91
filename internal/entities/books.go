package entities

import (
	"time"
)

// ReadingStatus tracks how far a user has gotten with a favorited book.
type ReadingStatus string

const (
	ReadingStatusUnstarted ReadingStatus = "unstarted"
	ReadingStatusReading   ReadingStatus = "reading"
	ReadingStatusFinished  ReadingStatus = "finished"
)

// ValidReadingStatus reports whether s is one of the known status values.
func ValidReadingStatus(s ReadingStatus) bool {
	switch s {
	case ReadingStatusUnstarted, ReadingStatusReading, ReadingStatusFinished:
		return true
	}
	return false
}

// CachedBook is a locally cached book record fetched from the remote search
// API. Rows are keyed by the stable external book ID and carry a freshness
// window; non-favorite rows past ExpiresAt are purged by the reaper.
type CachedBook struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Title         string    `gorm:"index;size:512" json:"title"`
	Author        string    `gorm:"index;size:256" json:"author"`
	Subtitle      string    `gorm:"size:512" json:"subtitle,omitempty"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	CoverURL      string    `gorm:"size:2048" json:"cover_url,omitempty"`
	PublishedDate string    `gorm:"size:32" json:"published_date,omitempty"`
	Category      string    `gorm:"index;size:100" json:"category"`
	Rating        float64   `json:"rating"`
	UserRating    *float64  `json:"user_rating,omitempty"`
	IsFavorite    bool      `gorm:"index;default:false" json:"is_favorite"`
	CachedAt      time.Time `json:"cached_at"`
	ExpiresAt     time.Time `gorm:"index" json:"expires_at"`
}

func (CachedBook) TableName() string {
	return "cached_books"
}

// Expired reports whether the cache row's freshness window has passed.
// Favorite rows may be expired and still present; they are exempt from
// reaper eviction.
func (b *CachedBook) Expired(now time.Time) bool {
	return now.After(b.ExpiresAt)
}

// FavoriteEntry is the durable favorites ledger row. It duplicates the book
// fields from the cache so a favorite survives cache eviction.
type FavoriteEntry struct {
	BookID        string        `gorm:"primaryKey;size:64" json:"book_id"`
	Title         string        `gorm:"size:512" json:"title"`
	Author        string        `gorm:"size:256" json:"author"`
	Subtitle      string        `gorm:"size:512" json:"subtitle,omitempty"`
	Description   string        `gorm:"type:text" json:"description,omitempty"`
	CoverURL      string        `gorm:"size:2048" json:"cover_url,omitempty"`
	PublishedDate string        `gorm:"size:32" json:"published_date,omitempty"`
	Rating        float64       `json:"rating"`
	UserRating    *float64      `json:"user_rating,omitempty"`
	AddedAt       time.Time     `gorm:"index" json:"added_at"`
	ReadingStatus ReadingStatus `gorm:"size:20;default:'unstarted'" json:"reading_status"`
	CurrentPage   int           `json:"current_page"`
	TotalPages    int           `json:"total_pages"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (FavoriteEntry) TableName() string {
	return "favorite_entries"
}

// ProgressFraction returns reading progress in [0,1].
func (f *FavoriteEntry) ProgressFraction() float64 {
	if f.TotalPages <= 0 {
		return 0
	}
	fraction := float64(f.CurrentPage) / float64(f.TotalPages)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}

// NewFavoriteEntry snapshots a cached book into a ledger row.
func NewFavoriteEntry(book CachedBook, now time.Time) FavoriteEntry {
	return FavoriteEntry{
		BookID:        book.ID,
		Title:         book.Title,
		Author:        book.Author,
		Subtitle:      book.Subtitle,
		Description:   book.Description,
		CoverURL:      book.CoverURL,
		PublishedDate: book.PublishedDate,
		Rating:        book.Rating,
		UserRating:    book.UserRating,
		AddedAt:       now,
		ReadingStatus: ReadingStatusUnstarted,
	}
}
