package cloud

import (
	"fmt"
	"time"

	"github.com/readscout/readscout/internal/entities"
)

// FavoriteRecord is the remote mirror of a ledger entry, keyed by bookId
// within the signed-in user's collection. Timestamps travel as epoch millis;
// lastUpdated is the tiebreak for merge decisions during bulk reconciliation.
type FavoriteRecord struct {
	BookID         string   `bson:"bookId" json:"bookId"`
	Title          string   `bson:"title" json:"title"`
	Author         string   `bson:"author" json:"author"`
	Subtitle       string   `bson:"subtitle,omitempty" json:"subtitle,omitempty"`
	CoverImageURL  string   `bson:"coverImageUrl,omitempty" json:"coverImageUrl,omitempty"`
	Description    string   `bson:"description,omitempty" json:"description,omitempty"`
	Rating         float64  `bson:"rating" json:"rating"`
	PublishedDate  string   `bson:"publishedDate,omitempty" json:"publishedDate,omitempty"`
	ReadingStatus  string   `bson:"readingStatus" json:"readingStatus"`
	UserRating     *float64 `bson:"userRating,omitempty" json:"userRating,omitempty"`
	CurrentPage    int      `bson:"currentPage" json:"currentPage"`
	TotalPages     int      `bson:"totalPages" json:"totalPages"`
	AddedTimestamp int64    `bson:"addedTimestamp" json:"addedTimestamp"`
	LastUpdated    int64    `bson:"lastUpdated" json:"lastUpdated"`
}

// statusToWire maps a reading status to its wire enum name.
func statusToWire(status entities.ReadingStatus) string {
	switch status {
	case entities.ReadingStatusReading:
		return "READING"
	case entities.ReadingStatusFinished:
		return "FINISHED"
	default:
		return "UNSTARTED"
	}
}

// statusFromWire maps a wire enum name back to a reading status. Unknown
// names read as unstarted.
func statusFromWire(name string) entities.ReadingStatus {
	switch name {
	case "READING":
		return entities.ReadingStatusReading
	case "FINISHED":
		return entities.ReadingStatusFinished
	default:
		return entities.ReadingStatusUnstarted
	}
}

// recordFromEntry builds the remote record for a ledger entry, stamping
// lastUpdated with now.
func recordFromEntry(entry entities.FavoriteEntry, now time.Time) (FavoriteRecord, error) {
	if entry.BookID == "" {
		return FavoriteRecord{}, fmt.Errorf("favorite entry missing book id")
	}
	return FavoriteRecord{
		BookID:         entry.BookID,
		Title:          entry.Title,
		Author:         entry.Author,
		Subtitle:       entry.Subtitle,
		CoverImageURL:  entry.CoverURL,
		Description:    entry.Description,
		Rating:         entry.Rating,
		PublishedDate:  entry.PublishedDate,
		ReadingStatus:  statusToWire(entry.ReadingStatus),
		UserRating:     entry.UserRating,
		CurrentPage:    entry.CurrentPage,
		TotalPages:     entry.TotalPages,
		AddedTimestamp: entry.AddedAt.UnixMilli(),
		LastUpdated:    now.UnixMilli(),
	}, nil
}

// ToEntry converts a remote record back into a ledger entry, used by the
// explicit restore flow.
func (r FavoriteRecord) ToEntry() entities.FavoriteEntry {
	return entities.FavoriteEntry{
		BookID:        r.BookID,
		Title:         r.Title,
		Author:        r.Author,
		Subtitle:      r.Subtitle,
		CoverURL:      r.CoverImageURL,
		Description:   r.Description,
		Rating:        r.Rating,
		PublishedDate: r.PublishedDate,
		ReadingStatus: statusFromWire(r.ReadingStatus),
		UserRating:    r.UserRating,
		CurrentPage:   r.CurrentPage,
		TotalPages:    r.TotalPages,
		AddedAt:       time.UnixMilli(r.AddedTimestamp),
		UpdatedAt:     time.UnixMilli(r.LastUpdated),
	}
}
