package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/readscout/readscout/internal/cache"
	"github.com/readscout/readscout/internal/entities"
	"github.com/readscout/readscout/internal/ledger"
)

// bookSnapshot is the optional request body for favoriting a book that has
// already fallen out of the cache.
type bookSnapshot struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Subtitle      string   `json:"subtitle"`
	Description   string   `json:"description"`
	CoverURL      string   `json:"cover_url"`
	PublishedDate string   `json:"published_date"`
	Category      string   `json:"category"`
	Rating        float64  `json:"rating"`
	UserRating    *float64 `json:"user_rating"`
}

type FavouritesController struct {
	ledger *ledger.Service
	cache  *cache.Manager
}

func NewFavouritesController(ledgerService *ledger.Service, cacheManager *cache.Manager) *FavouritesController {
	return &FavouritesController{ledger: ledgerService, cache: cacheManager}
}

// AddFavourite flags a book as favorite. When the book is no longer cached
// the caller's snapshot recreates the row, already flagged.
// POST /api/books/:id/favourite
func (fc *FavouritesController) AddFavourite(c *gin.Context) {
	id, ok := requireBookID(c)
	if !ok {
		return
	}

	book, err := fc.cache.GetBook(id)
	if err != nil {
		respondInternalError(c, err, "add favourite")
		return
	}
	if book == nil {
		var snapshot bookSnapshot
		if err := c.ShouldBindJSON(&snapshot); err != nil || snapshot.Title == "" {
			respondNotFound(c, "book")
			return
		}
		book = &entities.CachedBook{
			ID:            id,
			Title:         snapshot.Title,
			Author:        snapshot.Author,
			Subtitle:      snapshot.Subtitle,
			Description:   snapshot.Description,
			CoverURL:      snapshot.CoverURL,
			PublishedDate: snapshot.PublishedDate,
			Category:      snapshot.Category,
			Rating:        snapshot.Rating,
			UserRating:    snapshot.UserRating,
		}
	}

	if err := fc.ledger.AddFavorite(*book); err != nil {
		respondInternalError(c, err, "add favourite")
		return
	}

	entry, err := fc.ledger.GetFavorite(id)
	if err != nil || entry == nil {
		respondSuccess(c, "favourite added")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "favourite added", "favourite": entry})
}

// RemoveFavourite clears the favorite flag and deletes the ledger entry.
// DELETE /api/books/:id/favourite
func (fc *FavouritesController) RemoveFavourite(c *gin.Context) {
	id, ok := requireBookID(c)
	if !ok {
		return
	}

	if err := fc.ledger.RemoveFavorite(id); err != nil {
		respondInternalError(c, err, "remove favourite")
		return
	}
	respondSuccess(c, "favourite removed")
}

// GetFavourite returns the ledger entry for one book, or the favorite flag
// alone when the book is not favorited.
// GET /api/books/:id/favourite
func (fc *FavouritesController) GetFavourite(c *gin.Context) {
	id, ok := requireBookID(c)
	if !ok {
		return
	}

	entry, err := fc.ledger.GetFavorite(id)
	if err != nil {
		respondInternalError(c, err, "get favourite")
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"is_favourite": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_favourite": true, "favourite": entry})
}

// ListFavourites returns every ledger entry, newest first.
// GET /api/favourites
func (fc *FavouritesController) ListFavourites(c *gin.Context) {
	entries, err := fc.ledger.ListFavorites()
	if err != nil {
		respondInternalError(c, err, "list favourites")
		return
	}
	if entries == nil {
		entries = []entities.FavoriteEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"favourites": entries, "count": len(entries)})
}

// UpdateRating sets the user's rating on a favorited book.
// PATCH /api/books/:id/rating
func (fc *FavouritesController) UpdateRating(c *gin.Context) {
	id, ok := requireBookID(c)
	if !ok {
		return
	}

	var body struct {
		Rating *float64 `json:"rating" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "rating is required")
		return
	}

	if err := fc.ledger.UpdateRating(id, *body.Rating); err != nil {
		respondInternalError(c, err, "update rating")
		return
	}
	respondSuccess(c, "rating updated")
}

// UpdateReadingStatus moves a favorite between reading states.
// PATCH /api/books/:id/status
func (fc *FavouritesController) UpdateReadingStatus(c *gin.Context) {
	id, ok := requireBookID(c)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "status is required")
		return
	}

	status := entities.ReadingStatus(body.Status)
	if !entities.ValidReadingStatus(status) {
		respondBadRequest(c, "invalid reading status")
		return
	}

	if err := fc.ledger.UpdateReadingStatus(id, status); err != nil {
		respondInternalError(c, err, "update reading status")
		return
	}
	respondSuccess(c, "reading status updated")
}

// UpdateProgress records page progress on a favorite.
// PATCH /api/books/:id/progress
func (fc *FavouritesController) UpdateProgress(c *gin.Context) {
	id, ok := requireBookID(c)
	if !ok {
		return
	}

	var body struct {
		CurrentPage int `json:"current_page"`
		TotalPages  int `json:"total_pages"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid progress payload")
		return
	}
	if body.CurrentPage < 0 || body.TotalPages < 0 {
		respondBadRequest(c, "progress values must be non-negative")
		return
	}

	if err := fc.ledger.UpdateProgress(id, body.CurrentPage, body.TotalPages); err != nil {
		respondInternalError(c, err, "update progress")
		return
	}
	respondSuccess(c, "progress updated")
}
