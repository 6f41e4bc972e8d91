package http

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/readscout/readscout/internal/booksearch"
	"github.com/readscout/readscout/internal/cache"
	"github.com/readscout/readscout/internal/entities"
)

// BookFetcher fetches books from the external discovery source.
type BookFetcher interface {
	FetchByQuery(ctx context.Context, query string) ([]booksearch.ExternalBook, error)
	FetchByCategory(ctx context.Context, category string) ([]booksearch.ExternalBook, error)
}

// BooksController serves discovery reads through the cache. Reads are
// local-first: a fresh cached shelf never triggers a network call, and a
// failed fetch degrades to whatever the cache still holds.
type BooksController struct {
	cache   *cache.Manager
	fetcher BookFetcher
}

func NewBooksController(cacheManager *cache.Manager, fetcher BookFetcher) *BooksController {
	return &BooksController{cache: cacheManager, fetcher: fetcher}
}

// GetCategory returns the books for a discovery category, refetching when
// nothing fresh is cached.
// GET /api/books/category/:category
func (bc *BooksController) GetCategory(c *gin.Context) {
	category := c.Param("category")
	if category == "" {
		respondBadRequest(c, "category is required")
		return
	}

	fresh, err := bc.cache.FreshForCategory(category)
	if err != nil {
		// Degraded read: an unreadable cache serves as empty, not as an error.
		log.Printf("Cache read failed for category %q: %v", category, err)
		c.JSON(http.StatusOK, []entities.CachedBook{})
		return
	}
	if len(fresh) > 0 {
		c.JSON(http.StatusOK, fresh)
		return
	}

	if bc.fetcher != nil {
		fetched, err := bc.fetcher.FetchByCategory(c.Request.Context(), category)
		if err != nil {
			log.Printf("Fetch failed for category %q, serving stale cache: %v", category, err)
		} else if err := bc.cache.Cache(fetched, category); err != nil {
			log.Printf("Cache write failed for category %q: %v", category, err)
		}
	}

	books, err := bc.cache.BooksForCategory(category)
	if err != nil {
		log.Printf("Cache read failed for category %q: %v", category, err)
		books = nil
	}
	if books == nil {
		books = []entities.CachedBook{}
	}
	c.JSON(http.StatusOK, books)
}

// Search matches cached books, refetching from the discovery source when
// the cache has no match.
// GET /api/books/search?q=...
func (bc *BooksController) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondBadRequest(c, "q is required")
		return
	}

	limit := 40
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	local, err := bc.cache.Search(query, limit)
	if err != nil {
		log.Printf("Cache search failed for %q: %v", query, err)
		local = nil
	}
	if len(local) > 0 {
		c.JSON(http.StatusOK, local)
		return
	}

	if bc.fetcher != nil {
		fetched, err := bc.fetcher.FetchByQuery(c.Request.Context(), query)
		if err != nil {
			log.Printf("Search fetch failed for %q: %v", query, err)
		} else if err := bc.cache.Cache(fetched, query); err != nil {
			log.Printf("Cache write failed for search %q: %v", query, err)
		}
		if local, err = bc.cache.Search(query, limit); err != nil {
			log.Printf("Cache search failed for %q: %v", query, err)
			local = nil
		}
	}

	if local == nil {
		local = []entities.CachedBook{}
	}
	c.JSON(http.StatusOK, local)
}

// GetBook returns one cached book by id.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := requireBookID(c)
	if !ok {
		return
	}

	book, err := bc.cache.GetBook(id)
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	if book == nil {
		respondNotFound(c, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}
