package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readscout/readscout/internal/booksearch"
	"github.com/readscout/readscout/internal/entities"
)

// stubFetcher serves canned results or a fixed error, and records calls.
type stubFetcher struct {
	results []booksearch.ExternalBook
	err     error
	calls   int
}

func (f *stubFetcher) FetchByQuery(_ context.Context, _ string) ([]booksearch.ExternalBook, error) {
	f.calls++
	return f.results, f.err
}

func (f *stubFetcher) FetchByCategory(_ context.Context, _ string) ([]booksearch.ExternalBook, error) {
	f.calls++
	return f.results, f.err
}

func booksRouter(env *testEnv, fetcher BookFetcher) *gin.Engine {
	controller := NewBooksController(env.cache, fetcher)
	router := gin.New()
	router.GET("/api/books/search", controller.Search)
	router.GET("/api/books/category/:category", controller.GetCategory)
	router.GET("/api/books/:id", controller.GetBook)
	return router
}

func TestBooksController_GetCategory(t *testing.T) {
	t.Run("serves fresh cache without fetching", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()

		fresh := cachedBook("dune", "Dune", "scifi", false)
		require.NoError(t, env.books.Create(&fresh))

		fetcher := &stubFetcher{}
		router := booksRouter(env, fetcher)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/category/scifi", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, fetcher.calls, "a fresh shelf must not trigger a network call")

		var got []entities.CachedBook
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Dune", got[0].Title)
	})

	t.Run("fetches and caches on empty shelf", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()

		fetcher := &stubFetcher{results: []booksearch.ExternalBook{
			{ID: "dune", Title: "Dune", Authors: []string{"Frank Herbert"}},
		}}
		router := booksRouter(env, fetcher)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/category/scifi", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, fetcher.calls)

		cached, err := env.books.GetByID("dune")
		require.NoError(t, err)
		require.NotNil(t, cached, "fetched books must land in the cache")
		assert.Equal(t, "scifi", cached.Category)
	})

	t.Run("falls back to stale cache when fetch fails", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()

		stale := cachedBook("dune", "Dune", "scifi", true)
		require.NoError(t, env.books.Create(&stale))

		fetcher := &stubFetcher{err: fmt.Errorf("network unreachable")}
		router := booksRouter(env, fetcher)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/category/scifi", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got []entities.CachedBook
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1, "stale rows serve as the offline fallback")
		assert.Equal(t, "Dune", got[0].Title)
	})

	t.Run("returns empty list when nothing is available", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()

		fetcher := &stubFetcher{err: fmt.Errorf("network unreachable")}
		router := booksRouter(env, fetcher)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/category/scifi", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})
}

func TestBooksController_Search(t *testing.T) {
	t.Run("requires a query", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()

		router := booksRouter(env, &stubFetcher{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/search", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("serves cached matches without fetching", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()

		book := cachedBook("dune", "Dune", "scifi", false)
		require.NoError(t, env.books.Create(&book))

		fetcher := &stubFetcher{}
		router := booksRouter(env, fetcher)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/search?q=dune", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, fetcher.calls)
	})

	t.Run("fetches on cache miss", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()

		fetcher := &stubFetcher{results: []booksearch.ExternalBook{
			{ID: "hyperion", Title: "Hyperion", Authors: []string{"Dan Simmons"}},
		}}
		router := booksRouter(env, fetcher)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/search?q=hyperion", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, fetcher.calls)

		var got []entities.CachedBook
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Hyperion", got[0].Title)
	})
}

func TestBooksController_GetBook(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := cachedBook("dune", "Dune", "scifi", false)
	require.NoError(t, env.books.Create(&book))

	router := booksRouter(env, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books/dune", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/missing", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
