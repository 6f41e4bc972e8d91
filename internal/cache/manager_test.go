package cache

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/readscout/readscout/internal/booksearch"
	"github.com/readscout/readscout/internal/database/books"
	"github.com/readscout/readscout/internal/entities"
)

func setupManager(t *testing.T, ttl time.Duration) (*Manager, *books.Repository, func()) {
	dbPath := "./test_cache_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.CachedBook{})
	require.NoError(t, err)

	repo := books.NewRepository(db)
	manager := NewManager(repo, ttl)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return manager, repo, cleanup
}

func externalBatch() []booksearch.ExternalBook {
	return []booksearch.ExternalBook{
		{
			ID:            "b1",
			Title:         "Dune",
			Authors:       []string{"Frank Herbert"},
			PublishedDate: "1965",
			Rating:        4.5,
		},
		{
			ID:      "b2",
			Title:   "Neuromancer",
			Authors: []string{"William Gibson"},
			Rating:  4.2,
		},
	}
}

func TestManager_Cache_InsertsWithTTL(t *testing.T) {
	manager, repo, cleanup := setupManager(t, time.Hour)
	defer cleanup()

	require.NoError(t, manager.Cache(externalBatch(), "fiction"))

	book, err := repo.GetByID("b1")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Frank Herbert", book.Author)
	assert.Equal(t, "fiction", book.Category)
	assert.False(t, book.IsFavorite)
	assert.WithinDuration(t, time.Now().Add(time.Hour), book.ExpiresAt, 5*time.Second)
}

func TestManager_Cache_Idempotent(t *testing.T) {
	manager, repo, cleanup := setupManager(t, time.Hour)
	defer cleanup()

	batch := externalBatch()
	require.NoError(t, manager.Cache(batch, "fiction"))
	require.NoError(t, manager.Cache(batch, "fiction"))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestManager_Cache_CategoryOverwrite(t *testing.T) {
	manager, repo, cleanup := setupManager(t, time.Hour)
	defer cleanup()

	require.NoError(t, manager.Cache(externalBatch(), "fiction"))
	require.NoError(t, manager.Cache(externalBatch()[:1], "romance"))

	// "b1" now lives under "romance" only; the design tracks the most
	// recent fetch category per book.
	book, err := repo.GetByID("b1")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, "romance", book.Category)

	fiction, err := manager.BooksForCategory("fiction")
	require.NoError(t, err)
	require.Len(t, fiction, 1)
	assert.Equal(t, "b2", fiction[0].ID)
}

func TestManager_Cache_PreservesFavoriteAndRating(t *testing.T) {
	manager, repo, cleanup := setupManager(t, time.Hour)
	defer cleanup()

	require.NoError(t, manager.Cache(externalBatch(), "fiction"))
	require.NoError(t, repo.SetFavorite("b1", true))
	require.NoError(t, repo.SetUserRating("b1", 5.0))

	require.NoError(t, manager.Cache(externalBatch(), "fiction"))

	book, err := repo.GetByID("b1")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.True(t, book.IsFavorite)
	require.NotNil(t, book.UserRating)
	assert.Equal(t, 5.0, *book.UserRating)
}

func TestManager_Cache_SkipsRecordsWithoutID(t *testing.T) {
	manager, repo, cleanup := setupManager(t, time.Hour)
	defer cleanup()

	batch := []booksearch.ExternalBook{
		{ID: "", Title: "No ID"},
		{ID: "b1", Title: "Dune"},
	}
	require.NoError(t, manager.Cache(batch, "fiction"))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestManager_BooksForCategory_Fresh(t *testing.T) {
	manager, _, cleanup := setupManager(t, time.Hour)
	defer cleanup()

	require.NoError(t, manager.Cache(externalBatch(), "fiction"))

	result, err := manager.BooksForCategory("fiction")
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestManager_BooksForCategory_FallsBackToExpired(t *testing.T) {
	manager, repo, cleanup := setupManager(t, time.Hour)
	defer cleanup()

	// Insert rows that are already expired.
	now := time.Now()
	require.NoError(t, repo.UpsertBatch([]entities.CachedBook{{
		ID:        "b1",
		Title:     "Dune",
		Category:  "fiction",
		CachedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}}))

	result, err := manager.BooksForCategory("fiction")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "b1", result[0].ID)
}

func TestManager_Purge_ExemptsFavorites(t *testing.T) {
	manager, repo, cleanup := setupManager(t, time.Hour)
	defer cleanup()

	now := time.Now()
	require.NoError(t, repo.UpsertBatch([]entities.CachedBook{
		{ID: "gone", Title: "Expired", Category: "fiction", CachedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
		{ID: "kept", Title: "Expired Favorite", Category: "fiction", CachedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
	}))
	require.NoError(t, repo.SetFavorite("kept", true))

	purged, err := manager.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	kept, err := manager.GetBook("kept")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

// Scenario from the reading app: a book cached under "fiction" stays visible
// while fresh, drops out of the fresh view after expiry but remains reachable
// via the offline fallback, and favoriting it protects it from the reaper.
func TestManager_ExpiryAndFavoriteScenario(t *testing.T) {
	manager, repo, cleanup := setupManager(t, time.Hour)
	defer cleanup()

	now := time.Now()
	require.NoError(t, repo.UpsertBatch([]entities.CachedBook{{
		ID:        "b1",
		Title:     "Dune",
		Category:  "fiction",
		CachedAt:  now.Add(-90 * time.Minute),
		ExpiresAt: now.Add(-30 * time.Minute),
	}}))

	fresh, err := repo.GetByCategory("fiction", false)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	all, err := repo.GetByCategory("fiction", true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.SetFavorite("b1", true))

	purged, err := manager.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)

	book, err := manager.GetBook("b1")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, "Dune", book.Title)
}
