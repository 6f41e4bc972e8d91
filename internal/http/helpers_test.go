package http

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/readscout/readscout/internal/cache"
	"github.com/readscout/readscout/internal/database"
	"github.com/readscout/readscout/internal/database/books"
	"github.com/readscout/readscout/internal/database/favourites"
	"github.com/readscout/readscout/internal/entities"
	"github.com/readscout/readscout/internal/ledger"
)

// testEnv bundles the stores a handler test needs on top of one sqlite file.
type testEnv struct {
	db     *database.Database
	books  *books.Repository
	cache  *cache.Manager
	ledger *ledger.Service
}

func setupTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	bookRepo := books.NewRepository(db.DB)
	favRepo := favourites.NewRepository(db.DB)
	env := &testEnv{
		db:     db,
		books:  bookRepo,
		cache:  cache.NewManager(bookRepo, time.Hour),
		ledger: ledger.NewService(bookRepo, favRepo, nil, nil, time.Hour),
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return env, cleanup
}

func cachedBook(id, title, category string, expired bool) entities.CachedBook {
	now := time.Now()
	expiresAt := now.Add(time.Hour)
	if expired {
		expiresAt = now.Add(-time.Minute)
	}
	return entities.CachedBook{
		ID:        id,
		Title:     title,
		Author:    "Test Author",
		Category:  category,
		CachedAt:  now,
		ExpiresAt: expiresAt,
	}
}
