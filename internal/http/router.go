package http

import (
	"github.com/gin-gonic/gin"

	"github.com/readscout/readscout/internal/auth"
	"github.com/readscout/readscout/internal/cache"
	"github.com/readscout/readscout/internal/cloud"
	"github.com/readscout/readscout/internal/database"
	"github.com/readscout/readscout/internal/database/settings"
	"github.com/readscout/readscout/internal/ledger"
)

// RouterConfig carries every dependency the HTTP surface needs. Optional
// pieces (fetcher, bridge, scheduler) may be nil; their routes degrade or
// disappear accordingly.
type RouterConfig struct {
	Database      *database.Database
	Cache         *cache.Manager
	Ledger        *ledger.Service
	AuthService   *auth.Service
	Bridge        *cloud.Bridge
	Settings      *settings.Repository
	Fetcher       BookFetcher
	SyncScheduler SyncScheduler
	Version       string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Cache, cfg.Fetcher)
	favouritesController := NewFavouritesController(cfg.Ledger, cfg.Cache)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Discovery endpoints
	router.GET("/api/books/search", booksController.Search)
	router.GET("/api/books/category/:category", booksController.GetCategory)
	router.GET("/api/books/:id", booksController.GetBook)

	// Favourites endpoints
	router.POST("/api/books/:id/favourite", favouritesController.AddFavourite)
	router.DELETE("/api/books/:id/favourite", favouritesController.RemoveFavourite)
	router.GET("/api/books/:id/favourite", favouritesController.GetFavourite)
	router.PATCH("/api/books/:id/rating", favouritesController.UpdateRating)
	router.PATCH("/api/books/:id/status", favouritesController.UpdateReadingStatus)
	router.PATCH("/api/books/:id/progress", favouritesController.UpdateProgress)
	router.GET("/api/favourites", favouritesController.ListFavourites)

	// Auth endpoints
	if cfg.AuthService != nil {
		authController := NewAuthController(cfg.AuthService)
		router.POST("/api/auth/register", authController.Register)
		router.POST("/api/auth/signin", authController.SignIn)
		router.POST("/api/auth/signout", authController.SignOut)
		router.GET("/api/auth/session", authController.Session)
	}

	// Sync endpoints
	if cfg.Bridge != nil {
		syncController := NewSyncController(cfg.Bridge, cfg.Ledger, cfg.Settings, cfg.SyncScheduler)
		router.POST("/api/sync/push", syncController.Push)
		router.GET("/api/sync/pull", syncController.Pull)
		router.POST("/api/sync/restore", syncController.Restore)
		router.GET("/api/sync/status", syncController.Status)
	}

	return router
}
