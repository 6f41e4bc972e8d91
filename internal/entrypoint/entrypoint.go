package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/readscout/readscout/internal/auth"
	"github.com/readscout/readscout/internal/booksearch"
	"github.com/readscout/readscout/internal/cache"
	"github.com/readscout/readscout/internal/cloud"
	"github.com/readscout/readscout/internal/config"
	"github.com/readscout/readscout/internal/database"
	"github.com/readscout/readscout/internal/database/accounts"
	"github.com/readscout/readscout/internal/database/books"
	"github.com/readscout/readscout/internal/database/favourites"
	"github.com/readscout/readscout/internal/database/settings"
	"github.com/readscout/readscout/internal/entities"
	http_controllers "github.com/readscout/readscout/internal/http"
	"github.com/readscout/readscout/internal/ledger"
	"github.com/readscout/readscout/internal/scheduler"
	"github.com/readscout/readscout/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until an interrupt, then drains within the
// configured shutdown timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before closing the listener
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the whole application and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting ReadScout v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	favRepo := favourites.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)
	accountRepo := accounts.NewRepository(db.DB)

	cacheManager := cache.NewManager(bookRepo, cfg.Cache.TTL)
	searchClient := booksearch.NewClient(cfg.Search.BaseURL)
	authService := auth.NewService(accountRepo, settingsRepo, cfg.Auth.BcryptCost)

	// Cloud sync is optional: without a Mongo URI the app runs fully local
	// and every sync surface degrades to not-authenticated or disappears.
	var bridge *cloud.Bridge
	var mongoStore *cloud.MongoStore
	if cfg.Mongo.URI != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoStore, err = cloud.NewMongoStore(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		cancel()
		if err != nil {
			log.Printf("WARNING: Cloud sync disabled, MongoDB unreachable: %v", err)
		} else {
			bridge = cloud.NewBridge(authService, mongoStore)
		}
	} else {
		log.Printf("Cloud sync disabled (MONGO_URI not set)")
	}

	// The mirror queue only makes sense with a bridge to push through.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var mirror *tasks.Mirror
	if cfg.Tasks.Enabled && bridge != nil {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize mirror queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewPushFavoriteQueue(bridge, favRepo),
			tasks.NewRemoveFavoriteQueue(bridge),
			tasks.NewReconcileQueue(bridge, favRepo, settingsRepo),
		)

		mirror = tasks.NewMirror(taskClient)

		// A fresh sign-in merges the local ledger into the account
		authService.SetSignInHook(func(userID string) {
			log.Printf("User %s signed in, scheduling ledger reconciliation", userID)
			mirror.EnqueueReconcile()
		})

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	var ledgerMirror ledger.Mirror
	if mirror != nil {
		ledgerMirror = mirror
	}
	stats := &finishedCounter{settings: settingsRepo}
	ledgerService := ledger.NewService(bookRepo, favRepo, ledgerMirror, stats, cfg.Cache.TTL)

	reaper := scheduler.NewReaper(cacheManager, settingsRepo, scheduler.Config{
		Enabled:  cfg.Reaper.Enabled,
		Schedule: cfg.Reaper.Schedule,
	})
	if err := reaper.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start reaper: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:    db,
		Cache:       cacheManager,
		Ledger:      ledgerService,
		AuthService: authService,
		Bridge:      bridge,
		Settings:    settingsRepo,
		Fetcher:     searchClient,
		Version:     version,
	}
	if mirror != nil {
		routerCfg.SyncScheduler = mirror
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		reaper.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		if mongoStore != nil {
			if err := mongoStore.Disconnect(ctx); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}
	}

	Serve(router, cfg, onShutdown)
}

// finishedCounter keeps a lifetime tally of books marked finished.
type finishedCounter struct {
	settings *settings.Repository
}

func (f *finishedCounter) BookFinished(entry entities.FavoriteEntry) {
	if err := f.settings.Increment(entities.SettingKeyBooksFinished); err != nil {
		log.Printf("Failed to record finished book %s: %v", entry.BookID, err)
	}
}
