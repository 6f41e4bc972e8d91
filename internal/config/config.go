package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Cache
		Reaper
		Search
		Mongo
		Tasks
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Cache struct {
		TTL time.Duration // freshness window for cached books
	}
	Reaper struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Search struct {
		BaseURL string
	}
	Mongo struct {
		URI        string
		Database   string
		Collection string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		BcryptCost int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("reaper_enabled", true)
	v.SetDefault("reaper_schedule", "0 3 * * *") // Daily at 03:00
	v.SetDefault("search_base_url", DefaultSearchBaseURL)

	// Cloud sync defaults; sync stays off until a Mongo URI is provided
	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_database", "readscout")
	v.SetDefault("mongo_collection", "favorites")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Auth defaults
	v.SetDefault("auth_bcrypt_cost", 12)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Cache: Cache{
			TTL: v.GetDuration("CACHE_TTL"),
		},
		Reaper: Reaper{
			Enabled:  v.GetBool("REAPER_ENABLED"),
			Schedule: v.GetString("REAPER_SCHEDULE"),
		},
		Search: Search{
			BaseURL: v.GetString("SEARCH_BASE_URL"),
		},
		Mongo: Mongo{
			URI:        v.GetString("MONGO_URI"),
			Database:   v.GetString("MONGO_DATABASE"),
			Collection: v.GetString("MONGO_COLLECTION"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			BcryptCost: v.GetInt("AUTH_BCRYPT_COST"),
		},
	}
}
