// Package cli implements the maintenance commands that run outside the
// server process.
package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/readscout/readscout/internal/cache"
	"github.com/readscout/readscout/internal/config"
	"github.com/readscout/readscout/internal/database"
	"github.com/readscout/readscout/internal/database/books"
)

// ReapCommand runs one cache eviction pass and exits. Useful for external
// schedulers and for clearing space without starting the server.
type ReapCommand struct {
	DatabasePath string
	DryRun       bool
}

func NewReapCommand() *ReapCommand {
	return &ReapCommand{}
}

func (cmd *ReapCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reap", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Report how many rows would be purged without deleting")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reap [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete expired, non-favorite books from the cache.\n")
		fmt.Fprintf(os.Stderr, "Favorited books are never removed regardless of age.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ReapCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)

	if cmd.DryRun {
		count, err := repo.CountExpiredNonFavorites()
		if err != nil {
			return fmt.Errorf("count expired books: %w", err)
		}
		fmt.Printf("Would purge %d expired books\n", count)
		return nil
	}

	start := time.Now()
	purged, err := cache.NewManager(repo, 0).Purge()
	if err != nil {
		return fmt.Errorf("purge expired books: %w", err)
	}

	fmt.Printf("Purged %d expired books in %v\n", purged, time.Since(start).Round(time.Millisecond))
	return nil
}
