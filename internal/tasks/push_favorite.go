package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/readscout/readscout/internal/cloud"
	"github.com/readscout/readscout/internal/database/favourites"
)

// PushFavoriteTask mirrors one favorite entry to the cloud. The task
// carries only the book id; the entry is re-read at execution time so the
// pushed state is the freshest local one.
type PushFavoriteTask struct {
	BookID string `json:"book_id"`
}

// Config returns the queue configuration for favorite push tasks.
func (t PushFavoriteTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "push_favorite",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PushFavoriteProcessor creates the processor for favorite push tasks.
// Signed-out and entry-removed-meanwhile are terminal outcomes, not
// retryable failures.
func PushFavoriteProcessor(bridge *cloud.Bridge, favRepo *favourites.Repository) backlite.QueueProcessor[PushFavoriteTask] {
	return func(ctx context.Context, task PushFavoriteTask) error {
		entry, err := favRepo.Get(task.BookID)
		if err != nil {
			return fmt.Errorf("load favorite %q: %w", task.BookID, err)
		}
		if entry == nil {
			log.Printf("[TASK] Favorite %q removed before push, skipping", task.BookID)
			return nil
		}

		err = bridge.PushFavorite(ctx, *entry)
		if errors.Is(err, cloud.ErrNotAuthenticated) {
			log.Printf("[TASK] No user signed in, dropping push for %q", task.BookID)
			return nil
		}
		if err != nil {
			return err
		}

		log.Printf("[TASK] Pushed favorite %q (%s)", task.BookID, entry.Title)
		return nil
	}
}

// NewPushFavoriteQueue creates the backlite queue for favorite pushes.
func NewPushFavoriteQueue(bridge *cloud.Bridge, favRepo *favourites.Repository) backlite.Queue {
	return backlite.NewQueue(PushFavoriteProcessor(bridge, favRepo))
}
