package tasks

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/readscout/readscout/internal/cloud"
)

// RemoveFavoriteTask deletes a favorite's remote record after a local
// removal.
type RemoveFavoriteTask struct {
	BookID string `json:"book_id"`
}

// Config returns the queue configuration for remote removal tasks.
func (t RemoveFavoriteTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "remove_favorite",
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

// RemoveFavoriteProcessor creates the processor for remote removals.
func RemoveFavoriteProcessor(bridge *cloud.Bridge) backlite.QueueProcessor[RemoveFavoriteTask] {
	return func(ctx context.Context, task RemoveFavoriteTask) error {
		err := bridge.RemoveFavoriteRemote(ctx, task.BookID)
		if errors.Is(err, cloud.ErrNotAuthenticated) {
			log.Printf("[TASK] No user signed in, dropping removal for %q", task.BookID)
			return nil
		}
		if err != nil {
			return err
		}

		log.Printf("[TASK] Removed remote favorite %q", task.BookID)
		return nil
	}
}

// NewRemoveFavoriteQueue creates the backlite queue for remote removals.
func NewRemoveFavoriteQueue(bridge *cloud.Bridge) backlite.Queue {
	return backlite.NewQueue(RemoveFavoriteProcessor(bridge))
}
