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
	"github.com/readscout/readscout/internal/database/settings"
	"github.com/readscout/readscout/internal/entities"
)

// ReconcileTask merges the whole local ledger into the remote set. Enqueued
// after a sign-in and available as a manual sync trigger.
type ReconcileTask struct{}

// Config returns the queue configuration for reconciliation tasks.
func (t ReconcileTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reconcile_favorites",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReconcileProcessor creates the processor for ledger reconciliation. Each
// run's outcome is recorded under the cloud_sync settings keys.
func ReconcileProcessor(bridge *cloud.Bridge, favRepo *favourites.Repository, settingsRepo *settings.Repository) backlite.QueueProcessor[ReconcileTask] {
	return func(ctx context.Context, task ReconcileTask) error {
		entries, err := favRepo.List()
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}

		pushed, err := bridge.ReconcileOnSignIn(ctx, entries)
		if errors.Is(err, cloud.ErrNotAuthenticated) {
			log.Printf("[TASK] No user signed in, dropping reconciliation")
			return nil
		}
		if err != nil {
			recordSyncOutcome(settingsRepo, "failed", err.Error(), 0)
			return err
		}

		msg := fmt.Sprintf("Reconciled %d of %d favorites", pushed, len(entries))
		log.Printf("[TASK] %s", msg)
		recordSyncOutcome(settingsRepo, "success", msg, int64(pushed))
		return nil
	}
}

func recordSyncOutcome(settingsRepo *settings.Repository, status, message string, pushed int64) {
	if err := settingsRepo.SetJobStatus("cloud_sync", status, message); err != nil {
		log.Printf("[TASK] Failed to record sync outcome: %v", err)
		return
	}
	if err := settingsRepo.SetCount(entities.SettingKeyCloudSyncLastPushed, pushed); err != nil {
		log.Printf("[TASK] Failed to record sync count: %v", err)
	}
}

// NewReconcileQueue creates the backlite queue for reconciliation.
func NewReconcileQueue(bridge *cloud.Bridge, favRepo *favourites.Repository, settingsRepo *settings.Repository) backlite.Queue {
	return backlite.NewQueue(ReconcileProcessor(bridge, favRepo, settingsRepo))
}
