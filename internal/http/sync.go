package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/readscout/readscout/internal/cloud"
	"github.com/readscout/readscout/internal/database/settings"
	"github.com/readscout/readscout/internal/entities"
	"github.com/readscout/readscout/internal/ledger"
)

// SyncScheduler enqueues a full ledger reconciliation on the background
// queue.
type SyncScheduler interface {
	EnqueueReconcile()
}

// SyncController exposes the manual sync surface: push the ledger, pull the
// remote set, restore it locally, and report job bookkeeping.
type SyncController struct {
	bridge    *cloud.Bridge
	ledger    *ledger.Service
	settings  *settings.Repository
	scheduler SyncScheduler
}

func NewSyncController(bridge *cloud.Bridge, ledgerService *ledger.Service, settingsRepo *settings.Repository, scheduler SyncScheduler) *SyncController {
	return &SyncController{
		bridge:    bridge,
		ledger:    ledgerService,
		settings:  settingsRepo,
		scheduler: scheduler,
	}
}

// Push enqueues a full ledger reconciliation.
// POST /api/sync/push
func (sc *SyncController) Push(c *gin.Context) {
	if sc.scheduler == nil {
		respondInternalError(c, errors.New("sync scheduler not configured"), "sync push")
		return
	}
	sc.scheduler.EnqueueReconcile()
	respondAccepted(c, "reconciliation enqueued", nil)
}

// Pull returns the signed-in user's remote favorite set without touching
// local state.
// GET /api/sync/pull
func (sc *SyncController) Pull(c *gin.Context) {
	records, err := sc.bridge.PullFavoritesOnce(c.Request.Context())
	if errors.Is(err, cloud.ErrNotAuthenticated) {
		respondUnauthorized(c, "sign in to sync favorites")
		return
	}
	if err != nil {
		respondInternalError(c, err, "sync pull")
		return
	}
	if records == nil {
		records = []cloud.FavoriteRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"favorites": records, "count": len(records)})
}

// Restore pulls the remote set and re-creates the favorites locally. Used
// after a reinstall or on a new device.
// POST /api/sync/restore
func (sc *SyncController) Restore(c *gin.Context) {
	records, err := sc.bridge.PullFavoritesOnce(c.Request.Context())
	if errors.Is(err, cloud.ErrNotAuthenticated) {
		respondUnauthorized(c, "sign in to restore favorites")
		return
	}
	if err != nil {
		respondInternalError(c, err, "sync restore")
		return
	}

	restored := 0
	for _, record := range records {
		if err := sc.ledger.RestoreFavorite(record.ToEntry()); err != nil {
			log.Printf("Restore failed for %q: %v", record.BookID, err)
			continue
		}
		restored++
	}
	c.JSON(http.StatusOK, gin.H{"restored": restored, "total": len(records)})
}

// Status reports the bookkeeping of the background jobs.
// GET /api/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	response := gin.H{}

	syncAt, syncStatus, syncMessage, err := sc.settings.JobStatus("cloud_sync")
	if err != nil {
		respondInternalError(c, err, "sync status")
		return
	}
	pushed, _ := sc.settings.Get(entities.SettingKeyCloudSyncLastPushed)
	response["cloud_sync"] = gin.H{
		"last_at":     formatJobTime(syncAt),
		"last_status": syncStatus,
		"message":     syncMessage,
		"pushed":      pushed,
	}

	reaperAt, reaperStatus, reaperMessage, err := sc.settings.JobStatus("reaper")
	if err != nil {
		respondInternalError(c, err, "sync status")
		return
	}
	purged, _ := sc.settings.Get(entities.SettingKeyReaperLastPurged)
	response["reaper"] = gin.H{
		"last_at":     formatJobTime(reaperAt),
		"last_status": reaperStatus,
		"message":     reaperMessage,
		"purged":      purged,
	}

	c.JSON(http.StatusOK, response)
}

func formatJobTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
