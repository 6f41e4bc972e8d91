// Package scheduler runs the periodic reaper that evicts expired,
// non-favorite books from the cache.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/readscout/readscout/internal/cache"
	"github.com/readscout/readscout/internal/database/settings"
	"github.com/readscout/readscout/internal/entities"
)

// Config controls whether and when the reaper runs. Schedule is a standard
// five-field cron expression.
type Config struct {
	Enabled  bool
	Schedule string
}

// cronParser accepts the standard five-field format.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule reports whether the expression parses.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// Reaper periodically purges expired cache rows. Favorites are never
// touched; eviction only reclaims discovery cache space.
type Reaper struct {
	cache    *cache.Manager
	settings *settings.Repository
	config   Config

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	reaping    atomic.Bool
	cancelFunc context.CancelFunc
}

// NewReaper creates a reaper with the given schedule config.
func NewReaper(cacheManager *cache.Manager, settingsRepo *settings.Repository, config Config) *Reaper {
	return &Reaper{
		cache:    cacheManager,
		settings: settingsRepo,
		config:   config,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start begins the scheduler if reaping is enabled.
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return nil
	}

	if !r.config.Enabled {
		log.Printf("Reaper: disabled")
		return nil
	}

	if err := ValidateCronSchedule(r.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", r.config.Schedule, err)
	}

	entryID, err := r.cron.AddFunc(r.config.Schedule, func() {
		r.runReap()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reap job: %w", err)
	}
	r.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, r.cancelFunc = context.WithCancel(ctx)

	r.cron.Start()
	r.isRunning = true

	log.Printf("Reaper: started with schedule '%s'", r.config.Schedule)

	go func() {
		<-cancelCtx.Done()
		r.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running reap to finish.
func (r *Reaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}

	ctx := r.cron.Stop()
	<-ctx.Done()

	r.isRunning = false
	r.cancelFunc = nil

	log.Printf("Reaper: stopped")
}

// Reschedule stops the scheduler and restarts it with a new config.
func (r *Reaper) Reschedule(config Config) error {
	r.Stop()

	r.mu.Lock()
	r.config = config
	r.cron = cron.New(cron.WithParser(cronParser))
	r.mu.Unlock()

	return r.Start(context.Background())
}

// RunNow triggers an immediate reap outside the schedule.
func (r *Reaper) RunNow() {
	go r.runReap()
}

// IsRunning returns whether the scheduler is active.
func (r *Reaper) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRunning
}

// NextRunTime returns when the next reap will occur, or nil when the
// scheduler is not running.
func (r *Reaper) NextRunTime() *time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.isRunning {
		return nil
	}
	for _, entry := range r.cron.Entries() {
		if entry.ID == r.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runReap performs one eviction pass. A pass that overlaps a still-running
// one is skipped; a failed pass records its error and waits for the next
// tick rather than retrying.
func (r *Reaper) runReap() {
	if !r.reaping.CompareAndSwap(false, true) {
		log.Printf("Reaper: skipped (previous pass still running)")
		return
	}
	defer r.reaping.Store(false)

	startTime := time.Now()
	purged, err := r.cache.Purge()
	if err != nil {
		errMsg := fmt.Sprintf("Purge failed: %v", err)
		log.Printf("Reaper: %s", errMsg)
		r.recordOutcome("failed", errMsg, 0)
		return
	}

	duration := time.Since(startTime)
	successMsg := fmt.Sprintf("Purged %d expired books in %v", purged, duration.Round(time.Millisecond))
	log.Printf("Reaper: %s", successMsg)
	r.recordOutcome("success", successMsg, purged)
}

func (r *Reaper) recordOutcome(status, message string, purged int64) {
	if err := r.settings.SetJobStatus("reaper", status, message); err != nil {
		log.Printf("Reaper: failed to record outcome: %v", err)
		return
	}
	if err := r.settings.SetCount(entities.SettingKeyReaperLastPurged, purged); err != nil {
		log.Printf("Reaper: failed to record purge count: %v", err)
	}
}

// LastOutcome reads the recorded result of the most recent reap.
func (r *Reaper) LastOutcome() (lastAt *time.Time, status, message string, purged int64, err error) {
	lastAt, status, message, err = r.settings.JobStatus("reaper")
	if err != nil {
		return nil, "", "", 0, err
	}
	if raw, getErr := r.settings.Get(entities.SettingKeyReaperLastPurged); getErr == nil && raw != "" {
		purged, _ = strconv.ParseInt(raw, 10, 64)
	}
	return lastAt, status, message, purged, nil
}
