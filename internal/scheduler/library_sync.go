// Package scheduler runs the periodic background jobs: library sync against
// the active service and stale-metadata refresh.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	stdsync "sync"
	"time"

	"github.com/mrlokans/anisync/internal/database/progress"
	"github.com/mrlokans/anisync/internal/settingsstore"
	"github.com/mrlokans/anisync/internal/sync"
	"github.com/robfig/cron/v3"
)

// LibrarySyncScheduler periodically pulls the user's remote library from the
// active service and upserts it into the local store.
type LibrarySyncScheduler struct {
	manager       *sync.Manager
	settingsStore *settingsstore.SettingsStore
	progress      *progress.Repository

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         stdsync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewLibrarySyncScheduler creates a new scheduler instance. progressRepo may
// be nil, in which case no per-run progress records are written.
func NewLibrarySyncScheduler(manager *sync.Manager, settingsStore *settingsstore.SettingsStore, progressRepo *progress.Repository) *LibrarySyncScheduler {
	return &LibrarySyncScheduler{
		manager:       manager,
		settingsStore: settingsStore,
		progress:      progressRepo,
		cron:          cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if library sync is enabled.
func (s *LibrarySyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	config := s.settingsStore.GetLibrarySyncConfig()

	if !config.Enabled {
		log.Printf("Library sync scheduler: disabled")
		return nil
	}

	if config.Username == "" {
		log.Printf("Library sync scheduler: no username configured for %s, skipping", config.Service)
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule)
	log.Printf("Library sync scheduler: started with schedule '%s' (%s). Next run: %v",
		config.Schedule,
		settingsstore.GetCronDescription(config.Schedule),
		nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sync to finish.
func (s *LibrarySyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Library sync scheduler: stopped")
}

// Reschedule restarts the scheduler with the current settings.
func (s *LibrarySyncScheduler) Reschedule() error {
	s.mu.Lock()
	wasRunning := s.isRunning
	s.mu.Unlock()

	if wasRunning {
		s.Stop()
	}

	return s.Start(context.Background())
}

// RunNow triggers an immediate sync without waiting for the schedule.
func (s *LibrarySyncScheduler) RunNow() error {
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active.
func (s *LibrarySyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a sync is currently in progress.
func (s *LibrarySyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next sync will occur.
func (s *LibrarySyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync performs one library sync against the active service.
func (s *LibrarySyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Library sync: skipped (already syncing)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	config := s.settingsStore.GetLibrarySyncConfig()

	if !config.Enabled {
		log.Printf("Library sync: skipped (disabled)")
		return
	}

	if config.Username == "" {
		errMsg := fmt.Sprintf("No username configured for %s", config.Service)
		log.Printf("Library sync: %s", errMsg)
		_ = s.settingsStore.SetLibrarySyncStatus("failed", errMsg, 0)
		return
	}

	log.Printf("Library sync: fetching library for %q from %s", config.Username, config.Service)
	startTime := time.Now()

	if s.progress != nil {
		_ = s.progress.Start(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	req := sync.NewRequest(sync.RequestGetLibraryEntries)
	req.Data["username"] = config.Username

	resp, err := s.manager.Do(ctx, config.Service, req)
	if err != nil {
		errMsg := fmt.Sprintf("Failed to fetch library: %v", err)
		log.Printf("Library sync: %s", errMsg)
		_ = s.settingsStore.SetLibrarySyncStatus("failed", errMsg, 0)
		if s.progress != nil {
			_ = s.progress.Complete(false, errMsg)
		}
		return
	}

	if msg := resp.Err(); msg != "" {
		log.Printf("Library sync: %s", msg)
		_ = s.settingsStore.SetLibrarySyncStatus("failed", msg, 0)
		if s.progress != nil {
			_ = s.progress.Complete(false, msg)
		}
		return
	}

	parsed, _ := strconv.Atoi(resp.Data["parsed"])
	failed, _ := strconv.Atoi(resp.Data["failed"])

	duration := time.Since(startTime)
	successMsg := fmt.Sprintf("Synced %d library entries in %v", parsed, duration.Round(time.Millisecond))
	if failed > 0 {
		successMsg = fmt.Sprintf("%s (%d entries skipped)", successMsg, failed)
	}
	log.Printf("Library sync: %s", successMsg)
	_ = s.settingsStore.SetLibrarySyncStatus("success", successMsg, parsed)
	if s.progress != nil {
		_ = s.progress.Update(parsed+failed, parsed, failed, 0, "")
		_ = s.progress.Complete(true, "")
	}
}
