// Scheduler Service
// Drives periodic background synchronization for all accounts
package services

import (
	"context"
	"log"
	"time"
)

// SchedulerService manages the periodic sync task
type SchedulerService struct {
	syncService  *SyncService
	syncInterval time.Duration
	stopChan     chan struct{}
}

// NewSchedulerService creates a new SchedulerService instance
func NewSchedulerService(syncService *SyncService, syncInterval time.Duration) *SchedulerService {
	if syncInterval <= 0 {
		syncInterval = 3 * time.Minute
	}
	return &SchedulerService{
		syncService:  syncService,
		syncInterval: syncInterval,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the scheduled sync loop
func (s *SchedulerService) Start() {
	log.Println("🚀 Scheduler service starting...")
	log.Printf("📅 Sync interval: %v", s.syncInterval)
	go s.runSyncLoop()
	log.Println("✅ Scheduler service started")
}

// Stop gracefully stops the scheduled sync loop
func (s *SchedulerService) Stop() {
	log.Println("🛑 Stopping scheduler service...")
	close(s.stopChan)
	log.Println("✅ Scheduler service stopped")
}

func (s *SchedulerService) runSyncLoop() {
	// Initial sync on startup
	log.Println("🔄 Running initial sync...")
	if err := s.syncService.SyncAll(context.Background(), "scheduled"); err != nil {
		log.Printf("❌ Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			if err := s.syncService.SyncAll(ctx, "scheduled"); err != nil {
				log.Printf("❌ Scheduled sync failed: %v", err)
			}
			cancel()

		case <-s.stopChan:
			log.Println("🛑 Sync task stopped")
			return
		}
	}
}

// ManualSync triggers an immediate sync of all accounts
func (s *SchedulerService) ManualSync(ctx context.Context) error {
	log.Println("🔧 Manual sync triggered")
	return s.syncService.SyncAll(ctx, "manual")
}
