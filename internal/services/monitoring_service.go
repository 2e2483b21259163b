package services

import (
	"log"
	"time"

	"sync-backend/internal/db"
)

// MonitoringService periodically refreshes database health metrics
type MonitoringService struct {
	interval time.Duration
	stopCh   chan struct{}
}

// NewMonitoringService creates a new MonitoringService instance
func NewMonitoringService(interval time.Duration) *MonitoringService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &MonitoringService{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the monitoring loop
func (s *MonitoringService) Start() {
	go s.run()
	log.Println("✅ Monitoring service started")
}

// Stop terminates the monitoring loop
func (s *MonitoringService) Stop() {
	close(s.stopCh)
}

func (s *MonitoringService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := db.HealthCheck(); err != nil {
				log.Printf("⚠️ Database health check failed: %v", err)
			}
		case <-s.stopCh:
			return
		}
	}
}
