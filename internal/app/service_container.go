package app

import (
	"fmt"
	"log"
	"sync"
	"time"

	"sync-backend/internal/clients"
	"sync-backend/internal/config"
	"sync-backend/internal/db"
	"sync-backend/internal/repository"
	"sync-backend/internal/services"

	"gorm.io/gorm"
)

// ServiceContainer central dependency wiring
type ServiceContainer struct {
	// Database
	DB *gorm.DB

	// Repositories
	TransferRepo repository.TransferRepository
	WalletRepo   repository.WalletRepository
	AccountRepo  repository.AccountRepository
	CursorRepo   repository.SyncCursorRepository
	TokenRepo    repository.TokenInfoRepository

	// Clients
	IndexerClient *clients.IndexerClient
	NATSClient    *clients.NATSClient

	// Core services
	Classifier      *services.Classifier
	ResolverService *services.ResolverService
	SyncService     *services.SyncService

	// Side-channel services
	NotificationService  *services.NotificationService
	WebSocketPushService *services.WebSocketPushService
	SchedulerService     *services.SchedulerService
	MonitoringService    *services.MonitoringService
}

// Global service container instance
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the container exactly once
func InitializeContainer() (*ServiceContainer, error) {
	var initErr error

	containerOnce.Do(func() {
		log.Println("🚀 Initializing Service Container...")

		container := &ServiceContainer{
			DB: db.DB,
		}

		container.initRepositories()

		if err := container.initCoreServices(); err != nil {
			initErr = fmt.Errorf("failed to initialize core services: %w", err)
			return
		}

		// Notifications are optional: the engine runs without a broker
		if err := container.initNotificationServices(); err != nil {
			log.Printf("⚠️ Notification services disabled: %v", err)
		}

		Container = container
		log.Println("✅ Service Container initialized successfully")
	})

	return Container, initErr
}

// initRepositories wires the gorm repositories
func (c *ServiceContainer) initRepositories() {
	log.Println("📦 Initializing Repositories...")

	c.TransferRepo = repository.NewTransferRepository(c.DB)
	c.WalletRepo = repository.NewWalletRepository(c.DB)
	c.AccountRepo = repository.NewAccountRepository(c.DB)
	c.CursorRepo = repository.NewSyncCursorRepository(c.DB)
	c.TokenRepo = repository.NewTokenInfoRepository(c.DB)
}

// initCoreServices wires the sync engine
func (c *ServiceContainer) initCoreServices() error {
	log.Println("⚙️  Initializing Core Services...")

	if config.AppConfig == nil {
		return fmt.Errorf("configuration not loaded")
	}

	c.IndexerClient = clients.NewIndexerClient(config.AppConfig.Indexer.BaseURL)

	tokenTTL := time.Duration(config.AppConfig.Sync.TokenCacheTTL) * time.Second
	if tokenTTL <= 0 {
		tokenTTL = 10 * time.Minute
	}
	tokenCache := services.NewTokenMetadataCache(tokenTTL, nil)

	c.Classifier = services.NewClassifier()
	c.ResolverService = services.NewResolverService(c.WalletRepo, c.TokenRepo, tokenCache)
	c.SyncService = services.NewSyncService(
		c.IndexerClient,
		c.TransferRepo,
		c.WalletRepo,
		c.CursorRepo,
		c.ResolverService,
		c.Classifier,
	)

	c.WebSocketPushService = services.NewWebSocketPushService()
	c.SyncService.SetPusher(c.WebSocketPushService)

	syncInterval := time.Duration(config.AppConfig.Sync.SchedulerInterval) * time.Minute
	c.SchedulerService = services.NewSchedulerService(c.SyncService, syncInterval)
	c.MonitoringService = services.NewMonitoringService(30 * time.Second)

	return nil
}

// initNotificationServices wires the NATS-backed dispatcher when configured
func (c *ServiceContainer) initNotificationServices() error {
	if !config.AppConfig.NATS.Enabled || config.AppConfig.NATS.URL == "" {
		return fmt.Errorf("NATS not configured")
	}

	natsClient, err := clients.NewNATSClient(config.AppConfig.NATS.URL, config.AppConfig.NATS.StreamName)
	if err != nil {
		return err
	}
	c.NATSClient = natsClient

	c.NotificationService = services.NewNotificationService(
		natsClient,
		c.AccountRepo,
		config.AppConfig.Sync.NotificationBuffer,
	)
	c.SyncService.SetNotifier(c.NotificationService)

	return nil
}

// Start launches the background services
func (c *ServiceContainer) Start() {
	c.WebSocketPushService.Start()
	if c.NotificationService != nil {
		c.NotificationService.Start()
	}
	c.MonitoringService.Start()
	c.SchedulerService.Start()
}

// Stop shuts the background services down in reverse order
func (c *ServiceContainer) Stop() {
	c.SchedulerService.Stop()
	c.MonitoringService.Stop()
	if c.NotificationService != nil {
		c.NotificationService.Stop()
	}
	c.WebSocketPushService.Stop()
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
}
