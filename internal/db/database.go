package db

import (
	"log"
	"time"

	"sync-backend/internal/config"
	"sync-backend/internal/metrics"
	"sync-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB connects to the database and migrates the schema
func InitDB() {
	var err error

	if config.AppConfig == nil || config.AppConfig.Database.DSN == "" {
		log.Fatalf("Database DSN is required")
	}

	dsn := config.AppConfig.Database.DSN

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		CreateBatchSize:                          500,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Println("✅ Database connected successfully")

	log.Println("🚀 Starting database schema migration with GORM AutoMigrate...")
	if err := DB.AutoMigrate(
		&models.Account{},
		&models.Wallet{},
		&models.Transfer{},
		&models.TokenInfo{},
		&models.SyncCursor{},
	); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	metrics.DBConnectionStatus.Set(1)
	log.Println("✅ Database schema migrated successfully")
}

// HealthCheck pings the database and updates the connection metrics
func HealthCheck() error {
	sqlDB, err := DB.DB()
	if err != nil {
		metrics.DBConnectionStatus.Set(0)
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		metrics.DBConnectionStatus.Set(0)
		return err
	}

	stats := sqlDB.Stats()
	metrics.DBConnectionActive.Set(float64(stats.InUse))
	metrics.DBConnectionIdle.Set(float64(stats.Idle))
	metrics.DBConnectionStatus.Set(1)
	return nil
}
