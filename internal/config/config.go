package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server   ServerConfig             `yaml:"server"`
	Database DatabaseConfig           `yaml:"database"`
	Indexer  IndexerConfig            `yaml:"indexer"`
	NATS     NATSConfig               `yaml:"nats"`
	Sync     SyncConfig               `yaml:"sync"`
	CORS     CORSConfig               `yaml:"cors"`
	Admin    AdminConfig              `yaml:"admin"`
	Networks map[string]NetworkConfig `yaml:"networks"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// IndexerConfig external chain-indexing API configuration
type IndexerConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	Timeout       int    `yaml:"timeout"`        // seconds
	PageSize      int    `yaml:"page_size"`      // events per page
	AssetCategory string `yaml:"asset_category"` // e.g. "erc20"
	MaxRetries    int    `yaml:"max_retries"`
}

// NATSConfig NATS message broker configuration
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
	StreamName    string `yaml:"stream_name"`
	Enabled       bool   `yaml:"enabled"`
}

// SyncConfig synchronization engine configuration
type SyncConfig struct {
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches"` // ceiling on simultaneous indexer calls
	FirstSyncMaxPages    int `yaml:"first_sync_max_pages"`   // page cap when no cursor exists
	IncrementalMaxPages  int `yaml:"incremental_max_pages"`  // page cap when a cursor exists
	SchedulerInterval    int `yaml:"scheduler_interval"`     // minutes between background runs
	NotificationBuffer   int `yaml:"notification_buffer"`    // dispatcher queue size
	TokenCacheTTL        int `yaml:"token_cache_ttl"`        // seconds
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// AdminConfig admin API access control configuration
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowed_ips"`
}

// NetworkConfig per-network configuration
type NetworkConfig struct {
	NetworkID uint32 `yaml:"networkId"`
	Name      string `yaml:"name"`
	Enabled   bool   `yaml:"enabled"`
}

// AppConfig global configuration instance
var AppConfig *Config

// LoadConfig loads configuration from a yaml file with env-var overrides
func LoadConfig(configPath string) error {
	// .env is optional, ignore if absent
	if err := godotenv.Load(); err == nil {
		log.Println("📋 Loaded environment from .env")
	}

	config := defaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Printf("📋 Loaded configuration from %s", configPath)
	} else {
		log.Println("⚠️  No config file provided, using defaults and environment variables")
	}

	overrideFromEnv(config)

	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set DATABASE_DSN or database.dsn)")
	}
	if config.Indexer.BaseURL == "" {
		return fmt.Errorf("indexer base URL is required (set INDEXER_BASE_URL or indexer.base_url)")
	}

	AppConfig = config
	return nil
}

// defaultConfig returns the built-in defaults
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		Indexer: IndexerConfig{
			Timeout:       30,
			PageSize:      100,
			AssetCategory: "erc20",
			MaxRetries:    3,
		},
		NATS: NATSConfig{
			Timeout:       10,
			ReconnectWait: 5,
			MaxReconnects: -1,
			StreamName:    "TRANSFERS",
		},
		Sync: SyncConfig{
			MaxConcurrentFetches: 15,
			FirstSyncMaxPages:    5,
			IncrementalMaxPages:  1,
			SchedulerInterval:    3,
			NotificationBuffer:   256,
			TokenCacheTTL:        600,
		},
		Networks: map[string]NetworkConfig{},
	}
}

// overrideFromEnv applies environment variable overrides
// Priority: environment variable > yaml > default
func overrideFromEnv(config *Config) {
	// Server configuration
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Database configuration
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	// Indexer configuration
	if baseURL := os.Getenv("INDEXER_BASE_URL"); baseURL != "" {
		config.Indexer.BaseURL = baseURL
	}
	if apiKey := os.Getenv("INDEXER_API_KEY"); apiKey != "" {
		config.Indexer.APIKey = apiKey
	}
	if timeout := os.Getenv("INDEXER_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.Indexer.Timeout = t
		}
	}

	// NATS configuration
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
		config.NATS.Enabled = true
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	// Sync configuration
	if v := os.Getenv("SYNC_MAX_CONCURRENT_FETCHES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Sync.MaxConcurrentFetches = n
		}
	}
	if v := os.Getenv("SYNC_SCHEDULER_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Sync.SchedulerInterval = n
		}
	}

	// Admin allowed IPs, comma-separated
	if ips := os.Getenv("ADMIN_ALLOWED_IPS"); ips != "" {
		parts := strings.Split(ips, ",")
		allowed := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				allowed = append(allowed, trimmed)
			}
		}
		config.Admin.AllowedIPs = allowed
	}
}

// EnabledNetworks returns the networks enabled for synchronization
func EnabledNetworks() []NetworkConfig {
	if AppConfig == nil {
		return nil
	}
	networks := make([]NetworkConfig, 0, len(AppConfig.Networks))
	for _, n := range AppConfig.Networks {
		if n.Enabled {
			networks = append(networks, n)
		}
	}
	return networks
}

// GetNetworkConfig looks up a network by name
func GetNetworkConfig(networkName string) (*NetworkConfig, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	for name, n := range AppConfig.Networks {
		if name == networkName || n.Name == networkName {
			return &n, nil
		}
	}
	return nil, fmt.Errorf("network %s not configured", networkName)
}
