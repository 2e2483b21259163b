package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFromYaml(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
database:
  dsn: "host=localhost user=sync dbname=sync"
indexer:
  base_url: "https://indexer.example.com"
  page_size: 50
sync:
  max_concurrent_fetches: 8
networks:
  ethereum:
    networkId: 1
    name: "Ethereum"
    enabled: true
  polygon:
    networkId: 137
    name: "Polygon"
    enabled: false
`)

	prev := AppConfig
	defer func() { AppConfig = prev }()

	require.NoError(t, LoadConfig(path))

	assert.Equal(t, 9090, AppConfig.Server.Port)
	assert.Equal(t, "0.0.0.0", AppConfig.Server.Host, "yaml silence keeps the default")
	assert.Equal(t, 50, AppConfig.Indexer.PageSize)
	assert.Equal(t, 8, AppConfig.Sync.MaxConcurrentFetches)
	assert.Equal(t, 5, AppConfig.Sync.FirstSyncMaxPages)
	assert.Equal(t, 1, AppConfig.Sync.IncrementalMaxPages)

	enabled := EnabledNetworks()
	require.Len(t, enabled, 1)
	assert.Equal(t, uint32(1), enabled[0].NetworkID)

	network, err := GetNetworkConfig("polygon")
	require.NoError(t, err)
	assert.False(t, network.Enabled)

	_, err = GetNetworkConfig("solana")
	assert.Error(t, err)
}

func TestLoadConfigEnvOverridesYaml(t *testing.T) {
	path := writeConfigFile(t, `
database:
  dsn: "from-yaml"
indexer:
  base_url: "https://yaml.example.com"
`)

	t.Setenv("DATABASE_DSN", "from-env")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("SYNC_MAX_CONCURRENT_FETCHES", "20")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	prev := AppConfig
	defer func() { AppConfig = prev }()

	require.NoError(t, LoadConfig(path))

	assert.Equal(t, "from-env", AppConfig.Database.DSN)
	assert.Equal(t, "https://yaml.example.com", AppConfig.Indexer.BaseURL)
	assert.Equal(t, 7070, AppConfig.Server.Port)
	assert.Equal(t, 20, AppConfig.Sync.MaxConcurrentFetches)
	assert.True(t, AppConfig.NATS.Enabled, "NATS_URL implies enabled")
}

func TestLoadConfigRequiresDSNAndIndexer(t *testing.T) {
	prev := AppConfig
	defer func() { AppConfig = prev }()

	path := writeConfigFile(t, `
indexer:
  base_url: "https://indexer.example.com"
`)
	err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")

	path = writeConfigFile(t, `
database:
  dsn: "host=localhost"
`)
	err = LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexer")
}

func TestLoadConfigMissingFile(t *testing.T) {
	prev := AppConfig
	defer func() { AppConfig = prev }()

	err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
