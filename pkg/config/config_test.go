package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/cmipget/pkg/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, 240*time.Second, cfg.Settings.SearchTimeout)
	assert.Equal(t, 600*time.Second, cfg.Settings.DownloadTimeout)
	assert.Equal(t, 4, cfg.Settings.MaxConcurrent)
	assert.Equal(t, 4, cfg.Settings.MaxConcurrentSearches)
	assert.Len(t, cfg.IndexNodes, 9)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `index_nodes:
  - https://esgf-data.dkrz.de/esg-search/search
settings:
  data_dir: /data/cmip6
  log_level: debug
  max_concurrent_downloads: 8`

	err := os.WriteFile(configPath, []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"https://esgf-data.dkrz.de/esg-search/search"}, cfg.IndexNodes)
	assert.Equal(t, "/data/cmip6", cfg.Settings.DataDir)
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, 8, cfg.Settings.MaxConcurrent)
	// Missing values fall back to the defaults.
	assert.Equal(t, DefaultSearchTimeout, cfg.Settings.SearchTimeout)
	assert.Equal(t, DefaultNodeStatusURL, cfg.Settings.NodeStatusURL)
}

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().IndexNodes, cfg.IndexNodes)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)
}

func TestLoadConfigParseError(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("{not yaml"), 0o644))

	_, err := LoadConfig(configPath)
	assert.ErrorIs(t, err, errors.ErrConfigParse)
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Settings.DataDir = "/data/cmip6"

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "test-config.yaml")

	require.NoError(t, cfg.SaveConfig(configPath))

	loadedCfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", loadedCfg.Settings.LogLevel)
	assert.Equal(t, "/data/cmip6", loadedCfg.Settings.DataDir)
	assert.Equal(t, cfg.IndexNodes, loadedCfg.IndexNodes)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "no index nodes",
			mutate:  func(c *Config) { c.IndexNodes = nil },
			wantErr: "at least one index node",
		},
		{
			name:    "empty index node",
			mutate:  func(c *Config) { c.IndexNodes = []string{""} },
			wantErr: "URL cannot be empty",
		},
		{
			name: "duplicate index node",
			mutate: func(c *Config) {
				c.IndexNodes = []string{"https://a/esg-search/search", "https://a/esg-search/search"}
			},
			wantErr: "duplicate node",
		},
		{
			name:    "negative search timeout",
			mutate:  func(c *Config) { c.Settings.SearchTimeout = -time.Second },
			wantErr: "search_timeout",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Settings.MaxConcurrent = 0 },
			wantErr: "max_concurrent_downloads",
		},
		{
			name:    "zero search concurrency",
			mutate:  func(c *Config) { c.Settings.MaxConcurrentSearches = 0 },
			wantErr: "max_concurrent_searches",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Settings.LogLevel = "loud" },
			wantErr: "invalid log_level",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestGetSearchCacheDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.CacheDir = "/cache/cmipget"
	assert.Equal(t, filepath.Join("/cache/cmipget", "search"), cfg.GetSearchCacheDir())
}
