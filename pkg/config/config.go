// Package config provides configuration management for the cmipget download
// tool. It handles loading, validating, and saving application settings,
// including the federation index nodes to query. The package supports YAML
// configuration files and provides sensible defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/cmipget/pkg/errors"
	"github.com/glorpus-work/cmipget/pkg/fsutil"
)

// Config represents the application configuration.
type Config struct {
	// Index nodes queried during search. Every node is asked; results are
	// merged.
	IndexNodes []string `yaml:"index_nodes"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Storage settings
	DataDir  string `yaml:"data_dir,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty"`
	HooksDir string `yaml:"hooks_dir,omitempty"`

	// Federation settings
	NodeStatusURL string `yaml:"node_status_url,omitempty"`

	// Network settings
	SearchTimeout         time.Duration `yaml:"search_timeout"`
	DownloadTimeout       time.Duration `yaml:"download_timeout"`
	MaxConcurrent         int           `yaml:"max_concurrent_downloads"`
	MaxConcurrentSearches int           `yaml:"max_concurrent_searches"`

	// Cache settings
	SearchCacheTTL time.Duration `yaml:"search_cache_ttl"`
	NodeStatusTTL  time.Duration `yaml:"node_status_ttl"`

	// Output settings
	LogLevel string `yaml:"log_level"` // error, warn, info, debug
}

// Default configuration values.
const (
	// DefaultSearchTimeout bounds a single index node request.
	DefaultSearchTimeout = 240 * time.Second

	// DefaultDownloadTimeout bounds a single file transfer.
	DefaultDownloadTimeout = 600 * time.Second

	// DefaultMaxConcurrent is the default number of parallel transfers.
	DefaultMaxConcurrent = 4

	// DefaultMaxConcurrentSearches is the default number of index nodes
	// queried in parallel.
	DefaultMaxConcurrentSearches = 4

	// DefaultSearchCacheTTL is how long cached search results stay fresh.
	DefaultSearchCacheTTL = 24 * time.Hour

	// DefaultNodeStatusTTL is how long a cached node-status map stays fresh.
	DefaultNodeStatusTTL = 10 * time.Minute

	// DefaultNodeStatusURL serves the federation's node reachability map.
	DefaultNodeStatusURL = "https://aims2.llnl.gov/nodes"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultIndexNodes returns the federation index nodes queried when the
// configuration does not name its own.
func DefaultIndexNodes() []string {
	return []string{
		"https://esgf.ceda.ac.uk/esg-search/search",
		"https://esgf-node.llnl.gov/esg-search/search",
		"https://esgf-data.dkrz.de/esg-search/search",
		"https://esgf-node.ipsl.upmc.fr/esg-search/search",
		"https://esg-dn1.nsc.liu.se/esg-search/search",
		"https://esgf.nci.org.au/esg-search/search",
		"https://esgf.nccs.nasa.gov/esg-search/search",
		"https://esgdata.gfdl.noaa.gov/esg-search/search",
		"https://esgf-node.ornl.gov/esg-search/search",
	}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}

	return &Config{
		IndexNodes: DefaultIndexNodes(),
		Settings: Settings{
			DataDir:               ".",
			CacheDir:              filepath.Join(cacheDir, "cmipget"),
			HooksDir:              filepath.Join(configDir, "cmipget", "hooks"),
			NodeStatusURL:         DefaultNodeStatusURL,
			SearchTimeout:         DefaultSearchTimeout,
			DownloadTimeout:       DefaultDownloadTimeout,
			MaxConcurrent:         DefaultMaxConcurrent,
			MaxConcurrentSearches: DefaultMaxConcurrentSearches,
			SearchCacheTTL:        DefaultSearchCacheTTL,
			NodeStatusTTL:         DefaultNodeStatusTTL,
			LogLevel:              "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(err, "failed to create temp config file")
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	// Atomically replace the config file
	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to replace config file")
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if len(c.IndexNodes) == 0 {
		return fmt.Errorf("at least one index node is required")
	}
	seen := make(map[string]bool)
	for i, node := range c.IndexNodes {
		if node == "" {
			return fmt.Errorf("index node %d: URL cannot be empty", i)
		}
		if seen[node] {
			return fmt.Errorf("index node %q: duplicate node", node)
		}
		seen[node] = true
	}

	if c.Settings.SearchTimeout < 0 {
		return fmt.Errorf("search_timeout cannot be negative")
	}
	if c.Settings.DownloadTimeout < 0 {
		return fmt.Errorf("download_timeout cannot be negative")
	}
	if c.Settings.SearchCacheTTL < 0 {
		return fmt.Errorf("search_cache_ttl cannot be negative")
	}
	if c.Settings.NodeStatusTTL < 0 {
		return fmt.Errorf("node_status_ttl cannot be negative")
	}
	if c.Settings.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent_downloads must be at least 1")
	}
	if c.Settings.MaxConcurrentSearches < 1 {
		return fmt.Errorf("max_concurrent_searches must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Settings.LogLevel)] {
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", c.Settings.LogLevel)
	}
	return nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if len(c.IndexNodes) == 0 {
		c.IndexNodes = defaults.IndexNodes
	}
	if c.Settings.DataDir == "" {
		c.Settings.DataDir = defaults.Settings.DataDir
	}
	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.HooksDir == "" {
		c.Settings.HooksDir = defaults.Settings.HooksDir
	}
	if c.Settings.NodeStatusURL == "" {
		c.Settings.NodeStatusURL = defaults.Settings.NodeStatusURL
	}
	if c.Settings.SearchTimeout == 0 {
		c.Settings.SearchTimeout = defaults.Settings.SearchTimeout
	}
	if c.Settings.DownloadTimeout == 0 {
		c.Settings.DownloadTimeout = defaults.Settings.DownloadTimeout
	}
	if c.Settings.MaxConcurrent == 0 {
		c.Settings.MaxConcurrent = defaults.Settings.MaxConcurrent
	}
	if c.Settings.MaxConcurrentSearches == 0 {
		c.Settings.MaxConcurrentSearches = defaults.Settings.MaxConcurrentSearches
	}
	if c.Settings.SearchCacheTTL == 0 {
		c.Settings.SearchCacheTTL = defaults.Settings.SearchCacheTTL
	}
	if c.Settings.NodeStatusTTL == 0 {
		c.Settings.NodeStatusTTL = defaults.Settings.NodeStatusTTL
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "cmipget", "config.yaml"), nil
}

// GetDataDir returns the destination root for downloaded files.
func (c *Config) GetDataDir() string {
	return c.Settings.DataDir
}

// GetCacheDir returns the base cache directory from settings.
func (c *Config) GetCacheDir() string {
	return c.Settings.CacheDir
}

// GetSearchCacheDir returns the directory holding cached search results.
func (c *Config) GetSearchCacheDir() string {
	return filepath.Join(c.GetCacheDir(), "search")
}
