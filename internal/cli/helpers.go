package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/cmipget/internal/logger"
	"github.com/glorpus-work/cmipget/pkg/config"
	"github.com/glorpus-work/cmipget/pkg/download"
	"github.com/glorpus-work/cmipget/pkg/hooks"
	"github.com/glorpus-work/cmipget/pkg/netcdf"
	"github.com/glorpus-work/cmipget/pkg/nodes"
	"github.com/glorpus-work/cmipget/pkg/orchestrator"
	"github.com/glorpus-work/cmipget/pkg/search"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	LogLevel   *string
)

// loadConfig loads the configuration and initializes logging.
func loadConfig() (*config.Config, error) {
	configPath := ""
	if ConfigPath != nil {
		configPath = *ConfigPath
	}
	if configPath == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get default config path: %w", err)
		}
		configPath = defaultPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if LogLevel != nil && *LogLevel != "" {
		cfg.Settings.LogLevel = *LogLevel
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	logger.InitLogger(cfg.Settings.LogLevel)

	return cfg, nil
}

// newSearchClient wires the search client with its file-backed result cache.
func newSearchClient(cfg *config.Config) *search.Client {
	cache := search.NewCache(cfg.GetSearchCacheDir(), cfg.Settings.SearchCacheTTL)
	return search.NewClient(cfg.IndexNodes, cfg.Settings.SearchTimeout, cfg.Settings.MaxConcurrentSearches, cache)
}

// newNodesClient wires the node-status client with its TTL cache.
func newNodesClient(cfg *config.Config) *nodes.Client {
	return nodes.NewClient(cfg.Settings.NodeStatusURL, nodes.DefaultCacheFile(cfg.GetCacheDir()),
		cfg.Settings.SearchTimeout, cfg.Settings.NodeStatusTTL)
}

// newDownloadManager wires the verified transfer engine. Pre-existing files
// are trusted only if they look like valid NetCDF.
func newDownloadManager(cfg *config.Config) *download.ManagerImpl {
	return download.NewManager(cfg.Settings.DownloadTimeout, "", netcdf.Valid)
}

// newOrchestrator assembles the full pipeline behind human-friendly progress
// output.
func newOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, error) {
	runner := hooks.NewHookManager()
	if err := hooks.LoadHooksFromDir(runner, cfg.Settings.HooksDir); err != nil {
		return nil, fmt.Errorf("failed to load hooks: %w", err)
	}

	progress := orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		if e.ID != "" {
			fmt.Printf("%s: %s %s\n", e.Phase, e.ID, e.Msg)
		} else {
			fmt.Printf("%s: %s\n", e.Phase, e.Msg)
		}
	}}

	return orchestrator.New(newSearchClient(cfg), newNodesClient(cfg), newDownloadManager(cfg), runner, progress), nil
}

// parseQuery turns facet=value arguments into a search query. Values may be
// comma-separated, e.g. "experiment_id=historical,ssp585".
func parseQuery(args []string) (search.Query, error) {
	query := make(search.Query, len(args))
	for _, arg := range args {
		facet, value, ok := strings.Cut(arg, "=")
		if !ok || facet == "" || value == "" {
			return nil, fmt.Errorf("invalid facet %q, expected facet=value", arg)
		}
		query[facet] = append(query[facet], strings.Split(value, ",")...)
	}
	return query, nil
}

// resolveDestDir turns the --dest flag into the absolute destination root.
func resolveDestDir(cfg *config.Config, dest string) (string, error) {
	if dest == "" {
		dest = cfg.GetDataDir()
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination %q: %w", dest, err)
	}
	return abs, nil
}
