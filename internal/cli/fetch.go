package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/cmipget/pkg/orchestrator"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	var (
		dest        string
		concurrency int
		spanStart   int
		spanEnd     int
		filterNodes bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "fetch facet=value...",
		Short: "Download matching datasets",
		Long: `Search the federation, reconcile the results into datasets and download
one verified, self-consistent copy of each. Replica classes are tried in
priority order until a complete copy succeeds. For example:

  cmipget fetch variable=tos experiment_id=historical --span-start 1850 --span-end 1900`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args, dest, concurrency, spanStart, spanEnd, filterNodes, dryRun)
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Destination root (defaults to the configured data dir)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of parallel transfers (0=config default)")
	cmd.Flags().IntVar(&spanStart, "span-start", 0, "Keep only files overlapping years from this year on")
	cmd.Flags().IntVar(&spanEnd, "span-end", 0, "Keep only files overlapping years before this year")
	cmd.Flags().BoolVar(&filterNodes, "filter-nodes", true, "Drop replicas hosted on unreachable mirrors")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Reconcile and print datasets without downloading")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string, dest string, concurrency, spanStart, spanEnd int, filterNodes, dryRun bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	query, err := parseQuery(args)
	if err != nil {
		return err
	}
	destDir, err := resolveDestDir(cfg, dest)
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.Settings.MaxConcurrent
	}

	orch, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}

	fetched, err := orch.Fetch(cmd.Context(), query, orchestrator.FetchOptions{
		FindOptions: orchestrator.FindOptions{
			SpanStart:   spanStart,
			SpanEnd:     spanEnd,
			FilterNodes: filterNodes,
		},
		DestDir:     destDir,
		Concurrency: concurrency,
		DryRun:      dryRun,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch datasets: %w", err)
	}

	total := 0
	for _, paths := range fetched {
		total += len(paths)
	}
	if !dryRun {
		fmt.Printf("Downloaded %d file(s) across %d dataset(s) below %s\n", total, len(fetched), destDir)
	}
	return nil
}
