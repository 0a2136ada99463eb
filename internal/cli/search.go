package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/cmipget/pkg/orchestrator"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	var (
		spanStart   int
		spanEnd     int
		filterNodes bool
	)

	cmd := &cobra.Command{
		Use:   "search facet=value...",
		Short: "Search the federation for datasets",
		Long: `Search every configured index node and reconcile the results into
downloadable datasets. Facets are given as facet=value pairs; values may be
comma-separated, e.g.

  cmipget search variable=tos experiment_id=historical,ssp585 source_id=AWI-CM-1-1-MR`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, spanStart, spanEnd, filterNodes)
		},
	}

	cmd.Flags().IntVar(&spanStart, "span-start", 0, "Keep only files overlapping years from this year on")
	cmd.Flags().IntVar(&spanEnd, "span-end", 0, "Keep only files overlapping years before this year")
	cmd.Flags().BoolVar(&filterNodes, "filter-nodes", false, "Drop replicas hosted on unreachable mirrors")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string, spanStart, spanEnd int, filterNodes bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	query, err := parseQuery(args)
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}
	// Quiet progress for search; the table is the output.
	orch.Hooks = orchestrator.Hooks{}

	datasets, err := orch.Find(cmd.Context(), query, orchestrator.FindOptions{
		SpanStart:   spanStart,
		SpanEnd:     spanEnd,
		FilterNodes: filterNodes,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(datasets) == 0 {
		fmt.Printf("No datasets found matching %s\n", query.Canonical())
		return nil
	}

	fmt.Printf("%-55s %6s %6s  %s\n", "DATASET", "FILES", "KEYS", "BEST KEY")
	fmt.Println(strings.Repeat("-", 100))
	for _, ds := range datasets {
		best := "none"
		if len(ds.CommonKeys) > 0 {
			best = ds.CommonKeys[0].String()
		}
		fmt.Printf("%-55s %6d %6d  %s\n", ds.Name, len(ds.Files), len(ds.CommonKeys), best)
	}
	fmt.Printf("\nFound %d dataset(s) matching %s\n", len(datasets), query.Canonical())

	return nil
}
