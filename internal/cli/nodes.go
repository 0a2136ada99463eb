package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewNodesCmd creates the nodes command.
func NewNodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Show federation node status",
		Long:  "Fetch and display the reachability of the federation's data nodes",
		RunE:  runNodes,
	}

	return cmd
}

func runNodes(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	status, err := newNodesClient(cfg).Fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch node status: %w", err)
	}

	mirrors := make([]string, 0, len(status))
	for mirror := range status {
		mirrors = append(mirrors, mirror)
	}
	sort.Strings(mirrors)

	up := 0
	for _, mirror := range mirrors {
		state := "DOWN"
		if status[mirror] {
			state = "UP"
			up++
		}
		fmt.Printf("%-50s %s\n", mirror, state)
	}
	fmt.Printf("\n%d of %d nodes up\n", up, len(mirrors))
	return nil
}
