package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/cmipget/pkg/archive"
)

// NewBundleCmd creates the bundle command with subcommands.
func NewBundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Bundle downloaded datasets",
		Long:  "Pack downloaded dataset trees into tar.gz bundles and restore them",
	}

	cmd.AddCommand(
		newBundleCreateCmd(),
		newBundleRestoreCmd(),
	)

	return cmd
}

func newBundleCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <source-dir> <bundle.tar.gz>",
		Short: "Create a bundle from a dataset tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			if err := archive.NewBundler().Create(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to create bundle: %w", err)
			}
			fmt.Printf("Created %s from %s\n", args[1], args[0])
			return nil
		},
	}
}

func newBundleRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <bundle.tar.gz> <dest-dir>",
		Short: "Restore a bundle below a destination directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			if err := archive.NewBundler().Restore(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to restore bundle: %w", err)
			}
			fmt.Printf("Restored %s below %s\n", args[0], args[1])
			return nil
		},
	}
}
