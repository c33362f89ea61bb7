package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/ports/primary"
	"github.com/example/mulch/internal/wire"
)

// PruneCmd returns the prune command
func PruneCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove stale tactical and observational records",
		Long: `Drop records whose age exceeds the shelf life of their classification.
Foundational records never expire. Shelf lives come from
classification_defaults.shelf_life in the config.

Domains are processed in config order. If rewriting one domain fails, the
domains already rewritten stay rewritten and the run stops.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ExpertiseAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Prune(cmd.Context(), primary.PruneRequest{DryRun: dryRun})
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be pruned without rewriting files")

	return cmd
}
