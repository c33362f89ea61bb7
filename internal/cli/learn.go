package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/wire"
)

// LearnCmd returns the learn command
func LearnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learn [ref]",
		Short: "Suggest domains to update for files changed since a git ref",
		Long: `Collect files changed since ref (default HEAD~1), including staged and
unstaged changes, and match them against the files declared by each
domain's pattern and reference records.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := defaultRef
			if len(args) == 1 {
				ref = args[0]
			}

			adapter, err := wire.ExpertiseAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Learn(cmd.Context(), ref)
			return err
		},
	}
}
