package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/wire"
)

// PrimeCmd returns the prime command
func PrimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prime [domain...]",
		Short: "Output recorded expertise as markdown context",
		Long: `Render the records of the given domains (all domains when none are
given) as a markdown block suitable for priming an agent session.

Examples:
  mulch prime
  mulch prime cli storage`,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ExpertiseAdapter()
			if err != nil {
				return err
			}
			return adapter.Prime(cmd.Context(), args)
		},
	}
}
