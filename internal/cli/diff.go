package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/wire"
)

const defaultRef = "HEAD~1"

// DiffCmd returns the diff command
func DiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff [ref]",
		Short: "Show records added and removed since a git ref",
		Long: `Read the git diff of .mulch/expertise since ref (default HEAD~1) and
show which records each domain gained or lost. An edited record shows up
as one removal and one addition.`,
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
			_, err = adapter.Diff(cmd.Context(), ref)
			return err
		},
	}
}
