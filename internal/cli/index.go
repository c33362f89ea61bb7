package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/wire"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the SQLite search index",
		Long: `Rebuild .mulch/index.db from the record files. The index is derived
data: it is gitignored and can be deleted at any time. 'mulch search --indexed'
reads from it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ExpertiseAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Index(cmd.Context())
			return err
		},
	}
}
