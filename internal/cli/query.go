package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/models"
	"github.com/example/mulch/internal/ports/primary"
	"github.com/example/mulch/internal/wire"
)

// QueryCmd returns the query command
func QueryCmd() *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "query [domain]",
		Short: "List the records of one domain or of all domains",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.QueryRequest{Type: models.RecordType(typ)}
			if len(args) == 1 {
				req.Domain = args[0]
			}

			adapter, err := wire.ExpertiseAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Query(cmd.Context(), req)
			return err
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "Only show records of this type")

	return cmd
}
