package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/wire"
)

// AddCmd returns the add command
func AddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <domain>",
		Short: "Add an expertise domain",
		Long: `Register a domain in the config and create its empty record file.
Domain names start with a letter or digit and contain only letters, digits,
'_' or '-'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ExpertiseAdapter()
			if err != nil {
				return err
			}
			return adapter.AddDomain(cmd.Context(), args[0])
		},
	}
}
