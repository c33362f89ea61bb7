package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/models"
	"github.com/example/mulch/internal/ports/primary"
	"github.com/example/mulch/internal/wire"
)

// SearchCmd returns the search command
func SearchCmd() *cobra.Command {
	var (
		req   primary.SearchRequest
		typ   string
		class string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search records for a substring",
		Long: `Search every text field, declared file, and tag of every record for a
substring. Matching is case-sensitive unless --ignore-case is given.

Use --indexed to answer from the SQLite index built by 'mulch index'.

Examples:
  mulch search ESM
  mulch search --ignore-case --domain cli loader
  mulch search --type failure timeout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Query = args[0]
			req.Type = models.RecordType(typ)
			req.Classification = models.Classification(class)

			adapter, err := wire.ExpertiseAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Search(cmd.Context(), req)
			return err
		},
	}

	cmd.Flags().StringVarP(&req.Domain, "domain", "d", "", "Only search this domain")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "Only match records of this type")
	cmd.Flags().StringVarP(&class, "classification", "c", "", "Only match records of this classification")
	cmd.Flags().BoolVarP(&req.CaseInsensitive, "ignore-case", "i", false, "Case-insensitive matching")
	cmd.Flags().BoolVar(&req.UseIndex, "indexed", false, "Search the SQLite index instead of the record files")

	return cmd
}
