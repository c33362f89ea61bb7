package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/models"
	"github.com/example/mulch/internal/ports/primary"
	"github.com/example/mulch/internal/wire"
)

// RecordCmd returns the record command
func RecordCmd() *cobra.Command {
	var (
		req      primary.RecordRequest
		typ      string
		class    string
		evidence models.Evidence
	)

	cmd := &cobra.Command{
		Use:   "record <domain> [content]",
		Short: "Record a piece of expertise in a domain",
		Long: fmt.Sprintf(`Append one record to a domain's record file.

Types and their required flags:
  convention   --content (or positional content)
  pattern      --name --description [--files]
  failure      --description --resolution
  decision     --title --rationale [--date]
  reference    --name --description [--files]
  guide        --name --description

Classifications: %s (default tactical).

Examples:
  mulch record cli --type convention "Use ESM imports"
  mulch record cli --type pattern --name loader --description "lazy-load commands" --files src/cli.ts
  mulch record storage --type decision --title "Use SQLite" --rationale "embedded" --classification foundational`,
			joinClassifications()),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Domain = args[0]
			req.Type = models.RecordType(typ)
			req.Classification = models.Classification(class)
			if len(args) == 2 && req.Content == "" {
				req.Content = args[1]
			}
			if !evidence.IsZero() {
				req.Evidence = &evidence
			}

			adapter, err := wire.ExpertiseAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Record(cmd.Context(), req)
			return err
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "Record type (required)")
	cmd.Flags().StringVarP(&class, "classification", "c", "", "Classification (foundational, tactical, observational)")
	cmd.Flags().StringVar(&req.Content, "content", "", "Convention content")
	cmd.Flags().StringVar(&req.Name, "name", "", "Pattern, reference, or guide name")
	cmd.Flags().StringVar(&req.Description, "description", "", "Description")
	cmd.Flags().StringVar(&req.Resolution, "resolution", "", "Failure resolution")
	cmd.Flags().StringVar(&req.Title, "title", "", "Decision title")
	cmd.Flags().StringVar(&req.Rationale, "rationale", "", "Decision rationale")
	cmd.Flags().StringVar(&req.Date, "date", "", "Decision date")
	cmd.Flags().StringSliceVar(&req.Files, "files", nil, "Related files (pattern, reference)")
	cmd.Flags().StringSliceVar(&req.Tags, "tags", nil, "Tags")
	cmd.Flags().StringVar(&evidence.Commit, "evidence-commit", "", "Evidence: commit")
	cmd.Flags().StringVar(&evidence.Issue, "evidence-issue", "", "Evidence: issue")
	cmd.Flags().StringVar(&evidence.File, "evidence-file", "", "Evidence: file")
	cmd.Flags().StringVar(&evidence.Date, "evidence-date", "", "Evidence: date")
	cmd.MarkFlagRequired("type")

	return cmd
}

func joinClassifications() string {
	names := make([]string, len(models.Classifications))
	for i, c := range models.Classifications {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
