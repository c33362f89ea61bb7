package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/app"
	"github.com/example/mulch/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a .mulch directory in the repository",
		Long: `Create .mulch/ with the expertise directory, a default config,
a .gitattributes that union-merges record files, and a .gitignore for the
derived search index. Existing files are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Initialize(wire.Root())
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}

			if len(result.Created) == 0 {
				fmt.Println("✓ Already initialized")
				return nil
			}

			for _, p := range result.Created {
				rel, err := filepath.Rel(result.Root, p)
				if err != nil {
					rel = p
				}
				fmt.Printf("✓ Created %s\n", rel)
			}
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  mulch add cli")
			fmt.Println("  mulch record cli --type convention \"Use ESM imports\"")
			return nil
		},
	}
}
