package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/mulch/internal/logging"
	"github.com/example/mulch/internal/version"
	"github.com/example/mulch/internal/wire"
)

// RootCmd returns the mulch root command with every subcommand attached.
func RootCmd() *cobra.Command {
	var (
		root    string
		verbose bool
		logger  *zap.Logger
	)

	rootCmd := &cobra.Command{
		Use:     "mulch",
		Short:   "mulch - structured expertise for your repository",
		Version: version.String(),
		Long: `mulch records project expertise (conventions, patterns, failures,
decisions, references, guides) as append-only JSONL files under .mulch/,
one file per domain, so it travels with the code in git.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(verbose)
			if err != nil {
				return err
			}

			if root == "" {
				if root, err = os.Getwd(); err != nil {
					return fmt.Errorf("failed to get working directory: %w", err)
				}
			}
			abs, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("failed to resolve root %s: %w", root, err)
			}

			wire.Configure(abs, logger)
			logger.Debug("command starting", zap.String("command", cmd.CommandPath()), zap.String("root", abs))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&root, "root", "", "Repository root (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(InitCmd())
	rootCmd.AddCommand(AddCmd())
	rootCmd.AddCommand(RecordCmd())
	rootCmd.AddCommand(QueryCmd())
	rootCmd.AddCommand(SearchCmd())
	rootCmd.AddCommand(PruneCmd())
	rootCmd.AddCommand(DiffCmd())
	rootCmd.AddCommand(LearnCmd())
	rootCmd.AddCommand(StatusCmd())
	rootCmd.AddCommand(ValidateCmd())
	rootCmd.AddCommand(DoctorCmd())
	rootCmd.AddCommand(PrimeCmd())
	rootCmd.AddCommand(IndexCmd())

	return rootCmd
}
