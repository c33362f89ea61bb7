package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/mulch/internal/config"
	"github.com/example/mulch/internal/wire"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the mulch setup and record files",
		Long: `Health check for the .mulch directory.

Validates:
- Config file exists and parses
- Expertise directory exists
- Record files are union-merged by git (.gitattributes)
- git is available on PATH
- Every domain file exists and has no malformed lines

Examples:
  mulch doctor              # Run full health check
  mulch doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := wire.Root()
			results := []CheckResult{
				checkConfig(root),
				checkExpertiseDir(root),
				checkGitattributes(root),
				checkGit(),
			}

			// Domain files can only be inspected with a loadable config
			var domainOut bytes.Buffer
			if results[0].Status == "✓" {
				results = append(results, checkDomainFiles(cmd, &domainOut))
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check              Status")
				fmt.Println("─────────────────────────")
				for _, r := range results {
					fmt.Printf("%-18s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}
				if domainOut.Len() > 0 {
					fmt.Println()
					fmt.Print(domainOut.String())
				}

				if hasErrors {
					fmt.Println("\n⚠ Issues found. Run 'mulch validate' for line-level errors.")
				} else {
					fmt.Println("All checks passed.")
				}
			}

			if hasErrors {
				return fmt.Errorf("mulch health check failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

// checkConfig validates that the config file loads
func checkConfig(root string) CheckResult {
	if _, err := config.Load(root); err != nil {
		return CheckResult{Name: "Config", Status: "✗", Details: "  " + err.Error()}
	}
	return CheckResult{Name: "Config", Status: "✓"}
}

// checkExpertiseDir validates that the expertise directory exists
func checkExpertiseDir(root string) CheckResult {
	info, err := os.Stat(config.ExpertiseDir(root))
	if err != nil || !info.IsDir() {
		return CheckResult{
			Name:    "Expertise dir",
			Status:  "✗",
			Details: fmt.Sprintf("  Missing %s (run 'mulch init')", config.ExpertiseDir(root)),
		}
	}
	return CheckResult{Name: "Expertise dir", Status: "✓"}
}

// checkGitattributes validates that record files merge with the union driver
func checkGitattributes(root string) CheckResult {
	data, err := os.ReadFile(filepath.Join(config.MulchDir(root), ".gitattributes"))
	if err != nil || !strings.Contains(string(data), "merge=union") {
		return CheckResult{
			Name:    "Merge driver",
			Status:  "⚠",
			Details: "  .mulch/.gitattributes should contain '*.jsonl merge=union' (run 'mulch init')",
		}
	}
	return CheckResult{Name: "Merge driver", Status: "✓"}
}

// checkGit validates that git is on PATH
func checkGit() CheckResult {
	if _, err := exec.LookPath("git"); err != nil {
		return CheckResult{
			Name:    "git",
			Status:  "⚠",
			Details: "  git not found on PATH; 'mulch diff' and 'mulch learn' will fail",
		}
	}
	return CheckResult{Name: "git", Status: "✓"}
}

// checkDomainFiles leniently reads every domain file
func checkDomainFiles(cmd *cobra.Command, out *bytes.Buffer) CheckResult {
	adapter, err := wire.ExpertiseAdapterWithOutput(out)
	if err != nil {
		return CheckResult{Name: "Domain files", Status: "✗", Details: "  " + err.Error()}
	}
	healthy, err := adapter.Inspect(cmd.Context())
	if err != nil {
		return CheckResult{Name: "Domain files", Status: "✗", Details: "  " + err.Error()}
	}
	if !healthy {
		return CheckResult{
			Name:    "Domain files",
			Status:  "✗",
			Details: "  Some domain files are missing or contain malformed lines",
		}
	}
	return CheckResult{Name: "Domain files", Status: "✓"}
}
