// Package git adapts the git command line to the ChangeSource port.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/example/mulch/internal/ports/secondary"
)

// runFunc executes git with args in dir and returns stdout.
type runFunc func(ctx context.Context, dir string, args ...string) (string, error)

// ChangeSource implements secondary.ChangeSource by shelling out to git.
type ChangeSource struct {
	run runFunc
}

// NewChangeSource creates a ChangeSource that runs the git binary on PATH.
func NewChangeSource() *ChangeSource {
	return &ChangeSource{run: runGit}
}

// Diff returns `git diff <ref> -- <paths>` for the repository at root.
func (c *ChangeSource) Diff(ctx context.Context, root, ref string, paths ...string) (string, error) {
	args := []string{"diff", ref}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := c.run(ctx, root, args...)
	if err != nil {
		return "", fmt.Errorf("git diff failed: %w", err)
	}
	return out, nil
}

// ChangedFiles unions files changed between ref and HEAD, staged files, and
// unstaged files.
func (c *ChangeSource) ChangedFiles(ctx context.Context, root, ref string) ([]string, error) {
	queries := [][]string{
		{"diff", "--name-only", ref, "HEAD"},
		{"diff", "--name-only", "--cached"},
		{"diff", "--name-only"},
	}

	seen := make(map[string]bool)
	var files []string
	for _, args := range queries {
		out, err := c.run(ctx, root, args...)
		if err != nil {
			return nil, fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
		}
		for _, line := range strings.Split(out, "\n") {
			f := strings.TrimSpace(line)
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			files = append(files, f)
		}
	}
	sort.Strings(files)
	return files, nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Ensure ChangeSource implements the interface
var _ secondary.ChangeSource = (*ChangeSource)(nil)
