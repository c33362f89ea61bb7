package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/example/mulch/internal/config"
)

// Contents of the helper files written by Initialize.
const (
	gitattributesContent = "*.jsonl merge=union\n"
	gitignoreContent     = config.IndexFileName + "\n"
)

// InitResult lists what Initialize created. Existing files are left alone
// and do not appear here.
type InitResult struct {
	Root    string
	Created []string
}

// Initialize lays out the .mulch directory under root: the expertise
// directory, a default config, a .gitattributes that union-merges record
// files, and a .gitignore for the derived index. Running it twice is safe.
func Initialize(root string) (*InitResult, error) {
	result := &InitResult{Root: root}

	expertiseDir := config.ExpertiseDir(root)
	if _, err := os.Stat(expertiseDir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(expertiseDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create expertise dir: %w", err)
		}
		result.Created = append(result.Created, expertiseDir)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat expertise dir: %w", err)
	}

	configPath := config.ConfigPath(root)
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		if err := config.Save(root, config.Default()); err != nil {
			return nil, err
		}
		result.Created = append(result.Created, configPath)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	helpers := []struct {
		name    string
		content string
	}{
		{".gitattributes", gitattributesContent},
		{".gitignore", gitignoreContent},
	}
	for _, h := range helpers {
		p := filepath.Join(config.MulchDir(root), h.name)
		created, err := writeIfMissing(p, h.content)
		if err != nil {
			return nil, err
		}
		if created {
			result.Created = append(result.Created, p)
		}
	}
	return result, nil
}

func writeIfMissing(path, content string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
