package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Layout of the store under the repository root.
const (
	MulchDirName     = ".mulch"
	ExpertiseDirName = "expertise"
	ConfigFileName   = "mulch.config.yaml"
	IndexFileName    = "index.db"
	RecordFileExt    = ".jsonl"
)

// Shelf-life defaults in days, used when the config omits a value.
const (
	DefaultTacticalDays      = 14
	DefaultObservationalDays = 30
)

// ErrNotInitialized is returned when no config file exists under the root.
var ErrNotInitialized = errors.New("mulch is not initialized here (run 'mulch init')")

// Config is the .mulch/mulch.config.yaml document.
type Config struct {
	Version                string                 `yaml:"version"`
	Domains                []string               `yaml:"domains"`
	Governance             Governance             `yaml:"governance"`
	ClassificationDefaults ClassificationDefaults `yaml:"classification_defaults"`
}

// Governance holds per-domain record-count thresholds reported by status.
type Governance struct {
	MaxEntries  int `yaml:"max_entries"`
	WarnEntries int `yaml:"warn_entries"`
	HardLimit   int `yaml:"hard_limit"`
}

// ClassificationDefaults groups settings keyed by classification.
type ClassificationDefaults struct {
	ShelfLife ShelfLife `yaml:"shelf_life"`
}

// ShelfLife is the number of days a record of each tier stays fresh.
type ShelfLife struct {
	Tactical      int `yaml:"tactical"`
	Observational int `yaml:"observational"`
}

// Default returns the config written by 'mulch init'.
func Default() *Config {
	return &Config{
		Version: "1",
		Domains: []string{},
		Governance: Governance{
			MaxEntries:  100,
			WarnEntries: 150,
			HardLimit:   200,
		},
		ClassificationDefaults: ClassificationDefaults{
			ShelfLife: ShelfLife{
				Tactical:      DefaultTacticalDays,
				Observational: DefaultObservationalDays,
			},
		},
	}
}

// Load reads .mulch/mulch.config.yaml under root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Domains == nil {
		cfg.Domains = []string{}
	}
	return cfg, nil
}

// Save writes cfg to .mulch/mulch.config.yaml under root.
func Save(root string, cfg *Config) error {
	if err := os.MkdirAll(MulchDir(root), 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", MulchDirName, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ShelfLife returns the configured shelf life, falling back to the defaults
// for missing or non-positive values.
func (c *Config) ShelfLife() ShelfLife {
	sl := c.ClassificationDefaults.ShelfLife
	if sl.Tactical <= 0 {
		sl.Tactical = DefaultTacticalDays
	}
	if sl.Observational <= 0 {
		sl.Observational = DefaultObservationalDays
	}
	return sl
}

// HasDomain reports whether name is a configured domain.
func (c *Config) HasDomain(name string) bool {
	for _, d := range c.Domains {
		if d == name {
			return true
		}
	}
	return false
}

// MulchDir returns <root>/.mulch.
func MulchDir(root string) string {
	return filepath.Join(root, MulchDirName)
}

// ConfigPath returns <root>/.mulch/mulch.config.yaml.
func ConfigPath(root string) string {
	return filepath.Join(MulchDir(root), ConfigFileName)
}

// ExpertiseDir returns <root>/.mulch/expertise.
func ExpertiseDir(root string) string {
	return filepath.Join(MulchDir(root), ExpertiseDirName)
}

// DomainPath returns <root>/.mulch/expertise/<domain>.jsonl.
// The caller is responsible for validating the domain name.
func DomainPath(root, domain string) string {
	return filepath.Join(ExpertiseDir(root), domain+RecordFileExt)
}

// IndexPath returns the location of the derived search index.
func IndexPath(root string) string {
	return filepath.Join(MulchDir(root), IndexFileName)
}
