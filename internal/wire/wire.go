// Package wire provides dependency injection for the mulch application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	cliadapter "github.com/example/mulch/internal/adapters/cli"
	"github.com/example/mulch/internal/adapters/filesystem"
	"github.com/example/mulch/internal/adapters/git"
	"github.com/example/mulch/internal/adapters/sqlite"
	"github.com/example/mulch/internal/app"
	"github.com/example/mulch/internal/config"
	"github.com/example/mulch/internal/db"
	"github.com/example/mulch/internal/ports/primary"
	"github.com/example/mulch/internal/ports/secondary"
)

var (
	root   = "."
	logger = zap.NewNop()

	expertiseService primary.ExpertiseService
	initErr          error
	once             sync.Once
)

// Configure sets the repository root and logger used by every service.
// It must be called before the first service is requested.
func Configure(repoRoot string, l *zap.Logger) {
	root = repoRoot
	if l != nil {
		logger = l
	}
}

// Root returns the configured repository root.
func Root() string {
	return root
}

// Logger returns the configured logger.
func Logger() *zap.Logger {
	return logger
}

// ExpertiseService returns the singleton ExpertiseService instance.
// It fails when the root has not been initialized.
func ExpertiseService() (primary.ExpertiseService, error) {
	once.Do(initServices)
	return expertiseService, initErr
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cfg, err := config.Load(root)
	if err != nil {
		initErr = err
		return
	}

	// Create secondary adapters
	store := filesystem.NewRecordStore()
	changes := git.NewChangeSource()
	openIndex := func() (secondary.SearchIndex, error) {
		database, err := db.Open(config.IndexPath(root))
		if err != nil {
			return nil, err
		}
		return sqlite.NewSearchIndex(database), nil
	}

	logger.Debug("services initialized",
		zap.String("root", root),
		zap.Strings("domains", cfg.Domains))

	expertiseService = app.NewExpertiseService(root, cfg, store, changes, openIndex, logger)
}

// ExpertiseAdapter returns a new ExpertiseAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ExpertiseAdapter() (*cliadapter.ExpertiseAdapter, error) {
	return ExpertiseAdapterWithOutput(os.Stdout)
}

// ExpertiseAdapterWithOutput returns a new ExpertiseAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func ExpertiseAdapterWithOutput(out io.Writer) (*cliadapter.ExpertiseAdapter, error) {
	service, err := ExpertiseService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewExpertiseAdapter(service, out), nil
}
