// Package secondary defines the secondary ports (driven adapters) for the application.
package secondary

import (
	"context"

	"github.com/example/mulch/internal/core/search"
	"github.com/example/mulch/internal/models"
)

// RecordStore is the append-only log behind each domain file.
// A missing file is an empty log for every read.
type RecordStore interface {
	// ReadAll decodes every record in file order. A line that fails to
	// decode is a hard error.
	ReadAll(path string) ([]models.Record, error)

	// ReadAllLenient decodes what it can and reports how many non-blank
	// lines it skipped.
	ReadAllLenient(path string) ([]models.Record, int, error)

	// Append adds one record to the end of the file, creating it if needed.
	Append(path string, r models.Record) error

	// CreateEmpty ensures the file exists without touching existing lines.
	CreateEmpty(path string) error

	// WriteAll atomically replaces the file with the given records.
	WriteAll(path string, records []models.Record) error
}

// ChangeSource reads version-control state for the repository at root.
type ChangeSource interface {
	// Diff returns unified-diff text for paths (relative to root) since ref.
	Diff(ctx context.Context, root, ref string, paths ...string) (string, error)

	// ChangedFiles returns the union of files committed since ref, staged,
	// and unstaged, deduplicated and sorted.
	ChangedFiles(ctx context.Context, root, ref string) ([]string, error)
}

// IndexedDomain is one domain's records as handed to the search index.
type IndexedDomain struct {
	Domain  string
	Records []models.Record
}

// SearchIndex is a derived, rebuildable query index over the record files.
type SearchIndex interface {
	// Rebuild replaces the index contents.
	Rebuild(ctx context.Context, domains []IndexedDomain) error

	// Search returns matching records grouped by domain, in index order.
	// Domains with no match are omitted.
	Search(ctx context.Context, query string, opts search.Options) ([]IndexedDomain, error)

	Close() error
}
