// Package primary defines the primary ports (driving adapters) for the application.
package primary

import (
	"context"
	"fmt"
	"time"

	"github.com/example/mulch/internal/models"
)

// ExpertiseService defines the primary port for knowledge-base operations.
type ExpertiseService interface {
	// Domains returns the configured domain names in config order.
	Domains(ctx context.Context) []string

	// AddDomain registers a domain and creates its empty record file.
	AddDomain(ctx context.Context, name string) error

	// RecordExpertise validates and appends one record to a domain.
	RecordExpertise(ctx context.Context, req RecordRequest) (*RecordResponse, error)

	// Query loads the records of one domain, or of all domains when empty.
	Query(ctx context.Context, req QueryRequest) ([]DomainRecords, error)

	// Search runs a substring search across domains.
	Search(ctx context.Context, req SearchRequest) ([]DomainRecords, error)

	// Prune drops stale records from every domain.
	Prune(ctx context.Context, req PruneRequest) (*PruneResult, error)

	// Diff extracts record-level changes to the expertise files since ref.
	Diff(ctx context.Context, ref string) ([]DomainChanges, error)

	// Learn maps files changed since ref to the domains that declare them.
	Learn(ctx context.Context, ref string) (*LearnResult, error)

	// Status summarizes record counts, staleness, and governance per domain.
	Status(ctx context.Context) ([]DomainStatus, error)

	// Validate strictly reads every domain and reports each failure.
	Validate(ctx context.Context) ([]ValidationIssue, error)

	// Inspect leniently reads every domain and counts malformed lines.
	Inspect(ctx context.Context) ([]DomainHealth, error)

	// RebuildIndex rebuilds the derived search index. Returns records indexed.
	RebuildIndex(ctx context.Context) (int, error)
}

// RecordRequest contains parameters for recording expertise.
// Only the fields of the chosen Type are used.
type RecordRequest struct {
	Domain         string
	Type           models.RecordType
	Classification models.Classification

	Content     string
	Name        string
	Description string
	Resolution  string
	Title       string
	Rationale   string
	Date        string
	Files       []string

	Tags     []string
	Evidence *models.Evidence
}

// RecordResponse contains the record as written.
type RecordResponse struct {
	Domain string
	Record models.Record
}

// QueryRequest contains parameters for loading records.
type QueryRequest struct {
	Domain string // empty means all domains
	Type   models.RecordType
}

// SearchRequest contains parameters for searching records.
type SearchRequest struct {
	Query           string
	Domain          string // empty means all domains
	Type            models.RecordType
	Classification  models.Classification
	CaseInsensitive bool
	UseIndex        bool
}

// DomainRecords is a domain's records in file order.
type DomainRecords struct {
	Domain  string
	Records []models.Record
}

// PruneRequest contains parameters for pruning.
type PruneRequest struct {
	DryRun bool
	Now    time.Time // zero means the service clock
}

// DomainPruneReport describes one domain that had expired records.
type DomainPruneReport struct {
	Domain string
	Before int
	Pruned int
	After  int
}

// PruneResult aggregates a prune run. Reports lists only domains with
// expired records, in config order.
type PruneResult struct {
	DryRun      bool
	Reports     []DomainPruneReport
	TotalPruned int
}

// PruneError reports the domain a prune run stopped on. Result holds the
// domains already rewritten before the failure; those are not rolled back.
type PruneError struct {
	Domain string
	Result *PruneResult
	Err    error
}

func (e *PruneError) Error() string {
	return fmt.Sprintf("failed to prune domain %s: %v", e.Domain, e.Err)
}

func (e *PruneError) Unwrap() error { return e.Err }

// DomainChanges holds the records added to and removed from one domain.
type DomainChanges struct {
	Domain  string
	Added   []models.Record
	Removed []models.Record
}

// DomainMatch lists changed files that belong to one domain.
type DomainMatch struct {
	Domain       string
	MatchedFiles []string
	RecordCount  int
}

// LearnResult maps changed files to domains.
type LearnResult struct {
	ChangedFiles []string
	Matches      []DomainMatch
	Unmatched    []string
}

// Governance states reported by Status.
const (
	GovernanceOK   = "ok"
	GovernanceWarn = "warn"
	GovernanceOver = "over"
)

// DomainStatus summarizes one domain.
type DomainStatus struct {
	Domain       string
	Records      int
	Stale        int
	ByType       map[models.RecordType]int
	LastRecorded time.Time
	Governance   string
	MaxEntries   int
}

// ValidationIssue is one problem found by Validate.
type ValidationIssue struct {
	Domain string
	Err    error
}

// DomainHealth is the lenient-read view of one domain file.
type DomainHealth struct {
	Domain    string
	Exists    bool
	Records   int
	Malformed int
}
