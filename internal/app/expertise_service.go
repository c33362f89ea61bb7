package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/mulch/internal/config"
	"github.com/example/mulch/internal/core/diffextract"
	"github.com/example/mulch/internal/core/matcher"
	"github.com/example/mulch/internal/core/record"
	"github.com/example/mulch/internal/core/search"
	"github.com/example/mulch/internal/core/staleness"
	"github.com/example/mulch/internal/models"
	"github.com/example/mulch/internal/ports/primary"
	"github.com/example/mulch/internal/ports/secondary"
)

// ErrUnknownDomain is returned when a domain is not listed in the config.
var ErrUnknownDomain = errors.New("unknown domain")

// IndexOpener opens the derived search index on demand.
type IndexOpener func() (secondary.SearchIndex, error)

// ExpertiseServiceImpl implements the ExpertiseService interface.
type ExpertiseServiceImpl struct {
	root      string
	cfg       *config.Config
	store     secondary.RecordStore
	changes   secondary.ChangeSource
	openIndex IndexOpener
	logger    *zap.Logger
	now       func() time.Time
}

// NewExpertiseService creates a new ExpertiseService with injected dependencies.
func NewExpertiseService(
	root string,
	cfg *config.Config,
	store secondary.RecordStore,
	changes secondary.ChangeSource,
	openIndex IndexOpener,
	logger *zap.Logger,
) *ExpertiseServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpertiseServiceImpl{
		root:      root,
		cfg:       cfg,
		store:     store,
		changes:   changes,
		openIndex: openIndex,
		logger:    logger,
		now:       time.Now,
	}
}

// Domains returns the configured domain names in config order.
func (s *ExpertiseServiceImpl) Domains(ctx context.Context) []string {
	return append([]string(nil), s.cfg.Domains...)
}

// AddDomain registers a domain and creates its empty record file.
// Adding an existing domain only ensures the file exists.
func (s *ExpertiseServiceImpl) AddDomain(ctx context.Context, name string) error {
	if err := record.ValidateDomainName(name); err != nil {
		return err
	}

	if !s.cfg.HasDomain(name) {
		s.cfg.Domains = append(s.cfg.Domains, name)
		if err := config.Save(s.root, s.cfg); err != nil {
			return fmt.Errorf("failed to register domain %s: %w", name, err)
		}
		s.logger.Debug("domain registered", zap.String("domain", name))
	}

	if err := s.store.CreateEmpty(s.domainPath(name)); err != nil {
		return fmt.Errorf("failed to create domain file: %w", err)
	}
	return nil
}

// RecordExpertise validates and appends one record to a domain.
func (s *ExpertiseServiceImpl) RecordExpertise(ctx context.Context, req primary.RecordRequest) (*primary.RecordResponse, error) {
	if err := s.checkDomain(req.Domain); err != nil {
		return nil, err
	}

	classification := req.Classification
	if classification == "" {
		classification = models.Tactical
	}
	if !classification.Valid() {
		return nil, fmt.Errorf("%w: unknown classification %q", record.ErrInvalid, classification)
	}

	body, err := buildBody(req)
	if err != nil {
		return nil, err
	}

	rec := models.Record{
		Envelope: models.Envelope{
			ID:             newRecordID(),
			Classification: classification,
			RecordedAt:     s.now().UTC(),
			Evidence:       req.Evidence,
			Tags:           req.Tags,
		},
		Body: body,
	}
	if err := record.Validate(rec); err != nil {
		return nil, err
	}

	if err := s.store.Append(s.domainPath(req.Domain), rec); err != nil {
		return nil, fmt.Errorf("failed to record expertise: %w", err)
	}
	s.logger.Debug("record appended",
		zap.String("domain", req.Domain),
		zap.String("type", string(rec.Type())),
		zap.String("id", rec.ID))

	return &primary.RecordResponse{Domain: req.Domain, Record: rec}, nil
}

func buildBody(req primary.RecordRequest) (models.Body, error) {
	switch req.Type {
	case models.TypeConvention:
		return models.Convention{Content: req.Content}, nil
	case models.TypePattern:
		return models.Pattern{Name: req.Name, Description: req.Description, Files: req.Files}, nil
	case models.TypeFailure:
		return models.Failure{Description: req.Description, Resolution: req.Resolution}, nil
	case models.TypeDecision:
		return models.Decision{Title: req.Title, Rationale: req.Rationale, Date: req.Date}, nil
	case models.TypeReference:
		return models.Reference{Name: req.Name, Description: req.Description, Files: req.Files}, nil
	case models.TypeGuide:
		return models.Guide{Name: req.Name, Description: req.Description}, nil
	case "":
		return nil, fmt.Errorf("%w: missing record type", record.ErrInvalid)
	default:
		return nil, fmt.Errorf("%w: unknown record type %q", record.ErrInvalid, req.Type)
	}
}

// newRecordID returns "mx-" followed by eight hex characters.
func newRecordID() string {
	return "mx-" + uuid.NewString()[:8]
}

// Query loads the records of one domain, or of all domains when empty.
func (s *ExpertiseServiceImpl) Query(ctx context.Context, req primary.QueryRequest) ([]primary.DomainRecords, error) {
	domains, err := s.resolveDomains(req.Domain)
	if err != nil {
		return nil, err
	}

	results := make([]primary.DomainRecords, 0, len(domains))
	for _, domain := range domains {
		records, err := s.readDomain(domain)
		if err != nil {
			return nil, err
		}
		if req.Type != "" {
			records = search.Search(records, "", search.Options{Type: req.Type})
		}
		results = append(results, primary.DomainRecords{Domain: domain, Records: records})
	}
	return results, nil
}

// Search runs a substring search across domains. Domains without a match
// are omitted.
func (s *ExpertiseServiceImpl) Search(ctx context.Context, req primary.SearchRequest) ([]primary.DomainRecords, error) {
	domains, err := s.resolveDomains(req.Domain)
	if err != nil {
		return nil, err
	}
	opts := search.Options{
		CaseInsensitive: req.CaseInsensitive,
		Type:            req.Type,
		Classification:  req.Classification,
	}

	if req.UseIndex {
		return s.searchIndex(ctx, req.Query, opts, domains)
	}

	results := make([]primary.DomainRecords, 0)
	for _, domain := range domains {
		records, err := s.readDomain(domain)
		if err != nil {
			return nil, err
		}
		matches := search.Search(records, req.Query, opts)
		if len(matches) == 0 {
			continue
		}
		results = append(results, primary.DomainRecords{Domain: domain, Records: matches})
	}
	return results, nil
}

func (s *ExpertiseServiceImpl) searchIndex(ctx context.Context, query string, opts search.Options, domains []string) ([]primary.DomainRecords, error) {
	index, err := s.index()
	if err != nil {
		return nil, err
	}
	defer index.Close()

	hits, err := index.Search(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	wanted := make(map[string]bool, len(domains))
	for _, d := range domains {
		wanted[d] = true
	}
	results := make([]primary.DomainRecords, 0, len(hits))
	for _, hit := range hits {
		if !wanted[hit.Domain] {
			continue
		}
		results = append(results, primary.DomainRecords{Domain: hit.Domain, Records: hit.Records})
	}
	return results, nil
}

// Prune drops stale records from every configured domain, in config order.
// The first failure stops the run; domains rewritten before it stay rewritten.
func (s *ExpertiseServiceImpl) Prune(ctx context.Context, req primary.PruneRequest) (*primary.PruneResult, error) {
	now := req.Now
	if now.IsZero() {
		now = s.now()
	}
	sl := s.shelfLife()
	result := &primary.PruneResult{DryRun: req.DryRun}

	for _, domain := range s.cfg.Domains {
		if err := record.ValidateDomainName(domain); err != nil {
			return nil, &primary.PruneError{Domain: domain, Result: result, Err: err}
		}
		p := s.domainPath(domain)
		records, err := s.store.ReadAll(p)
		if err != nil {
			return nil, &primary.PruneError{Domain: domain, Result: result, Err: err}
		}
		if len(records) == 0 {
			continue
		}

		plan := staleness.GeneratePrunePlan(staleness.PrunePlanInput{
			Records:   records,
			Now:       now,
			ShelfLife: sl,
		})
		if !plan.Changed() {
			s.logger.Debug("nothing to prune", zap.String("domain", domain), zap.Int("records", len(records)))
			continue
		}

		if !req.DryRun {
			if err := s.store.WriteAll(p, plan.Kept); err != nil {
				return nil, &primary.PruneError{Domain: domain, Result: result, Err: err}
			}
			s.logger.Info("domain pruned",
				zap.String("domain", domain),
				zap.Int("pruned", len(plan.Expired)),
				zap.Int("kept", len(plan.Kept)))
		}

		result.Reports = append(result.Reports, primary.DomainPruneReport{
			Domain: domain,
			Before: len(records),
			Pruned: len(plan.Expired),
			After:  len(plan.Kept),
		})
		result.TotalPruned += len(plan.Expired)
	}
	return result, nil
}

// Diff extracts record-level changes to the expertise files since ref.
func (s *ExpertiseServiceImpl) Diff(ctx context.Context, ref string) ([]primary.DomainChanges, error) {
	text, err := s.changes.Diff(ctx, s.root, ref, expertiseRelDir())
	if err != nil {
		return nil, fmt.Errorf("failed to read expertise diff: %w", err)
	}

	extracted := diffextract.Extract(text)
	changes := make([]primary.DomainChanges, len(extracted))
	for i, c := range extracted {
		changes[i] = primary.DomainChanges{Domain: c.Domain, Added: c.Added, Removed: c.Removed}
	}
	return changes, nil
}

// Learn maps files changed since ref to the domains whose records declare
// them. Changes inside the mulch directory itself are ignored.
func (s *ExpertiseServiceImpl) Learn(ctx context.Context, ref string) (*primary.LearnResult, error) {
	files, err := s.changes.ChangedFiles(ctx, s.root, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files: %w", err)
	}

	changed := make([]string, 0, len(files))
	for _, f := range files {
		if strings.HasPrefix(f, config.MulchDirName+"/") {
			continue
		}
		changed = append(changed, f)
	}

	declared := make([]matcher.DomainFiles, 0, len(s.cfg.Domains))
	counts := make(map[string]int, len(s.cfg.Domains))
	for _, domain := range s.cfg.Domains {
		records, err := s.readDomain(domain)
		if err != nil {
			return nil, err
		}
		counts[domain] = len(records)
		declared = append(declared, matcher.DeclaredFiles(domain, records))
	}

	matched := matcher.Match(changed, declared)
	result := &primary.LearnResult{
		ChangedFiles: changed,
		Unmatched:    matched.Unmatched,
	}
	for _, m := range matched.Matches {
		result.Matches = append(result.Matches, primary.DomainMatch{
			Domain:       m.Domain,
			MatchedFiles: m.MatchedFiles,
			RecordCount:  counts[m.Domain],
		})
	}
	return result, nil
}

// Status summarizes record counts, staleness, and governance per domain.
func (s *ExpertiseServiceImpl) Status(ctx context.Context) ([]primary.DomainStatus, error) {
	now := s.now()
	sl := s.shelfLife()
	gov := s.cfg.Governance

	statuses := make([]primary.DomainStatus, 0, len(s.cfg.Domains))
	for _, domain := range s.cfg.Domains {
		records, err := s.readDomain(domain)
		if err != nil {
			return nil, err
		}

		st := primary.DomainStatus{
			Domain:     domain,
			Records:    len(records),
			ByType:     make(map[models.RecordType]int),
			Governance: governanceState(len(records), gov),
			MaxEntries: gov.MaxEntries,
		}
		for _, r := range records {
			st.ByType[r.Type()]++
			if staleness.IsStale(r, now, sl) {
				st.Stale++
			}
			if r.RecordedAt.After(st.LastRecorded) {
				st.LastRecorded = r.RecordedAt
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func governanceState(count int, gov config.Governance) string {
	switch {
	case gov.HardLimit > 0 && count >= gov.HardLimit:
		return primary.GovernanceOver
	case gov.WarnEntries > 0 && count >= gov.WarnEntries:
		return primary.GovernanceWarn
	default:
		return primary.GovernanceOK
	}
}

// Validate strictly reads every domain and reports each failure.
// Only failures to run the check itself are returned as an error.
func (s *ExpertiseServiceImpl) Validate(ctx context.Context) ([]primary.ValidationIssue, error) {
	var issues []primary.ValidationIssue
	for _, domain := range s.cfg.Domains {
		if err := record.ValidateDomainName(domain); err != nil {
			issues = append(issues, primary.ValidationIssue{Domain: domain, Err: err})
			continue
		}
		if _, err := s.store.ReadAll(s.domainPath(domain)); err != nil {
			issues = append(issues, primary.ValidationIssue{Domain: domain, Err: err})
		}
	}
	return issues, nil
}

// Inspect leniently reads every domain and counts malformed lines.
func (s *ExpertiseServiceImpl) Inspect(ctx context.Context) ([]primary.DomainHealth, error) {
	health := make([]primary.DomainHealth, 0, len(s.cfg.Domains))
	for _, domain := range s.cfg.Domains {
		if err := record.ValidateDomainName(domain); err != nil {
			health = append(health, primary.DomainHealth{Domain: domain})
			continue
		}
		p := s.domainPath(domain)

		h := primary.DomainHealth{Domain: domain}
		if _, err := os.Stat(p); err == nil {
			h.Exists = true
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}

		records, skipped, err := s.store.ReadAllLenient(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read domain %s: %w", domain, err)
		}
		h.Records = len(records)
		h.Malformed = skipped
		health = append(health, h)
	}
	return health, nil
}

// RebuildIndex rebuilds the derived search index from the record files.
func (s *ExpertiseServiceImpl) RebuildIndex(ctx context.Context) (int, error) {
	domains := make([]secondary.IndexedDomain, 0, len(s.cfg.Domains))
	total := 0
	for _, domain := range s.cfg.Domains {
		records, err := s.readDomain(domain)
		if err != nil {
			return 0, err
		}
		total += len(records)
		domains = append(domains, secondary.IndexedDomain{Domain: domain, Records: records})
	}

	index, err := s.index()
	if err != nil {
		return 0, err
	}
	defer index.Close()

	if err := index.Rebuild(ctx, domains); err != nil {
		return 0, fmt.Errorf("failed to rebuild index: %w", err)
	}
	s.logger.Info("index rebuilt", zap.Int("domains", len(domains)), zap.Int("records", total))
	return total, nil
}

func (s *ExpertiseServiceImpl) index() (secondary.SearchIndex, error) {
	if s.openIndex == nil {
		return nil, errors.New("search index is not configured")
	}
	index, err := s.openIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return index, nil
}

// resolveDomains returns the single named domain, or all domains when name is empty.
func (s *ExpertiseServiceImpl) resolveDomains(name string) ([]string, error) {
	if name == "" {
		return s.cfg.Domains, nil
	}
	if err := s.checkDomain(name); err != nil {
		return nil, err
	}
	return []string{name}, nil
}

func (s *ExpertiseServiceImpl) checkDomain(name string) error {
	if err := record.ValidateDomainName(name); err != nil {
		return err
	}
	if !s.cfg.HasDomain(name) {
		return fmt.Errorf("%w %q (run 'mulch add %s')", ErrUnknownDomain, name, name)
	}
	return nil
}

func (s *ExpertiseServiceImpl) readDomain(domain string) ([]models.Record, error) {
	if err := record.ValidateDomainName(domain); err != nil {
		return nil, err
	}
	records, err := s.store.ReadAll(s.domainPath(domain))
	if err != nil {
		return nil, fmt.Errorf("failed to read domain %s: %w", domain, err)
	}
	return records, nil
}

func (s *ExpertiseServiceImpl) domainPath(domain string) string {
	return config.DomainPath(s.root, domain)
}

func (s *ExpertiseServiceImpl) shelfLife() staleness.ShelfLife {
	sl := s.cfg.ShelfLife()
	return staleness.ShelfLife{Tactical: sl.Tactical, Observational: sl.Observational}
}

// expertiseRelDir is the expertise directory relative to the repository root,
// in the slash form git expects.
func expertiseRelDir() string {
	return path.Join(config.MulchDirName, config.ExpertiseDirName)
}

// Ensure ExpertiseServiceImpl implements the interface
var _ primary.ExpertiseService = (*ExpertiseServiceImpl)(nil)
