// Package cli contains console renderers that translate CLI operations into
// ExpertiseService calls.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/mulch/internal/models"
	"github.com/example/mulch/internal/ports/primary"
	"github.com/example/mulch/internal/templates"
)

var (
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed)
	cyan    = color.New(color.FgCyan)
	magenta = color.New(color.FgHiMagenta)
	faint   = color.New(color.Faint)
)

// ExpertiseAdapter is a thin adapter that translates CLI operations to ExpertiseService calls.
// It depends only on the ExpertiseService interface, enabling easy testing with mocks.
type ExpertiseAdapter struct {
	service primary.ExpertiseService
	out     io.Writer
}

// NewExpertiseAdapter creates a new ExpertiseAdapter with the given service.
func NewExpertiseAdapter(service primary.ExpertiseService, out io.Writer) *ExpertiseAdapter {
	return &ExpertiseAdapter{
		service: service,
		out:     out,
	}
}

// AddDomain registers a domain.
func (a *ExpertiseAdapter) AddDomain(ctx context.Context, name string) error {
	if err := a.service.AddDomain(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Domain %s ready\n", green.Sprint(name))
	return nil
}

// Record appends one record and echoes it.
func (a *ExpertiseAdapter) Record(ctx context.Context, req primary.RecordRequest) (*primary.RecordResponse, error) {
	resp, err := a.service.RecordExpertise(ctx, req)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "✓ Recorded %s %s in %s\n", resp.Record.Type(), resp.Record.ID, green.Sprint(resp.Domain))
	fmt.Fprintf(a.out, "  %s\n", resp.Record.Summary())
	return resp, nil
}

// Query prints the records of one domain or of all domains.
func (a *ExpertiseAdapter) Query(ctx context.Context, req primary.QueryRequest) ([]primary.DomainRecords, error) {
	results, err := a.service.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		fmt.Fprintln(a.out, "No domains configured.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Create your first domain:")
		fmt.Fprintln(a.out, "  mulch add cli")
		return results, nil
	}

	for i, d := range results {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		fmt.Fprintf(a.out, "%s (%d)\n", cyan.Sprint(d.Domain), len(d.Records))
		if len(d.Records) == 0 {
			fmt.Fprintln(a.out, faint.Sprint("  (no records)"))
			continue
		}
		a.printRecords(d.Records)
	}
	return results, nil
}

// Search prints matching records grouped by domain.
func (a *ExpertiseAdapter) Search(ctx context.Context, req primary.SearchRequest) ([]primary.DomainRecords, error) {
	results, err := a.service.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		fmt.Fprintf(a.out, "No records match %q.\n", req.Query)
		return results, nil
	}

	total := 0
	for _, d := range results {
		fmt.Fprintf(a.out, "%s\n", cyan.Sprint(d.Domain))
		a.printRecords(d.Records)
		total += len(d.Records)
	}
	fmt.Fprintf(a.out, "\n%d %s in %d %s\n", total, plural(total, "match", "matches"), len(results), plural(len(results), "domain", "domains"))
	return results, nil
}

func (a *ExpertiseAdapter) printRecords(records []models.Record) {
	for _, r := range records {
		fmt.Fprintf(a.out, "  %s %s%s\n",
			typeLabel(r),
			r.Summary(),
			filesSuffix(r.Files()),
		)
	}
}

// Prune prints the prune report. When the run stops early, the domains
// already rewritten are still reported before the error is returned.
func (a *ExpertiseAdapter) Prune(ctx context.Context, req primary.PruneRequest) (*primary.PruneResult, error) {
	result, err := a.service.Prune(ctx, req)
	if err != nil {
		var pruneErr *primary.PruneError
		if errors.As(err, &pruneErr) && pruneErr.Result != nil && len(pruneErr.Result.Reports) > 0 {
			fmt.Fprintln(a.out, "Pruned before failure:")
			a.printPruneReports(pruneErr.Result)
		}
		return nil, err
	}

	if len(result.Reports) == 0 {
		fmt.Fprintln(a.out, "✓ Nothing to prune")
		return result, nil
	}

	a.printPruneReports(result)
	verb := "Pruned"
	if result.DryRun {
		verb = "Would prune"
	}
	fmt.Fprintf(a.out, "\n✓ %s %d stale %s\n", verb, result.TotalPruned, plural(result.TotalPruned, "record", "records"))
	return result, nil
}

func (a *ExpertiseAdapter) printPruneReports(result *primary.PruneResult) {
	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DOMAIN\tBEFORE\tPRUNED\tAFTER")
	fmt.Fprintln(w, "------\t------\t------\t-----")
	for _, r := range result.Reports {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", r.Domain, r.Before, r.Pruned, r.After)
	}
	w.Flush()
}

// Diff prints record-level changes since ref.
func (a *ExpertiseAdapter) Diff(ctx context.Context, ref string) ([]primary.DomainChanges, error) {
	changes, err := a.service.Diff(ctx, ref)
	if err != nil {
		return nil, err
	}

	if len(changes) == 0 {
		fmt.Fprintf(a.out, "No expertise changes since %s.\n", ref)
		return changes, nil
	}

	for i, c := range changes {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		fmt.Fprintf(a.out, "%s (+%d -%d)\n", cyan.Sprint(c.Domain), len(c.Added), len(c.Removed))
		for _, r := range c.Added {
			fmt.Fprintf(a.out, "  %s %s %s\n", green.Sprint("+"), typeLabel(r), r.Summary())
		}
		for _, r := range c.Removed {
			fmt.Fprintf(a.out, "  %s %s %s\n", red.Sprint("-"), typeLabel(r), r.Summary())
		}
	}
	return changes, nil
}

// Learn prints which domains own the files changed since ref.
func (a *ExpertiseAdapter) Learn(ctx context.Context, ref string) (*primary.LearnResult, error) {
	result, err := a.service.Learn(ctx, ref)
	if err != nil {
		return nil, err
	}

	if len(result.ChangedFiles) == 0 {
		fmt.Fprintf(a.out, "No changed files since %s.\n", ref)
		return result, nil
	}

	fmt.Fprintf(a.out, "%d changed %s since %s\n", len(result.ChangedFiles), plural(len(result.ChangedFiles), "file", "files"), ref)
	if len(result.Matches) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Domains to update:")
		for _, m := range result.Matches {
			fmt.Fprintf(a.out, "  %s (%d %s, %d %s)\n",
				green.Sprint(m.Domain),
				len(m.MatchedFiles), plural(len(m.MatchedFiles), "file", "files"),
				m.RecordCount, plural(m.RecordCount, "record", "records"))
			for _, f := range m.MatchedFiles {
				fmt.Fprintf(a.out, "    %s\n", f)
			}
		}
	}
	if len(result.Unmatched) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, yellow.Sprint("Not covered by any domain:"))
		for _, f := range result.Unmatched {
			fmt.Fprintf(a.out, "    %s\n", f)
		}
	}
	return result, nil
}

// Status prints per-domain counts, staleness, and governance.
func (a *ExpertiseAdapter) Status(ctx context.Context) ([]primary.DomainStatus, error) {
	statuses, err := a.service.Status(ctx)
	if err != nil {
		return nil, err
	}

	if len(statuses) == 0 {
		fmt.Fprintln(a.out, "No domains configured.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Create your first domain:")
		fmt.Fprintln(a.out, "  mulch add cli")
		return statuses, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DOMAIN\tRECORDS\tSTALE\tTYPES\tLAST RECORDED\tGOVERNANCE")
	fmt.Fprintln(w, "------\t-------\t-----\t-----\t-------------\t----------")
	for _, st := range statuses {
		last := "-"
		if !st.LastRecorded.IsZero() {
			last = st.LastRecorded.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			st.Domain,
			st.Records,
			st.Stale,
			typeCounts(st.ByType),
			last,
			governanceLabel(st),
		)
	}
	w.Flush()
	return statuses, nil
}

// Validate prints every validation issue. It returns an error when any
// domain failed so the command exits nonzero.
func (a *ExpertiseAdapter) Validate(ctx context.Context) ([]primary.ValidationIssue, error) {
	issues, err := a.service.Validate(ctx)
	if err != nil {
		return nil, err
	}

	if len(issues) == 0 {
		n := len(a.service.Domains(ctx))
		fmt.Fprintf(a.out, "✓ All %d %s valid\n", n, plural(n, "domain", "domains"))
		return issues, nil
	}

	for _, issue := range issues {
		fmt.Fprintf(a.out, "%s %s: %v\n", red.Sprint("✗"), issue.Domain, issue.Err)
	}
	return issues, fmt.Errorf("%d %s failed validation", len(issues), plural(len(issues), "domain", "domains"))
}

// Inspect prints the lenient-read health of every domain file and reports
// whether any file is missing or has malformed lines.
func (a *ExpertiseAdapter) Inspect(ctx context.Context) (healthy bool, err error) {
	health, err := a.service.Inspect(ctx)
	if err != nil {
		return false, err
	}

	healthy = true
	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DOMAIN\tFILE\tRECORDS\tMALFORMED")
	fmt.Fprintln(w, "------\t----\t-------\t---------")
	for _, h := range health {
		file := "ok"
		if !h.Exists {
			file = "missing"
			healthy = false
		}
		if h.Malformed > 0 {
			healthy = false
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", h.Domain, file, h.Records, h.Malformed)
	}
	w.Flush()
	return healthy, nil
}

// Index rebuilds the derived search index.
func (a *ExpertiseAdapter) Index(ctx context.Context) (int, error) {
	n, err := a.service.RebuildIndex(ctx)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(a.out, "✓ Indexed %d %s\n", n, plural(n, "record", "records"))
	return n, nil
}

// Prime renders the records of the given domains (all when empty) as a
// markdown context block.
func (a *ExpertiseAdapter) Prime(ctx context.Context, domains []string) error {
	var results []primary.DomainRecords
	if len(domains) == 0 {
		all, err := a.service.Query(ctx, primary.QueryRequest{})
		if err != nil {
			return err
		}
		results = all
	}
	for _, d := range domains {
		one, err := a.service.Query(ctx, primary.QueryRequest{Domain: d})
		if err != nil {
			return err
		}
		results = append(results, one...)
	}

	data := templates.PrimeData{Domains: make([]templates.PrimeDomain, 0, len(results))}
	for _, d := range results {
		data.Domains = append(data.Domains, templates.PrimeDomain{Name: d.Domain, Records: d.Records})
	}
	return templates.RenderPrime(a.out, data)
}

func typeLabel(r models.Record) string {
	label := fmt.Sprintf("[%s]", r.Type())
	switch r.Classification {
	case models.Foundational:
		return magenta.Sprint(label)
	case models.Tactical:
		return cyan.Sprint(label)
	default:
		return faint.Sprint(label)
	}
}

func filesSuffix(files []string) string {
	if len(files) == 0 {
		return ""
	}
	return faint.Sprintf(" (%s)", strings.Join(files, ", "))
}

func typeCounts(byType map[models.RecordType]int) string {
	if len(byType) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(byType))
	for t := range byType {
		keys = append(keys, string(t))
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s:%d", k, byType[models.RecordType(k)])
	}
	return strings.Join(parts, " ")
}

func governanceLabel(st primary.DomainStatus) string {
	switch st.Governance {
	case primary.GovernanceOver:
		return red.Sprint("OVER LIMIT")
	case primary.GovernanceWarn:
		return yellow.Sprintf("warn (target %d)", st.MaxEntries)
	default:
		return green.Sprint("ok")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
