// Package matcher maps changed file paths to the domains whose pattern and
// reference records declare those files.
package matcher

import (
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/example/mulch/internal/models"
)

// DomainFiles is the set of files declared by one domain's records.
type DomainFiles struct {
	Domain string
	Files  []string
}

// DomainMatch lists the changed files that matched one domain, in input order.
type DomainMatch struct {
	Domain       string
	MatchedFiles []string
}

// Result is the outcome of matching changed files against domains.
type Result struct {
	// Matches is sorted by match count descending, then domain name ascending.
	Matches []DomainMatch
	// Unmatched holds changed files that matched no domain, in input order.
	Unmatched []string
}

// DeclaredFiles collects the files declared by a domain's pattern and
// reference records. Records without files do not take part in matching.
// Duplicates are dropped; first-seen order is kept.
func DeclaredFiles(domain string, records []models.Record) DomainFiles {
	df := DomainFiles{Domain: domain}
	seen := make(map[string]bool)
	for _, r := range records {
		for _, f := range r.Files() {
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			df.Files = append(df.Files, f)
		}
	}
	return df
}

// Match assigns each changed path to every domain declaring a matching file.
func Match(changed []string, domains []DomainFiles) Result {
	var result Result
	matchers := make([]*domainMatcher, 0, len(domains))
	for _, d := range domains {
		if len(d.Files) == 0 {
			continue
		}
		matchers = append(matchers, newDomainMatcher(d))
	}

	byDomain := make(map[string]*DomainMatch)
	var order []string
	for _, c := range changed {
		if c == "" {
			continue
		}
		hit := false
		for _, m := range matchers {
			if !m.matches(c) {
				continue
			}
			hit = true
			dm, ok := byDomain[m.domain]
			if !ok {
				dm = &DomainMatch{Domain: m.domain}
				byDomain[m.domain] = dm
				order = append(order, m.domain)
			}
			dm.MatchedFiles = append(dm.MatchedFiles, c)
		}
		if !hit {
			result.Unmatched = append(result.Unmatched, c)
		}
	}

	for _, name := range order {
		result.Matches = append(result.Matches, *byDomain[name])
	}
	sort.SliceStable(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if len(a.MatchedFiles) != len(b.MatchedFiles) {
			return len(a.MatchedFiles) > len(b.MatchedFiles)
		}
		return a.Domain < b.Domain
	})
	return result
}

// PathsMatch reports whether a changed path and a declared path refer to the
// same file: equal, or either one a suffix of the other.
func PathsMatch(changed, declared string) bool {
	return changed == declared ||
		strings.HasSuffix(declared, changed) ||
		strings.HasSuffix(changed, declared)
}

type domainMatcher struct {
	domain string
	plain  []string
	globs  []glob.Glob
}

func newDomainMatcher(d DomainFiles) *domainMatcher {
	m := &domainMatcher{domain: d.Domain, plain: d.Files}
	for _, f := range d.Files {
		if !isGlob(f) {
			continue
		}
		// Every declared path still matches literally; a glob only adds matches.
		if g, err := glob.Compile(strings.TrimPrefix(f, "./"), '/'); err == nil {
			m.globs = append(m.globs, g)
		}
	}
	return m
}

func (m *domainMatcher) matches(changed string) bool {
	for _, d := range m.plain {
		if PathsMatch(changed, d) {
			return true
		}
	}
	rel := strings.TrimPrefix(changed, "./")
	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func isGlob(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
