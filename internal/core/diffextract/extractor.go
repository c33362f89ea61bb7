// Package diffextract recovers added and removed expertise records from
// unified-diff text.
//
// Extraction is a small state machine with one state variable: the domain
// of the file header seen most recently. Payload lines that do not decode as
// records (hunk headers, context, truncated JSON) are ignored by contract,
// never reported as errors.
package diffextract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/example/mulch/internal/core/record"
	"github.com/example/mulch/internal/models"
)

const fileHeaderPrefix = "diff --git "

var domainPathPattern = regexp.MustCompile(`(?:^|/)expertise/([A-Za-z0-9][A-Za-z0-9_-]*)\.[A-Za-z0-9]+`)

// DomainChanges holds the records added to and removed from one domain file.
// An edited record appears once in each list; pairing them is left to callers.
type DomainChanges struct {
	Domain  string
	Added   []models.Record
	Removed []models.Record
}

// Extract parses diff text and returns one entry per domain with at least
// one added or removed record, sorted by domain name.
func Extract(text string) []DomainChanges {
	m := newMachine()
	files, err := diff.ParseMultiFileDiff([]byte(text))
	if err == nil && len(files) > 0 {
		m.walkParsed(files)
	} else {
		m.scanLines(text)
	}
	return m.result()
}

type machine struct {
	cursor  string // "" means no active domain
	changes map[string]*DomainChanges
}

func newMachine() *machine {
	return &machine{changes: make(map[string]*DomainChanges)}
}

// enterFile handles a file header. A header for a non-expertise path clears
// the cursor so its payload is never attributed to the previous domain.
func (m *machine) enterFile(header string) {
	match := domainPathPattern.FindStringSubmatch(header)
	if match == nil {
		m.cursor = ""
		return
	}
	m.cursor = match[1]
	if _, ok := m.changes[m.cursor]; !ok {
		m.changes[m.cursor] = &DomainChanges{Domain: m.cursor}
	}
}

// payload handles one line from inside a file section.
func (m *machine) payload(line string) {
	if m.cursor == "" || isMetadata(line) || line == "" {
		return
	}
	var dst *[]models.Record
	switch line[0] {
	case '+':
		dst = &m.changes[m.cursor].Added
	case '-':
		dst = &m.changes[m.cursor].Removed
	default:
		return
	}
	rec, err := record.Decode([]byte(strings.TrimSpace(line[1:])))
	if err != nil {
		return
	}
	*dst = append(*dst, rec)
}

// walkParsed feeds a structurally parsed diff through the machine. Only a
// "diff --git" extended header moves the cursor, matching the raw scanner.
// Extended lines after that header are fed as payload too: a section with
// no ---/+++ markers leaves its body there.
func (m *machine) walkParsed(files []*diff.FileDiff) {
	for _, fd := range files {
		header := gitHeaderIndex(fd.Extended)
		if header >= 0 {
			m.enterFile(fd.Extended[header])
		}
		for _, line := range fd.Extended[header+1:] {
			m.payload(line)
		}
		for _, h := range fd.Hunks {
			for _, line := range strings.Split(string(h.Body), "\n") {
				m.payload(strings.TrimSuffix(line, "\r"))
			}
		}
	}
}

func gitHeaderIndex(extended []string) int {
	for i := len(extended) - 1; i >= 0; i-- {
		if strings.HasPrefix(extended[i], fileHeaderPrefix) {
			return i
		}
	}
	return -1
}

// scanLines is the tolerant path for text that is not a well-formed diff.
func (m *machine) scanLines(text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, fileHeaderPrefix) {
			m.enterFile(line)
			continue
		}
		m.payload(line)
	}
}

func (m *machine) result() []DomainChanges {
	out := make([]DomainChanges, 0, len(m.changes))
	for _, c := range m.changes {
		if len(c.Added) == 0 && len(c.Removed) == 0 {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

func isMetadata(line string) bool {
	return strings.HasPrefix(line, "+++") ||
		strings.HasPrefix(line, "---") ||
		strings.HasPrefix(line, "@@")
}
