// Package search implements substring search over expertise records.
package search

import (
	"strings"

	"github.com/example/mulch/internal/models"
)

// Options narrows a search. The zero value is a case-sensitive search over
// every record type and classification.
type Options struct {
	CaseInsensitive bool
	Type            models.RecordType
	Classification  models.Classification
}

// Search returns the records matching query, in input order. An empty query
// matches every record that passes the filters.
func Search(records []models.Record, query string, opts Options) []models.Record {
	out := make([]models.Record, 0)
	for _, r := range records {
		if Matches(r, query, opts) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether any text field of r contains query.
func Matches(r models.Record, query string, opts Options) bool {
	if opts.Type != "" && r.Type() != opts.Type {
		return false
	}
	if opts.Classification != "" && r.Classification != opts.Classification {
		return false
	}
	if query == "" {
		return true
	}
	if opts.CaseInsensitive {
		query = strings.ToLower(query)
	}
	for _, field := range Fields(r) {
		if opts.CaseInsensitive {
			field = strings.ToLower(field)
		}
		if strings.Contains(field, query) {
			return true
		}
	}
	return false
}

// Fields returns every searchable string of a record: the variant's text
// fields and declared files, followed by its tags.
func Fields(r models.Record) []string {
	var fields []string
	if r.Body != nil {
		fields = append(fields, r.Body.TextFields()...)
	}
	return append(fields, r.Tags...)
}
