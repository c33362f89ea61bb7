// Package sqlite contains SQLite implementations of secondary ports.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/mulch/internal/core/record"
	"github.com/example/mulch/internal/core/search"
	"github.com/example/mulch/internal/ports/secondary"
)

// SearchIndex implements secondary.SearchIndex with SQLite.
type SearchIndex struct {
	db *sql.DB
}

// NewSearchIndex creates a new SQLite search index over an opened database.
func NewSearchIndex(db *sql.DB) *SearchIndex {
	return &SearchIndex{db: db}
}

// Rebuild replaces every indexed record in one transaction.
func (i *SearchIndex) Rebuild(ctx context.Context, domains []secondary.IndexedDomain) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM record_fields"); err != nil {
		return fmt.Errorf("failed to clear index fields: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("failed to clear index records: %w", err)
	}

	insertRecord, err := tx.PrepareContext(ctx,
		"INSERT INTO records (domain, domain_pos, line, type, classification, body) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer insertRecord.Close()

	insertField, err := tx.PrepareContext(ctx,
		"INSERT INTO record_fields (record_id, value, value_folded) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare field insert: %w", err)
	}
	defer insertField.Close()

	for pos, d := range domains {
		for line, r := range d.Records {
			body, err := record.Encode(r)
			if err != nil {
				return fmt.Errorf("failed to index %s record %d: %w", d.Domain, line+1, err)
			}
			res, err := insertRecord.ExecContext(ctx, d.Domain, pos, line, string(r.Type()), string(r.Classification), string(body))
			if err != nil {
				return fmt.Errorf("failed to index %s record %d: %w", d.Domain, line+1, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to index %s record %d: %w", d.Domain, line+1, err)
			}
			for _, field := range search.Fields(r) {
				if _, err := insertField.ExecContext(ctx, id, field, strings.ToLower(field)); err != nil {
					return fmt.Errorf("failed to index %s record %d: %w", d.Domain, line+1, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index rebuild: %w", err)
	}
	return nil
}

// Search answers a substring query with the same semantics as search.Search.
func (i *SearchIndex) Search(ctx context.Context, query string, opts search.Options) ([]secondary.IndexedDomain, error) {
	var (
		where []string
		args  []any
	)
	if opts.Type != "" {
		where = append(where, "r.type = ?")
		args = append(args, string(opts.Type))
	}
	if opts.Classification != "" {
		where = append(where, "r.classification = ?")
		args = append(args, string(opts.Classification))
	}
	if query != "" {
		column, needle := "value", query
		if opts.CaseInsensitive {
			column, needle = "value_folded", strings.ToLower(query)
		}
		where = append(where, "EXISTS (SELECT 1 FROM record_fields f WHERE f.record_id = r.id AND instr(f."+column+", ?) > 0)")
		args = append(args, needle)
	}

	q := "SELECT r.domain, r.body FROM records r"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY r.domain_pos, r.line"

	rows, err := i.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	var results []secondary.IndexedDomain
	for rows.Next() {
		var domain, body string
		if err := rows.Scan(&domain, &body); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		r, err := record.Decode([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("index is corrupt (run 'mulch index'): %w", err)
		}
		if n := len(results); n == 0 || results[n-1].Domain != domain {
			results = append(results, secondary.IndexedDomain{Domain: domain})
		}
		last := &results[len(results)-1]
		last.Records = append(last.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index rows: %w", err)
	}
	return results, nil
}

// Close closes the underlying database.
func (i *SearchIndex) Close() error {
	return i.db.Close()
}

// Ensure SearchIndex implements the interface
var _ secondary.SearchIndex = (*SearchIndex)(nil)
