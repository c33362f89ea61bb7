// Package sqlite_test contains integration tests for the SQLite search index.
//
// # Schema Protection
//
// This file is the SINGLE POINT where test databases are opened. setupTestIndex
// goes through db.Open, which applies db.GetSchemaSQL(), so tests always run
// against the authoritative schema.
//
// DO NOT hardcode CREATE TABLE statements in test files.
package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/example/mulch/internal/adapters/sqlite"
	"github.com/example/mulch/internal/db"
	"github.com/example/mulch/internal/models"
	"github.com/example/mulch/internal/ports/secondary"
)

// setupTestIndex opens a file-backed index with the authoritative schema.
// A temp file is used rather than :memory: so every pooled connection sees
// the same database.
func setupTestIndex(t *testing.T) *sqlite.SearchIndex {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	index := sqlite.NewSearchIndex(database)
	t.Cleanup(func() {
		index.Close()
	})
	return index
}

func rec(c models.Classification, body models.Body, tags ...string) models.Record {
	return models.Record{
		Envelope: models.Envelope{
			Classification: c,
			RecordedAt:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Tags:           tags,
		},
		Body: body,
	}
}

func fixture() []secondary.IndexedDomain {
	return []secondary.IndexedDomain{
		{Domain: "storage", Records: []models.Record{
			rec(models.Foundational, models.Decision{Title: "Adopt sqlite", Rationale: "embedded"}),
			rec(models.Tactical, models.Pattern{Name: "loader", Description: "lazy", Files: []string{"src/foo.ts"}}),
		}},
		{Domain: "cli", Records: []models.Record{
			rec(models.Foundational, models.Convention{Content: "Use ESM"}, "modules"),
			rec(models.Observational, models.Failure{Description: "flaky", Resolution: "Pin The Clock"}),
		}},
	}
}

func domainSummaries(results []secondary.IndexedDomain) map[string][]string {
	out := make(map[string][]string)
	for _, d := range results {
		for _, r := range d.Records {
			out[d.Domain] = append(out[d.Domain], r.Summary())
		}
	}
	return out
}

