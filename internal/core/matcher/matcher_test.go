package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mulch/internal/models"
)

func TestMatch_Basic(t *testing.T) {
	domains := []DomainFiles{{Domain: "cli", Files: []string{"src/cli.ts"}}}

	got := Match([]string{"src/cli.ts", "README.md"}, domains)

	assert.Equal(t, []DomainMatch{{Domain: "cli", MatchedFiles: []string{"src/cli.ts"}}}, got.Matches)
	assert.Equal(t, []string{"README.md"}, got.Unmatched)
}

func TestPathsMatch(t *testing.T) {
	tests := []struct {
		name     string
		changed  string
		declared string
		want     bool
	}{
		{name: "equal", changed: "src/foo.ts", declared: "src/foo.ts", want: true},
		{name: "dot-slash changed", changed: "./src/foo.ts", declared: "src/foo.ts", want: true},
		{name: "absolute changed", changed: "/repo/src/foo.ts", declared: "src/foo.ts", want: true},
		{name: "changed is suffix of declared", changed: "foo.ts", declared: "src/foo.ts", want: true},
		{name: "different file", changed: "src/bar.ts", declared: "src/foo.ts", want: false},
		{name: "different extension", changed: "src/foo.js", declared: "src/foo.ts", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PathsMatch(tt.changed, tt.declared))
		})
	}
}

func TestMatch_OrderingAndMultipleDomains(t *testing.T) {
	domains := []DomainFiles{
		{Domain: "storage", Files: []string{"internal/db/db.go"}},
		{Domain: "cli", Files: []string{"cmd/main.go", "internal/cli/root.go"}},
		{Domain: "api", Files: []string{"internal/db/db.go"}},
		{Domain: "empty"},
	}
	changed := []string{"internal/cli/root.go", "internal/db/db.go", "cmd/main.go", "docs/x.md"}

	got := Match(changed, domains)

	require.Len(t, got.Matches, 3)
	assert.Equal(t, DomainMatch{Domain: "cli", MatchedFiles: []string{"internal/cli/root.go", "cmd/main.go"}}, got.Matches[0])
	// equal counts fall back to domain name
	assert.Equal(t, "api", got.Matches[1].Domain)
	assert.Equal(t, "storage", got.Matches[2].Domain)
	assert.Equal(t, []string{"internal/db/db.go"}, got.Matches[1].MatchedFiles)
	assert.Equal(t, []string{"docs/x.md"}, got.Unmatched)
}

func TestMatch_TieBreakIsDomainName(t *testing.T) {
	domains := []DomainFiles{
		{Domain: "zeta", Files: []string{"z.go"}},
		{Domain: "alpha", Files: []string{"a.go"}},
	}

	got := Match([]string{"z.go", "a.go"}, domains)

	require.Len(t, got.Matches, 2)
	assert.Equal(t, "alpha", got.Matches[0].Domain)
	assert.Equal(t, "zeta", got.Matches[1].Domain)
}

func TestMatch_Globs(t *testing.T) {
	domains := []DomainFiles{{Domain: "cli", Files: []string{"internal/cli/**.go", "./cmd/*/main.go"}}}

	got := Match([]string{"internal/cli/prune.go", "./cmd/mulch/main.go", "internal/app/service.go"}, domains)

	require.Len(t, got.Matches, 1)
	assert.Equal(t, []string{"internal/cli/prune.go", "./cmd/mulch/main.go"}, got.Matches[0].MatchedFiles)
	assert.Equal(t, []string{"internal/app/service.go"}, got.Unmatched)
}

func TestMatch_GlobMetacharactersMatchLiterally(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		changed  string
	}{
		{name: "route segment", declared: "app/[slug]/page.tsx", changed: "app/[slug]/page.tsx"},
		{name: "route segment with dot prefix", declared: "app/[slug]/page.tsx", changed: "./app/[slug]/page.tsx"},
		{name: "dot-prefixed declaration", declared: "./app/[slug]/page.tsx", changed: "app/[slug]/page.tsx"},
		{name: "braces", declared: "src/{a}.ts", changed: "src/{a}.ts"},
		{name: "braces with dot prefix", declared: "src/{a}.ts", changed: "./src/{a}.ts"},
		{name: "suffix of declared", declared: "web/app/[slug]/page.tsx", changed: "app/[slug]/page.tsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match([]string{tt.changed}, []DomainFiles{{Domain: "web", Files: []string{tt.declared}}})

			assert.Equal(t, []DomainMatch{{Domain: "web", MatchedFiles: []string{tt.changed}}}, got.Matches)
			assert.Empty(t, got.Unmatched)
		})
	}
}

func TestMatch_NoDomains(t *testing.T) {
	got := Match([]string{"a.go", "", "b.go"}, nil)
	assert.Empty(t, got.Matches)
	assert.Equal(t, []string{"a.go", "b.go"}, got.Unmatched)
}

func TestDeclaredFiles(t *testing.T) {
	records := []models.Record{
		{Body: models.Pattern{Name: "p", Description: "d", Files: []string{"a.go", "b.go"}}},
		{Body: models.Reference{Name: "r", Description: "d", Files: []string{"b.go", "c.go"}}},
		{Body: models.Pattern{Name: "global", Description: "no files"}},
		{Body: models.Convention{Content: "conventions never declare files"}},
	}

	got := DeclaredFiles("cli", records)

	assert.Equal(t, DomainFiles{Domain: "cli", Files: []string{"a.go", "b.go", "c.go"}}, got)
}
