package diffextract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mulch/internal/models"
)

const useESM = `{"type":"convention","content":"Use ESM","classification":"foundational","recorded_at":"2024-01-01T00:00:00.000Z"}`

func TestExtract_SingleAddition(t *testing.T) {
	text := `diff --git a/.mulch/expertise/cli.jsonl b/.mulch/expertise/cli.jsonl
--- a/.mulch/expertise/cli.jsonl
+++ b/.mulch/expertise/cli.jsonl
@@ -1,0 +1,1 @@
+` + useESM + "\n"

	got := Extract(text)

	require.Len(t, got, 1)
	assert.Equal(t, "cli", got[0].Domain)
	assert.Empty(t, got[0].Removed)
	require.Len(t, got[0].Added, 1)
	want := models.Record{
		Envelope: models.Envelope{
			Classification: models.Foundational,
			RecordedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Body: models.Convention{Content: "Use ESM"},
	}
	assert.Equal(t, want, got[0].Added[0])
}

func TestExtract_MultipleDomainsSortedWithEdit(t *testing.T) {
	oldRec := `{"type":"convention","content":"old wording","classification":"tactical","recorded_at":"2024-01-02T00:00:00Z"}`
	newRec := `{"type":"convention","content":"new wording","classification":"tactical","recorded_at":"2024-01-02T00:00:00Z"}`
	guide := `{"type":"guide","name":"deploy","description":"run make release","classification":"foundational","recorded_at":"2024-01-03T00:00:00Z"}`

	text := `diff --git a/.mulch/expertise/storage.jsonl b/.mulch/expertise/storage.jsonl
index 1111111..2222222 100644
--- a/.mulch/expertise/storage.jsonl
+++ b/.mulch/expertise/storage.jsonl
@@ -1,2 +1,2 @@
 ` + useESM + `
-` + oldRec + `
+` + newRec + `
diff --git a/.mulch/expertise/api.jsonl b/.mulch/expertise/api.jsonl
index 3333333..4444444 100644
--- a/.mulch/expertise/api.jsonl
+++ b/.mulch/expertise/api.jsonl
@@ -0,0 +1 @@
+` + guide + "\n"

	got := Extract(text)

	require.Len(t, got, 2)
	assert.Equal(t, "api", got[0].Domain)
	assert.Equal(t, "storage", got[1].Domain)

	require.Len(t, got[0].Added, 1)
	assert.Equal(t, models.TypeGuide, got[0].Added[0].Type())

	require.Len(t, got[1].Added, 1)
	require.Len(t, got[1].Removed, 1)
	assert.Equal(t, "new wording", got[1].Added[0].Summary())
	assert.Equal(t, "old wording", got[1].Removed[0].Summary())
}

func TestExtract_IgnoresUndecodablePayload(t *testing.T) {
	text := `diff --git a/.mulch/expertise/cli.jsonl b/.mulch/expertise/cli.jsonl
--- a/.mulch/expertise/cli.jsonl
+++ b/.mulch/expertise/cli.jsonl
@@ -1,3 +1,4 @@
+not json at all
+{"type":"convention","content":"truncated"
+{"type":"rumor","content":"x","classification":"tactical","recorded_at":"2024-01-01T00:00:00Z"}
+` + useESM + "\n"

	got := Extract(text)

	require.Len(t, got, 1)
	require.Len(t, got[0].Added, 1)
	assert.Equal(t, "Use ESM", got[0].Added[0].Summary())
}

func TestExtract_OmitsDomainsWithoutRecordChanges(t *testing.T) {
	text := `diff --git a/.mulch/expertise/cli.jsonl b/.mulch/expertise/cli.jsonl
--- a/.mulch/expertise/cli.jsonl
+++ b/.mulch/expertise/cli.jsonl
@@ -1,1 +1,2 @@
 ` + useESM + `
+garbage
`

	assert.Empty(t, Extract(text))
}

func TestExtract_NonExpertiseHeaderClearsCursor(t *testing.T) {
	text := `diff --git a/.mulch/expertise/cli.jsonl b/.mulch/expertise/cli.jsonl
--- a/.mulch/expertise/cli.jsonl
+++ b/.mulch/expertise/cli.jsonl
@@ -0,0 +1 @@
+` + useESM + `
diff --git a/.mulch/mulch.config.yaml b/.mulch/mulch.config.yaml
--- a/.mulch/mulch.config.yaml
+++ b/.mulch/mulch.config.yaml
@@ -0,0 +1 @@
+{"type":"guide","name":"stray","description":"not in a domain file","classification":"foundational","recorded_at":"2024-01-01T00:00:00Z"}
`

	got := Extract(text)

	require.Len(t, got, 1)
	assert.Len(t, got[0].Added, 1)
	assert.Equal(t, "Use ESM", got[0].Added[0].Summary())
}

func TestExtract_LinesBeforeAnyHeaderIgnored(t *testing.T) {
	text := "+" + useESM + "\n-" + useESM + "\n"
	assert.Empty(t, Extract(text))
}

func TestExtract_HeaderWithoutFileMarkers(t *testing.T) {
	text := "diff --git a/.mulch/expertise/cli.jsonl b/.mulch/expertise/cli.jsonl\n+" + useESM + "\n"

	got := Extract(text)

	require.Len(t, got, 1)
	assert.Equal(t, "cli", got[0].Domain)
	assert.Len(t, got[0].Added, 1)
}

func TestExtract_Empty(t *testing.T) {
	assert.Empty(t, Extract(""))
}

func TestScanLines_MatchesParsedPath(t *testing.T) {
	text := `diff --git a/.mulch/expertise/cli.jsonl b/.mulch/expertise/cli.jsonl
--- a/.mulch/expertise/cli.jsonl
+++ b/.mulch/expertise/cli.jsonl
@@ -1,1 +1,1 @@
-` + useESM + `
+` + useESM + "\n"

	raw := newMachine()
	raw.scanLines(text)

	assert.Equal(t, Extract(text), raw.result())
}

func TestExtract_ExpertiseMustBeWholeSegment(t *testing.T) {
	text := `diff --git a/notexpertise/x.jsonl b/notexpertise/x.jsonl
--- a/notexpertise/x.jsonl
+++ b/notexpertise/x.jsonl
@@ -0,0 +1 @@
+` + useESM + `
diff --git a/docs/myexpertise/cli.jsonl b/docs/myexpertise/cli.jsonl
+` + useESM + "\n"

	assert.Empty(t, Extract(text))

	raw := newMachine()
	raw.scanLines(text)
	assert.Empty(t, raw.result())
}

func TestExtract_ExpertiseDirAtRepoRoot(t *testing.T) {
	got := []string{}
	for _, header := range []string{
		"diff --git a/expertise/cli.jsonl b/expertise/cli.jsonl",
		"expertise/cli.jsonl",
	} {
		m := newMachine()
		m.enterFile(header)
		got = append(got, m.cursor)
	}
	assert.Equal(t, []string{"cli", "cli"}, got)
}
