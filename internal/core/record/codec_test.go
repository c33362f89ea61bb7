package record

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mulch/internal/models"
)

var recordedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func envelope(c models.Classification) models.Envelope {
	return models.Envelope{Classification: c, RecordedAt: recordedAt}
}

func TestDecode_Variants(t *testing.T) {
	tests := []struct {
		name string
		line string
		want models.Record
	}{
		{
			name: "convention",
			line: `{"type":"convention","content":"Use ESM","classification":"foundational","recorded_at":"2024-01-01T00:00:00.000Z"}`,
			want: models.Record{Envelope: envelope(models.Foundational), Body: models.Convention{Content: "Use ESM"}},
		},
		{
			name: "pattern with files",
			line: `{"type":"pattern","name":"cmd","description":"one file per command","files":["src/cli.ts"],"classification":"tactical","recorded_at":"2024-01-01T00:00:00Z"}`,
			want: models.Record{
				Envelope: envelope(models.Tactical),
				Body:     models.Pattern{Name: "cmd", Description: "one file per command", Files: []string{"src/cli.ts"}},
			},
		},
		{
			name: "failure",
			line: `{"type":"failure","description":"flaky test","resolution":"pin clock","classification":"observational","recorded_at":"2024-01-01T00:00:00Z"}`,
			want: models.Record{Envelope: envelope(models.Observational), Body: models.Failure{Description: "flaky test", Resolution: "pin clock"}},
		},
		{
			name: "decision with date",
			line: `{"type":"decision","title":"sqlite","rationale":"embedded","date":"2024-01-01","classification":"foundational","recorded_at":"2024-01-01T00:00:00Z"}`,
			want: models.Record{Envelope: envelope(models.Foundational), Body: models.Decision{Title: "sqlite", Rationale: "embedded", Date: "2024-01-01"}},
		},
		{
			name: "reference",
			line: `{"type":"reference","name":"api","description":"http docs","classification":"tactical","recorded_at":"2024-01-01T00:00:00Z"}`,
			want: models.Record{Envelope: envelope(models.Tactical), Body: models.Reference{Name: "api", Description: "http docs"}},
		},
		{
			name: "guide with envelope extras",
			line: `{"id":"mx-1","type":"guide","name":"release","description":"tag then push","tags":["ops"],"evidence":{"commit":"abc123"},"classification":"foundational","recorded_at":"2024-01-01T00:00:00Z"}`,
			want: models.Record{
				Envelope: models.Envelope{
					ID:             "mx-1",
					Classification: models.Foundational,
					RecordedAt:     recordedAt,
					Evidence:       &models.Evidence{Commit: "abc123"},
					Tags:           []string{"ops"},
				},
				Body: models.Guide{Name: "release", Description: "tag then push"},
			},
		},
		{
			name: "unknown keys kept",
			line: `{"type":"convention","content":"x","future":42,"classification":"tactical","recorded_at":"2024-01-01T00:00:00Z"}`,
			want: models.Record{
				Envelope: models.Envelope{
					Classification: models.Tactical,
					RecordedAt:     recordedAt,
					Extra:          map[string]json.RawMessage{"future": json.RawMessage(`42`)},
				},
				Body: models.Convention{Content: "x"},
			},
		},
		{
			name: "free-form evidence",
			line: `{"type":"convention","content":"x","evidence":{"commit":"abc","pr":"#12"},"classification":"tactical","recorded_at":"2024-01-01T00:00:00Z"}`,
			want: models.Record{
				Envelope: models.Envelope{
					Classification: models.Tactical,
					RecordedAt:     recordedAt,
					Evidence: &models.Evidence{
						Commit: "abc",
						Extra:  map[string]json.RawMessage{"pr": json.RawMessage(`"#12"`)},
					},
				},
				Body: models.Convention{Content: "x"},
			},
		},
		{
			name: "date-only recorded_at",
			line: `{"type":"convention","content":"x","classification":"tactical","recorded_at":"2024-01-01"}`,
			want: models.Record{Envelope: envelope(models.Tactical), Body: models.Convention{Content: "x"}},
		},
		{
			name: "zone-less recorded_at is UTC",
			line: `{"type":"convention","content":"x","classification":"tactical","recorded_at":"2024-01-01T00:00:00"}`,
			want: models.Record{Envelope: envelope(models.Tactical), Body: models.Convention{Content: "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.line))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantMsg string
	}{
		{name: "not json", line: `@@ -1,0 +1,1 @@`},
		{name: "array", line: `[1,2]`},
		{name: "null", line: `null`, wantMsg: "missing record type"},
		{name: "unknown type", line: `{"type":"rumor","content":"x","classification":"tactical","recorded_at":"2024-01-01T00:00:00Z"}`, wantMsg: `unknown record type "rumor"`},
		{name: "missing content", line: `{"type":"convention","classification":"tactical","recorded_at":"2024-01-01T00:00:00Z"}`, wantMsg: `convention record missing required field "content"`},
		{name: "missing pattern fields", line: `{"type":"pattern","classification":"tactical","recorded_at":"2024-01-01T00:00:00Z"}`, wantMsg: `pattern record missing required fields "name", "description"`},
		{name: "missing resolution", line: `{"type":"failure","description":"d","classification":"tactical","recorded_at":"2024-01-01T00:00:00Z"}`, wantMsg: `"resolution"`},
		{name: "missing classification", line: `{"type":"guide","name":"n","description":"d","recorded_at":"2024-01-01T00:00:00Z"}`, wantMsg: `"classification"`},
		{name: "missing recorded_at", line: `{"type":"guide","name":"n","description":"d","classification":"tactical"}`, wantMsg: `"recorded_at"`},
		{name: "numeric timestamp", line: `{"type":"guide","name":"n","description":"d","classification":"tactical","recorded_at":1704067200}`, wantMsg: "invalid recorded_at"},
		{name: "bad timestamp", line: `{"type":"guide","name":"n","description":"d","classification":"tactical","recorded_at":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.line))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode), "expected ErrDecode, got %v", err)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	records := []models.Record{
		{Envelope: envelope(models.Foundational), Body: models.Convention{Content: "Use ESM <modules> & friends"}},
		{Envelope: envelope(models.Tactical), Body: models.Pattern{Name: "p", Description: "d", Files: []string{"a.go", "b.go"}}},
		{Envelope: envelope(models.Observational), Body: models.Failure{Description: "d", Resolution: "r"}},
		{Envelope: envelope(models.Foundational), Body: models.Decision{Title: "t", Rationale: "r", Date: "2024-02-02"}},
		{Envelope: envelope(models.Tactical), Body: models.Reference{Name: "n", Description: "multi\nline"}},
		{
			Envelope: models.Envelope{
				ID:             "mx-abc",
				Classification: models.Foundational,
				RecordedAt:     recordedAt,
				Evidence:       &models.Evidence{Commit: "c", Date: "d", Issue: "#1", File: "f.go"},
				Tags:           []string{"x", "y"},
			},
			Body: models.Guide{Name: "n", Description: "d"},
		},
		{
			Envelope: models.Envelope{
				Classification: models.Tactical,
				RecordedAt:     recordedAt,
				Evidence:       &models.Evidence{Extra: map[string]json.RawMessage{"pr": json.RawMessage(`"#12"`)}},
				Extra:          map[string]json.RawMessage{"outcome": json.RawMessage(`"success"`)},
			},
			Body: models.Convention{Content: "with extras"},
		},
	}

	for _, r := range records {
		t.Run(string(r.Type()), func(t *testing.T) {
			line, err := Encode(r)
			require.NoError(t, err)
			assert.NotContains(t, string(line), "\n")
			assert.True(t, strings.HasPrefix(string(line), "{"))

			got, err := Decode(line)
			require.NoError(t, err)
			if diff := cmp.Diff(r, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncode_KeepsUnknownKeys(t *testing.T) {
	line := `{"type":"convention","content":"x","outcome":"success","evidence":{"commit":"abc","pr":"#12"},"classification":"foundational","recorded_at":"2024-01-01T00:00:00Z"}`

	rec, err := Decode([]byte(line))
	require.NoError(t, err)
	out, err := Encode(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "success", got["outcome"])
	assert.Equal(t, map[string]any{"commit": "abc", "pr": "#12"}, got["evidence"])
	assert.Equal(t, "x", got["content"])
	assert.Equal(t, "convention", got["type"])
}

func TestEncode_KnownKeysWinOverExtra(t *testing.T) {
	rec := models.Record{
		Envelope: models.Envelope{
			Classification: models.Tactical,
			RecordedAt:     recordedAt,
			Extra: map[string]json.RawMessage{
				"type":    json.RawMessage(`"guide"`),
				"content": json.RawMessage(`"stale"`),
			},
		},
		Body: models.Convention{Content: "fresh"},
	}

	out, err := Encode(rec)
	require.NoError(t, err)

	got, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, models.Convention{Content: "fresh"}, got.Body)
	assert.Empty(t, got.Extra)
}

func TestEncode_NormalizesDateOnlyTimestamp(t *testing.T) {
	rec, err := Decode([]byte(`{"type":"convention","content":"x","classification":"tactical","recorded_at":"2024-01-01"}`))
	require.NoError(t, err)

	out, err := Encode(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"recorded_at":"2024-01-01T00:00:00Z"`)
}

func TestEncode_RejectsInvalid(t *testing.T) {
	_, err := Encode(models.Record{Envelope: envelope(models.Tactical), Body: models.Convention{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = Encode(models.Record{Envelope: envelope(models.Tactical)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing record type")
}

func TestValidateDomainName(t *testing.T) {
	tests := []struct {
		name    string
		domain  string
		wantErr bool
	}{
		{name: "simple", domain: "cli"},
		{name: "digits first", domain: "2fa"},
		{name: "dash and underscore", domain: "api_v2-internal"},
		{name: "empty", domain: "", wantErr: true},
		{name: "leading dash", domain: "-cli", wantErr: true},
		{name: "path traversal", domain: "../etc", wantErr: true},
		{name: "dot", domain: "cli.v2", wantErr: true},
		{name: "space", domain: "my domain", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDomainName(tt.domain)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDomain))
				return
			}
			assert.NoError(t, err)
		})
	}
}
