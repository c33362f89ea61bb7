// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/example/mulch/internal/core/record"
	"github.com/example/mulch/internal/models"
	"github.com/example/mulch/internal/ports/secondary"
)

// maxLineBytes bounds a single record line.
const maxLineBytes = 16 * 1024 * 1024

// RecordStore implements secondary.RecordStore over JSONL files: one record
// per LF-terminated line, insertion order equal to line order.
//
// No locks are taken. Appends from concurrent processes may interleave, and
// a rewrite interrupted between the temp write and the rename leaves the old
// file in place.
type RecordStore struct{}

// NewRecordStore creates a new JSONL record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

// ReadAll decodes every record in path. A missing file is empty; a line that
// fails to decode is a *record.DecodeError carrying its line number.
func (s *RecordStore) ReadAll(path string) ([]models.Record, error) {
	records, _, err := s.scan(path, true)
	return records, err
}

// ReadAllLenient decodes every record it can and counts the lines it skipped.
func (s *RecordStore) ReadAllLenient(path string) ([]models.Record, int, error) {
	return s.scan(path, false)
}

func (s *RecordStore) scan(path string, strict bool) ([]models.Record, int, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Record{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records := []models.Record{}
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := record.Decode(line)
		if err != nil {
			if !strict {
				skipped++
				continue
			}
			var decErr *record.DecodeError
			if errors.As(err, &decErr) {
				decErr.Line = lineNo
			}
			return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, skipped, nil
}

// Append writes one record as a new line at the end of path. If the file's
// last line lacks a terminator one is added first, so prior lines are never
// joined with the new one.
func (s *RecordStore) Append(path string, r models.Record) error {
	line, err := record.Encode(r)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	needsNewline, err := missingTrailingNewline(f)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}

	buf := make([]byte, 0, len(line)+2)
	if needsNewline {
		buf = append(buf, '\n')
	}
	buf = append(buf, line...)
	buf = append(buf, '\n')

	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

func missingTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return last[0] != '\n', nil
}

// CreateEmpty ensures path exists. Existing content is left untouched.
func (s *RecordStore) CreateEmpty(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f.Close()
}

// WriteAll replaces path with records, one per line. Every record is encoded
// before anything touches the disk; the new content lands via rename.
func (s *RecordStore) WriteAll(path string, records []models.Record) error {
	var buf bytes.Buffer
	for _, r := range records {
		line, err := record.Encode(r)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Ensure RecordStore implements the interface
var _ secondary.RecordStore = (*RecordStore)(nil)
