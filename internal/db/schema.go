package db

// SchemaSQL is the schema of the derived search index.
//
// The JSONL record files are the source of truth. The index holds one row
// per record plus one row per searchable text field, so a substring query
// is answered with instr() the same way the in-memory search answers it.
// value_folded carries the Go-lowercased text for case-insensitive queries.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY,
	domain TEXT NOT NULL,
	domain_pos INTEGER NOT NULL,
	line INTEGER NOT NULL,
	type TEXT NOT NULL,
	classification TEXT NOT NULL,
	body TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_order ON records(domain_pos, line);

CREATE TABLE IF NOT EXISTS record_fields (
	record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
	value TEXT NOT NULL,
	value_folded TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_record_fields_record ON record_fields(record_id);
`

// GetSchemaSQL returns the authoritative schema. Tests must use this rather
// than their own CREATE TABLE statements.
func GetSchemaSQL() string {
	return SchemaSQL
}
