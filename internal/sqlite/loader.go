// JSONL loading for startup.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL filenames to their SQLite tables and column
// lists. Tables with foreign keys load after their referenced tables.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
}{
	{manifestsJSONL, "manifests", []string{"manifest_id", "path", "checksum", "imported_at"}},
	{requirementsJSONL, "requirements", []string{
		"requirement_id", "manifest_id", "name", "normalized_name", "category",
		"extras", "constraints", "source_scheme", "source_url", "source_revision",
		"comment", "created_at", "updated_at",
	}},
}

// loadAllJSONL reads each JSONL file from DataDir and inserts records into
// the corresponding SQLite tables. Loading is transactional: all succeed
// or the database remains empty. Malformed lines are skipped; unknown
// fields in JSONL records are silently ignored for forward compatibility.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys for load: %w", err)
	}

	for _, mapping := range jsonlTableMapping {
		path := filepath.Join(dataDir, mapping.file)
		records, err := readJSONL(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", mapping.file, err)
		}

		if len(records) == 0 {
			continue
		}

		if err := insertRecords(tx, mapping.table, mapping.columns, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("re-enabling foreign keys: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}

	return nil
}

// insertRecords inserts parsed JSONL records into a SQLite table. Only
// columns listed in the mapping are extracted; extra fields do not cause
// errors.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) error {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			// Skip malformed records.
			continue
		}
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = obj[col]
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}
	return nil
}
