// Manifests table accessor for the SQLite backend.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

var _ types.Table = (*manifestsTable)(nil)

type manifestsTable struct {
	backend *Backend
}

// manifestRow is the flat persisted form of a types.ManifestRecord.
type manifestRow struct {
	ManifestID string `json:"manifest_id"`
	Path       string `json:"path"`
	Checksum   string `json:"checksum"`
	ImportedAt string `json:"imported_at"`
}

// Get retrieves a manifest record by ID.
func (mt *manifestsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	mt.backend.mu.RLock()
	defer mt.backend.mu.RUnlock()
	if !mt.backend.attached {
		return nil, types.ErrCatalogDetached
	}

	row := mt.backend.db.QueryRow(
		"SELECT manifest_id, path, checksum, imported_at FROM manifests WHERE manifest_id = ?", id)
	rec, err := scanManifest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting manifest %s: %w", id, err)
	}
	return rec, nil
}

// Set persists a manifest record. When id is empty a UUID v7 is generated.
func (mt *manifestsTable) Set(id string, data any) (string, error) {
	rec, ok := data.(*types.ManifestRecord)
	if !ok {
		return "", types.ErrInvalidData
	}
	if rec.Path == "" {
		return "", types.ErrInvalidData
	}

	mt.backend.mu.Lock()
	defer mt.backend.mu.Unlock()
	if !mt.backend.attached {
		return "", types.ErrCatalogDetached
	}

	if id == "" {
		id = rec.ManifestID
	}
	if id == "" {
		id = newUUID()
	}
	rec.ManifestID = id
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}

	_, err := mt.backend.db.Exec(`
		INSERT INTO manifests (manifest_id, path, checksum, imported_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(manifest_id) DO UPDATE SET
			path = excluded.path,
			checksum = excluded.checksum,
			imported_at = excluded.imported_at`,
		rec.ManifestID, rec.Path, rec.Checksum,
		rec.ImportedAt.UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("upserting manifest: %w", err)
	}

	if err := mt.backend.persistManifestsJSONL(); err != nil {
		return "", err
	}
	return id, nil
}

// Delete removes a manifest record and all requirements imported from it.
func (mt *manifestsTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	mt.backend.mu.Lock()
	defer mt.backend.mu.Unlock()
	if !mt.backend.attached {
		return types.ErrCatalogDetached
	}

	var exists int
	if err := mt.backend.db.QueryRow(
		"SELECT 1 FROM manifests WHERE manifest_id = ?", id).Scan(&exists); err == sql.ErrNoRows {
		return types.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("checking manifest: %w", err)
	}

	// Cascade: requirements belong to their manifest snapshot.
	if _, err := mt.backend.db.Exec(
		"DELETE FROM requirements WHERE manifest_id = ?", id); err != nil {
		return fmt.Errorf("deleting manifest requirements: %w", err)
	}
	if _, err := mt.backend.db.Exec(
		"DELETE FROM manifests WHERE manifest_id = ?", id); err != nil {
		return fmt.Errorf("deleting manifest: %w", err)
	}

	if err := mt.backend.persistManifestsJSONL(); err != nil {
		return err
	}
	return mt.backend.persistRequirementsJSONL()
}

// Fetch returns manifest records matching the filter, newest first.
// Supported filter key: "path".
func (mt *manifestsTable) Fetch(filter map[string]any) ([]any, error) {
	mt.backend.mu.RLock()
	defer mt.backend.mu.RUnlock()
	if !mt.backend.attached {
		return nil, types.ErrCatalogDetached
	}

	query := "SELECT manifest_id, path, checksum, imported_at FROM manifests"
	var args []any
	if v, ok := filter["path"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		query += " WHERE path = ?"
		args = append(args, s)
	}
	query += " ORDER BY imported_at DESC, rowid DESC"

	rows, err := mt.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching manifests: %w", err)
	}
	defer rows.Close()

	var results []any
	for rows.Next() {
		rec, err := scanManifest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning manifest: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetching manifests: %w", err)
	}
	return results, nil
}

// scanManifest reads one manifest row using the given scan function.
func scanManifest(scan func(...any) error) (*types.ManifestRecord, error) {
	var row manifestRow
	if err := scan(&row.ManifestID, &row.Path, &row.Checksum, &row.ImportedAt); err != nil {
		return nil, err
	}
	rec := &types.ManifestRecord{
		ManifestID: row.ManifestID,
		Path:       row.Path,
		Checksum:   row.Checksum,
	}
	var err error
	if rec.ImportedAt, err = time.Parse(time.RFC3339Nano, row.ImportedAt); err != nil {
		return nil, fmt.Errorf("parsing imported_at: %w", err)
	}
	return rec, nil
}

// persistManifestsJSONL writes every manifest row to manifests.jsonl
// atomically. The caller must hold b.mu.
func (b *Backend) persistManifestsJSONL() error {
	rows, err := b.db.Query(
		"SELECT manifest_id, path, checksum, imported_at FROM manifests ORDER BY imported_at, rowid")
	if err != nil {
		return fmt.Errorf("reading manifests for persist: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var row manifestRow
		if err := rows.Scan(&row.ManifestID, &row.Path, &row.Checksum, &row.ImportedAt); err != nil {
			return fmt.Errorf("scanning manifest for persist: %w", err)
		}
		rec, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshaling manifest: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading manifests for persist: %w", err)
	}

	return writeJSONL(filepath.Join(b.config.DataDir, manifestsJSONL), records)
}
