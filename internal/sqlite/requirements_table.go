// Requirements table accessor for the SQLite backend.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

var _ types.Table = (*requirementsTable)(nil)

type requirementsTable struct {
	backend *Backend
}

const requirementColumns = `requirement_id, manifest_id, name, category, extras,
	constraints, source_scheme, source_url, source_revision, comment,
	created_at, updated_at`

// Get retrieves a requirement by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (rt *requirementsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	rt.backend.mu.RLock()
	defer rt.backend.mu.RUnlock()
	if !rt.backend.attached {
		return nil, types.ErrCatalogDetached
	}

	row := rt.backend.db.QueryRow(
		"SELECT "+requirementColumns+" FROM requirements WHERE requirement_id = ?", id)
	req, err := scanRequirement(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting requirement %s: %w", id, err)
	}
	return req, nil
}

// Set persists a requirement. When id is empty a UUID v7 is generated and
// the declaration is created; otherwise the existing row is updated.
// Returns ErrDuplicateRequirement when the manifest's category already
// declares the package under a different ID.
func (rt *requirementsTable) Set(id string, data any) (string, error) {
	req, ok := data.(*types.Requirement)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	rt.backend.mu.Lock()
	defer rt.backend.mu.Unlock()
	if !rt.backend.attached {
		return "", types.ErrCatalogDetached
	}

	now := time.Now().UTC()
	if id == "" {
		id = req.RequirementID
	}
	if id == "" {
		id = newUUID()
		req.CreatedAt = now
	}
	req.RequirementID = id
	req.UpdatedAt = now
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}

	// One declaration per package per category within a manifest.
	var dupID string
	err := rt.backend.db.QueryRow(
		`SELECT requirement_id FROM requirements
		 WHERE manifest_id = ? AND category = ? AND normalized_name = ? AND requirement_id != ?`,
		req.ManifestID, req.Category, types.NormalizeName(req.Name), id,
	).Scan(&dupID)
	if err == nil {
		return "", fmt.Errorf("%w: %s in %s", types.ErrDuplicateRequirement, req.Name, req.Category)
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("checking requirement uniqueness: %w", err)
	}

	row, err := rowFromRequirement(req)
	if err != nil {
		return "", err
	}

	_, err = rt.backend.db.Exec(`
		INSERT INTO requirements (requirement_id, manifest_id, name, normalized_name,
			category, extras, constraints, source_scheme, source_url, source_revision,
			comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(requirement_id) DO UPDATE SET
			manifest_id = excluded.manifest_id,
			name = excluded.name,
			normalized_name = excluded.normalized_name,
			category = excluded.category,
			extras = excluded.extras,
			constraints = excluded.constraints,
			source_scheme = excluded.source_scheme,
			source_url = excluded.source_url,
			source_revision = excluded.source_revision,
			comment = excluded.comment,
			updated_at = excluded.updated_at`,
		row.RequirementID, row.ManifestID, row.Name, row.NormalizedName,
		row.Category, row.Extras, row.Constraints, row.SourceScheme, row.SourceURL,
		row.SourceRevision, row.Comment, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("upserting requirement: %w", err)
	}

	if err := rt.backend.persistRequirementsJSONL(); err != nil {
		return "", err
	}
	return id, nil
}

// Delete removes a requirement by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (rt *requirementsTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	rt.backend.mu.Lock()
	defer rt.backend.mu.Unlock()
	if !rt.backend.attached {
		return types.ErrCatalogDetached
	}

	res, err := rt.backend.db.Exec("DELETE FROM requirements WHERE requirement_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting requirement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting requirement: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}

	return rt.backend.persistRequirementsJSONL()
}

// Fetch returns requirements matching the filter in insertion order.
// Supported filter keys: "manifest_id", "category", "name" (normalized),
// and "limit". An empty filter returns every requirement.
func (rt *requirementsTable) Fetch(filter map[string]any) ([]any, error) {
	rt.backend.mu.RLock()
	defer rt.backend.mu.RUnlock()
	if !rt.backend.attached {
		return nil, types.ErrCatalogDetached
	}

	query := "SELECT " + requirementColumns + " FROM requirements"
	var conditions []string
	var args []any

	if v, ok := filter["manifest_id"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		conditions = append(conditions, "manifest_id = ?")
		args = append(args, s)
	}
	if v, ok := filter["category"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		conditions = append(conditions, "category = ?")
		args = append(args, s)
	}
	if v, ok := filter["name"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		conditions = append(conditions, "normalized_name = ?")
		args = append(args, types.NormalizeName(s))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, rowid"

	if v, ok := filter["limit"]; ok {
		l, ok := toInt(v)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		if l > 0 {
			query += fmt.Sprintf(" LIMIT %d", l)
		}
	}

	rows, err := rt.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching requirements: %w", err)
	}
	defer rows.Close()

	var results []any
	for rows.Next() {
		req, err := scanRequirement(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning requirement: %w", err)
		}
		results = append(results, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetching requirements: %w", err)
	}
	return results, nil
}

// scanRequirement reads one requirement row using the given scan function.
func scanRequirement(scan func(...any) error) (*types.Requirement, error) {
	var row requirementRow
	var scheme, url, revision, comment sql.NullString
	err := scan(&row.RequirementID, &row.ManifestID, &row.Name, &row.Category,
		&row.Extras, &row.Constraints, &scheme, &url, &revision, &comment,
		&row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	row.SourceScheme = scheme.String
	row.SourceURL = url.String
	row.SourceRevision = revision.String
	row.Comment = comment.String
	return row.toRequirement()
}

// persistRequirementsJSONL writes every requirement row to
// requirements.jsonl atomically. The caller must hold b.mu.
func (b *Backend) persistRequirementsJSONL() error {
	rows, err := b.db.Query(`SELECT requirement_id, manifest_id, name, normalized_name,
		category, extras, constraints, source_scheme, source_url, source_revision,
		comment, created_at, updated_at FROM requirements ORDER BY created_at, rowid`)
	if err != nil {
		return fmt.Errorf("reading requirements for persist: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var row requirementRow
		var scheme, url, revision, comment sql.NullString
		if err := rows.Scan(&row.RequirementID, &row.ManifestID, &row.Name,
			&row.NormalizedName, &row.Category, &row.Extras, &row.Constraints,
			&scheme, &url, &revision, &comment, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return fmt.Errorf("scanning requirement for persist: %w", err)
		}
		row.SourceScheme = scheme.String
		row.SourceURL = url.String
		row.SourceRevision = revision.String
		row.Comment = comment.String
		rec, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshaling requirement: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading requirements for persist: %w", err)
	}

	return writeJSONL(filepath.Join(b.config.DataDir, requirementsJSONL), records)
}

// toInt converts a filter value to int, accepting the numeric types that
// JSON decoding and direct callers produce.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
