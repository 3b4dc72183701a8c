// Flat row form of catalog entities, shared by the SQL accessors and the
// JSONL persistence layer.
package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// timeLayout is the persisted timestamp format. Fixed-width fractional
// seconds keep lexicographic string order identical to chronological
// order, which ORDER BY created_at depends on. RFC3339Nano would trim
// trailing zeros and break that.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// requirementRow is the flat persisted form of a types.Requirement:
// extras as JSON array text, constraints as canonical specifier text, the
// source locator split into its parts. JSONL records and SQLite rows share
// this shape.
type requirementRow struct {
	RequirementID  string `json:"requirement_id"`
	ManifestID     string `json:"manifest_id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	Category       string `json:"category"`
	Extras         string `json:"extras"`
	Constraints    string `json:"constraints"`
	SourceScheme   string `json:"source_scheme"`
	SourceURL      string `json:"source_url"`
	SourceRevision string `json:"source_revision"`
	Comment        string `json:"comment"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// rowFromRequirement flattens a requirement for persistence.
func rowFromRequirement(r *types.Requirement) (requirementRow, error) {
	extras, err := json.Marshal(r.Extras)
	if err != nil {
		return requirementRow{}, fmt.Errorf("marshaling extras: %w", err)
	}
	row := requirementRow{
		RequirementID:  r.RequirementID,
		ManifestID:     r.ManifestID,
		Name:           r.Name,
		NormalizedName: types.NormalizeName(r.Name),
		Category:       r.Category,
		Extras:         string(extras),
		Constraints:    types.ConstraintsString(r.Constraints),
		Comment:        r.Comment,
		CreatedAt:      r.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:      r.UpdatedAt.UTC().Format(timeLayout),
	}
	if r.Source != nil {
		row.SourceScheme = r.Source.Scheme
		row.SourceURL = r.Source.URL
		row.SourceRevision = r.Source.Revision
	}
	return row, nil
}

// toRequirement rebuilds the entity form of a persisted row.
func (row requirementRow) toRequirement() (*types.Requirement, error) {
	r := &types.Requirement{
		RequirementID: row.RequirementID,
		ManifestID:    row.ManifestID,
		Name:          row.Name,
		Category:      row.Category,
		Comment:       row.Comment,
	}

	if row.Extras != "" && row.Extras != "null" {
		if err := json.Unmarshal([]byte(row.Extras), &r.Extras); err != nil {
			return nil, fmt.Errorf("parsing extras %q: %w", row.Extras, err)
		}
	}

	constraints, err := types.ParseConstraints(row.Constraints)
	if err != nil {
		return nil, fmt.Errorf("parsing constraints %q: %w", row.Constraints, err)
	}
	r.Constraints = constraints

	if row.SourceScheme != "" {
		r.Source = &types.Source{
			Scheme:   row.SourceScheme,
			URL:      row.SourceURL,
			Revision: row.SourceRevision,
		}
	}

	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, row.CreatedAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, row.UpdatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return r, nil
}
