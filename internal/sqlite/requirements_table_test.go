// Tests for the requirements table accessor.
package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// newTestBackend attaches a backend on a temp dir and returns it with the
// requirements table.
func newTestBackend(t *testing.T) (*Backend, types.Table) {
	t.Helper()

	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { b.Detach() })

	table, err := b.GetTable(types.TableRequirements)
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	return b, table
}

func TestRequirements_SetAndGet(t *testing.T) {
	_, table := newTestBackend(t)

	req := &types.Requirement{
		Name:        "pytest",
		Category:    types.CategoryTest,
		Extras:      []string{"testing"},
		Constraints: []types.Constraint{{Op: types.OpGreaterEq, Version: "5"}},
		Comment:     "test runner",
	}
	id, err := table.Set("", req)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated ID")
	}

	entity, err := table.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got, ok := entity.(*types.Requirement)
	if !ok {
		t.Fatalf("unexpected entity type %T", entity)
	}
	if got.Name != "pytest" || got.Category != types.CategoryTest {
		t.Errorf("unexpected requirement: %+v", got)
	}
	if len(got.Extras) != 1 || got.Extras[0] != "testing" {
		t.Errorf("extras not preserved: %v", got.Extras)
	}
	if got.Comment != "test runner" {
		t.Errorf("comment not preserved: %q", got.Comment)
	}
	if got.Specifier() != "pytest[testing]>=5" {
		t.Errorf("unexpected specifier %q", got.Specifier())
	}
}

func TestRequirements_SetSourceLocator(t *testing.T) {
	_, table := newTestBackend(t)

	req := &types.Requirement{
		Name:     "asvdb",
		Category: types.CategoryTest,
		Source: &types.Source{
			Scheme: types.SchemeGit,
			URL:    "https://github.com/rapidsai/asvdb.git",
		},
	}
	id, err := table.Set("", req)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	entity, err := table.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got := entity.(*types.Requirement)
	if got.Source == nil {
		t.Fatal("source not preserved")
	}
	if got.Source.URL != "https://github.com/rapidsai/asvdb.git" {
		t.Errorf("unexpected source URL %q", got.Source.URL)
	}
	if got.Specifier() != "git+https://github.com/rapidsai/asvdb.git" {
		t.Errorf("unexpected specifier %q", got.Specifier())
	}
}

func TestRequirements_SetValidation(t *testing.T) {
	_, table := newTestBackend(t)

	if _, err := table.Set("", &types.Requirement{Category: types.CategoryTest}); !errors.Is(err, types.ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
	if _, err := table.Set("", &types.Requirement{Name: "x", Category: "runtime"}); !errors.Is(err, types.ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := table.Set("", "not a requirement"); err != types.ErrInvalidData {
		t.Errorf("expected ErrInvalidData, got %v", err)
	}
}

func TestRequirements_DuplicateRejected(t *testing.T) {
	_, table := newTestBackend(t)

	if _, err := table.Set("", &types.Requirement{Name: "pytest", Category: types.CategoryTest}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Same normalized name, same category: rejected.
	_, err := table.Set("", &types.Requirement{Name: "PyTest", Category: types.CategoryTest})
	if !errors.Is(err, types.ErrDuplicateRequirement) {
		t.Errorf("expected ErrDuplicateRequirement, got %v", err)
	}

	// Same name, different category: allowed.
	if _, err := table.Set("", &types.Requirement{Name: "pytest", Category: types.CategoryLint}); err != nil {
		t.Errorf("different category should not conflict: %v", err)
	}
}

func TestRequirements_UpdateKeepsID(t *testing.T) {
	_, table := newTestBackend(t)

	id, err := table.Set("", &types.Requirement{Name: "sphinx", Category: types.CategoryDocs})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	updated := &types.Requirement{
		RequirementID: id,
		Name:          "sphinx",
		Category:      types.CategoryDocs,
		Constraints:   []types.Constraint{{Op: types.OpCompatible, Version: "3.5"}},
	}
	id2, err := table.Set(id, updated)
	if err != nil {
		t.Fatalf("update Set failed: %v", err)
	}
	if id2 != id {
		t.Errorf("update changed ID: %s -> %s", id, id2)
	}

	entity, _ := table.Get(id)
	got := entity.(*types.Requirement)
	if types.ConstraintsString(got.Constraints) != "~=3.5" {
		t.Errorf("constraints not updated: %v", got.Constraints)
	}
}

func TestRequirements_Delete(t *testing.T) {
	_, table := newTestBackend(t)

	id, err := table.Set("", &types.Requirement{Name: "flake8", Category: types.CategoryLint})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := table.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := table.Get(id); err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := table.Delete(id); err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := table.Delete(""); err != types.ErrInvalidID {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestRequirements_Fetch(t *testing.T) {
	_, table := newTestBackend(t)

	seed := []*types.Requirement{
		{Name: "pytest", Category: types.CategoryTest},
		{Name: "pytest-cov", Category: types.CategoryTest},
		{Name: "flake8", Category: types.CategoryLint},
		{Name: "sphinx", Category: types.CategoryDocs},
	}
	for _, req := range seed {
		if _, err := table.Set("", req); err != nil {
			t.Fatalf("Set %s failed: %v", req.Name, err)
		}
	}

	all, err := table.Fetch(nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 requirements, got %d", len(all))
	}
	// Insertion order is preserved.
	first := all[0].(*types.Requirement)
	if first.Name != "pytest" {
		t.Errorf("expected pytest first, got %s", first.Name)
	}

	testOnly, err := table.Fetch(map[string]any{"category": types.CategoryTest})
	if err != nil {
		t.Fatalf("Fetch by category failed: %v", err)
	}
	if len(testOnly) != 2 {
		t.Errorf("expected 2 test requirements, got %d", len(testOnly))
	}

	byName, err := table.Fetch(map[string]any{"name": "Flake8"})
	if err != nil {
		t.Fatalf("Fetch by name failed: %v", err)
	}
	if len(byName) != 1 {
		t.Fatalf("expected 1 match for normalized name, got %d", len(byName))
	}

	limited, err := table.Fetch(map[string]any{"limit": 2})
	if err != nil {
		t.Fatalf("Fetch with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 with limit, got %d", len(limited))
	}

	if _, err := table.Fetch(map[string]any{"category": 42}); err != types.ErrInvalidFilter {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestRequirements_FetchOrdersSubSecondTimestamps(t *testing.T) {
	_, table := newTestBackend(t)

	// Fractional seconds whose variable-width renderings would sort
	// backwards as strings (".1" > ".15" because 'Z' > '5').
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	first := &types.Requirement{
		RequirementID: newUUID(),
		Name:          "pytest",
		Category:      types.CategoryTest,
		CreatedAt:     base.Add(100 * time.Millisecond),
	}
	second := &types.Requirement{
		RequirementID: newUUID(),
		Name:          "flake8",
		Category:      types.CategoryLint,
		CreatedAt:     base.Add(150 * time.Millisecond),
	}
	for _, req := range []*types.Requirement{first, second} {
		if _, err := table.Set(req.RequirementID, req); err != nil {
			t.Fatalf("Set %s failed: %v", req.Name, err)
		}
	}

	all, err := table.Fetch(nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(all))
	}
	if got := all[0].(*types.Requirement).Name; got != "pytest" {
		t.Errorf("expected pytest (created earlier) first, got %s", got)
	}
}
